package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shashiranjanraj/stockdesk/app/services"
	"github.com/shashiranjanraj/stockdesk/pkg/app"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	"github.com/shashiranjanraj/stockdesk/pkg/notification"
)

// session is a booted application plus the notifications it sent.
type session struct {
	*app.Application
	notes *notification.Recorder
	out   io.Writer
}

func boot(cmd *cobra.Command, g *globals) (*session, error) {
	notes := &notification.Recorder{}
	a, err := app.New(cmd.Context(), app.Options{
		Navigator: services.LogNavigator{},
		Channels:  []notification.Channel{notes},
		Token:     g.token,
	})
	if err != nil {
		return nil, err
	}
	return &session{Application: a, notes: notes, out: cmd.OutOrStdout()}, nil
}

// close flushes pending notifications and prints them.
func (s *session) close() {
	s.Application.Close()
	for _, m := range s.notes.Messages() {
		fmt.Fprintf(s.out, "[%s] %s\n", m.Severity, m.Text)
	}
}

// loadYAML decodes path into dest, rejecting unknown keys.
func loadYAML(path string, dest any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// printFields lists field errors sorted by path.
func printFields(w io.Writer, fields map[string]string) {
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(w, "  %s: %s\n", p, fields[p])
	}
}

// report prints the field errors carried by err, if any, and returns err.
func report(w io.Writer, err error) error {
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		printFields(w, fields)
	}
	return err
}
