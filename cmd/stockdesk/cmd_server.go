package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockdesk/config"
	"github.com/shashiranjanraj/stockdesk/internal/kernel"
	"github.com/shashiranjanraj/stockdesk/internal/server"
	"github.com/shashiranjanraj/stockdesk/pkg/app"
)

// stockdesk serve: start the console API.
func newServeCmd(g *globals) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the console API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, app.Options{Token: g.token})
			if err != nil {
				return err
			}
			defer a.Close()

			if port == "" {
				port = config.ConsolePort()
			}
			return server.Start(ctx, ":"+port, kernel.NewHTTPKernel(a))
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default CONSOLE_PORT)")
	return cmd
}

// stockdesk route:list: print every named console route.
func newRouteListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "List the console routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), app.Options{Token: g.token})
			if err != nil {
				return err
			}
			defer a.Close()

			infos := kernel.NewRouter(a).Routes()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tNAME")
			fmt.Fprintln(w, "------\t----\t----")
			for _, ri := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
			}
			return w.Flush()
		},
	}
}
