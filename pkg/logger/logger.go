// Package logger provides the structured, levelled logger used across
// stockdesk, built on log/slog.
//
// Development builds log human-readable text; APP_ENV=production switches to
// JSON. WithCtx returns a logger already tagged with the request ID so every
// line written while serving one console request is correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("stock updated", "variant_id", id, "new_stock", n)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/shashiranjanraj/stockdesk/config"
)

var (
	L  *slog.Logger
	mu sync.Mutex

	base slog.Handler
)

func init() {
	base = newHandler(os.Stderr)
	L = slog.New(base)
	slog.SetDefault(L)
}

func newHandler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(config.LogLevel())}

	switch config.AppEnv() {
	case "production", "prod":
		return slog.NewJSONHandler(w, opts)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// SetOutput rebuilds the base handler on w. Tests use it to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newHandler(w)
	L = slog.New(base)
	slog.SetDefault(L)
}

// AttachMongo fans every record out to a MongoDB sink in addition to the base
// handler. The returned func flushes and disconnects; call it on shutdown.
func AttachMongo(uri, db string) (func(), error) {
	h, err := NewMongoHandler(uri, db, "logs")
	if err != nil {
		return func() {}, err
	}

	mu.Lock()
	L = slog.New(NewMultiHandler(base, h))
	slog.SetDefault(L)
	mu.Unlock()

	return h.Close, nil
}

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or the base
// logger when there is none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }

func Info(msg string, args ...any) { L.Info(msg, args...) }

func Warn(msg string, args ...any) { L.Warn(msg, args...) }

func Error(msg string, args ...any) { L.Error(msg, args...) }
