package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/shashiranjanraj/stockdesk/pkg/logger"
	"github.com/shashiranjanraj/stockdesk/pkg/metrics"
	"github.com/shashiranjanraj/stockdesk/pkg/response"
)

// Recovery answers a panicking handler with a 500 envelope. The panic is
// logged through the request's logger with the route pattern and stack, and
// counted per route. Mount it inside reqid.Middleware and Logger so the line
// carries the request_id and the access line records the 500.
//
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			route := metrics.RoutePattern(r)
			metrics.PanicsRecovered.WithLabelValues(route).Inc()
			logger.WithCtx(r.Context()).Error("handler panicked",
				"panic", fmt.Sprint(rec),
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		}()
		next.ServeHTTP(w, r)
	})
}
