package middleware

import (
	"net/http"

	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	"github.com/shashiranjanraj/stockdesk/pkg/response"
)

// RequireSession answers 401 while check fails, so the console asks for a
// new API token before a form is filled in against an expired session.
func RequireSession(check func() error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := check(); err != nil {
				msg := "Unauthorized"
				if ae, ok := apperr.As(err); ok && ae.Message != "" {
					msg = ae.Message
				}
				response.Unauthorized(w, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
