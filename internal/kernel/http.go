// Package kernel builds the console's HTTP handler from a booted
// application.
package kernel

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/stockdesk/app/controllers"
	"github.com/shashiranjanraj/stockdesk/app/routes"
	"github.com/shashiranjanraj/stockdesk/config"
	"github.com/shashiranjanraj/stockdesk/pkg/app"
	"github.com/shashiranjanraj/stockdesk/pkg/metrics"
	"github.com/shashiranjanraj/stockdesk/pkg/middleware"
	"github.com/shashiranjanraj/stockdesk/pkg/reqid"
	"github.com/shashiranjanraj/stockdesk/pkg/response"
	"github.com/shashiranjanraj/stockdesk/pkg/router"
)

// NewRouter mounts the middleware stack and every console route.
//
// Middleware, outermost first:
//  1. metrics   total latency per route pattern
//  2. reqid     mint or reuse X-Request-ID
//  3. logger    request-scoped logger and access line
//  4. recovery  a panicking handler answers 500, logged with its request_id
//  5. cors
//  6. rate limit, keyed by peer or by X-Forwarded-For from trusted proxies
func NewRouter(a *app.Application) *router.Router {
	r := router.New()
	r.Use(metrics.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(middleware.CORSFromConfig()))
	limiter := middleware.NewLimiter(config.ConsoleRateLimit(), time.Minute).
		TrustProxies(config.ConsoleTrustedProxies()...)
	r.Use(limiter.Middleware)

	r.HandleFunc("/metrics", metrics.Handler())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })

	set := controllers.New(controllers.Deps{
		Products: a.Products,
		Stock:    a.Stock,
		Reports:  a.Reports,
		Bus:      a.Bus,
		Disks:    a.Disks,
	})
	routes.RegisterAPI(r, set, middleware.RequireSession(a.Guard.Check))
	return r
}

// NewHTTPKernel returns the console handler.
func NewHTTPKernel(a *app.Application) http.Handler {
	return NewRouter(a).Handler()
}
