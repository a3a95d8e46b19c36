package routes

import (
	"github.com/shashiranjanraj/stockdesk/app/controllers"
	"github.com/shashiranjanraj/stockdesk/pkg/ctx"
	"github.com/shashiranjanraj/stockdesk/pkg/router"
)

// RegisterAPI mounts the console API. session guards every route that talks
// to the inventory API.
func RegisterAPI(r *router.Router, c *controllers.Set, session router.Middleware) {
	r.Get("/healthz", "health", ctx.Wrap(c.Health.Show))
	r.Get("/events", "events", ctx.Wrap(c.Events.Stream))

	api := r.Group("/api", session)
	api.Get("/products", "products.index", ctx.Wrap(c.Products.Index))
	api.Post("/products", "products.store", ctx.Wrap(c.Products.Store))
	api.Post("/products/validate", "products.validate", ctx.Wrap(c.Products.Validate))
	api.Get("/products/{id}/variants", "variants.index", ctx.Wrap(c.Products.Variants))
	api.Post("/products/{id}/variants", "variants.store", ctx.Wrap(c.Products.StoreVariant))
	api.Post("/variants/{id}/stock", "stock.update", ctx.Wrap(c.Stock.Update))
	api.Get("/stock-reports", "reports.index", ctx.Wrap(c.Reports.Index))
}
