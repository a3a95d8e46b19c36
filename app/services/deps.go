// Package services runs the product and stock flows: local validation,
// the API call, cache invalidation, notifications and navigation.
package services

import (
	"context"
	"time"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/schema"
	"github.com/shashiranjanraj/stockdesk/app/submission"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	"github.com/shashiranjanraj/stockdesk/pkg/auth"
	"github.com/shashiranjanraj/stockdesk/pkg/cache"
	"github.com/shashiranjanraj/stockdesk/pkg/event"
	"github.com/shashiranjanraj/stockdesk/pkg/logger"
	"github.com/shashiranjanraj/stockdesk/pkg/notification"
	"github.com/shashiranjanraj/stockdesk/pkg/storage"
	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

// ProductStore is the product side of the inventory API.
type ProductStore interface {
	List(ctx context.Context, page int) (models.ProductPage, error)
	Create(ctx context.Context, p *submission.Payload) (models.Product, error)
}

// VariantStore is the variant side of the inventory API.
type VariantStore interface {
	List(ctx context.Context, productID int64) ([]models.Variant, error)
	Create(ctx context.Context, productID int64, p *submission.Payload) (models.Variant, error)
}

// StockStore is the stock side of the inventory API.
type StockStore interface {
	Update(ctx context.Context, m models.StockMutation) (models.StockUpdate, error)
	Report(ctx context.Context, params map[string]string) ([]models.StockTransaction, error)
}

// BlobChecker reports payload files that cannot be read, by draft path.
type BlobChecker func(ctx context.Context, p *submission.Payload) validate.Errors

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(ctx context.Context, route string, state any)
}

// LogNavigator only logs the move. The CLI has no views to switch.
type LogNavigator struct{}

func (LogNavigator) Navigate(ctx context.Context, route string, _ any) {
	logger.WithCtx(ctx).Info("navigate", "route", route)
}

// Navigation is the payload of event.Navigated.
type Navigation struct {
	Route string `json:"route"`
	State any    `json:"state,omitempty"`
}

// BusNavigator fires event.Navigated so the console can forward it to the
// browser.
type BusNavigator struct{ Bus *event.Bus }

func (n BusNavigator) Navigate(_ context.Context, route string, state any) {
	n.Bus.Fire(event.Navigated, Navigation{Route: route, State: state})
}

// Guard rejects expired API sessions before any request is made.
type Guard struct {
	Token  string
	Leeway time.Duration
	Now    func() time.Time
}

func (g Guard) Check() error {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return auth.EnsureFresh(g.Token, now(), g.Leeway)
}

// Deps bundles what the services need. Blobs and Disks are optional.
type Deps struct {
	Schema    *schema.Schema
	Products  ProductStore
	Variants  VariantStore
	Stock     StockStore
	Cache     *cache.Cache
	Bus       *event.Bus
	Notifier  notification.Notifier
	Navigator Navigator
	Guard     Guard
	Blobs     BlobChecker
	Disks     *storage.Manager
}

func (d Deps) withDefaults() Deps {
	if d.Bus == nil {
		d.Bus = event.NewBus()
	}
	if d.Schema == nil {
		d.Schema = schema.New(schema.DefaultLimits())
	}
	if d.Navigator == nil {
		d.Navigator = LogNavigator{}
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewDispatcher(notification.LogChannel{})
	}
	if d.Cache == nil {
		d.Cache = cache.New(cache.NewMemory(time.Minute), d.Bus, time.Minute)
	}
	return d
}

// userMessage is the part of err fit for a notification.
func userMessage(err error) string {
	if ae, ok := apperr.As(err); ok && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}

// settle returns a context for work that must finish even when the view
// that started it has gone away, such as dropping stale cache entries.
func settle(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
}
