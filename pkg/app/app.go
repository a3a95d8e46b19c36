// Package app wires configuration into the running stockdesk services. Both
// the console server and the CLI commands start from it:
//
//	a, err := app.New(ctx, app.Options{Navigator: services.LogNavigator{}})
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	page, err := a.Products.List(ctx, 1)
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/repositories"
	"github.com/shashiranjanraj/stockdesk/app/schema"
	"github.com/shashiranjanraj/stockdesk/app/services"
	"github.com/shashiranjanraj/stockdesk/app/submission"
	"github.com/shashiranjanraj/stockdesk/config"
	"github.com/shashiranjanraj/stockdesk/pkg/cache"
	"github.com/shashiranjanraj/stockdesk/pkg/event"
	apihttp "github.com/shashiranjanraj/stockdesk/pkg/http"
	"github.com/shashiranjanraj/stockdesk/pkg/logger"
	"github.com/shashiranjanraj/stockdesk/pkg/notification"
	"github.com/shashiranjanraj/stockdesk/pkg/storage"
	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

// Options adjusts the wiring for the caller.
type Options struct {
	// Navigator defaults to services.BusNavigator, which the console
	// forwards to the browser.
	Navigator services.Navigator

	// Channels are added to the configured notification channels.
	Channels []notification.Channel

	// Token overrides API_TOKEN.
	Token string
}

// Application is the set of booted services.
type Application struct {
	Bus      *event.Bus
	Cache    *cache.Cache
	Disks    *storage.Manager
	Notifier *notification.Dispatcher
	API      *apihttp.Client
	Schema   *schema.Schema
	Guard    services.Guard

	Products *services.ProductService
	Stock    *services.StockFlow
	Reports  *services.ReportService

	closers []func()
}

// New loads the configuration and boots every service. Optional backends
// that cannot be reached (Redis, S3, the Mongo log sink) are logged and
// replaced or skipped; only a broken configuration file is fatal.
func New(ctx context.Context, opts Options) (*Application, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	models.SetTimestampLocation(config.ReportLocation())

	a := &Application{Bus: event.NewBus()}

	if uri := config.LogMongoURI(); uri != "" {
		closeLog, err := logger.AttachMongo(uri, config.LogMongoDB())
		if err != nil {
			logger.Warn("logger: mongo sink disabled", "error", err)
		} else {
			a.closers = append(a.closers, closeLog)
		}
	}

	a.Cache = cache.FromConfig(a.Bus)
	a.closers = append(a.closers, func() { _ = a.Cache.Close() })

	a.Disks = storage.FromConfig(ctx)

	a.Notifier = notification.FromConfig(a.Bus)
	a.Notifier.Add(opts.Channels...)
	a.closers = append(a.closers, a.Notifier.Wait)

	token := opts.Token
	if token == "" {
		token = config.APIToken()
	}
	a.API = apihttp.NewClient(config.APIBaseURL(), token)
	a.API.Timeout = config.HTTPTimeout()
	a.API.Retries = config.HTTPRetries()

	a.Schema = schema.New(schema.LimitsFromConfig())
	a.Guard = services.Guard{Token: token, Leeway: 30 * time.Second}

	nav := opts.Navigator
	if nav == nil {
		nav = services.BusNavigator{Bus: a.Bus}
	}

	deps := services.Deps{
		Schema:    a.Schema,
		Products:  repositories.NewProductRepository(a.API, a.Disks),
		Variants:  repositories.NewVariantRepository(a.API, a.Disks),
		Stock:     repositories.NewStockRepository(a.API),
		Cache:     a.Cache,
		Bus:       a.Bus,
		Notifier:  a.Notifier,
		Navigator: nav,
		Guard:     a.Guard,
		Blobs: func(ctx context.Context, p *submission.Payload) validate.Errors {
			return repositories.MissingBlobs(ctx, a.Disks, p)
		},
		Disks: a.Disks,
	}
	a.Products = services.NewProductService(deps)
	a.Stock = services.NewStockFlow(deps)
	a.Reports = services.NewReportService(deps)

	logger.Info("stockdesk: booted",
		"env", config.AppEnv(),
		"api", config.APIBaseURL(),
		"cache", a.Cache.Store(),
		"disks", a.Disks.Names(),
	)
	return a, nil
}

// Close flushes pending notifications and releases the backends, most
// recently opened first.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
