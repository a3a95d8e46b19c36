package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/services"
	"github.com/shashiranjanraj/stockdesk/app/submission"
	"github.com/shashiranjanraj/stockdesk/pkg/cache"
	"github.com/shashiranjanraj/stockdesk/pkg/event"
	"github.com/shashiranjanraj/stockdesk/pkg/notification"
)

type fakeProducts struct {
	mu       sync.Mutex
	lists    int
	created  []*submission.Payload
	createFn func(ctx context.Context) (models.Product, error)
}

func (f *fakeProducts) List(context.Context, int) (models.ProductPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return models.ProductPage{Count: 1, Results: []models.Product{{ID: 1, ProductName: "Tee"}}}, nil
}

func (f *fakeProducts) Create(ctx context.Context, p *submission.Payload) (models.Product, error) {
	f.mu.Lock()
	f.created = append(f.created, p)
	f.mu.Unlock()
	return f.createFn(ctx)
}

type fakeVariants struct {
	mu       sync.Mutex
	lists    int
	existing []models.Variant
	created  int
}

func (f *fakeVariants) List(context.Context, int64) ([]models.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return f.existing, nil
}

func (f *fakeVariants) Create(_ context.Context, productID int64, p *submission.Payload) (models.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	sku, _ := p.Field("sku")
	return models.Variant{ID: 99, Product: productID, SKU: sku}, nil
}

type fakeStock struct {
	mu       sync.Mutex
	applied  []models.StockMutation
	updateFn func(ctx context.Context, m models.StockMutation) (models.StockUpdate, error)
	rows     []models.StockTransaction
	reports  int
	params   map[string]string
}

func (f *fakeStock) Update(ctx context.Context, m models.StockMutation) (models.StockUpdate, error) {
	f.mu.Lock()
	f.applied = append(f.applied, m)
	f.mu.Unlock()
	return f.updateFn(ctx, m)
}

func (f *fakeStock) Report(_ context.Context, params map[string]string) ([]models.StockTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports++
	f.params = params
	return f.rows, nil
}

type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(_ context.Context, route string, _ any) {
	n.mu.Lock()
	n.routes = append(n.routes, route)
	n.mu.Unlock()
}

func (n *recordingNavigator) Routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

type harness struct {
	deps     services.Deps
	products *fakeProducts
	variants *fakeVariants
	stock    *fakeStock
	notes    *notification.Recorder
	nav      *recordingNavigator
	cache    *cache.Cache
	bus      *event.Bus
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	bus := event.NewBus()
	c := cache.New(cache.NewMemory(time.Minute), bus, time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	h := &harness{
		products: &fakeProducts{createFn: func(context.Context) (models.Product, error) {
			return models.Product{ID: 5, ProductName: "Tee"}, nil
		}},
		variants: &fakeVariants{},
		stock: &fakeStock{updateFn: func(_ context.Context, m models.StockMutation) (models.StockUpdate, error) {
			return models.StockUpdate{NewStock: 10 + m.Delta()}, nil
		}},
		notes: &notification.Recorder{},
		nav:   &recordingNavigator{},
		cache: c,
		bus:   bus,
	}
	h.deps = services.Deps{
		Products:  h.products,
		Variants:  h.variants,
		Stock:     h.stock,
		Cache:     c,
		Bus:       bus,
		Notifier:  h.notes,
		Navigator: h.nav,
		Guard:     services.Guard{Token: "opaque-token"},
	}
	return h
}

func (h *harness) texts() []string {
	var out []string
	for _, m := range h.notes.Messages() {
		out = append(out, string(m.Severity)+": "+m.Text)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func fillValid(d *models.ProductDraft) {
	d.ProductID = ptr(int64(3))
	d.ProductCode = "TEE"
	d.ProductName = "Tee"
	d.ProductImage = &models.BlobRef{Path: "tee.jpg"}
	d.Variants[0].SKU = "TEE-M"
	d.Variants[0].Stock = ptr(int64(4))
	d.Variants[0].Price = ptr(12.0)
	d.Variants[0].Image = &models.BlobRef{Path: "tee-m.jpg"}
	d.Variants[0].Options[0] = models.OptionEntry{VariantType: models.Size, Value: "M"}
}
