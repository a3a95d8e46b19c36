package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/stockdesk/app/forms"
	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/submission"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	"github.com/shashiranjanraj/stockdesk/pkg/cache"
	"github.com/shashiranjanraj/stockdesk/pkg/event"
	"github.com/shashiranjanraj/stockdesk/pkg/logger"
	"github.com/shashiranjanraj/stockdesk/pkg/metrics"
	"github.com/shashiranjanraj/stockdesk/pkg/notification"
)

const (
	// ProductsRoute is where a successful creation lands.
	ProductsRoute = "/products"

	MsgCreateFailed        = "Failed to create product, check the SKUs are not duplicate"
	MsgVariantCreateFailed = "Failed to add variant"
)

// ProductCreated is the payload of event.ProductCreated.
type ProductCreated struct {
	Product models.Product `json:"product"`
}

type ProductService struct {
	deps Deps
}

func NewProductService(d Deps) *ProductService {
	return &ProductService{deps: d.withDefaults()}
}

func (s *ProductService) NewForm() *forms.ProductForm { return forms.NewProductForm(s.deps.Schema) }

// LoadForm starts a form session from an existing draft.
func (s *ProductService) LoadForm(d models.ProductDraft) *forms.ProductForm {
	return forms.Load(s.deps.Schema, d)
}

// List returns one page of products, cached under products:page:N.
func (s *ProductService) List(ctx context.Context, page int) (models.ProductPage, error) {
	if err := s.deps.Guard.Check(); err != nil {
		return models.ProductPage{}, err
	}
	if page < 1 {
		page = 1
	}
	return cache.Remember(ctx, s.deps.Cache, cache.ProductsPage(page), func(ctx context.Context) (models.ProductPage, error) {
		return s.deps.Products.List(ctx, page)
	})
}

// Variants returns the variants of one product, cached under variants:<id>.
func (s *ProductService) Variants(ctx context.Context, productID int64) ([]models.Variant, error) {
	if err := s.deps.Guard.Check(); err != nil {
		return nil, err
	}
	return cache.Remember(ctx, s.deps.Cache, cache.Variants(productID), func(ctx context.Context) ([]models.Variant, error) {
		return s.deps.Variants.List(ctx, productID)
	})
}

// Create validates the form, uploads it and, on success, invalidates the
// product and variant listings, notifies, resets the form and navigates to
// the product list.
//
// Failures leave the draft untouched. Field errors from the server are shown
// on the form, and every failure raises one generic notification. When ctx
// is done before the answer arrives the result is discarded and an
// apperr.Stale error returned; caches are still invalidated if the product
// was created.
func (s *ProductService) Create(ctx context.Context, form *forms.ProductForm) (models.Product, error) {
	log := logger.WithCtx(ctx)

	if err := s.deps.Guard.Check(); err != nil {
		s.deps.Notifier.Notify(ctx, notification.Error, userMessage(err))
		return models.Product{}, err
	}

	if errs := form.Validate(); len(errs) > 0 {
		metrics.ValidationFailures.WithLabelValues("product").Inc()
		metrics.ProductSubmissions.WithLabelValues("invalid").Inc()
		return models.Product{}, apperr.ValidationErr(errs)
	}

	payload, err := submission.Assemble(form.Draft())
	if err != nil {
		return models.Product{}, fmt.Errorf("services: assemble product: %w", err)
	}
	if s.deps.Blobs != nil {
		if missing := s.deps.Blobs(ctx, payload); len(missing) > 0 {
			form.SetRemoteErrors(missing)
			metrics.ProductSubmissions.WithLabelValues("invalid").Inc()
			return models.Product{}, apperr.ValidationErr(missing)
		}
	}

	created, err := s.deps.Products.Create(ctx, payload)
	if err == nil {
		s.invalidateAfterCreate(ctx, created.ID)
	}

	if ctx.Err() != nil {
		metrics.ProductSubmissions.WithLabelValues("stale").Inc()
		log.Info("product: result discarded, view is gone", "error", ctx.Err())
		return models.Product{}, apperr.StaleErr(ctx.Err())
	}

	if err != nil {
		outcome := "failed"
		if apperr.Is(err, apperr.RemoteField) {
			outcome = "rejected"
			form.SetRemoteErrors(apperr.FieldsOf(err))
		}
		metrics.ProductSubmissions.WithLabelValues(outcome).Inc()
		log.Error("product: create failed", "error", err)
		s.deps.Notifier.Notify(ctx, notification.Error, MsgCreateFailed)
		return models.Product{}, err
	}

	metrics.ProductSubmissions.WithLabelValues("created").Inc()
	log.Info("product: created", "id", created.ID, "name", created.ProductName)
	s.deps.Bus.Fire(event.ProductCreated, ProductCreated{Product: created})
	s.deps.Notifier.Notify(ctx, notification.Success, fmt.Sprintf("Product %s created successfully", created.ProductName))
	form.Reset()
	s.deps.Navigator.Navigate(ctx, ProductsRoute, created)
	return created, nil
}

// CreateVariant adds one variant to an existing product. The new variant may
// not repeat the option combination of a variant the product already has.
func (s *ProductService) CreateVariant(ctx context.Context, productID int64, v models.VariantDraft) (models.Variant, error) {
	if err := s.deps.Guard.Check(); err != nil {
		return models.Variant{}, err
	}

	existing, err := s.Variants(ctx, productID)
	if err != nil {
		return models.Variant{}, err
	}
	drafts := make([]models.VariantDraft, len(existing))
	for i, e := range existing {
		drafts[i] = models.VariantDraft{SKU: e.SKU, Options: e.Options}
	}
	if errs := s.deps.Schema.ValidateVariant(v, drafts...); len(errs) > 0 {
		metrics.ValidationFailures.WithLabelValues("variant").Inc()
		return models.Variant{}, apperr.ValidationErr(errs)
	}

	payload, err := submission.AssembleVariant(v)
	if err != nil {
		return models.Variant{}, fmt.Errorf("services: assemble variant: %w", err)
	}
	created, err := s.deps.Variants.Create(ctx, productID, payload)
	if err == nil {
		sctx, cancel := settle(ctx)
		s.invalidate(sctx, cache.Variants(productID))
		cancel()
	}
	if ctx.Err() != nil {
		return models.Variant{}, apperr.StaleErr(ctx.Err())
	}
	if err != nil {
		logger.WithCtx(ctx).Error("variant: create failed", "product", productID, "error", err)
		s.deps.Notifier.Notify(ctx, notification.Error, MsgVariantCreateFailed)
		return models.Variant{}, err
	}
	s.deps.Notifier.Notify(ctx, notification.Success, fmt.Sprintf("Variant %s added", created.SKU))
	return created, nil
}

func (s *ProductService) invalidateAfterCreate(ctx context.Context, productID int64) {
	sctx, cancel := settle(ctx)
	defer cancel()
	if err := s.deps.Cache.InvalidatePrefix(sctx, cache.ProductsPrefix); err != nil {
		logger.WithCtx(ctx).Warn("product: invalidate listing", "error", err)
	}
	s.invalidate(sctx, cache.Variants(productID))
}

func (s *ProductService) invalidate(ctx context.Context, keys ...string) {
	if err := s.deps.Cache.Invalidate(ctx, keys...); err != nil {
		logger.WithCtx(ctx).Warn("cache: invalidate", "keys", keys, "error", err)
	}
}
