package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/schema"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	"github.com/shashiranjanraj/stockdesk/pkg/cache"
	"github.com/shashiranjanraj/stockdesk/pkg/collection"
	"github.com/shashiranjanraj/stockdesk/pkg/event"
	"github.com/shashiranjanraj/stockdesk/pkg/logger"
	"github.com/shashiranjanraj/stockdesk/pkg/metrics"
	"github.com/shashiranjanraj/stockdesk/pkg/notification"
	"github.com/shashiranjanraj/stockdesk/pkg/workerpool"
)

// ErrMutationInFlight is returned while another change to the same variant
// is being submitted.
var ErrMutationInFlight = errors.New("services: a stock change for this variant is already being submitted")

const (
	MsgStockUpdated      = "Stock updated successfully"
	MsgStockUpdateFailed = "Failed to update stock"
)

// StockMutated is the payload of event.StockMutated.
type StockMutated struct {
	VariantID  int64             `json:"variant_id"`
	ChangeType models.ChangeType `json:"change_type"`
	Amount     int64             `json:"change_amount"`
	NewStock   int64             `json:"new_stock"`
}

// StockFlow sends purchase and sale deltas to the API. At most one change
// per variant is in flight; different variants run concurrently.
type StockFlow struct {
	deps Deps

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

func NewStockFlow(d Deps) *StockFlow {
	return &StockFlow{deps: d.withDefaults(), inFlight: map[int64]struct{}{}}
}

func (f *StockFlow) acquire(variantID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.inFlight[variantID]; busy {
		return false
	}
	f.inFlight[variantID] = struct{}{}
	return true
}

func (f *StockFlow) release(variantID int64) {
	f.mu.Lock()
	delete(f.inFlight, variantID)
	f.mu.Unlock()
}

// Busy reports whether a change to variantID is being submitted.
func (f *StockFlow) Busy(variantID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.inFlight[variantID]
	return busy
}

// Apply validates m against currentStock and submits it. On success the
// variant, product and report listings are invalidated.
func (f *StockFlow) Apply(ctx context.Context, m models.StockMutation, currentStock int64) (models.StockUpdate, error) {
	log := logger.WithCtx(ctx).With("variant", m.VariantID, "change_type", m.ChangeType, "amount", m.ChangeAmount)
	outcome := func(o string) { metrics.StockMutations.WithLabelValues(string(m.ChangeType), o).Inc() }

	if err := f.deps.Guard.Check(); err != nil {
		return models.StockUpdate{}, err
	}
	if errs := schema.ValidateStockMutation(m, currentStock); len(errs) > 0 {
		metrics.ValidationFailures.WithLabelValues("stock").Inc()
		outcome("invalid")
		return models.StockUpdate{}, apperr.ValidationErr(errs)
	}
	if !f.acquire(m.VariantID) {
		outcome("busy")
		return models.StockUpdate{}, &apperr.Error{Kind: apperr.Conflict, Message: "a stock change for this variant is already being submitted", Err: ErrMutationInFlight}
	}
	defer f.release(m.VariantID)

	res, err := f.deps.Stock.Update(ctx, m)
	if err == nil {
		f.invalidate(ctx)
		f.deps.Bus.Fire(event.StockMutated, StockMutated{
			VariantID: m.VariantID, ChangeType: m.ChangeType, Amount: m.ChangeAmount, NewStock: res.NewStock,
		})
	}

	if ctx.Err() != nil {
		outcome("stale")
		log.Info("stock: result discarded, view is gone", "error", ctx.Err())
		return models.StockUpdate{}, apperr.StaleErr(ctx.Err())
	}
	if err != nil {
		outcome("failed")
		log.Error("stock: update failed", "error", err)
		f.deps.Notifier.Notify(ctx, notification.Error, MsgStockUpdateFailed)
		return models.StockUpdate{}, err
	}

	outcome("applied")
	log.Info("stock: updated", "new_stock", res.NewStock)
	f.deps.Notifier.Notify(ctx, notification.Success, MsgStockUpdated)
	return res, nil
}

// invalidate drops every listing a stock change can affect. The variant
// listing is keyed by product, which a mutation does not name, so all of
// them go.
func (f *StockFlow) invalidate(ctx context.Context) {
	sctx, cancel := settle(ctx)
	defer cancel()
	for _, prefix := range []string{cache.VariantsPrefix, cache.ProductsPrefix, cache.StockReportsPrefix} {
		if err := f.deps.Cache.InvalidatePrefix(sctx, prefix); err != nil {
			logger.WithCtx(ctx).Warn("stock: invalidate", "prefix", prefix, "error", err)
		}
	}
}

// BatchResult is the outcome of one mutation of ApplyBatch.
type BatchResult struct {
	Mutation models.StockMutation `json:"mutation"`
	Update   models.StockUpdate   `json:"update"`
	Err      error                `json:"-"`
}

// ApplyBatch submits many mutations on pool. Mutations of one variant run in
// input order on one task, each validated against the stock the previous one
// left; variants run in parallel. stocks holds the current stock per
// variant; a variant missing from it is treated as empty. Results come back
// in input order, and the returned error joins every failure.
func (f *StockFlow) ApplyBatch(ctx context.Context, pool *workerpool.Pool, muts []models.StockMutation, stocks map[int64]int64) ([]BatchResult, error) {
	results := make([]BatchResult, len(muts))
	indexes := make([]int, len(muts))
	for i := range muts {
		indexes[i] = i
		results[i].Mutation = muts[i]
	}
	groups := collection.GroupBy(indexes, func(i int) int64 { return muts[i].VariantID })

	b := pool.NewBatch()
	var submitErrs []error
	for variantID, idx := range groups {
		variantID, idx := variantID, idx
		stock := stocks[variantID]
		if err := b.Go(func() error {
			var errs []error
			for _, i := range idx {
				res, err := f.Apply(ctx, muts[i], stock)
				results[i].Update, results[i].Err = res, err
				if err != nil {
					errs = append(errs, fmt.Errorf("mutation %d (variant %d): %w", i+1, variantID, err))
					continue
				}
				stock = res.NewStock
			}
			return errors.Join(errs...)
		}); err != nil {
			for _, i := range idx {
				results[i].Err = err
			}
			submitErrs = append(submitErrs, fmt.Errorf("variant %d: %w", variantID, err))
		}
	}
	return results, errors.Join(append(submitErrs, b.Wait())...)
}
