package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/services"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	"github.com/shashiranjanraj/stockdesk/pkg/cache"
	"github.com/shashiranjanraj/stockdesk/pkg/workerpool"
)

func sale(variant, n int64) models.StockMutation {
	return models.StockMutation{VariantID: variant, ChangeType: models.Sale, ChangeAmount: n}
}

func purchase(variant, n int64) models.StockMutation {
	return models.StockMutation{VariantID: variant, ChangeType: models.Purchase, ChangeAmount: n}
}

func TestSaleBoundaryIsStrict(t *testing.T) {
	h := newHarness(t)
	flow := services.NewStockFlow(h.deps)
	ctx := context.Background()

	_, err := flow.Apply(ctx, sale(1, 10), 10)
	require.True(t, apperr.Is(err, apperr.Validation))
	assert.Empty(t, h.stock.applied)

	res, err := flow.Apply(ctx, sale(1, 9), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.NewStock)
	assert.Equal(t, []string{"success: " + services.MsgStockUpdated}, h.texts())
}

func TestOneMutationInFlightPerVariant(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	entered := make(chan int64, 2)
	h.stock.updateFn = func(_ context.Context, m models.StockMutation) (models.StockUpdate, error) {
		entered <- m.VariantID
		<-release
		return models.StockUpdate{NewStock: 1}, nil
	}
	flow := services.NewStockFlow(h.deps)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, _ = flow.Apply(ctx, purchase(1, 1), 0) }()
	go func() { defer wg.Done(); _, _ = flow.Apply(ctx, purchase(2, 1), 0) }()
	<-entered
	<-entered

	assert.True(t, flow.Busy(1))
	_, err := flow.Apply(ctx, purchase(1, 1), 0)
	assert.ErrorIs(t, err, services.ErrMutationInFlight)
	assert.True(t, apperr.Is(err, apperr.Conflict))

	close(release)
	wg.Wait()
	assert.False(t, flow.Busy(1))
	assert.Len(t, h.stock.applied, 2)
}

func TestStockChangeInvalidatesListings(t *testing.T) {
	h := newHarness(t)
	var mu sync.Mutex
	var prefixes []string
	defer h.cache.Subscribe(func(inv cache.Invalidation) {
		mu.Lock()
		prefixes = append(prefixes, inv.Key)
		mu.Unlock()
	})()

	_, err := services.NewStockFlow(h.deps).Apply(context.Background(), purchase(1, 2), 0)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{cache.VariantsPrefix, cache.ProductsPrefix, cache.StockReportsPrefix}, prefixes)
}

func TestFailedStockChangeNotifies(t *testing.T) {
	h := newHarness(t)
	h.stock.updateFn = func(context.Context, models.StockMutation) (models.StockUpdate, error) {
		return models.StockUpdate{}, apperr.RemoteGenericErr(errors.New("timeout"))
	}
	_, err := services.NewStockFlow(h.deps).Apply(context.Background(), purchase(1, 2), 0)
	require.True(t, apperr.Is(err, apperr.RemoteGeneric))
	assert.Equal(t, []string{"error: " + services.MsgStockUpdateFailed}, h.texts())
}

func TestEditorLifecycle(t *testing.T) {
	h := newHarness(t)
	flow := services.NewStockFlow(h.deps)
	ed := flow.Editor(models.Variant{ID: 4, SKU: "TEE-M", Stock: 10})
	ctx := context.Background()

	_, err := ed.Submit(ctx)
	assert.True(t, apperr.Is(err, apperr.Conflict), "submit needs an open form")

	require.NoError(t, ed.Open())
	assert.Equal(t, services.Editing, ed.State())
	require.NoError(t, ed.Set(models.Sale, 3))

	res, err := ed.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.NewStock)
	assert.Equal(t, services.Idle, ed.State())
	assert.Equal(t, int64(7), ed.Variant().Stock, "new stock shows before any refetch")

	ed.Refresh(models.Variant{ID: 4, SKU: "TEE-M", Stock: 6})
	assert.Equal(t, int64(6), ed.Variant().Stock, "the fetch wins over the hint")
}

func TestEditorKeepsDraftOnFailure(t *testing.T) {
	h := newHarness(t)
	ed := services.NewStockFlow(h.deps).Editor(models.Variant{ID: 4, Stock: 2})

	require.NoError(t, ed.Open())
	require.NoError(t, ed.Set(models.Sale, 2))
	_, err := ed.Submit(context.Background())
	require.True(t, apperr.Is(err, apperr.Validation))

	assert.Equal(t, services.Editing, ed.State())
	assert.Equal(t, int64(2), ed.Draft().ChangeAmount)
	assert.Equal(t, "The change amount must be less than the current stock (2).", ed.Errors()["change_amount"])
	assert.Equal(t, int64(2), ed.Variant().Stock)

	ed.Cancel()
	assert.Equal(t, services.Idle, ed.State())
	assert.Error(t, ed.Set(models.Sale, 1))
}

func TestEditorDropsStaleResult(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.stock.updateFn = func(context.Context, models.StockMutation) (models.StockUpdate, error) {
		cancel()
		return models.StockUpdate{NewStock: 50}, nil
	}
	ed := services.NewStockFlow(h.deps).Editor(models.Variant{ID: 4, Stock: 2})
	require.NoError(t, ed.Open())
	require.NoError(t, ed.Set(models.Purchase, 48))

	_, err := ed.Submit(ctx)
	require.True(t, apperr.Is(err, apperr.Stale))
	assert.Equal(t, int64(2), ed.Variant().Stock)
	assert.Empty(t, h.notes.Messages())
}

func TestApplyBatch(t *testing.T) {
	h := newHarness(t)
	var mu sync.Mutex
	stocks := map[int64]int64{1: 2, 2: 1}
	h.stock.updateFn = func(_ context.Context, m models.StockMutation) (models.StockUpdate, error) {
		mu.Lock()
		defer mu.Unlock()
		stocks[m.VariantID] += m.Delta()
		return models.StockUpdate{NewStock: stocks[m.VariantID]}, nil
	}
	flow := services.NewStockFlow(h.deps)
	pool := workerpool.New(2)
	defer pool.Shutdown()

	muts := []models.StockMutation{purchase(1, 5), sale(2, 1), sale(1, 6)}
	results, err := flow.ApplyBatch(context.Background(), pool, muts, map[int64]int64{1: 2, 2: 1})

	require.Error(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, int64(7), results[0].Update.NewStock)
	assert.True(t, apperr.Is(results[1].Err, apperr.Validation), "a sale may not empty the variant")
	assert.NoError(t, results[2].Err, "the sale is checked against the stock the purchase left")
	assert.Equal(t, int64(1), results[2].Update.NewStock)
}

func TestApplyBatchReportsUnsubmittedMutations(t *testing.T) {
	h := newHarness(t)
	called := false
	h.stock.updateFn = func(context.Context, models.StockMutation) (models.StockUpdate, error) {
		called = true
		return models.StockUpdate{}, nil
	}
	flow := services.NewStockFlow(h.deps)
	pool := workerpool.New(1)
	pool.Shutdown()

	results, err := flow.ApplyBatch(context.Background(), pool, []models.StockMutation{purchase(1, 5)}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, workerpool.ErrPoolClosed)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, workerpool.ErrPoolClosed)
	assert.False(t, called)
}
