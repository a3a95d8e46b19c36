package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/stockdesk/app/models"
	apihttp "github.com/shashiranjanraj/stockdesk/pkg/http"
)

const (
	updateStockPath  = "/product/variant/%d/update-stock/"
	stockReportsPath = "/product/variant/stock-reports/"
)

// StockRepository posts stock mutations and reads the stock ledger.
type StockRepository struct {
	api *apihttp.Client
}

func NewStockRepository(api *apihttp.Client) *StockRepository {
	return &StockRepository{api: api}
}

// Update applies m. Every call carries a fresh Idempotency-Key so a retried
// transport attempt is recognisable server-side.
func (r *StockRepository) Update(ctx context.Context, m models.StockMutation) (models.StockUpdate, error) {
	var out models.StockUpdate
	req := r.api.Post(updateStockPath, m.VariantID).
		Header("Idempotency-Key", uuid.NewString()).
		Body(m).
		WithContext(ctx)
	err := send(req, &out)
	return out, err
}

// Report fetches ledger rows matching params (timestamp__gte, timestamp__lte,
// change_type). Paginated and bare-array bodies are both accepted.
func (r *StockRepository) Report(ctx context.Context, params map[string]string) ([]models.StockTransaction, error) {
	req := r.api.Get(stockReportsPath).WithContext(ctx)
	for k, v := range params {
		req.Query(k, v)
	}
	var raw json.RawMessage
	if err := send(req, &raw); err != nil {
		return nil, err
	}
	var rows []models.StockTransaction
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}
	var page struct {
		Results []models.StockTransaction `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, classify(err)
	}
	return page.Results, nil
}
