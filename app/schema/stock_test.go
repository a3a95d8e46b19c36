package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/schema"
)

func TestSaleMustLeaveStock(t *testing.T) {
	sale := func(n int64) models.StockMutation {
		return models.StockMutation{VariantID: 4, ChangeType: models.Sale, ChangeAmount: n}
	}

	errs := schema.ValidateStockMutation(sale(5), 5)
	assert.Equal(t, "The change amount must be less than the current stock (5).", errs["change_amount"])

	assert.Empty(t, schema.ValidateStockMutation(sale(4), 5))
}

func TestPurchaseIgnoresStockLimit(t *testing.T) {
	m := models.StockMutation{VariantID: 4, ChangeType: models.Purchase, ChangeAmount: 50}
	assert.Empty(t, schema.ValidateStockMutation(m, 0))
}

func TestStockMutationFieldRules(t *testing.T) {
	errs := schema.ValidateStockMutation(models.StockMutation{ChangeType: "refund", ChangeAmount: -2}, 10)
	assert.Equal(t, "Variant is required", errs["variant_id"])
	assert.Equal(t, "Change type must be 'purchase' or 'sale'", errs["change_type"])
	assert.Equal(t, "Change amount must be at least 1", errs["change_amount"])

	errs = schema.ValidateStockMutation(models.StockMutation{VariantID: 1, ChangeType: models.Sale}, 10)
	assert.Equal(t, "Change amount is required", errs["change_amount"])
}
