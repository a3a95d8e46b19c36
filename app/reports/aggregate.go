package reports

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/pkg/collection"
)

// Summary holds the three report totals.
type Summary struct {
	Purchases int64
	Sales     int64
	SaleValue decimal.Decimal
	Rows      int
}

// SaleValueText renders the sale value with two decimals, e.g. "150.00".
func (s Summary) SaleValueText() string { return s.SaleValue.StringFixed(2) }

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Purchases int64  `json:"total_purchases"`
		Sales     int64  `json:"total_sales"`
		SaleValue string `json:"total_sale_value"`
		Rows      int    `json:"rows"`
	}{s.Purchases, s.Sales, s.SaleValueText(), s.Rows})
}

// Aggregate filters records and totals them:
//
//	Purchases  sum of change_amount over purchases
//	Sales      sum of change_amount over sales
//	SaleValue  sum of price over sales
//
// The price of a row is the value of the transaction, so it is summed as is
// and never multiplied by the amount. Missing or malformed prices count as 0.
func Aggregate(records []models.StockTransaction, f Filter) Summary {
	rows := collection.Filter(records, f.Match)
	byType := collection.GroupBy(rows, func(tx models.StockTransaction) models.ChangeType { return tx.ChangeType })
	amount := func(tx models.StockTransaction) int64 { return tx.ChangeAmount }

	value := collection.Reduce(byType[models.Sale], decimal.Zero, func(sum decimal.Decimal, tx models.StockTransaction) decimal.Decimal {
		if d, ok := tx.Price.Decimal(); ok {
			return sum.Add(d)
		}
		return sum
	})

	return Summary{
		Purchases: collection.Sum(byType[models.Purchase], amount),
		Sales:     collection.Sum(byType[models.Sale], amount),
		SaleValue: value,
		Rows:      len(rows),
	}
}

// Rows returns the records matching f, newest first.
func Rows(records []models.StockTransaction, f Filter) []models.StockTransaction {
	return collection.SortBy(collection.Filter(records, f.Match), func(a, b models.StockTransaction) bool {
		return a.Timestamp.After(b.Timestamp.Time)
	})
}
