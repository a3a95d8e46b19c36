package schema

import (
	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

// stockMutationInput pairs the request with the stock it is checked against.
// The sale limit only applies when change_type is "sale", and it is strict:
// a sale must leave at least one unit.
type stockMutationInput struct {
	VariantID    int64             `json:"variant_id"    validate:"required,gte=1" msg:"required=Variant is required"`
	ChangeType   models.ChangeType `json:"change_type"   validate:"required,in=purchase,sale" msg:"required=Change type is required;in=Change type must be 'purchase' or 'sale'"`
	ChangeAmount int64             `json:"change_amount" validate:"required,gte=1,when=change_type:sale,ltfield=current_stock" msg:"required=Change amount is required;gte=Change amount must be at least 1"`
	CurrentStock int64             `json:"current_stock" label:"current stock"`
}

// ValidateStockMutation checks m against the variant's current stock.
func ValidateStockMutation(m models.StockMutation, currentStock int64) validate.Errors {
	return validate.Struct(stockMutationInput{
		VariantID:    m.VariantID,
		ChangeType:   m.ChangeType,
		ChangeAmount: m.ChangeAmount,
		CurrentStock: currentStock,
	})
}
