package controllers

import (
	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/services"
	"github.com/shashiranjanraj/stockdesk/pkg/ctx"
	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

type StockController struct {
	flow *services.StockFlow
}

// StockRequest is the body of POST /api/variants/{id}/stock. CurrentStock is
// the stock the view showed when the form was opened.
type StockRequest struct {
	ChangeType   models.ChangeType `json:"change_type"`
	ChangeAmount int64             `json:"change_amount"`
	CurrentStock *int64            `json:"current_stock"`
}

// Update handles POST /api/variants/{id}/stock.
func (sc *StockController) Update(c *ctx.Context) {
	id, ok := c.ParamInt("id")
	if !ok {
		return
	}
	var req StockRequest
	if !c.BindJSON(&req) {
		return
	}
	if req.CurrentStock == nil {
		c.ValidationError(validate.Errors{"current_stock": "The current stock field is required."})
		return
	}

	m := models.StockMutation{VariantID: id, ChangeType: req.ChangeType, ChangeAmount: req.ChangeAmount}
	res, err := sc.flow.Apply(c.Context(), m, *req.CurrentStock)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(res)
}
