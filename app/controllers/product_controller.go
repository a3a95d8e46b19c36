package controllers

import (
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/stockdesk/app/forms"
	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/services"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	"github.com/shashiranjanraj/stockdesk/pkg/ctx"
	"github.com/shashiranjanraj/stockdesk/pkg/response"
)

type ProductController struct {
	products *services.ProductService
}

// FormState is what the product form view renders besides the draft.
type FormState struct {
	Valid            bool              `json:"valid"`
	Errors           map[string]string `json:"errors"`
	MaxVariants      int               `json:"max_variants"`
	MaxOptions       int               `json:"max_options"`
	CanAppendVariant bool              `json:"can_append_variant"`
	CanAddOption     []bool            `json:"can_add_option"`
}

func formState(f *forms.ProductForm) FormState {
	st := FormState{
		Errors:           f.Errors(),
		MaxVariants:      f.Limits().MaxVariants,
		MaxOptions:       f.Limits().MaxOptions,
		CanAppendVariant: f.CanAppendVariant(),
		CanAddOption:     make([]bool, f.VariantCount()),
	}
	st.Valid = len(st.Errors) == 0
	for i := range st.CanAddOption {
		st.CanAddOption[i] = f.CanAddOption(i)
	}
	return st
}

// Index handles GET /api/products?page=N.
func (pc *ProductController) Index(c *ctx.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.Error(http.StatusBadRequest, "page must be a positive integer")
		return
	}
	result, err := pc.products.List(c.Context(), page)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(result)
}

// Variants handles GET /api/products/{id}/variants.
func (pc *ProductController) Variants(c *ctx.Context) {
	id, ok := c.ParamInt("id")
	if !ok {
		return
	}
	variants, err := pc.products.Variants(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(variants)
}

// Validate handles POST /api/products/validate. The form view calls it on
// every change to render errors and the add/remove controls.
func (pc *ProductController) Validate(c *ctx.Context) {
	var draft models.ProductDraft
	if !c.BindJSON(&draft) {
		return
	}
	form := pc.products.LoadForm(draft)
	form.Validate()
	c.Success(formState(form))
}

// Store handles POST /api/products. Failures that belong to fields answer
// 422 with the form's error map, so local and server-side rejections look
// the same to the view.
func (pc *ProductController) Store(c *ctx.Context) {
	var draft models.ProductDraft
	if !c.BindJSON(&draft) {
		return
	}
	form := pc.products.LoadForm(draft)
	created, err := pc.products.Create(c.Context(), form)
	switch {
	case err == nil:
		c.Created(created)
	case apperr.Is(err, apperr.Validation), apperr.Is(err, apperr.RemoteField):
		response.Write(c.W, http.StatusUnprocessableEntity, response.Envelope{
			Status:  http.StatusUnprocessableEntity,
			Message: "Validation failed",
			Data:    formState(form),
			Errors:  form.Errors(),
		})
	default:
		c.Fail(err)
	}
}

// StoreVariant handles POST /api/products/{id}/variants.
func (pc *ProductController) StoreVariant(c *ctx.Context) {
	id, ok := c.ParamInt("id")
	if !ok {
		return
	}
	var draft models.VariantDraft
	if !c.BindJSON(&draft) {
		return
	}
	created, err := pc.products.CreateVariant(c.Context(), id, draft)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(created)
}
