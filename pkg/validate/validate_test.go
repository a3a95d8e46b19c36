package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/stockdesk/pkg/validate"
)

type optionInput struct {
	Type  string `json:"variant_type" validate:"required,in=Color,Size" label:"variant type"`
	Value string `json:"value"        validate:"required"`
}

type variantInput struct {
	SKU     string        `json:"sku"         validate:"required,max=20" label:"SKU"`
	Stock   *int64        `json:"stock"       validate:"required,gte=0"`
	Price   *float64      `json:"price"       validate:"nullable,gt=0"`
	Options []optionInput `json:"option_data" validate:"required,min=1,max=2,dive"`
}

type productInput struct {
	Name     string         `json:"ProductName" validate:"required,between=2,40" label:"product name"`
	Code     string         `json:"ProductCode" validate:"required,alpha_dash"`
	Variants []variantInput `json:"variants"    validate:"required,min=1,max=3,dive"`
}

func i64(n int64) *int64     { return &n }
func f64(f float64) *float64 { return &f }

func validProduct() productInput {
	return productInput{
		Name: "Cotton Tee",
		Code: "TEE-01",
		Variants: []variantInput{{
			SKU:     "TEE-RED-M",
			Stock:   i64(4),
			Options: []optionInput{{Type: "Color", Value: "Red"}},
		}},
	}
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(validProduct())
	assert.False(t, validate.HasErrors(errs), "unexpected errors: %v", errs)
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(productInput{})
	assert.Equal(t, "The product name field is required.", errs["ProductName"])
	assert.True(t, errs.Has("ProductCode"))
	assert.True(t, errs.Has("variants"))
}

func TestNilPointerIsRequiredButZeroIsNot(t *testing.T) {
	p := validProduct()
	p.Variants[0].Stock = nil
	errs := validate.Struct(p)
	assert.Equal(t, "The stock field is required.", errs["variants.0.stock"])

	p.Variants[0].Stock = i64(0)
	errs = validate.Struct(p)
	assert.False(t, errs.Has("variants.0.stock"))
}

func TestNullableSkipsMissingPointer(t *testing.T) {
	p := validProduct()
	p.Variants[0].Price = nil
	assert.False(t, validate.Struct(p).Has("variants.0.price"))

	p.Variants[0].Price = f64(-1)
	assert.Equal(t, "The price must be greater than 0.", validate.Struct(p)["variants.0.price"])
}

func TestDiveBuildsNestedPaths(t *testing.T) {
	p := validProduct()
	p.Variants = append(p.Variants, variantInput{
		SKU:   "TEE-BLUE-M",
		Stock: i64(1),
		Options: []optionInput{
			{Type: "Color", Value: "Blue"},
			{Type: "Weight", Value: ""},
		},
	})
	errs := validate.Struct(p)
	assert.Equal(t, "The selected variant type is invalid.", errs["variants.1.option_data.1.variant_type"])
	assert.Equal(t, "The value field is required.", errs["variants.1.option_data.1.value"])
	assert.False(t, errs.Has("variants.0.option_data.0.value"))
}

func TestSliceBoundsCountItems(t *testing.T) {
	p := validProduct()
	v := p.Variants[0]
	p.Variants = []variantInput{v, v, v, v}
	assert.Equal(t, "The variants must not have more than 3 items.", validate.Struct(p)["variants"])

	p = validProduct()
	p.Variants[0].Options = append(p.Variants[0].Options,
		optionInput{Type: "Size", Value: "M"}, optionInput{Type: "Size", Value: "L"})
	assert.Equal(t, "The option data must not have more than 2 items.", validate.Struct(p)["variants.0.option_data"])
}

func TestFirstFailingRuleWins(t *testing.T) {
	p := validProduct()
	p.Code = ""
	assert.Equal(t, "The ProductCode field is required.", validate.Struct(p)["ProductCode"])

	p.Code = "tee 01"
	assert.Contains(t, validate.Struct(p)["ProductCode"], "letters, numbers, dashes")
}

func TestBetweenOnStringLength(t *testing.T) {
	p := validProduct()
	p.Name = "X"
	assert.Equal(t, "The product name must be between 2 and 40 characters.", validate.Struct(p)["ProductName"])
}

type mutationInput struct {
	ChangeType   string `json:"change_type"   validate:"required,in=purchase,sale"`
	ChangeAmount int64  `json:"change_amount" validate:"required,gte=1,when=change_type:sale,ltfield=current_stock" label:"quantity"`
	CurrentStock int64  `json:"current_stock" label:"available stock"`
}

func TestConditionalSiblingComparison(t *testing.T) {
	errs := validate.Struct(mutationInput{ChangeType: "sale", ChangeAmount: 5, CurrentStock: 5})
	assert.Equal(t, "The quantity must be less than the available stock (5).", errs["change_amount"])

	errs = validate.Struct(mutationInput{ChangeType: "sale", ChangeAmount: 4, CurrentStock: 5})
	assert.Empty(t, errs)

	errs = validate.Struct(mutationInput{ChangeType: "purchase", ChangeAmount: 50, CurrentStock: 5})
	assert.Empty(t, errs)
}

func TestInRuleWithFollowingRule(t *testing.T) {
	type in struct {
		Kind string `json:"kind" validate:"required,in=purchase,sale,not_in=sale"`
	}
	assert.Equal(t, "The selected kind is invalid.", validate.Struct(in{Kind: "sale"})["kind"])
	assert.Empty(t, validate.Struct(in{Kind: "purchase"}))
}

func TestRegexRule(t *testing.T) {
	type in struct {
		HSN string `json:"hsn" validate:"nullable,regex=^[0-9]{4}$"`
	}
	assert.Empty(t, validate.Struct(in{}))
	assert.Empty(t, validate.Struct(in{HSN: "6109"}))
	assert.Equal(t, "The hsn format is invalid.", validate.Struct(in{HSN: "61A9"})["hsn"])
}

func TestErrorsHelpers(t *testing.T) {
	errs := validate.Errors{}
	errs.Add("variants.0.sku", "first")
	errs.Add("variants.0.sku", "second")
	errs.Add("variants.1.sku", "other")
	errs.Add("variants", "array")
	assert.Equal(t, "first", errs["variants.0.sku"])

	errs.DeletePrefix("variants.0")
	assert.Equal(t, []string{"variants", "variants.1.sku"}, errs.Paths())

	errs.Set("variants", "replaced")
	assert.Equal(t, "replaced", errs["variants"])

	assert.Equal(t, "variants.2.option_data.0", validate.Path("variants", 2, "option_data", 0))
	assert.Equal(t, "sku", validate.Path("", "sku"))
}

func TestMessageOverrides(t *testing.T) {
	type in struct {
		Type string `json:"variant_type" validate:"required,in=Color,Size" msg:"required=Variant type required;in=Variant type must be 'Color' or 'Size'"`
	}
	assert.Equal(t, "Variant type required", validate.Struct(in{})["variant_type"])
	assert.Equal(t, "Variant type must be 'Color' or 'Size'", validate.Struct(in{Type: "Weight"})["variant_type"])
}
