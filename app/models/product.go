package models

import (
	"github.com/shopspring/decimal"
)

// ProductDraft is a product under edit, before it is submitted. Field names
// on the wire follow the inventory API.
type ProductDraft struct {
	ProductID    *int64         `json:"ProductID"    yaml:"ProductID"    validate:"required,gte=0" msg:"required=Product ID is required"`
	ProductCode  string         `json:"ProductCode"  yaml:"ProductCode"  validate:"required"       msg:"required=Product Code is required"`
	ProductName  string         `json:"ProductName"  yaml:"ProductName"  validate:"required"       msg:"required=Product Name is required"`
	ProductImage *BlobRef       `json:"ProductImage" yaml:"ProductImage" validate:"required"       msg:"required=Product image is required"`
	HSNCode      string         `json:"HSNCode"      yaml:"HSNCode"`
	IsFavourite  bool           `json:"IsFavourite"  yaml:"IsFavourite"`
	Active       bool           `json:"Active"       yaml:"Active"`
	Variants     []VariantDraft `json:"variants"     yaml:"variants"     validate:"dive"`
}

// NewProductDraft returns the blank form: active, with one variant holding
// one empty option.
func NewProductDraft() ProductDraft {
	return ProductDraft{
		Active:   true,
		Variants: []VariantDraft{NewVariantDraft()},
	}
}

// Clone deep-copies the draft so the copy shares no slices or pointers.
func (p ProductDraft) Clone() ProductDraft {
	out := p
	out.ProductID = clonePtr(p.ProductID)
	out.ProductImage = clonePtr(p.ProductImage)
	if p.Variants != nil {
		out.Variants = make([]VariantDraft, len(p.Variants))
		for i, v := range p.Variants {
			out.Variants[i] = v.Clone()
		}
	}
	return out
}

// Product is the read model returned by the product list.
type Product struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"ProductID"`
	ProductCode  string          `json:"ProductCode"`
	ProductName  string          `json:"ProductName"`
	ProductImage string          `json:"ProductImage"`
	HSNCode      string          `json:"HSNCode"`
	IsFavourite  bool            `json:"IsFavourite"`
	Active       bool            `json:"Active"`
	TotalStock   decimal.Decimal `json:"TotalStock"`
}

// ProductPage is one page of the product list.
type ProductPage struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next,omitempty"`
	Previous *string   `json:"previous,omitempty"`
	Results  []Product `json:"results"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
