package models

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type VariantType string

const (
	Color VariantType = "Color"
	Size  VariantType = "Size"
)

// OptionEntry is one (type, value) pair of a variant.
type OptionEntry struct {
	VariantType VariantType `json:"variant_type" yaml:"variant_type" validate:"required,in=Color,Size" msg:"required=Variant type required;in=Variant type must be 'Color' or 'Size'"`
	Value       string      `json:"value"        yaml:"value"        validate:"required"               msg:"required=Value required"`
}

// Key identifies the pair, e.g. "Color-Red".
func (o OptionEntry) Key() string { return string(o.VariantType) + "-" + o.Value }

// Blank reports whether neither field has been filled in.
func (o OptionEntry) Blank() bool { return o.VariantType == "" && o.Value == "" }

// VariantDraft is a variant under edit. Image never goes into the variants
// JSON part; it is sent as its own file part.
type VariantDraft struct {
	SKU     string        `json:"sku"         yaml:"sku"         validate:"required"        msg:"required=SKU is required"`
	Stock   *int64        `json:"stock"       yaml:"stock"       validate:"required,gte=0"  msg:"required=Stock is required"`
	Price   *float64      `json:"price"       yaml:"price"       validate:"required,gte=0"  msg:"required=Price is required"`
	Image   *BlobRef      `json:"image"       yaml:"image"       validate:"required"        msg:"required=Variant image is required"`
	Options []OptionEntry `json:"option_data" yaml:"option_data" validate:"dive"`
}

// NewVariantDraft returns a variant with one empty option entry.
func NewVariantDraft() VariantDraft {
	return VariantDraft{Options: []OptionEntry{{}}}
}

func (v VariantDraft) Clone() VariantDraft {
	out := v
	out.Stock = clonePtr(v.Stock)
	out.Price = clonePtr(v.Price)
	out.Image = clonePtr(v.Image)
	if v.Options != nil {
		out.Options = append([]OptionEntry(nil), v.Options...)
	}
	return out
}

// Signature is the combination signature of the variant: option keys sorted
// and joined with "|", so entry order never matters.
func (v VariantDraft) Signature() string {
	keys := make([]string, len(v.Options))
	for i, o := range v.Options {
		keys[i] = o.Key()
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// Variant is the read model returned by the variant list.
type Variant struct {
	ID      int64           `json:"id"`
	Product int64           `json:"product"`
	SKU     string          `json:"sku"`
	Price   decimal.Decimal `json:"price"`
	Stock   int64           `json:"stock"`
	Image   string          `json:"image"`
	Options []OptionEntry   `json:"options"`
}

// Option returns the value for type t, if the variant has one.
func (v Variant) Option(t VariantType) (string, bool) {
	for _, o := range v.Options {
		if o.VariantType == t {
			return o.Value, true
		}
	}
	return "", false
}
