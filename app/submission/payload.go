// Package submission turns a validated draft into the multipart payload the
// product API expects. It does not talk to the network: app/repositories
// encodes a Payload onto the wire.
package submission

import (
	"errors"
	"fmt"

	"github.com/shashiranjanraj/stockdesk/app/models"
)

// ErrIncompleteDraft is returned when a draft that never passed validation
// reaches the assembler.
var ErrIncompleteDraft = errors.New("submission: draft is incomplete")

// Part names the product API reads.
const (
	FieldVariants     = "variants"
	FieldOptionData   = "option_data"
	FileProductImage  = "ProductImage"
	FileVariantImage  = "image"
	variantImageParts = "variant_image_%d"
)

// VariantImagePart is the file part carrying the image of variant i.
func VariantImagePart(i int) string { return fmt.Sprintf(variantImageParts, i) }

// Field is one text part.
type Field struct {
	Name  string
	Value string
}

// File is one binary part, read from storage when the payload is encoded.
type File struct {
	Name string
	Blob models.BlobRef
}

// Payload is an ordered list of text parts followed by file parts.
type Payload struct {
	Fields []Field
	Files  []File
}

func (p *Payload) addField(name, value string) {
	p.Fields = append(p.Fields, Field{Name: name, Value: value})
}

func (p *Payload) addFile(name string, blob models.BlobRef) {
	p.Files = append(p.Files, File{Name: name, Blob: blob})
}

// Field returns the value of the first text part called name.
func (p *Payload) Field(name string) (string, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// File returns the first file part called name.
func (p *Payload) File(name string) (models.BlobRef, bool) {
	for _, f := range p.Files {
		if f.Name == name {
			return f.Blob, true
		}
	}
	return models.BlobRef{}, false
}

// variantRecord is a variant as serialised in the variants text part. It
// has no image field: images travel as their own file parts.
type variantRecord struct {
	SKU        string               `json:"sku"`
	Stock      int64                `json:"stock"`
	Price      float64              `json:"price"`
	OptionData []models.OptionEntry `json:"option_data"`
}

func recordOf(i int, v models.VariantDraft) (variantRecord, error) {
	if v.Stock == nil || v.Price == nil {
		return variantRecord{}, fmt.Errorf("%w: variant %d has no stock or price", ErrIncompleteDraft, i)
	}
	if v.Image.Empty() {
		return variantRecord{}, fmt.Errorf("%w: variant %d has no image", ErrIncompleteDraft, i)
	}
	opts := v.Options
	if opts == nil {
		opts = []models.OptionEntry{}
	}
	return variantRecord{
		SKU:        v.SKU,
		Stock:      *v.Stock,
		Price:      *v.Price,
		OptionData: append([]models.OptionEntry(nil), opts...),
	}, nil
}
