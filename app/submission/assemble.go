package submission

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shashiranjanraj/stockdesk/app/models"
)

// Assemble builds the product create payload:
//
//	ProductID, ProductCode, ProductName, HSNCode, IsFavourite, Active   text
//	variants                                                            text (JSON, no images)
//	ProductImage                                                        file
//	variant_image_0 … variant_image_N-1                                 file, variants order
//
// The draft is read, never modified.
func Assemble(d models.ProductDraft) (*Payload, error) {
	if d.ProductID == nil {
		return nil, fmt.Errorf("%w: no product id", ErrIncompleteDraft)
	}
	if d.ProductImage.Empty() {
		return nil, fmt.Errorf("%w: no product image", ErrIncompleteDraft)
	}

	records := make([]variantRecord, len(d.Variants))
	for i, v := range d.Variants {
		r, err := recordOf(i, v)
		if err != nil {
			return nil, err
		}
		records[i] = r
	}
	variants, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("submission: encode variants: %w", err)
	}

	p := &Payload{}
	p.addField("ProductID", strconv.FormatInt(*d.ProductID, 10))
	p.addField("ProductCode", d.ProductCode)
	p.addField("ProductName", d.ProductName)
	p.addField("HSNCode", d.HSNCode)
	p.addField("IsFavourite", strconv.FormatBool(d.IsFavourite))
	p.addField("Active", strconv.FormatBool(d.Active))
	p.addField(FieldVariants, string(variants))

	p.addFile(FileProductImage, *d.ProductImage)
	for i, v := range d.Variants {
		p.addFile(VariantImagePart(i), *v.Image)
	}
	return p, nil
}

// AssembleVariant builds the payload that adds one variant to an existing
// product: sku, stock, price and option_data as text, image as a file.
func AssembleVariant(v models.VariantDraft) (*Payload, error) {
	r, err := recordOf(0, v)
	if err != nil {
		return nil, err
	}
	opts, err := json.Marshal(r.OptionData)
	if err != nil {
		return nil, fmt.Errorf("submission: encode options: %w", err)
	}

	p := &Payload{}
	p.addField("sku", r.SKU)
	p.addField("stock", strconv.FormatInt(r.Stock, 10))
	p.addField("price", strconv.FormatFloat(r.Price, 'f', -1, 64))
	p.addField(FieldOptionData, string(opts))
	p.addFile(FileVariantImage, *v.Image)
	return p, nil
}
