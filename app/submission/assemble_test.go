package submission_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/submission"
)

func ptr[T any](v T) *T { return &v }

func draft(n int) models.ProductDraft {
	d := models.ProductDraft{
		ProductID:    ptr(int64(12)),
		ProductCode:  "MUG",
		ProductName:  "Mug",
		ProductImage: &models.BlobRef{Disk: "s3", Path: "catalog/mug.jpg"},
		HSNCode:      "6912",
		Active:       true,
	}
	sizes := []string{"S", "M", "L"}
	for i := 0; i < n; i++ {
		d.Variants = append(d.Variants, models.VariantDraft{
			SKU:     "MUG-" + sizes[i],
			Stock:   ptr(int64(i + 1)),
			Price:   ptr(4.5),
			Image:   &models.BlobRef{Path: "mug-" + sizes[i] + ".jpg"},
			Options: []models.OptionEntry{{VariantType: models.Size, Value: sizes[i]}},
		})
	}
	return d
}

func TestAssembleFieldOrder(t *testing.T) {
	p, err := submission.Assemble(draft(1))
	require.NoError(t, err)

	var names []string
	for _, f := range p.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"ProductID", "ProductCode", "ProductName", "HSNCode", "IsFavourite", "Active", "variants"}, names)

	id, _ := p.Field("ProductID")
	assert.Equal(t, "12", id)
	fav, _ := p.Field("IsFavourite")
	assert.Equal(t, "false", fav)
	active, _ := p.Field("Active")
	assert.Equal(t, "true", active)

	img, ok := p.File("ProductImage")
	require.True(t, ok)
	assert.Equal(t, "s3:catalog/mug.jpg", img.String())
}

func TestOneImagePartPerVariantInOrder(t *testing.T) {
	d := draft(3)
	p, err := submission.Assemble(d)
	require.NoError(t, err)

	require.Len(t, p.Files, 4)
	assert.Equal(t, "ProductImage", p.Files[0].Name)

	raw, _ := p.Field("variants")
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	require.Len(t, records, 3)

	for i, rec := range records {
		_, hasImage := rec["image"]
		assert.False(t, hasImage, "variants JSON must not carry images")

		part := p.Files[i+1]
		assert.Equal(t, submission.VariantImagePart(i), part.Name)
		assert.Equal(t, d.Variants[i].Image.Path, part.Blob.Path)
		assert.Equal(t, d.Variants[i].SKU, rec["sku"])
	}
}

func TestAssembleDoesNotModifyDraft(t *testing.T) {
	d := draft(2)
	before := d.Clone()
	_, err := submission.Assemble(d)
	require.NoError(t, err)
	assert.Equal(t, before, d)
	assert.NotNil(t, d.Variants[0].Image)
}

func TestVariantsJSONShape(t *testing.T) {
	p, err := submission.Assemble(draft(1))
	require.NoError(t, err)
	raw, _ := p.Field("variants")
	assert.JSONEq(t, `[{"sku":"MUG-S","stock":1,"price":4.5,"option_data":[{"variant_type":"Size","value":"S"}]}]`, raw)
}

func TestAssembleRejectsIncompleteDraft(t *testing.T) {
	d := draft(1)
	d.Variants[0].Image = nil
	_, err := submission.Assemble(d)
	assert.ErrorIs(t, err, submission.ErrIncompleteDraft)

	d = draft(1)
	d.ProductImage = &models.BlobRef{}
	_, err = submission.Assemble(d)
	assert.ErrorIs(t, err, submission.ErrIncompleteDraft)
}

func TestAssembleVariant(t *testing.T) {
	v := draft(1).Variants[0]
	p, err := submission.AssembleVariant(v)
	require.NoError(t, err)

	price, _ := p.Field("price")
	assert.Equal(t, "4.5", price)
	opts, _ := p.Field("option_data")
	assert.JSONEq(t, `[{"variant_type":"Size","value":"S"}]`, opts)
	require.Len(t, p.Files, 1)
	assert.Equal(t, "image", p.Files[0].Name)
}
