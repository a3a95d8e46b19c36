package repositories_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/repositories"
	"github.com/shashiranjanraj/stockdesk/app/submission"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	apihttp "github.com/shashiranjanraj/stockdesk/pkg/http"
	"github.com/shashiranjanraj/stockdesk/pkg/storage"
	"github.com/shashiranjanraj/stockdesk/pkg/testkit"
)

func client(mt *testkit.MockTransport) *apihttp.Client {
	c := apihttp.NewClient("http://api.test", "tok")
	c.HTTP = &http.Client{Transport: mt}
	c.Retries = 1
	return c
}

func disks(t *testing.T, files map[string]string) *storage.Manager {
	t.Helper()
	m := storage.NewManager("local")
	d := storage.NewLocalDisk(t.TempDir(), "")
	for p, content := range files {
		require.NoError(t, d.Put(context.Background(), p, []byte(content)))
	}
	m.Register("local", d)
	return m
}

func ptr[T any](v T) *T { return &v }

func payload(t *testing.T) *submission.Payload {
	t.Helper()
	p, err := submission.Assemble(models.ProductDraft{
		ProductID:    ptr(int64(1)),
		ProductCode:  "TEE",
		ProductName:  "Tee",
		ProductImage: &models.BlobRef{Path: "tee.jpg"},
		Active:       true,
		Variants: []models.VariantDraft{
			{SKU: "TEE-S", Stock: ptr(int64(2)), Price: ptr(10.0), Image: &models.BlobRef{Path: "tee-s.jpg"},
				Options: []models.OptionEntry{{VariantType: models.Size, Value: "S"}}},
			{SKU: "TEE-M", Stock: ptr(int64(3)), Price: ptr(10.0), Image: &models.BlobRef{Path: "tee-m.jpg"},
				Options: []models.OptionEntry{{VariantType: models.Size, Value: "M"}}},
		},
	})
	require.NoError(t, err)
	return p
}

func TestFlattenFieldErrors(t *testing.T) {
	body := `{
	  "ProductName": ["This field is required.", "Too short."],
	  "variants": [{}, {"sku": ["variant with this sku already exists."]}],
	  "non_field_errors": ["Bad combination."],
	  "HSNCode": {"0": "weird"}
	}`
	fields, ok := repositories.FlattenFieldErrors([]byte(body))
	require.True(t, ok)
	assert.Equal(t, "This field is required. Too short.", fields["ProductName"])
	assert.Equal(t, "variant with this sku already exists.", fields["variants.1.sku"])
	assert.Equal(t, "Bad combination.", fields["non_field_errors"])
	assert.Equal(t, "weird", fields["HSNCode.0"])
	assert.False(t, fields.Has("variants.0"))

	_, ok = repositories.FlattenFieldErrors([]byte(`{"detail":"Server error"}`))
	assert.False(t, ok)
	_, ok = repositories.FlattenFieldErrors([]byte(`<html>`))
	assert.False(t, ok)
}

func TestCreateSendsMultipartInOrder(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("POST", "/product/list-create/").Reply(201, `{"id":9,"ProductName":"Tee"}`)
	repo := repositories.NewProductRepository(client(mt), disks(t, map[string]string{
		"tee.jpg": "P", "tee-s.jpg": "S", "tee-m.jpg": "M",
	}))

	created, err := repo.Create(context.Background(), payload(t))
	require.NoError(t, err)
	assert.Equal(t, "Tee", created.ProductName)

	calls := mt.Calls()
	require.Len(t, calls, 1)
	_, params, err := mime.ParseMediaType(calls[0].Header.Get("Content-Type"))
	require.NoError(t, err)

	r := multipart.NewReader(bytes.NewReader(calls[0].Body), params["boundary"])
	var names []string
	files := map[string]string{}
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, part.FormName())
		if part.FileName() != "" {
			data, _ := io.ReadAll(part)
			files[part.FormName()] = string(data)
		}
	}
	assert.Equal(t, []string{
		"ProductID", "ProductCode", "ProductName", "HSNCode", "IsFavourite", "Active", "variants",
		"ProductImage", "variant_image_0", "variant_image_1",
	}, names)
	assert.Equal(t, map[string]string{"ProductImage": "P", "variant_image_0": "S", "variant_image_1": "M"}, files)
	assert.Equal(t, "Bearer tok", calls[0].Header.Get("Authorization"))
}

func TestNestedFieldErrorLandsOnItsPath(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("POST", "/product/list-create/").
		Reply(400, `{"variants":[{},{"sku":["variant with this sku already exists."]}]}`)
	repo := repositories.NewProductRepository(client(mt), disks(t, map[string]string{
		"tee.jpg": "P", "tee-s.jpg": "S", "tee-m.jpg": "M",
	}))

	_, err := repo.Create(context.Background(), payload(t))
	require.True(t, apperr.Is(err, apperr.RemoteField), "got %v", err)
	assert.Equal(t, map[string]string{"variants.1.sku": "variant with this sku already exists."}, map[string]string(apperr.FieldsOf(err)))
}

func TestServerFailureIsGeneric(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("POST", "/product/list-create/").Reply(500, `{"detail":"boom"}`)
	repo := repositories.NewProductRepository(client(mt), disks(t, map[string]string{
		"tee.jpg": "P", "tee-s.jpg": "S", "tee-m.jpg": "M",
	}))

	_, err := repo.Create(context.Background(), payload(t))
	assert.True(t, apperr.Is(err, apperr.RemoteGeneric))
}

func TestUnauthorized(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "/product/list-create/").Reply(401, `{"detail":"Given token not valid"}`)
	_, err := repositories.NewProductRepository(client(mt), nil).List(context.Background(), 1)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestMissingBlobs(t *testing.T) {
	m := disks(t, map[string]string{"tee.jpg": "P", "tee-s.jpg": "S"})
	errs := repositories.MissingBlobs(context.Background(), m, payload(t))
	assert.Equal(t, []string{"variants.1.image"}, errs.Paths())
}

func TestListAcceptsPageAndBareArray(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "/product/list-create/").Once().Reply(200, `{"count":12,"next":"x","results":[{"id":1,"ProductName":"Tee","TotalStock":"7"}]}`)
	mt.On("GET", "/product/list-create/").Once().Reply(200, `[{"id":1},{"id":2}]`)
	repo := repositories.NewProductRepository(client(mt), nil)

	page, err := repo.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 12, page.Count)
	assert.Equal(t, "7", page.Results[0].TotalStock.String())
	assert.Contains(t, mt.Calls()[0].URL, "page=2")

	page, err = repo.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	assert.NotContains(t, mt.Calls()[1].URL, "page=")
}

func TestVariantsList(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "/product/variant-list-create/5/").
		Reply(200, `[{"id":3,"product":5,"sku":"TEE-S","price":"10.00","stock":4,"options":[{"variant_type":"Size","value":"S"}]}]`)

	vs, err := repositories.NewVariantRepository(client(mt), nil).List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	size, ok := vs[0].Option(models.Size)
	assert.True(t, ok)
	assert.Equal(t, "S", size)
	assert.Equal(t, "10", vs[0].Price.String())
}

func TestStockUpdateSendsIdempotencyKey(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("POST", "/product/variant/3/update-stock/").Reply(200, `{"new_stock":7}`)
	repo := repositories.NewStockRepository(client(mt))

	res, err := repo.Update(context.Background(), models.StockMutation{VariantID: 3, ChangeType: models.Purchase, ChangeAmount: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.NewStock)

	call := mt.Calls()[0]
	assert.NotEmpty(t, call.Header.Get("Idempotency-Key"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(call.Body, &body))
	assert.Equal(t, map[string]any{"change_type": "purchase", "change_amount": float64(2)}, body)
}

func TestStockReportQuery(t *testing.T) {
	mt := testkit.NewMockTransport()
	mt.On("GET", "/product/variant/stock-reports/").Reply(200, `{"results":[{"id":1,"change_type":"sale","change_amount":1,"price":"5.00","timestamp":"2024-03-01T10:00:00Z"}]}`)

	rows, err := repositories.NewStockRepository(client(mt)).Report(context.Background(), map[string]string{
		"timestamp__gte": "2024-03-01",
		"change_type":    "sale",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, mt.Calls()[0].URL, "timestamp__gte=2024-03-01")
	assert.Contains(t, mt.Calls()[0].URL, "change_type=sale")
}
