package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/submission"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
	apihttp "github.com/shashiranjanraj/stockdesk/pkg/http"
	"github.com/shashiranjanraj/stockdesk/pkg/storage"
)

const (
	productsPath = "/product/list-create/"
	variantsPath = "/product/variant-list-create/%d/"
)

// ProductRepository talks to the product endpoints of the inventory API.
type ProductRepository struct {
	api   *apihttp.Client
	disks *storage.Manager
}

func NewProductRepository(api *apihttp.Client, disks *storage.Manager) *ProductRepository {
	return &ProductRepository{api: api, disks: disks}
}

// List fetches one page of products. A bare JSON array is accepted as a
// single unpaginated page.
func (r *ProductRepository) List(ctx context.Context, page int) (models.ProductPage, error) {
	req := r.api.Get(productsPath).WithContext(ctx)
	if page > 1 {
		req.Query("page", strconv.Itoa(page))
	}
	var raw json.RawMessage
	if err := send(req, &raw); err != nil {
		return models.ProductPage{}, err
	}
	return decodePage(raw)
}

// Create uploads a product payload.
func (r *ProductRepository) Create(ctx context.Context, p *submission.Payload) (models.Product, error) {
	var out models.Product
	req := r.api.Post(productsPath).Multipart(encodeForm(ctx, r.disks, p)).WithContext(ctx)
	err := send(req, &out)
	return out, err
}

func decodePage(raw json.RawMessage) (models.ProductPage, error) {
	var page models.ProductPage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &page.Results); err != nil {
			return page, apperr.RemoteGenericErr(err)
		}
		page.Count = len(page.Results)
		return page, nil
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return page, apperr.RemoteGenericErr(err)
	}
	return page, nil
}

// VariantRepository talks to the per-product variant endpoints.
type VariantRepository struct {
	api   *apihttp.Client
	disks *storage.Manager
}

func NewVariantRepository(api *apihttp.Client, disks *storage.Manager) *VariantRepository {
	return &VariantRepository{api: api, disks: disks}
}

func (r *VariantRepository) List(ctx context.Context, productID int64) ([]models.Variant, error) {
	var out []models.Variant
	err := send(r.api.Get(variantsPath, productID).WithContext(ctx), &out)
	return out, err
}

// Create adds one variant to an existing product.
func (r *VariantRepository) Create(ctx context.Context, productID int64, p *submission.Payload) (models.Variant, error) {
	var out models.Variant
	req := r.api.Post(variantsPath, productID).Multipart(encodeForm(ctx, r.disks, p)).WithContext(ctx)
	err := send(req, &out)
	return out, err
}
