package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/trgovina/internal/model"
)

// ListProducts handles GET /api/products.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// GetProduct handles GET /api/products/{id}.
func (c *Client) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodGet, productPath(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct handles POST /api/products. The returned product has a zero
// ID when the API confirms without echoing it.
func (c *Client) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodPost, "/api/products", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct handles PUT /api/products/{id}.
func (c *Client) UpdateProduct(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodPut, productPath(id), in, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		// Some deployments answer 204; echo what was sent.
		p = model.Product{
			ID:          id,
			Barcode:     in.Barcode,
			Description: in.Description,
			Price:       in.Price,
			Quantity:    in.Quantity,
			Category:    in.Category,
		}
	}
	return &p, nil
}

// DeleteProduct handles DELETE /api/products/{id}.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, productPath(id), nil, nil)
}

func productPath(id int64) string {
	return fmt.Sprintf("/api/products/%d", id)
}
