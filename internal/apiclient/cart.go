package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/trgovina/internal/model"
)

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateCartLineRequest struct {
	Quantity int `json:"quantity"`
}

// ListCart handles GET /api/cart.
func (c *Client) ListCart(ctx context.Context) ([]model.CartLine, error) {
	var lines []model.CartLine
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &lines); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []model.CartLine{}
	}
	return lines, nil
}

// AddToCart handles POST /api/cart. The returned line is nil when the API
// confirms without echoing the created line.
func (c *Client) AddToCart(ctx context.Context, productID int64, quantity int) (*model.CartLine, error) {
	var line model.CartLine
	req := addToCartRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, "/api/cart", req, &line); err != nil {
		return nil, err
	}
	if line.ID == 0 {
		return nil, nil
	}
	return &line, nil
}

// UpdateCartLine handles PUT /api/cart/{id}. The returned line is nil when the
// API confirms without a body.
func (c *Client) UpdateCartLine(ctx context.Context, id int64, quantity int) (*model.CartLine, error) {
	var line model.CartLine
	if err := c.do(ctx, http.MethodPut, cartPath(id), updateCartLineRequest{Quantity: quantity}, &line); err != nil {
		return nil, err
	}
	if line.ID == 0 {
		return nil, nil
	}
	return &line, nil
}

// RemoveCartLine handles DELETE /api/cart/{id}.
func (c *Client) RemoveCartLine(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, cartPath(id), nil, nil)
}

// Checkout handles POST /api/checkout.
func (c *Client) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutConfirmation, error) {
	var conf model.CheckoutConfirmation
	if err := c.do(ctx, http.MethodPost, "/api/checkout", req, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func cartPath(id int64) string {
	return fmt.Sprintf("/api/cart/%d", id)
}
