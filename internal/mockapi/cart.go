package mockapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/trgovina/internal/model"
)

// CartHandler handles cart and checkout endpoints.
type CartHandler struct {
	Store *Store
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateCartLineRequest struct {
	Quantity int `json:"quantity"`
}

// List handles GET /api/cart.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Store.ListCart())
}

// Add handles POST /api/cart.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.Store.AddToCart(req.ProductID, req.Quantity)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, line)
}

// Update handles PUT /api/cart/{id}.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid cart line id")
		return
	}

	var req updateCartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.Store.UpdateCartLine(id, req.Quantity)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, line)
}

// Remove handles DELETE /api/cart/{id}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid cart line id")
		return
	}

	if err := h.Store.RemoveCartLine(id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles POST /api/checkout.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.Store.Checkout(req)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	slog.Info("order placed", "order", order.ID, "items", len(order.Items), "total", order.TotalAmount)
	jsonResponse(w, http.StatusCreated, model.CheckoutConfirmation{
		OrderID: order.ID,
		Message: "order placed",
	})
}
