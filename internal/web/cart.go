package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/cart"
	"github.com/erazemk/trgovina/internal/model"
)

type cartRow struct {
	Line     model.CartLine
	Subtotal decimal.Decimal
	// Max is the freshest known stock, used as the quantity input bound.
	Max int
}

type cartData struct {
	PageData
	Rows  []cartRow
	Total decimal.Decimal
}

type checkoutData struct {
	PageData
	Rows           []cartRow
	Total          decimal.Decimal
	PaymentMethods []string
	Shipping       string
	PaymentMethod  string
	Confirmation   *model.CheckoutConfirmation
}

// reconciler returns the signed-in user's cart. Load errors are logged and
// reported through the returned message.
func (s *Server) reconciler(r *http.Request) (*cart.Reconciler, string) {
	claims := GetWebClaims(r.Context())
	rec, err := s.Carts.For(r.Context(), claims.UserID)
	if err != nil {
		s.Logger.Warn("failed to load cart", "user_id", claims.UserID, "error", err)
		return rec, userMessage(err)
	}
	return rec, ""
}

func (s *Server) cartRows(rec *cart.Reconciler) []cartRow {
	lines := rec.Lines()
	rows := make([]cartRow, 0, len(lines))
	for _, l := range lines {
		limit, _ := rec.StockLimit(l.ID)
		rows = append(rows, cartRow{
			Line:     l,
			Subtotal: l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
			Max:      limit,
		})
	}
	return rows
}

func (s *Server) renderCart(w http.ResponseWriter, r *http.Request, rec *cart.Reconciler, status int, errMsg string) {
	data := &cartData{
		PageData: s.page(r, "Cart"),
		Rows:     s.cartRows(rec),
		Total:    cart.TotalPrice(rec.Lines()),
	}
	data.Error = errMsg
	s.Templates.Render(w, status, "cart.html", data)
}

// CartPage handles GET /cart. The cart is re-fetched on every visit; when
// that fails the last confirmed lines are shown with a warning.
func (s *Server) CartPage(w http.ResponseWriter, r *http.Request) {
	rec, msg := s.reconciler(r)
	if msg == "" {
		if err := rec.Load(r.Context()); err != nil {
			s.Logger.Warn("failed to refresh cart", "error", err)
			msg = userMessage(err)
		}
	}
	s.renderCart(w, r, rec, http.StatusOK, msg)
}

// CartAddSubmit handles POST /cart.
func (s *Server) CartAddSubmit(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.FormValue("product_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product", http.StatusBadRequest)
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		qty = 0
	}

	rec, _ := s.reconciler(r)
	if err := rec.AddToCart(r.Context(), productID, qty); err != nil {
		s.Logger.Warn("add to cart failed", "product_id", productID, "quantity", qty, "error", err)
		p, ok := s.product(r, productID)
		if !ok {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		data := &productDetailData{PageData: s.page(r, p.Description), Product: p, Quantity: qty}
		data.Error = userMessage(err)
		s.Templates.Render(w, failureStatus(err), "product_detail.html", data)
		return
	}

	http.Redirect(w, r, "/shop/products/"+strconv.FormatInt(productID, 10)+"?ok=added", http.StatusSeeOther)
}

// CartUpdateSubmit handles POST /cart/{id}.
func (s *Server) CartUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		qty = 0
	}

	rec, _ := s.reconciler(r)
	limit, ok := rec.StockLimit(lineID)
	if !ok {
		s.renderCart(w, r, rec, http.StatusNotFound, userMessage(cart.ErrLineNotFound))
		return
	}

	if err := rec.UpdateQuantity(r.Context(), lineID, qty, limit); err != nil {
		s.Logger.Warn("cart update failed", "line_id", lineID, "quantity", qty, "error", err)
		s.renderCart(w, r, rec, failureStatus(err), userMessage(err))
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CartRemoveSubmit handles POST /cart/{id}/delete.
func (s *Server) CartRemoveSubmit(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rec, _ := s.reconciler(r)
	if err := rec.RemoveItem(r.Context(), lineID); err != nil {
		s.Logger.Warn("cart remove failed", "line_id", lineID, "error", err)
		s.renderCart(w, r, rec, failureStatus(err), userMessage(err))
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CheckoutPage handles GET /checkout.
func (s *Server) CheckoutPage(w http.ResponseWriter, r *http.Request) {
	rec, msg := s.reconciler(r)
	data := s.checkoutData(r, rec)
	data.Error = msg
	if msg == "" && len(data.Rows) == 0 {
		data.Error = userMessage(cart.ErrEmptyCart)
	}
	s.Templates.Render(w, http.StatusOK, "checkout.html", data)
}

// CheckoutSubmit handles POST /checkout. The catalog is refreshed after a
// successful order so the storefront shows the decremented stock.
func (s *Server) CheckoutSubmit(w http.ResponseWriter, r *http.Request) {
	rec, _ := s.reconciler(r)
	details := cart.Details{
		Shipping:      r.FormValue("shipping_details"),
		PaymentMethod: r.FormValue("payment_method"),
	}

	conf, err := rec.Checkout(r.Context(), details)
	if err != nil {
		s.Logger.Warn("checkout failed", "error", err)
		data := s.checkoutData(r, rec)
		data.Shipping = details.Shipping
		data.PaymentMethod = details.PaymentMethod
		data.Error = userMessage(err)
		s.Templates.Render(w, failureStatus(err), "checkout.html", data)
		return
	}

	if err := s.Catalog.Refresh(r.Context()); err != nil {
		s.Logger.Warn("catalog refresh after checkout failed", "error", err)
	}

	data := s.checkoutData(r, rec)
	data.Confirmation = conf
	data.Success = "Thank you, your order has been placed."
	if conf.Message != "" {
		data.Success = conf.Message
	}
	s.Templates.Render(w, http.StatusOK, "checkout.html", data)
}

func (s *Server) checkoutData(r *http.Request, rec *cart.Reconciler) *checkoutData {
	return &checkoutData{
		PageData:       s.page(r, "Checkout"),
		Rows:           s.cartRows(rec),
		Total:          cart.TotalPrice(rec.Lines()),
		PaymentMethods: model.PaymentMethods,
		PaymentMethod:  model.PaymentCashOnDelivery,
	}
}

// failureStatus maps cart errors to the status of the re-rendered page.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, cart.ErrOperationFailed), errors.Is(err, cart.ErrCheckoutFailed):
		return http.StatusBadGateway
	case errors.Is(err, cart.ErrLineNotFound), errors.Is(err, cart.ErrUnknownProduct):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}
