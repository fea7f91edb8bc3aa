package web

import (
	"net/http"
	"strconv"

	"github.com/erazemk/trgovina/internal/apiclient"
	"github.com/erazemk/trgovina/internal/model"
)

type productDetailData struct {
	PageData
	Product  model.Product
	Quantity int
}

// ShopPage handles GET /shop.
func (s *Server) ShopPage(w http.ResponseWriter, r *http.Request) {
	s.ensureCart(r)
	s.Templates.Render(w, http.StatusOK, "shop.html", s.productList(r, "Shop"))
}

// ProductDetailPage handles GET /shop/products/{id}.
func (s *Server) ProductDetailPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	s.ensureCart(r)

	p, ok := s.product(r, id)
	if !ok {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}

	data := &productDetailData{PageData: s.page(r, p.Description), Product: p, Quantity: 1}
	if r.URL.Query().Get("ok") == "added" {
		data.Success = "Added to cart."
	}
	s.Templates.Render(w, http.StatusOK, "product_detail.html", data)
}

// product returns the snapshot entry for id, asking the API when the
// snapshot does not have it.
func (s *Server) product(r *http.Request, id int64) (model.Product, bool) {
	if p, ok := s.Catalog.Product(id); ok {
		return p, true
	}
	p, err := s.API.GetProduct(r.Context(), id)
	if err != nil {
		if !apiclient.IsNotFound(err) {
			s.Logger.Warn("failed to get product", "product_id", id, "error", err)
		}
		return model.Product{}, false
	}
	s.Catalog.Upsert(*p)
	return *p, true
}

// ensureCart loads the user's cart on first sight so the badge is right.
func (s *Server) ensureCart(r *http.Request) {
	claims := GetWebClaims(r.Context())
	if _, err := s.Carts.For(r.Context(), claims.UserID); err != nil {
		s.Logger.Warn("failed to load cart", "user_id", claims.UserID, "error", err)
	}
}
