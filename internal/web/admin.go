package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/apiclient"
	"github.com/erazemk/trgovina/internal/catalog"
	"github.com/erazemk/trgovina/internal/model"
)

type productListData struct {
	PageData
	Products   []model.Product
	Categories []string
	Criteria   catalog.Criteria
	NoResults  bool
	Warning    string
}

type productFormData struct {
	PageData
	// ProductID is zero for a new product.
	ProductID int64
	Form      productForm
}

// productForm echoes the submitted fields back as typed.
type productForm struct {
	Barcode     string
	Description string
	Price       string
	Quantity    string
	Category    string
}

var adminNotices = map[string]string{
	"created": "Product added.",
	"updated": "Product saved.",
	"deleted": "Product deleted.",
}

// AdminProductsPage handles GET /admin/products.
func (s *Server) AdminProductsPage(w http.ResponseWriter, r *http.Request) {
	data := s.productList(r, "Products")
	data.Success = adminNotices[r.URL.Query().Get("ok")]
	s.Templates.Render(w, http.StatusOK, "admin_products.html", data)
}

// productList filters the catalog snapshot by the request's query. An empty
// snapshot is refreshed first so the first visit does not wait for polling.
func (s *Server) productList(r *http.Request, title string) *productListData {
	if s.Catalog.FetchedAt().IsZero() {
		if err := s.Catalog.Refresh(r.Context()); err != nil {
			s.Logger.Warn("catalog refresh failed", "error", err)
		}
	}

	criteria := catalog.CriteriaFromQuery(r.URL.Query())
	products := catalog.Filter(s.Catalog.Products(), criteria)

	data := &productListData{
		PageData:   s.page(r, title),
		Products:   products,
		Categories: s.Catalog.Categories(),
		Criteria:   criteria,
		NoResults:  catalog.NoResults(criteria, products),
	}
	if err := s.Catalog.Err(); err != nil {
		data.Warning = userMessage(err)
	}
	return data
}

// ProductNewPage handles GET /admin/products/new.
func (s *Server) ProductNewPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, http.StatusOK, "product_form.html", &productFormData{
		PageData: s.page(r, "Add product"),
		Form:     productForm{Quantity: "0"},
	})
}

// ProductCreateSubmit handles POST /admin/products/new.
func (s *Server) ProductCreateSubmit(w http.ResponseWriter, r *http.Request) {
	form := readProductForm(r)
	data := &productFormData{PageData: s.page(r, "Add product"), Form: form}

	in, err := form.input()
	if err == nil {
		err = s.Catalog.CheckUnique(in.Barcode, in.Description, 0)
	}
	if err != nil {
		data.Error = formMessage(err)
		s.Templates.Render(w, http.StatusUnprocessableEntity, "product_form.html", data)
		return
	}

	p, err := s.API.CreateProduct(r.Context(), in)
	if err != nil {
		s.Logger.Warn("failed to create product", "error", err)
		data.Error = userMessage(err)
		s.Templates.Render(w, http.StatusBadGateway, "product_form.html", data)
		return
	}

	if p.ID == 0 {
		// Confirmed without the product; only a refresh learns its id.
		if err := s.Catalog.Refresh(r.Context()); err != nil {
			s.Logger.Warn("catalog refresh after create failed", "error", err)
		}
	} else {
		s.Catalog.Upsert(*p)
	}
	s.Logger.Info("product created", "user", GetWebClaims(r.Context()).Email, "product_id", p.ID, "barcode", in.Barcode)
	http.Redirect(w, r, "/admin/products?ok=created", http.StatusSeeOther)
}

// ProductEditPage handles GET /admin/products/{id}.
func (s *Server) ProductEditPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	data := &productFormData{PageData: s.page(r, "Edit product"), ProductID: id}

	p, err := s.API.GetProduct(r.Context(), id)
	switch {
	case apiclient.IsNotFound(err):
		s.Catalog.Remove(id)
		http.Error(w, "product not found", http.StatusNotFound)
		return
	case err != nil:
		cached, ok := s.Catalog.Product(id)
		if !ok {
			s.Logger.Error("failed to get product", "product_id", id, "error", err)
			http.Error(w, "store service unavailable", http.StatusBadGateway)
			return
		}
		p = &cached
		data.Error = "Could not load the latest version of this product" + apiDetail(err)
	}

	data.Title = p.Description
	data.Form = formOf(*p)
	s.Templates.Render(w, http.StatusOK, "product_form.html", data)
}

// ProductUpdateSubmit handles POST /admin/products/{id}.
func (s *Server) ProductUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	form := readProductForm(r)
	data := &productFormData{PageData: s.page(r, "Edit product"), ProductID: id, Form: form}

	in, err := form.input()
	if err == nil {
		err = s.Catalog.CheckUnique(in.Barcode, in.Description, id)
	}
	if err != nil {
		data.Error = formMessage(err)
		s.Templates.Render(w, http.StatusUnprocessableEntity, "product_form.html", data)
		return
	}

	p, err := s.API.UpdateProduct(r.Context(), id, in)
	if err != nil {
		s.Logger.Warn("failed to update product", "product_id", id, "error", err)
		data.Error = userMessage(err)
		s.Templates.Render(w, http.StatusBadGateway, "product_form.html", data)
		return
	}

	s.Catalog.Upsert(*p)
	s.Logger.Info("product updated", "user", GetWebClaims(r.Context()).Email, "product_id", id)
	http.Redirect(w, r, "/admin/products?ok=updated", http.StatusSeeOther)
}

// ProductDeleteSubmit handles POST /admin/products/{id}/delete.
func (s *Server) ProductDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := s.API.DeleteProduct(r.Context(), id); err != nil && !apiclient.IsNotFound(err) {
		s.Logger.Warn("failed to delete product", "product_id", id, "error", err)
		data := s.productList(r, "Products")
		data.Error = "Could not delete the product" + apiDetail(err)
		s.Templates.Render(w, http.StatusBadGateway, "admin_products.html", data)
		return
	}

	s.Catalog.Remove(id)
	s.Logger.Info("product deleted", "user", GetWebClaims(r.Context()).Email, "product_id", id)
	http.Redirect(w, r, "/admin/products?ok=deleted", http.StatusSeeOther)
}

func readProductForm(r *http.Request) productForm {
	return productForm{
		Barcode:     strings.TrimSpace(r.FormValue("barcode")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Price:       strings.TrimSpace(r.FormValue("price")),
		Quantity:    strings.TrimSpace(r.FormValue("quantity")),
		Category:    strings.TrimSpace(r.FormValue("category")),
	}
}

func formOf(p model.Product) productForm {
	return productForm{
		Barcode:     p.Barcode,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Quantity:    strconv.Itoa(p.Quantity),
		Category:    p.Category,
	}
}

var (
	errPriceFormat    = errors.New("price must be a number")
	errQuantityFormat = errors.New("quantity must be a whole number")
)

// input parses the form into a validated ProductInput.
func (f productForm) input() (model.ProductInput, error) {
	price, err := decimal.NewFromString(f.Price)
	if err != nil {
		return model.ProductInput{}, errPriceFormat
	}
	qty, err := strconv.Atoi(f.Quantity)
	if err != nil {
		return model.ProductInput{}, errQuantityFormat
	}

	in := model.ProductInput{
		Barcode:     f.Barcode,
		Description: f.Description,
		Price:       price.Round(2),
		Quantity:    qty,
		Category:    f.Category,
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return model.ProductInput{}, err
	}
	return in, nil
}

// formMessage renders local validation failures.
func formMessage(err error) string {
	if errors.Is(err, catalog.ErrDuplicateField) {
		return userMessage(err)
	}
	return fmt.Sprintf("%s.", capitalize(err.Error()))
}
