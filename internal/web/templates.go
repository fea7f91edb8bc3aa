package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/auth"
	"github.com/erazemk/trgovina/internal/model"
	webembed "github.com/erazemk/trgovina/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

var paymentNames = map[string]string{
	model.PaymentCashOnDelivery: "Cash on delivery",
	model.PaymentCreditCard:     "Credit card",
	model.PaymentPayPal:         "PayPal",
	model.PaymentGCash:          "GCash",
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"optionalPrice": func(d decimal.NullDecimal) string {
			if !d.Valid {
				return ""
			}
			return d.Decimal.String()
		},
		"paymentName": func(m string) string {
			if name, ok := paymentNames[m]; ok {
				return name
			}
			return m
		},
	}
}

var pages = []string{
	"login.html",
	"register.html",
	"admin_products.html",
	"product_form.html",
	"shop.html",
	"product_detail.html",
	"cart.html",
	"checkout.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl, err := template.New(page).Funcs(FuncMap()).Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		if tmpl, err = tmpl.Parse(string(pageBytes)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a page with the given data and status.
func (ts *Templates) Render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
	// CartCount is the number of items shown on the cart badge.
	CartCount int
}
