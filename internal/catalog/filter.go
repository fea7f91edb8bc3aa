package catalog

import (
	"net/url"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/trgovina/internal/model"
)

// Criteria is the combined search, category and price filter of a view.
type Criteria struct {
	// Search is matched case-insensitively against the description.
	Search string
	// Categories matches any listed category; empty matches all.
	Categories []string
	MinPrice   decimal.NullDecimal
	MaxPrice   decimal.NullDecimal
}

// Active reports whether any criterion narrows the result.
func (c Criteria) Active() bool {
	return c.Search != "" || len(c.Categories) > 0 || c.MinPrice.Valid || c.MaxPrice.Valid
}

// HasCategory reports whether category is selected.
func (c Criteria) HasCategory(category string) bool {
	return slices.Contains(c.Categories, category)
}

// Match reports whether p passes every criterion.
func (c Criteria) Match(p model.Product) bool {
	if c.Search != "" && !strings.Contains(strings.ToLower(p.Description), strings.ToLower(c.Search)) {
		return false
	}
	if len(c.Categories) > 0 && !c.HasCategory(p.Category) {
		return false
	}
	if c.MinPrice.Valid && p.Price.LessThan(c.MinPrice.Decimal) {
		return false
	}
	if c.MaxPrice.Valid && p.Price.GreaterThan(c.MaxPrice.Decimal) {
		return false
	}
	return true
}

// Filter returns the products matching c in their original order. Bounds are
// not validated: a minimum above the maximum simply matches nothing. The
// result is never nil.
func Filter(products []model.Product, c Criteria) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// NoResults is the "no products found" state: something was asked for and
// nothing matched.
func NoResults(c Criteria, result []model.Product) bool {
	return c.Active() && len(result) == 0
}

// CriteriaFromQuery reads q, category (repeatable), min_price and max_price.
// Malformed prices are ignored.
func CriteriaFromQuery(q url.Values) Criteria {
	c := Criteria{
		Search:   strings.TrimSpace(q.Get("q")),
		MinPrice: parsePrice(q.Get("min_price")),
		MaxPrice: parsePrice(q.Get("max_price")),
	}
	for _, cat := range q["category"] {
		if cat = strings.TrimSpace(cat); cat != "" && !c.HasCategory(cat) {
			c.Categories = append(c.Categories, cat)
		}
	}
	return c
}

// Query encodes c back into the parameters CriteriaFromQuery reads.
func (c Criteria) Query() url.Values {
	q := url.Values{}
	if c.Search != "" {
		q.Set("q", c.Search)
	}
	for _, cat := range c.Categories {
		q.Add("category", cat)
	}
	if c.MinPrice.Valid {
		q.Set("min_price", c.MinPrice.Decimal.String())
	}
	if c.MaxPrice.Valid {
		q.Set("max_price", c.MaxPrice.Decimal.String())
	}
	return q
}

func parsePrice(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
