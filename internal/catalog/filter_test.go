package catalog

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/trgovina/internal/model"
)

func product(id int64, desc string, price int64, qty int, cat string) model.Product {
	return model.Product{
		ID:          id,
		Barcode:     "bc-" + desc,
		Description: desc,
		Price:       decimal.NewFromInt(price),
		Quantity:    qty,
		Category:    cat,
	}
}

func sampleProducts() []model.Product {
	return []model.Product{
		product(1, "Shirt", 100, 5, "Apparel"),
		product(2, "Mug", 50, 0, "Home"),
		product(3, "Sweatshirt", 250, 2, "Apparel"),
		product(4, "Plate", 80, 10, "Home"),
		product(5, "Shoe horn", 20, 3, "Accessories"),
	}
}

func ids(products []model.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestFilterSearchScenario(t *testing.T) {
	products := []model.Product{
		product(1, "Shirt", 100, 5, "Apparel"),
		product(2, "Mug", 50, 0, "Home"),
	}

	got := Filter(products, Criteria{Search: "sh"})
	assert.Equal(t, []int64{1}, ids(got))
}

func TestFilterCriteria(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []int64
	}{
		{"no criteria", Criteria{}, []int64{1, 2, 3, 4, 5}},
		{"case insensitive search", Criteria{Search: "SHIRT"}, []int64{1, 3}},
		{"single category", Criteria{Categories: []string{"Home"}}, []int64{2, 4}},
		{"multiple categories", Criteria{Categories: []string{"Home", "Accessories"}}, []int64{2, 4, 5}},
		{"unknown category", Criteria{Categories: []string{"Garden"}}, []int64{}},
		{"min price inclusive", Criteria{MinPrice: price("100")}, []int64{1, 3}},
		{"max price inclusive", Criteria{MaxPrice: price("80")}, []int64{2, 4, 5}},
		{"price range", Criteria{MinPrice: price("50"), MaxPrice: price("100")}, []int64{1, 2, 4}},
		{"inverted range", Criteria{MinPrice: price("200"), MaxPrice: price("10")}, []int64{}},
		{"all criteria", Criteria{Search: "s", Categories: []string{"Apparel"}, MaxPrice: price("150")}, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sampleProducts(), tt.criteria)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterIsOrderedSubsequence(t *testing.T) {
	products := sampleProducts()
	criteria := []Criteria{
		{},
		{Search: "o"},
		{Categories: []string{"Apparel", "Home"}},
		{MinPrice: price("30"), MaxPrice: price("200")},
	}

	for _, c := range criteria {
		got := Filter(products, c)
		// Every result appears in the input after the previous one.
		next := 0
		for _, p := range got {
			found := false
			for next < len(products) {
				if products[next].ID == p.ID {
					found = true
					next++
					break
				}
				next++
			}
			require.True(t, found, "result %d out of order for %+v", p.ID, c)
		}
	}
}

func TestFilterEmptyCategoriesIgnoreCategory(t *testing.T) {
	products := sampleProducts()
	relabeled := sampleProducts()
	for i := range relabeled {
		relabeled[i].Category = "Other"
	}

	c := Criteria{Search: "s", MinPrice: price("10")}
	assert.Equal(t, ids(Filter(products, c)), ids(Filter(relabeled, c)))
}

func TestFilterIsPure(t *testing.T) {
	products := sampleProducts()
	c := Criteria{Search: "sh", Categories: []string{"Apparel"}}

	first := Filter(products, c)
	second := Filter(products, c)
	assert.Equal(t, first, second)
	assert.Equal(t, sampleProducts(), products, "input must not be modified")
}

func TestFilterEmptyInput(t *testing.T) {
	got := Filter(nil, Criteria{Search: "x"})
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = Filter(nil, Criteria{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNoResults(t *testing.T) {
	products := sampleProducts()

	c := Criteria{Search: "zzz"}
	assert.True(t, NoResults(c, Filter(products, c)))

	c = Criteria{Search: "mug"}
	assert.False(t, NoResults(c, Filter(products, c)))

	// An empty catalog with no criteria is not a failed search.
	assert.False(t, NoResults(Criteria{}, Filter(nil, Criteria{})))
}

func TestCriteriaFromQuery(t *testing.T) {
	q := url.Values{
		"q":         {"  shirt "},
		"category":  {"Apparel", "Home", "Apparel", ""},
		"min_price": {"10.50"},
		"max_price": {"abc"},
	}

	c := CriteriaFromQuery(q)
	assert.Equal(t, "shirt", c.Search)
	assert.Equal(t, []string{"Apparel", "Home"}, c.Categories)
	require.True(t, c.MinPrice.Valid)
	assert.True(t, c.MinPrice.Decimal.Equal(decimal.RequireFromString("10.5")))
	assert.False(t, c.MaxPrice.Valid)
	assert.True(t, c.Active())

	round := CriteriaFromQuery(c.Query())
	assert.Equal(t, c.Search, round.Search)
	assert.Equal(t, c.Categories, round.Categories)
	assert.True(t, round.MinPrice.Decimal.Equal(c.MinPrice.Decimal))

	assert.False(t, CriteriaFromQuery(url.Values{}).Active())
}
