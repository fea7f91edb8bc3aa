package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/trgovina/internal/model"
)

// fakeAPI is an in-memory cart that records calls. Setting gate makes every
// UpdateCartLine announce itself and wait to be released.
type fakeAPI struct {
	mu     sync.Mutex
	lines  []model.CartLine
	nextID int64
	calls  map[string]int

	listErr, addErr, updateErr, removeErr, checkoutErr error
	// silent makes AddToCart confirm without returning the line.
	silent bool
	gate   chan chan struct{}

	updates   []int
	checkouts []model.CheckoutRequest
	products  map[int64]model.Product
}

func newFakeAPI(products ...model.Product) *fakeAPI {
	f := &fakeAPI{nextID: 100, calls: make(map[string]int), products: make(map[int64]model.Product)}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) ListCart(ctx context.Context) ([]model.CartLine, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.CartLine(nil), f.lines...), nil
}

func (f *fakeAPI) AddToCart(ctx context.Context, productID int64, quantity int) (*model.CartLine, error) {
	f.record("add")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	for i := range f.lines {
		if f.lines[i].Product.ID == productID {
			f.lines[i].Quantity += quantity
			if f.silent {
				return nil, nil
			}
			line := f.lines[i]
			return &line, nil
		}
	}
	f.nextID++
	line := model.CartLine{ID: f.nextID, Product: f.products[productID], Quantity: quantity}
	f.lines = append(f.lines, line)
	if f.silent {
		return nil, nil
	}
	return &line, nil
}

func (f *fakeAPI) UpdateCartLine(ctx context.Context, id int64, quantity int) (*model.CartLine, error) {
	f.record("update")
	if f.gate != nil {
		release := make(chan struct{})
		f.gate <- release
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, quantity)
	for i := range f.lines {
		if f.lines[i].ID == id {
			f.lines[i].Quantity = quantity
			line := f.lines[i]
			return &line, nil
		}
	}
	return nil, errors.New("404 not found")
}

func (f *fakeAPI) RemoveCartLine(ctx context.Context, id int64) error {
	f.record("remove")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	for i := range f.lines {
		if f.lines[i].ID == id {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return nil
		}
	}
	return errors.New("404 not found")
}

func (f *fakeAPI) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutConfirmation, error) {
	f.record("checkout")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	f.checkouts = append(f.checkouts, req)
	f.lines = nil
	return &model.CheckoutConfirmation{OrderID: 1, Message: "Order placed"}, nil
}

// stockMap is a catalog whose entries were all confirmed at the same time.
type stockMap struct {
	products map[int64]model.Product
	at       time.Time
}

func catalogAt(at time.Time, products ...model.Product) stockMap {
	m := stockMap{products: make(map[int64]model.Product), at: at}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m stockMap) Stock(id int64) (model.Product, time.Time, bool) {
	p, ok := m.products[id]
	return p, m.at, ok
}

func product(id int64, desc string, price string, qty int) model.Product {
	return model.Product{
		ID:          id,
		Barcode:     "bc-" + desc,
		Description: desc,
		Price:       decimal.RequireFromString(price),
		Quantity:    qty,
		Category:    "Test",
	}
}

var (
	shirt = product(1, "Shirt", "100", 5)
	mug   = product(2, "Mug", "50", 0)
	plate = product(3, "Plate", "50", 10)
)

// setup returns a reconciler whose catalog knows shirt, mug and plate.
func setup(t *testing.T) (*Reconciler, *fakeAPI) {
	t.Helper()
	api := newFakeAPI(shirt, mug, plate)
	return New(api, catalogAt(time.Now(), shirt, mug, plate), nil), api
}

func TestValidateQuantity(t *testing.T) {
	for q := -1; q <= 7; q++ {
		err := ValidateQuantity(q, 5)
		if q >= 1 && q <= 5 {
			assert.NoError(t, err, "q=%d", q)
			continue
		}
		require.ErrorIs(t, err, ErrInvalidQuantity, "q=%d", q)
		var qe *QuantityError
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, 1, qe.Min)
		assert.Equal(t, 5, qe.Max)
		assert.Equal(t, "quantity must be between 1 and 5", qe.Error())
	}

	assert.EqualError(t, ValidateQuantity(1, 0), "out of stock")
}

func TestAddToCartOutOfStockIssuesNoCall(t *testing.T) {
	r, api := setup(t)

	err := r.AddToCart(context.Background(), mug.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Zero(t, api.count("add"))
	assert.Empty(t, r.Lines())
}

func TestAddToCartValidatesAgainstStock(t *testing.T) {
	r, api := setup(t)
	ctx := context.Background()

	accepted := 0
	for q := -1; q <= 7; q++ {
		err := r.AddToCart(ctx, shirt.ID, q)
		if q >= 1 && q <= shirt.Quantity {
			require.NoError(t, err, "q=%d", q)
			accepted++
		} else {
			require.ErrorIs(t, err, ErrInvalidQuantity, "q=%d", q)
		}
	}
	assert.Equal(t, accepted, api.count("add"), "rejected quantities must not reach the API")
}

func TestAddToCartUnknownProduct(t *testing.T) {
	r, api := setup(t)

	assert.ErrorIs(t, r.AddToCart(context.Background(), 42, 1), ErrUnknownProduct)
	assert.Zero(t, api.count("add"))
}

func TestAddToCartMergesConfirmedLine(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, r.AddToCart(ctx, shirt.ID, 2))
	require.NoError(t, r.AddToCart(ctx, plate.ID, 1))
	require.NoError(t, r.AddToCart(ctx, shirt.ID, 1))

	lines := r.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, shirt.ID, lines[0].Product.ID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestAddToCartReloadsWhenLineNotReturned(t *testing.T) {
	r, api := setup(t)
	api.silent = true

	require.NoError(t, r.AddToCart(context.Background(), plate.ID, 4))
	assert.Equal(t, 1, api.count("list"))
	require.Len(t, r.Lines(), 1)
	assert.Equal(t, 4, r.Lines()[0].Quantity)
}

func TestAddToCartFailureLeavesLines(t *testing.T) {
	r, api := setup(t)
	ctx := context.Background()
	require.NoError(t, r.AddToCart(ctx, shirt.ID, 1))
	before := r.Lines()

	api.addErr = errors.New("500 internal server error")
	err := r.AddToCart(ctx, plate.ID, 1)
	require.ErrorIs(t, err, ErrOperationFailed)
	assert.ErrorIs(t, err, api.addErr)
	assert.Equal(t, before, r.Lines())
}

func TestUpdateQuantity(t *testing.T) {
	r, api := setup(t)
	ctx := context.Background()
	require.NoError(t, r.AddToCart(ctx, shirt.ID, 1))
	id := r.Lines()[0].ID

	require.NoError(t, r.UpdateQuantity(ctx, id, 4, 5))
	line, ok := r.Line(id)
	require.True(t, ok)
	assert.Equal(t, 4, line.Quantity)

	err := r.UpdateQuantity(ctx, id, 6, 5)
	var qe *QuantityError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 6, qe.Quantity)
	assert.Equal(t, 5, qe.Max)
	assert.Equal(t, 1, api.count("update"), "rejected update must not reach the API")

	api.updateErr = errors.New("503 service unavailable")
	err = r.UpdateQuantity(ctx, id, 2, 5)
	require.ErrorIs(t, err, ErrOperationFailed)
	var oe *OperationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, id, oe.LineID)
	line, _ = r.Line(id)
	assert.Equal(t, 4, line.Quantity, "failed update must not change the line")

	assert.ErrorIs(t, r.UpdateQuantity(ctx, 999, 1, 5), ErrLineNotFound)
}

func TestRemoveItem(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, r.AddToCart(ctx, shirt.ID, 1))
	require.NoError(t, r.AddToCart(ctx, plate.ID, 1))
	id := r.Lines()[0].ID

	require.NoError(t, r.RemoveItem(ctx, id))
	lines := r.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, plate.ID, lines[0].Product.ID)

	assert.ErrorIs(t, r.RemoveItem(ctx, id), ErrLineNotFound)
}

func TestRemoveItemFailureLeavesLines(t *testing.T) {
	r, api := setup(t)
	ctx := context.Background()
	require.NoError(t, r.AddToCart(ctx, shirt.ID, 2))
	before := r.Lines()

	api.removeErr = errors.New("500 internal server error")
	err := r.RemoveItem(ctx, before[0].ID)
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.Equal(t, before, r.Lines())
}

func TestConcurrentUpdatesApplyInIssueOrder(t *testing.T) {
	r, api := setup(t)
	ctx := context.Background()
	require.NoError(t, r.AddToCart(ctx, shirt.ID, 1))
	id := r.Lines()[0].ID

	gate := make(chan chan struct{})
	api.gate = gate

	firstDone := make(chan error, 1)
	go func() { firstDone <- r.UpdateQuantity(ctx, id, 2, 5) }()
	first := <-gate

	secondDone := make(chan error, 1)
	go func() { secondDone <- r.UpdateQuantity(ctx, id, 3, 5) }()

	select {
	case <-gate:
		t.Fatal("second update reached the API before the first completed")
	case <-time.After(30 * time.Millisecond):
	}

	close(first)
	require.NoError(t, <-firstDone)
	second := <-gate
	close(second)
	require.NoError(t, <-secondDone)

	line, _ := r.Line(id)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, []int{2, 3}, api.updates)
}

func TestUpdateQuantityHonoursCancelWhileQueued(t *testing.T) {
	r, api := setup(t)
	ctx := context.Background()
	require.NoError(t, r.AddToCart(ctx, shirt.ID, 1))
	id := r.Lines()[0].ID

	gate := make(chan chan struct{})
	api.gate = gate

	firstDone := make(chan error, 1)
	go func() { firstDone <- r.UpdateQuantity(ctx, id, 2, 5) }()
	first := <-gate

	queued, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, r.UpdateQuantity(queued, id, 4, 5), context.Canceled)

	close(first)
	require.NoError(t, <-firstDone)
	line, _ := r.Line(id)
	assert.Equal(t, 2, line.Quantity)
}

func TestStaleCompletionIsDiscarded(t *testing.T) {
	r, _ := setup(t)
	require.NoError(t, r.AddToCart(context.Background(), shirt.ID, 1))
	id := r.Lines()[0].ID

	older := r.stamp(id)
	newer := r.stamp(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.True(t, r.current(id, newer))
	assert.False(t, r.current(id, older))
}

func TestLoad(t *testing.T) {
	r, api := setup(t)
	ctx := context.Background()
	api.lines = []model.CartLine{{ID: 7, Product: shirt, Quantity: 2}}

	require.NoError(t, r.Load(ctx))
	require.Len(t, r.Lines(), 1)

	api.listErr = errors.New("connection refused")
	err := r.Load(ctx)
	assert.ErrorIs(t, err, ErrFetch)
	assert.Len(t, r.Lines(), 1, "failed load must keep the previous lines")
}

func TestStockLimitPrefersFreshestSource(t *testing.T) {
	fetched := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	newLoaded := func(catalog stockMap) (*Reconciler, *fakeAPI) {
		api := newFakeAPI()
		api.lines = []model.CartLine{
			{ID: 1, Product: product(1, "Shirt", "100", 2), Quantity: 1},
			{ID: 2, Product: product(9, "Gone", "10", 3), Quantity: 1},
		}
		r := New(api, catalog, nil)
		r.now = func() time.Time { return fetched }
		require.NoError(t, r.Load(context.Background()))
		return r, api
	}

	// The catalog refreshed after the cart was fetched.
	r, _ := newLoaded(catalogAt(fetched.Add(time.Minute), product(1, "Shirt", "100", 4)))
	limit, ok := r.StockLimit(1)
	require.True(t, ok)
	assert.Equal(t, 4, limit)

	// The cart was fetched after the catalog: its stock of 2 wins.
	r, api := newLoaded(catalogAt(fetched.Add(-time.Minute), product(1, "Shirt", "100", 5)))
	limit, ok = r.StockLimit(1)
	require.True(t, ok)
	assert.Equal(t, 2, limit)
	assert.ErrorIs(t, r.UpdateQuantity(context.Background(), 1, 4, limit), ErrInvalidQuantity)
	assert.Zero(t, api.count("update"))

	err := r.AddToCart(context.Background(), 1, 3)
	assert.ErrorIs(t, err, ErrInvalidQuantity, "adding checks the line's fresher stock too")
	assert.Zero(t, api.count("add"))

	// Unknown to the catalog: the line's snapshot is all there is.
	limit, ok = r.StockLimit(2)
	require.True(t, ok)
	assert.Equal(t, 3, limit)

	_, ok = r.StockLimit(99)
	assert.False(t, ok)
}

func TestAddAndUpdateOfOneLineApplyInIssueOrder(t *testing.T) {
	r, api := setup(t)
	ctx := context.Background()
	require.NoError(t, r.AddToCart(ctx, shirt.ID, 1))
	id := r.Lines()[0].ID

	gate := make(chan chan struct{})
	api.gate = gate

	updateDone := make(chan error, 1)
	go func() { updateDone <- r.UpdateQuantity(ctx, id, 3, 5) }()
	update := <-gate

	addDone := make(chan error, 1)
	go func() { addDone <- r.AddToCart(ctx, shirt.ID, 1) }()

	assert.Never(t, func() bool { return api.count("add") > 1 }, 30*time.Millisecond, time.Millisecond,
		"add reached the API while an update of its line was in flight")

	close(update)
	require.NoError(t, <-updateDone)
	require.NoError(t, <-addDone)

	line, _ := r.Line(id)
	assert.Equal(t, 4, line.Quantity)
	assert.Equal(t, 4, api.lines[0].Quantity)
}

func TestRemovedLinesAreForgotten(t *testing.T) {
	r, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, r.AddToCart(ctx, shirt.ID, 1))
	require.NoError(t, r.AddToCart(ctx, plate.ID, 1))
	first, second := r.Lines()[0].ID, r.Lines()[1].ID
	require.NoError(t, r.UpdateQuantity(ctx, first, 2, 5))
	require.NoError(t, r.UpdateQuantity(ctx, second, 2, 10))

	require.NoError(t, r.RemoveItem(ctx, first))
	r.mu.Lock()
	assert.NotContains(t, r.locks, lockKey{id: first})
	assert.NotContains(t, r.issued, first)
	assert.NotContains(t, r.applied, first)
	assert.NotContains(t, r.seen, first)
	assert.Contains(t, r.issued, second)
	r.mu.Unlock()

	_, err := r.Checkout(ctx, Details{Shipping: "Main street 1", PaymentMethod: model.PaymentPayPal})
	require.NoError(t, err)
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.NotContains(t, r.locks, lockKey{id: second})
	assert.Empty(t, r.issued)
	assert.Empty(t, r.applied)
	assert.Empty(t, r.seen)
}

func TestCheckout(t *testing.T) {
	r, api := setup(t)
	ctx := context.Background()
	details := Details{Shipping: "Main street 1", PaymentMethod: model.PaymentCashOnDelivery}

	_, err := r.Checkout(ctx, details)
	assert.ErrorIs(t, err, ErrEmptyCart)

	require.NoError(t, r.AddToCart(ctx, shirt.ID, 2))
	require.NoError(t, r.AddToCart(ctx, plate.ID, 1))

	_, err = r.Checkout(ctx, Details{Shipping: " ", PaymentMethod: model.PaymentPayPal})
	assert.ErrorIs(t, err, ErrCheckoutDetails)
	_, err = r.Checkout(ctx, Details{Shipping: "Main street 1", PaymentMethod: "barter"})
	assert.ErrorIs(t, err, ErrCheckoutDetails)
	assert.Zero(t, api.count("checkout"))

	api.checkoutErr = errors.New("402 payment required")
	_, err = r.Checkout(ctx, details)
	assert.ErrorIs(t, err, ErrCheckoutFailed)
	assert.Len(t, r.Lines(), 2, "failed checkout must leave the cart untouched")

	api.checkoutErr = nil
	conf, err := r.Checkout(ctx, details)
	require.NoError(t, err)
	assert.Equal(t, int64(1), conf.OrderID)
	assert.Empty(t, r.Lines())

	require.Len(t, api.checkouts, 1)
	req := api.checkouts[0]
	assert.Equal(t, "250.00", req.TotalAmount)
	assert.Equal(t, "Main street 1", req.ShippingDetails)
	assert.Equal(t, []model.CheckoutItem{{ProductID: 1, Quantity: 2}, {ProductID: 3, Quantity: 1}}, req.CartItems)
}
