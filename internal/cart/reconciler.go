// Package cart validates cart changes against known stock and applies them
// locally only after the API confirms them.
package cart

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/trgovina/internal/model"
)

// API is the remote cart.
type API interface {
	ListCart(ctx context.Context) ([]model.CartLine, error)
	AddToCart(ctx context.Context, productID int64, quantity int) (*model.CartLine, error)
	UpdateCartLine(ctx context.Context, id int64, quantity int) (*model.CartLine, error)
	RemoveCartLine(ctx context.Context, id int64) error
	Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutConfirmation, error)
}

// StockLookup returns the latest known state of a product and when the API
// last confirmed it.
type StockLookup interface {
	Stock(id int64) (p model.Product, at time.Time, ok bool)
}

// Details is the shipping and payment part of a checkout.
type Details struct {
	Shipping      string
	PaymentMethod string
}

type lockKey struct {
	product bool
	id      int64
}

// Reconciler holds one session's cart lines. Mutations of the same line (or
// adds of the same product) run one at a time in the order they were issued;
// a completion older than the last one applied to that line is dropped.
type Reconciler struct {
	api    API
	stock  StockLookup
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	lines []model.CartLine
	// version changes on every committed mutation so an overlapping Load
	// can tell that its result is stale.
	version uint64
	locks   map[lockKey]chan struct{}
	issued  map[int64]uint64
	applied map[int64]uint64
	// seen is when each line's product snapshot was received.
	seen map[int64]time.Time
}

// New returns an empty Reconciler. Call Load to fetch the current cart.
func New(api API, stock StockLookup, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		api:     api,
		stock:   stock,
		logger:  logger,
		now:     time.Now,
		locks:   make(map[lockKey]chan struct{}),
		issued:  make(map[int64]uint64),
		applied: make(map[int64]uint64),
		seen:    make(map[int64]time.Time),
	}
}

// Lines returns a copy of the confirmed cart lines.
func (r *Reconciler) Lines() []model.CartLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.lines)
}

// Line returns the confirmed line with id.
func (r *Reconciler) Line(id int64) (model.CartLine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		return r.lines[i], true
	}
	return model.CartLine{}, false
}

// Load replaces the local lines with the API's cart. On failure the previous
// lines stay. A result that overlapped a committed mutation is dropped.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	start := r.version
	r.mu.Unlock()

	lines, err := r.api.ListCart(ctx)
	if err != nil {
		return &OperationError{Op: "load cart", Kind: ErrFetch, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.version != start {
		r.logger.Debug("discarding stale cart load")
		return nil
	}
	r.lines = slices.Clone(lines)
	at := r.now()
	clear(r.seen)
	for _, l := range lines {
		r.seen[l.ID] = at
	}
	r.version++
	return nil
}

// AddToCart validates quantity against the freshest known stock of the
// product and then adds it remotely. The API merges a product that is already
// in the cart into its line, so such an add is ordered with that line's other
// changes.
func (r *Reconciler) AddToCart(ctx context.Context, productID int64, quantity int) error {
	stock, ok := r.freshestStock(productID)
	if !ok {
		return ErrUnknownProduct
	}
	if err := ValidateQuantity(quantity, stock); err != nil {
		return err
	}

	unlock, err := r.lock(ctx, lockKey{product: true, id: productID})
	if err != nil {
		return err
	}
	defer unlock()

	var (
		lineID int64
		seq    uint64
	)
	if existing, ok := r.lineFor(productID); ok {
		unlockLine, err := r.lock(ctx, lockKey{id: existing.ID})
		if err != nil {
			return err
		}
		defer unlockLine()
		lineID = existing.ID
		seq = r.stamp(lineID)
	}

	line, err := r.api.AddToCart(ctx, productID, quantity)
	if err != nil {
		return &OperationError{Op: "add to cart", LineID: lineID, Kind: ErrOperationFailed, Err: err}
	}
	if line == nil {
		// Confirmed without the line; fetch the cart to see it.
		return r.Load(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if lineID != 0 && line.ID == lineID && !r.current(lineID, seq) {
		return nil
	}
	if i := r.indexOf(line.ID); i >= 0 {
		r.lines[i] = *line
	} else {
		r.lines = append(r.lines, *line)
	}
	r.seen[line.ID] = r.now()
	r.version++
	r.logger.Info("added to cart", "product_id", productID, "line_id", line.ID, "quantity", line.Quantity)
	return nil
}

// StockLimit returns the freshest known stock for the product on a line:
// whichever of the catalog entry and the line's own snapshot the API
// confirmed last.
func (r *Reconciler) StockLimit(lineID int64) (int, bool) {
	line, ok := r.Line(lineID)
	if !ok {
		return 0, false
	}
	return r.freshestStock(line.Product.ID)
}

// freshestStock compares the catalog's copy of a product with the snapshot
// carried by its cart line and returns the newer quantity.
func (r *Reconciler) freshestStock(productID int64) (int, bool) {
	p, catalogAt, inCatalog := r.stock.Stock(productID)

	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.lines, func(l model.CartLine) bool { return l.Product.ID == productID })
	if i < 0 {
		return p.Quantity, inCatalog
	}
	line := r.lines[i]
	if !inCatalog || !r.seen[line.ID].Before(catalogAt) {
		return line.Product.Quantity, true
	}
	return p.Quantity, true
}

// UpdateQuantity sets a line's quantity once the API confirms it.
func (r *Reconciler) UpdateQuantity(ctx context.Context, lineID int64, quantity, stockLimit int) error {
	if err := ValidateQuantity(quantity, stockLimit); err != nil {
		return err
	}
	if _, ok := r.Line(lineID); !ok {
		return ErrLineNotFound
	}

	unlock, err := r.lock(ctx, lockKey{id: lineID})
	if err != nil {
		return err
	}
	defer unlock()

	seq := r.stamp(lineID)
	line, err := r.api.UpdateCartLine(ctx, lineID, quantity)
	if err != nil {
		return &OperationError{Op: "update", LineID: lineID, Kind: ErrOperationFailed, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.current(lineID, seq) {
		return nil
	}
	i := r.indexOf(lineID)
	if i < 0 {
		return nil
	}
	if line != nil {
		r.lines[i].Product = line.Product
		r.seen[lineID] = r.now()
	}
	r.lines[i].Quantity = quantity
	r.version++
	return nil
}

// RemoveItem deletes a line once the API confirms it.
func (r *Reconciler) RemoveItem(ctx context.Context, lineID int64) error {
	if _, ok := r.Line(lineID); !ok {
		return ErrLineNotFound
	}

	unlock, err := r.lock(ctx, lockKey{id: lineID})
	if err != nil {
		return err
	}
	defer unlock()

	seq := r.stamp(lineID)
	if err := r.api.RemoveCartLine(ctx, lineID); err != nil {
		return &OperationError{Op: "remove", LineID: lineID, Kind: ErrOperationFailed, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.current(lineID, seq) {
		return nil
	}
	r.lines = slices.DeleteFunc(r.lines, func(l model.CartLine) bool { return l.ID == lineID })
	r.forget(lineID)
	r.version++
	return nil
}

// Checkout submits the cart. The local lines are cleared only on success.
func (r *Reconciler) Checkout(ctx context.Context, d Details) (*model.CheckoutConfirmation, error) {
	if strings.TrimSpace(d.Shipping) == "" || !model.ValidPaymentMethod(d.PaymentMethod) {
		return nil, ErrCheckoutDetails
	}

	lines := r.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	req := model.CheckoutRequest{
		ShippingDetails: strings.TrimSpace(d.Shipping),
		PaymentMethod:   d.PaymentMethod,
		TotalAmount:     TotalPrice(lines).StringFixed(2),
		CartItems:       make([]model.CheckoutItem, 0, len(lines)),
	}
	for _, l := range lines {
		req.CartItems = append(req.CartItems, model.CheckoutItem{ProductID: l.Product.ID, Quantity: l.Quantity})
	}

	conf, err := r.api.Checkout(ctx, req)
	if err != nil {
		return nil, &OperationError{Op: "checkout", Kind: ErrCheckoutFailed, Err: err}
	}

	r.mu.Lock()
	for _, l := range r.lines {
		r.forget(l.ID)
	}
	r.lines = nil
	r.version++
	r.mu.Unlock()

	r.logger.Info("checkout complete", "items", len(req.CartItems), "total", req.TotalAmount)
	return conf, nil
}

// lock waits for exclusive use of key or for ctx to end.
func (r *Reconciler) lock(ctx context.Context, key lockKey) (func(), error) {
	r.mu.Lock()
	ch, ok := r.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		r.locks[key] = ch
	}
	r.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Reconciler) stamp(lineID int64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued[lineID]++
	return r.issued[lineID]
}

// current records seq as applied unless a newer completion already was.
// Callers hold r.mu.
func (r *Reconciler) current(lineID int64, seq uint64) bool {
	if seq < r.applied[lineID] {
		r.logger.Debug("discarding stale cart completion", "line_id", lineID, "seq", seq)
		return false
	}
	r.applied[lineID] = seq
	return true
}

// forget drops the bookkeeping of a line that is gone. A holder of its lock
// keeps its own channel. Callers hold r.mu.
func (r *Reconciler) forget(lineID int64) {
	delete(r.locks, lockKey{id: lineID})
	delete(r.issued, lineID)
	delete(r.applied, lineID)
	delete(r.seen, lineID)
}

func (r *Reconciler) lineFor(productID int64) (model.CartLine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.lines, func(l model.CartLine) bool { return l.Product.ID == productID })
	if i < 0 {
		return model.CartLine{}, false
	}
	return r.lines[i], true
}

func (r *Reconciler) indexOf(id int64) int {
	return slices.IndexFunc(r.lines, func(l model.CartLine) bool { return l.ID == id })
}
