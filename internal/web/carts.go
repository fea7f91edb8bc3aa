package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/erazemk/trgovina/internal/cart"
)

// Carts keeps one cart reconciler per signed-in user.
type Carts struct {
	api    cart.API
	stock  cart.StockLookup
	logger *slog.Logger

	mu     sync.Mutex
	byUser map[int64]*cart.Reconciler
}

// NewCarts creates an empty registry.
func NewCarts(api cart.API, stock cart.StockLookup, logger *slog.Logger) *Carts {
	return &Carts{api: api, stock: stock, logger: logger, byUser: make(map[int64]*cart.Reconciler)}
}

// For returns the user's reconciler, creating and loading it on first use.
// A failed first load still returns the (empty) reconciler with the error.
func (c *Carts) For(ctx context.Context, userID int64) (*cart.Reconciler, error) {
	c.mu.Lock()
	rec, ok := c.byUser[userID]
	if !ok {
		rec = cart.New(c.api, c.stock, c.logger.With("user_id", userID))
		c.byUser[userID] = rec
	}
	c.mu.Unlock()

	if ok {
		return rec, nil
	}
	return rec, rec.Load(ctx)
}

// Peek returns the user's reconciler if one exists.
func (c *Carts) Peek(userID int64) *cart.Reconciler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byUser[userID]
}

// Drop forgets the user's reconciler.
func (c *Carts) Drop(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byUser, userID)
}

func cartCount(rec *cart.Reconciler) int {
	return cart.ItemCount(rec.Lines())
}
