// Package catalog holds the last-fetched product list and the filters applied
// to it.
package catalog

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/trgovina/internal/model"
)

// Source loads the full product list.
type Source interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
}

// Store is a snapshot of the remote catalog. Categories are kept in order of
// first appearance in the product list.
type Store struct {
	src    Source
	logger *slog.Logger

	mu         sync.RWMutex
	products   []model.Product
	categories []string
	fetchedAt  time.Time
	lastErr    error
	// confirmed is when the API last vouched for each product, by a refresh
	// or by a create or update.
	confirmed map[int64]time.Time

	// issued counts started refreshes; applied is the newest one whose
	// result is in the snapshot.
	issued  uint64
	applied uint64
	// edits counts Upsert and Remove calls so a refresh that overlapped one
	// does not undo it.
	edits uint64
}

// NewStore creates an empty store backed by src.
func NewStore(src Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{src: src, logger: logger, confirmed: make(map[int64]time.Time)}
}

// Refresh reloads the product list. On failure the previous snapshot is kept
// and a *FetchError is returned. A refresh that finishes after a newer one
// has already been applied, or that overlapped a local Upsert or Remove, is
// discarded.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	token := s.issued
	edits := s.edits
	s.mu.Unlock()

	products, err := s.src.ListProducts(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token < s.applied {
		s.logger.Debug("discarding stale catalog refresh", "token", token, "applied", s.applied)
		return nil
	}
	if err != nil {
		s.lastErr = &FetchError{Err: err}
		return s.lastErr
	}
	if edits != s.edits {
		s.logger.Debug("discarding catalog refresh that overlapped a local change", "token", token)
		return nil
	}

	s.applied = token
	s.products = slices.Clone(products)
	s.categories = categoriesOf(products)
	s.fetchedAt = time.Now()
	clear(s.confirmed)
	for _, p := range products {
		s.confirmed[p.ID] = s.fetchedAt
	}
	s.lastErr = nil
	return nil
}

// Products returns a copy of the current snapshot.
func (s *Store) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

// Categories returns the distinct categories of the snapshot.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

// Product returns the snapshot entry for id.
func (s *Store) Product(id int64) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.products, func(p model.Product) bool { return p.ID == id })
	if i < 0 {
		return model.Product{}, false
	}
	return s.products[i], true
}

// Stock returns the snapshot entry for id with the time the API last
// confirmed it.
func (s *Store) Stock(id int64) (model.Product, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.products, func(p model.Product) bool { return p.ID == id })
	if i < 0 {
		return model.Product{}, time.Time{}, false
	}
	return s.products[i], s.confirmed[id], true
}

// FetchedAt returns when the snapshot was last replaced. Zero if never.
func (s *Store) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// Err returns the error of the last refresh, or nil if it succeeded.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Upsert records a product the API has confirmed as created or updated.
func (s *Store) Upsert(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := slices.IndexFunc(s.products, func(q model.Product) bool { return q.ID == p.ID }); i >= 0 {
		s.products[i] = p
	} else {
		s.products = append(s.products, p)
	}
	s.categories = categoriesOf(s.products)
	s.confirmed[p.ID] = time.Now()
	s.edits++
}

// Remove drops a product the API has confirmed as deleted.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = slices.DeleteFunc(s.products, func(p model.Product) bool { return p.ID == id })
	s.categories = categoriesOf(s.products)
	delete(s.confirmed, id)
	s.edits++
}

// CheckUnique reports a *DuplicateFieldError if another product than exceptID
// already uses barcode or (case-insensitively) description. The check only
// sees the last snapshot; the API is the authority on uniqueness.
func (s *Store) CheckUnique(barcode, description string, exceptID int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	barcode = strings.TrimSpace(barcode)
	description = strings.TrimSpace(description)

	for _, p := range s.products {
		if p.ID == exceptID {
			continue
		}
		if barcode != "" && p.Barcode == barcode {
			return &DuplicateFieldError{Field: FieldBarcode, Value: barcode, ProductID: p.ID}
		}
		if description != "" && strings.EqualFold(p.Description, description) {
			return &DuplicateFieldError{Field: FieldDescription, Value: description, ProductID: p.ID}
		}
	}
	return nil
}

// Poll refreshes immediately and then every interval until ctx is done.
// Failed refreshes are logged and kept in Err; polling continues.
func (s *Store) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("catalog refresh failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// StartPolling runs Poll in the background. The returned stop function
// cancels polling and waits for it to exit; it is safe to call more than once.
func (s *Store) StartPolling(ctx context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.Poll(ctx, interval)
	}()

	return func() {
		cancel()
		<-done
	}
}

func categoriesOf(products []model.Product) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	return categories
}
