// Package mockapi serves the remote product, cart and checkout API from
// memory. It backs local development and the client-side tests.
package mockapi

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/erazemk/trgovina/internal/model"
)

// Store errors, mapped to HTTP statuses by the handlers.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid request")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Store is a mutex-guarded in-memory catalog, cart and order book.
type Store struct {
	mu            sync.Mutex
	products      []model.Product
	cart          []model.CartLine
	orders        []Order
	nextProductID int64
	nextLineID    int64
	nextOrderID   int64
}

// Order is a completed checkout.
type Order struct {
	ID              int64                `json:"id"`
	ShippingDetails string               `json:"shipping_details"`
	PaymentMethod   string               `json:"payment_method"`
	TotalAmount     string               `json:"total_amount"`
	Items           []model.CheckoutItem `json:"items"`
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{nextProductID: 1, nextLineID: 1, nextOrderID: 1}
}

// Seed adds products, assigning IDs to those without one.
func (s *Store) Seed(products ...model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		if p.ID == 0 {
			p.ID = s.nextProductID
		}
		if p.ID >= s.nextProductID {
			s.nextProductID = p.ID + 1
		}
		s.products = append(s.products, p)
	}
}

// ListProducts returns all products in creation order.
func (s *Store) ListProducts() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products)
}

// GetProduct returns a product by ID.
func (s *Store) GetProduct(id int64) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.productIndex(id)
	if i < 0 {
		return model.Product{}, ErrNotFound
	}
	return s.products[i], nil
}

// CreateProduct adds a product.
func (s *Store) CreateProduct(in model.ProductInput) (model.Product, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Product{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := productFromInput(s.nextProductID, in)
	s.nextProductID++
	s.products = append(s.products, p)
	return p, nil
}

// UpdateProduct replaces a product's fields.
func (s *Store) UpdateProduct(id int64, in model.ProductInput) (model.Product, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Product{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.productIndex(id)
	if i < 0 {
		return model.Product{}, ErrNotFound
	}
	s.products[i] = productFromInput(id, in)
	return s.products[i], nil
}

// DeleteProduct removes a product and any cart lines referencing it.
func (s *Store) DeleteProduct(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.productIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	s.products = slices.Delete(s.products, i, i+1)
	s.cart = slices.DeleteFunc(s.cart, func(l model.CartLine) bool { return l.Product.ID == id })
	return nil
}

// ListCart returns the cart with current product snapshots.
func (s *Store) ListCart() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]model.CartLine, 0, len(s.cart))
	for _, l := range s.cart {
		if i := s.productIndex(l.Product.ID); i >= 0 {
			l.Product = s.products[i]
		}
		lines = append(lines, l)
	}
	return lines
}

// AddToCart adds quantity units of a product. A product already in the cart
// has its line quantity increased instead of getting a second line.
func (s *Store) AddToCart(productID int64, quantity int) (model.CartLine, error) {
	if quantity < 1 {
		return model.CartLine{}, fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pi := s.productIndex(productID)
	if pi < 0 {
		return model.CartLine{}, ErrNotFound
	}
	p := s.products[pi]

	for i, l := range s.cart {
		if l.Product.ID != productID {
			continue
		}
		if l.Quantity+quantity > p.Quantity {
			return model.CartLine{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, p.Quantity, l.Quantity+quantity)
		}
		s.cart[i].Quantity += quantity
		s.cart[i].Product = p
		return s.cart[i], nil
	}

	if quantity > p.Quantity {
		return model.CartLine{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, p.Quantity, quantity)
	}
	line := model.CartLine{ID: s.nextLineID, Product: p, Quantity: quantity}
	s.nextLineID++
	s.cart = append(s.cart, line)
	return line, nil
}

// UpdateCartLine sets a line's quantity.
func (s *Store) UpdateCartLine(id int64, quantity int) (model.CartLine, error) {
	if quantity < 1 {
		return model.CartLine{}, fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	li := s.lineIndex(id)
	if li < 0 {
		return model.CartLine{}, ErrNotFound
	}
	pi := s.productIndex(s.cart[li].Product.ID)
	if pi < 0 {
		return model.CartLine{}, ErrNotFound
	}
	if quantity > s.products[pi].Quantity {
		return model.CartLine{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, s.products[pi].Quantity, quantity)
	}

	s.cart[li].Quantity = quantity
	s.cart[li].Product = s.products[pi]
	return s.cart[li], nil
}

// RemoveCartLine deletes a line.
func (s *Store) RemoveCartLine(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	li := s.lineIndex(id)
	if li < 0 {
		return ErrNotFound
	}
	s.cart = slices.Delete(s.cart, li, li+1)
	return nil
}

// Checkout verifies stock for every item, decrements it, clears the cart and
// records the order. Nothing changes if any item fails.
func (s *Store) Checkout(req model.CheckoutRequest) (Order, error) {
	if req.ShippingDetails == "" || req.PaymentMethod == "" {
		return Order{}, fmt.Errorf("%w: shipping details and payment method required", ErrInvalid)
	}
	if len(req.CartItems) == 0 {
		return Order{}, fmt.Errorf("%w: no items", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	need := make(map[int64]int)
	for _, item := range req.CartItems {
		if item.Quantity < 1 {
			return Order{}, fmt.Errorf("%w: quantity must be positive", ErrInvalid)
		}
		need[item.ProductID] += item.Quantity
	}
	for id, qty := range need {
		pi := s.productIndex(id)
		if pi < 0 {
			return Order{}, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		if s.products[pi].Quantity < qty {
			return Order{}, fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientStock, s.products[pi].Description, s.products[pi].Quantity, qty)
		}
	}
	for id, qty := range need {
		s.products[s.productIndex(id)].Quantity -= qty
	}

	order := Order{
		ID:              s.nextOrderID,
		ShippingDetails: req.ShippingDetails,
		PaymentMethod:   req.PaymentMethod,
		TotalAmount:     req.TotalAmount,
		Items:           slices.Clone(req.CartItems),
	}
	s.nextOrderID++
	s.orders = append(s.orders, order)
	s.cart = nil
	return order, nil
}

// Orders returns completed checkouts.
func (s *Store) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

func (s *Store) productIndex(id int64) int {
	return slices.IndexFunc(s.products, func(p model.Product) bool { return p.ID == id })
}

func (s *Store) lineIndex(id int64) int {
	return slices.IndexFunc(s.cart, func(l model.CartLine) bool { return l.ID == id })
}

func productFromInput(id int64, in model.ProductInput) model.Product {
	return model.Product{
		ID:          id,
		Barcode:     in.Barcode,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Category:    in.Category,
	}
}
