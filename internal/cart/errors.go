package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidQuantity is matched by every *QuantityError.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrOperationFailed is matched when the API rejects an add, update or remove.
	ErrOperationFailed = errors.New("cart operation failed")
	// ErrCheckoutFailed is matched when the API rejects a checkout.
	ErrCheckoutFailed = errors.New("checkout failed")
	// ErrFetch is matched when the cart could not be loaded.
	ErrFetch = errors.New("cart fetch failed")

	ErrLineNotFound    = errors.New("cart line not found")
	ErrUnknownProduct  = errors.New("unknown product")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrCheckoutDetails = errors.New("shipping details and a valid payment method are required")
)

// QuantityError is a quantity outside [Min, Max]. It is raised before any
// request is sent.
type QuantityError struct {
	Quantity int
	Min      int
	Max      int
}

func (e *QuantityError) Error() string {
	if e.Max < e.Min {
		return "out of stock"
	}
	return fmt.Sprintf("quantity must be between %d and %d", e.Min, e.Max)
}

func (e *QuantityError) Is(target error) bool { return target == ErrInvalidQuantity }

// OperationError is a failed request against the cart API. It matches Kind
// and unwraps to the transport error.
type OperationError struct {
	Op     string
	LineID int64
	Kind   error
	Err    error
}

func (e *OperationError) Error() string {
	if e.LineID != 0 {
		return fmt.Sprintf("%s cart line %d: %v", e.Op, e.LineID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

func (e *OperationError) Is(target error) bool { return target == e.Kind }

// ValidateQuantity accepts 1 <= q <= stock.
func ValidateQuantity(q, stock int) error {
	if q < 1 || q > stock {
		return &QuantityError{Quantity: q, Min: 1, Max: stock}
	}
	return nil
}
