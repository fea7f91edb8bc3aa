package catalog

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrFetch is matched by every failed catalog load.
	ErrFetch = errors.New("catalog fetch failed")
	// ErrDuplicateField is matched when a barcode or description is already taken.
	ErrDuplicateField = errors.New("duplicate field")
)

// FetchError wraps the cause of a failed Refresh.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching catalog: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// Fields checked for uniqueness.
const (
	FieldBarcode     = "barcode"
	FieldDescription = "description"
)

// DuplicateFieldError reports which field collided and with which product.
type DuplicateFieldError struct {
	Field     string
	Value     string
	ProductID int64
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("a product with %s %q already exists", e.Field, e.Value)
}

func (e *DuplicateFieldError) Is(target error) bool { return target == ErrDuplicateField }
