package web

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/erazemk/trgovina/internal/apiclient"
	"github.com/erazemk/trgovina/internal/auth"
	"github.com/erazemk/trgovina/internal/cart"
	"github.com/erazemk/trgovina/internal/catalog"
	"github.com/erazemk/trgovina/internal/model"
)

// userMessage turns an error into the inline message shown next to the
// control that caused it.
func userMessage(err error) string {
	var (
		qe  *cart.QuantityError
		dup *catalog.DuplicateFieldError
		pe  *model.PasswordError
	)
	switch {
	case errors.As(err, &qe):
		if qe.Max < qe.Min {
			return "This product is out of stock."
		}
		return fmt.Sprintf("Quantity must be between %d and %d.", qe.Min, qe.Max)
	case errors.As(err, &dup):
		return fmt.Sprintf("A product with this %s already exists.", dup.Field)
	case errors.Is(err, cart.ErrCheckoutDetails):
		return "Enter shipping details and choose a payment method."
	case errors.Is(err, cart.ErrEmptyCart):
		return "Your cart is empty."
	case errors.Is(err, cart.ErrLineNotFound):
		return "That item is no longer in your cart."
	case errors.Is(err, cart.ErrUnknownProduct):
		return "That product is no longer available."
	case errors.Is(err, cart.ErrCheckoutFailed):
		return "Checkout failed" + apiDetail(err)
	case errors.Is(err, cart.ErrOperationFailed):
		return "Could not update your cart" + apiDetail(err)
	case errors.Is(err, cart.ErrFetch):
		return "Could not load your cart" + apiDetail(err)
	case errors.Is(err, catalog.ErrFetch):
		return "Could not load products, showing the last known list" + apiDetail(err)
	case errors.As(err, &pe):
		return capitalize(pe.Error()) + "."
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUserExists),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrNameRequired),
		errors.Is(err, auth.ErrPasswordMismatch):
		return capitalize(err.Error()) + "."
	}

	var se *apiclient.StatusError
	if errors.As(err, &se) {
		return "The store service rejected the request" + apiDetail(err)
	}
	return "Something went wrong, please try again."
}

// apiDetail is ": <server message>." when the API explained itself, else ".".
func apiDetail(err error) string {
	var se *apiclient.StatusError
	if errors.As(err, &se) && se.Message != "" {
		return ": " + se.Message + "."
	}
	return "."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
