package model

// CartLine is one product-quantity pairing in the cart. Product is the
// snapshot returned by the API, not live stock.
type CartLine struct {
	ID       int64   `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CheckoutItem is a cart line reduced to what the checkout endpoint needs.
type CheckoutItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CheckoutRequest is the body of POST /api/checkout.
type CheckoutRequest struct {
	ShippingDetails string         `json:"shipping_details"`
	PaymentMethod   string         `json:"payment_method"`
	TotalAmount     string         `json:"total_amount"`
	CartItems       []CheckoutItem `json:"cartItems"`
}

// CheckoutConfirmation is the body returned by a successful checkout.
type CheckoutConfirmation struct {
	OrderID int64  `json:"order_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Payment methods.
const (
	PaymentCashOnDelivery = "cash_on_delivery"
	PaymentCreditCard     = "credit_card"
	PaymentPayPal         = "paypal"
	PaymentGCash          = "gcash"
)

// PaymentMethods lists the accepted payment methods in display order.
var PaymentMethods = []string{
	PaymentCashOnDelivery,
	PaymentCreditCard,
	PaymentPayPal,
	PaymentGCash,
}

// ValidPaymentMethod reports whether m is one of PaymentMethods.
func ValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}
