package types

import "github.com/shopspring/decimal"

// OrderStatus values are owned entirely by the upstream platform; the client
// only observes them.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
)

// PaymentMethod is the checkout payment selection.
type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOnline       PaymentMethod = "online"
)

// Valid reports whether the payment method is one the storefront offers.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentMethodCOD, PaymentMethodBankTransfer, PaymentMethodOnline:
		return true
	}
	return false
}

// OrderLineItem mirrors one purchased line as reported upstream.
type OrderLineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// Order is created by the upstream platform in response to a placement call.
// The client never invents order identifiers.
type Order struct {
	ID                 int64           `json:"id"`
	Status             OrderStatus     `json:"status"`
	LineItems          []OrderLineItem `json:"line_items"`
	Total              decimal.Decimal `json:"total"`
	Currency           string          `json:"currency"`
	PaymentMethodTitle string          `json:"payment_method_title"`
}
