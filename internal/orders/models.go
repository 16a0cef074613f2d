package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order status values. There is no failed or cancelled state: an order whose
// payment never completes stays pending_payment until the sweeper reconciles
// it against the gateway.
const (
	StatusPendingPayment = "pending_payment"
	StatusCompleted      = "completed"
)

// Contact placeholder written on gateway-path orders before a real address is
// collected.
const PendingContactPlaceholder = "Pending - to be updated after payment"

var (
	// ErrEmptyCart is returned when checkout finds no cart rows for the user.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderNotFound is returned when an order id does not exist for the
	// given user. A guessed id belonging to someone else looks identical to a
	// missing one.
	ErrOrderNotFound = errors.New("order not found")
)

// LineItem is one entry of an order's immutable snapshot. Price is the unit
// price read from the catalog at order-creation time; later catalog changes
// never alter it.
type LineItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// Validate rejects snapshot entries that could not have been produced by an
// order-creation path.
func (li LineItem) Validate() error {
	if li.ProductID <= 0 {
		return fmt.Errorf("line item has invalid product id %d", li.ProductID)
	}
	if li.Quantity < 1 {
		return fmt.Errorf("line item for product %d has quantity %d", li.ProductID, li.Quantity)
	}
	if li.Price.IsNegative() {
		return fmt.Errorf("line item for product %d has negative price", li.ProductID)
	}
	return nil
}

// Subtotal sums price x quantity over snapshot lines.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return total
}

// Order is a placed purchase with its embedded line-item snapshot.
type Order struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	BillingAddress  string          `json:"billing_address,omitempty"`
	Phone           string          `json:"phone"`
	Items           []LineItem      `json:"order_items"`
	RazorpayOrderID string          `json:"razorpay_order_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewOrder carries everything needed to insert an order row.
type NewOrder struct {
	UserID          string
	TotalAmount     decimal.Decimal
	Status          string
	ShippingAddress string
	BillingAddress  string
	Phone           string
	Items           []LineItem
}

// Transaction is the append-only reconciliation record written once per
// verified payment.
type Transaction struct {
	ID                int64           `json:"id"`
	OrderID           int64           `json:"order_id"`
	RazorpayPaymentID string          `json:"razorpay_payment_id"`
	RazorpayOrderID   string          `json:"razorpay_order_id"`
	Amount            decimal.Decimal `json:"amount"`
	Status            string          `json:"status"`
	PaymentMethod     string          `json:"payment_method"`
	CreatedAt         time.Time       `json:"created_at"`
}

// PendingOrder is the slice of an order the reconciliation sweep needs.
type PendingOrder struct {
	ID              int64
	UserID          string
	RazorpayOrderID string
	Items           []LineItem
	CreatedAt       time.Time
}
