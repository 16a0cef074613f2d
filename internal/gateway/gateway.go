// Package gateway wraps the Razorpay payment gateway behind a small interface
// so handlers and the reconciliation sweep can be exercised against a stub.
package gateway

import (
	"context"
)

// StatusCaptured is the gateway's terminal success state for a payment. An
// order is only ever marked completed after the gateway itself reports this
// state; the signed callback alone is never trusted for it.
const StatusCaptured = "captured"

// Order is a gateway-side order handle.
type Order struct {
	ID       string
	Amount   int64 // minor currency units
	Currency string
}

// Payment is the gateway's view of a payment.
type Payment struct {
	ID      string
	OrderID string
	Amount  int64 // minor currency units
	Status  string
	Method  string
}

// Captured reports whether the gateway considers the money collected.
func (p Payment) Captured() bool {
	return p.Status == StatusCaptured
}

// PaymentGateway is the surface this service consumes from the payment
// collaborator.
type PaymentGateway interface {
	// KeyID returns the public key identifier the client-side widget needs.
	KeyID() string
	// CreateOrder opens a gateway-side order for the given minor-unit amount.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (Order, error)
	// FetchPayment reads the live payment record by its gateway id.
	FetchPayment(ctx context.Context, paymentID string) (Payment, error)
	// OrderPayments lists the payments made against a gateway order.
	OrderPayments(ctx context.Context, orderID string) ([]Payment, error)
	// VerifySignature checks the callback signature over orderID|paymentID.
	VerifySignature(orderID, paymentID, signature string) bool
}
