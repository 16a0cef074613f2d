package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Razorpay is the production PaymentGateway backed by the Razorpay SDK.
type Razorpay struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{
		client:    razorpay.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
	}
}

func (r *Razorpay) KeyID() string {
	return r.keyID
}

// CreateOrder opens a Razorpay order. The SDK is not context-aware; ctx is
// accepted for interface symmetry.
func (r *Razorpay) CreateOrder(_ context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (Order, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}
	body, err := r.client.Order.Create(data, nil)
	if err != nil {
		return Order{}, fmt.Errorf("razorpay order create: %w", err)
	}
	id, _ := body["id"].(string)
	if id == "" {
		return Order{}, fmt.Errorf("razorpay order create: response has no order id")
	}
	return Order{ID: id, Amount: amount, Currency: currency}, nil
}

func (r *Razorpay) FetchPayment(_ context.Context, paymentID string) (Payment, error) {
	body, err := r.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return Payment{}, fmt.Errorf("razorpay payment fetch: %w", err)
	}
	p := paymentFromBody(body)
	if p.ID == "" {
		return Payment{}, fmt.Errorf("razorpay payment fetch: response has no payment id")
	}
	return p, nil
}

func (r *Razorpay) OrderPayments(_ context.Context, orderID string) ([]Payment, error) {
	body, err := r.client.Order.Payments(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order payments: %w", err)
	}
	rawItems, _ := body["items"].([]interface{})
	payments := make([]Payment, 0, len(rawItems))
	for _, raw := range rawItems {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		payments = append(payments, paymentFromBody(item))
	}
	return payments, nil
}

// VerifySignature recomputes the hex HMAC-SHA256 over "orderID|paymentID"
// with the key secret and compares it to the supplied signature in constant
// time.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	expected := Signature(orderID, paymentID, r.keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Signature computes the callback signature Razorpay sends for a successful
// payment: hex(HMAC-SHA256(secret, "{order_id}|{payment_id}")).
func Signature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func paymentFromBody(body map[string]interface{}) Payment {
	var p Payment
	p.ID, _ = body["id"].(string)
	p.OrderID, _ = body["order_id"].(string)
	p.Status, _ = body["status"].(string)
	p.Method, _ = body["method"].(string)
	if amount, ok := body["amount"].(float64); ok {
		p.Amount = int64(amount)
	}
	return p
}
