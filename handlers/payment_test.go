package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/gateway"
	"storefront-service/internal/orders"
	"storefront-service/internal/pricing"
)

// stubGateway verifies against a fixed secret and serves canned payments.
// It records fetches so tests can assert the gateway was never consulted
// after a signature mismatch.
type stubGateway struct {
	secret       string
	payments     map[string]gateway.Payment
	fetchedIDs   []string
	createdOrder gateway.Order
}

func (g *stubGateway) KeyID() string { return "rzp_test_stub" }

func (g *stubGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (gateway.Order, error) {
	return g.createdOrder, nil
}

func (g *stubGateway) FetchPayment(ctx context.Context, paymentID string) (gateway.Payment, error) {
	g.fetchedIDs = append(g.fetchedIDs, paymentID)
	return g.payments[paymentID], nil
}

func (g *stubGateway) OrderPayments(ctx context.Context, orderID string) ([]gateway.Payment, error) {
	return nil, nil
}

func (g *stubGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == gateway.Signature(orderID, paymentID, g.secret)
}

func authedJSONContext(t *testing.T, method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		Roles:            []string{auth.RoleUser},
	}
	req = req.WithContext(context.WithValue(req.Context(), auth.ClaimsKey, claims))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestVerifyPaymentRejectsTamperedSignature(t *testing.T) {
	gw := &stubGateway{secret: "secret"}
	h := NewHandler(catalog.Conf{}, cart.Conf{}, nil, gw, nil)

	// Signature over a different payment id than the one claimed.
	sig := gateway.Signature("order_a", "pay_other", "secret")
	c, w := authedJSONContext(t, http.MethodPost, "/payment/verify", gin.H{
		"razorpay_payment_id": "pay_real",
		"razorpay_order_id":   "order_a",
		"razorpay_signature":  sig,
		"order_id":            5,
	})

	h.VerifyPayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid payment signature")
	// The gateway must not be consulted and the order store never touched.
	assert.Empty(t, gw.fetchedIDs)
}

func TestVerifyPaymentRejectsUncapturedPayment(t *testing.T) {
	gw := &stubGateway{
		secret: "secret",
		payments: map[string]gateway.Payment{
			"pay_1": {ID: "pay_1", OrderID: "order_a", Amount: 100, Status: "authorized"},
		},
	}
	h := NewHandler(catalog.Conf{}, cart.Conf{}, nil, gw, nil)

	sig := gateway.Signature("order_a", "pay_1", "secret")
	c, w := authedJSONContext(t, http.MethodPost, "/payment/verify", gin.H{
		"razorpay_payment_id": "pay_1",
		"razorpay_order_id":   "order_a",
		"razorpay_signature":  sig,
		"order_id":            5,
	})

	h.VerifyPayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Payment not successful")
	assert.Equal(t, []string{"pay_1"}, gw.fetchedIDs)
}

func TestVerifyPaymentRejectsMissingFields(t *testing.T) {
	h := NewHandler(catalog.Conf{}, cart.Conf{}, nil, &stubGateway{secret: "secret"}, nil)

	c, w := authedJSONContext(t, http.MethodPost, "/payment/verify", gin.H{
		"razorpay_payment_id": "pay_1",
		"order_id":            5,
	})

	h.VerifyPayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyPaymentRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(catalog.Conf{}, cart.Conf{}, nil, &stubGateway{secret: "secret"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/payment/verify", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.VerifyPayment(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// stubOrderStore mirrors the store's completion semantics: at most one
// transaction per gateway payment id, and a completion scoped to the gateway
// order the local order was opened against.
type stubOrderStore struct {
	cartLines    []orders.LineItem
	cartCleared  bool
	checkoutID   int64
	gatewayIDs   map[int64]string
	transactions []orders.Transaction
}

func (s *stubOrderStore) CreateOrder(ctx context.Context, no orders.NewOrder) (int64, error) {
	return 1, nil
}

func (s *stubOrderStore) SetRazorpayOrderID(ctx context.Context, orderID int64, razorpayOrderID string) error {
	if s.gatewayIDs == nil {
		s.gatewayIDs = map[int64]string{}
	}
	s.gatewayIDs[orderID] = razorpayOrderID
	return nil
}

func (s *stubOrderStore) CheckoutCart(ctx context.Context, userID, shippingAddress, billingAddress, phone string) (int64, decimal.Decimal, error) {
	if len(s.cartLines) == 0 {
		return 0, decimal.Zero, orders.ErrEmptyCart
	}
	quote := pricing.NewQuote(orders.Subtotal(s.cartLines))
	s.cartLines = nil
	s.cartCleared = true
	return s.checkoutID, quote.Total, nil
}

func (s *stubOrderStore) CompletePayment(ctx context.Context, orderID int64, userID string, t orders.Transaction) ([]orders.LineItem, bool, error) {
	if gwID, ok := s.gatewayIDs[orderID]; ok && gwID != t.RazorpayOrderID {
		return nil, false, orders.ErrOrderNotFound
	}
	items := []orders.LineItem{{ProductID: 3, ProductName: "Runner", Quantity: 1, Price: decimal.NewFromInt(2199)}}
	for _, prev := range s.transactions {
		if prev.RazorpayPaymentID == t.RazorpayPaymentID {
			return items, false, nil
		}
	}
	s.transactions = append(s.transactions, t)
	return items, true, nil
}

func (s *stubOrderStore) ListOrders(ctx context.Context, userID string) ([]orders.Order, error) {
	return nil, nil
}

// stubPublisher counts publications behind a mutex; the handler publishes
// from a goroutine.
type stubPublisher struct {
	mu        sync.Mutex
	published []int64
}

func (p *stubPublisher) PublishOrderPaid(orderID int64, items []orders.LineItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, orderID)
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func TestVerifyPaymentReplayRecordsOneTransaction(t *testing.T) {
	gw := &stubGateway{
		secret: "secret",
		payments: map[string]gateway.Payment{
			"pay_1": {ID: "pay_1", OrderID: "order_a", Amount: 219900, Status: gateway.StatusCaptured, Method: "upi"},
		},
	}
	store := &stubOrderStore{gatewayIDs: map[int64]string{5: "order_a"}}
	pub := &stubPublisher{}
	h := NewHandler(catalog.Conf{}, cart.Conf{}, store, gw, pub)

	sig := gateway.Signature("order_a", "pay_1", "secret")
	body := gin.H{
		"razorpay_payment_id": "pay_1",
		"razorpay_order_id":   "order_a",
		"razorpay_signature":  sig,
		"order_id":            5,
	}

	c, w := authedJSONContext(t, http.MethodPost, "/payment/verify", body)
	h.VerifyPayment(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 10*time.Millisecond)

	// Same payload again: still a success, but no second transaction and no
	// second event.
	c2, w2 := authedJSONContext(t, http.MethodPost, "/payment/verify", body)
	h.VerifyPayment(c2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), orders.StatusCompleted)
	require.Len(t, store.transactions, 1)
	assert.Equal(t, "pay_1", store.transactions[0].RazorpayPaymentID)
	assert.Equal(t, 1, pub.count())
}

func TestVerifyPaymentRejectsPaymentFromOtherOrder(t *testing.T) {
	// The captured payment was made against order_b; the caller presents it
	// with order_a's pair to complete a different local order.
	gw := &stubGateway{
		secret: "secret",
		payments: map[string]gateway.Payment{
			"pay_1": {ID: "pay_1", OrderID: "order_b", Amount: 219900, Status: gateway.StatusCaptured, Method: "upi"},
		},
	}
	store := &stubOrderStore{gatewayIDs: map[int64]string{5: "order_a"}}
	h := NewHandler(catalog.Conf{}, cart.Conf{}, store, gw, &stubPublisher{})

	sig := gateway.Signature("order_a", "pay_1", "secret")
	c, w := authedJSONContext(t, http.MethodPost, "/payment/verify", gin.H{
		"razorpay_payment_id": "pay_1",
		"razorpay_order_id":   "order_a",
		"razorpay_signature":  sig,
		"order_id":            5,
	})

	h.VerifyPayment(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Payment does not match order")
	assert.Empty(t, store.transactions)
}
