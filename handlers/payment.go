package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/auth"
	"storefront-service/internal/orders"
	"storefront-service/internal/pricing"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

const paymentCurrency = "INR"

type createPaymentOrderRequest struct {
	ProductID int64  `json:"product_id" validate:"required,min=1"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// CreatePaymentOrder opens a gateway payment session for a single product.
// The local order is written first, in pending_payment, so a gateway failure
// leaves a record the sweeper can reason about; the gateway order handle is
// stored back on the row for reconciliation.
func (h *Handler) CreatePaymentOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req createPaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !validateRequest(c, traceId, req) {
		return
	}

	product, err := h.p.GetProductByID(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId),
				slog.Int64("ProductID", req.ProductID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		slog.Error("error fetching product", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment order"})
		return
	}

	items := []orders.LineItem{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    req.Quantity,
		Size:        req.Size,
		Color:       req.Color,
		Price:       product.Price,
	}}
	quote := pricing.NewQuote(orders.Subtotal(items))
	amountPaise := pricing.ToPaise(quote.Total)

	orderID, err := h.o.CreateOrder(c.Request.Context(), orders.NewOrder{
		UserID:          claims.Subject,
		TotalAmount:     quote.Total,
		Status:          orders.StatusPendingPayment,
		ShippingAddress: orders.PendingContactPlaceholder,
		Phone:           orders.PendingContactPlaceholder,
		Items:           items,
	})
	if err != nil {
		slog.Error("error inserting pending order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment order"})
		return
	}

	gwOrder, err := h.g.CreateOrder(c.Request.Context(), amountPaise, paymentCurrency,
		"order_"+strconv.FormatInt(orderID, 10),
		map[string]interface{}{
			"order_id":   strconv.FormatInt(orderID, 10),
			"user_id":    claims.Subject,
			"product_id": strconv.FormatInt(product.ID, 10),
		})
	if err != nil {
		// The pending order stays behind without a gateway handle; it is
		// inert and visible in the logs.
		slog.Error("error creating gateway order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.OrderID, orderID))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment order"})
		return
	}

	if err := h.o.SetRazorpayOrderID(c.Request.Context(), orderID, gwOrder.ID); err != nil {
		slog.Error("error storing gateway order id", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.OrderID, orderID))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment order"})
		return
	}

	slog.Info("payment order created", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.OrderID, orderID), slog.String("RazorpayOrderID", gwOrder.ID))

	c.JSON(http.StatusOK, gin.H{
		"razorpay_order_id": gwOrder.ID,
		"razorpay_key_id":   h.g.KeyID(),
		"amount":            amountPaise,
		"currency":          paymentCurrency,
		"order_id":          orderID,
		"product_name":      product.Name,
	})
}

type verifyPaymentRequest struct {
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
	OrderID           int64  `json:"order_id" validate:"required,min=1"`
}

// VerifyPayment finalizes a gateway payment. The callback signature is
// recomputed and compared first; on mismatch the order is left untouched.
// Even with a valid signature the live payment is re-fetched from the gateway
// and must be captured before the order advances. Replays are safe: the
// unique payment id makes the transaction insert a no-op the second time.
func (h *Handler) VerifyPayment(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !validateRequest(c, traceId, req) {
		return
	}

	if !h.g.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		slog.Error("payment signature mismatch", slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.OrderID, req.OrderID), slog.String(logkey.UserID, claims.Subject))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid payment signature"})
		return
	}

	payment, err := h.g.FetchPayment(c.Request.Context(), req.RazorpayPaymentID)
	if err != nil {
		slog.Error("error fetching payment from gateway", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Payment verification failed"})
		return
	}
	if !payment.Captured() {
		slog.Error("payment not captured", slog.String(logkey.TraceID, traceId),
			slog.String("PaymentID", payment.ID), slog.String("PaymentStatus", payment.Status))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Payment not successful"})
		return
	}
	// A captured payment only completes the order it was made against; a
	// valid signature over some other pair must not advance this order.
	if payment.OrderID != req.RazorpayOrderID {
		slog.Error("payment belongs to a different gateway order", slog.String(logkey.TraceID, traceId),
			slog.String("PaymentID", payment.ID), slog.String("PaymentOrderID", payment.OrderID),
			slog.String("RazorpayOrderID", req.RazorpayOrderID))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Payment does not match order"})
		return
	}

	items, inserted, err := h.o.CompletePayment(c.Request.Context(), req.OrderID, claims.Subject, orders.Transaction{
		OrderID:           req.OrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		RazorpayOrderID:   req.RazorpayOrderID,
		Amount:            pricing.FromPaise(payment.Amount),
		Status:            payment.Status,
		PaymentMethod:     payment.Method,
	})
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			slog.Error("order not found for user", slog.String(logkey.TraceID, traceId),
				slog.Int64(logkey.OrderID, req.OrderID), slog.String(logkey.UserID, claims.Subject))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error completing order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.OrderID, req.OrderID))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Payment verification failed"})
		return
	}

	if inserted {
		go h.k.PublishOrderPaid(req.OrderID, items)
	}

	slog.Info("payment verified", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.OrderID, req.OrderID), slog.String("PaymentID", req.RazorpayPaymentID))

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"order_id":   req.OrderID,
		"payment_id": req.RazorpayPaymentID,
		"status":     orders.StatusCompleted,
	})
}
