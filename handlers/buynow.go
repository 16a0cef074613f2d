package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/auth"
	"storefront-service/internal/orders"
	"storefront-service/internal/pricing"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type buyNowCheckoutRequest struct {
	ProductID       int64  `json:"product_id" validate:"required,min=1"`
	Quantity        int    `json:"quantity" validate:"required,min=1"`
	Size            string `json:"size"`
	Color           string `json:"color"`
	ShippingAddress string `json:"shipping_address" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
}

// BuyNowCheckout places a single-product order with no gateway involvement:
// a cash-on-delivery flow. The total is priced from the catalog through the
// same quote function as every other path.
func (h *Handler) BuyNowCheckout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req buyNowCheckoutRequest
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
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process purchase"})
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

	orderID, err := h.o.CreateOrder(c.Request.Context(), orders.NewOrder{
		UserID:          claims.Subject,
		TotalAmount:     quote.Total,
		Status:          orders.StatusCompleted,
		ShippingAddress: req.ShippingAddress,
		Phone:           req.Phone,
		Items:           items,
	})
	if err != nil {
		slog.Error("error creating buy-now order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process purchase"})
		return
	}

	slog.Info("buy-now order created", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.OrderID, orderID), slog.String(logkey.UserID, claims.Subject))

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"order_id":       orderID,
		"total":          quote.Total,
		"payment_method": "cod",
	})
}
