package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront-service/internal/auth"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

// CartItems lists the user's cart joined with live product name, price and
// image. The joined price is for display; order creation re-reads the catalog.
func (h *Handler) CartItems(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	lines, err := h.ct.Items(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching cart items", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, claims.Subject))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart items"})
		return
	}

	c.JSON(http.StatusOK, lines)
}

type addToCartRequest struct {
	ProductID int64  `json:"product_id" validate:"required,min=1"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// AddToCart upserts a cart row for (product, size, color): an existing row's
// quantity is incremented, otherwise a new row is inserted. The product is
// not checked for existence or stock; this is a soft cart, not a reservation.
func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !validateRequest(c, traceId, req) {
		return
	}

	err := h.ct.Upsert(c.Request.Context(), claims.Subject, req.ProductID, req.Quantity, req.Size, req.Color)
	if err != nil {
		slog.Error("error adding product to cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64("ProductID", req.ProductID),
			slog.Int("Quantity", req.Quantity))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to add product to cart"})
		return
	}

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.Int64("ProductID", req.ProductID), slog.Int("Quantity", req.Quantity),
		slog.String(logkey.UserID, claims.Subject))

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemoveCartItem deletes one cart row. The delete is scoped to the user, so a
// guessed item id belonging to someone else removes nothing; removing an
// absent id is a success.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		slog.Error("invalid cart item id", slog.String(logkey.TraceID, traceId),
			slog.String("ItemID", c.Param("id")))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid cart item id"})
		return
	}

	if err := h.ct.Remove(c.Request.Context(), claims.Subject, itemID); err != nil {
		slog.Error("error removing cart item", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64("ItemID", itemID))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove cart item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// validateRequest runs struct validation and writes a 400 with a field-level
// message on failure. Returns false when the request was rejected.
func validateRequest(c *gin.Context, traceId string, req any) bool {
	validate := validator.New()
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, vErr := range vErrs {
			switch vErr.Tag() {
			case "required":
				slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
					slog.String(logkey.ERROR, err.Error()))
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " value missing"})
				return false
			case "min":
				slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
					slog.String(logkey.ERROR, err.Error()))
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " value is less than " + vErr.Param()})
				return false
			}
		}
	}

	slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.ERROR, err.Error()))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
	return false
}
