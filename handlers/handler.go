package handlers

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/gateway"
	"storefront-service/internal/orders"
	"storefront-service/middleware"
)

// OrderStore is the slice of the order store the handlers need.
type OrderStore interface {
	CreateOrder(ctx context.Context, no orders.NewOrder) (int64, error)
	SetRazorpayOrderID(ctx context.Context, orderID int64, razorpayOrderID string) error
	CheckoutCart(ctx context.Context, userID, shippingAddress, billingAddress, phone string) (int64, decimal.Decimal, error)
	CompletePayment(ctx context.Context, orderID int64, userID string, t orders.Transaction) ([]orders.LineItem, bool, error)
	ListOrders(ctx context.Context, userID string) ([]orders.Order, error)
}

// Publisher emits order-paid events after a verified payment.
type Publisher interface {
	PublishOrderPaid(orderID int64, items []orders.LineItem)
}

type Handler struct {
	p  catalog.Conf
	ct cart.Conf
	o  OrderStore
	g  gateway.PaymentGateway
	k  Publisher
}

func NewHandler(p catalog.Conf, ct cart.Conf, o OrderStore, g gateway.PaymentGateway, k Publisher) *Handler {
	return &Handler{
		p:  p,
		ct: ct,
		o:  o,
		g:  g,
		k:  k,
	}
}

func API(endpointPrefix string, keys *auth.Keys, p catalog.Conf, ct cart.Conf, o OrderStore,
	g gateway.PaymentGateway, pub Publisher) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	m, err := middleware.NewMid(keys)
	if err != nil {
		panic(err)
	}

	h := NewHandler(p, ct, o, g, pub)
	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/ping", HealthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/featured", h.FeaturedProducts)
		v1.GET("/products/:id", h.GetProduct)
	}

	authed := r.Group(endpointPrefix)
	{
		authed.Use(m.Authentication())
		authed.GET("/cart", m.Authorize(h.CartItems, auth.RoleUser))
		authed.POST("/cart", m.Authorize(h.AddToCart, auth.RoleUser))
		authed.DELETE("/cart/:id", m.Authorize(h.RemoveCartItem, auth.RoleUser))

		authed.POST("/orders", m.Authorize(h.Checkout, auth.RoleUser))
		authed.GET("/orders", m.Authorize(h.ListOrders, auth.RoleUser))

		authed.POST("/payment/create-order", m.Authorize(h.CreatePaymentOrder, auth.RoleUser))
		authed.POST("/payment/verify", m.Authorize(h.VerifyPayment, auth.RoleUser))

		authed.POST("/buy-now/checkout", m.Authorize(h.BuyNowCheckout, auth.RoleUser))
	}

	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
