// Package sweeper reconciles orders stuck in pending_payment. A pending order
// exists whenever the gateway hand-off was created but the signed callback
// never arrived (browser closed, network drop, crashed request). The sweep
// asks the gateway what actually happened and completes the order when money
// was captured.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"storefront-service/internal/gateway"
	"storefront-service/internal/orders"
	"storefront-service/internal/pricing"
	"storefront-service/pkg/logkey"
)

// Store is the slice of the order store the sweep needs.
type Store interface {
	StuckPending(ctx context.Context, minAge time.Duration) ([]orders.PendingOrder, error)
	CompletePayment(ctx context.Context, orderID int64, userID string, t orders.Transaction) ([]orders.LineItem, bool, error)
}

// Publisher emits order-paid events after a completed reconciliation.
type Publisher interface {
	PublishOrderPaid(orderID int64, items []orders.LineItem)
}

type Sweeper struct {
	store    Store
	gw       gateway.PaymentGateway
	pub      Publisher
	interval time.Duration
	minAge   time.Duration
}

func New(store Store, gw gateway.PaymentGateway, pub Publisher, interval, minAge time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		gw:       gw,
		pub:      pub,
		interval: interval,
		minAge:   minAge,
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("payment sweeper stopping")
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	stuck, err := s.store.StuckPending(ctx, s.minAge)
	if err != nil {
		slog.Error("sweeper failed to list pending orders", slog.String(logkey.ERROR, err.Error()))
		return
	}

	for _, ord := range stuck {
		payments, err := s.gw.OrderPayments(ctx, ord.RazorpayOrderID)
		if err != nil {
			slog.Error("sweeper failed to fetch gateway payments",
				slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.OrderID, ord.ID))
			continue
		}

		captured, ok := firstCaptured(payments)
		if !ok {
			slog.Info("pending order has no captured payment yet",
				slog.Int64(logkey.OrderID, ord.ID),
				slog.Time("CreatedAt", ord.CreatedAt))
			continue
		}

		items, inserted, err := s.store.CompletePayment(ctx, ord.ID, ord.UserID, orders.Transaction{
			OrderID:           ord.ID,
			RazorpayPaymentID: captured.ID,
			RazorpayOrderID:   ord.RazorpayOrderID,
			Amount:            pricing.FromPaise(captured.Amount),
			Status:            captured.Status,
			PaymentMethod:     captured.Method,
		})
		if err != nil {
			slog.Error("sweeper failed to complete order",
				slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.OrderID, ord.ID))
			continue
		}
		if inserted {
			slog.Info("reconciled stuck pending order",
				slog.Int64(logkey.OrderID, ord.ID),
				slog.String("PaymentID", captured.ID))
			s.pub.PublishOrderPaid(ord.ID, items)
		}
	}
}

func firstCaptured(payments []gateway.Payment) (gateway.Payment, bool) {
	for _, p := range payments {
		if p.Captured() {
			return p, true
		}
	}
	return gateway.Payment{}, false
}
