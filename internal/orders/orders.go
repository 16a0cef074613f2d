package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storefront-service/internal/pricing"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// CreateOrder inserts a single order row with its snapshot and returns the
// generated id. The snapshot and total must already be computed from
// authoritative catalog prices; nothing here trusts client-sent amounts.
func (c *Conf) CreateOrder(ctx context.Context, no NewOrder) (int64, error) {
	itemsJSON, err := json.Marshal(no.Items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal order items: %w", err)
	}

	var billing any
	if no.BillingAddress != "" {
		billing = no.BillingAddress
	}

	query := `
		INSERT INTO orders (user_id, total_amount, status, shipping_address, billing_address, phone, order_items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id
	`
	var orderID int64
	err = c.db.QueryRowContext(ctx, query, no.UserID, no.TotalAmount, no.Status,
		no.ShippingAddress, billing, no.Phone, itemsJSON).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}
	return orderID, nil
}

// SetRazorpayOrderID records the gateway-side order handle on a local order so
// a stuck pending order can later be reconciled against the gateway.
func (c *Conf) SetRazorpayOrderID(ctx context.Context, orderID int64, razorpayOrderID string) error {
	query := `
		UPDATE orders
		SET razorpay_order_id = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := c.db.ExecContext(ctx, query, razorpayOrderID, orderID)
	if err != nil {
		return fmt.Errorf("failed to set gateway order id on order %d: %w", orderID, err)
	}
	return nil
}

// CheckoutCart converts the user's whole cart into a completed order in one
// transaction: read the cart joined with live catalog prices, snapshot the
// lines, insert the order, delete the cart rows. Either everything commits or
// nothing does. Returns ErrEmptyCart when there is nothing to check out.
func (c *Conf) CheckoutCart(ctx context.Context, userID, shippingAddress, billingAddress, phone string) (int64, decimal.Decimal, error) {
	var orderID int64
	var total decimal.Decimal

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		// Lock the cart rows so a concurrent add or remove cannot slip
		// between the read and the delete below.
		queryLines := `
			SELECT ci.product_id, p.name, ci.quantity, ci.size, ci.color, p.price
			FROM cart_items ci
			JOIN products p ON ci.product_id = p.id
			WHERE ci.user_id = $1
			ORDER BY ci.created_at DESC
			FOR UPDATE OF ci
		`
		rows, err := tx.QueryContext(ctx, queryLines, userID)
		if err != nil {
			return fmt.Errorf("failed to query cart lines: %w", err)
		}
		defer rows.Close()

		var items []LineItem
		for rows.Next() {
			var li LineItem
			if err := rows.Scan(&li.ProductID, &li.ProductName, &li.Quantity, &li.Size, &li.Color, &li.Price); err != nil {
				return fmt.Errorf("failed to scan cart line: %w", err)
			}
			items = append(items, li)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating cart lines: %w", err)
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		quote := pricing.NewQuote(Subtotal(items))
		total = quote.Total

		itemsJSON, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to marshal order items: %w", err)
		}

		var billing any
		if billingAddress != "" {
			billing = billingAddress
		}

		queryInsert := `
			INSERT INTO orders (user_id, total_amount, status, shipping_address, billing_address, phone, order_items, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			RETURNING id
		`
		err = tx.QueryRowContext(ctx, queryInsert, userID, total, StatusCompleted,
			shippingAddress, billing, phone, itemsJSON).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		// Cart to order is a one-way transition; the working cart is gone the
		// moment the order exists.
		queryClear := `DELETE FROM cart_items WHERE user_id = $1`
		if _, err := tx.ExecContext(ctx, queryClear, userID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, decimal.Zero, err
	}
	return orderID, total, nil
}

// CompletePayment marks an order completed and appends its payment
// transaction in one transaction. The status update is scoped by order id,
// user id and the stored gateway order handle, so neither a guessed order id
// nor a captured payment from a different gateway order can advance it. The
// unique constraint on razorpay_payment_id makes a replayed callback a no-op:
// the returned bool reports whether this call inserted the transaction row.
// The order's snapshot lines are returned for event publication.
func (c *Conf) CompletePayment(ctx context.Context, orderID int64, userID string, t Transaction) ([]LineItem, bool, error) {
	var items []LineItem
	var inserted bool

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		queryUpdate := `
			UPDATE orders
			SET status = $1, updated_at = NOW()
			WHERE id = $2 AND user_id = $3 AND razorpay_order_id = $4
			RETURNING order_items
		`
		var itemsRaw []byte
		err := tx.QueryRowContext(ctx, queryUpdate, StatusCompleted, orderID, userID, t.RazorpayOrderID).Scan(&itemsRaw)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to complete order %d: %w", orderID, err)
		}
		if err := decodeLineItems(itemsRaw, &items); err != nil {
			return fmt.Errorf("decoding snapshot of order %d: %w", orderID, err)
		}

		queryInsert := `
			INSERT INTO payment_transactions (order_id, razorpay_payment_id, razorpay_order_id, amount, status, payment_method, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (razorpay_payment_id) DO NOTHING
		`
		res, err := tx.ExecContext(ctx, queryInsert, orderID, t.RazorpayPaymentID,
			t.RazorpayOrderID, t.Amount, t.Status, t.PaymentMethod)
		if err != nil {
			return fmt.Errorf("failed to insert payment transaction: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		inserted = n > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return items, inserted, nil
}

// ListOrders returns the user's order history, newest first, with snapshots
// decoded.
func (c *Conf) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	query := `
		SELECT id, user_id, total_amount, status, shipping_address,
		       COALESCE(billing_address, ''), phone, order_items,
		       COALESCE(razorpay_order_id, ''), created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var o Order
		var itemsRaw []byte
		err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.ShippingAddress,
			&o.BillingAddress, &o.Phone, &itemsRaw, &o.RazorpayOrderID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := decodeLineItems(itemsRaw, &o.Items); err != nil {
			return nil, fmt.Errorf("decoding snapshot of order %d: %w", o.ID, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// StuckPending lists orders that have sat in pending_payment for longer than
// minAge and already hold a gateway order handle, newest last so the oldest
// are reconciled first.
func (c *Conf) StuckPending(ctx context.Context, minAge time.Duration) ([]PendingOrder, error) {
	query := `
		SELECT id, user_id, razorpay_order_id, order_items, created_at
		FROM orders
		WHERE status = $1
		  AND razorpay_order_id IS NOT NULL
		  AND created_at < NOW() - $2::interval
		ORDER BY created_at ASC
	`
	interval := fmt.Sprintf("%d seconds", int(minAge.Seconds()))
	rows, err := c.db.QueryContext(ctx, query, StatusPendingPayment, interval)
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck pending orders: %w", err)
	}
	defer rows.Close()

	pending := []PendingOrder{}
	for rows.Next() {
		var p PendingOrder
		var itemsRaw []byte
		if err := rows.Scan(&p.ID, &p.UserID, &p.RazorpayOrderID, &itemsRaw, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending order: %w", err)
		}
		if err := decodeLineItems(itemsRaw, &p.Items); err != nil {
			return nil, fmt.Errorf("decoding snapshot of order %d: %w", p.ID, err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending orders: %w", err)
	}
	return pending, nil
}

func decodeLineItems(raw []byte, dst *[]LineItem) error {
	if len(raw) == 0 {
		*dst = []LineItem{}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	for _, li := range *dst {
		if err := li.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
