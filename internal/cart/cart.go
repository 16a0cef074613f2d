package cart

import (
	"context"
	"database/sql"
	"fmt"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

// Upsert adds quantity to the user's cart row for (productID, size, color),
// inserting the row if it does not exist yet. The unique constraint on the
// tuple makes concurrent first-adds collapse into a single row instead of
// producing duplicates.
func (c *Conf) Upsert(ctx context.Context, userID string, productID int64, quantity int, size, color string) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, size, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, product_id, size, color)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
	`
	_, err := c.db.ExecContext(ctx, query, userID, productID, quantity, size, color)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

// Items lists the user's cart joined with current product name, price and
// image, newest first.
func (c *Conf) Items(ctx context.Context, userID string) ([]Line, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.size, ci.color,
		       ci.created_at, ci.updated_at, p.name, p.price, COALESCE(p.image_url, '')
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var l Line
		err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.Size, &l.Color,
			&l.CreatedAt, &l.UpdatedAt, &l.Name, &l.Price, &l.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return lines, nil
}

// Remove deletes a cart row only when it belongs to userID. Deleting an
// already-absent row is not an error; the operation is idempotent.
func (c *Conf) Remove(ctx context.Context, userID string, itemID int64) error {
	query := `
		DELETE FROM cart_items
		WHERE id = $1 AND user_id = $2
	`
	_, err := c.db.ExecContext(ctx, query, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}
