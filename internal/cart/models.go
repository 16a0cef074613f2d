package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one row of a user's working cart. At most one row exists per
// (user_id, product_id, size, color) tuple; the empty string is the key for
// "no size"/"no color" so requests with an absent field and an explicit empty
// string collide on the same row.
type Item struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Line is a cart item joined with live product fields for display. The price
// here is never used for money math; order creation re-reads the catalog.
type Line struct {
	Item
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
}
