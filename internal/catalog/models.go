package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The catalog is read-only from this service's
// perspective; rows are owned by an external catalog-management process.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"image_url,omitempty"`
	Category      string          `json:"category,omitempty"`
	Sizes         []string        `json:"sizes"`
	Colors        []string        `json:"colors"`
	StockQuantity int             `json:"stock_quantity"`
	IsFeatured    bool            `json:"is_featured"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
