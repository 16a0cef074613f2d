package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const featuredLimit = 6

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

const productColumns = `id, name, description, price, image_url, category, sizes, colors,
		       stock_quantity, is_featured, created_at, updated_at`

// ListProducts returns the whole catalog, newest first.
func (c *Conf) ListProducts(ctx context.Context) ([]Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC
	`
	return c.queryProducts(ctx, query)
}

// ListFeatured returns up to six featured products, newest first.
func (c *Conf) ListFeatured(ctx context.Context) ([]Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_featured
		ORDER BY created_at DESC
		LIMIT $1
	`
	return c.queryProducts(ctx, query, featuredLimit)
}

// GetProductByID fetches a single product. A missing row surfaces as
// sql.ErrNoRows so callers can map it to a not-found response.
func (c *Conf) GetProductByID(ctx context.Context, id int64) (Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`
	row := c.db.QueryRowContext(ctx, query, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, err
		}
		return Product{}, fmt.Errorf("failed to query product %d: %w", id, err)
	}
	return p, nil
}

func (c *Conf) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p           Product
		description sql.NullString
		imageURL    sql.NullString
		category    sql.NullString
		sizesRaw    []byte
		colorsRaw   []byte
	)
	err := row.Scan(&p.ID, &p.Name, &description, &p.Price, &imageURL, &category,
		&sizesRaw, &colorsRaw, &p.StockQuantity, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.Description = description.String
	p.ImageURL = imageURL.String
	p.Category = category.String

	// Size and color lists are stored as JSON arrays; decode them once here so
	// every reader sees typed slices.
	if err := decodeStringList(sizesRaw, &p.Sizes); err != nil {
		return Product{}, fmt.Errorf("decoding sizes for product %d: %w", p.ID, err)
	}
	if err := decodeStringList(colorsRaw, &p.Colors); err != nil {
		return Product{}, fmt.Errorf("decoding colors for product %d: %w", p.ID, err)
	}
	return p, nil
}

func decodeStringList(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		*dst = []string{}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []string{}
	}
	return nil
}
