package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jewels/internal/imageurl"
)

// Product is the sole persistent entity: one row per catalog item. Images is
// an ordered list of filename tokens (first entry is the cover image) kept as
// a single serialized column; (de)serialization happens only in this package.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	MaxPrice    *float64  `json:"max_price,omitempty"`
	Category    string    `json:"category"`
	Brand       *string   `json:"brand,omitempty"`
	Collection  *string   `json:"collection,omitempty"`
	IsNew       bool      `json:"is_new"`
	IsLimited   bool      `json:"is_limited"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
}

// PriceDisplay renders "AED 1,500 - 2,000" when the product carries a price
// range and "AED 1,500" otherwise.
func (p *Product) PriceDisplay() string {
	if p.MaxPrice != nil {
		return fmt.Sprintf("AED %s - %s", formatAmount(p.Price), formatAmount(*p.MaxPrice))
	}
	return "AED " + formatAmount(p.Price)
}

func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")

	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	if n := len(intPart); n > 3 {
		var b strings.Builder
		rem := n % 3
		if rem == 0 {
			rem = 3
		}
		b.WriteString(intPart[:rem])
		for i := rem; i < n; i += 3 {
			b.WriteByte(',')
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	out := intPart
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

type ProductsStore struct {
	db *sql.DB
}

func (s *ProductsStore) Create(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (name, description, price, max_price, category, brand, collection, is_new, is_limited, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	images, err := marshalImages(p.Images)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRowContext(
		ctx, query,
		p.Name,
		p.Description,
		p.Price,
		p.MaxPrice,
		p.Category,
		p.Brand,
		p.Collection,
		p.IsNew,
		p.IsLimited,
		images,
	).Scan(&p.ID, &p.CreatedAt)
}

func (s *ProductsStore) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := `
		SELECT id, name, description, price, max_price, category, brand, collection, is_new, is_limited, images, created_at
		FROM products
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns the whole catalog, newest first. The catalog is small enough
// that a full scan per request is the contract; filtering happens in memory.
func (s *ProductsStore) List(ctx context.Context) ([]Product, error) {
	query := `
		SELECT id, name, description, price, max_price, category, brand, collection, is_new, is_limited, images, created_at
		FROM products
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// Update replaces every scalar field and the image list. Last write wins;
// there is no concurrency token.
func (s *ProductsStore) Update(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, max_price = $4, category = $5,
		    brand = $6, collection = $7, is_new = $8, is_limited = $9, images = $10
		WHERE id = $11
	`

	images, err := marshalImages(p.Images)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	res, err := s.db.ExecContext(
		ctx, query,
		p.Name,
		p.Description,
		p.Price,
		p.MaxPrice,
		p.Category,
		p.Brand,
		p.Collection,
		p.IsNew,
		p.IsLimited,
		images,
		p.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany removes products and their stored image files in one database
// transaction. Per id: read the image list, remove each file, delete the row.
// Any row-delete failure rolls back every row deletion; file removals that
// already happened are not undone; the filesystem is outside the transaction
// and we do not pretend otherwise. Missing files and file-remove errors never
// abort the batch. Returns the number of rows removed by the committed
// transaction; ids with no matching row contribute zero.
func (s *ProductsStore) DeleteMany(ctx context.Context, ids []int64, remover FileRemover) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var deleted int64
	for _, id := range ids {
		var raw []byte
		err := tx.QueryRowContext(ctx, `SELECT images FROM products WHERE id = $1`, id).Scan(&raw)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			continue
		case err != nil:
			return 0, err
		}

		var images []string
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &images); err != nil {
				return 0, fmt.Errorf("decode images for product %d: %w", id, err)
			}
		}
		for _, img := range images {
			if name := imageurl.Filename(img); name != "" {
				// Best effort; a file that cannot be removed must not block
				// the row delete.
				_ = remover.Remove(name)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p          Product
		maxPrice   sql.NullFloat64
		brand      sql.NullString
		collection sql.NullString
		images     []byte
	)

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&maxPrice,
		&p.Category,
		&brand,
		&collection,
		&p.IsNew,
		&p.IsLimited,
		&images,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if maxPrice.Valid {
		p.MaxPrice = &maxPrice.Float64
	}
	if brand.Valid {
		p.Brand = &brand.String
	}
	if collection.Valid {
		p.Collection = &collection.String
	}

	p.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

// marshalImages serializes the list for the images column. The column is never
// NULL: an absent list is stored as "[]" exactly like a non-empty one.
func marshalImages(images []string) ([]byte, error) {
	if images == nil {
		images = []string{}
	}
	return json.Marshal(images)
}
