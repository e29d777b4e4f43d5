// Package repository provides persistence implementations for products and
// users: PostgreSQL stores built on database/sql and in-memory stores with
// the same contracts.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/herbcatalog/internal/models"
	"github.com/atinyakov/herbcatalog/internal/query"
)

const productColumns = "id, name, category, price, image_reference"

// PostgresProductRepository implements product persistence against a PostgreSQL database.
type PostgresProductRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresProductRepository creates a new PostgresProductRepository using the provided *sql.DB.
func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (models.Product, error) {
	var (
		p     models.Product
		image sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &image); err != nil {
		return models.Product{}, err
	}
	p.Image = image.String
	return p, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Insert stores p and sets its ID and the price as stored.
func (r *PostgresProductRepository) Insert(ctx context.Context, p *models.Product) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO products (name, category, price, image_reference)
		VALUES ($1, $2, $3, $4) RETURNING id, price
	`, p.Name, p.Category, p.Price, nullable(p.Image)).Scan(&p.ID, &p.Price)
	if err != nil {
		return models.StorageError("insert product", err)
	}
	return nil
}

// GetByID returns the product with the given id or models.ErrNotFound.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.StorageError("get product", err)
	}
	return &p, nil
}

// Update overwrites name, category, price and image reference of p in one
// statement and reads back the price as stored.
func (r *PostgresProductRepository) Update(ctx context.Context, p *models.Product) error {
	err := r.DB.QueryRowContext(ctx, `
		UPDATE products SET name = $1, category = $2, price = $3, image_reference = $4
		WHERE id = $5 RETURNING price
	`, p.Name, p.Category, p.Price, nullable(p.Image), p.ID).Scan(&p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update product: %w", models.ErrNotFound)
	}
	if err != nil {
		return models.StorageError("update product", err)
	}
	return nil
}

// Delete removes the product row with the given id.
func (r *PostgresProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return models.StorageError("delete product", err)
	}
	return expectOne(res, "delete product")
}

// List counts and slices the products matching p inside one read-only,
// repeatable-read transaction so both see the same snapshot.
//
//	ctx: context for cancellation and deadlines
//	p:   normalized query parameters
func (r *PostgresProductRepository) List(ctx context.Context, p query.Params) (*models.Page, error) {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, models.StorageError("begin tx", err)
	}
	defer tx.Rollback()

	st := query.Build(p)

	var total int
	if err := tx.QueryRowContext(ctx, st.Count("products"), st.Args...).Scan(&total); err != nil {
		return nil, models.StorageError("count products", err)
	}

	if p.PastEnd(total) {
		if err := tx.Commit(); err != nil {
			return nil, models.StorageError("commit", err)
		}
		return query.NewPage(total, p, nil), nil
	}

	rows, err := tx.QueryContext(ctx, st.Select(productColumns, "products"), st.PageArgs(p)...)
	if err != nil {
		return nil, models.StorageError("list products", err)
	}
	defer rows.Close()

	items := make([]models.Product, 0, p.Limit)
	for rows.Next() {
		pr, err := scanProduct(rows)
		if err != nil {
			return nil, models.StorageError("scan product", err)
		}
		items = append(items, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("list products", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.StorageError("commit", err)
	}
	return query.NewPage(total, p, items), nil
}

// ImageNames returns the distinct stored names referenced by any product.
func (r *PostgresProductRepository) ImageNames(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT image_reference FROM products WHERE image_reference IS NOT NULL
	`)
	if err != nil {
		return nil, models.StorageError("list image references", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, models.StorageError("scan image reference", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("list image references", err)
	}
	return names, nil
}

func expectOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return models.StorageError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
