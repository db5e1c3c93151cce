package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, name, price, cost, is_service, unit_measure, stock_quantity, min_stock, created_at, updated_at, deleted_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto y completa su ID.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (name, price, cost, is_service, unit_measure, stock_quantity, min_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		product.Name, product.Price, product.Cost, product.IsService, product.UnitMeasure,
		product.StockQuantity, product.MinStock, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		return mapWriteError("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID (incluye eliminados; el caso de uso decide).
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate obtiene el producto bloqueando la fila (SELECT FOR UPDATE). Solo tiene efecto dentro de tx.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepo) getOne(ctx context.Context, query string, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// UpdateStock escribe la proyección de stock.
func (r *ProductRepo) UpdateStock(ctx context.Context, id int64, quantity decimal.Decimal) error {
	_, err := r.q.Exec(ctx,
		`UPDATE products SET stock_quantity = $2, updated_at = now() WHERE id = $1`,
		id, quantity,
	)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	return nil
}

// UpdateMinStock actualiza el stock mínimo.
func (r *ProductRepo) UpdateMinStock(ctx context.Context, id int64, minStock decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET min_stock = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id, minStock,
	)
	if err != nil {
		return fmt.Errorf("update product min stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos no eliminados con paginación.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	return r.list(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE deleted_at IS NULL ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
}

// ListAll devuelve todos los productos no eliminados, ordenados por ID.
func (r *ProductRepo) ListAll(ctx context.Context) ([]*entity.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE deleted_at IS NULL ORDER BY id`)
}

// ListBelowMinimum devuelve los productos físicos con mínimo definido y stock por debajo.
func (r *ProductRepo) ListBelowMinimum(ctx context.Context) ([]*entity.Product, error) {
	return r.list(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE deleted_at IS NULL AND is_service = false AND min_stock > 0 AND stock_quantity < min_stock
		ORDER BY id`)
}

func (r *ProductRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Cost, &p.IsService, &p.UnitMeasure,
		&p.StockQuantity, &p.MinStock, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
