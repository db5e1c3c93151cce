package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, product_id, kind, quantity, unit_cost, reason, reference, note, batch_id, created_at`

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// La tabla es de solo inserción: no hay Update ni Delete.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento y completa su ID.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements (product_id, kind, quantity, unit_cost, reason, reference, note, batch_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid, $9)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.ProductID, string(m.Kind), m.Quantity, m.UnitCost,
		m.Reason, m.Reference, m.Note, m.BatchID, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return mapWriteError("create inventory movement", err)
	}
	return nil
}

// LastCreatedAt devuelve la fecha del último movimiento del producto; cero si no hay.
func (r *InventoryMovementRepo) LastCreatedAt(ctx context.Context, productID int64) (time.Time, error) {
	var last *time.Time
	err := r.q.QueryRow(ctx,
		`SELECT max(created_at) FROM inventory_movements WHERE product_id = $1`, productID,
	).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("last movement date: %w", err)
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}

// ListByProduct devuelve los movimientos del producto en orden (created_at, id).
func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, productID int64, from, to *time.Time) ([]entity.InventoryMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE product_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, productID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list movements by product: %w", err)
	}
	return collectMovements(rows)
}

// ListRecent lista los últimos movimientos, más recientes primero. productID nil = todos los productos.
func (r *InventoryMovementRepo) ListRecent(ctx context.Context, productID *int64, limit int) ([]entity.InventoryMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE ($1::bigint IS NULL OR product_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent movements: %w", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]entity.InventoryMovement, error) {
	defer rows.Close()
	out := make([]entity.InventoryMovement, 0)
	for rows.Next() {
		var m entity.InventoryMovement
		var kind string
		var batchID *string
		if err := rows.Scan(
			&m.ID, &m.ProductID, &kind, &m.Quantity, &m.UnitCost,
			&m.Reason, &m.Reference, &m.Note, &batchID, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Kind = entity.MovementKind(kind)
		if batchID != nil {
			m.BatchID = *batchID
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
