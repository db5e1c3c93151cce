package repository

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// InventoryMovementRepository define el puerto del ledger de movimientos (solo inserción y lectura).
type InventoryMovementRepository interface {
	// Create inserta el movimiento y completa ID (posición en el ledger).
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	// LastCreatedAt devuelve la fecha del último movimiento del producto; cero si no hay.
	LastCreatedAt(ctx context.Context, productID int64) (time.Time, error)
	// ListByProduct devuelve los movimientos en orden (created_at ASC, id ASC), filtrados por
	// rango inclusivo cuando from/to no son nil.
	ListByProduct(ctx context.Context, productID int64, from, to *time.Time) ([]entity.InventoryMovement, error)
	// ListRecent lista los últimos movimientos (más recientes primero); productID nil = todos.
	ListRecent(ctx context.Context, productID *int64, limit int) ([]entity.InventoryMovement, error)
}

// ReconciliationReportRepository persiste la auditoría de inconsistencias detectadas.
type ReconciliationReportRepository interface {
	Create(ctx context.Context, report *entity.ReconciliationReport) error
}
