package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var _ repository.ReconciliationReportRepository = (*ReconciliationRepo)(nil)

// ReconciliationRepo guarda los reportes de inconsistencia en inventory_reconciliation_reports.
type ReconciliationRepo struct {
	q Querier
}

// NewReconciliationRepository construye el adaptador.
func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

// Create persiste el reporte y completa su ID.
func (r *ReconciliationRepo) Create(ctx context.Context, rep *entity.ReconciliationReport) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO inventory_reconciliation_reports (correlation_id, product_id, cached_qty, replayed_qty, details, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
		RETURNING id`,
		rep.CorrelationID, rep.ProductID, rep.CachedQty, rep.ReplayedQty, rep.Details, rep.CreatedAt,
	).Scan(&rep.ID)
	if err != nil {
		return fmt.Errorf("insert reconciliation report: %w", err)
	}
	return nil
}
