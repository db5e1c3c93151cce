package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var idealStockFactor = decimal.NewFromFloat(1.5)

// StockProjector expone la cantidad en stock (proyección cacheada en products) y la
// reconcilia contra la reconstrucción desde el ledger.
type StockProjector struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	reportRepo  repository.ReconciliationReportRepository
	metrics     Metrics
	log         zerolog.Logger
	concurrency int
}

// NewStockProjector construye el proyector. concurrency limita las reconciliaciones en paralelo.
func NewStockProjector(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	reportRepo repository.ReconciliationReportRepository,
	metrics Metrics,
	log zerolog.Logger,
	concurrency int,
) *StockProjector {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &StockProjector{
		txRunner:    txRunner,
		productRepo: productRepo,
		reportRepo:  reportRepo,
		metrics:     metricsOrNoop(metrics),
		log:         log,
		concurrency: concurrency,
	}
}

// CurrentQuantity devuelve el stock actual del producto. Los servicios siempre tienen 0.
func (p *StockProjector) CurrentQuantity(ctx context.Context, productID int64) (decimal.Decimal, error) {
	product, err := p.productRepo.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if product == nil || product.DeletedAt != nil {
		return decimal.Zero, domain.ErrNotFound
	}
	if product.IsService {
		return decimal.Zero, nil
	}
	return product.StockQuantity, nil
}

// Reconcile compara la cantidad cacheada con la suma del ledger. Si difieren guarda un reporte
// de auditoría y devuelve el resultado junto con *domain.IntegrityMismatchError.
// Nunca corrige la cantidad cacheada.
func (p *StockProjector) Reconcile(ctx context.Context, productID int64) (*dto.ReconciliationResultDTO, error) {
	return p.reconcile(ctx, productID, uuid.New().String())
}

// ReconcileAll reconcilia todos los productos inventariables con un mismo correlation id.
// Las inconsistencias no detienen el recorrido; si hubo alguna el error envuelve ErrIntegrityMismatch.
func (p *StockProjector) ReconcileAll(ctx context.Context) (*dto.ReconciliationSummaryDTO, error) {
	started := time.Now().UTC()
	products, err := p.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	correlationID := uuid.New().String()

	ids := make([]int64, 0, len(products))
	for _, pr := range products {
		if pr.Stockable() {
			ids = append(ids, pr.ID)
		}
	}
	results := make([]*dto.ReconciliationResultDTO, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			res, err := p.reconcile(gctx, id, correlationID)
			if err != nil && !errors.Is(err, domain.ErrIntegrityMismatch) {
				return fmt.Errorf("reconciliar producto %d: %w", id, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &dto.ReconciliationSummaryDTO{
		CorrelationID: correlationID,
		Checked:       len(ids),
		Mismatches:    []dto.ReconciliationResultDTO{},
		StartedAt:     started,
		FinishedAt:    time.Now().UTC(),
	}
	for _, r := range results {
		if r != nil && !r.Consistent {
			summary.Mismatches = append(summary.Mismatches, *r)
		}
	}
	p.log.Info().
		Str("correlation_id", correlationID).
		Int("checked", summary.Checked).
		Int("mismatches", len(summary.Mismatches)).
		Msg("reconciliación de inventario finalizada")
	if len(summary.Mismatches) > 0 {
		return summary, fmt.Errorf("%w: %d productos", domain.ErrIntegrityMismatch, len(summary.Mismatches))
	}
	return summary, nil
}

// reconcile lee producto y ledger bajo el bloqueo de la fila, así ningún movimiento
// concurrente queda a medias entre ambas lecturas.
func (p *StockProjector) reconcile(ctx context.Context, productID int64, correlationID string) (*dto.ReconciliationResultDTO, error) {
	var cached, replayed decimal.Decimal
	var count int
	err := p.txRunner.Run(ctx, func(
		ctx context.Context,
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := lockProduct(ctx, productRepo, productID)
		if err != nil {
			return err
		}
		movements, err := movRepo.ListByProduct(ctx, productID, nil, nil)
		if err != nil {
			return err
		}
		cached = product.StockQuantity
		replayed = inventory.ReplayQuantity(movements)
		count = len(movements)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &dto.ReconciliationResultDTO{
		ProductID:     productID,
		CachedQty:     cached,
		ReplayedQty:   replayed,
		MovementCount: count,
		Consistent:    cached.Equal(replayed),
	}
	if result.Consistent {
		return result, nil
	}

	mismatch := &domain.IntegrityMismatchError{
		ProductID: productID,
		Cached:    cached,
		Replayed:  replayed,
		Reason:    "la cantidad cacheada no coincide con el ledger",
	}
	p.metrics.IntegrityMismatch()
	p.log.Error().
		Str("correlation_id", correlationID).
		Int64("product_id", productID).
		Str("cached_qty", cached.String()).
		Str("replayed_qty", replayed.String()).
		Msg("inconsistencia de inventario")

	report := &entity.ReconciliationReport{
		CorrelationID: correlationID,
		ProductID:     productID,
		CachedQty:     cached,
		ReplayedQty:   replayed,
		Details:       mismatch.Error(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.reportRepo.Create(ctx, report); err != nil {
		p.log.Error().Err(err).Str("correlation_id", correlationID).Msg("no se pudo guardar el reporte de reconciliación")
	}
	return result, mismatch
}

// LowStock lista los productos con mínimo definido cuyo stock está por debajo de él,
// con la cantidad sugerida para llegar a 1.5 veces el mínimo.
func (p *StockProjector) LowStock(ctx context.Context) ([]dto.LowStockAlertDTO, error) {
	products, err := p.productRepo.ListBelowMinimum(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.LowStockAlertDTO, 0, len(products))
	for _, pr := range products {
		if !pr.Stockable() || !pr.BelowMinimum() {
			continue
		}
		suggested := pr.MinStock.Mul(idealStockFactor).Sub(pr.StockQuantity)
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		alerts = append(alerts, dto.LowStockAlertDTO{
			ProductID:    pr.ID,
			Name:         pr.Name,
			CurrentStock: pr.StockQuantity,
			MinStock:     pr.MinStock,
			SuggestedQty: suggested,
		})
	}
	return alerts, nil
}
