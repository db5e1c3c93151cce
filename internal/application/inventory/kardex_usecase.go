package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// KardexUseCase arma el kardex valorizado de un producto reconstruyendo el ledger.
type KardexUseCase struct {
	productRepo repository.ProductRepository
	movRepo     repository.InventoryMovementRepository
	metrics     Metrics
	log         zerolog.Logger
	report      ReportConfig
}

// NewKardexUseCase construye el caso de uso.
func NewKardexUseCase(
	productRepo repository.ProductRepository,
	movRepo repository.InventoryMovementRepository,
	metrics Metrics,
	log zerolog.Logger,
	report ReportConfig,
) *KardexUseCase {
	return &KardexUseCase{
		productRepo: productRepo,
		movRepo:     movRepo,
		metrics:     metricsOrNoop(metrics),
		log:         log,
		report:      report,
	}
}

// ComputeKardex reconstruye el kardex entre from y to (inclusivos, nil = sin límite).
// Los movimientos anteriores a from se reconstruyen para obtener el saldo inicial y solo se
// devuelven las filas dentro del rango.
func (uc *KardexUseCase) ComputeKardex(ctx context.Context, productID int64, from, to *time.Time) (*dto.KardexReportDTO, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}

	started := time.Now()
	movements, err := uc.movRepo.ListByProduct(ctx, productID, nil, to)
	if err != nil {
		return nil, err
	}

	split := 0
	if from != nil {
		for split < len(movements) && movements[split].CreatedAt.Before(*from) {
			split++
		}
	}

	_, opening, err := inventory.Replay(productID, inventory.Balance{}, movements[:split])
	if err != nil {
		uc.mismatch(err)
		return nil, err
	}
	entries, closing, err := inventory.Replay(productID, opening, movements[split:])
	if err != nil {
		uc.mismatch(err)
		return nil, err
	}
	uc.metrics.ObserveReplay(time.Since(started))

	return uc.toReport(product, from, to, opening, entries, closing), nil
}

func (uc *KardexUseCase) mismatch(err error) {
	var im *domain.IntegrityMismatchError
	if errors.As(err, &im) {
		uc.metrics.IntegrityMismatch()
		uc.log.Error().Err(err).Int64("product_id", im.ProductID).Msg("ledger inconsistente al reconstruir kardex")
	}
}

func (uc *KardexUseCase) toReport(
	product *entity.Product,
	from, to *time.Time,
	opening inventory.Balance,
	entries []inventory.ValuationEntry,
	closing inventory.Balance,
) *dto.KardexReportDTO {
	loc := uc.report.location()
	out := &dto.KardexReportDTO{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitMeasure: product.UnitMeasure,
		Opening:     toBalanceDTO(opening),
		Entries:     make([]dto.KardexEntryDTO, 0, len(entries)),
		Closing:     toBalanceDTO(closing),
		GeneratedAt: uc.report.now(),
	}
	if from != nil {
		f := from.In(loc)
		out.From = &f
	}
	if to != nil {
		t := to.In(loc)
		out.To = &t
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.KardexEntryDTO{
			MovementID:   e.MovementID,
			Date:         e.Date.In(loc),
			Kind:         string(e.Kind),
			Quantity:     e.Quantity,
			UnitCost:     e.UnitCost,
			Value:        e.Value,
			Reference:    e.Reference,
			BalanceQty:   e.Balance.Qty,
			BalanceCost:  e.Balance.UnitCost,
			BalanceValue: e.Balance.Value,
		})
	}
	return out
}

func toBalanceDTO(b inventory.Balance) dto.KardexBalanceDTO {
	return dto.KardexBalanceDTO{Qty: b.Qty, UnitCost: b.UnitCost, Value: b.Value}
}
