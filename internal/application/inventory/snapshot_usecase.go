package inventory

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// SnapshotCacheKey clave del inventario actual en la caché.
const SnapshotCacheKey = "inventory:snapshot"

// SnapshotUseCase arma el inventario actual valorizado al costo y al precio maestro.
type SnapshotUseCase struct {
	productRepo repository.ProductRepository
	cache       SnapshotCache
	log         zerolog.Logger
	report      ReportConfig
}

// NewSnapshotUseCase construye el caso de uso. cache puede ser nil.
func NewSnapshotUseCase(productRepo repository.ProductRepository, cache SnapshotCache, log zerolog.Logger, report ReportConfig) *SnapshotUseCase {
	return &SnapshotUseCase{productRepo: productRepo, cache: cache, log: log, report: report}
}

// BuildInventorySnapshot lista los productos no eliminados con su cantidad, valor al costo y
// valor de venta. Los servicios aparecen con cantidad y valores en 0.
func (uc *SnapshotUseCase) BuildInventorySnapshot(ctx context.Context) (*dto.InventorySnapshotDTO, error) {
	if uc.cache == nil {
		return uc.build(ctx)
	}
	var out dto.InventorySnapshotDTO
	err := uc.cache.Fetch(ctx, SnapshotCacheKey, &out, func(ctx context.Context) (any, error) {
		return uc.build(ctx)
	})
	if err != nil {
		uc.log.Warn().Err(err).Msg("caché de inventario no disponible; calculando directo")
		return uc.build(ctx)
	}
	return &out, nil
}

func (uc *SnapshotUseCase) build(ctx context.Context) (*dto.InventorySnapshotDTO, error) {
	products, err := uc.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.InventorySnapshotDTO{
		Items:          make([]dto.SnapshotItemDTO, 0, len(products)),
		TotalCostValue: decimal.Zero,
		TotalSaleValue: decimal.Zero,
		GeneratedAt:    uc.report.now(),
	}
	for _, p := range products {
		if p.DeletedAt != nil {
			continue
		}
		qty := p.StockQuantity
		if p.IsService {
			qty = decimal.Zero
		}
		item := dto.SnapshotItemDTO{
			ProductID:   p.ID,
			Name:        p.Name,
			UnitMeasure: p.UnitMeasure,
			IsService:   p.IsService,
			Quantity:    qty,
			UnitCost:    p.Cost,
			UnitPrice:   p.Price,
			CostValue:   qty.Mul(p.Cost),
			SaleValue:   qty.Mul(p.Price),
			MinStock:    p.MinStock,
			BelowMin:    !p.IsService && p.BelowMinimum(),
		}
		out.TotalCostValue = out.TotalCostValue.Add(item.CostValue)
		out.TotalSaleValue = out.TotalSaleValue.Add(item.SaleValue)
		out.Items = append(out.Items, item)
	}
	return out, nil
}
