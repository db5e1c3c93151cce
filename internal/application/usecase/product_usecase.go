package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

const defaultUnitMeasure = "UND"

// ProductUseCase casos de uso para productos. Stock se maneja vía movimientos.
type ProductUseCase struct {
	repo  repository.ProductRepository
	cache inventory.SnapshotCache
	log   zerolog.Logger
}

// NewProductUseCase construye el caso de uso. cache puede ser nil.
func NewProductUseCase(repo repository.ProductRepository, cache inventory.SnapshotCache, log zerolog.Logger) *ProductUseCase {
	return &ProductUseCase{repo: repo, cache: cache, log: log}
}

// Create crea un nuevo producto con stock 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price.IsNegative() || in.Cost.IsNegative() || in.MinStock.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if !entity.FitsStorage(in.Price) || !entity.FitsStorage(in.Cost) || !entity.FitsStorage(in.MinStock) {
		return nil, domain.ErrInvalidInput
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = defaultUnitMeasure
	}
	now := time.Now().UTC()
	product := &entity.Product{
		Name:          name,
		Price:         in.Price,
		Cost:          in.Cost,
		IsService:     in.IsService,
		UnitMeasure:   in.UnitMeasure,
		StockQuantity: decimal.Zero,
		MinStock:      in.MinStock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	uc.invalidate(ctx)
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID. Inexistente o eliminado devuelve domain.ErrNotFound.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// SetMinimumStock fija el stock mínimo usado por las alertas. 0 desactiva la alerta.
func (uc *ProductUseCase) SetMinimumStock(ctx context.Context, id int64, minStock decimal.Decimal) (*dto.ProductResponse, error) {
	if minStock.IsNegative() || !entity.FitsStorage(minStock) {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	if product.IsService {
		return nil, domain.ErrNotStockable
	}
	if err := uc.repo.UpdateMinStock(ctx, id, minStock); err != nil {
		return nil, err
	}
	product.MinStock = minStock
	uc.invalidate(ctx)
	return toProductResponse(product), nil
}

func (uc *ProductUseCase) invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo invalidar la caché de inventario")
	}
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Cost:          p.Cost,
		IsService:     p.IsService,
		UnitMeasure:   p.UnitMeasure,
		StockQuantity: p.StockQuantity,
		MinStock:      p.MinStock,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
