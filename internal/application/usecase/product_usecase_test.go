package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
)

func newProductUC() *usecase.ProductUseCase {
	return usecase.NewProductUseCase(memory.NewStore().Products(), nil, zerolog.Nop())
}

func TestProductUseCase_CreaConStockCeroYUnidadPorDefecto(t *testing.T) {
	uc := newProductUC()

	out, err := uc.Create(context.Background(), dto.CreateProductRequest{Name: "  Cemento ", Price: decimal.NewFromInt(30)})

	require.NoError(t, err)
	assert.Equal(t, "Cemento", out.Name)
	assert.Equal(t, "UND", out.UnitMeasure)
	assert.True(t, out.StockQuantity.IsZero())
}

func TestProductUseCase_GetByIDInexistente_RetornaNotFound(t *testing.T) {
	uc := newProductUC()

	out, err := uc.GetByID(context.Background(), 42)

	assert.Nil(t, out)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_ValoresFueraDeEscala(t *testing.T) {
	uc := newProductUC()
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Arena", Cost: decimal.RequireFromString("1.1234567")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Arena"})
	require.NoError(t, err)
	_, err = uc.SetMinimumStock(ctx, p.ID, decimal.RequireFromString("0.0000001"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductUseCase_SetMinimumStock(t *testing.T) {
	uc := newProductUC()
	ctx := context.Background()
	p, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Varilla"})
	require.NoError(t, err)
	svc, err := uc.Create(ctx, dto.CreateProductRequest{Name: "Flete", IsService: true})
	require.NoError(t, err)

	out, err := uc.SetMinimumStock(ctx, p.ID, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, out.MinStock.Equal(decimal.NewFromInt(5)))

	_, err = uc.SetMinimumStock(ctx, svc.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotStockable)
	_, err = uc.SetMinimumStock(ctx, 999, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
