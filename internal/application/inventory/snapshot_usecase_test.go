package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

func TestBuildInventorySnapshot_Totales(t *testing.T) {
	f := newLedger(t)
	a := f.store.addProduct(entity.Product{Name: "A", Cost: d("2.5"), Price: d("4")})
	b := f.store.addProduct(entity.Product{Name: "B", Cost: d("10"), Price: d("15"), MinStock: d("5")})
	f.store.addProduct(entity.Product{Name: "Servicio", IsService: true, Cost: d("1"), Price: d("50")})
	deleted := time.Now()
	f.store.addProduct(entity.Product{Name: "Viejo", DeletedAt: &deleted})
	f.record(t, a, "entrada", "4", "9")
	f.record(t, b, "entrada", "3", "9")

	uc := appinv.NewSnapshotUseCase(f.store.products(), nil, zerolog.Nop(), appinv.NewReportConfig(-5))
	snap, err := uc.BuildInventorySnapshot(context.Background())

	require.NoError(t, err)
	require.Len(t, snap.Items, 3)
	assertDec(t, "10", snap.Items[0].CostValue)
	assertDec(t, "16", snap.Items[0].SaleValue)
	assert.True(t, snap.Items[1].BelowMin)
	assert.True(t, snap.Items[2].Quantity.IsZero())
	assert.True(t, snap.Items[2].SaleValue.IsZero())
	assertDec(t, "40", snap.TotalCostValue)
	assertDec(t, "61", snap.TotalSaleValue)
}

func TestBuildInventorySnapshot_UsaCacheHastaInvalidar(t *testing.T) {
	f := newLedger(t)
	a := f.store.addProduct(entity.Product{Name: "A", Cost: d("1"), Price: d("2")})
	f.record(t, a, "entrada", "1", "1")

	uc := appinv.NewSnapshotUseCase(f.store.products(), f.cache, zerolog.Nop(), appinv.NewReportConfig(0))
	first, err := uc.BuildInventorySnapshot(context.Background())
	require.NoError(t, err)
	_, err = uc.BuildInventorySnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.loads)

	f.record(t, a, "entrada", "1", "1")
	second, err := uc.BuildInventorySnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.cache.loads)
	assertDec(t, "1", first.Items[0].Quantity)
	assertDec(t, "2", second.Items[0].Quantity)
}
