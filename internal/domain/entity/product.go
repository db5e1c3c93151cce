package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un SKU del negocio: un producto físico o un servicio.
// StockQuantity es una proyección materializada del ledger de movimientos; solo el motor de
// inventario la modifica y siempre dentro de la misma transacción que inserta el movimiento.
// Cost es informativo (dato maestro), no es la fuente de la valorización del kardex.
type Product struct {
	ID            int64
	Name          string
	Price         decimal.Decimal
	Cost          decimal.Decimal
	IsService     bool
	UnitMeasure   string
	StockQuantity decimal.Decimal
	MinStock      decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// Stockable indica si el producto puede tener movimientos de inventario.
func (p *Product) Stockable() bool {
	return !p.IsService && p.DeletedAt == nil
}

// BelowMinimum indica si el stock está por debajo del mínimo configurado (mínimo > 0).
func (p *Product) BelowMinimum() bool {
	return p.MinStock.GreaterThan(decimal.Zero) && p.StockQuantity.LessThan(p.MinStock)
}
