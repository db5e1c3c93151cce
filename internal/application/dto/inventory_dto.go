package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Kind: entrada | salida | ajuste. En ajuste el signo de Quantity indica la dirección.
type RegisterMovementRequest struct {
	ProductID int64            `json:"product_id" validate:"required,gt=0"`
	Kind      string           `json:"kind" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason    string           `json:"reason" validate:"max=200"`
	Reference string           `json:"reference" validate:"max=100"`
	Note      string           `json:"note" validate:"max=500"`
}

// BatchMovementLine una línea de POST /api/inventory/movements/batch.
type BatchMovementLine struct {
	ProductID int64            `json:"product_id" validate:"required,gt=0"`
	Kind      string           `json:"kind" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// BatchMovementRequest registra varias líneas en una sola transacción (p. ej. una orden de trabajo).
type BatchMovementRequest struct {
	Reason    string              `json:"reason" validate:"max=200"`
	Reference string              `json:"reference" validate:"max=100"`
	Note      string              `json:"note" validate:"max=500"`
	Lines     []BatchMovementLine `json:"lines" validate:"required,min=1,max=200,dive"`
}

// MovementResponse salida de un movimiento registrado.
type MovementResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Kind      string          `json:"kind"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Reason    string          `json:"reason,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Note      string          `json:"note,omitempty"`
	BatchID   string          `json:"batch_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// StockResponse cantidad actual de un producto.
type StockResponse struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// KardexEntryDTO una fila del kardex valorizado.
type KardexEntryDTO struct {
	MovementID   int64           `json:"movement_id"`
	Date         time.Time       `json:"date"`
	Kind         string          `json:"kind"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Value        decimal.Decimal `json:"value"`
	Reference    string          `json:"reference,omitempty"`
	BalanceQty   decimal.Decimal `json:"balance_qty"`
	BalanceCost  decimal.Decimal `json:"balance_unit_cost"`
	BalanceValue decimal.Decimal `json:"balance_value"`
}

// KardexBalanceDTO saldo (cantidad, costo promedio, valor).
type KardexBalanceDTO struct {
	Qty      decimal.Decimal `json:"qty"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Value    decimal.Decimal `json:"value"`
}

// KardexReportDTO kardex de un producto en un rango de fechas, con saldo inicial y final.
type KardexReportDTO struct {
	ProductID   int64            `json:"product_id"`
	ProductName string           `json:"product_name"`
	UnitMeasure string           `json:"unit_measure"`
	From        *time.Time       `json:"from,omitempty"`
	To          *time.Time       `json:"to,omitempty"`
	Opening     KardexBalanceDTO `json:"opening"`
	Entries     []KardexEntryDTO `json:"entries"`
	Closing     KardexBalanceDTO `json:"closing"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// SnapshotItemDTO una fila del inventario actual.
type SnapshotItemDTO struct {
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	UnitMeasure string          `json:"unit_measure"`
	IsService   bool            `json:"is_service"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostValue   decimal.Decimal `json:"cost_value"`
	SaleValue   decimal.Decimal `json:"sale_value"`
	MinStock    decimal.Decimal `json:"min_stock"`
	BelowMin    bool            `json:"below_min"`
}

// InventorySnapshotDTO inventario actual con totales.
type InventorySnapshotDTO struct {
	Items          []SnapshotItemDTO `json:"items"`
	TotalCostValue decimal.Decimal   `json:"total_cost_value"`
	TotalSaleValue decimal.Decimal   `json:"total_sale_value"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// LowStockAlertDTO producto con stock bajo su mínimo, con la cantidad sugerida de reposición.
type LowStockAlertDTO struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	SuggestedQty decimal.Decimal `json:"suggested_qty"` // MinStock * 1.5 - CurrentStock
}

// ReconciliationResultDTO resultado de reconciliar un producto.
type ReconciliationResultDTO struct {
	ProductID     int64           `json:"product_id"`
	CachedQty     decimal.Decimal `json:"cached_qty"`
	ReplayedQty   decimal.Decimal `json:"replayed_qty"`
	MovementCount int             `json:"movement_count"`
	Consistent    bool            `json:"consistent"`
}

// ReconciliationSummaryDTO resultado de reconciliar todos los productos.
type ReconciliationSummaryDTO struct {
	CorrelationID string                    `json:"correlation_id"`
	Checked       int                       `json:"checked"`
	Mismatches    []ReconciliationResultDTO `json:"mismatches"`
	StartedAt     time.Time                 `json:"started_at"`
	FinishedAt    time.Time                 `json:"finished_at"`
}
