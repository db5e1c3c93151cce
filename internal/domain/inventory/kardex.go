package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// ValuationEntry es una fila del kardex: el movimiento y el saldo después de aplicarlo.
// UnitCost es el costo de adquisición en entradas y el promedio actualizado en salidas.
type ValuationEntry struct {
	MovementID int64
	Date       time.Time
	Kind       entity.MovementKind
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	Value      decimal.Decimal
	Reference  string
	Balance    Balance
}

// Replay reconstruye el kardex por promedio ponderado a partir de un saldo inicial y de los
// movimientos ya ordenados por (CreatedAt, ID). Es una función pura: misma entrada, misma salida.
//
// Una salida (o ajuste no positivo) mayor que el saldo en cantidad no puede venir de un ledger
// escrito bajo bloqueo de fila; se reporta como *domain.IntegrityMismatchError.
func Replay(productID int64, opening Balance, movements []entity.InventoryMovement) ([]ValuationEntry, Balance, error) {
	bal := opening
	entries := make([]ValuationEntry, 0, len(movements))
	for i := range movements {
		m := &movements[i]
		delta := m.Delta()
		entry := ValuationEntry{
			MovementID: m.ID,
			Date:       m.CreatedAt,
			Kind:       m.Kind,
			Reference:  m.Reference,
		}
		if m.Kind == entity.MovementKindInbound || (m.Kind == entity.MovementKindAdjustment && delta.IsPositive()) {
			entry.Quantity = delta
			entry.Value = bal.receive(delta, m.UnitCost)
			entry.UnitCost = m.UnitCost
		} else {
			qty := delta.Abs()
			if qty.GreaterThan(bal.Qty) {
				return nil, bal, &domain.IntegrityMismatchError{
					ProductID: productID,
					Cached:    bal.Qty,
					Replayed:  bal.Qty.Sub(qty),
					Reason:    fmt.Sprintf("el movimiento %d supera el saldo disponible", m.ID),
				}
			}
			entry.Quantity = qty
			entry.Value = bal.issue(qty)
			entry.UnitCost = bal.UnitCost
		}
		entry.Balance = bal
		entries = append(entries, entry)
	}
	return entries, bal, nil
}

// ReplayQuantity suma los deltas con signo en orden, con piso en 0 en cada paso.
// Es la reconstrucción que debe coincidir con Product.StockQuantity.
func ReplayQuantity(movements []entity.InventoryMovement) decimal.Decimal {
	qty := decimal.Zero
	for i := range movements {
		qty = decimal.Max(decimal.Zero, qty.Add(movements[i].Delta()))
	}
	return qty
}
