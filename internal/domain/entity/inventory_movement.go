package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind es el tipo de movimiento de inventario (enumeración cerrada).
type MovementKind string

// Tipos de movimiento de inventario.
const (
	MovementKindInbound    MovementKind = "entrada"
	MovementKindOutbound   MovementKind = "salida"
	MovementKindAdjustment MovementKind = "ajuste"
)

// Escala de almacenamiento de cantidades, costos y precios (NUMERIC(18,6)).
const (
	DecimalScale     = 6
	maxIntegerDigits = 12
)

var maxStorable = decimal.New(1, maxIntegerDigits)

// FitsStorage indica si el valor se guarda sin redondeo: a lo sumo 6 decimales y 12 dígitos
// enteros. Un valor que Postgres redondea haría divergir el stock guardado del ledger.
func FitsStorage(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(DecimalScale)) && v.Abs().LessThan(maxStorable)
}

// ParseMovementKind normaliza y valida el tipo. ok es false si no pertenece a la enumeración.
func ParseMovementKind(s string) (MovementKind, bool) {
	k := MovementKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case MovementKindInbound, MovementKindOutbound, MovementKindAdjustment:
		return k, true
	}
	return "", false
}

// SignedDelta devuelve el efecto sobre el stock: entrada +|q|, salida -|q|, ajuste q literal.
func (k MovementKind) SignedDelta(quantity decimal.Decimal) decimal.Decimal {
	switch k {
	case MovementKindInbound:
		return quantity.Abs()
	case MovementKindOutbound:
		return quantity.Abs().Neg()
	default:
		return quantity
	}
}

// InventoryMovement es un registro inmutable del ledger. El orden es (CreatedAt, ID).
// Quantity se guarda tal como llegó: magnitud positiva para entrada/salida, delta con signo
// para ajuste.
type InventoryMovement struct {
	ID        int64
	ProductID int64
	Kind      MovementKind
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Reason    string
	Reference string
	Note      string
	BatchID   string
	CreatedAt time.Time
}

// Delta es el cambio con signo que este movimiento aplicó al stock.
func (m *InventoryMovement) Delta() decimal.Decimal {
	return m.Kind.SignedDelta(m.Quantity)
}

// ReconciliationReport es el registro de auditoría de una inconsistencia detectada.
type ReconciliationReport struct {
	ID            int64
	CorrelationID string
	ProductID     int64
	CachedQty     decimal.Decimal
	ReplayedQty   decimal.Decimal
	Details       string
	CreatedAt     time.Time
}
