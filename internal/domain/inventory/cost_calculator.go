package inventory

import "github.com/shopspring/decimal"

// Balance es el saldo corrido del kardex: cantidad, costo unitario promedio y valor.
type Balance struct {
	Qty      decimal.Decimal
	UnitCost decimal.Decimal
	Value    decimal.Decimal
}

// AverageCost implementa el costo promedio ponderado (servicio de dominio).
// CostoPromedio = ValorSaldo / CantidadSaldo; 0 cuando la cantidad es 0.
// La división usa decimal.DivisionPrecision y no se redondea durante la reconstrucción.
func AverageCost(value, qty decimal.Decimal) decimal.Decimal {
	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return value.Div(qty)
}

// receive suma una entrada al saldo al costo de adquisición y devuelve el valor de la entrada.
func (b *Balance) receive(qty, unitCost decimal.Decimal) decimal.Decimal {
	value := qty.Mul(unitCost)
	b.Value = b.Value.Add(value)
	b.Qty = b.Qty.Add(qty)
	b.UnitCost = AverageCost(b.Value, b.Qty)
	return value
}

// issue descuenta una salida al costo promedio previo y devuelve el valor cargado.
// Si la salida agota el saldo se carga el valor completo, así el saldo agotado queda en 0.
func (b *Balance) issue(qty decimal.Decimal) decimal.Decimal {
	var value decimal.Decimal
	if qty.Equal(b.Qty) {
		value = b.Value
	} else {
		value = qty.Mul(b.UnitCost)
	}
	b.Value = decimal.Max(decimal.Zero, b.Value.Sub(value))
	b.Qty = decimal.Max(decimal.Zero, b.Qty.Sub(qty))
	b.UnitCost = AverageCost(b.Value, b.Qty)
	return value
}
