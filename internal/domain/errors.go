package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrInvalidMovementKind = errors.New("tipo de movimiento inválido")
	ErrNotStockable        = errors.New("el producto es un servicio y no maneja stock")
	ErrIntegrityMismatch   = errors.New("inconsistencia entre el kardex y el stock en caché")
)

// InsufficientStockError detalla un rechazo por stock insuficiente.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	ProductID int64
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %d: disponible %s, solicitado %s",
		e.ProductID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IntegrityMismatchError describe una diferencia entre el stock cacheado y la reconstrucción
// desde el ledger, o una salida que supera el saldo durante la reconstrucción.
// errors.Is(err, ErrIntegrityMismatch) es verdadero.
type IntegrityMismatchError struct {
	ProductID int64
	Cached    decimal.Decimal
	Replayed  decimal.Decimal
	Reason    string
}

func (e *IntegrityMismatchError) Error() string {
	msg := fmt.Sprintf("inconsistencia de inventario en producto %d: cacheado %s, reconstruido %s",
		e.ProductID, e.Cached.String(), e.Replayed.String())
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *IntegrityMismatchError) Unwrap() error { return ErrIntegrityMismatch }
