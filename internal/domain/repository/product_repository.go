package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los métodos de lectura devuelven (nil, nil) cuando el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	// UpdateStock escribe la proyección de stock; solo la usa el motor de inventario dentro de tx.
	UpdateStock(ctx context.Context, id int64, quantity decimal.Decimal) error
	UpdateMinStock(ctx context.Context, id int64, minStock decimal.Decimal) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	// ListAll devuelve todos los productos no eliminados, ordenados por ID.
	ListAll(ctx context.Context) ([]*entity.Product, error)
	ListBelowMinimum(ctx context.Context) ([]*entity.Product, error)
}
