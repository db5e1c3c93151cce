package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. El stock inicia en 0 y solo cambia vía movimientos.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	IsService   bool            `json:"is_service"`
	UnitMeasure string          `json:"unit_measure" validate:"omitempty,max=20"`
	MinStock    decimal.Decimal `json:"min_stock"`
}

// SetMinStockRequest body para PUT /api/products/:id/min-stock.
type SetMinStockRequest struct {
	MinStock decimal.Decimal `json:"min_stock"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Cost          decimal.Decimal `json:"cost"`
	IsService     bool            `json:"is_service"`
	UnitMeasure   string          `json:"unit_measure"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	MinStock      decimal.Decimal `json:"min_stock"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
