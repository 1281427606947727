package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CreateProductRequest entrada para crear un producto. InitialQuantity es el stock de apertura.
type CreateProductRequest struct {
	SKU             string          `json:"sku" validate:"required,min=1,max=100"`
	Name            string          `json:"name" validate:"required,min=1,max=200"`
	Description     string          `json:"description" validate:"max=2000"`
	Category        string          `json:"category" validate:"max=100"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	InitialQuantity int64           `json:"initial_quantity" validate:"min=0"`
	MinStockLevel   int64           `json:"min_stock_level" validate:"min=0"`
	MaxStockLevel   int64           `json:"max_stock_level" validate:"min=0"`
	UnitOfMeasure   string          `json:"unit_of_measure" validate:"max=30"`
}

// UpdateProductRequest entrada para actualizar un producto (sin SKU ni stock).
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description" validate:"omitempty,max=2000"`
	Category      *string          `json:"category" validate:"omitempty,max=100"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	MinStockLevel *int64           `json:"min_stock_level" validate:"omitempty,min=0"`
	MaxStockLevel *int64           `json:"max_stock_level" validate:"omitempty,min=0"`
	UnitOfMeasure *string          `json:"unit_of_measure" validate:"omitempty,max=30"`
	IsActive      *bool            `json:"is_active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	StockQuantity   int64           `json:"stock_quantity"`
	InitialQuantity int64           `json:"initial_quantity"`
	MinStockLevel   int64           `json:"min_stock_level"`
	MaxStockLevel   int64           `json:"max_stock_level"`
	UnitOfMeasure   string          `json:"unit_of_measure"`
	IsActive        bool            `json:"is_active"`
	LowStock        bool            `json:"low_stock"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// StockSummaryResponse totales del inventario activo.
type StockSummaryResponse struct {
	TotalProducts   int64           `json:"total_products"`
	LowStockItems   int64           `json:"low_stock_items"`
	OutOfStockItems int64           `json:"out_of_stock_items"`
	TotalValue      decimal.Decimal `json:"total_value"`
}

// ToProductResponse mapea entidad a DTO.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		UnitPrice:       p.UnitPrice,
		StockQuantity:   p.StockQuantity,
		InitialQuantity: p.InitialQuantity,
		MinStockLevel:   p.MinStockLevel,
		MaxStockLevel:   p.MaxStockLevel,
		UnitOfMeasure:   p.UnitOfMeasure,
		IsActive:        p.IsActive,
		LowStock:        p.IsLowStock(),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ToProductResponses mapea una lista.
func ToProductResponses(list []*entity.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, ToProductResponse(p))
	}
	return out
}
