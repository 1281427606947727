package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario.
// StockQuantity solo cambia como efecto de un StockMovement aprobado; InitialQuantity es la
// cantidad con la que se creó y sirve de base para conciliar el ledger.
type Product struct {
	ID              string
	SKU             string // único, inmutable una vez asignado
	Name            string
	Description     string
	Category        string
	UnitPrice       decimal.Decimal
	StockQuantity   int64
	InitialQuantity int64
	MinStockLevel   int64
	MaxStockLevel   int64
	UnitOfMeasure   string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLowStock indica si el stock actual está en o bajo el mínimo configurado.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// StockSummary totales del inventario activo (tablero de manager).
type StockSummary struct {
	TotalProducts   int64
	LowStockItems   int64
	OutOfStockItems int64
	TotalValue      decimal.Decimal // Σ stock_quantity * unit_price
}
