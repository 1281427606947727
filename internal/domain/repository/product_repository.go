package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID/GetForUpdate devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// SetStockQuantity solo se invoca desde la aprobación de un movimiento.
	SetStockQuantity(ctx context.Context, id string, quantity int64) error
	// Update modifica los datos descriptivos; nunca SKU, stock ni cantidad inicial.
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	ListLowStock(ctx context.Context) ([]*entity.Product, error)
	Summary(ctx context.Context) (*entity.StockSummary, error)
}

// ProductFilter filtro de listado de productos.
type ProductFilter struct {
	ActiveOnly bool
	Category   string
	Limit      int
	Offset     int
}
