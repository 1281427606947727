package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para movimientos de stock (DIP).
// La tabla es el audit trail: solo se inserta y se decide una vez.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// GetForUpdate bloquea la fila del movimiento hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.StockMovement, error)
	// Decide persiste la transición terminal solo si el registro sigue en pending
	// (compare-and-set); si no, devuelve domain.ErrInvalidState.
	Decide(ctx context.Context, movement *entity.StockMovement) error
	// List devuelve los movimientos más recientes primero.
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	// ListApprovedByProduct devuelve los aprobados en orden de commit.
	ListApprovedByProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error)
}

// MovementFilter filtro de consulta del audit trail. Campos vacíos no filtran.
type MovementFilter struct {
	ProductID string
	Status    entity.MovementStatus
	Type      entity.MovementType
	CreatedBy string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
