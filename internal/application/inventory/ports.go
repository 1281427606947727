package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una unidad de trabajo, pasando repositorios atados a ella.
// Commit si fn devuelve nil; Rollback en cualquier otra salida. Los fallos al obtener bloqueos
// se reportan como domain.ErrConcurrencyConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// Tipos de evento emitidos tras cada commit del ledger.
const (
	EventMovementSubmitted = "movement.submitted"
	EventMovementApproved  = "movement.approved"
	EventMovementRejected  = "movement.rejected"
	EventProductLowStock   = "product.low_stock"
)

// MovementEvent notificación de una transición ya confirmada.
type MovementEvent struct {
	Type       string
	Movement   *entity.StockMovement
	Product    *entity.Product // presente en approved y low_stock
	ActorID    string
	OccurredAt time.Time
}

// EventPublisher difunde eventos a tableros (WebSocket) u otros servicios (Redis).
// Un error al publicar no revierte la operación: el audit trail ya es la fuente de verdad.
type EventPublisher interface {
	Publish(ctx context.Context, event MovementEvent) error
}

// NopPublisher descarta los eventos.
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, MovementEvent) error { return nil }

// MultiPublisher reenvía a varios publicadores; devuelve el primer error pero intenta todos.
type MultiPublisher []EventPublisher

// Publish reenvía el evento a cada publicador.
func (m MultiPublisher) Publish(ctx context.Context, event MovementEvent) error {
	var first error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
