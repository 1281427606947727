package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/permission"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 500
)

// LedgerConfig presupuesto de reintentos ante conflictos de bloqueo y reloj inyectable.
type LedgerConfig struct {
	LockRetries  int
	RetryBackoff time.Duration
	Clock        func() time.Time
}

// Ledger es el único escritor de Product.StockQuantity. Registra movimientos en pending y solo
// los aplica al aprobarlos, dentro de una unidad de trabajo con la fila del producto bloqueada.
type Ledger struct {
	txRunner  TxRunner
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	events    EventPublisher
	log       zerolog.Logger
	cfg       LedgerConfig
}

// NewLedger construye el ledger. products y movements son los repositorios fuera de transacción
// (lecturas e inserción de pendientes).
func NewLedger(
	txRunner TxRunner,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	events EventPublisher,
	log zerolog.Logger,
	cfg LedgerConfig,
) *Ledger {
	if events == nil {
		events = NopPublisher{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.LockRetries < 0 {
		cfg.LockRetries = 0
	}
	return &Ledger{
		txRunner:  txRunner,
		products:  products,
		movements: movements,
		events:    events,
		log:       log.With().Str("component", "ledger").Logger(),
		cfg:       cfg,
	}
}

// SubmitMovement valida la solicitud y la registra en pending. No toca el stock: la suficiencia
// se evalúa al aprobar, contra la cantidad vigente en ese momento.
func (l *Ledger) SubmitMovement(ctx context.Context, actor entity.Actor, req MovementRequest) (*entity.StockMovement, error) {
	req = req.Normalize()
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrValidation, req.Type)
	}
	capability, _ := permission.CapabilityForMovement(req.Type)
	if err := authorize(actor, capability); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product, err := l.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, req.ProductID)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: producto %s inactivo", domain.ErrValidation, product.SKU)
	}

	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		ProductID:       product.ID,
		Type:            req.Type,
		RequestedDelta:  req.Magnitude,
		Reason:          req.Reason,
		ReferenceNumber: req.ReferenceNumber,
		LocationFrom:    req.LocationFrom,
		LocationTo:      req.LocationTo,
		Status:          entity.MovementStatusPending,
		CreatedBy:       actor.ID,
		CreatedAt:       l.cfg.Clock(),
	}
	if err := l.movements.Create(ctx, mov); err != nil {
		return nil, err
	}

	l.log.Info().
		Str("movement_id", mov.ID).
		Str("product_id", mov.ProductID).
		Str("type", string(mov.Type)).
		Int64("requested_delta", mov.RequestedDelta).
		Str("actor", actor.ID).
		Msg("movimiento registrado en pending")
	l.publish(ctx, MovementEvent{Type: EventMovementSubmitted, Movement: mov.Clone(), ActorID: actor.ID, OccurredAt: mov.CreatedAt})
	return mov, nil
}

// ApproveMovement aplica un movimiento pending: bloquea el movimiento y luego el producto,
// relee el stock vigente, calcula la nueva cantidad y escribe producto y movimiento en la
// misma unidad de trabajo. Si el stock no alcanza, nada se escribe y el movimiento sigue pending.
func (l *Ledger) ApproveMovement(ctx context.Context, actor entity.Actor, movementID, note string) (*entity.StockMovement, error) {
	if err := authorize(actor, permission.StockAdjust); err != nil {
		return nil, err
	}
	movementID = strings.TrimSpace(movementID)
	if movementID == "" {
		return nil, fmt.Errorf("%w: id de movimiento requerido", domain.ErrValidation)
	}

	var (
		approved *entity.StockMovement
		product  *entity.Product
	)
	err := l.withRetry(ctx, "approve", movementID, func() error {
		return l.txRunner.Run(ctx, func(productRepo repository.ProductRepository, movRepo repository.StockMovementRepository) error {
			mov, err := lockPending(ctx, movRepo, actor, movementID)
			if err != nil {
				return err
			}
			p, err := productRepo.GetForUpdate(ctx, mov.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, mov.ProductID)
			}
			next, err := inventory.ApplyDelta(p.StockQuantity, mov.Type, mov.RequestedDelta)
			if err != nil {
				return err
			}
			if err := productRepo.SetStockQuantity(ctx, p.ID, next); err != nil {
				return err
			}
			if err := mov.Approve(actor.ID, p.StockQuantity, next, strings.TrimSpace(note), l.cfg.Clock()); err != nil {
				return err
			}
			if err := movRepo.Decide(ctx, mov); err != nil {
				return err
			}
			p.StockQuantity = next
			approved, product = mov, p
			return nil
		})
	})
	if err != nil {
		l.logRefusal(err, "approve", movementID, actor)
		return nil, err
	}

	l.log.Info().
		Str("movement_id", approved.ID).
		Str("product_id", approved.ProductID).
		Str("type", string(approved.Type)).
		Int64("previous_quantity", *approved.PreviousQuantity).
		Int64("new_quantity", *approved.NewQuantity).
		Str("actor", actor.ID).
		Msg("movimiento aprobado")
	l.publish(ctx, MovementEvent{Type: EventMovementApproved, Movement: approved.Clone(), Product: product, ActorID: actor.ID, OccurredAt: *approved.DecidedAt})
	if product.IsActive && product.IsLowStock() {
		l.publish(ctx, MovementEvent{Type: EventProductLowStock, Movement: approved.Clone(), Product: product, ActorID: actor.ID, OccurredAt: *approved.DecidedAt})
	}
	return approved, nil
}

// RejectMovement cierra un movimiento pending sin tocar el producto.
func (l *Ledger) RejectMovement(ctx context.Context, actor entity.Actor, movementID, reason string) (*entity.StockMovement, error) {
	if err := authorize(actor, permission.StockAdjust); err != nil {
		return nil, err
	}
	movementID = strings.TrimSpace(movementID)
	reason = strings.TrimSpace(reason)
	if movementID == "" {
		return nil, fmt.Errorf("%w: id de movimiento requerido", domain.ErrValidation)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: el motivo del rechazo es requerido", domain.ErrValidation)
	}

	var rejected *entity.StockMovement
	err := l.withRetry(ctx, "reject", movementID, func() error {
		return l.txRunner.Run(ctx, func(_ repository.ProductRepository, movRepo repository.StockMovementRepository) error {
			mov, err := lockPending(ctx, movRepo, actor, movementID)
			if err != nil {
				return err
			}
			if err := mov.Reject(actor.ID, reason, l.cfg.Clock()); err != nil {
				return err
			}
			if err := movRepo.Decide(ctx, mov); err != nil {
				return err
			}
			rejected = mov
			return nil
		})
	})
	if err != nil {
		l.logRefusal(err, "reject", movementID, actor)
		return nil, err
	}

	l.log.Info().
		Str("movement_id", rejected.ID).
		Str("product_id", rejected.ProductID).
		Str("reason", reason).
		Str("actor", actor.ID).
		Msg("movimiento rechazado")
	l.publish(ctx, MovementEvent{Type: EventMovementRejected, Movement: rejected.Clone(), ActorID: actor.ID, OccurredAt: *rejected.DecidedAt})
	return rejected, nil
}

// QueryMovements consulta el audit trail, más recientes primero.
func (l *Ledger) QueryMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	filter, err := NormalizeMovementFilter(filter)
	if err != nil {
		return nil, err
	}
	list, err := l.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*entity.StockMovement{}
	}
	return list, nil
}

// NormalizeMovementFilter valida el filtro y aplica la paginación efectiva
// (límite por defecto 50, máximo 500, offset no negativo).
func NormalizeMovementFilter(filter repository.MovementFilter) (repository.MovementFilter, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, fmt.Errorf("%w: estado %q", domain.ErrValidation, filter.Status)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return filter, fmt.Errorf("%w: tipo %q", domain.ErrValidation, filter.Type)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return filter, fmt.Errorf("%w: rango de fechas invertido", domain.ErrValidation)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultQueryLimit
	}
	if filter.Limit > maxQueryLimit {
		filter.Limit = maxQueryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter, nil
}

// GetMovement devuelve un movimiento por ID.
func (l *Ledger) GetMovement(ctx context.Context, movementID string) (*entity.StockMovement, error) {
	mov, err := l.movements.GetByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, movementID)
	}
	return mov, nil
}

// lockPending bloquea el movimiento y verifica que siga pending y que el actor pueda operar su tipo.
func lockPending(ctx context.Context, movRepo repository.StockMovementRepository, actor entity.Actor, movementID string) (*entity.StockMovement, error) {
	mov, err := movRepo.GetForUpdate(ctx, movementID)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, movementID)
	}
	if mov.Status != entity.MovementStatusPending {
		return nil, fmt.Errorf("%w: movimiento %s está %s", domain.ErrInvalidState, mov.ID, mov.Status)
	}
	capability, ok := permission.CapabilityForMovement(mov.Type)
	if !ok {
		return nil, fmt.Errorf("%w: tipo %q", domain.ErrInvalidState, mov.Type)
	}
	if err := authorize(actor, capability); err != nil {
		return nil, err
	}
	return mov, nil
}

// authorize falla cerrado: actor sin ID o rol sin la capacidad ⇒ ErrPermissionDenied.
func authorize(actor entity.Actor, capability permission.Capability) error {
	if actor.ID == "" {
		return fmt.Errorf("%w: actor no identificado", domain.ErrPermissionDenied)
	}
	if !permission.HasPermission(actor.Role, capability) {
		return fmt.Errorf("%w: el rol %q no tiene %s", domain.ErrPermissionDenied, actor.Role, capability)
	}
	return nil
}

// withRetry repite fn mientras falle por conflicto de bloqueo, hasta LockRetries reintentos
// con espera lineal. Agotado el presupuesto devuelve ErrConcurrencyConflict.
func (l *Ledger) withRetry(ctx context.Context, op, movementID string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= l.cfg.LockRetries; attempt++ {
		err = fn()
		if !domain.IsRetryable(err) {
			return err
		}
		l.log.Warn().
			Err(err).
			Str("op", op).
			Str("movement_id", movementID).
			Int("attempt", attempt+1).
			Msg("conflicto de bloqueo")
		if attempt == l.cfg.LockRetries {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, ctx.Err())
		case <-time.After(l.cfg.RetryBackoff * time.Duration(attempt+1)):
		}
	}
	return err
}

func (l *Ledger) publish(ctx context.Context, ev MovementEvent) {
	if err := l.events.Publish(ctx, ev); err != nil {
		l.log.Warn().Err(err).Str("event", ev.Type).Msg("publicar evento")
	}
}

// logRefusal registra los rechazos de negocio a nivel info y el resto como error.
func (l *Ledger) logRefusal(err error, op, movementID string, actor entity.Actor) {
	evt := l.log.Error()
	switch {
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation):
		evt = l.log.Info()
	case errors.Is(err, domain.ErrConcurrencyConflict):
		evt = l.log.Warn()
	}
	evt.Err(err).Str("op", op).Str("movement_id", movementID).Str("actor", actor.ID).Msg("operación no aplicada")
}
