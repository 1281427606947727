package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepository)(nil)

// StockMovementRepository audit trail en memoria.
type StockMovementRepository struct {
	s  *Store
	tx *tx
}

// Create inserta un movimiento nuevo.
func (r *StockMovementRepository) Create(_ context.Context, movement *entity.StockMovement) error {
	if r.tx != nil {
		if _, ok := r.tx.movements[movement.ID]; ok {
			return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, movement.ID)
		}
		r.tx.movements[movement.ID] = movement.Clone()
		r.tx.newMovs[movement.ID] = true
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.movements[movement.ID]; ok {
		return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, movement.ID)
	}
	r.s.movements[movement.ID] = movement.Clone()
	if movement.Status.Terminal() {
		r.s.seq++
		r.s.decided[movement.ID] = r.s.seq
	}
	return nil
}

// GetByID devuelve una copia, o (nil, nil) si no existe.
func (r *StockMovementRepository) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	return r.current(id), nil
}

// GetForUpdate toma el bloqueo del movimiento hasta el fin de la tx.
func (r *StockMovementRepository) GetForUpdate(ctx context.Context, id string) (*entity.StockMovement, error) {
	if r.tx != nil {
		if err := r.s.lock(ctx, r.tx, movementKey(id)); err != nil {
			return nil, err
		}
	}
	return r.current(id), nil
}

// Decide registra la transición terminal solo si el movimiento sigue en pending.
func (r *StockMovementRepository) Decide(_ context.Context, movement *entity.StockMovement) error {
	if !movement.Status.Terminal() {
		return fmt.Errorf("%w: decisión con estado %s", domain.ErrInvalidState, movement.Status)
	}
	if r.tx != nil {
		cur := r.current(movement.ID)
		if cur == nil {
			return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, movement.ID)
		}
		if cur.Status != entity.MovementStatusPending {
			return fmt.Errorf("%w: movimiento %s ya está %s", domain.ErrInvalidState, movement.ID, cur.Status)
		}
		r.tx.movements[movement.ID] = movement.Clone()
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.movements[movement.ID]
	if !ok {
		return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, movement.ID)
	}
	if cur.Status != entity.MovementStatusPending {
		return fmt.Errorf("%w: movimiento %s ya está %s", domain.ErrInvalidState, movement.ID, cur.Status)
	}
	r.s.movements[movement.ID] = movement.Clone()
	r.s.seq++
	r.s.decided[movement.ID] = r.s.seq
	return nil
}

// List más recientes primero (created_at DESC, id DESC).
func (r *StockMovementRepository) List(_ context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	list := r.s.movementSnapshot(func(m *entity.StockMovement) bool {
		switch {
		case filter.ProductID != "" && m.ProductID != filter.ProductID:
			return false
		case filter.Status != "" && m.Status != filter.Status:
			return false
		case filter.Type != "" && m.Type != filter.Type:
			return false
		case filter.CreatedBy != "" && m.CreatedBy != filter.CreatedBy:
			return false
		case filter.From != nil && m.CreatedAt.Before(*filter.From):
			return false
		case filter.To != nil && m.CreatedAt.After(*filter.To):
			return false
		}
		return true
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return page(list, filter.Limit, filter.Offset), nil
}

// ListApprovedByProduct aprobados del producto en orden de commit.
func (r *StockMovementRepository) ListApprovedByProduct(_ context.Context, productID string) ([]*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID == productID && m.Status == entity.MovementStatusApproved {
			list = append(list, m.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return r.s.decided[list[i].ID] < r.s.decided[list[j].ID]
	})
	return list, nil
}

func (r *StockMovementRepository) current(id string) *entity.StockMovement {
	if r.tx != nil {
		if m, ok := r.tx.movements[id]; ok {
			return m.Clone()
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.movements[id].Clone()
}

func (s *Store) movementSnapshot(keep func(m *entity.StockMovement) bool) []*entity.StockMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*entity.StockMovement, 0, len(s.movements))
	for _, m := range s.movements {
		if keep(m) {
			list = append(list, m.Clone())
		}
	}
	return list
}
