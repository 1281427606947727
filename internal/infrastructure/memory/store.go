// Package memory implementa los puertos del ledger en memoria: mismo contrato que el
// adaptador PostgreSQL (bloqueos exclusivos con espera acotada, commit atómico, CAS sobre
// pending) para ejecutar el servicio sin base de datos y para las pruebas.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// DefaultLockWait espera máxima por un bloqueo, equivalente al lock_timeout de PostgreSQL.
const DefaultLockWait = 2 * time.Second

// Store datos confirmados más la tabla de bloqueos por fila.
type Store struct {
	mu        sync.RWMutex
	products  map[string]*entity.Product
	movements map[string]*entity.StockMovement
	decided   map[string]uint64 // orden de commit de las decisiones
	seq       uint64

	locks    *lockTable
	lockWait time.Duration
}

// NewStore crea un store vacío. lockWait <= 0 usa DefaultLockWait.
func NewStore(lockWait time.Duration) *Store {
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	return &Store{
		products:  make(map[string]*entity.Product),
		movements: make(map[string]*entity.StockMovement),
		decided:   make(map[string]uint64),
		locks:     newLockTable(),
		lockWait:  lockWait,
	}
}

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{s: s}
}

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *StockMovementRepository {
	return &StockMovementRepository{s: s}
}

// tx cambios pendientes de una unidad de trabajo y bloqueos tomados.
type tx struct {
	held      map[string]bool
	products  map[string]*entity.Product
	patches   map[string][]func(p *entity.Product) // cambios por columna sobre productos existentes
	newProds  map[string]bool
	movements map[string]*entity.StockMovement
	newMovs   map[string]bool
}

func newTx() *tx {
	return &tx{
		held:      make(map[string]bool),
		products:  make(map[string]*entity.Product),
		patches:   make(map[string][]func(p *entity.Product)),
		newProds:  make(map[string]bool),
		movements: make(map[string]*entity.StockMovement),
		newMovs:   make(map[string]bool),
	}
}

func (s *Store) lock(ctx context.Context, t *tx, key string) error {
	if t.held[key] {
		return nil
	}
	if err := s.locks.acquire(ctx, key, s.lockWait); err != nil {
		return err
	}
	t.held[key] = true
	return nil
}

func (s *Store) release(t *tx) {
	for key := range t.held {
		s.locks.release(key)
	}
	t.held = nil
}

// commit aplica la unidad de trabajo completa o nada.
func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.newProds {
		p := t.products[id]
		if _, ok := s.products[id]; ok || s.skuTaken(p.SKU, id) {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, p.SKU)
		}
	}
	for id := range t.patches {
		if _, ok := s.products[id]; !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
	}
	for id, m := range t.movements {
		if t.newMovs[id] {
			if _, ok := s.movements[id]; ok {
				return fmt.Errorf("%w: movimiento %s", domain.ErrDuplicate, id)
			}
			continue
		}
		cur, ok := s.movements[id]
		if !ok {
			return fmt.Errorf("%w: movimiento %s", domain.ErrNotFound, id)
		}
		if m.Status.Terminal() && cur.Status != entity.MovementStatusPending {
			return fmt.Errorf("%w: movimiento %s ya está %s", domain.ErrInvalidState, id, cur.Status)
		}
	}

	for id := range t.newProds {
		s.products[id] = t.products[id]
	}
	// Sobre filas existentes solo se reaplican las columnas tocadas, como un UPDATE ... SET:
	// las ediciones confirmadas fuera de la tx no se pisan.
	for id, patches := range t.patches {
		p := cloneProduct(s.products[id])
		for _, apply := range patches {
			apply(p)
		}
		s.products[id] = p
	}
	for id, m := range t.movements {
		if m.Status.Terminal() && (t.newMovs[id] || s.movements[id].Status == entity.MovementStatusPending) {
			s.seq++
			s.decided[id] = s.seq
		}
		s.movements[id] = m
	}
	return nil
}

func (s *Store) skuTaken(sku, exceptID string) bool {
	for id, p := range s.products {
		if id != exceptID && p.SKU == sku {
			return true
		}
	}
	return false
}

// lockTable un canal de capacidad 1 por clave: enviar es tomar, recibir es liberar.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (lt *lockTable) slot(key string) chan struct{} {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	ch, ok := lt.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		lt.slots[key] = ch
	}
	return ch
}

func (lt *lockTable) acquire(ctx context.Context, key string, wait time.Duration) error {
	ch := lt.slot(key)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: espera por %s agotada", domain.ErrConcurrencyConflict, key)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (lt *lockTable) release(key string) {
	<-lt.slot(key)
}

func productKey(id string) string  { return "product:" + id }
func movementKey(id string) string { return "movement:" + id }

func cloneProduct(p *entity.Product) *entity.Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
