package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository productos en memoria. Con tx nil cada escritura se confirma al instante.
// Los listados leen solo datos confirmados.
type ProductRepository struct {
	s  *Store
	tx *tx
}

// Create inserta el producto; SKU repetido ⇒ domain.ErrDuplicate.
func (r *ProductRepository) Create(_ context.Context, product *entity.Product) error {
	if r.tx != nil {
		for _, p := range r.tx.products {
			if p.SKU == product.SKU {
				return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, product.SKU)
			}
		}
		r.tx.products[product.ID] = cloneProduct(product)
		r.tx.newProds[product.ID] = true
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[product.ID]; ok || r.s.skuTaken(product.SKU, product.ID) {
		return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, product.SKU)
	}
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

// GetByID devuelve una copia, o (nil, nil) si no existe.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.current(id), nil
}

// GetForUpdate toma el bloqueo del producto hasta el fin de la tx.
func (r *ProductRepository) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if r.tx != nil {
		if err := r.s.lock(ctx, r.tx, productKey(id)); err != nil {
			return nil, err
		}
	}
	return r.current(id), nil
}

// SetStockQuantity fija la cantidad en existencia.
func (r *ProductRepository) SetStockQuantity(_ context.Context, id string, quantity int64) error {
	now := time.Now()
	return r.write(id, func(p *entity.Product) {
		p.StockQuantity = quantity
		p.UpdatedAt = now
	})
}

// Update modifica solo los datos descriptivos.
func (r *ProductRepository) Update(_ context.Context, product *entity.Product) error {
	upd := *product
	return r.write(upd.ID, func(p *entity.Product) {
		p.Name = upd.Name
		p.Description = upd.Description
		p.Category = upd.Category
		p.UnitPrice = upd.UnitPrice
		p.MinStockLevel = upd.MinStockLevel
		p.MaxStockLevel = upd.MaxStockLevel
		p.UnitOfMeasure = upd.UnitOfMeasure
		p.IsActive = upd.IsActive
		p.UpdatedAt = upd.UpdatedAt
	})
}

// List ordena por nombre y SKU.
func (r *ProductRepository) List(_ context.Context, filter repository.ProductFilter) ([]*entity.Product, error) {
	list := r.s.snapshot(func(p *entity.Product) bool {
		if filter.ActiveOnly && !p.IsActive {
			return false
		}
		return filter.Category == "" || strings.EqualFold(p.Category, filter.Category)
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].SKU < list[j].SKU
	})
	return page(list, filter.Limit, filter.Offset), nil
}

// ListLowStock productos activos en o bajo su mínimo; los más críticos primero.
func (r *ProductRepository) ListLowStock(_ context.Context) ([]*entity.Product, error) {
	list := r.s.snapshot(func(p *entity.Product) bool {
		return p.IsActive && p.IsLowStock()
	})
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := stockRatio(list[i]), stockRatio(list[j])
		if ri != rj {
			return ri < rj
		}
		return list[i].SKU < list[j].SKU
	})
	return list, nil
}

// Summary totales sobre productos activos.
func (r *ProductRepository) Summary(_ context.Context) (*entity.StockSummary, error) {
	sum := &entity.StockSummary{TotalValue: decimal.Zero}
	for _, p := range r.s.snapshot(func(p *entity.Product) bool { return p.IsActive }) {
		sum.TotalProducts++
		if p.IsLowStock() {
			sum.LowStockItems++
		}
		if p.StockQuantity == 0 {
			sum.OutOfStockItems++
		}
		sum.TotalValue = sum.TotalValue.Add(p.UnitPrice.Mul(decimal.NewFromInt(p.StockQuantity)))
	}
	return sum, nil
}

func (r *ProductRepository) current(id string) *entity.Product {
	if r.tx != nil {
		if p, ok := r.tx.products[id]; ok {
			return cloneProduct(p)
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneProduct(r.s.products[id])
}

func (r *ProductRepository) write(id string, apply func(p *entity.Product)) error {
	if r.tx != nil {
		p := r.current(id)
		if p == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
		}
		apply(p)
		r.tx.products[id] = p
		if !r.tx.newProds[id] {
			r.tx.patches[id] = append(r.tx.patches[id], apply)
		}
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := cloneProduct(r.s.products[id])
	if p == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	apply(p)
	r.s.products[id] = p
	return nil
}

func (s *Store) snapshot(keep func(p *entity.Product) bool) []*entity.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*entity.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			list = append(list, cloneProduct(p))
		}
	}
	return list
}

// stockRatio stock/mínimo; sin mínimo va primero, igual que NULLS FIRST en SQL.
func stockRatio(p *entity.Product) float64 {
	if p.MinStockLevel <= 0 {
		return -1
	}
	return float64(p.StockQuantity) / float64(p.MinStockLevel)
}

func page[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return []T{}
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
