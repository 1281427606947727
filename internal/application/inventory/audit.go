package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// Reconciliation resultado de verificar el audit trail de un producto contra su stock.
type Reconciliation struct {
	ProductID         string
	InitialQuantity   int64
	ExpectedQuantity  int64 // initial + Σ deltas aprobados
	ActualQuantity    int64
	ApprovedMovements int
	Consistent        bool
	BrokenMovementID  string // primer movimiento que rompe la cadena, si hay
	Detail            string
}

// Reconcile recorre los movimientos aprobados en orden de commit y verifica que cada uno
// cuadre consigo mismo, que encadene con el anterior y que la suma final coincida con el stock.
func (l *Ledger) Reconcile(ctx context.Context, productID string) (*Reconciliation, error) {
	product, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	approved, err := l.movements.ListApprovedByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	rec := &Reconciliation{
		ProductID:         product.ID,
		InitialQuantity:   product.InitialQuantity,
		ActualQuantity:    product.StockQuantity,
		ApprovedMovements: len(approved),
		Consistent:        true,
	}
	running := product.InitialQuantity
	for _, m := range approved {
		delta, err := inventory.SignedDelta(m.Type, m.RequestedDelta)
		if err != nil {
			rec.markBroken(m.ID, fmt.Sprintf("delta inválido: %v", err))
			delta = 0
		}
		switch {
		case m.PreviousQuantity == nil || m.NewQuantity == nil:
			rec.markBroken(m.ID, "movimiento aprobado sin cantidades registradas")
		case *m.PreviousQuantity != running:
			rec.markBroken(m.ID, fmt.Sprintf("cantidad previa %d, se esperaba %d", *m.PreviousQuantity, running))
		case *m.NewQuantity != *m.PreviousQuantity+delta:
			rec.markBroken(m.ID, fmt.Sprintf("%d %+d no da %d", *m.PreviousQuantity, delta, *m.NewQuantity))
		case *m.NewQuantity < 0:
			rec.markBroken(m.ID, "cantidad resultante negativa")
		}
		running += delta
	}
	rec.ExpectedQuantity = running
	if running != product.StockQuantity && rec.Consistent {
		rec.Consistent = false
		rec.Detail = fmt.Sprintf("stock %d, el ledger suma %d", product.StockQuantity, running)
	}

	if !rec.Consistent {
		l.log.Error().
			Str("product_id", product.ID).
			Str("movement_id", rec.BrokenMovementID).
			Int64("expected", rec.ExpectedQuantity).
			Int64("actual", rec.ActualQuantity).
			Msg("conciliación fallida: " + rec.Detail)
	}
	return rec, nil
}

func (r *Reconciliation) markBroken(movementID, detail string) {
	if !r.Consistent {
		return
	}
	r.Consistent = false
	r.BrokenMovementID = movementID
	r.Detail = detail
}
