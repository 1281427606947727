package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner unidad de trabajo en memoria: los cambios quedan en la tx hasta el commit y los
// bloqueos se liberan en cualquier salida.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repositorios atados a una tx nueva; commit si fn devuelve nil.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx()
	defer r.s.release(t)

	if err := fn(&ProductRepository{s: r.s, tx: t}, &StockMovementRepository{s: r.s, tx: t}); err != nil {
		return err
	}
	return r.s.commit(t)
}
