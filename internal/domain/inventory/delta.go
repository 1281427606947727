package inventory

import (
	"fmt"
	"math"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// SignedDelta convierte la cantidad solicitada en el cambio neto sobre el stock total del producto.
//
//	in         → +m
//	out        → −m
//	adjustment → d (con signo)
//	transfer   → 0 (mueve unidades entre ubicaciones)
func SignedDelta(t entity.MovementType, requested int64) (int64, error) {
	switch t {
	case entity.MovementTypeIn:
		if requested <= 0 {
			return 0, fmt.Errorf("%w: la cantidad de una entrada debe ser positiva", domain.ErrValidation)
		}
		return requested, nil
	case entity.MovementTypeOut:
		if requested <= 0 {
			return 0, fmt.Errorf("%w: la cantidad de una salida debe ser positiva", domain.ErrValidation)
		}
		return -requested, nil
	case entity.MovementTypeAdjustment:
		if requested == 0 {
			return 0, fmt.Errorf("%w: un ajuste no puede ser cero", domain.ErrValidation)
		}
		return requested, nil
	case entity.MovementTypeTransfer:
		if requested <= 0 {
			return 0, fmt.Errorf("%w: la cantidad de un traslado debe ser positiva", domain.ErrValidation)
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrValidation, t)
}

// ApplyDelta calcula la nueva cantidad a partir del stock actual.
// Devuelve ErrInsufficientStock si el resultado fuese negativo o si un traslado
// pide mover más unidades de las que hay, y ErrValidation si la suma desborda int64.
func ApplyDelta(current int64, t entity.MovementType, requested int64) (int64, error) {
	delta, err := SignedDelta(t, requested)
	if err != nil {
		return 0, err
	}
	if t == entity.MovementTypeTransfer && requested > current {
		return 0, fmt.Errorf("%w: traslado de %d con %d disponibles", domain.ErrInsufficientStock, requested, current)
	}
	if delta > 0 && current > math.MaxInt64-delta {
		return 0, fmt.Errorf("%w: la entrada de %d desborda el stock actual %d", domain.ErrValidation, delta, current)
	}
	next := current + delta
	if next < 0 {
		return 0, fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, current, -delta)
	}
	return next, nil
}

// CanTransition indica si la máquina de estados admite pasar de from a to.
// No hay reapertura: un movimiento terminal se corrige con otro movimiento compensatorio.
func CanTransition(from, to entity.MovementStatus) bool {
	return from.CanTransitionTo(to)
}
