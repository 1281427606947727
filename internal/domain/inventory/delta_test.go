package inventory_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func TestSignedDelta(t *testing.T) {
	cases := []struct {
		name      string
		typ       entity.MovementType
		requested int64
		want      int64
		wantErr   error
	}{
		{"entrada", entity.MovementTypeIn, 5, 5, nil},
		{"salida", entity.MovementTypeOut, 4, -4, nil},
		{"ajuste negativo", entity.MovementTypeAdjustment, -2, -2, nil},
		{"ajuste positivo", entity.MovementTypeAdjustment, 3, 3, nil},
		{"traslado neto cero", entity.MovementTypeTransfer, 7, 0, nil},
		{"entrada cero", entity.MovementTypeIn, 0, 0, domain.ErrValidation},
		{"salida negativa", entity.MovementTypeOut, -1, 0, domain.ErrValidation},
		{"ajuste cero", entity.MovementTypeAdjustment, 0, 0, domain.ErrValidation},
		{"tipo desconocido", "scrap", 1, 0, domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := inventory.SignedDelta(tc.typ, tc.requested)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplyDelta(t *testing.T) {
	next, err := inventory.ApplyDelta(10, entity.MovementTypeOut, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), next)

	next, err = inventory.ApplyDelta(3, entity.MovementTypeOut, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), next)

	_, err = inventory.ApplyDelta(3, entity.MovementTypeOut, 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = inventory.ApplyDelta(1, entity.MovementTypeAdjustment, -2)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	next, err = inventory.ApplyDelta(8, entity.MovementTypeTransfer, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8), next)

	_, err = inventory.ApplyDelta(2, entity.MovementTypeTransfer, 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestApplyDelta_DesbordeEsValidacion(t *testing.T) {
	_, err := inventory.ApplyDelta(5, entity.MovementTypeIn, math.MaxInt64-1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = inventory.ApplyDelta(1, entity.MovementTypeAdjustment, math.MaxInt64)
	assert.ErrorIs(t, err, domain.ErrValidation)

	next, err := inventory.ApplyDelta(1, entity.MovementTypeIn, math.MaxInt64-1)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), next)
}

func TestMaquinaDeEstados(t *testing.T) {
	pending := entity.MovementStatusPending
	assert.True(t, pending.CanTransitionTo(entity.MovementStatusApproved))
	assert.True(t, pending.CanTransitionTo(entity.MovementStatusRejected))
	assert.False(t, pending.CanTransitionTo(entity.MovementStatusPending))
	assert.False(t, entity.MovementStatusApproved.CanTransitionTo(entity.MovementStatusRejected))
	assert.False(t, entity.MovementStatusRejected.CanTransitionTo(entity.MovementStatusApproved))
	assert.False(t, entity.MovementStatusRejected.CanTransitionTo(entity.MovementStatusPending))
	assert.False(t, inventory.CanTransition(entity.MovementStatusApproved, entity.MovementStatusPending))
	assert.True(t, inventory.CanTransition(pending, entity.MovementStatusRejected))
}

func TestStockMovement_TransicionUnica(t *testing.T) {
	now := time.Now()
	m := &entity.StockMovement{ID: "m1", Status: entity.MovementStatusPending}

	require.NoError(t, m.Approve("mgr", 10, 6, "", now))
	assert.Equal(t, entity.MovementStatusApproved, m.Status)
	assert.Equal(t, int64(10), *m.PreviousQuantity)
	assert.Equal(t, int64(6), *m.NewQuantity)

	err := m.Reject("mgr", "tarde", now)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, entity.MovementStatusApproved, m.Status)

	err = m.Approve("otro", 6, 2, "", now)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "mgr", *m.ApprovedBy)
}
