package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

func TestAsConflict(t *testing.T) {
	cases := []struct {
		code     string
		conflict bool
	}{
		{codeLockNotAvailable, true},
		{codeSerializationFailure, true},
		{codeDeadlockDetected, true},
		{codeUniqueViolation, false},
		{"23514", false},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			err := asConflict(fmt.Errorf("lock product: %w", &pgconn.PgError{Code: tc.code}))
			assert.Equal(t, tc.conflict, errors.Is(err, domain.ErrConcurrencyConflict))
		})
	}
	assert.NoError(t, asConflict(nil))
	plain := errors.New("boom")
	assert.Same(t, plain, asConflict(plain))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestValidID(t *testing.T) {
	assert.True(t, validID("0b6c7c3e-8f3a-4d8e-9a57-3f1f3f1f3f1f"))
	assert.False(t, validID("abc"))
}

// Un product_id que no es UUID no llega a PostgreSQL: no hay movimientos que coincidan.
func TestStockMovementRepo_ProductIDMalFormado(t *testing.T) {
	repo := NewStockMovementRepository(nil)

	list, err := repo.List(context.Background(), repository.MovementFilter{ProductID: "no-es-uuid"})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	approved, err := repo.ListApprovedByProduct(context.Background(), "abc")
	require.NoError(t, err)
	assert.Empty(t, approved)
}
