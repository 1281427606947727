package postgres_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

var testPool *pgxpool.Pool

// TestMain levanta PostgreSQL en un contenedor. Con -short o sin Docker las pruebas se omiten.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stock_ledger_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres no disponible, se omiten pruebas de integración: %v\n", err)
		os.Exit(m.Run())
	}

	code := func() int {
		defer func() { _ = container.Terminate(ctx) }()
		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Fprintf(os.Stderr, "connection string: %v\n", err)
			return 1
		}
		pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
		if err != nil {
			fmt.Fprintf(os.Stderr, "pool: %v\n", err)
			return 1
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool, zerolog.Nop()); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			return 1
		}
		testPool = pool
		return m.Run()
	}()
	os.Exit(code)
}

func requirePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("sin PostgreSQL de pruebas")
	}
	_, err := testPool.Exec(context.Background(), `TRUNCATE stock_movements, products`)
	require.NoError(t, err)
	return testPool
}

func newLedger(pool *pgxpool.Pool, lockTimeout time.Duration) *inventory.Ledger {
	return inventory.NewLedger(
		postgres.NewTxRunner(pool, lockTimeout),
		postgres.NewProductRepository(pool),
		postgres.NewStockMovementRepository(pool),
		nil,
		zerolog.Nop(),
		inventory.LedgerConfig{LockRetries: 3, RetryBackoff: 10 * time.Millisecond},
	)
}

func createProduct(t *testing.T, pool *pgxpool.Pool, qty, minLevel int64) *entity.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &entity.Product{
		ID:              uuid.NewString(),
		SKU:             "SKU-" + uuid.NewString()[:8],
		Name:            "Cable UTP",
		UnitPrice:       decimal.RequireFromString("12.50"),
		StockQuantity:   qty,
		InitialQuantity: qty,
		MinStockLevel:   minLevel,
		UnitOfMeasure:   "metro",
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, postgres.NewProductRepository(pool).Create(context.Background(), p))
	return p
}

var (
	manager = entity.Actor{ID: "u-manager", Role: entity.RoleManager}
	staff   = entity.Actor{ID: "u-staff", Role: entity.RoleStaff}
)

func TestPostgres_AprobarYConciliar(t *testing.T) {
	pool := requirePool(t)
	ctx := context.Background()
	ledger := newLedger(pool, 2*time.Second)
	p := createProduct(t, pool, 10, 2)

	m, err := ledger.SubmitMovement(ctx, staff, inventory.MovementRequest{Type: "out", ProductID: p.ID, Magnitude: 4, Reason: "sale"})
	require.NoError(t, err)
	approved, err := ledger.ApproveMovement(ctx, manager, m.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(10), *approved.PreviousQuantity)
	assert.Equal(t, int64(6), *approved.NewQuantity)

	stored, err := ledger.GetMovement(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusApproved, stored.Status)
	assert.Equal(t, manager.ID, *stored.ApprovedBy)

	rec, err := ledger.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent, rec.Detail)
	assert.Equal(t, int64(6), rec.ActualQuantity)

	sum, err := postgres.NewProductRepository(pool).Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.TotalProducts)
	assert.True(t, decimal.RequireFromString("75").Equal(sum.TotalValue))
}

func TestPostgres_DobleSalidaConcurrente(t *testing.T) {
	pool := requirePool(t)
	ctx := context.Background()
	ledger := newLedger(pool, 2*time.Second)
	p := createProduct(t, pool, 5, 0)

	var ids []string
	for i := 0; i < 2; i++ {
		m, err := ledger.SubmitMovement(ctx, staff, inventory.MovementRequest{Type: "out", ProductID: p.ID, Magnitude: 5, Reason: "venta"})
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = ledger.ApproveMovement(ctx, manager, id, "")
		}(i, id)
	}
	wg.Wait()

	ok, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	got, err := postgres.NewProductRepository(pool).GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.StockQuantity)
}

func TestPostgres_LockTimeoutEsConflicto(t *testing.T) {
	pool := requirePool(t)
	ctx := context.Background()
	p := createProduct(t, pool, 5, 0)

	holder, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()
	_, err = holder.Exec(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, p.ID)
	require.NoError(t, err)

	runner := postgres.NewTxRunner(pool, 100*time.Millisecond)
	err = runner.Run(ctx, func(products repository.ProductRepository, _ repository.StockMovementRepository) error {
		_, err := products.GetForUpdate(ctx, p.ID)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestPostgres_DecideCompareAndSet(t *testing.T) {
	pool := requirePool(t)
	ctx := context.Background()
	p := createProduct(t, pool, 5, 0)
	repo := postgres.NewStockMovementRepository(pool)

	m := &entity.StockMovement{
		ID: uuid.NewString(), ProductID: p.ID, Type: entity.MovementTypeIn, RequestedDelta: 2,
		Reason: "compra", Status: entity.MovementStatusPending, CreatedBy: staff.ID, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, m))

	rejected := m.Clone()
	require.NoError(t, rejected.Reject(manager.ID, "duplicate entry", time.Now().UTC()))
	require.NoError(t, repo.Decide(ctx, rejected))

	approved := m.Clone()
	require.NoError(t, approved.Approve(manager.ID, 5, 7, "", time.Now().UTC()))
	assert.ErrorIs(t, repo.Decide(ctx, approved), domain.ErrInvalidState)

	missing := approved.Clone()
	missing.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Decide(ctx, missing), domain.ErrNotFound)

	list, err := repo.List(ctx, repository.MovementFilter{ProductID: p.ID, Status: entity.MovementStatusRejected})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "duplicate entry", list[0].DecisionReason)
	assert.Nil(t, list[0].NewQuantity)
}

func TestPostgres_SKUDuplicado(t *testing.T) {
	pool := requirePool(t)
	p := createProduct(t, pool, 1, 0)
	dup := *p
	dup.ID = uuid.NewString()
	err := postgres.NewProductRepository(pool).Create(context.Background(), &dup)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}
