package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

func newProductUseCase() (*usecase.ProductUseCase, *memory.Store) {
	store := memory.NewStore(time.Second)
	return usecase.NewProductUseCase(store.Products()), store
}

func TestProductUseCase_Create(t *testing.T) {
	uc, _ := newProductUseCase()
	ctx := context.Background()

	out, err := uc.Create(ctx, dto.CreateProductRequest{
		SKU: " TOR-001 ", Name: "Tornillo 1/4", UnitPrice: decimal.RequireFromString("350"),
		InitialQuantity: 40, MinStockLevel: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "TOR-001", out.SKU)
	assert.Equal(t, int64(40), out.StockQuantity)
	assert.Equal(t, int64(40), out.InitialQuantity)
	assert.Equal(t, "unidad", out.UnitOfMeasure)
	assert.True(t, out.IsActive)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "TOR-001", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUseCase_CreateValidaciones(t *testing.T) {
	uc, _ := newProductUseCase()
	cases := []struct {
		name string
		in   dto.CreateProductRequest
	}{
		{"sin sku", dto.CreateProductRequest{Name: "x"}},
		{"sin nombre", dto.CreateProductRequest{SKU: "A"}},
		{"cantidad negativa", dto.CreateProductRequest{SKU: "A", Name: "x", InitialQuantity: -1}},
		{"precio negativo", dto.CreateProductRequest{SKU: "A", Name: "x", UnitPrice: decimal.NewFromInt(-1)}},
		{"mínimo mayor que máximo", dto.CreateProductRequest{SKU: "A", Name: "x", MinStockLevel: 10, MaxStockLevel: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), tc.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestProductUseCase_UpdateNoTocaStock(t *testing.T) {
	uc, _ := newProductUseCase()
	ctx := context.Background()
	created, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "A", Name: "Arandela", InitialQuantity: 7})
	require.NoError(t, err)

	name := "Arandela plana"
	inactive := false
	minLevel := int64(3)
	out, err := uc.Update(ctx, created.ID, dto.UpdateProductRequest{Name: &name, IsActive: &inactive, MinStockLevel: &minLevel})
	require.NoError(t, err)
	assert.Equal(t, "Arandela plana", out.Name)
	assert.False(t, out.IsActive)
	assert.Equal(t, int64(7), out.StockQuantity)
	assert.Equal(t, "A", out.SKU)

	_, err = uc.Update(ctx, "no-existe", dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_ListLowStockYResumen(t *testing.T) {
	uc, _ := newProductUseCase()
	ctx := context.Background()
	for _, in := range []dto.CreateProductRequest{
		{SKU: "A", Name: "A", InitialQuantity: 4, MinStockLevel: 4, UnitPrice: decimal.NewFromInt(10)},
		{SKU: "B", Name: "B", InitialQuantity: 0, MinStockLevel: 2, UnitPrice: decimal.NewFromInt(5)},
		{SKU: "C", Name: "C", InitialQuantity: 9, MinStockLevel: 1, UnitPrice: decimal.NewFromInt(1)},
	} {
		_, err := uc.Create(ctx, in)
		require.NoError(t, err)
	}

	page, err := uc.List(ctx, true, "", dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Page.Limit)

	low, err := uc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "B", low[0].SKU)

	sum, err := uc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.TotalProducts)
	assert.Equal(t, int64(2), sum.LowStockItems)
	assert.Equal(t, int64(1), sum.OutOfStockItems)
	assert.True(t, decimal.NewFromInt(49).Equal(sum.TotalValue))
}
