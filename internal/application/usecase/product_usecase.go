package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/validator"
)

const defaultUnitOfMeasure = "unidad"

// ProductUseCase casos de uso del catálogo. El stock solo cambia vía movimientos aprobados.
type ProductUseCase struct {
	repo repository.ProductRepository
	now  func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, now: time.Now}
}

// Create crea un producto con su cantidad de apertura (stock_quantity = initial_quantity).
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}
	if err := checkLevels(in.UnitPrice, in.MinStockLevel, in.MaxStockLevel); err != nil {
		return nil, err
	}
	if in.UnitOfMeasure == "" {
		in.UnitOfMeasure = defaultUnitOfMeasure
	}
	now := uc.now()
	product := &entity.Product{
		ID:              uuid.New().String(),
		SKU:             in.SKU,
		Name:            in.Name,
		Description:     in.Description,
		Category:        strings.TrimSpace(in.Category),
		UnitPrice:       in.UnitPrice,
		StockQuantity:   in.InitialQuantity,
		InitialQuantity: in.InitialQuantity,
		MinStockLevel:   in.MinStockLevel,
		MaxStockLevel:   in.MaxStockLevel,
		UnitOfMeasure:   in.UnitOfMeasure,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	out := dto.ToProductResponse(product)
	return &out, nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.ToProductResponse(product)
	return &out, nil
}

// Update actualiza los datos descriptivos. SKU, stock y cantidad inicial no se tocan.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
	}
	if in.UnitPrice != nil {
		product.UnitPrice = *in.UnitPrice
	}
	if in.MinStockLevel != nil {
		product.MinStockLevel = *in.MinStockLevel
	}
	if in.MaxStockLevel != nil {
		product.MaxStockLevel = *in.MaxStockLevel
	}
	if in.UnitOfMeasure != nil {
		product.UnitOfMeasure = *in.UnitOfMeasure
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if err := checkLevels(product.UnitPrice, product.MinStockLevel, product.MaxStockLevel); err != nil {
		return nil, err
	}
	product.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	out := dto.ToProductResponse(product)
	return &out, nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, activeOnly bool, category string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	if err := validate(page); err != nil {
		return nil, err
	}
	list, err := uc.repo.List(ctx, repository.ProductFilter{
		ActiveOnly: activeOnly,
		Category:   strings.TrimSpace(category),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &dto.ProductListResponse{
		Items: dto.ToProductResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// LowStock productos activos en o bajo su mínimo, los más críticos primero.
func (uc *ProductUseCase) LowStock(ctx context.Context) ([]dto.ProductResponse, error) {
	list, err := uc.repo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToProductResponses(list), nil
}

// Summary totales del inventario activo para el tablero de manager.
func (uc *ProductUseCase) Summary(ctx context.Context) (*dto.StockSummaryResponse, error) {
	s, err := uc.repo.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.StockSummaryResponse{
		TotalProducts:   s.TotalProducts,
		LowStockItems:   s.LowStockItems,
		OutOfStockItems: s.OutOfStockItems,
		TotalValue:      s.TotalValue,
	}, nil
}

func (uc *ProductUseCase) get(ctx context.Context, id string) (*entity.Product, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	return product, nil
}

func validate(in any) error {
	errs, err := validator.Struct(in)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, validator.Join(errs))
	}
	return nil
}

func checkLevels(price decimal.Decimal, minLevel, maxLevel int64) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: unit_price no puede ser negativo", domain.ErrValidation)
	}
	if maxLevel > 0 && minLevel > maxLevel {
		return fmt.Errorf("%w: min_stock_level mayor que max_stock_level", domain.ErrValidation)
	}
	return nil
}
