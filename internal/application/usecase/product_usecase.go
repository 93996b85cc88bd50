package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-ledger/internal/application/dto"
	"github.com/tu-usuario/pos-ledger/internal/domain"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

// ProductUseCase CRUD de productos y variaciones (colaboradores del motor de stock).
type ProductUseCase struct {
	productRepo   repository.ProductRepository
	variationRepo repository.VariationRepository
	locationRepo  repository.LocationRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	productRepo repository.ProductRepository,
	variationRepo repository.VariationRepository,
	locationRepo repository.LocationRepository,
) *ProductUseCase {
	return &ProductUseCase{productRepo: productRepo, variationRepo: variationRepo, locationRepo: locationRepo}
}

// Create valida y persiste un producto nuevo. El stock agregado inicia en 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.SKU == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	productType := in.Type
	if productType == "" {
		productType = entity.ProductTypeSimple
	}
	if productType != entity.ProductTypeSimple && productType != entity.ProductTypeVariable {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.productRepo.GetBySKU(ctx, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if in.HomeLocationID != "" {
		home, err := uc.locationRepo.GetByID(ctx, in.HomeLocationID)
		if err != nil {
			return nil, err
		}
		if home == nil {
			return nil, domain.ErrNotFound
		}
	}
	now := time.Now()
	product := &entity.Product{
		ID:             uuid.New().String(),
		SKU:            in.SKU,
		Name:           in.Name,
		Type:           productType,
		HomeLocationID: in.HomeLocationID,
		AggregateStock: decimal.Zero,
		Price:          in.Price,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID devuelve el producto o ErrNotFound.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) ([]*dto.ProductResponse, error) {
	products, err := uc.productRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

// CreateVariation agrega una variación a un producto variable.
func (uc *ProductUseCase) CreateVariation(ctx context.Context, productID string, in dto.CreateVariationRequest) (*dto.VariationResponse, error) {
	if in.SKU == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if !product.IsVariable() {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	variation := &entity.ProductVariation{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		SKU:       in.SKU,
		Name:      in.Name,
		Stock:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.variationRepo.Create(ctx, variation); err != nil {
		return nil, err
	}
	return toVariationResponse(variation), nil
}

// ListVariations lista las variaciones de un producto.
func (uc *ProductUseCase) ListVariations(ctx context.Context, productID string) ([]*dto.VariationResponse, error) {
	variations, err := uc.variationRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.VariationResponse, 0, len(variations))
	for _, v := range variations {
		out = append(out, toVariationResponse(v))
	}
	return out, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		Type:           p.Type,
		HomeLocationID: p.HomeLocationID,
		AggregateStock: p.AggregateStock,
		Price:          p.Price,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toVariationResponse(v *entity.ProductVariation) *dto.VariationResponse {
	return &dto.VariationResponse{
		ID:        v.ID,
		ProductID: v.ProductID,
		SKU:       v.SKU,
		Name:      v.Name,
		Stock:     v.Stock,
	}
}
