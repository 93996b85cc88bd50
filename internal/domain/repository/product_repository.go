package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// UpdateAggregateStock escribe el stock agregado denormalizado del producto.
	UpdateAggregateStock(ctx context.Context, productID string, stock decimal.Decimal) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
}

// VariationRepository define el puerto de persistencia para variaciones de producto.
type VariationRepository interface {
	Create(ctx context.Context, variation *entity.ProductVariation) error
	GetByID(ctx context.Context, id string) (*entity.ProductVariation, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.ProductVariation, error)
	// UpdateStock escribe el stock agregado propio de la variación.
	UpdateStock(ctx context.Context, variationID string, stock decimal.Decimal) error
}
