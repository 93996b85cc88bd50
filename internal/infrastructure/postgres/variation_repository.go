package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-ledger/internal/domain"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

var _ repository.VariationRepository = (*VariationRepo)(nil)

// VariationRepo implementación de VariationRepository sobre PostgreSQL.
type VariationRepo struct {
	q Querier
}

// NewVariationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVariationRepository(q Querier) *VariationRepo {
	return &VariationRepo{q: q}
}

// Create persiste una variación. Devuelve ErrDuplicate si el SKU ya existe.
func (r *VariationRepo) Create(ctx context.Context, variation *entity.ProductVariation) error {
	query := `
		INSERT INTO product_variations (id, product_id, sku, name, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		variation.ID, variation.ProductID, variation.SKU, variation.Name,
		variation.Stock, variation.CreatedAt, variation.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create variation: %w", err)
	}
	return nil
}

// GetByID obtiene una variación por ID; nil si no existe.
func (r *VariationRepo) GetByID(ctx context.Context, id string) (*entity.ProductVariation, error) {
	query := `
		SELECT id, product_id, sku, name, stock, created_at, updated_at
		FROM product_variations WHERE id = $1`
	var v entity.ProductVariation
	err := r.q.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Stock, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variation: %w", err)
	}
	return &v, nil
}

// ListByProduct lista las variaciones de un producto.
func (r *VariationRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.ProductVariation, error) {
	query := `
		SELECT id, product_id, sku, name, stock, created_at, updated_at
		FROM product_variations WHERE product_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductVariation
	for rows.Next() {
		var v entity.ProductVariation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.Stock, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}

// UpdateStock escribe el stock agregado propio de la variación.
func (r *VariationRepo) UpdateStock(ctx context.Context, variationID string, stock decimal.Decimal) error {
	query := `UPDATE product_variations SET stock = $2, updated_at = now() WHERE id = $1`
	_, err := r.q.Exec(ctx, query, variationID, stock)
	if err != nil {
		return fmt.Errorf("update variation stock: %w", err)
	}
	return nil
}
