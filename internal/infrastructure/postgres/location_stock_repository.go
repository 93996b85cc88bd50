package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

var _ repository.LocationStockRepository = (*LocationStockRepo)(nil)

// LocationStockRepo implementación de la proyección de stock por ubicación
// sobre PostgreSQL (usable con pool o tx).
type LocationStockRepo struct {
	q Querier
}

// NewLocationStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationStockRepository(q Querier) *LocationStockRepo {
	return &LocationStockRepo{q: q}
}

const locationStockColumns = `id, product_id, location_id, variation_id, quantity, updated_at`

// Get obtiene la fila de la proyección para la clave; nil si no existe.
func (r *LocationStockRepo) Get(ctx context.Context, productID, locationID, variationID string) (*entity.LocationStock, error) {
	query := `
		SELECT ` + locationStockColumns + `
		FROM location_stock
		WHERE product_id = $1 AND location_id = $2 AND COALESCE(variation_id, '') = $3`
	return r.scanOne(ctx, query, productID, locationID, variationID)
}

// GetByID obtiene una fila por ID; nil si no existe.
func (r *LocationStockRepo) GetByID(ctx context.Context, id string) (*entity.LocationStock, error) {
	query := `SELECT ` + locationStockColumns + ` FROM location_stock WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetForUpdate obtiene la fila y la bloquea (SELECT FOR UPDATE); nil si no existe.
func (r *LocationStockRepo) GetForUpdate(ctx context.Context, productID, locationID, variationID string) (*entity.LocationStock, error) {
	query := `
		SELECT ` + locationStockColumns + `
		FROM location_stock
		WHERE product_id = $1 AND location_id = $2 AND COALESCE(variation_id, '') = $3
		FOR UPDATE`
	return r.scanOne(ctx, query, productID, locationID, variationID)
}

// GetByIDForUpdate obtiene una fila por ID y la bloquea; nil si no existe.
func (r *LocationStockRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.LocationStock, error) {
	query := `SELECT ` + locationStockColumns + ` FROM location_stock WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

// Upsert inserta o actualiza la cantidad para la clave (producto, ubicación, variación).
func (r *LocationStockRepo) Upsert(ctx context.Context, stock *entity.LocationStock) error {
	query := `
		INSERT INTO location_stock (id, product_id, location_id, variation_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (product_id, location_id, COALESCE(variation_id, ''))
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	variationID := (*string)(nil)
	if stock.VariationID != "" {
		variationID = &stock.VariationID
	}
	_, err := r.q.Exec(ctx, query, stock.ID, stock.ProductID, stock.LocationID, variationID, stock.Quantity)
	if err != nil {
		return fmt.Errorf("upsert location stock: %w", err)
	}
	return nil
}

// ListByProduct lista todas las filas del producto (todas las ubicaciones y variaciones).
func (r *LocationStockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.LocationStock, error) {
	query := `
		SELECT ` + locationStockColumns + `
		FROM location_stock WHERE product_id = $1
		ORDER BY location_id`
	return r.scanMany(ctx, query, productID)
}

// ListAvailableByProduct lista las filas con cantidad > 0 en orden
// descendente por cantidad, con desempate estable por location_id. Este
// orden es el contrato del resolver de ventas online: mayor primero para
// satisfacer la línea desde una sola ubicación siempre que sea posible.
func (r *LocationStockRepo) ListAvailableByProduct(ctx context.Context, productID, variationID string) ([]*entity.LocationStock, error) {
	query := `
		SELECT ` + locationStockColumns + `
		FROM location_stock
		WHERE product_id = $1 AND COALESCE(variation_id, '') = $2 AND quantity > 0
		ORDER BY quantity DESC, location_id`
	return r.scanMany(ctx, query, productID, variationID)
}

func (r *LocationStockRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.LocationStock, error) {
	var s entity.LocationStock
	var variationID *string
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.ProductID, &s.LocationID, &variationID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location stock: %w", err)
	}
	if variationID != nil {
		s.VariationID = *variationID
	}
	return &s, nil
}

func (r *LocationStockRepo) scanMany(ctx context.Context, query string, args ...any) ([]*entity.LocationStock, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list location stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.LocationStock
	for rows.Next() {
		var s entity.LocationStock
		var variationID *string
		if err := rows.Scan(&s.ID, &s.ProductID, &s.LocationID, &variationID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location stock: %w", err)
		}
		if variationID != nil {
			s.VariationID = *variationID
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
