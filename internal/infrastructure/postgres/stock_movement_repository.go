package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del ledger de stock sobre PostgreSQL.
// Append-only: el adaptador no expone Update ni Delete.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, variation_id, location_id, type, quantity,
	previous_stock, new_stock, reason, related_sale_id, stock_scope,
	location_stock_id, created_at, created_by`

// Create anexa una fila inmutable al ledger.
func (r *StockMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, variation_id, location_id, type, quantity,
			previous_stock, new_stock, reason, related_sale_id, stock_scope,
			location_stock_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		movement.ID, movement.ProductID, nullable(movement.VariationID), nullable(movement.LocationID),
		movement.Type, movement.Quantity, movement.PreviousStock, movement.NewStock,
		movement.Reason, nullable(movement.RelatedSaleID), movement.StockScope,
		nullable(movement.LocationStockID), movement.CreatedAt, nullable(movement.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID; nil si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// ListBySale lista los movimientos ligados a (venta, producto) en orden de
// creación. Una línea de venta repartida entre ubicaciones produce varias filas.
func (r *StockMovementRepo) ListBySale(ctx context.Context, saleID, productID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE related_sale_id = $1 AND product_id = $2
		ORDER BY created_at, id`
	return r.scanMany(ctx, query, saleID, productID)
}

// ListByProduct lista movimientos de un producto en un rango de fechas.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = $1`
	return r.listFiltered(ctx, query, productID, from, to, limit, offset)
}

// ListByLocation lista movimientos de una ubicación en un rango de fechas.
func (r *StockMovementRepo) ListByLocation(ctx context.Context, locationID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE location_id = $1`
	return r.listFiltered(ctx, query, locationID, from, to, limit, offset)
}

func (r *StockMovementRepo) listFiltered(ctx context.Context, query, key string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	args := []any{key}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	return r.scanMany(ctx, query, args...)
}

func (r *StockMovementRepo) scanMany(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var variationID, locationID, relatedSaleID, locationStockID, createdBy *string
	err := row.Scan(
		&m.ID, &m.ProductID, &variationID, &locationID, &m.Type, &m.Quantity,
		&m.PreviousStock, &m.NewStock, &m.Reason, &relatedSaleID, &m.StockScope,
		&locationStockID, &m.CreatedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan stock movement: %w", err)
	}
	m.VariationID = deref(variationID)
	m.LocationID = deref(locationID)
	m.RelatedSaleID = deref(relatedSaleID)
	m.LocationStockID = deref(locationStockID)
	m.CreatedBy = deref(createdBy)
	return &m, nil
}
