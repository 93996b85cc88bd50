package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación de LocationRepository sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// Create persiste una ubicación.
func (r *LocationRepo) Create(ctx context.Context, location *entity.Location) error {
	query := `
		INSERT INTO locations (id, name, address, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		location.ID, location.Name, location.Address, location.Type,
		location.CreatedAt, location.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// GetByID obtiene una ubicación por ID; nil si no existe.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	query := `
		SELECT id, name, address, type, created_at, updated_at
		FROM locations WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetForUpdate obtiene la ubicación y bloquea la fila (SELECT FOR UPDATE).
// Serializa las escrituras del ledger de caja de la ubicación.
func (r *LocationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Location, error) {
	query := `
		SELECT id, name, address, type, created_at, updated_at
		FROM locations WHERE id = $1
		FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

// List lista todas las ubicaciones.
func (r *LocationRepo) List(ctx context.Context) ([]*entity.Location, error) {
	query := `
		SELECT id, name, address, type, created_at, updated_at
		FROM locations ORDER BY name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.Type, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

func (r *LocationRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.Location, error) {
	var l entity.Location
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&l.ID, &l.Name, &l.Address, &l.Type, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}
