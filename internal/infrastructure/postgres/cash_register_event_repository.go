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

var _ repository.CashRegisterEventRepository = (*CashRegisterEventRepo)(nil)

// CashRegisterEventRepo implementación del ledger de caja sobre PostgreSQL.
// Append-only; las lecturas de estado usan el índice (location_id, created_at desc).
type CashRegisterEventRepo struct {
	q Querier
}

// NewCashRegisterEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCashRegisterEventRepository(q Querier) *CashRegisterEventRepo {
	return &CashRegisterEventRepo{q: q}
}

const registerEventColumns = `id, type, initial_amount, current_amount, location_id, created_by, notes, created_at`

// Append anexa un evento inmutable al ledger de caja.
func (r *CashRegisterEventRepo) Append(ctx context.Context, event *entity.CashRegisterEvent) error {
	query := `
		INSERT INTO cash_register_events (id, type, initial_amount, current_amount, location_id, created_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		event.ID, event.Type, event.InitialAmount, event.CurrentAmount,
		event.LocationID, nullable(event.CreatedBy), event.Notes, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append register event: %w", err)
	}
	return nil
}

// GetLatest devuelve el evento más reciente de la ubicación; nil si no hay eventos.
func (r *CashRegisterEventRepo) GetLatest(ctx context.Context, locationID string) (*entity.CashRegisterEvent, error) {
	query := `
		SELECT ` + registerEventColumns + `
		FROM cash_register_events
		WHERE location_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return r.scanOne(ctx, query, locationID)
}

// GetLatestOpen devuelve el evento open más reciente; nil si nunca se abrió.
func (r *CashRegisterEventRepo) GetLatestOpen(ctx context.Context, locationID string) (*entity.CashRegisterEvent, error) {
	query := `
		SELECT ` + registerEventColumns + `
		FROM cash_register_events
		WHERE location_id = $1 AND type = 'open'
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return r.scanOne(ctx, query, locationID)
}

// ListByLocation lista eventos de una ubicación en un rango de fechas.
func (r *CashRegisterEventRepo) ListByLocation(ctx context.Context, locationID string, from, to *time.Time, limit, offset int) ([]*entity.CashRegisterEvent, error) {
	query := `SELECT ` + registerEventColumns + ` FROM cash_register_events WHERE location_id = $1`
	args := []any{locationID}
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

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list register events: %w", err)
	}
	defer rows.Close()
	var list []*entity.CashRegisterEvent
	for rows.Next() {
		var e entity.CashRegisterEvent
		var createdBy *string
		if err := rows.Scan(&e.ID, &e.Type, &e.InitialAmount, &e.CurrentAmount,
			&e.LocationID, &createdBy, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan register event: %w", err)
		}
		e.CreatedBy = deref(createdBy)
		list = append(list, &e)
	}
	return list, rows.Err()
}

func (r *CashRegisterEventRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.CashRegisterEvent, error) {
	var e entity.CashRegisterEvent
	var createdBy *string
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&e.ID, &e.Type, &e.InitialAmount, &e.CurrentAmount,
		&e.LocationID, &createdBy, &e.Notes, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get register event: %w", err)
	}
	e.CreatedBy = deref(createdBy)
	return &e, nil
}
