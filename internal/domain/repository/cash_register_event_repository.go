package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
)

// CashRegisterEventRepository define el puerto de persistencia del ledger de
// caja (append-only). El estado de la caja se deriva siempre del último
// evento; requiere índice (location_id, created_at desc).
type CashRegisterEventRepository interface {
	Append(ctx context.Context, event *entity.CashRegisterEvent) error
	// GetLatest devuelve el evento más reciente de la ubicación; nil si no hay eventos.
	GetLatest(ctx context.Context, locationID string) (*entity.CashRegisterEvent, error)
	// GetLatestOpen devuelve el evento open más reciente de la ubicación; nil si nunca se abrió.
	GetLatestOpen(ctx context.Context, locationID string) (*entity.CashRegisterEvent, error)
	ListByLocation(ctx context.Context, locationID string, from, to *time.Time, limit, offset int) ([]*entity.CashRegisterEvent, error)
}
