package repository

import (
	"context"

	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
)

// LocationRepository define el puerto de persistencia para ubicaciones.
// GetForUpdate bloquea la fila de la ubicación (SELECT FOR UPDATE) y es la
// pieza que serializa las escrituras del ledger de caja por ubicación.
type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Location, error)
	List(ctx context.Context) ([]*entity.Location, error)
}
