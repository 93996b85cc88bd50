package repository

import (
	"context"

	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
)

// LocationStockRepository define el puerto para la proyección de stock por
// ubicación. Usado dentro de transacciones para garantizar consistencia.
type LocationStockRepository interface {
	// Get devuelve la fila si existe; nil si no hay proyección para la clave.
	Get(ctx context.Context, productID, locationID, variationID string) (*entity.LocationStock, error)
	GetByID(ctx context.Context, id string) (*entity.LocationStock, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE); nil si no existe.
	GetForUpdate(ctx context.Context, productID, locationID, variationID string) (*entity.LocationStock, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.LocationStock, error)
	Upsert(ctx context.Context, stock *entity.LocationStock) error
	// ListByProduct devuelve todas las filas del producto (todas las ubicaciones).
	ListByProduct(ctx context.Context, productID string) ([]*entity.LocationStock, error)
	// ListAvailableByProduct devuelve las filas con cantidad > 0 ordenadas por
	// cantidad descendente, con desempate estable por location_id ascendente.
	ListAvailableByProduct(ctx context.Context, productID, variationID string) ([]*entity.LocationStock, error)
}
