package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del ledger de
// stock (append-only: sin Update ni Delete).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// ListBySale devuelve los movimientos ligados a (venta, producto) en orden
	// de creación ascendente. Una línea de venta puede generar más de un
	// débito si se repartió entre ubicaciones.
	ListBySale(ctx context.Context, saleID, productID string) ([]*entity.StockMovement, error)
	ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListByLocation(ctx context.Context, locationID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
}
