package stock

import (
	"context"

	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Toda mutación de stock (proyección + ledger +
// recalculo del agregado) ocurre dentro de una sola transacción, con bloqueo
// de fila (SELECT FOR UPDATE) sobre la proyección afectada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.LocationStockRepository,
		productRepo repository.ProductRepository,
		variationRepo repository.VariationRepository,
	) error) error
}
