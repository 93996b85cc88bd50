package register

import (
	"context"

	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con
// repositorios atados a esa tx. Las escrituras del ledger de caja se
// serializan por ubicación bloqueando la fila de la ubicación
// (SELECT FOR UPDATE) dentro de la transacción.
type TxRunner interface {
	RunRegister(ctx context.Context, fn func(
		eventRepo repository.CashRegisterEventRepository,
		locationRepo repository.LocationRepository,
	) error) error
}
