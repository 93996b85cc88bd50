package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

// Run inicia una transacción con los repos del ledger de caja (implementa
// register.TxRunner; el bloqueo por ubicación lo hace el caso de uso con
// LocationRepository.GetForUpdate).
func (r *TxRunner) RunRegister(ctx context.Context, fn func(
	eventRepo repository.CashRegisterEventRepository,
	locationRepo repository.LocationRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventRepo := NewCashRegisterEventRepository(tx)
	locationRepo := NewLocationRepository(tx)

	if err := fn(eventRepo, locationRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
