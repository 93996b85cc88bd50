package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/pos-ledger/internal/application/register"
	"github.com/tu-usuario/pos-ledger/internal/application/stock"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

// Ensure TxRunner implements stock.TxRunner and register.TxRunner.
var _ stock.TxRunner = (*TxRunner)(nil)
var _ register.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. Es la
// pieza que cierra la carrera read-then-write sobre la proyección de stock y
// el ledger de caja: cada mutación bloquea su fila (SELECT FOR UPDATE) dentro
// de la transacción y los concurrentes esperan el commit.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con los repos de stock atados a la
// tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.LocationStockRepository,
	productRepo repository.ProductRepository,
	variationRepo repository.VariationRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	movRepo := NewStockMovementRepository(tx)
	stockRepo := NewLocationStockRepository(tx)
	productRepo := NewProductRepository(tx)
	variationRepo := NewVariationRepository(tx)

	if err := fn(movRepo, stockRepo, productRepo, variationRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
