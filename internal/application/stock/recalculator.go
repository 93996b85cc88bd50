package stock

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

// recalcAggregate recalcula el stock agregado ("online") del producto y lo
// escribe solo si difiere del valor almacenado (idempotente, seguro de llamar
// redundantemente). Debe ejecutarse dentro de la misma transacción que la
// mutación que lo disparó.
//
// Producto simple:   agregado = SUM(location_stock.quantity) del producto.
// Producto variable: stock de cada variación = SUM de sus filas en
// location_stock; agregado = SUM(stock de variaciones).
func recalcAggregate(
	ctx context.Context,
	product *entity.Product,
	stockRepo repository.LocationStockRepository,
	productRepo repository.ProductRepository,
	variationRepo repository.VariationRepository,
) error {
	rows, err := stockRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("recalcular agregado: %w", err)
	}

	if !product.IsVariable() {
		total := decimal.Zero
		for _, row := range rows {
			total = total.Add(row.Quantity)
		}
		if total.Equal(product.AggregateStock) {
			return nil
		}
		if err := productRepo.UpdateAggregateStock(ctx, product.ID, total); err != nil {
			return fmt.Errorf("actualizar stock agregado: %w", err)
		}
		product.AggregateStock = total
		return nil
	}

	// Variable: agrupar por variación, luego sumar variaciones.
	perVariation := make(map[string]decimal.Decimal)
	for _, row := range rows {
		perVariation[row.VariationID] = perVariation[row.VariationID].Add(row.Quantity)
	}
	variations, err := variationRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("listar variaciones: %w", err)
	}
	total := decimal.Zero
	for _, v := range variations {
		sum := perVariation[v.ID]
		if !sum.Equal(v.Stock) {
			if err := variationRepo.UpdateStock(ctx, v.ID, sum); err != nil {
				return fmt.Errorf("actualizar stock de variación %s: %w", v.ID, err)
			}
			v.Stock = sum
		}
		total = total.Add(v.Stock)
	}
	if total.Equal(product.AggregateStock) {
		return nil
	}
	if err := productRepo.UpdateAggregateStock(ctx, product.ID, total); err != nil {
		return fmt.Errorf("actualizar stock agregado: %w", err)
	}
	product.AggregateStock = total
	return nil
}
