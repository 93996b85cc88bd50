package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-ledger/internal/domain"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
	"github.com/tu-usuario/pos-ledger/pkg/logger"
	"github.com/tu-usuario/pos-ledger/pkg/metrics"
)

// SaleUseCase resuelve los débitos de stock por línea de venta y sus
// reversiones por anulación. Cualquier fallo aborta la transacción completa:
// el flujo de venta externo hace el borrado compensatorio del registro de
// venta parcialmente creado (mini-saga, no hay transacción multi-agregado).
type SaleUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	variationRepo repository.VariationRepository
	locationRepo  repository.LocationRepository
	log           *logger.Logger
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	variationRepo repository.VariationRepository,
	locationRepo repository.LocationRepository,
	log *logger.Logger,
) *SaleUseCase {
	return &SaleUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		variationRepo: variationRepo,
		locationRepo:  locationRepo,
		log:           log,
	}
}

// SaleDebitInput entrada para debitar stock por una línea de venta.
// LocationID vacío = venta de canal online (el resolver elige la ubicación).
type SaleDebitInput struct {
	ProductID   string
	VariationID string
	Quantity    decimal.Decimal
	LocationID  string
	SaleID      string
	ActorID     string
}

// SaleDebitResult resultado del débito: ubicación debitada y cantidades
// antes/después, para que el flujo de venta lo registre en la línea.
type SaleDebitResult struct {
	LocationID string
	Previous   decimal.Decimal
	New        decimal.Decimal
}

// RecordSaleDebit decide el canal (online o tienda física), elige la
// ubicación a debitar, descuenta la proyección bajo bloqueo de fila, anexa el
// movimiento al ledger y recalcula el agregado, todo en una transacción.
//
// Canal online: se listan las proyecciones con cantidad > 0 en orden
// descendente y se toma la primera que cubra la cantidad pedida; si ninguna
// la cubre, la de mayor cantidad (desempate estable por ubicación). Así la
// línea se satisface desde una sola ubicación siempre que sea posible.
func (uc *SaleUseCase) RecordSaleDebit(ctx context.Context, input SaleDebitInput) (*SaleDebitResult, error) {
	if !input.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	if input.SaleID == "" {
		return nil, fmt.Errorf("%w: falta el identificador de la venta", domain.ErrInvalidInput)
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, input.ProductID)
	}
	if product.IsVariable() && input.VariationID == "" {
		return nil, fmt.Errorf("%w: el producto %s es variable, indique la variación", domain.ErrInvalidInput, product.Name)
	}
	if !product.IsVariable() && input.VariationID != "" {
		return nil, fmt.Errorf("%w: el producto %s no maneja variaciones", domain.ErrInvalidInput, product.Name)
	}

	online, location, err := uc.resolveChannel(ctx, product, input.LocationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var result *SaleDebitResult
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.LocationStockRepository,
		productRepo repository.ProductRepository,
		variationRepo repository.VariationRepository,
	) error {
		txProduct, err := productRepo.GetByID(ctx, product.ID)
		if err != nil {
			return err
		}
		if txProduct == nil {
			return domain.ErrNotFound
		}
		if online {
			result, err = uc.debitOnline(ctx, movRepo, stockRepo, txProduct, input, now)
		} else {
			result, err = uc.debitPhysical(ctx, movRepo, stockRepo, txProduct, location, input, now)
		}
		if err != nil {
			return err
		}
		return recalcAggregate(ctx, txProduct, stockRepo, productRepo, variationRepo)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			metrics.InsufficientStockFailures.Inc()
		}
		return nil, err
	}

	channel := "physical"
	if online {
		channel = "online"
	}
	metrics.SaleDebits.WithLabelValues(channel).Inc()
	return result, nil
}

// ReverseSale revierte los débitos de stock ligados a (venta, producto):
// acredita cada ubicación debitada en su momento y anexa movimientos
// sale_cancellation_credit. Si no hay movimientos que revertir es un no-op
// suave (se registra en el log, no es fatal): el cambio de stock pudo venir
// de un flujo distinto a la venta. Una línea repartida entre varias
// ubicaciones se revierte completa, pierna por pierna. Las piernas ya
// acreditadas por una anulación previa no se vuelven a acreditar.
func (uc *SaleUseCase) ReverseSale(ctx context.Context, saleID, productID string, quantity decimal.Decimal, actorID string) error {
	if !quantity.IsPositive() {
		uc.log.Warn().
			Str("sale_id", saleID).
			Str("product_id", productID).
			Str("quantity", quantity.String()).
			Msg("reversión de venta con cantidad no positiva, se ignora")
		return nil
	}

	now := time.Now()
	reversed := false
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.LocationStockRepository,
		productRepo repository.ProductRepository,
		variationRepo repository.VariationRepository,
	) error {
		movements, err := movRepo.ListBySale(ctx, saleID, productID)
		if err != nil {
			return err
		}

		// Lo reversible por fila de proyección es débitos menos créditos ya
		// emitidos: una anulación repetida de la misma (venta, producto) no
		// debe volver a acreditar las mismas piernas.
		reversibleByStock := make(map[string]decimal.Decimal)
		for _, mov := range movements {
			switch {
			case entity.IsSaleDebit(mov.Type):
				reversibleByStock[mov.LocationStockID] = reversibleByStock[mov.LocationStockID].Add(mov.Quantity)
			case mov.Type == entity.MovementSaleCancelCredit:
				reversibleByStock[mov.LocationStockID] = reversibleByStock[mov.LocationStockID].Sub(mov.Quantity)
			}
		}

		remaining := quantity
		var credited []*entity.StockMovement
		for _, leg := range movements {
			if !entity.IsSaleDebit(leg.Type) {
				continue
			}
			if !remaining.IsPositive() {
				break
			}
			reversible := reversibleByStock[leg.LocationStockID]
			if !reversible.IsPositive() {
				continue
			}
			credit := leg.Quantity
			if credit.GreaterThan(reversible) {
				credit = reversible
			}
			if credit.GreaterThan(remaining) {
				credit = remaining
			}
			credited = append(credited, leg)

			if err := uc.creditLeg(ctx, movRepo, stockRepo, leg, credit, actorID, now); err != nil {
				return err
			}
			reversibleByStock[leg.LocationStockID] = reversible.Sub(credit)
			remaining = remaining.Sub(credit)
		}

		if len(credited) == 0 {
			return nil
		}
		reversed = true

		product, err := productRepo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		return recalcAggregate(ctx, product, stockRepo, productRepo, variationRepo)
	})
	if err != nil {
		return err
	}
	if !reversed {
		uc.log.Warn().
			Str("sale_id", saleID).
			Str("product_id", productID).
			Msg("sin movimientos de venta que revertir, no-op")
		return nil
	}
	metrics.SaleReversals.Inc()
	return nil
}

// debitOnline resuelve y debita la ubicación para una venta de canal online.
func (uc *SaleUseCase) debitOnline(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	stockRepo repository.LocationStockRepository,
	product *entity.Product,
	input SaleDebitInput,
	now time.Time,
) (*SaleDebitResult, error) {
	rows, err := stockRepo.ListAvailableByProduct(ctx, product.ID, input.VariationID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: producto %q sin stock en ninguna ubicación", domain.ErrInsufficientStock, product.Name)
	}

	// Orden descendente: la primera fila que cubre la cantidad es también la
	// mayor; si ninguna cubre, queda la de mayor cantidad (rows[0]).
	chosen := rows[0]
	for _, row := range rows {
		if row.Quantity.GreaterThanOrEqual(input.Quantity) {
			chosen = row
			break
		}
	}

	// Releer bajo bloqueo: otra venta concurrente pudo descontar la fila
	// entre el listado y el bloqueo.
	ls, err := stockRepo.GetByIDForUpdate(ctx, chosen.ID)
	if err != nil {
		return nil, err
	}
	if ls == nil {
		return nil, fmt.Errorf("%w: proyección de stock %s", domain.ErrNotFound, chosen.ID)
	}
	if ls.Quantity.LessThan(input.Quantity) {
		return nil, fmt.Errorf("%w: producto %q en ubicación %q", domain.ErrInsufficientStock, product.Name, ls.LocationID)
	}

	prev := ls.Quantity
	ls.Quantity = prev.Sub(input.Quantity)
	ls.UpdatedAt = now
	if err := stockRepo.Upsert(ctx, ls); err != nil {
		return nil, err
	}

	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		ProductID:       product.ID,
		VariationID:     input.VariationID,
		LocationID:      ls.LocationID,
		Type:            entity.MovementSaleOnlineDebit,
		Quantity:        input.Quantity,
		PreviousStock:   prev,
		NewStock:        ls.Quantity,
		Reason:          "venta online",
		RelatedSaleID:   input.SaleID,
		StockScope:      entity.ScopePhysicalLocation,
		LocationStockID: ls.ID,
		CreatedAt:       now,
		CreatedBy:       input.ActorID,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return &SaleDebitResult{LocationID: ls.LocationID, Previous: prev, New: ls.Quantity}, nil
}

// debitPhysical debita la ubicación pedida para una venta en tienda.
func (uc *SaleUseCase) debitPhysical(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	stockRepo repository.LocationStockRepository,
	product *entity.Product,
	location *entity.Location,
	input SaleDebitInput,
	now time.Time,
) (*SaleDebitResult, error) {
	ls, err := stockRepo.GetForUpdate(ctx, product.ID, location.ID, input.VariationID)
	if err != nil {
		return nil, err
	}
	if ls == nil {
		return nil, fmt.Errorf("%w: producto %q sin stock registrado en ubicación %q", domain.ErrNotFound, product.Name, location.Name)
	}
	if ls.Quantity.LessThan(input.Quantity) {
		return nil, fmt.Errorf("%w: producto %q en ubicación %q", domain.ErrInsufficientStock, product.Name, location.Name)
	}

	prev := ls.Quantity
	ls.Quantity = prev.Sub(input.Quantity)
	ls.UpdatedAt = now
	if err := stockRepo.Upsert(ctx, ls); err != nil {
		return nil, err
	}

	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		ProductID:       product.ID,
		VariationID:     input.VariationID,
		LocationID:      location.ID,
		Type:            entity.MovementSalePhysicalStore,
		Quantity:        input.Quantity,
		PreviousStock:   prev,
		NewStock:        ls.Quantity,
		Reason:          "venta en tienda",
		RelatedSaleID:   input.SaleID,
		StockScope:      entity.ScopePhysicalLocation,
		LocationStockID: ls.ID,
		CreatedAt:       now,
		CreatedBy:       input.ActorID,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return &SaleDebitResult{LocationID: location.ID, Previous: prev, New: ls.Quantity}, nil
}

// creditLeg acredita una pierna de débito de venta sobre la misma fila de la
// proyección que fue debitada (location_stock_ref).
func (uc *SaleUseCase) creditLeg(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	stockRepo repository.LocationStockRepository,
	leg *entity.StockMovement,
	credit decimal.Decimal,
	actorID string,
	now time.Time,
) error {
	ls, err := stockRepo.GetByIDForUpdate(ctx, leg.LocationStockID)
	if err != nil {
		return err
	}
	if ls == nil {
		return fmt.Errorf("%w: proyección de stock %s referida por el movimiento %s", domain.ErrNotFound, leg.LocationStockID, leg.ID)
	}

	prev := ls.Quantity
	ls.Quantity = prev.Add(credit)
	ls.UpdatedAt = now
	if err := stockRepo.Upsert(ctx, ls); err != nil {
		return err
	}

	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		ProductID:       leg.ProductID,
		VariationID:     leg.VariationID,
		LocationID:      leg.LocationID,
		Type:            entity.MovementSaleCancelCredit,
		Quantity:        credit,
		PreviousStock:   prev,
		NewStock:        ls.Quantity,
		Reason:          "anulación de venta",
		RelatedSaleID:   leg.RelatedSaleID,
		StockScope:      entity.ScopePhysicalLocation,
		LocationStockID: ls.ID,
		CreatedAt:       now,
		CreatedBy:       actorID,
	}
	return movRepo.Create(ctx, mov)
}

// resolveChannel decide el canal de la venta: online cuando no se pide
// ubicación física, cuando la ubicación pedida es virtual, o cuando la
// ubicación principal del producto es la virtual (producto online-first).
func (uc *SaleUseCase) resolveChannel(ctx context.Context, product *entity.Product, requestedLocationID string) (bool, *entity.Location, error) {
	if requestedLocationID == "" {
		return true, nil, nil
	}
	location, err := uc.locationRepo.GetByID(ctx, requestedLocationID)
	if err != nil {
		return false, nil, err
	}
	if location == nil {
		return false, nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, requestedLocationID)
	}
	if location.IsVirtual() {
		return true, nil, nil
	}
	if product.HomeLocationID != "" {
		home, err := uc.locationRepo.GetByID(ctx, product.HomeLocationID)
		if err != nil {
			return false, nil, err
		}
		if home != nil && home.IsVirtual() {
			return true, nil, nil
		}
	}
	return false, location, nil
}
