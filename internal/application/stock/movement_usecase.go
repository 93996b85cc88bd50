package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-ledger/internal/domain"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
	"github.com/tu-usuario/pos-ledger/pkg/metrics"
)

// MovementUseCase registra movimientos manuales de stock (manual_in,
// manual_out, adjustment, transfer) de forma transaccional, con bloqueo de
// fila (SELECT FOR UPDATE) sobre la proyección y recalculo del agregado en la
// misma transacción.
type MovementUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	variationRepo repository.VariationRepository
	locationRepo  repository.LocationRepository
	stockRepo     repository.LocationStockRepository
	movRepo       repository.StockMovementRepository
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	variationRepo repository.VariationRepository,
	locationRepo repository.LocationRepository,
	stockRepo repository.LocationStockRepository,
	movRepo repository.StockMovementRepository,
) *MovementUseCase {
	return &MovementUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		variationRepo: variationRepo,
		locationRepo:  locationRepo,
		stockRepo:     stockRepo,
		movRepo:       movRepo,
	}
}

// MovementInput entrada para registrar un movimiento manual.
// LocationID vacío = contexto agregado (afecta directamente el stock virtual).
// Quantity debe ser positiva; solo adjustment admite negativa (corrección a la baja).
type MovementInput struct {
	ProductID   string
	VariationID string
	LocationID  string
	Type        string // manual_in, manual_out, adjustment
	Quantity    decimal.Decimal
	Reason      string
	ActorID     string
}

// TransferInput entrada para un traslado entre ubicaciones físicas.
type TransferInput struct {
	ProductID      string
	VariationID    string
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
	Reason         string
	ActorID        string
}

// RecordMovement valida la entrada, abre una transacción, bloquea la
// proyección afectada, calcula previous/new, escribe la proyección, anexa la
// fila inmutable al ledger y recalcula el agregado del producto.
func (uc *MovementUseCase) RecordMovement(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	switch input.Type {
	case entity.MovementManualIn, entity.MovementManualOut, entity.MovementAdjustment:
	default:
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, input.Type)
	}
	if input.Quantity.IsZero() {
		return nil, fmt.Errorf("%w: la cantidad debe ser distinta de cero", domain.ErrInvalidInput)
	}
	if input.Quantity.IsNegative() && input.Type != entity.MovementAdjustment {
		return nil, fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}

	product, location, err := uc.resolveTarget(ctx, input.ProductID, input.VariationID, input.LocationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var created *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.LocationStockRepository,
		productRepo repository.ProductRepository,
		variationRepo repository.VariationRepository,
	) error {
		magnitude := input.Quantity.Abs()
		credit := input.Type == entity.MovementManualIn ||
			(input.Type == entity.MovementAdjustment && input.Quantity.IsPositive())

		// Releer el producto dentro de la tx: el agregado almacenado puede
		// haber cambiado desde la validación.
		txProduct, err := productRepo.GetByID(ctx, product.ID)
		if err != nil {
			return err
		}
		if txProduct == nil {
			return domain.ErrNotFound
		}

		if input.LocationID == "" {
			created, err = uc.applyAggregateScope(ctx, movRepo, productRepo, variationRepo, txProduct, input, magnitude, credit, now)
			return err
		}

		mov, err := applyLocationMovement(ctx, stockRepo, movRepo, locationMovementParams{
			product:     txProduct,
			location:    location,
			variationID: input.VariationID,
			movType:     input.Type,
			magnitude:   magnitude,
			credit:      credit,
			reason:      input.Reason,
			actorID:     input.ActorID,
			now:         now,
		})
		if err != nil {
			return err
		}
		created = mov
		return recalcAggregate(ctx, txProduct, stockRepo, productRepo, variationRepo)
	})
	if err != nil {
		return nil, err
	}
	metrics.StockMovements.WithLabelValues(input.Type).Inc()
	return created, nil
}

// Transfer traslada stock entre dos ubicaciones físicas en una sola
// transacción: resta en origen (transfer_out) y suma en destino (transfer_in),
// con dos filas en el ledger y el mismo reason.
func (uc *MovementUseCase) Transfer(ctx context.Context, input TransferInput) error {
	if !input.Quantity.IsPositive() {
		return fmt.Errorf("%w: la cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	if input.FromLocationID == "" || input.ToLocationID == "" || input.FromLocationID == input.ToLocationID {
		return fmt.Errorf("%w: origen y destino deben ser ubicaciones distintas", domain.ErrInvalidInput)
	}
	product, from, err := uc.resolveTarget(ctx, input.ProductID, input.VariationID, input.FromLocationID)
	if err != nil {
		return err
	}
	to, err := uc.locationRepo.GetByID(ctx, input.ToLocationID)
	if err != nil {
		return err
	}
	if to == nil {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, input.ToLocationID)
	}
	if to.IsVirtual() {
		return fmt.Errorf("%w: no se puede trasladar stock a una ubicación virtual", domain.ErrInvalidInput)
	}

	now := time.Now()
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
		if _, err := applyLocationMovement(ctx, stockRepo, movRepo, locationMovementParams{
			product:     txProduct,
			location:    from,
			variationID: input.VariationID,
			movType:     entity.MovementTransferOut,
			magnitude:   input.Quantity,
			credit:      false,
			reason:      input.Reason,
			actorID:     input.ActorID,
			now:         now,
		}); err != nil {
			return err
		}
		if _, err := applyLocationMovement(ctx, stockRepo, movRepo, locationMovementParams{
			product:     txProduct,
			location:    to,
			variationID: input.VariationID,
			movType:     entity.MovementTransferIn,
			magnitude:   input.Quantity,
			credit:      true,
			reason:      input.Reason,
			actorID:     input.ActorID,
			now:         now,
		}); err != nil {
			return err
		}
		return recalcAggregate(ctx, txProduct, stockRepo, productRepo, variationRepo)
	})
	if err != nil {
		return err
	}
	metrics.StockMovements.WithLabelValues(entity.MovementTransferOut).Inc()
	metrics.StockMovements.WithLabelValues(entity.MovementTransferIn).Inc()
	return nil
}

// GetLocationStock devuelve la cantidad actual del producto en la ubicación.
// Si no existe proyección devuelve 0 (nunca falla por ausencia).
func (uc *MovementUseCase) GetLocationStock(ctx context.Context, productID, locationID, variationID string) (decimal.Decimal, error) {
	row, err := uc.stockRepo.Get(ctx, productID, locationID, variationID)
	if err != nil {
		return decimal.Zero, err
	}
	if row == nil {
		return decimal.Zero, nil
	}
	return row.Quantity, nil
}

// GetAggregateStock devuelve el stock agregado ("online") del producto.
func (uc *MovementUseCase) GetAggregateStock(ctx context.Context, productID string) (decimal.Decimal, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if product == nil {
		return decimal.Zero, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	return product.AggregateStock, nil
}

// Recalculate fuerza el recálculo del agregado del producto. Idempotente:
// sin mutaciones intermedias no cambia nada.
func (uc *MovementUseCase) Recalculate(ctx context.Context, productID string) error {
	return uc.txRunner.Run(ctx, func(
		_ repository.StockMovementRepository,
		stockRepo repository.LocationStockRepository,
		productRepo repository.ProductRepository,
		variationRepo repository.VariationRepository,
	) error {
		product, err := productRepo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}
		return recalcAggregate(ctx, product, stockRepo, productRepo, variationRepo)
	})
}

// ListByProduct lista el historial del ledger para un producto.
func (uc *MovementUseCase) ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return uc.movRepo.ListByProduct(ctx, productID, from, to, limit, offset)
}

// ListByLocation lista el historial del ledger para una ubicación.
func (uc *MovementUseCase) ListByLocation(ctx context.Context, locationID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return uc.movRepo.ListByLocation(ctx, locationID, from, to, limit, offset)
}

// resolveTarget valida producto, variación y ubicación de un movimiento.
func (uc *MovementUseCase) resolveTarget(ctx context.Context, productID, variationID, locationID string) (*entity.Product, *entity.Location, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	if product.IsVariable() && variationID == "" {
		return nil, nil, fmt.Errorf("%w: el producto %s es variable, indique la variación", domain.ErrInvalidInput, product.Name)
	}
	if !product.IsVariable() && variationID != "" {
		return nil, nil, fmt.Errorf("%w: el producto %s no maneja variaciones", domain.ErrInvalidInput, product.Name)
	}
	if variationID != "" {
		variation, err := uc.variationRepo.GetByID(ctx, variationID)
		if err != nil {
			return nil, nil, err
		}
		if variation == nil || variation.ProductID != product.ID {
			return nil, nil, fmt.Errorf("%w: variación %s", domain.ErrNotFound, variationID)
		}
	}
	if locationID == "" {
		return product, nil, nil
	}
	location, err := uc.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, nil, err
	}
	if location == nil {
		return nil, nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, locationID)
	}
	if location.IsVirtual() {
		return nil, nil, fmt.Errorf("%w: la ubicación %s es virtual, no almacena stock físico", domain.ErrInvalidInput, location.Name)
	}
	return product, location, nil
}

// applyAggregateScope aplica un movimiento en contexto agregado (sin
// ubicación): afecta directamente el stock virtual del producto o de la
// variación, sin pasar por la proyección por ubicación.
func (uc *MovementUseCase) applyAggregateScope(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	variationRepo repository.VariationRepository,
	product *entity.Product,
	input MovementInput,
	magnitude decimal.Decimal,
	credit bool,
	now time.Time,
) (*entity.StockMovement, error) {
	var prev decimal.Decimal
	if input.VariationID != "" {
		variation, err := variationRepo.GetByID(ctx, input.VariationID)
		if err != nil {
			return nil, err
		}
		if variation == nil {
			return nil, domain.ErrNotFound
		}
		prev = variation.Stock
	} else {
		prev = product.AggregateStock
	}

	next := prev.Add(magnitude)
	if !credit {
		if prev.LessThan(magnitude) {
			return nil, fmt.Errorf("%w: producto %q (stock agregado)", domain.ErrInsufficientStock, product.Name)
		}
		next = prev.Sub(magnitude)
	}

	if input.VariationID != "" {
		if err := variationRepo.UpdateStock(ctx, input.VariationID, next); err != nil {
			return nil, err
		}
		// El agregado del producto variable es la suma de sus variaciones.
		variations, err := variationRepo.ListByProduct(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		total := decimal.Zero
		for _, v := range variations {
			total = total.Add(v.Stock)
		}
		if !total.Equal(product.AggregateStock) {
			if err := productRepo.UpdateAggregateStock(ctx, product.ID, total); err != nil {
				return nil, err
			}
			product.AggregateStock = total
		}
	} else {
		if err := productRepo.UpdateAggregateStock(ctx, product.ID, next); err != nil {
			return nil, err
		}
		product.AggregateStock = next
	}

	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     product.ID,
		VariationID:   input.VariationID,
		Type:          input.Type,
		Quantity:      magnitude,
		PreviousStock: prev,
		NewStock:      next,
		Reason:        input.Reason,
		StockScope:    entity.ScopeAggregate,
		CreatedAt:     now,
		CreatedBy:     input.ActorID,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// locationMovementParams parámetros de un movimiento contra una ubicación física.
type locationMovementParams struct {
	product       *entity.Product
	location      *entity.Location
	variationID   string
	movType       string
	magnitude     decimal.Decimal
	credit        bool
	reason        string
	relatedSaleID string
	actorID       string
	now           time.Time
}

// applyLocationMovement bloquea (o crea) la fila de la proyección, aplica el
// delta y anexa la fila inmutable al ledger. No recalcula el agregado: eso es
// responsabilidad del caller dentro de la misma tx.
func applyLocationMovement(
	ctx context.Context,
	stockRepo repository.LocationStockRepository,
	movRepo repository.StockMovementRepository,
	p locationMovementParams,
) (*entity.StockMovement, error) {
	ls, err := stockRepo.GetForUpdate(ctx, p.product.ID, p.location.ID, p.variationID)
	if err != nil {
		return nil, err
	}
	prev := decimal.Zero
	if ls == nil {
		// Primera vez que el producto llega a esta ubicación: se crea la proyección.
		ls = &entity.LocationStock{
			ID:          uuid.New().String(),
			ProductID:   p.product.ID,
			LocationID:  p.location.ID,
			VariationID: p.variationID,
			Quantity:    decimal.Zero,
		}
	} else {
		prev = ls.Quantity
	}

	next := prev.Add(p.magnitude)
	if !p.credit {
		if prev.LessThan(p.magnitude) {
			return nil, fmt.Errorf("%w: producto %q en ubicación %q", domain.ErrInsufficientStock, p.product.Name, p.location.Name)
		}
		next = prev.Sub(p.magnitude)
	}
	ls.Quantity = next
	ls.UpdatedAt = p.now
	if err := stockRepo.Upsert(ctx, ls); err != nil {
		return nil, err
	}

	mov := &entity.StockMovement{
		ID:              uuid.New().String(),
		ProductID:       p.product.ID,
		VariationID:     p.variationID,
		LocationID:      p.location.ID,
		Type:            p.movType,
		Quantity:        p.magnitude,
		PreviousStock:   prev,
		NewStock:        next,
		Reason:          p.reason,
		RelatedSaleID:   p.relatedSaleID,
		StockScope:      entity.ScopePhysicalLocation,
		LocationStockID: ls.ID,
		CreatedAt:       p.now,
		CreatedBy:       p.actorID,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}
