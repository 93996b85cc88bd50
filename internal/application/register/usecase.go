package register

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

// Policy políticas explícitas del ledger de caja.
// AllowMovementsWhenClosed reproduce el comportamiento histórico: add/remove/
// adjustment se aceptan aunque la última operación de la ubicación sea un
// cierre (correcciones retroactivas). Con false, esas operaciones fallan con
// ErrRegisterNotOpen.
type Policy struct {
	AllowMovementsWhenClosed bool
}

// State es la vista derivada del estado de una caja: se reconstruye siempre
// a partir del último evento de la ubicación, nunca de una bandera mutable.
type State struct {
	LocationID    string
	IsOpen        bool
	CurrentAmount decimal.Decimal
	OpeningAmount decimal.Decimal
	OpenedBy      string
	OpenedAt      time.Time
	ClosedAt      *time.Time
}

// UseCase opera el ledger append-only de caja por ubicación y deriva su
// estado. La caja nunca se materializa como fila propia.
type UseCase struct {
	txRunner     TxRunner
	eventRepo    repository.CashRegisterEventRepository
	locationRepo repository.LocationRepository
	policy       Policy
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner TxRunner,
	eventRepo repository.CashRegisterEventRepository,
	locationRepo repository.LocationRepository,
	policy Policy,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		eventRepo:    eventRepo,
		locationRepo: locationRepo,
		policy:       policy,
	}
}

// Open abre la caja de una ubicación con un monto inicial. Solo permitido
// desde CLOSED: si el último evento no es un cierre falla con
// ErrRegisterAlreadyOpen y no anexa nada al ledger.
func (uc *UseCase) Open(ctx context.Context, locationID, actorID string, initialAmount decimal.Decimal) (*State, error) {
	if initialAmount.IsNegative() {
		return nil, fmt.Errorf("%w: el monto inicial no puede ser negativo", domain.ErrInvalidInput)
	}

	var state *State
	err := uc.txRunner.RunRegister(ctx, func(
		eventRepo repository.CashRegisterEventRepository,
		locationRepo repository.LocationRepository,
	) error {
		if err := lockLocation(ctx, locationRepo, locationID); err != nil {
			return err
		}
		latest, err := eventRepo.GetLatest(ctx, locationID)
		if err != nil {
			return err
		}
		if latest != nil && latest.Type != entity.RegisterEventClose {
			return fmt.Errorf("%w: ubicación %s", domain.ErrRegisterAlreadyOpen, locationID)
		}

		event := &entity.CashRegisterEvent{
			ID:            uuid.New().String(),
			Type:          entity.RegisterEventOpen,
			InitialAmount: initialAmount,
			CurrentAmount: initialAmount,
			LocationID:    locationID,
			CreatedBy:     actorID,
			CreatedAt:     time.Now(),
		}
		if err := eventRepo.Append(ctx, event); err != nil {
			return err
		}
		state = &State{
			LocationID:    locationID,
			IsOpen:        true,
			CurrentAmount: event.CurrentAmount,
			OpeningAmount: event.InitialAmount,
			OpenedBy:      event.CreatedBy,
			OpenedAt:      event.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RegisterEvents.WithLabelValues(entity.RegisterEventOpen).Inc()
	return state, nil
}

// AppendMovement anexa un movimiento de caja (add, remove, adjustment) y
// devuelve el estado derivado. El nuevo monto se calcula sobre el
// current_amount del último evento (0 si no hay): add suma, remove resta y
// adjustment fija el monto absoluto.
func (uc *UseCase) AppendMovement(ctx context.Context, locationID, actorID, movementType string, amount decimal.Decimal, notes string) (*State, error) {
	switch movementType {
	case entity.RegisterEventAdd, entity.RegisterEventRemove:
		if !amount.IsPositive() {
			return nil, fmt.Errorf("%w: el monto debe ser positivo", domain.ErrInvalidInput)
		}
	case entity.RegisterEventAdjustment:
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: el monto de ajuste no puede ser negativo", domain.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: tipo de movimiento de caja %q", domain.ErrInvalidInput, movementType)
	}

	var state *State
	err := uc.txRunner.RunRegister(ctx, func(
		eventRepo repository.CashRegisterEventRepository,
		locationRepo repository.LocationRepository,
	) error {
		if err := lockLocation(ctx, locationRepo, locationID); err != nil {
			return err
		}
		latest, err := eventRepo.GetLatest(ctx, locationID)
		if err != nil {
			return err
		}
		if !uc.policy.AllowMovementsWhenClosed {
			if latest == nil || latest.Type == entity.RegisterEventClose {
				return fmt.Errorf("%w: ubicación %s", domain.ErrRegisterNotOpen, locationID)
			}
		}

		current := decimal.Zero
		if latest != nil {
			current = latest.CurrentAmount
		}
		var next decimal.Decimal
		switch movementType {
		case entity.RegisterEventAdd:
			next = current.Add(amount)
		case entity.RegisterEventRemove:
			next = current.Sub(amount)
		case entity.RegisterEventAdjustment:
			next = amount
		}

		event := &entity.CashRegisterEvent{
			ID:            uuid.New().String(),
			Type:          movementType,
			CurrentAmount: next,
			LocationID:    locationID,
			CreatedBy:     actorID,
			Notes:         notes,
			CreatedAt:     time.Now(),
		}
		if err := eventRepo.Append(ctx, event); err != nil {
			return err
		}
		state, err = deriveStateFrom(ctx, eventRepo, locationID, event)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RegisterEvents.WithLabelValues(movementType).Inc()
	return state, nil
}

// Close cierra la caja. Si se indica finalAmount ese es el monto declarado
// del cierre; si no, se arrastra el último monto conocido. Cerrar una caja
// ya cerrada falla con ErrRegisterNotOpen.
func (uc *UseCase) Close(ctx context.Context, locationID, actorID string, finalAmount *decimal.Decimal, notes string) (*State, error) {
	if finalAmount != nil && finalAmount.IsNegative() {
		return nil, fmt.Errorf("%w: el monto de cierre no puede ser negativo", domain.ErrInvalidInput)
	}

	var state *State
	err := uc.txRunner.RunRegister(ctx, func(
		eventRepo repository.CashRegisterEventRepository,
		locationRepo repository.LocationRepository,
	) error {
		if err := lockLocation(ctx, locationRepo, locationID); err != nil {
			return err
		}
		latest, err := eventRepo.GetLatest(ctx, locationID)
		if err != nil {
			return err
		}
		if latest == nil || latest.Type == entity.RegisterEventClose {
			return fmt.Errorf("%w: ubicación %s", domain.ErrRegisterNotOpen, locationID)
		}

		amount := latest.CurrentAmount
		if finalAmount != nil {
			amount = *finalAmount
		}
		event := &entity.CashRegisterEvent{
			ID:            uuid.New().String(),
			Type:          entity.RegisterEventClose,
			CurrentAmount: amount,
			LocationID:    locationID,
			CreatedBy:     actorID,
			Notes:         notes,
			CreatedAt:     time.Now(),
		}
		if err := eventRepo.Append(ctx, event); err != nil {
			return err
		}
		state, err = deriveStateFrom(ctx, eventRepo, locationID, event)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RegisterEvents.WithLabelValues(entity.RegisterEventClose).Inc()
	return state, nil
}

// GetState deriva el estado actual de la caja leyendo solo el evento más
// reciente de la ubicación (y el último open para los datos de apertura).
// Sin eventos, la caja está cerrada con monto 0.
func (uc *UseCase) GetState(ctx context.Context, locationID string) (*State, error) {
	latest, err := uc.eventRepo.GetLatest(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return deriveStateFrom(ctx, uc.eventRepo, locationID, latest)
}

// ListEvents lista el historial del ledger de caja de una ubicación.
func (uc *UseCase) ListEvents(ctx context.Context, locationID string, from, to *time.Time, limit, offset int) ([]*entity.CashRegisterEvent, error) {
	return uc.eventRepo.ListByLocation(ctx, locationID, from, to, limit, offset)
}

// lockLocation bloquea la fila de la ubicación, serializando las escrituras
// del ledger de caja de esa ubicación dentro de la transacción.
func lockLocation(ctx context.Context, locationRepo repository.LocationRepository, locationID string) error {
	location, err := locationRepo.GetForUpdate(ctx, locationID)
	if err != nil {
		return err
	}
	if location == nil {
		return fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, locationID)
	}
	return nil
}

// deriveStateFrom construye la vista de estado a partir del evento más
// reciente de la ubicación (nil = sin eventos, caja cerrada con monto 0).
func deriveStateFrom(ctx context.Context, eventRepo repository.CashRegisterEventRepository, locationID string, latest *entity.CashRegisterEvent) (*State, error) {
	state := &State{LocationID: locationID, CurrentAmount: decimal.Zero, OpeningAmount: decimal.Zero}
	if latest == nil {
		return state, nil
	}
	state.IsOpen = latest.Type != entity.RegisterEventClose
	state.CurrentAmount = latest.CurrentAmount
	if latest.Type == entity.RegisterEventClose {
		closedAt := latest.CreatedAt
		state.ClosedAt = &closedAt
	}

	// El monto de apertura se toma del último evento open, no se recalcula
	// desde el historial.
	opened, err := eventRepo.GetLatestOpen(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if opened != nil {
		state.OpeningAmount = opened.InitialAmount
		state.OpenedBy = opened.CreatedBy
		state.OpenedAt = opened.CreatedAt
	}
	return state, nil
}
