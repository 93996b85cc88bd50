package register_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/pos-ledger/internal/application/register"
	"github.com/tu-usuario/pos-ledger/internal/domain"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria: ledger append-only de eventos + ubicaciones. El orden de
// inserción define "el evento más reciente", igual que created_at en la BD.
// ──────────────────────────────────────────────────────────────────────────────

type memEventRepo struct {
	events []*entity.CashRegisterEvent
}

func (r *memEventRepo) Append(_ context.Context, e *entity.CashRegisterEvent) error {
	cp := *e
	r.events = append(r.events, &cp)
	return nil
}

func (r *memEventRepo) GetLatest(_ context.Context, locationID string) (*entity.CashRegisterEvent, error) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].LocationID == locationID {
			cp := *r.events[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memEventRepo) GetLatestOpen(_ context.Context, locationID string) (*entity.CashRegisterEvent, error) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].LocationID == locationID && r.events[i].Type == entity.RegisterEventOpen {
			cp := *r.events[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memEventRepo) ListByLocation(_ context.Context, locationID string, _, _ *time.Time, _, _ int) ([]*entity.CashRegisterEvent, error) {
	var out []*entity.CashRegisterEvent
	for _, e := range r.events {
		if e.LocationID == locationID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memLocationRepo struct {
	locations map[string]*entity.Location
}

func (r *memLocationRepo) Create(_ context.Context, l *entity.Location) error {
	r.locations[l.ID] = l
	return nil
}

func (r *memLocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *memLocationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Location, error) {
	return r.GetByID(ctx, id)
}

func (r *memLocationRepo) List(_ context.Context) ([]*entity.Location, error) {
	var out []*entity.Location
	for _, l := range r.locations {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

type memTxRunner struct {
	eventRepo    repository.CashRegisterEventRepository
	locationRepo repository.LocationRepository
}

func (tx *memTxRunner) RunRegister(_ context.Context, fn func(
	repository.CashRegisterEventRepository,
	repository.LocationRepository,
) error) error {
	return fn(tx.eventRepo, tx.locationRepo)
}

// newUseCase arma el caso de uso con una ubicación física "tienda-1" sembrada.
func newUseCase(policy register.Policy) (*register.UseCase, *memEventRepo) {
	events := &memEventRepo{}
	locations := &memLocationRepo{locations: map[string]*entity.Location{
		"tienda-1": {ID: "tienda-1", Name: "Tienda Centro", Type: entity.LocationTypePhysical},
		"tienda-2": {ID: "tienda-2", Name: "Tienda Sur", Type: entity.LocationTypePhysical},
	}}
	tx := &memTxRunner{eventRepo: events, locationRepo: locations}
	return register.NewUseCase(tx, events, locations, policy), events
}

func d(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// ──────────────────────────────────────────────────────────────────────────────
// Apertura
// ──────────────────────────────────────────────────────────────────────────────

func TestOpen_AbreCajaConMontoInicial(t *testing.T) {
	uc, events := newUseCase(register.Policy{})
	state, err := uc.Open(context.Background(), "tienda-1", "user-1", d(100))
	require.NoError(t, err)

	assert.True(t, state.IsOpen)
	assert.True(t, state.CurrentAmount.Equal(d(100)))
	assert.True(t, state.OpeningAmount.Equal(d(100)))
	assert.Equal(t, "user-1", state.OpenedBy)
	require.Len(t, events.events, 1)
	assert.Equal(t, entity.RegisterEventOpen, events.events[0].Type)
}

func TestOpen_MontoNegativoInvalido(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	_, err := uc.Open(context.Background(), "tienda-1", "user-1", d(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpen_UbicacionInexistente(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	_, err := uc.Open(context.Background(), "no-existe", "user-1", d(10))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Doble apertura: la segunda falla y el ledger queda con un solo evento open.
func TestOpen_DobleAperturaFalla(t *testing.T) {
	uc, events := newUseCase(register.Policy{})
	ctx := context.Background()

	_, err := uc.Open(ctx, "tienda-1", "user-1", d(100))
	require.NoError(t, err)

	_, err = uc.Open(ctx, "tienda-1", "user-2", d(50))
	require.ErrorIs(t, err, domain.ErrRegisterAlreadyOpen)

	assert.Len(t, events.events, 1, "la apertura fallida no anexa eventos")
}

// Las cajas son independientes por ubicación.
func TestOpen_CajasPorUbicacionIndependientes(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	ctx := context.Background()

	_, err := uc.Open(ctx, "tienda-1", "user-1", d(100))
	require.NoError(t, err)
	_, err = uc.Open(ctx, "tienda-2", "user-2", d(30))
	require.NoError(t, err)

	s1, err := uc.GetState(ctx, "tienda-1")
	require.NoError(t, err)
	s2, err := uc.GetState(ctx, "tienda-2")
	require.NoError(t, err)
	assert.True(t, s1.CurrentAmount.Equal(d(100)))
	assert.True(t, s2.CurrentAmount.Equal(d(30)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos de caja
// ──────────────────────────────────────────────────────────────────────────────

func TestAppendMovement_AddYRemoveAcumulan(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	ctx := context.Background()
	_, err := uc.Open(ctx, "tienda-1", "user-1", d(100))
	require.NoError(t, err)

	state, err := uc.AppendMovement(ctx, "tienda-1", "user-1", entity.RegisterEventAdd, d(50), "fondo extra")
	require.NoError(t, err)
	assert.True(t, state.CurrentAmount.Equal(d(150)))

	state, err = uc.AppendMovement(ctx, "tienda-1", "user-1", entity.RegisterEventRemove, d(20), "retiro parcial")
	require.NoError(t, err)
	assert.True(t, state.CurrentAmount.Equal(d(130)))
	assert.True(t, state.OpeningAmount.Equal(d(100)), "la apertura no cambia con los movimientos")
}

func TestAppendMovement_AdjustmentFijaElMontoAbsoluto(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	ctx := context.Background()
	_, err := uc.Open(ctx, "tienda-1", "user-1", d(100))
	require.NoError(t, err)

	state, err := uc.AppendMovement(ctx, "tienda-1", "user-1", entity.RegisterEventAdjustment, d(73), "arqueo")
	require.NoError(t, err)
	assert.True(t, state.CurrentAmount.Equal(d(73)), "adjustment no suma: fija el monto contado")
}

func TestAppendMovement_RemoveMayorQueElMontoDejaNegativo(t *testing.T) {
	// El ledger registra lo que pasó: un retiro mayor al monto deja la caja
	// en negativo y el arqueo lo resuelve con un adjustment.
	uc, _ := newUseCase(register.Policy{})
	ctx := context.Background()
	_, err := uc.Open(ctx, "tienda-1", "user-1", d(10))
	require.NoError(t, err)

	state, err := uc.AppendMovement(ctx, "tienda-1", "user-1", entity.RegisterEventRemove, d(25), "")
	require.NoError(t, err)
	assert.True(t, state.CurrentAmount.Equal(d(-15)))
}

func TestAppendMovement_Validaciones(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	ctx := context.Background()

	_, err := uc.AppendMovement(ctx, "tienda-1", "user-1", "propina", d(5), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "tipo desconocido")

	_, err = uc.AppendMovement(ctx, "tienda-1", "user-1", entity.RegisterEventAdd, d(0), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "add exige monto positivo")

	_, err = uc.AppendMovement(ctx, "tienda-1", "user-1", entity.RegisterEventRemove, d(-3), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "remove exige monto positivo")

	_, err = uc.AppendMovement(ctx, "tienda-1", "user-1", entity.RegisterEventAdjustment, d(-3), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "adjustment no admite negativo")
}

// Política histórica: movimientos con la caja cerrada se aceptan
// (correcciones retroactivas) salvo que la política lo prohíba.
func TestAppendMovement_CajaCerradaSegunPolitica(t *testing.T) {
	t.Run("permitido por defecto histórico", func(t *testing.T) {
		uc, _ := newUseCase(register.Policy{AllowMovementsWhenClosed: true})
		state, err := uc.AppendMovement(context.Background(), "tienda-1", "user-1", entity.RegisterEventAdd, d(10), "corrección")
		require.NoError(t, err)
		assert.True(t, state.CurrentAmount.Equal(d(10)))
	})

	t.Run("rechazado con política estricta", func(t *testing.T) {
		uc, _ := newUseCase(register.Policy{AllowMovementsWhenClosed: false})
		_, err := uc.AppendMovement(context.Background(), "tienda-1", "user-1", entity.RegisterEventAdd, d(10), "corrección")
		assert.ErrorIs(t, err, domain.ErrRegisterNotOpen)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Cierre
// ──────────────────────────────────────────────────────────────────────────────

func TestClose_ArrastraElUltimoMontoSiNoSeDeclara(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	ctx := context.Background()
	_, err := uc.Open(ctx, "tienda-1", "user-1", d(100))
	require.NoError(t, err)
	_, err = uc.AppendMovement(ctx, "tienda-1", "user-1", entity.RegisterEventAdd, d(50), "")
	require.NoError(t, err)

	state, err := uc.Close(ctx, "tienda-1", "user-1", nil, "cierre de turno")
	require.NoError(t, err)
	assert.False(t, state.IsOpen)
	assert.True(t, state.CurrentAmount.Equal(d(150)))
	assert.NotNil(t, state.ClosedAt)
}

func TestClose_ConMontoDeclarado(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	ctx := context.Background()
	_, err := uc.Open(ctx, "tienda-1", "user-1", d(100))
	require.NoError(t, err)

	declarado := d(97)
	state, err := uc.Close(ctx, "tienda-1", "user-1", &declarado, "faltante de 3")
	require.NoError(t, err)
	assert.True(t, state.CurrentAmount.Equal(d(97)), "el cierre registra el monto contado, no el teórico")
}

func TestClose_CajaYaCerradaFalla(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	ctx := context.Background()

	_, err := uc.Close(ctx, "tienda-1", "user-1", nil, "")
	assert.ErrorIs(t, err, domain.ErrRegisterNotOpen, "sin eventos la caja está cerrada")

	_, err = uc.Open(ctx, "tienda-1", "user-1", d(10))
	require.NoError(t, err)
	_, err = uc.Close(ctx, "tienda-1", "user-1", nil, "")
	require.NoError(t, err)
	_, err = uc.Close(ctx, "tienda-1", "user-1", nil, "")
	assert.ErrorIs(t, err, domain.ErrRegisterNotOpen)
}

// ──────────────────────────────────────────────────────────────────────────────
// Estado derivado
// ──────────────────────────────────────────────────────────────────────────────

func TestGetState_SinEventosEsCerradaConCero(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	state, err := uc.GetState(context.Background(), "tienda-1")
	require.NoError(t, err)
	assert.False(t, state.IsOpen)
	assert.True(t, state.CurrentAmount.IsZero())
	assert.Nil(t, state.ClosedAt)
}

func TestGetState_SeDerivaSoloDelUltimoEvento(t *testing.T) {
	uc, _ := newUseCase(register.Policy{})
	ctx := context.Background()
	_, err := uc.Open(ctx, "tienda-1", "user-1", d(100))
	require.NoError(t, err)
	_, err = uc.AppendMovement(ctx, "tienda-1", "user-1", entity.RegisterEventAdd, d(40), "")
	require.NoError(t, err)
	_, err = uc.AppendMovement(ctx, "tienda-1", "user-1", entity.RegisterEventRemove, d(15), "")
	require.NoError(t, err)

	state, err := uc.GetState(ctx, "tienda-1")
	require.NoError(t, err)
	assert.True(t, state.IsOpen)
	assert.True(t, state.CurrentAmount.Equal(d(125)))
	assert.True(t, state.OpeningAmount.Equal(d(100)))
	assert.Equal(t, "user-1", state.OpenedBy)
}

// Escenario de turno completo: abrir 100 → add 50 → remove 20 → cerrar → 130.
func TestEscenario_TurnoCompletoDeCaja(t *testing.T) {
	uc, events := newUseCase(register.Policy{})
	ctx := context.Background()

	_, err := uc.Open(ctx, "tienda-1", "cajero-1", d(100))
	require.NoError(t, err)
	_, err = uc.AppendMovement(ctx, "tienda-1", "cajero-1", entity.RegisterEventAdd, d(50), "venta en efectivo")
	require.NoError(t, err)
	_, err = uc.AppendMovement(ctx, "tienda-1", "cajero-1", entity.RegisterEventRemove, d(20), "pago a domicilio")
	require.NoError(t, err)

	state, err := uc.Close(ctx, "tienda-1", "cajero-1", nil, "fin de turno")
	require.NoError(t, err)
	assert.False(t, state.IsOpen)
	assert.True(t, state.CurrentAmount.Equal(d(130)))

	// El ledger conserva todo el turno, evento por evento.
	require.Len(t, events.events, 4)
	tipos := []string{
		entity.RegisterEventOpen,
		entity.RegisterEventAdd,
		entity.RegisterEventRemove,
		entity.RegisterEventClose,
	}
	for i, e := range events.events {
		assert.Equal(t, tipos[i], e.Type)
	}

	// Reapertura del siguiente turno: parte del monto inicial nuevo.
	state, err = uc.Open(ctx, "tienda-1", "cajero-2", d(80))
	require.NoError(t, err)
	assert.True(t, state.CurrentAmount.Equal(d(80)))
	assert.True(t, state.OpeningAmount.Equal(d(80)))
}
