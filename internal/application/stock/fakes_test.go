package stock_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-ledger/internal/application/stock"
	"github.com/tu-usuario/pos-ledger/internal/domain/entity"
	"github.com/tu-usuario/pos-ledger/internal/domain/repository"
	"github.com/tu-usuario/pos-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria: implementan los puertos de repositorio sin base de datos.
// El TxRunner fake no abre transacciones reales: entrega los mismos repos,
// que es suficiente para verificar la semántica de los casos de uso.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu         sync.Mutex
	products   map[string]*entity.Product
	variations map[string]*entity.ProductVariation
	locations  map[string]*entity.Location
	stocks     map[string]*entity.LocationStock // por ID
	movements  []*entity.StockMovement
}

func newMemStore() *memStore {
	return &memStore{
		products:   make(map[string]*entity.Product),
		variations: make(map[string]*entity.ProductVariation),
		locations:  make(map[string]*entity.Location),
		stocks:     make(map[string]*entity.LocationStock),
	}
}

// ── ProductRepository ─────────────────────────────────────────────────────────

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) Create(_ context.Context, p *entity.Product) error {
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *memProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	for _, p := range r.s.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) UpdateAggregateStock(_ context.Context, productID string, qty decimal.Decimal) error {
	if p, ok := r.s.products[productID]; ok {
		p.AggregateStock = qty
	}
	return nil
}

func (r *memProductRepo) List(_ context.Context, _, _ int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.s.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// ── VariationRepository ───────────────────────────────────────────────────────

type memVariationRepo struct{ s *memStore }

func (r *memVariationRepo) Create(_ context.Context, v *entity.ProductVariation) error {
	cp := *v
	r.s.variations[v.ID] = &cp
	return nil
}

func (r *memVariationRepo) GetByID(_ context.Context, id string) (*entity.ProductVariation, error) {
	v, ok := r.s.variations[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *memVariationRepo) ListByProduct(_ context.Context, productID string) ([]*entity.ProductVariation, error) {
	var out []*entity.ProductVariation
	for _, v := range r.s.variations {
		if v.ProductID == productID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memVariationRepo) UpdateStock(_ context.Context, variationID string, qty decimal.Decimal) error {
	if v, ok := r.s.variations[variationID]; ok {
		v.Stock = qty
	}
	return nil
}

// ── LocationRepository ────────────────────────────────────────────────────────

type memLocationRepo struct{ s *memStore }

func (r *memLocationRepo) Create(_ context.Context, l *entity.Location) error {
	cp := *l
	r.s.locations[l.ID] = &cp
	return nil
}

func (r *memLocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	l, ok := r.s.locations[id]
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
	for _, l := range r.s.locations {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

// ── LocationStockRepository ───────────────────────────────────────────────────

type memLocationStockRepo struct{ s *memStore }

func (r *memLocationStockRepo) key(productID, locationID, variationID string) *entity.LocationStock {
	for _, ls := range r.s.stocks {
		if ls.ProductID == productID && ls.LocationID == locationID && ls.VariationID == variationID {
			return ls
		}
	}
	return nil
}

func (r *memLocationStockRepo) Get(_ context.Context, productID, locationID, variationID string) (*entity.LocationStock, error) {
	ls := r.key(productID, locationID, variationID)
	if ls == nil {
		return nil, nil
	}
	cp := *ls
	return &cp, nil
}

func (r *memLocationStockRepo) GetByID(_ context.Context, id string) (*entity.LocationStock, error) {
	ls, ok := r.s.stocks[id]
	if !ok {
		return nil, nil
	}
	cp := *ls
	return &cp, nil
}

func (r *memLocationStockRepo) GetForUpdate(ctx context.Context, productID, locationID, variationID string) (*entity.LocationStock, error) {
	return r.Get(ctx, productID, locationID, variationID)
}

func (r *memLocationStockRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.LocationStock, error) {
	return r.GetByID(ctx, id)
}

func (r *memLocationStockRepo) Upsert(_ context.Context, ls *entity.LocationStock) error {
	if existing := r.key(ls.ProductID, ls.LocationID, ls.VariationID); existing != nil {
		existing.Quantity = ls.Quantity
		existing.UpdatedAt = ls.UpdatedAt
		return nil
	}
	cp := *ls
	r.s.stocks[ls.ID] = &cp
	return nil
}

func (r *memLocationStockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.LocationStock, error) {
	var out []*entity.LocationStock
	for _, ls := range r.s.stocks {
		if ls.ProductID == productID {
			cp := *ls
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out, nil
}

func (r *memLocationStockRepo) ListAvailableByProduct(_ context.Context, productID, variationID string) ([]*entity.LocationStock, error) {
	var out []*entity.LocationStock
	for _, ls := range r.s.stocks {
		if ls.ProductID == productID && ls.VariationID == variationID && ls.Quantity.IsPositive() {
			cp := *ls
			out = append(out, &cp)
		}
	}
	// Mismo contrato que el adaptador real: cantidad desc, desempate por location_id asc.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Quantity.Equal(out[j].Quantity) {
			return out[i].Quantity.GreaterThan(out[j].Quantity)
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out, nil
}

// ── StockMovementRepository ───────────────────────────────────────────────────

type memMovementRepo struct{ s *memStore }

func (r *memMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r *memMovementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	for _, m := range r.s.movements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memMovementRepo) ListBySale(_ context.Context, saleID, productID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.RelatedSaleID == saleID && m.ProductID == productID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMovementRepo) ListByProduct(_ context.Context, productID string, _, _ *time.Time, _, _ int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID == productID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMovementRepo) ListByLocation(_ context.Context, locationID string, _, _ *time.Time, _, _ int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.LocationID == locationID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ── TxRunner fake ─────────────────────────────────────────────────────────────

type memTxRunner struct {
	movRepo       repository.StockMovementRepository
	stockRepo     repository.LocationStockRepository
	productRepo   repository.ProductRepository
	variationRepo repository.VariationRepository
}

func (tx *memTxRunner) Run(_ context.Context, fn func(
	repository.StockMovementRepository,
	repository.LocationStockRepository,
	repository.ProductRepository,
	repository.VariationRepository,
) error) error {
	return fn(tx.movRepo, tx.stockRepo, tx.productRepo, tx.variationRepo)
}

// ── Fixture ───────────────────────────────────────────────────────────────────

// fixture agrupa el store, los repos y los casos de uso listos para testear.
type fixture struct {
	store      *memStore
	products   *memProductRepo
	variations *memVariationRepo
	locations  *memLocationRepo
	stocks     *memLocationStockRepo
	movements  *memMovementRepo
	movementUC *stock.MovementUseCase
	saleUC     *stock.SaleUseCase
}

func newFixture() *fixture {
	s := newMemStore()
	f := &fixture{
		store:      s,
		products:   &memProductRepo{s: s},
		variations: &memVariationRepo{s: s},
		locations:  &memLocationRepo{s: s},
		stocks:     &memLocationStockRepo{s: s},
		movements:  &memMovementRepo{s: s},
	}
	tx := &memTxRunner{
		movRepo:       f.movements,
		stockRepo:     f.stocks,
		productRepo:   f.products,
		variationRepo: f.variations,
	}
	f.movementUC = stock.NewMovementUseCase(tx, f.products, f.variations, f.locations, f.stocks, f.movements)
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	f.saleUC = stock.NewSaleUseCase(tx, f.products, f.variations, f.locations, log)
	return f
}

func (f *fixture) addLocation(id, name, locType string) *entity.Location {
	l := &entity.Location{ID: id, Name: name, Type: locType}
	f.store.locations[id] = l
	return l
}

func (f *fixture) addProduct(id, name, prodType, homeLocationID string) *entity.Product {
	p := &entity.Product{ID: id, SKU: "SKU-" + id, Name: name, Type: prodType, HomeLocationID: homeLocationID}
	f.store.products[id] = p
	return p
}

func (f *fixture) addVariation(id, productID, name string) *entity.ProductVariation {
	v := &entity.ProductVariation{ID: id, ProductID: productID, SKU: "SKU-" + id, Name: name}
	f.store.variations[id] = v
	return v
}

// seedStock crea una fila de proyección con la cantidad dada y ajusta el
// agregado denormalizado del producto a la suma de sus filas.
func (f *fixture) seedStock(productID, locationID, variationID string, qty decimal.Decimal) {
	ls := &entity.LocationStock{
		ID:          uuid.New().String(),
		ProductID:   productID,
		LocationID:  locationID,
		VariationID: variationID,
		Quantity:    qty,
	}
	f.store.stocks[ls.ID] = ls

	total := decimal.Zero
	for _, row := range f.store.stocks {
		if row.ProductID == productID {
			total = total.Add(row.Quantity)
		}
	}
	if p, ok := f.store.products[productID]; ok {
		p.AggregateStock = total
	}
	if variationID != "" {
		sum := decimal.Zero
		for _, row := range f.store.stocks {
			if row.VariationID == variationID {
				sum = sum.Add(row.Quantity)
			}
		}
		if v, ok := f.store.variations[variationID]; ok {
			v.Stock = sum
		}
	}
}

// d construye un decimal desde entero, para tests legibles.
func d(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
