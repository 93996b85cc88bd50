package metrics

import "github.com/prometheus/client_golang/prometheus"

// Contadores de negocio del núcleo de inventario y caja. Se exponen en
// /metrics junto con los collectors por defecto de prometheus.
var (
	SaleDebits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_sale_stock_debits_total",
			Help: "Débitos de stock por líneas de venta, por canal",
		},
		[]string{"channel"},
	)

	SaleReversals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_sale_reversals_total",
			Help: "Reversiones de stock por anulación de venta",
		},
	)

	StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_stock_movements_total",
			Help: "Movimientos manuales del ledger de stock, por tipo",
		},
		[]string{"type"},
	)

	RegisterEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_register_events_total",
			Help: "Eventos del ledger de caja, por tipo",
		},
		[]string{"type"},
	)

	InsufficientStockFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_insufficient_stock_failures_total",
			Help: "Débitos de venta rechazados por stock insuficiente",
		},
	)
)

// Register registra los contadores en el registry por defecto. Llamar una vez en main.
func Register() {
	prometheus.MustRegister(SaleDebits, SaleReversals, StockMovements, RegisterEvents, InsufficientStockFailures)
}
