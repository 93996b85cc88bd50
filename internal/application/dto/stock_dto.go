package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockMovementRequest body para POST /api/stock/movements.
// location_id vacío = contexto agregado; en adjustment la cantidad puede ser
// negativa (corrección a la baja).
type StockMovementRequest struct {
	ProductID   string          `json:"product_id"`
	VariationID string          `json:"variation_id,omitempty"`
	LocationID  string          `json:"location_id,omitempty"`
	Type        string          `json:"type"` // manual_in, manual_out, adjustment
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason,omitempty"`
}

// TransferRequest body para POST /api/stock/transfers.
type TransferRequest struct {
	ProductID      string          `json:"product_id"`
	VariationID    string          `json:"variation_id,omitempty"`
	FromLocationID string          `json:"from_location_id"`
	ToLocationID   string          `json:"to_location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reason         string          `json:"reason,omitempty"`
}

// SaleDebitRequest body para POST /api/stock/sale-debits (flujo de venta).
type SaleDebitRequest struct {
	ProductID   string          `json:"product_id"`
	VariationID string          `json:"variation_id,omitempty"`
	LocationID  string          `json:"location_id,omitempty"` // vacío = canal online
	Quantity    decimal.Decimal `json:"quantity"`
	SaleID      string          `json:"sale_id"`
}

// SaleDebitResponse resultado del débito de venta.
type SaleDebitResponse struct {
	LocationDebited string          `json:"location_debited"`
	Previous        decimal.Decimal `json:"previous"`
	New             decimal.Decimal `json:"new"`
}

// ReverseSaleRequest body para POST /api/stock/sale-reversals.
type ReverseSaleRequest struct {
	SaleID    string          `json:"sale_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// StockMovementResponse fila del ledger de stock.
type StockMovementResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	VariationID   string          `json:"variation_id,omitempty"`
	LocationID    string          `json:"location_id,omitempty"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	Reason        string          `json:"reason,omitempty"`
	RelatedSaleID string          `json:"related_sale_id,omitempty"`
	StockScope    string          `json:"stock_scope"`
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// LocationStockResponse cantidad actual en una ubicación.
type LocationStockResponse struct {
	ProductID   string          `json:"product_id"`
	LocationID  string          `json:"location_id"`
	VariationID string          `json:"variation_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AggregateStockResponse stock agregado (online) de un producto.
type AggregateStockResponse struct {
	ProductID      string          `json:"product_id"`
	AggregateStock decimal.Decimal `json:"aggregate_stock"`
}
