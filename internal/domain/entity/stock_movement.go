package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del ledger de stock. La cantidad siempre es positiva;
// el signo lo determina el tipo.
const (
	MovementManualIn          = "manual_in"
	MovementManualOut         = "manual_out"
	MovementAdjustment        = "adjustment"
	MovementSaleOnlineDebit   = "sale_online_physical_debit"
	MovementSalePhysicalStore = "sale_physical_store"
	MovementSaleCancelCredit  = "sale_cancellation_credit"
	MovementTransferIn        = "transfer_in"
	MovementTransferOut       = "transfer_out"
)

// Alcance del movimiento: contra el agregado virtual o contra una ubicación física.
const (
	ScopeAggregate        = "aggregate"
	ScopePhysicalLocation = "physical_location"
)

// StockMovement es una fila inmutable del ledger de stock. Nunca se
// actualiza ni se borra en operación normal; las cancelaciones crean
// movimientos inversos. Invariante: NewStock = PreviousStock ± Quantity
// según el signo del tipo.
type StockMovement struct {
	ID              string
	ProductID       string
	VariationID     string // vacío para productos simples
	LocationID      string // vacío = contexto agregado
	Type            string
	Quantity        decimal.Decimal // magnitud positiva
	PreviousStock   decimal.Decimal
	NewStock        decimal.Decimal
	Reason          string
	RelatedSaleID   string // venta asociada (débitos y créditos de venta)
	StockScope      string // aggregate, physical_location
	LocationStockID string // referencia a la fila de location_stock afectada
	CreatedAt       time.Time
	CreatedBy       string // UserID
}

// IsCredit indica si el tipo suma stock (true) o lo resta (false).
func IsCredit(movementType string) bool {
	switch movementType {
	case MovementManualIn, MovementSaleCancelCredit, MovementTransferIn:
		return true
	default:
		return false
	}
}

// IsSaleDebit indica si el movimiento es un débito originado por una venta
// (los únicos tipos que la anulación de venta revierte).
func IsSaleDebit(movementType string) bool {
	return movementType == MovementSaleOnlineDebit || movementType == MovementSalePhysicalStore
}

// ValidMovementType valida el tipo contra el catálogo del ledger.
func ValidMovementType(movementType string) bool {
	switch movementType {
	case MovementManualIn, MovementManualOut, MovementAdjustment,
		MovementSaleOnlineDebit, MovementSalePhysicalStore,
		MovementSaleCancelCredit, MovementTransferIn, MovementTransferOut:
		return true
	}
	return false
}

// SignedQuantity devuelve la cantidad con el signo del tipo aplicado.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if IsCredit(m.Type) {
		return m.Quantity
	}
	return m.Quantity.Neg()
}
