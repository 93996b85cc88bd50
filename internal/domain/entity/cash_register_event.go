package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento de caja registradora.
const (
	RegisterEventOpen       = "open"
	RegisterEventClose      = "close"
	RegisterEventAdd        = "add"
	RegisterEventRemove     = "remove"
	RegisterEventAdjustment = "adjustment"
)

// CashRegisterEvent es una fila inmutable del ledger de caja por ubicación.
// La "caja actual" nunca se materializa como fila propia: el estado es
// siempre una vista sobre el último evento de la ubicación.
type CashRegisterEvent struct {
	ID            string
	Type          string
	InitialAmount decimal.Decimal // monto de apertura (solo eventos open)
	CurrentAmount decimal.Decimal // monto acumulado tras el evento
	LocationID    string
	CreatedBy     string // UserID
	Notes         string
	CreatedAt     time.Time
}
