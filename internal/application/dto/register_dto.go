package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenRegisterRequest body para POST /api/registers/:locationId/open.
type OpenRegisterRequest struct {
	InitialAmount decimal.Decimal `json:"initial_amount"`
}

// RegisterMovementRequest body para POST /api/registers/:locationId/movements.
type RegisterMovementRequest struct {
	Type   string          `json:"type"` // add, remove, adjustment
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes,omitempty"`
}

// CloseRegisterRequest body para POST /api/registers/:locationId/close.
// final_amount opcional: si falta, se arrastra el último monto conocido.
type CloseRegisterRequest struct {
	FinalAmount *decimal.Decimal `json:"final_amount,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// RegisterStateResponse vista derivada del estado de la caja.
type RegisterStateResponse struct {
	LocationID    string          `json:"location_id"`
	IsOpen        bool            `json:"is_open"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	OpenedBy      string          `json:"opened_by,omitempty"`
	OpenedAt      *time.Time      `json:"opened_at,omitempty"`
	ClosedAt      *time.Time      `json:"closed_at,omitempty"`
}

// RegisterEventResponse fila del ledger de caja.
type RegisterEventResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	InitialAmount decimal.Decimal `json:"initial_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	LocationID    string          `json:"location_id"`
	CreatedBy     string          `json:"created_by,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
