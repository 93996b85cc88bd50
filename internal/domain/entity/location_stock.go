package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocationStock es la proyección mutable del stock actual de un producto
// (o variación) en una ubicación física. Única por (producto, ubicación,
// variación). Se crea en el primer movimiento hacia la ubicación y nunca
// se borra físicamente: la cantidad puede llegar a 0.
type LocationStock struct {
	ID          string
	ProductID   string
	LocationID  string
	VariationID string // vacío para productos simples
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}
