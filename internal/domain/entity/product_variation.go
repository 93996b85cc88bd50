package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductVariation representa una variación de un producto variable (talla, color).
// Stock es el agregado propio de la variación, suma de sus filas en location_stock.
type ProductVariation struct {
	ID        string
	ProductID string
	SKU       string
	Name      string
	Stock     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
