package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de producto.
const (
	ProductTypeSimple   = "simple"   // stock propio, agregado = suma de ubicaciones
	ProductTypeVariable = "variable" // stock por variación, agregado = suma de variaciones
)

// Product representa un producto o SKU vendible (multi-ubicación).
// AggregateStock es el stock "online" virtual: campo denormalizado que se
// recalcula explícitamente después de cada mutación de stock, nunca se
// actualiza de forma perezosa.
type Product struct {
	ID             string
	SKU            string // código único
	Name           string
	Type           string // simple, variable
	HomeLocationID string // ubicación principal del producto; vacía o virtual = canal online
	AggregateStock decimal.Decimal
	Price          decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsVariable indica si el producto maneja stock por variación.
func (p *Product) IsVariable() bool {
	return p.Type == ProductTypeVariable
}
