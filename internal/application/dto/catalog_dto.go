package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products.
type CreateProductRequest struct {
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Type           string          `json:"type"` // simple, variable
	HomeLocationID string          `json:"home_location_id,omitempty"`
	Price          decimal.Decimal `json:"price"`
}

// ProductResponse producto con su stock agregado denormalizado.
type ProductResponse struct {
	ID             string          `json:"id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	HomeLocationID string          `json:"home_location_id,omitempty"`
	AggregateStock decimal.Decimal `json:"aggregate_stock"`
	Price          decimal.Decimal `json:"price"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreateVariationRequest body para POST /api/products/:id/variations.
type CreateVariationRequest struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// VariationResponse variación con su stock propio.
type VariationResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Stock     decimal.Decimal `json:"stock"`
}

// CreateLocationRequest body para POST /api/locations.
type CreateLocationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Type    string `json:"type"` // physical, virtual
}

// LocationResponse ubicación física o virtual.
type LocationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
