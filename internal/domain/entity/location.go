package entity

import "time"

// Tipos de ubicación.
const (
	LocationTypePhysical = "physical" // tienda o bodega física
	LocationTypeVirtual  = "virtual"  // canal online, sin stock propio
)

// Location representa una ubicación donde se vende o almacena inventario
// (tienda física, bodega, o la ubicación virtual del canal online).
type Location struct {
	ID        string
	Name      string
	Address   string
	Type      string // physical, virtual
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsVirtual indica si la ubicación es el canal online (sin stock físico propio).
func (l *Location) IsVirtual() bool {
	return l.Type == LocationTypeVirtual
}
