package entity

import "time"

// Roles de usuario del punto de venta.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cajero"
	RoleManager = "encargado"
)

// User representa un usuario del sistema (operador de caja, encargado, admin).
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string // admin, cajero, encargado
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
