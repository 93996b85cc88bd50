package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tu-usuario/pos-ledger/internal/application/auth"
	"github.com/tu-usuario/pos-ledger/internal/application/register"
	"github.com/tu-usuario/pos-ledger/internal/application/stock"
	"github.com/tu-usuario/pos-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC  *usecase.ProductUseCase
	LocationUC *usecase.LocationUseCase
	MovementUC *stock.MovementUseCase
	SaleUC     *stock.SaleUseCase
	RegisterUC *register.UseCase
	AuthUC     *auth.AuthUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Prometheus (sin auth: lo consume el scraper interno)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/:id/variations", productHandler.CreateVariation)
	products.Get("/:id/variations", productHandler.ListVariations)

	// Locations (protegido)
	locations := protected.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", locationHandler.Create)
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.GetByID)

	// Stock ledger (protegido)
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.MovementUC, deps.SaleUC)
	stockGroup.Post("/movements", stockHandler.RecordMovement)
	stockGroup.Get("/movements", stockHandler.ListMovements)
	stockGroup.Post("/transfers", stockHandler.Transfer)
	stockGroup.Post("/sale-debits", stockHandler.SaleDebit)
	stockGroup.Post("/sale-reversals", stockHandler.ReverseSale)
	stockGroup.Get("/products/:id/aggregate", stockHandler.GetAggregateStock)
	stockGroup.Get("/products/:id/locations/:locationId", stockHandler.GetLocationStock)
	stockGroup.Post("/products/:id/recalculate", stockHandler.Recalculate)

	// Cash register ledger (protegido)
	registers := protected.Group("/registers")
	registerHandler := NewRegisterHandler(deps.RegisterUC)
	registers.Post("/:locationId/open", registerHandler.Open)
	registers.Post("/:locationId/movements", registerHandler.AppendMovement)
	registers.Post("/:locationId/close", registerHandler.Close)
	registers.Get("/:locationId/state", registerHandler.GetState)
	registers.Get("/:locationId/events", registerHandler.ListEvents)
}
