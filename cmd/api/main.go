package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/pos-ledger/internal/application/auth"
	"github.com/tu-usuario/pos-ledger/internal/application/register"
	"github.com/tu-usuario/pos-ledger/internal/application/stock"
	"github.com/tu-usuario/pos-ledger/internal/application/usecase"
	"github.com/tu-usuario/pos-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/pos-ledger/internal/interfaces/http"
	"github.com/tu-usuario/pos-ledger/pkg/config"
	"github.com/tu-usuario/pos-ledger/pkg/logger"
	"github.com/tu-usuario/pos-ledger/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	metrics.Register()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	variationRepo := postgres.NewVariationRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	locationStockRepo := postgres.NewLocationStockRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	eventRepo := postgres.NewCashRegisterEventRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	productUC := usecase.NewProductUseCase(productRepo, variationRepo, locationRepo)
	locationUC := usecase.NewLocationUseCase(locationRepo)
	movementUC := stock.NewMovementUseCase(txRunner, productRepo, variationRepo, locationRepo, locationStockRepo, movementRepo)
	saleUC := stock.NewSaleUseCase(txRunner, productRepo, variationRepo, locationRepo, log)
	registerUC := register.NewUseCase(txRunner, eventRepo, locationRepo, register.Policy{
		AllowMovementsWhenClosed: cfg.Register.AllowMovementsWhenClosed,
	})
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "POS Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:  productUC,
		LocationUC: locationUC,
		MovementUC: movementUC,
		SaleUC:     saleUC,
		RegisterUC: registerUC,
		AuthUC:     authUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
