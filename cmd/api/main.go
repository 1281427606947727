// @title           Stock Ledger API
// @version         1.0
// @description     Ledger de stock con aprobación de movimientos y audit trail.
// @BasePath        /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
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

	_ "github.com/jhoicas/stock-ledger/docs"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/ws"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
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
		Str("store", cfg.Ledger.Store).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var (
		txRunner     inventory.TxRunner
		productRepo  repository.ProductRepository
		movementRepo repository.StockMovementRepository
	)
	switch cfg.Ledger.Store {
	case config.StoreMemory:
		// Solo para desarrollo: el estado se pierde al reiniciar.
		store := memory.NewStore(cfg.Ledger.LockTimeout)
		txRunner = memory.NewTxRunner(store)
		productRepo = store.Products()
		movementRepo = store.Movements()
		log.Warn().Msg("almacenamiento en memoria, los datos no persisten")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		txRunner = postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout)
		productRepo = postgres.NewProductRepository(pool)
		movementRepo = postgres.NewStockMovementRepository(pool)
	}

	// Eventos: hub WebSocket siempre; Redis solo si REDIS_ADDR está definido.
	hub := ws.NewHub(log.Zerolog())
	go hub.Run(ctx)
	publishers := inventory.MultiPublisher{hub}
	if cfg.Redis.Enabled() {
		redisPub, err := redis.NewPublisher(ctx, cfg.Redis, log.Component("redis"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisPub.Close()
		publishers = append(publishers, redisPub)
	}

	ledger := inventory.NewLedger(txRunner, productRepo, movementRepo, publishers, log.Zerolog(), inventory.LedgerConfig{
		LockRetries:  cfg.Ledger.LockRetries,
		RetryBackoff: cfg.Ledger.RetryBackoff,
	})
	productUC := usecase.NewProductUseCase(productRepo)

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
		Title:    "Stock Ledger API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:    ledger,
		ProductUC: productUC,
		Hub:       hub,
		JWTSecret: cfg.JWT.Secret,
		AppName:   cfg.App.Name,
		Log:       log.Component("http"),
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
	stop()

	log.Info().Msg("aplicación detenida")
}
