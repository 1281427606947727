package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/permission"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/ws"
)

// RouterDeps dependencias para el router. Hub es opcional: sin hub no se expone /ws/movements.
type RouterDeps struct {
	Ledger    *inventory.Ledger
	ProductUC *usecase.ProductUseCase
	Hub       *ws.Hub
	JWTSecret string
	AppName   string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(AccessLog(deps.Log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	if deps.Hub != nil {
		registerWS(app, deps.Hub, deps.JWTSecret)
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	protected.Get("/permissions/me", Me)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", RequireCapability(permission.ProductsCreate), productHandler.Create)
	products.Get("/", RequireCapability(permission.ProductsRead), productHandler.List)
	products.Get("/:id", RequireCapability(permission.ProductsRead), productHandler.GetByID)
	products.Put("/:id", RequireCapability(permission.ProductsUpdate), productHandler.Update)

	// Inventory: la capacidad del submit depende del tipo y la verifica el ledger.
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.ProductUC)
	invGroup.Post("/movements", inventoryHandler.SubmitMovement)
	invGroup.Get("/movements", RequireCapability(permission.StockViewMovements), inventoryHandler.ListMovements)
	invGroup.Get("/movements/:id", RequireCapability(permission.StockViewMovements), inventoryHandler.GetMovement)
	invGroup.Post("/movements/:id/approve", RequireCapability(permission.StockAdjust), inventoryHandler.ApproveMovement)
	invGroup.Post("/movements/:id/reject", RequireCapability(permission.StockAdjust), inventoryHandler.RejectMovement)
	invGroup.Get("/products/:id/reconciliation", RequireCapability(permission.AuditRead), inventoryHandler.Reconcile)
	invGroup.Get("/low-stock", RequireCapability(permission.ProductsRead), inventoryHandler.LowStock)
	invGroup.Get("/summary", RequireCapability(permission.ReportsStock), inventoryHandler.Summary)
}
