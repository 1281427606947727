package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/permission"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/ws"
)

// wsAuth valida el token del query string (los navegadores no envían headers en el upgrade)
// y exige stock.view_movements antes de aceptar el upgrade.
func wsAuth(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "parámetro token requerido"})
		}
		return authenticate(c, jwtSecret, token)
	}
}

func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}

// movementFeed registra la conexión en el hub hasta que el cliente la cierra.
func movementFeed(hub *ws.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		hub.Register(c)
		defer hub.Unregister(c)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
}

func registerWS(app fiber.Router, hub *ws.Hub, jwtSecret string) {
	app.Get("/ws/movements",
		wsAuth(jwtSecret),
		RequireCapability(permission.StockViewMovements),
		requireUpgrade,
		movementFeed(hub),
	)
}
