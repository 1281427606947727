package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP de movimientos e inventario (protegido).
type InventoryHandler struct {
	ledger   *inventory.Ledger
	products *usecase.ProductUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.Ledger, products *usecase.ProductUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, products: products}
}

// SubmitMovement godoc
// @Summary      Registrar movimiento de stock (queda pending)
// @Description  El stock no cambia hasta que un usuario con stock.adjust lo aprueba.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitMovementRequest  true  "type (in|out|adjustment|transfer), product_id, magnitude, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) SubmitMovement(c *fiber.Ctx) error {
	var in dto.SubmitMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.ledger.SubmitMovement(c.UserContext(), GetActor(c), inventory.MovementRequest{
		Type:            entity.MovementType(in.Type),
		ProductID:       in.ProductID,
		Magnitude:       in.Magnitude,
		Reason:          in.Reason,
		ReferenceNumber: in.ReferenceNumber,
		LocationFrom:    in.LocationFrom,
		LocationTo:      in.LocationTo,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(mov))
}

// ListMovements godoc
// @Summary      Consultar el historial de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "UUID del producto"
// @Param        status      query  string  false  "pending | approved | rejected"
// @Param        type        query  string  false  "in | out | adjustment | transfer"
// @Param        created_by  query  string  false  "ID del usuario que registró"
// @Param        from        query  string  false  "RFC3339, inclusive"
// @Param        to          query  string  false  "RFC3339, inclusive"
// @Param        limit       query  int     false  "Máximo 500 (default 50)"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		ProductID: c.Query("product_id"),
		Status:    entity.MovementStatus(c.Query("status")),
		Type:      entity.MovementType(c.Query("type")),
		CreatedBy: c.Query("created_by"),
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
	}
	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		return writeError(c, err)
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return writeError(c, err)
	}

	if filter, err = inventory.NormalizeMovementFilter(filter); err != nil {
		return writeError(c, err)
	}
	list, err := h.ledger.QueryMovements(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: dto.ToMovementResponses(list),
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	})
}

// GetMovement godoc
// @Summary      Obtener un movimiento
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "UUID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	mov, err := h.ledger.GetMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToMovementResponse(mov))
}

// ApproveMovement godoc
// @Summary      Aprobar un movimiento pending
// @Description  Aplica el delta al stock bajo bloqueo del producto. Con stock insuficiente responde 409
// @Description  y el movimiento sigue pending. Ante conflicto de bloqueo responde 409 con Retry-After.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "UUID del movimiento"
// @Param        body  body  dto.ApproveMovementRequest  false  "nota opcional"
// @Success      200   {object}  dto.MovementResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id}/approve [post]
func (h *InventoryHandler) ApproveMovement(c *fiber.Ctx) error {
	var in dto.ApproveMovementRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	mov, err := h.ledger.ApproveMovement(c.UserContext(), GetActor(c), c.Params("id"), in.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToMovementResponse(mov))
}

// RejectMovement godoc
// @Summary      Rechazar un movimiento pending
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "UUID del movimiento"
// @Param        body  body  dto.RejectMovementRequest  true  "reason obligatorio"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id}/reject [post]
func (h *InventoryHandler) RejectMovement(c *fiber.Ctx) error {
	var in dto.RejectMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.ledger.RejectMovement(c.UserContext(), GetActor(c), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToMovementResponse(mov))
}

// Reconcile godoc
// @Summary      Conciliar stock de un producto contra su historial aprobado
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "UUID del producto"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/reconciliation [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	rec, err := h.ledger.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToReconciliationResponse(rec))
}

// LowStock godoc
// @Summary      Productos activos en o por debajo del mínimo
// @Description  Ordenados por stock_quantity / min_stock_level, los más críticos primero.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ProductResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.products.LowStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Summary godoc
// @Summary      Totales del inventario activo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/summary [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	out, err := h.products.Summary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// queryTime lee un parámetro RFC3339 opcional.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s debe ser RFC3339", domain.ErrValidation, key)
	}
	return &t, nil
}
