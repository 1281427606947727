package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/permission"
)

// Me godoc
// @Summary      Capacidades del usuario autenticado
// @Description  Rol desconocido devuelve una lista vacía.
// @Tags         permissions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.PermissionsResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/permissions/me [get]
func Me(c *fiber.Ctx) error {
	role := GetRole(c)
	caps := permission.RolePermissions(role)
	out := dto.PermissionsResponse{
		UserID:       GetUserID(c),
		Role:         role,
		Capabilities: make([]dto.CapabilityInfo, 0, len(caps)),
	}
	for _, capability := range caps {
		out.Capabilities = append(out.Capabilities, dto.CapabilityInfo{Name: string(capability), Description: permission.Describe(capability)})
	}
	return c.JSON(out)
}
