package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neos-mentors/mentor-queue/internal/api/dto"
	"github.com/neos-mentors/mentor-queue/internal/auth"
	"github.com/neos-mentors/mentor-queue/internal/observability"
	apperrors "github.com/neos-mentors/mentor-queue/pkg/util"
)

// AdminHandler manages operator login and diagnostics.
type AdminHandler struct {
	admin   *auth.Admin
	metrics *observability.Metrics
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(admin *auth.Admin, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{admin: admin, metrics: metrics}
}

// Login POST /api/admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	token, expiresAt, err := h.admin.Login(req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AdminLoginResponse{Token: token, ExpiresAt: expiresAt}})
}

// Metrics GET /api/admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
