package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neos-mentors/mentor-queue/internal/api/dto"
	"github.com/neos-mentors/mentor-queue/internal/service"
	apperrors "github.com/neos-mentors/mentor-queue/pkg/util"
)

// mentorTokenHeader carries the mentor's capability token on claim,
// unclaim, and complete calls.
const mentorTokenHeader = "X-Mentor-Token"

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /api/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		ExternalUserID: req.ExternalUserID,
		DisplayName:    req.DisplayName,
		Description:    req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListIncomplete GET /api/tickets.
func (h *TicketsHandler) ListIncomplete(c *fiber.Ctx) error {
	result := []dto.TicketResponse{}
	for ticket, err := range h.service.ListIncomplete(c.UserContext()) {
		if err != nil {
			return apperrors.MapError(err)
		}
		result = append(result, dto.NewTicketResponse(&ticket))
	}
	return c.JSON(fiber.Map{"data": result})
}

// Claim POST /api/tickets/:id/claim.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	token := c.Get(mentorTokenHeader)
	if token == "" {
		return apperrors.NewValidationError("mentor token required", nil)
	}
	ticket, _, err := h.service.ClaimTicket(c.UserContext(), c.Params("id"), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Unclaim POST /api/tickets/:id/unclaim.
func (h *TicketsHandler) Unclaim(c *fiber.Ctx) error {
	token := c.Get(mentorTokenHeader)
	if token == "" {
		return apperrors.NewValidationError("mentor token required", nil)
	}
	ticket, _, err := h.service.UnclaimTicket(c.UserContext(), c.Params("id"), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Complete POST /api/tickets/:id/complete.
func (h *TicketsHandler) Complete(c *fiber.Ctx) error {
	token := c.Get(mentorTokenHeader)
	if token == "" {
		return apperrors.NewValidationError("mentor token required", nil)
	}
	ticket, _, err := h.service.CompleteTicket(c.UserContext(), c.Params("id"), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Cancel POST /api/tickets/:id/cancel.
func (h *TicketsHandler) Cancel(c *fiber.Ctx) error {
	ticket, _, err := h.service.CancelTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}
