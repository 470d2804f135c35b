package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/neos-mentors/mentor-queue/internal/api/dto"
	"github.com/neos-mentors/mentor-queue/internal/service"
	apperrors "github.com/neos-mentors/mentor-queue/pkg/util"
)

// MentorsHandler manages mentor provisioning endpoints.
type MentorsHandler struct {
	service *service.MentorService
}

// NewMentorsHandler constructs the handler.
func NewMentorsHandler(mentorService *service.MentorService) *MentorsHandler {
	return &MentorsHandler{service: mentorService}
}

// Create POST /api/admin/mentors. The response carries the generated
// token; it is not retrievable afterwards.
func (h *MentorsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateMentorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	mentor, err := h.service.CreateMentor(c.UserContext(), req.DisplayName)
	if err != nil {
		return err
	}
	resp := dto.NewMentorResponse(mentor)
	resp.Token = mentor.Token
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": resp})
}

// List GET /api/admin/mentors.
func (h *MentorsHandler) List(c *fiber.Ctx) error {
	mentors, err := h.service.ListMentors(c.UserContext())
	if err != nil {
		return err
	}
	result := make([]dto.MentorResponse, 0, len(mentors))
	for i := range mentors {
		result = append(result, dto.NewMentorResponse(&mentors[i]))
	}
	return c.JSON(fiber.Map{"data": result})
}
