package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"iter"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neos-mentors/mentor-queue/internal/clock"
	"github.com/neos-mentors/mentor-queue/internal/domain"
	"github.com/neos-mentors/mentor-queue/internal/service"
	apperrors "github.com/neos-mentors/mentor-queue/pkg/util"
)

type memTicketRepo struct {
	tickets map[string]*domain.Ticket
}

func (r *memTicketRepo) Insert(_ context.Context, ticket *domain.Ticket) error {
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ticket.Clone(), nil
}

func (r *memTicketRepo) AssignDiscordMessage(_ context.Context, ticketID, messageID string) (bool, error) {
	ticket, ok := r.tickets[ticketID]
	if !ok || ticket.DiscordMessageID != nil {
		return false, nil
	}
	ticket.DiscordMessageID = &messageID
	return true, nil
}

func (r *memTicketRepo) ListIncomplete(_ context.Context) iter.Seq2[domain.Ticket, error] {
	return func(yield func(domain.Ticket, error) bool) {
		for _, ticket := range r.tickets {
			if ticket.Status.IsTerminal() {
				continue
			}
			if !yield(*ticket.Clone(), nil) {
				return
			}
		}
	}
}

type memMentorRepo struct {
	mentors map[string]*domain.Mentor
}

func (r *memMentorRepo) Insert(_ context.Context, mentor *domain.Mentor) error {
	r.mentors[mentor.Token] = mentor
	return nil
}

func (r *memMentorRepo) GetByID(_ context.Context, id string) (*domain.Mentor, error) {
	for _, mentor := range r.mentors {
		if mentor.ID == id {
			return mentor, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memMentorRepo) GetByToken(_ context.Context, token string) (*domain.Mentor, error) {
	mentor, ok := r.mentors[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return mentor, nil
}

func (r *memMentorRepo) List(_ context.Context) ([]domain.Mentor, error) {
	var result []domain.Mentor
	for _, mentor := range r.mentors {
		result = append(result, *mentor)
	}
	return result, nil
}

type memDirectory struct{}

func (memDirectory) GetByExternalID(_ context.Context, externalID string) (*domain.UserProfile, error) {
	if externalID != "u1" {
		return nil, nil
	}
	return &domain.UserProfile{ID: "u1", Username: "alice"}, nil
}

func newTicketApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := service.NewTicketService(service.TicketDependencies{
		TicketRepo: &memTicketRepo{tickets: make(map[string]*domain.Ticket)},
		MentorRepo: &memMentorRepo{mentors: map[string]*domain.Mentor{
			"tok-valid": {ID: "m-1", DisplayName: "bob", Token: "tok-valid"},
		}},
		Users: memDirectory{},
		Clock: clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
	})
	handler := NewTicketsHandler(svc)

	app := fiber.New(fiber.Config{ErrorHandler: errorToJSON})
	tickets := app.Group("/api/tickets")
	tickets.Post("/", handler.Create)
	tickets.Get("/:id", handler.Get)
	tickets.Post("/:id/claim", handler.Claim)
	tickets.Post("/:id/complete", handler.Complete)
	return app
}

// errorToJSON mirrors the production error middleware closely enough for
// handler assertions.
func errorToJSON(c *fiber.Ctx, err error) error {
	domainErr := apperrors.ToDomainError(err)
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}})
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload
}

func createTicket(t *testing.T, app *fiber.App) string {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/api/tickets/",
		bytes.NewBufferString(`{"external_user_id":"u1","description":"help"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	data := decodeBody(t, resp.Body)["data"].(map[string]any)
	assert.Equal(t, "REQUESTED", data["status"])
	return data["id"].(string)
}

func TestTicketsHandler_CreateAndGet(t *testing.T) {
	app := newTicketApp(t)
	id := createTicket(t, app)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/tickets/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp.Body)["data"].(map[string]any)
	assert.Equal(t, "alice", data["requester_name"])
	assert.Nil(t, data["mentor"])
	assert.Nil(t, data["discord_message_id"])
}

func TestTicketsHandler_CreateRejectsUnknownUser(t *testing.T) {
	app := newTicketApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/api/tickets/",
		bytes.NewBufferString(`{"external_user_id":"ghost"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	errField := decodeBody(t, resp.Body)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errField["code"])
}

func TestTicketsHandler_Claim(t *testing.T) {
	app := newTicketApp(t)
	id := createTicket(t, app)

	t.Run("missing token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/tickets/"+id+"/claim", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown token reads as not found", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/api/tickets/"+id+"/claim", nil)
		req.Header.Set("X-Mentor-Token", "tok-bogus")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("valid token claims and exposes mentor without token", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/api/tickets/"+id+"/claim", nil)
		req.Header.Set("X-Mentor-Token", "tok-valid")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		data := decodeBody(t, resp.Body)["data"].(map[string]any)
		assert.Equal(t, "RESPONDING", data["status"])
		mentor := data["mentor"].(map[string]any)
		assert.Equal(t, "bob", mentor["display_name"])
		_, leaked := mentor["token"]
		assert.False(t, leaked)
	})
}

func TestTicketsHandler_CompleteByWrongMentorIsNotFound(t *testing.T) {
	app := newTicketApp(t)
	id := createTicket(t, app)

	req := httptest.NewRequest(fiber.MethodPost, "/api/tickets/"+id+"/claim", nil)
	req.Header.Set("X-Mentor-Token", "tok-valid")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodPost, "/api/tickets/"+id+"/complete", nil)
	req.Header.Set("X-Mentor-Token", "some-other-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// State is untouched by the rejected attempt.
	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/tickets/"+id, nil))
	require.NoError(t, err)
	data := decodeBody(t, resp.Body)["data"].(map[string]any)
	assert.Equal(t, "RESPONDING", data["status"])
}
