package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketStatus_Lifecycle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    TicketStatus
		to      TicketStatus
		allowed bool
	}{
		{TicketStatusRequested, TicketStatusResponding, true},
		{TicketStatusRequested, TicketStatusCanceled, true},
		{TicketStatusRequested, TicketStatusCompleted, false},
		{TicketStatusResponding, TicketStatusRequested, true},
		{TicketStatusResponding, TicketStatusCompleted, true},
		{TicketStatusResponding, TicketStatusCanceled, true},
		{TicketStatusCompleted, TicketStatusRequested, false},
		{TicketStatusCompleted, TicketStatusCanceled, false},
		{TicketStatusCanceled, TicketStatusRequested, false},
		{TicketStatusCanceled, TicketStatusResponding, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}

	assert.False(t, TicketStatusRequested.IsTerminal())
	assert.False(t, TicketStatusResponding.IsTerminal())
	assert.True(t, TicketStatusCompleted.IsTerminal())
	assert.True(t, TicketStatusCanceled.IsTerminal())
}

func TestTicket_Clone(t *testing.T) {
	t.Parallel()

	claimed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	messageID := "msg-1"
	ticket := &Ticket{
		ID:               "t-1",
		RequesterName:    "alice",
		Status:           TicketStatusResponding,
		Mentor:           &Mentor{ID: "m-1", DisplayName: "bob", Token: "tok"},
		ClaimedAt:        &claimed,
		DiscordMessageID: &messageID,
	}

	clone := ticket.Clone()
	require.NotNil(t, clone)

	clone.Mentor.DisplayName = "changed"
	*clone.ClaimedAt = claimed.Add(time.Hour)
	*clone.DiscordMessageID = "msg-2"

	assert.Equal(t, "bob", ticket.Mentor.DisplayName)
	assert.Equal(t, claimed, *ticket.ClaimedAt)
	assert.Equal(t, "msg-1", *ticket.DiscordMessageID)
}

func TestTicket_DisplayPayload(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	claimed := created.Add(5 * time.Minute)
	completed := created.Add(30 * time.Minute)

	ticket := &Ticket{
		ID:            "t-1",
		RequesterName: "alice",
		Description:   "stuck on portals",
		Status:        TicketStatusCompleted,
		Mentor:        &Mentor{ID: "m-1", DisplayName: "bob"},
		CreatedAt:     created,
		ClaimedAt:     &claimed,
		CompletedAt:   &completed,
	}

	payload := ticket.DisplayPayload()
	assert.Equal(t, "Help requested by alice", payload.Title)
	assert.Equal(t, "stuck on portals", payload.Description)
	assert.Equal(t, TicketStatusCompleted, payload.Status)
	assert.Equal(t, "bob", payload.Mentor)
	require.NotNil(t, payload.ResolvedAt)
	assert.Equal(t, completed, *payload.ResolvedAt)

	// Pure projection: repeated calls agree.
	assert.Equal(t, payload, ticket.DisplayPayload())

	ticket.Mentor = nil
	ticket.Status = TicketStatusRequested
	ticket.CompletedAt = nil
	unassigned := ticket.DisplayPayload()
	assert.Empty(t, unassigned.Mentor)
	assert.Nil(t, unassigned.ResolvedAt)
	assert.NotEqual(t, payload.Color, unassigned.Color)
}
