package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neos-mentors/mentor-queue/internal/config"
	"github.com/neos-mentors/mentor-queue/internal/domain"
	"github.com/neos-mentors/mentor-queue/internal/events"
)

type fakeTicketSource struct {
	mu        sync.Mutex
	tickets   map[string]*domain.Ticket
	assignErr error
}

func newFakeTicketSource(tickets ...*domain.Ticket) *fakeTicketSource {
	source := &fakeTicketSource{tickets: make(map[string]*domain.Ticket)}
	for _, ticket := range tickets {
		source.tickets[ticket.ID] = ticket.Clone()
	}
	return source
}

func (s *fakeTicketSource) GetTicket(_ context.Context, ticketID string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return nil, errors.New("ticket not found")
	}
	return ticket.Clone(), nil
}

func (s *fakeTicketSource) AssignDiscordMessage(_ context.Context, ticketID, messageID string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assignErr != nil {
		return nil, s.assignErr
	}
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return nil, errors.New("ticket not found")
	}
	if ticket.DiscordMessageID == nil {
		ticket.DiscordMessageID = &messageID
	}
	return ticket.Clone(), nil
}

// fakeDiscordChannel records operations in call order.
type fakeDiscordChannel struct {
	mu          sync.Mutex
	ops         []string
	nextID      int
	sendErr     error
	updateDelay time.Duration
}

func (c *fakeDiscordChannel) Send(_ context.Context, _ domain.DisplayPayload) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		c.ops = append(c.ops, "send_failed")
		return "", c.sendErr
	}
	c.nextID++
	id := fmt.Sprintf("msg-%d", c.nextID)
	c.ops = append(c.ops, "send:"+id)
	return id, nil
}

func (c *fakeDiscordChannel) Update(_ context.Context, messageID string, payload domain.DisplayPayload) error {
	c.mu.Lock()
	delay := c.updateDelay
	c.updateDelay = 0
	c.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, fmt.Sprintf("update:%s:%s", messageID, payload.Status))
	return nil
}

func (c *fakeDiscordChannel) operations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.ops...)
}

func testReconcilerConfig(workers int) config.ReconcilerConfig {
	return config.ReconcilerConfig{
		Workers:              workers,
		QueueSize:            32,
		OpTimeoutSeconds:     5,
		ShutdownGraceSeconds: 5,
	}
}

func requestedTicket(id string) *domain.Ticket {
	return &domain.Ticket{
		ID:            id,
		RequesterID:   "u1",
		RequesterName: "alice",
		Status:        domain.TicketStatusRequested,
		CreatedAt:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func waitForOps(t *testing.T, channel *fakeDiscordChannel, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(channel.operations()) >= n
	}, 2*time.Second, 5*time.Millisecond)
	return channel.operations()
}

func TestReconciler_CreateOnceThenUpdate(t *testing.T) {
	ticket := requestedTicket("t-1")
	source := newFakeTicketSource(ticket)
	channel := &fakeDiscordChannel{}
	notifier := events.NewNotifier(zap.NewNop())

	r := NewReconciler(source, channel, notifier, zap.NewNop(), nil, testReconcilerConfig(4))
	r.Start()
	defer r.Stop()

	notifier.Publish(events.Event{ID: "e-1", Type: events.EventTicketCreated, Ticket: *ticket})
	waitForOps(t, channel, 1)

	// State changed since the first message went out; the next event edits
	// the same message instead of sending a new one.
	source.mu.Lock()
	source.tickets["t-1"].Status = domain.TicketStatusResponding
	source.mu.Unlock()
	notifier.Publish(events.Event{ID: "e-2", Type: events.EventTicketUpdated, Ticket: *ticket})

	ops := waitForOps(t, channel, 2)
	assert.Equal(t, "send:msg-1", ops[0])
	assert.Equal(t, "update:msg-1:RESPONDING", ops[1])

	stored, err := source.GetTicket(context.Background(), "t-1")
	require.NoError(t, err)
	require.NotNil(t, stored.DiscordMessageID)
	assert.Equal(t, "msg-1", *stored.DiscordMessageID)
}

func TestReconciler_SameTicketEventsAreSerialized(t *testing.T) {
	ticket := requestedTicket("t-ordered")
	msgID := "msg-0"
	ticket.DiscordMessageID = &msgID
	source := newFakeTicketSource(ticket)
	// The first update stalls; with many workers a second event for the
	// same ticket must still wait behind it.
	channel := &fakeDiscordChannel{updateDelay: 100 * time.Millisecond}
	notifier := events.NewNotifier(zap.NewNop())

	r := NewReconciler(source, channel, notifier, zap.NewNop(), nil, testReconcilerConfig(8))
	r.Start()
	defer r.Stop()

	notifier.Publish(events.Event{ID: "e-1", Type: events.EventTicketUpdated, Ticket: *ticket})
	source.mu.Lock()
	source.tickets["t-ordered"].Status = domain.TicketStatusResponding
	source.mu.Unlock()
	notifier.Publish(events.Event{ID: "e-2", Type: events.EventTicketUpdated, Ticket: *ticket})

	ops := waitForOps(t, channel, 2)
	assert.Equal(t, "update:msg-0:REQUESTED", ops[0])
	assert.Equal(t, "update:msg-0:RESPONDING", ops[1])
}

func TestReconciler_SendFailureLeavesTicketUnassociated(t *testing.T) {
	ticket := requestedTicket("t-fail")
	source := newFakeTicketSource(ticket)
	channel := &fakeDiscordChannel{sendErr: errors.New("discord unavailable")}
	notifier := events.NewNotifier(zap.NewNop())

	r := NewReconciler(source, channel, notifier, zap.NewNop(), nil, testReconcilerConfig(1))
	r.Start()

	notifier.Publish(events.Event{ID: "e-1", Type: events.EventTicketCreated, Ticket: *ticket})
	waitForOps(t, channel, 1)
	r.Stop()

	stored, err := source.GetTicket(context.Background(), "t-fail")
	require.NoError(t, err)
	assert.Nil(t, stored.DiscordMessageID)

	// Once the outage clears, the next event creates the message.
	channel.mu.Lock()
	channel.sendErr = nil
	channel.mu.Unlock()
	r2 := NewReconciler(source, channel, notifier, zap.NewNop(), nil, testReconcilerConfig(1))
	r2.Start()
	defer r2.Stop()
	notifier.Publish(events.Event{ID: "e-2", Type: events.EventTicketUpdated, Ticket: *ticket})

	ops := waitForOps(t, channel, 2)
	assert.Equal(t, "send:msg-1", ops[1])
}

func TestReconciler_AssignFailureProducesSecondSend(t *testing.T) {
	ticket := requestedTicket("t-dup")
	source := newFakeTicketSource(ticket)
	source.assignErr = errors.New("connection reset")
	channel := &fakeDiscordChannel{}
	notifier := events.NewNotifier(zap.NewNop())

	r := NewReconciler(source, channel, notifier, zap.NewNop(), nil, testReconcilerConfig(2))
	r.Start()
	defer r.Stop()

	notifier.Publish(events.Event{ID: "e-1", Type: events.EventTicketCreated, Ticket: *ticket})
	waitForOps(t, channel, 1)

	// The association was lost, so the next event sends again. Duplicate
	// messages are the accepted cost of at-least-once delivery.
	source.mu.Lock()
	source.assignErr = nil
	source.mu.Unlock()
	notifier.Publish(events.Event{ID: "e-2", Type: events.EventTicketUpdated, Ticket: *ticket})

	ops := waitForOps(t, channel, 2)
	assert.Equal(t, "send:msg-1", ops[0])
	assert.Equal(t, "send:msg-2", ops[1])
}

func TestReconciler_StopDrainsQueuedEvents(t *testing.T) {
	ticket := requestedTicket("t-drain")
	source := newFakeTicketSource(ticket)
	channel := &fakeDiscordChannel{}
	notifier := events.NewNotifier(zap.NewNop())

	r := NewReconciler(source, channel, notifier, zap.NewNop(), nil, testReconcilerConfig(1))

	// Queue events before the workers run, then stop immediately. Everything
	// already accepted must still be reconciled before Stop returns.
	for i := 0; i < 3; i++ {
		r.enqueue(events.Event{
			ID:     fmt.Sprintf("e-%d", i+1),
			Type:   events.EventTicketUpdated,
			Ticket: *ticket,
		})
	}
	r.Start()
	r.Stop()

	assert.Len(t, channel.operations(), 3)
}
