package discord

import (
	"context"
	"hash/fnv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neos-mentors/mentor-queue/internal/config"
	"github.com/neos-mentors/mentor-queue/internal/domain"
	"github.com/neos-mentors/mentor-queue/internal/events"
	"github.com/neos-mentors/mentor-queue/internal/observability"
)

// TicketSource is the slice of the ticket service the reconciler needs:
// re-reading current state and persisting the message association.
type TicketSource interface {
	GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	AssignDiscordMessage(ctx context.Context, ticketID, messageID string) (*domain.Ticket, error)
}

// Reconciler keeps each ticket's Discord message consistent with ticket
// state: the first event for a ticket creates the message, every later
// event edits it in place. Events are partitioned by ticket id across a
// fixed worker pool, so events for one ticket are always applied in the
// order they were published.
type Reconciler struct {
	tickets  TicketSource
	channel  Channel
	notifier events.Notifier
	logger   *zap.Logger
	metrics  *observability.Metrics

	queues    []chan events.Event
	opTimeout time.Duration
	grace     time.Duration

	sub     *events.Subscription
	group   *errgroup.Group
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewReconciler builds the reconciliation host.
func NewReconciler(tickets TicketSource, channel Channel, notifier events.Notifier, logger *zap.Logger, metrics *observability.Metrics, cfg config.ReconcilerConfig) *Reconciler {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 16
	}
	queues := make([]chan events.Event, workers)
	for i := range queues {
		queues[i] = make(chan events.Event, queueSize)
	}
	return &Reconciler{
		tickets:   tickets,
		channel:   channel,
		notifier:  notifier,
		logger:    logger,
		metrics:   metrics,
		queues:    queues,
		opTimeout: cfg.OpTimeout(),
		grace:     cfg.ShutdownGrace(),
		stopped:   make(chan struct{}),
	}
}

// Start launches the worker pool and subscribes to ticket events.
func (r *Reconciler) Start() {
	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	group, _ := errgroup.WithContext(runCtx)
	for i := range r.queues {
		queue := r.queues[i]
		group.Go(func() error {
			r.run(runCtx, queue)
			return nil
		})
	}
	r.group = group
	r.sub = r.notifier.Subscribe(r.enqueue)
}

// Stop unsubscribes, lets workers drain what was already queued, and waits
// up to the configured grace period before abandoning in-flight work.
func (r *Reconciler) Stop() {
	if r.sub != nil {
		r.sub.Unsubscribe()
	}
	close(r.stopped)

	done := make(chan struct{})
	go func() {
		if r.group != nil {
			_ = r.group.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(r.grace):
		r.logger.Warn("reconciler shutdown grace elapsed; abandoning in-flight work")
	}
	if r.cancel != nil {
		r.cancel()
	}
}

// enqueue runs on a notifier delivery goroutine; blocking here applies
// backpressure to this subscriber only, never to the publisher.
func (r *Reconciler) enqueue(event events.Event) {
	queue := r.queues[queueIndex(event.Ticket.ID, len(r.queues))]
	select {
	case queue <- event:
	case <-r.stopped:
		r.logger.Warn("dropping ticket event during shutdown",
			zap.String("event_id", event.ID),
			zap.String("ticket_id", event.Ticket.ID))
	}
}

func (r *Reconciler) run(ctx context.Context, queue chan events.Event) {
	for {
		select {
		case event := <-queue:
			r.reconcile(ctx, event)
		case <-r.stopped:
			// Drain events queued before shutdown began.
			for {
				select {
				case event := <-queue:
					r.reconcile(ctx, event)
				default:
					return
				}
			}
		}
	}
}

// reconcile processes one event in an isolated scope: errors are logged
// and contained, ticket state is never mutated on remote failure.
func (r *Reconciler) reconcile(ctx context.Context, event events.Event) {
	opCtx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic during ticket reconciliation",
				zap.String("ticket_id", event.Ticket.ID),
				zap.Any("panic", rec))
		}
	}()

	ticket, err := r.tickets.GetTicket(opCtx, event.Ticket.ID)
	if err != nil {
		r.record("fetch_error")
		r.logger.Warn("unable to load ticket for reconciliation",
			zap.String("ticket_id", event.Ticket.ID), zap.Error(err))
		return
	}

	payload := ticket.DisplayPayload()

	if ticket.DiscordMessageID != nil {
		if err := r.channel.Update(opCtx, *ticket.DiscordMessageID, payload); err != nil {
			r.record("update_error")
			r.logger.Warn("discord message update failed",
				zap.String("ticket_id", ticket.ID),
				zap.String("message_id", *ticket.DiscordMessageID),
				zap.Error(err))
			return
		}
		r.record("updated")
		return
	}

	messageID, err := r.channel.Send(opCtx, payload)
	if err != nil {
		r.record("send_error")
		r.logger.Warn("discord message send failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}

	updated, err := r.tickets.AssignDiscordMessage(opCtx, ticket.ID, messageID)
	if err != nil {
		// The message exists but the association is lost; the next event
		// for this ticket will create a duplicate. At-least-once, by
		// contract.
		r.record("assign_error")
		r.logger.Warn("discord message sent but association not persisted",
			zap.String("ticket_id", ticket.ID),
			zap.String("message_id", messageID),
			zap.Error(err))
		return
	}
	if updated.DiscordMessageID != nil && *updated.DiscordMessageID != messageID {
		r.record("orphaned")
		r.logger.Warn("concurrent assignment won; message orphaned",
			zap.String("ticket_id", ticket.ID),
			zap.String("kept_message_id", *updated.DiscordMessageID),
			zap.String("orphaned_message_id", messageID))
		return
	}
	r.record("created")
}

func (r *Reconciler) record(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordReconcile(outcome)
	}
}

func queueIndex(ticketID string, workers int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ticketID))
	return int(h.Sum32() % uint32(workers))
}
