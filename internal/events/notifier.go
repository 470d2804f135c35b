package events

import (
	"sync"

	"go.uber.org/zap"
)

// Handler consumes ticket events. Each subscription runs its handler on a
// dedicated goroutine, one event at a time, in publish order. A slow
// handler backs up its own queue, never the publisher.
type Handler func(Event)

// Publisher is the write side of the notifier.
type Publisher interface {
	Publish(event Event)
}

// Notifier fans ticket events out to subscribers. There is no retention:
// a handler registered after an event was published never sees it.
type Notifier interface {
	Publisher
	Subscribe(handler Handler) *Subscription
}

// Subscription is the handle returned by Subscribe. It owns the pump
// goroutine delivering events to its handler.
type Subscription struct {
	id       uint64
	handler  Handler
	notifier *notifier
	once     sync.Once

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
}

// Unsubscribe removes the handler. It is idempotent. No delivery starts
// after it returns; a delivery already in the handler may still complete,
// and events queued but not yet delivered are discarded.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.notifier == nil {
		return
	}
	s.once.Do(func() {
		s.notifier.mu.Lock()
		delete(s.notifier.subs, s.id)
		s.notifier.mu.Unlock()

		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cond.Broadcast()
	})
}

// offer appends the event to the subscription queue. Called by Publish;
// never blocks.
func (s *Subscription) offer(event Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *Subscription) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		event := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.run(event)
	}
}

// run invokes the handler with its own copy of the snapshot, containing
// panics so one subscriber cannot affect the publisher or its siblings.
func (s *Subscription) run(event Event) {
	defer func() {
		if r := recover(); r != nil {
			s.notifier.logger.Warn("ticket event handler panicked",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.Ticket.ID),
				zap.Any("panic", r))
		}
	}()
	event.Ticket = *event.Ticket.Clone()
	s.handler(event)
}

type notifier struct {
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
}

// NewNotifier creates an in-process notifier.
func NewNotifier(logger *zap.Logger) Notifier {
	return &notifier{
		logger: logger,
		subs:   make(map[uint64]*Subscription),
	}
}

func (n *notifier) Subscribe(handler Handler) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	sub := &Subscription{id: n.nextID, handler: handler, notifier: n}
	sub.cond = sync.NewCond(&sub.mu)
	n.subs[sub.id] = sub
	go sub.pump()
	return sub
}

// Publish hands the event to every currently-registered subscriber. The
// hand-off is an append to the subscription's queue, so a stalled
// subscriber never slows the publisher.
func (n *notifier) Publish(event Event) {
	n.mu.Lock()
	targets := make([]*Subscription, 0, len(n.subs))
	for _, sub := range n.subs {
		targets = append(targets, sub)
	}
	n.mu.Unlock()

	for _, sub := range targets {
		sub.offer(event)
	}
}
