package events

import (
	"log/slog"
	"sync"
)

// Observer is notified about bus activity. It lets the metrics package watch
// the bus without the bus depending on it.
type Observer interface {
	Published(kind Kind, subscribers int)
	SubscribersChanged(n int)
}

// Bus fans events out to every current subscriber.
//
// Each subscriber receives every event published after it subscribed, in
// publish order. Publish never blocks on a slow subscriber: events queue in
// the subscriber's mailbox until it reads them or unsubscribes. Nothing is
// persisted or replayed.
type Bus struct {
	mu       sync.Mutex
	subs     map[uint64]*Subscription
	nextID   uint64
	log      *slog.Logger
	observer Observer
}

// NewBus creates an empty bus. observer may be nil.
func NewBus(log *slog.Logger, observer Observer) *Bus {
	return &Bus{
		subs:     make(map[uint64]*Subscription),
		log:      log.With("component", "events"),
		observer: observer,
	}
}

// Subscribe registers a new subscriber. The caller must Unsubscribe when it
// is no longer interested.
func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{
		bus:    b,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan Event),
	}

	b.mu.Lock()
	b.nextID++
	s.id = b.nextID
	b.subs[s.id] = s
	n := len(b.subs)
	b.mu.Unlock()

	go s.pump()

	b.log.Debug("subscriber added", slog.Uint64("subscription_id", s.id), slog.Int("subscribers", n))
	if b.observer != nil {
		b.observer.SubscribersChanged(n)
	}
	return s
}

// Publish delivers e to every current subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	n := len(b.subs)
	for _, s := range b.subs {
		s.enqueue(e)
	}
	b.mu.Unlock()

	b.log.Debug("event published", slog.String("kind", string(e.Kind())), slog.Int("subscribers", n))
	if b.observer != nil {
		b.observer.Published(e.Kind(), n)
	}
}

// Subscribers returns the number of current subscribers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	n := len(b.subs)
	b.mu.Unlock()

	b.log.Debug("subscriber removed", slog.Uint64("subscription_id", id), slog.Int("subscribers", n))
	if b.observer != nil {
		b.observer.SubscribersChanged(n)
	}
}

// Subscription is one subscriber's view of the bus.
type Subscription struct {
	id  uint64
	bus *Bus

	mu      sync.Mutex
	mailbox []Event
	closed  bool

	notify chan struct{}
	done   chan struct{}
	out    chan Event
	once   sync.Once
}

// Events returns the channel events are delivered on. It is closed after
// Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Unsubscribe detaches the subscription from the bus and closes Events.
// Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s.id)

		s.mu.Lock()
		s.closed = true
		s.mailbox = nil
		s.mu.Unlock()

		close(s.done)
	})
}

func (s *Subscription) enqueue(e Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mailbox = append(s.mailbox, e)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// pump moves mailbox contents onto out, one event at a time, until the
// subscription is closed.
func (s *Subscription) pump() {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case <-s.notify:
		}

		for {
			s.mu.Lock()
			if len(s.mailbox) == 0 {
				s.mu.Unlock()
				break
			}
			e := s.mailbox[0]
			s.mailbox[0] = nil
			s.mailbox = s.mailbox[1:]
			s.mu.Unlock()

			select {
			case s.out <- e:
			case <-s.done:
				return
			}
		}
	}
}
