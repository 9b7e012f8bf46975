package events

import (
	"context"

	"github.com/sirupsen/logrus"
)

// HandlerFunc processes one event. Handlers may emit follow-up events; the
// bus appends them to its pending queue and drains them after the current
// event's handlers finish, so multi-hop dispatch is iterative and ordered.
type HandlerFunc func(ctx context.Context, ev Event, emit func(Event)) error

// Subscription binds a named handler to an event kind.
type Subscription struct {
	Kind    Kind
	Name    string
	Handler HandlerFunc
}

func Subscribe(kind Kind, name string, handler HandlerFunc) Subscription {
	return Subscription{Kind: kind, Name: name, Handler: handler}
}

// Bus is a static event-type → handlers table, built once at startup and
// passed by reference wherever events are dispatched.
type Bus struct {
	handlers map[Kind][]Subscription
	log      *logrus.Entry
}

func NewBus(log *logrus.Logger, subs ...Subscription) *Bus {
	handlers := make(map[Kind][]Subscription)
	for _, s := range subs {
		handlers[s.Kind] = append(handlers[s.Kind], s)
	}
	return &Bus{
		handlers: handlers,
		log:      log.WithField("component", "event_bus"),
	}
}

// Dispatch invokes every handler registered for the event, sequentially.
// A failing handler is logged and never blocks its siblings or the caller.
// Events emitted by handlers are queued and dispatched in FIFO order.
func (b *Bus) Dispatch(ctx context.Context, ev Event) {
	pending := []Event{ev}
	emit := func(next Event) {
		pending = append(pending, next)
	}

	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]

		subs := b.handlers[current.EventKind()]
		if len(subs) == 0 {
			b.log.Debugf("no handlers registered for %s", current.EventKind())
			continue
		}

		for _, sub := range subs {
			b.invoke(ctx, sub, current, emit)
		}
	}
}

func (b *Bus) invoke(ctx context.Context, sub Subscription, ev Event, emit func(Event)) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"handler": sub.Name,
				"event":   ev.EventKind(),
			}).Errorf("handler panicked: %v", r)
		}
	}()

	if err := sub.Handler(ctx, ev, emit); err != nil {
		b.log.WithFields(logrus.Fields{
			"handler": sub.Name,
			"event":   ev.EventKind(),
		}).WithError(err).Error("handler failed")
	}
}

// AsyncDispatcher decouples event processing from the request that raised
// the event. Delivery is at-most-once and best-effort: Publish never blocks
// and drops the event with a log line when the buffer is full.
type AsyncDispatcher struct {
	bus    *Bus
	events chan Event
	log    *logrus.Entry
}

func NewAsyncDispatcher(bus *Bus, log *logrus.Logger, buffer int) *AsyncDispatcher {
	return &AsyncDispatcher{
		bus:    bus,
		events: make(chan Event, buffer),
		log:    log.WithField("component", "async_dispatcher"),
	}
}

func (d *AsyncDispatcher) Start(ctx context.Context) {
	go func() {
		d.log.Info("async event dispatcher started")
		for {
			select {
			case ev := <-d.events:
				d.bus.Dispatch(ctx, ev)
			case <-ctx.Done():
				d.log.Info("async event dispatcher shutting down")
				return
			}
		}
	}()
}

func (d *AsyncDispatcher) Publish(ev Event) {
	select {
	case d.events <- ev:
	default:
		d.log.Warnf("event buffer full, dropping %s %s", ev.EventKind(), eventID(ev))
	}
}

func eventID(ev Event) string {
	switch e := ev.(type) {
	case HabitCompletedEvent:
		return e.EventID.String()
	case AchievementUnlockedEvent:
		return e.EventID.String()
	}
	return ""
}
