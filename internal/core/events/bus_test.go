package events

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestDispatchNoSubscribers(t *testing.T) {
	bus := NewBus(quietLogger())

	// Nothing registered: dispatch must be a silent no-op.
	bus.Dispatch(context.Background(), HabitCompletedEvent{Base: NewBase(uuid.New())})
}

func TestDispatchFaultIsolation(t *testing.T) {
	var calls []string

	bus := NewBus(quietLogger(),
		Subscribe(KindHabitCompleted, "fails", func(ctx context.Context, ev Event, emit func(Event)) error {
			calls = append(calls, "fails")
			return errors.New("boom")
		}),
		Subscribe(KindHabitCompleted, "panics", func(ctx context.Context, ev Event, emit func(Event)) error {
			calls = append(calls, "panics")
			panic("boom")
		}),
		Subscribe(KindHabitCompleted, "succeeds", func(ctx context.Context, ev Event, emit func(Event)) error {
			calls = append(calls, "succeeds")
			return nil
		}),
	)

	bus.Dispatch(context.Background(), HabitCompletedEvent{Base: NewBase(uuid.New())})

	// Every handler ran despite its siblings failing, in registration order.
	assert.Equal(t, []string{"fails", "panics", "succeeds"}, calls)
}

func TestDispatchReentrantEmit(t *testing.T) {
	var calls []string

	bus := NewBus(quietLogger(),
		Subscribe(KindHabitCompleted, "first", func(ctx context.Context, ev Event, emit func(Event)) error {
			calls = append(calls, "first")
			emit(AchievementUnlockedEvent{Base: NewBase(uuid.New()), AchievementType: "1 Week Streak"})
			return nil
		}),
		Subscribe(KindHabitCompleted, "second", func(ctx context.Context, ev Event, emit func(Event)) error {
			calls = append(calls, "second")
			return nil
		}),
		Subscribe(KindAchievementUnlocked, "followup", func(ctx context.Context, ev Event, emit func(Event)) error {
			calls = append(calls, "followup")
			return nil
		}),
	)

	bus.Dispatch(context.Background(), HabitCompletedEvent{Base: NewBase(uuid.New())})

	// The emitted event waits until all handlers of the current event ran.
	assert.Equal(t, []string{"first", "second", "followup"}, calls)
}

func TestAsyncDispatcher(t *testing.T) {
	t.Run("Delivers in the background", func(t *testing.T) {
		done := make(chan Event, 1)
		bus := NewBus(quietLogger(),
			Subscribe(KindHabitCompleted, "capture", func(ctx context.Context, ev Event, emit func(Event)) error {
				done <- ev
				return nil
			}),
		)

		dispatcher := NewAsyncDispatcher(bus, quietLogger(), 4)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		dispatcher.Start(ctx)

		sent := HabitCompletedEvent{Base: NewBase(uuid.New()), StreakCount: 3}
		dispatcher.Publish(sent)

		select {
		case got := <-done:
			assert.Equal(t, sent, got)
		case <-time.After(2 * time.Second):
			t.Fatal("event was never dispatched")
		}
	})

	t.Run("Full buffer drops instead of blocking", func(t *testing.T) {
		bus := NewBus(quietLogger())
		dispatcher := NewAsyncDispatcher(bus, quietLogger(), 1)
		// Never started: the buffer holds one event, the second must not block.

		dispatcher.Publish(HabitCompletedEvent{Base: NewBase(uuid.New())})

		finished := make(chan struct{})
		go func() {
			dispatcher.Publish(HabitCompletedEvent{Base: NewBase(uuid.New())})
			close(finished)
		}()

		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked on a full buffer")
		}
	})
}
