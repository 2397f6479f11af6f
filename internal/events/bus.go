// Package events is the daemon's in-process, typed publish/subscribe bus and
// the device events carried on it.
package events

import (
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

// Bus delivers events to subscribers keyed by Go type. Publish blocks until
// every blocking subscriber accepted the event or ctx is done; lossy
// subscribers never block it. Nothing is persisted.
type Bus struct {
	mu        sync.RWMutex
	subs      map[reflect.Type]map[uint64]*subscriber
	nextID    atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

type subscriber struct {
	lossy   bool
	deliver func(ctx context.Context, evt any) error
	close   func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[reflect.Type]map[uint64]*subscriber)}
}

// Subscribe registers a channel for events of type T and returns it with an
// unsubscribe func. An interface T receives every event implementing it.
// Publish waits for the channel to accept each event.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	return subscribe[T](b, buffer, nil)
}

// SubscribeLossy is Subscribe for consumers that must not hold up publishers:
// an event arriving while the buffer is full is passed to onDrop, which may be
// nil, and discarded.
func SubscribeLossy[T any](b *Bus, buffer int, onDrop func(T)) (<-chan T, func()) {
	if onDrop == nil {
		onDrop = func(T) {}
	}
	return subscribe(b, buffer, onDrop)
}

func subscribe[T any](b *Bus, buffer int, onDrop func(T)) (<-chan T, func()) {
	eventType := reflect.TypeFor[T]()
	ch := make(chan T, buffer)

	var closeOnce sync.Once
	closeCh := func() { closeOnce.Do(func() { close(ch) }) }

	if b.closed.Load() {
		closeCh()
		return ch, func() {}
	}

	id := b.nextID.Add(1)
	sub := &subscriber{
		lossy: onDrop != nil,
		deliver: func(ctx context.Context, evt any) error {
			v, ok := evt.(T)
			if !ok {
				return ferrors.InternalError("event type mismatch").
					WithContext("expected", eventType.String()).
					WithContext("actual", reflect.TypeOf(evt).String()).
					Build()
			}
			if onDrop != nil {
				select {
				case ch <- v:
				default:
					onDrop(v)
				}
				return nil
			}
			select {
			case ch <- v:
				return nil
			default:
			}
			select {
			case ch <- v:
				return nil
			case <-ctx.Done():
				return ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "event publish canceled").
					WithContext("event_type", eventType.String()).
					Build()
			}
		},
		close: closeCh,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		closeCh()
		return ch, func() {}
	}
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[uint64]*subscriber)
	}
	b.subs[eventType][id] = sub

	var unsubOnce sync.Once
	return ch, func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			if typeSubs, ok := b.subs[eventType]; ok {
				delete(typeSubs, id)
				if len(typeSubs) == 0 {
					delete(b.subs, eventType)
				}
			}
			b.mu.Unlock()
			closeCh()
		})
	}
}

// SubscriberCount returns the number of subscribers for events of type T.
func SubscriberCount[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[reflect.TypeFor[T]()])
}

// Publish delivers evt to all matching subscribers.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return ferrors.ValidationError("event cannot be nil").Build()
	}
	if b.closed.Load() {
		return ferrors.DaemonError("event bus is closed").Build()
	}

	evtType := reflect.TypeOf(evt)
	b.mu.RLock()
	var targets []*subscriber
	for subType, typeSubs := range b.subs {
		if subType != evtType && (subType.Kind() != reflect.Interface || !evtType.Implements(subType)) {
			continue
		}
		for _, s := range typeSubs {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	// Lossy subscribers go first so they see the event even when a blocking
	// one times out. Every target is tried; the first failure is returned.
	slices.SortStableFunc(targets, func(x, y *subscriber) int {
		switch {
		case x.lossy == y.lossy:
			return 0
		case x.lossy:
			return -1
		default:
			return 1
		}
	})
	var firstErr error
	for _, s := range targets {
		if err := s.deliver(ctx, evt); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes the bus and every subscription channel.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.closed.Store(true)

		b.mu.Lock()
		var toClose []*subscriber
		for _, typeSubs := range b.subs {
			for _, s := range typeSubs {
				toClose = append(toClose, s)
			}
		}
		b.subs = make(map[reflect.Type]map[uint64]*subscriber)
		b.mu.Unlock()

		for _, s := range toClose {
			s.close()
		}
	})
}
