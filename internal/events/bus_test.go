package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(250 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestBus_PublishSubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[ForegroundChanged](b, 1)
	defer unsubscribe()

	require.NoError(t, b.Publish(context.Background(), ForegroundChanged{Package: "com.example"}))
	require.Equal(t, "com.example", receive(t, ch).Package)
}

func TestBus_InterfaceSubscriptionReceivesAllEvents(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[Event](b, 2)
	defer unsubscribe()

	require.NoError(t, b.Publish(context.Background(), ScreenOff{}))
	require.NoError(t, b.Publish(context.Background(), ScreenOn{}))
	require.Equal(t, "screen.off", receive(t, ch).Name())
	require.Equal(t, "screen.on", receive(t, ch).Name())
}

func TestBus_PublishBackpressure(t *testing.T) {
	b := NewBus()
	defer b.Close()

	_, unsubscribe := Subscribe[ScreenOff](b, 0)
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := b.Publish(ctx, ScreenOff{})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsubscribe := Subscribe[ScreenOn](b, 1)
	require.Equal(t, 1, SubscriberCount[ScreenOn](b))
	unsubscribe()
	unsubscribe()
	require.Equal(t, 0, SubscriberCount[ScreenOn](b))

	_, ok := <-ch
	require.False(t, ok)
	require.NoError(t, b.Publish(context.Background(), ScreenOn{}))
}

func TestBus_Close(t *testing.T) {
	b := NewBus()

	ch, _ := Subscribe[ScreenOff](b, 1)
	b.Close()

	_, ok := <-ch
	require.False(t, ok)
	require.Error(t, b.Publish(context.Background(), ScreenOff{}))

	late, _ := Subscribe[ScreenOff](b, 1)
	_, ok = <-late
	require.False(t, ok)
}

func TestBus_LossySubscriberNeverBlocks(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var dropped []string
	lossy, unsubLossy := SubscribeLossy(b, 1, func(evt Event) { dropped = append(dropped, evt.Name()) })
	defer unsubLossy()

	require.NoError(t, b.Publish(context.Background(), ScreenOff{}))
	require.NoError(t, b.Publish(context.Background(), ScreenOn{}))
	require.Equal(t, "screen.off", receive(t, lossy).Name())
	require.Equal(t, []string{"screen.on"}, dropped)
}

func TestBus_PublishReachesEverySubscriberDespiteFailure(t *testing.T) {
	b := NewBus()
	defer b.Close()

	_, unsubStuck := Subscribe[ScreenOff](b, 0)
	defer unsubStuck()
	screens, unsubScreens := Subscribe[ScreenEvent](b, 1)
	defer unsubScreens()
	all, unsubAll := SubscribeLossy[Event](b, 1, nil)
	defer unsubAll()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Error(t, b.Publish(ctx, ScreenOff{}))

	require.Equal(t, "screen.off", receive(t, all).Name())
	require.False(t, receive(t, screens).IsOn())
}
