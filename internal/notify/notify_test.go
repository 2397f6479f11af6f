package notify

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/partsd/internal/config"
	"git.home.luguber.info/inful/partsd/internal/events"
)

type memorySink struct {
	mu   sync.Mutex
	msgs map[string][][]byte
}

func (m *memorySink) Publish(_ context.Context, subject string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.msgs == nil {
		m.msgs = make(map[string][][]byte)
	}
	m.msgs[subject] = append(m.msgs[subject], data)
	return nil
}

func (m *memorySink) count(subject string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs[subject])
}

func TestForwardEnvelope(t *testing.T) {
	sink := &memorySink{}
	n := New(sink, "partsd")

	require.NoError(t, n.Forward(context.Background(), events.PackageStopped{SweepID: "s1", Package: "tv.danmaku.bili", Reason: "immediate"}))
	require.Equal(t, 1, sink.count("partsd.package.stopped"))

	var msg struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(sink.msgs["partsd.package.stopped"][0], &msg))
	assert.Equal(t, "package.stopped", msg.Event)
	assert.Equal(t, "tv.danmaku.bili", msg.Data["package"])
}

func TestRunForwardsBusEvents(t *testing.T) {
	sink := &memorySink{}
	bus := events.NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		New(sink, "partsd").Run(ctx, bus)
		close(done)
	}()
	require.Eventually(t, func() bool { return events.SubscriberCount[events.Event](bus) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, events.ScreenOff{At: time.Now()}))
	require.NoError(t, bus.Publish(ctx, events.ProfileApplied{Profile: "gaming"}))
	require.Eventually(t, func() bool {
		return sink.count("partsd.screen.off") == 1 && sink.count("partsd.profile.applied") == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

// stallingSink blocks every publish until release is closed.
type stallingSink struct {
	release chan struct{}
}

func (s *stallingSink) Publish(ctx context.Context, _ string, _ []byte) error {
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRunDoesNotStallPublishers(t *testing.T) {
	sink := &stallingSink{release: make(chan struct{})}
	defer close(sink.release)
	bus := events.NewBus()
	defer bus.Close()

	screens, unsubscribe := events.Subscribe[events.ScreenEvent](bus, 256)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := New(sink, "partsd")
	n.buffer = 2
	done := make(chan struct{})
	go func() {
		n.Run(ctx, bus)
		close(done)
	}()
	require.Eventually(t, func() bool { return events.SubscriberCount[events.Event](bus) == 1 }, time.Second, 5*time.Millisecond)

	for range 100 {
		pubCtx, pubCancel := context.WithTimeout(ctx, 100*time.Millisecond)
		require.NoError(t, bus.Publish(pubCtx, events.ScreenOff{At: time.Now()}))
		pubCancel()
	}
	assert.Len(t, screens, 100)
	assert.Positive(t, n.Dropped())

	cancel()
	<-done
}

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(context.Background(), config.NATSConfig{Enabled: false})
	require.Error(t, err)
}
