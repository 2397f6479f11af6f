package shell

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/partsd/internal/host"
	"git.home.luguber.info/inful/partsd/internal/logfields"
)

type sessionWatch struct {
	pkg  string
	fn   func(host.PlaybackState)
	last host.PlaybackState
	seen bool
}

// sessionPoller serves host.MediaSessions.Watch by polling the session list.
// It runs only while at least one observer is registered. The first poll after
// registration delivers the current state.
type sessionPoller struct {
	list     func(context.Context) ([]host.Session, error)
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	watchers map[uint64]*sessionWatch
	nextID   uint64
	running  bool
}

func newSessionPoller(list func(context.Context) ([]host.Session, error), interval time.Duration) *sessionPoller {
	ctx, cancel := context.WithCancel(context.Background())
	return &sessionPoller{
		list:     list,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		watchers: make(map[uint64]*sessionWatch),
	}
}

func (p *sessionPoller) watch(pkg string, fn func(host.PlaybackState)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	p.watchers[id] = &sessionWatch{pkg: pkg, fn: fn}
	if !p.running && p.ctx.Err() == nil {
		p.running = true
		go p.loop()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, id)
			p.mu.Unlock()
		})
	}
}

func (p *sessionPoller) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.watchers)
}

func (p *sessionPoller) close() {
	p.cancel()
}

func (p *sessionPoller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return
		case <-ticker.C:
		}

		if !p.poll() {
			return
		}
	}
}

// poll delivers state changes and reports whether the loop should continue.
func (p *sessionPoller) poll() bool {
	p.mu.Lock()
	if len(p.watchers) == 0 {
		p.running = false
		p.mu.Unlock()
		return false
	}
	p.mu.Unlock()

	sessions, err := p.list(p.ctx)
	if err != nil {
		slog.Debug("Media session poll failed", logfields.Error(err))
		return true
	}

	type delivery struct {
		fn    func(host.PlaybackState)
		state host.PlaybackState
		pkg   string
	}
	var out []delivery

	p.mu.Lock()
	for _, w := range p.watchers {
		s, ok := host.FindSession(sessions, w.pkg)
		if !ok {
			continue
		}
		if w.seen && w.last == s.State {
			continue
		}
		w.seen = true
		w.last = s.State
		out = append(out, delivery{fn: w.fn, state: s.State, pkg: w.pkg})
	}
	p.mu.Unlock()

	for _, d := range out {
		slog.Debug("Playback state observed", logfields.Package(d.pkg), logfields.State(d.state.String()))
		d.fn(d.state)
	}
	return true
}
