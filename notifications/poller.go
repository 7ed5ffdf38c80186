package notifications

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/kaziflow-client/internal/logging"
	"github.com/jrsteele09/kaziflow-client/internal/resilience"
	"github.com/jrsteele09/kaziflow-client/sessions"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = 30 * time.Second

// Source is the remote side of the notification feed.
type Source interface {
	ListNotifications(ctx context.Context) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// SessionSource is the part of the session store the poller follows.
type SessionSource interface {
	Current() sessions.Session
	Subscribe(fn func(sessions.Session)) func()
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// Poller keeps an eventually consistent copy of the caller's notifications.
// At most one fetch is in flight; a poll requested while another is running
// is dropped. Results of fetches started before the last Stop are discarded.
type Poller struct {
	source   Source
	interval time.Duration

	lock       sync.RWMutex
	snapshot   []Notification
	unread     int
	generation uint64

	busy    atomic.Bool
	refetch atomic.Bool // MarkAsRead arrived while busy

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewPoller(source Source, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchNotifications replaces the snapshot with the server's current list.
// A failed fetch keeps the previous snapshot. It reports whether a result was
// applied; false means the fetch was skipped or its result discarded.
func (p *Poller) FetchNotifications(ctx context.Context) bool {
	return p.fetch(ctx, false)
}

// fetch runs fetchOnce unless another fetch is in flight. A forced request
// that finds one in flight makes the running fetch go round once more, since
// that fetch may have read the server before the change being synced.
func (p *Poller) fetch(ctx context.Context, force bool) bool {
	if !p.busy.CompareAndSwap(false, true) {
		if force {
			p.refetch.Store(true)
			logging.From(ctx).Debug().Msg("Notification fetch in flight, refetch queued")
			return false
		}
		logging.From(ctx).Debug().Msg("Notification fetch already in flight, skipping")
		return false
	}

	started := p.currentGeneration()
	applied := false
	for {
		if p.fetchOnce(ctx) {
			applied = true
		}
		// A stopped poller drops the queued refetch along with the session
		if p.refetch.Swap(false) && p.currentGeneration() == started {
			continue
		}
		p.busy.Store(false)
		// A request queued between the swap and the release would be lost
		if !p.refetch.Load() || !p.busy.CompareAndSwap(false, true) {
			return applied
		}
		if !p.refetch.Swap(false) || p.currentGeneration() != started {
			p.busy.Store(false)
			return applied
		}
	}
}

func (p *Poller) currentGeneration() uint64 {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.generation
}

func (p *Poller) fetchOnce(ctx context.Context) bool {
	p.lock.RLock()
	generation := p.generation
	previous := p.snapshot
	p.lock.RUnlock()

	fetch := resilience.WithFallback("notifications.list", p.source.ListNotifications, func() []Notification {
		return previous
	})
	next := fetch(ctx)

	p.lock.Lock()
	defer p.lock.Unlock()
	if p.generation != generation {
		logging.From(ctx).Debug().Msg("Session changed during fetch, discarding notifications")
		return false
	}
	p.snapshot = next
	p.unread = CountUnread(next)
	return true
}

// MarkAsRead acknowledges id and then refetches, whatever the outcome of the
// acknowledgement. The local read flag is never changed directly. If a fetch
// is already running the refetch happens right after it. It reports whether
// the server accepted the acknowledgement.
func (p *Poller) MarkAsRead(ctx context.Context, id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}

	acknowledged := true
	if err := p.source.MarkNotificationRead(ctx, id); err != nil {
		logging.From(ctx).Warn().Err(err).Str("notification_id", id).Msg("Failed to mark notification as read")
		acknowledged = false
	}
	p.fetch(ctx, true)
	return acknowledged
}

// Snapshot returns a copy of the last applied notification list.
func (p *Poller) Snapshot() []Notification {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return append([]Notification(nil), p.snapshot...)
}

// UnreadCount is derived from the last applied snapshot.
func (p *Poller) UnreadCount() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.unread
}

// Start fetches immediately and then on every interval until Stop is called
// or ctx ends. Starting a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.runningLocked() {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	go p.run(loopCtx, done)
	log.Debug().Dur("interval", p.interval).Msg("Notification polling started")
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.FetchNotifications(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.FetchNotifications(ctx)
		}
	}
}

// Stop cancels the timer, waits for the loop to exit and forgets the
// snapshot. Fetches still in flight will not be applied.
func (p *Poller) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.cancel != nil {
		p.cancel()
		<-p.done
		p.cancel, p.done = nil, nil
		log.Debug().Msg("Notification polling stopped")
	}

	p.lock.Lock()
	p.generation++
	p.snapshot = nil
	p.unread = 0
	p.lock.Unlock()
}

func (p *Poller) Running() bool {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	return p.runningLocked()
}

func (p *Poller) runningLocked() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// FollowSession polls while the session is authenticated and stops on logout.
// A new login restarts polling from an empty snapshot. The returned func
// detaches from the store and stops polling.
func (p *Poller) FollowSession(ctx context.Context, store SessionSource) func() {
	var (
		lock      sync.Mutex
		following uint64
	)

	// Always act on the latest session so a late call cannot resurrect polling.
	apply := func(sessions.Session) {
		lock.Lock()
		defer lock.Unlock()

		s := store.Current()
		if !s.Authenticated() {
			following = 0
			p.Stop()
			return
		}
		if s.Generation != following {
			p.Stop()
			following = s.Generation
		}
		p.Start(ctx)
	}

	unsubscribe := store.Subscribe(apply)
	apply(sessions.Session{})

	return func() {
		unsubscribe()
		p.Stop()
	}
}
