// Package session keeps the wishlist and cart of every active storefront
// session in memory and evicts sessions that have gone idle. Evicted state
// stays in storage and is rehydrated on the next access.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lifestyle/storefront/internal/storage"
	"github.com/lifestyle/storefront/internal/store"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

// Defaults applied when Options leave a field at zero.
const (
	DefaultIdleTimeout = 30 * time.Minute
	purgeTimeout       = 30 * time.Second
)

var (
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_sessions_active",
			Help: "Sessions currently held in memory",
		},
	)

	evictedSessions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_sessions_evicted_total",
			Help: "Sessions evicted after being idle",
		},
	)
)

// Persistence is what the registry needs to hydrate and persist stores.
// *store.Persister satisfies it.
type Persistence interface {
	store.Loader
	store.Scheduler
}

// Session is the state owned by one storefront session.
type Session struct {
	ID       string
	Wishlist *store.Wishlist
	Cart     *store.Cart
}

type entry struct {
	session  *Session
	ready    chan struct{}
	lastSeen time.Time
}

// Options configures a Registry.
type Options struct {
	// IdleTimeout is how long a session may go unused before Sweep evicts it.
	IdleTimeout time.Duration
	// SweepInterval is the period of Run. Zero means half the idle timeout.
	SweepInterval time.Duration
	// Purger, when set, is asked to remove expired snapshots on every sweep.
	Purger storage.Purger
}

// Registry maps session ids to their stores.
type Registry struct {
	persist Persistence
	purger  storage.Purger
	logger  *slog.Logger

	idle     time.Duration
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry(persist Persistence, logger *slog.Logger, opts Options) *Registry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = opts.IdleTimeout / 2
	}
	return &Registry{
		persist:  persist,
		purger:   opts.Purger,
		logger:   logger,
		idle:     opts.IdleTimeout,
		interval: opts.SweepInterval,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Get returns the session with the given id, creating it and hydrating its
// stores from storage on first access. Concurrent first accesses share one
// hydration.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		select {
		case <-e.ready:
			return e.session, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e = &entry{ready: make(chan struct{}), lastSeen: r.now()}
	r.sessions[id] = e
	activeSessions.Inc()
	r.mu.Unlock()

	e.session = r.load(ctx, id)
	close(e.ready)

	r.logger.DebugContext(ctx, "session loaded",
		slog.String("session_id", id),
		slog.Int("wishlist_count", e.session.Wishlist.Count()),
		slog.Int("cart_count", e.session.Cart.Count()),
	)
	return e.session, nil
}

func (r *Registry) load(ctx context.Context, id string) *Session {
	// Hydration must finish even if the first caller goes away, since other
	// requests may be waiting on the same entry.
	ctx = context.WithoutCancel(ctx)
	return &Session{
		ID:       id,
		Wishlist: store.LoadWishlist(ctx, storage.WishlistKey(id), r.persist, r.persist, r.logger),
		Cart:     store.LoadCart(ctx, storage.CartKey(id), r.persist, r.persist, r.logger),
	}
}

// Sweep evicts every session not accessed within the idle timeout as of now
// and returns how many were evicted.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.sessions {
		select {
		case <-e.ready:
		default:
			// Still hydrating.
			continue
		}
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	if n > 0 {
		activeSessions.Sub(float64(n))
		evictedSessions.Add(float64(n))
	}
	return n
}

// Run sweeps idle sessions, and purges expired snapshots when a Purger is
// configured, every sweep interval until ctx ends.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Registry) tick(ctx context.Context) {
	now := r.now()
	if n := r.Sweep(now); n > 0 {
		r.logger.InfoContext(ctx, "evicted idle sessions",
			slog.Int("count", n),
			slog.Int("remaining", r.Len()),
		)
	}

	if r.purger == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()
	purged, err := r.purger.PurgeExpired(pctx, now)
	if err != nil {
		r.logger.WarnContext(ctx, "purge expired snapshots failed",
			slog.String("error", err.Error()),
		)
		return
	}
	if purged > 0 {
		r.logger.InfoContext(ctx, "purged expired snapshots", slog.Int64("count", purged))
	}
}

// Len returns the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
