package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lifestyle/storefront/internal/storage"
)

// DefaultWriteTimeout bounds a single storage write.
const DefaultWriteTimeout = 2 * time.Second

const defaultQueueSize = 1024

var (
	persistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_persist_failures_total",
			Help: "Snapshot writes that failed or panicked and were dropped",
		},
		[]string{"reason"},
	)

	persistWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_persist_writes_total",
			Help: "Snapshot writes applied to storage",
		},
	)

	persistQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_persist_queue_depth",
			Help: "Snapshot writes scheduled but not yet applied",
		},
	)
)

// ErrPersisterClosed is returned by Flush after Close.
var ErrPersisterClosed = errors.New("persister closed")

// Scheduler accepts snapshots for asynchronous persistence.
type Scheduler interface {
	Schedule(key string, value []byte)
}

// Loader reads the most recent snapshot for a key.
type Loader interface {
	Load(ctx context.Context, key string) ([]byte, error)
}

type write struct {
	key   string
	value []byte
	seq   uint64
	// barrier writes carry no data; done is closed once every earlier write
	// has been applied.
	done chan struct{}
}

type pending struct {
	value []byte
	seq   uint64
}

// Persister applies snapshot writes on a single goroutine in the order they
// were scheduled. Each write runs under its own timeout and a panic in the
// storage driver is recovered. Failures are logged and counted, never returned.
type Persister struct {
	storage storage.Storage
	logger  *slog.Logger
	timeout time.Duration

	queue chan write
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	pendingMu sync.Mutex
	pending   map[string]pending
	seq       uint64
}

// NewPersister starts the writer goroutine. A non-positive timeout uses
// DefaultWriteTimeout.
func NewPersister(st storage.Storage, logger *slog.Logger, timeout time.Duration) *Persister {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	p := &Persister{
		storage: st,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan write, defaultQueueSize),
		done:    make(chan struct{}),
		pending: make(map[string]pending),
	}
	go p.run()
	return p
}

// Schedule queues value to be written under key and returns immediately
// unless the queue is full. Scheduling after Close drops the write.
func (p *Persister) Schedule(key string, value []byte) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("snapshot dropped, persister closed", slog.String("key", key))
		return
	}

	p.pendingMu.Lock()
	p.seq++
	seq := p.seq
	p.pending[key] = pending{value: value, seq: seq}
	p.pendingMu.Unlock()

	persistQueueDepth.Inc()
	p.queue <- write{key: key, value: value, seq: seq}
}

// Load returns the latest snapshot for key, preferring a scheduled write that
// has not reached storage yet so a fresh reader never observes stale data.
func (p *Persister) Load(ctx context.Context, key string) ([]byte, error) {
	p.pendingMu.Lock()
	pw, ok := p.pending[key]
	p.pendingMu.Unlock()
	if ok {
		out := make([]byte, len(pw.value))
		copy(out, pw.value)
		return out, nil
	}
	return p.storage.Get(ctx, key)
}

// Flush blocks until every write scheduled before the call has been applied
// or ctx ends.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPersisterClosed
	}
	barrier := write{done: make(chan struct{})}
	select {
	case p.queue <- barrier:
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}
	p.mu.RUnlock()

	select {
	case <-barrier.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting writes, drains the queue and waits for the writer to
// exit. It is safe to call more than once.
func (p *Persister) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
}

func (p *Persister) run() {
	defer close(p.done)
	for w := range p.queue {
		if w.done != nil {
			close(w.done)
			continue
		}
		p.apply(w)
		persistQueueDepth.Dec()

		p.pendingMu.Lock()
		if cur, ok := p.pending[w.key]; ok && cur.seq == w.seq {
			delete(p.pending, w.key)
		}
		p.pendingMu.Unlock()
	}
}

func (p *Persister) apply(w write) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			persistFailures.WithLabelValues("panic").Inc()
			p.logger.Warn("snapshot write panicked",
				slog.String("key", w.key),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	if err := p.storage.Set(ctx, w.key, w.value); err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		persistFailures.WithLabelValues(reason).Inc()
		p.logger.Warn("snapshot write failed",
			slog.String("key", w.key),
			slog.String("error", err.Error()),
		)
		return
	}
	persistWrites.Inc()
}
