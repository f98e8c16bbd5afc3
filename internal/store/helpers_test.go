package store

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/lifestyle/storefront/internal/domain"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(price)}
}

// recorder is a synchronous Scheduler and Loader that keeps every snapshot.
type recorder struct {
	mu     sync.Mutex
	writes []string
	latest map[string][]byte
}

func newRecorder() *recorder {
	return &recorder{latest: make(map[string][]byte)}
}

func (r *recorder) Schedule(key string, value []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, string(value))
	r.latest[key] = value
}

func (r *recorder) Load(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.latest[key]
	if !ok {
		return nil, apperrors.NotFound("storage key", key)
	}
	return v, nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.writes) == 0 {
		return ""
	}
	return r.writes[len(r.writes)-1]
}

// loaderFunc adapts a function to Loader.
type loaderFunc func(ctx context.Context, key string) ([]byte, error)

func (f loaderFunc) Load(ctx context.Context, key string) ([]byte, error) { return f(ctx, key) }
