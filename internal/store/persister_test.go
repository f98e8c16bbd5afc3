package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifestyle/storefront/internal/domain"
	"github.com/lifestyle/storefront/internal/storage"
	redisstore "github.com/lifestyle/storefront/internal/storage/redis"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

// fakeStorage records Set calls and lets tests inject failures.
type fakeStorage struct {
	mu    sync.Mutex
	data  map[string][]byte
	order []string
	setFn func(ctx context.Context, key string, value []byte) error
	gate  chan struct{}
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: make(map[string][]byte)}
}

func (f *fakeStorage) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, apperrors.NotFound("storage key", key)
	}
	return v, nil
}

func (f *fakeStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.gate != nil {
		<-f.gate
	}
	if f.setFn != nil {
		if err := f.setFn(ctx, key, value); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	f.order = append(f.order, string(value))
	return nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeStorage) Ping(context.Context) error { return nil }

func (f *fakeStorage) applied() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func TestPersister_AppliesInOrder(t *testing.T) {
	st := newFakeStorage()
	p := NewPersister(st, discardLogger(), time.Second)
	defer p.Close()

	p.Schedule("k", []byte("1"))
	p.Schedule("k", []byte("2"))
	p.Schedule("k", []byte("3"))
	require.NoError(t, p.Flush(context.Background()))

	assert.Equal(t, []string{"1", "2", "3"}, st.applied())
	v, err := st.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "3", string(v))
}

func TestPersister_LoadPrefersPendingWrite(t *testing.T) {
	st := newFakeStorage()
	st.data["k"] = []byte("old")
	st.gate = make(chan struct{})
	p := NewPersister(st, discardLogger(), time.Second)

	p.Schedule("k", []byte("new"))

	v, err := p.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(v))

	close(st.gate)
	require.NoError(t, p.Flush(context.Background()))

	v, err = p.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(v))
	p.Close()
}

func TestPersister_LoadMissingKey(t *testing.T) {
	p := NewPersister(newFakeStorage(), discardLogger(), time.Second)
	defer p.Close()

	_, err := p.Load(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestPersister_FailureIsSwallowed(t *testing.T) {
	st := newFakeStorage()
	st.setFn = func(_ context.Context, key string, _ []byte) error {
		if key == "bad" {
			return errors.New("disk full")
		}
		return nil
	}
	p := NewPersister(st, discardLogger(), time.Second)
	defer p.Close()

	p.Schedule("bad", []byte("x"))
	p.Schedule("good", []byte("y"))
	require.NoError(t, p.Flush(context.Background()))

	assert.Equal(t, []string{"y"}, st.applied())

	// A failed write is no longer pending; readers fall through to storage.
	_, err := p.Load(context.Background(), "bad")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestPersister_RecoversFromPanic(t *testing.T) {
	st := newFakeStorage()
	st.setFn = func(_ context.Context, key string, _ []byte) error {
		if key == "boom" {
			panic("driver bug")
		}
		return nil
	}
	p := NewPersister(st, discardLogger(), time.Second)
	defer p.Close()

	p.Schedule("boom", []byte("x"))
	p.Schedule("after", []byte("y"))
	require.NoError(t, p.Flush(context.Background()))

	assert.Equal(t, []string{"y"}, st.applied())
}

func TestPersister_WriteTimeout(t *testing.T) {
	st := newFakeStorage()
	st.setFn = func(ctx context.Context, _ string, _ []byte) error {
		<-ctx.Done()
		return ctx.Err()
	}
	p := NewPersister(st, discardLogger(), 20*time.Millisecond)
	defer p.Close()

	p.Schedule("slow", []byte("x"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Flush(ctx))
	assert.Empty(t, st.applied())
}

func TestPersister_FlushHonorsContext(t *testing.T) {
	st := newFakeStorage()
	st.gate = make(chan struct{})
	p := NewPersister(st, discardLogger(), time.Second)

	p.Schedule("k", []byte("1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Flush(ctx), context.DeadlineExceeded)

	close(st.gate)
	p.Close()
}

func TestPersister_CloseDrainsAndIsIdempotent(t *testing.T) {
	st := newFakeStorage()
	p := NewPersister(st, discardLogger(), time.Second)

	p.Schedule("a", []byte("1"))
	p.Schedule("b", []byte("2"))
	p.Close()
	p.Close()

	assert.Equal(t, []string{"1", "2"}, st.applied())

	p.Schedule("c", []byte("3"))
	assert.Equal(t, []string{"1", "2"}, st.applied())
	assert.ErrorIs(t, p.Flush(context.Background()), ErrPersisterClosed)
}

func TestPersister_DefaultTimeout(t *testing.T) {
	p := NewPersister(newFakeStorage(), discardLogger(), 0)
	defer p.Close()
	assert.Equal(t, DefaultWriteTimeout, p.timeout)
}

func TestStores_RoundTripThroughDrivers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	drivers := map[string]storage.Storage{
		storage.DriverMemory: storage.NewMemory(time.Hour),
		storage.DriverRedis:  redisstore.New(client, time.Hour),
	}

	for name, st := range drivers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := NewPersister(st, discardLogger(), time.Second)

			cartKey := storage.CartKey("s-" + name)
			wishKey := storage.WishlistKey("s-" + name)

			c := NewCart(cartKey, p, discardLogger())
			require.NoError(t, c.Add(product("p1", 500), 2, "M"))
			require.NoError(t, c.Add(product("p2", 300), 1, ""))
			c.UpdateQty("p1__M", 3)

			w := NewWishlist(wishKey, p, discardLogger())
			w.Add(product("p9", 999))
			w.Add(product("p4", 1299))

			p.Close()

			// A fresh persister reads only what reached storage.
			fresh := NewPersister(st, discardLogger(), time.Second)
			defer fresh.Close()

			rc := LoadCart(ctx, cartKey, fresh, fresh, discardLogger())
			assert.Equal(t, 4, rc.Count())
			assertDecimal(t, 1800, rc.Subtotal())
			assert.Equal(t, []string{"p1__M", "p2__NA"}, lineKeys(rc.Items()))

			rw := LoadWishlist(ctx, wishKey, fresh, fresh, discardLogger())
			assert.Equal(t, []string{"p9", "p4"}, ids(rw.List()))
		})
	}
}

func lineKeys(items []domain.LineItem) []string {
	out := make([]string, 0, len(items))
	for _, li := range items {
		out = append(out, li.Key)
	}
	return out
}
