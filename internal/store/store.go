// Package store holds the per-session wishlist and cart state. Each store is
// an in-memory ordered map guarded by a mutex; every mutation hands a full
// snapshot to a Scheduler for best-effort persistence.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

// hydrate fills dst from the snapshot stored under key. A missing key leaves
// dst empty; unreadable or corrupt snapshots are logged and also leave it
// empty.
func hydrate(ctx context.Context, loader Loader, key string, dst json.Unmarshaler, logger *slog.Logger) bool {
	data, err := loader.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, "snapshot read failed, starting empty",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	if err := dst.UnmarshalJSON(data); err != nil {
		logger.WarnContext(ctx, "corrupt snapshot, starting empty",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// schedule serializes src and queues it. Callers hold the store lock so
// snapshots of one store are queued in mutation order.
func schedule(s Scheduler, key string, src json.Marshaler, logger *slog.Logger) {
	data, err := src.MarshalJSON()
	if err != nil {
		persistFailures.WithLabelValues("encode").Inc()
		logger.Warn("snapshot encode failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	s.Schedule(key, data)
}
