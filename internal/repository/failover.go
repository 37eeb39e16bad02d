package repository

import (
	"context"
	"sync/atomic"
	"time"

	"tablebook/internal/domain"
	"tablebook/internal/models"

	"github.com/rs/zerolog"
)

// FailoverAvailabilityCache serves from a primary cache (redis) and
// falls back to an in-memory one when the primary fails, retrying the
// primary after a cooldown.
type FailoverAvailabilityCache struct {
	primary   domain.AvailabilityCache
	fallback  domain.AvailabilityCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of last failed primary attempt
}

const primaryRetryInterval = time.Minute

func NewFailoverAvailabilityCache(primary, fallback domain.AvailabilityCache, logger *zerolog.Logger) *FailoverAvailabilityCache {
	return &FailoverAvailabilityCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverAvailabilityCache) primaryUsable() bool {
	if !f.isDown.Load() {
		return true
	}
	return time.Since(time.Unix(0, f.lastCheck.Load())) > primaryRetryInterval
}

func (f *FailoverAvailabilityCache) markDown(err error) {
	f.logger.Error().Err(err).Msg("primary availability cache failed, falling back to memory")
	f.isDown.Store(true)
	f.lastCheck.Store(time.Now().UnixNano())
}

func (f *FailoverAvailabilityCache) Get(ctx context.Context, date string, partySize int) (map[string]models.SlotAvailability, bool, error) {
	if f.primaryUsable() {
		slots, ok, err := f.primary.Get(ctx, date, partySize)
		if err == nil {
			f.isDown.Store(false)
			return slots, ok, nil
		}
		f.markDown(err)
	}
	return f.fallback.Get(ctx, date, partySize)
}

func (f *FailoverAvailabilityCache) Set(ctx context.Context, date string, partySize int, slots map[string]models.SlotAvailability) error {
	if f.primaryUsable() {
		err := f.primary.Set(ctx, date, partySize, slots)
		if err == nil {
			f.isDown.Store(false)
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.Set(ctx, date, partySize, slots)
}

func (f *FailoverAvailabilityCache) InvalidateDate(ctx context.Context, date string) error {
	// Invalidation goes to both sides so a stale fallback entry can
	// never resurface after the primary recovers.
	var primaryErr error
	if f.primaryUsable() {
		if primaryErr = f.primary.InvalidateDate(ctx, date); primaryErr != nil {
			f.markDown(primaryErr)
		} else {
			f.isDown.Store(false)
		}
	}
	if err := f.fallback.InvalidateDate(ctx, date); err != nil {
		return err
	}
	return primaryErr
}
