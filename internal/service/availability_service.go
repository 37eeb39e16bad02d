package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tablebook/internal/domain"
	"tablebook/internal/metrics"
	"tablebook/internal/models"
	"tablebook/internal/solver"
)

// AvailabilityService answers "which slots can seat this party" for a
// given date. Each slot is evaluated independently so a store error on
// one slot degrades only that slot.
type AvailabilityService struct {
	store  domain.Store
	cache  domain.AvailabilityCache
	logger *zerolog.Logger

	maxBookingDays int
	maxPartySize   int
}

func NewAvailabilityService(store domain.Store, cache domain.AvailabilityCache, logger *zerolog.Logger, maxBookingDays, maxPartySize int) *AvailabilityService {
	return &AvailabilityService{
		store:          store,
		cache:          cache,
		logger:         logger,
		maxBookingDays: maxBookingDays,
		maxPartySize:   maxPartySize,
	}
}

// CheckAllAvailability returns a map keyed by slot time ("HH:MM"). An
// available slot carries the table combination chosen for the party; an
// unavailable slot carries no tables. Slots whose store query fails are
// reported unavailable rather than aborting the whole answer.
func (s *AvailabilityService) CheckAllAvailability(ctx context.Context, date string, partySize int) (map[string]models.SlotAvailability, error) {
	if partySize <= 0 {
		return nil, ErrInvalidPartySize
	}
	if partySize > s.maxPartySize {
		return nil, ErrPartySizeTooLarge
	}
	if err := validateBookingDate(date, s.maxBookingDays); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, date, partySize); err == nil && ok {
			return cached, nil
		} else if err != nil {
			s.logger.Warn().Err(err).Str("date", date).Msg("availability cache read failed")
		}
	}

	start := time.Now()
	result := make(map[string]models.SlotAvailability, len(models.AllSlots()))

	for _, slot := range models.AllSlots() {
		tables, err := s.store.GetAvailableTables(ctx, date, slot, "")
		if err != nil {
			s.logger.Error().Err(err).
				Str("date", date).
				Str("slot", slot).
				Msg("slot availability query failed")
			result[slot] = models.SlotAvailability{Available: false}
			continue
		}

		combo := solver.BestCombination(tables, partySize)
		if combo == nil {
			result[slot] = models.SlotAvailability{Available: false}
			continue
		}
		result[slot] = models.SlotAvailability{Available: true, Tables: combo}
	}

	metrics.ObserveAvailabilityCheck(time.Since(start).Seconds())

	if s.cache != nil {
		if err := s.cache.Set(ctx, date, partySize, result); err != nil {
			s.logger.Warn().Err(err).Str("date", date).Msg("availability cache write failed")
		}
	}

	return result, nil
}
