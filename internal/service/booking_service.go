package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"tablebook/internal/domain"
	"tablebook/internal/events"
	"tablebook/internal/metrics"
	"tablebook/internal/models"
)

// BookingService owns the booking-group lifecycle. Mutations run as a
// single store transaction, then fan out to the event bus, the export
// queue, and cache invalidation. The fan-out is best effort: a dead
// bus or queue never rolls back a committed booking.
type BookingService struct {
	store   domain.Store
	cache   domain.AvailabilityCache
	bus     domain.EventPublisher
	exports domain.ExportQueue
	logger  *zerolog.Logger

	maxBookingDays int
	maxPartySize   int
}

func NewBookingService(store domain.Store, cache domain.AvailabilityCache, bus domain.EventPublisher, exports domain.ExportQueue, logger *zerolog.Logger, maxBookingDays, maxPartySize int) *BookingService {
	return &BookingService{
		store:          store,
		cache:          cache,
		bus:            bus,
		exports:        exports,
		logger:         logger,
		maxBookingDays: maxBookingDays,
		maxPartySize:   maxPartySize,
	}
}

func (s *BookingService) validateParams(p models.BookingGroupParams) error {
	if strings.TrimSpace(p.CustomerName) == "" {
		return ErrMissingCustomerName
	}
	if strings.TrimSpace(p.CustomerPhone) == "" {
		return ErrMissingPhone
	}
	if len(p.TableIDs) == 0 {
		return ErrNoTablesChosen
	}
	seen := make(map[string]struct{}, len(p.TableIDs))
	for _, id := range p.TableIDs {
		if _, dup := seen[id]; dup {
			return ErrDuplicateTable
		}
		seen[id] = struct{}{}
	}
	if p.PartySize <= 0 {
		return ErrInvalidPartySize
	}
	if p.PartySize > s.maxPartySize {
		return ErrPartySizeTooLarge
	}
	if err := validateBookingDate(p.BookingDate, s.maxBookingDays); err != nil {
		return err
	}
	return validateSlot(p.BookingTime)
}

// CreateBookingGroup validates the request and books every chosen
// table in one transaction. The store re-checks table availability
// inside that transaction, so two racing requests for the same tables
// cannot both succeed.
func (s *BookingService) CreateBookingGroup(ctx context.Context, p models.BookingGroupParams) (string, error) {
	if err := s.validateParams(p); err != nil {
		metrics.IncBookingOp("create", "rejected")
		return "", err
	}

	groupID, err := s.store.CreateBookingGroup(ctx, p)
	if err != nil {
		metrics.IncBookingOp("create", "failed")
		return "", err
	}
	metrics.IncBookingOp("create", "ok")

	s.logger.Info().
		Str("group_id", groupID).
		Str("date", p.BookingDate).
		Str("slot", p.BookingTime).
		Int("party_size", p.PartySize).
		Int("tables", len(p.TableIDs)).
		Msg("booking group created")

	s.afterMutation(ctx, events.EventGroupCreated, events.GroupEventPayload{
		GroupID:       groupID,
		CustomerName:  p.CustomerName,
		CustomerPhone: p.CustomerPhone,
		TableIDs:      p.TableIDs,
		PartySize:     p.PartySize,
		BookingDate:   p.BookingDate,
		BookingTime:   p.BookingTime,
	}, p.BookingDate)

	return groupID, nil
}

// UpdateBookingGroup replaces a group wholesale: the old rows are
// removed and a fresh group is written under a new group ID, all in
// one transaction. The availability check excludes the group being
// edited so shrinking or shifting a booking onto its own tables works.
func (s *BookingService) UpdateBookingGroup(ctx context.Context, groupID string, p models.BookingGroupParams) (string, error) {
	if err := s.validateParams(p); err != nil {
		metrics.IncBookingOp("update", "rejected")
		return "", err
	}

	// Fetched before the rewrite so the old date can be invalidated
	// and exported even when the edit moves the booking to a new day.
	oldRows, err := s.store.GetBookingsByGroup(ctx, groupID)
	if err != nil {
		metrics.IncBookingOp("update", "failed")
		return "", err
	}

	newGroupID, err := s.store.UpdateBookingGroup(ctx, groupID, p)
	if err != nil {
		metrics.IncBookingOp("update", "failed")
		return "", err
	}
	metrics.IncBookingOp("update", "ok")

	s.logger.Info().
		Str("group_id", newGroupID).
		Str("prev_group_id", groupID).
		Str("date", p.BookingDate).
		Str("slot", p.BookingTime).
		Msg("booking group updated")

	dates := []string{p.BookingDate}
	if len(oldRows) > 0 && oldRows[0].BookingDate != p.BookingDate {
		dates = append(dates, oldRows[0].BookingDate)
	}

	s.afterMutation(ctx, events.EventGroupUpdated, events.GroupEventPayload{
		GroupID:       newGroupID,
		PrevGroupID:   groupID,
		CustomerName:  p.CustomerName,
		CustomerPhone: p.CustomerPhone,
		TableIDs:      p.TableIDs,
		PartySize:     p.PartySize,
		BookingDate:   p.BookingDate,
		BookingTime:   p.BookingTime,
	}, dates...)

	return newGroupID, nil
}

// CancelBookingGroup removes every row of the group. Cancelling a
// group that no longer exists is a no-op, not an error.
func (s *BookingService) CancelBookingGroup(ctx context.Context, groupID string) error {
	rows, err := s.store.GetBookingsByGroup(ctx, groupID)
	if err != nil {
		metrics.IncBookingOp("cancel", "failed")
		return err
	}

	removed, err := s.store.CancelBookingGroup(ctx, groupID)
	if err != nil {
		metrics.IncBookingOp("cancel", "failed")
		return err
	}
	if removed == 0 {
		metrics.IncBookingOp("cancel", "noop")
		s.logger.Debug().Str("group_id", groupID).Msg("cancel of unknown group ignored")
		return nil
	}
	metrics.IncBookingOp("cancel", "ok")

	s.logger.Info().
		Str("group_id", groupID).
		Int("rows", removed).
		Msg("booking group cancelled")

	payload := events.GroupEventPayload{GroupID: groupID}
	var dates []string
	if len(rows) > 0 {
		payload.CustomerName = rows[0].CustomerName
		payload.CustomerPhone = rows[0].CustomerPhone
		payload.PartySize = rows[0].PartySize
		payload.BookingDate = rows[0].BookingDate
		payload.BookingTime = rows[0].BookingTime
		for _, b := range rows {
			payload.TableIDs = append(payload.TableIDs, b.TableID)
		}
		dates = append(dates, rows[0].BookingDate)
	}
	s.afterMutation(ctx, events.EventGroupCancelled, payload, dates...)

	return nil
}

func (s *BookingService) CustomerExists(ctx context.Context, phone string) (bool, error) {
	if strings.TrimSpace(phone) == "" {
		return false, ErrMissingPhone
	}
	return s.store.CustomerExistsByPhone(ctx, phone)
}

func (s *BookingService) GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	if _, err := parseDate(date); err != nil {
		return nil, ErrInvalidDate
	}
	return s.store.GetBookingsByDate(ctx, date)
}

// afterMutation runs the post-commit side effects. Failures here are
// logged and dropped: the booking is already durable.
func (s *BookingService) afterMutation(ctx context.Context, eventType string, payload events.GroupEventPayload, dates ...string) {
	if s.bus != nil {
		if err := s.bus.PublishJSON(eventType, payload); err != nil {
			s.logger.Warn().Err(err).Str("event", eventType).Msg("event publish failed")
		}
	}
	for _, date := range dates {
		if s.cache != nil {
			if err := s.cache.InvalidateDate(ctx, date); err != nil {
				s.logger.Warn().Err(err).Str("date", date).Msg("availability cache invalidation failed")
			}
		}
		if s.exports != nil {
			if err := s.exports.EnqueueScheduleExport(ctx, date); err != nil {
				s.logger.Warn().Err(err).Str("date", date).Msg("schedule export enqueue failed")
			}
		}
	}
}
