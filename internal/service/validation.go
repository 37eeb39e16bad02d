package service

import (
	"errors"
	"time"

	"tablebook/internal/database"
	"tablebook/internal/models"
)

var (
	ErrMissingCustomerName = errors.New("customer name is required")
	ErrMissingPhone        = errors.New("customer phone is required")
	ErrInvalidPartySize    = errors.New("party size must be positive")
	ErrPartySizeTooLarge   = errors.New("party size exceeds the maximum")
	ErrNoTablesChosen      = errors.New("no tables chosen for the booking")
	ErrDuplicateTable      = errors.New("a table may be chosen at most once")
	ErrInvalidDate         = errors.New("booking date must be YYYY-MM-DD")
	ErrInvalidStatus       = errors.New("unknown customer status")
)

// IsValidationError reports whether err is a locally recoverable input
// problem, refused before any write reaches the store.
func IsValidationError(err error) bool {
	for _, v := range []error{
		ErrMissingCustomerName, ErrMissingPhone, ErrInvalidPartySize,
		ErrPartySizeTooLarge, ErrNoTablesChosen, ErrDuplicateTable, ErrInvalidDate, ErrInvalidStatus,
		database.ErrInvalidSlot, database.ErrPastDate, database.ErrDateTooFar,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func parseDate(date string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, date, time.Local)
}

// validateBookingDate parses the date and bounds it to the bookable
// window: not before today, not beyond maxBookingDays from now.
func validateBookingDate(date string, maxBookingDays int) error {
	parsed, err := parseDate(date)
	if err != nil {
		return ErrInvalidDate
	}

	today, _ := time.ParseInLocation(models.DateLayout, time.Now().Format(models.DateLayout), time.Local)
	if parsed.Before(today) {
		return database.ErrPastDate
	}
	if parsed.After(today.AddDate(0, 0, maxBookingDays)) {
		return database.ErrDateTooFar
	}
	return nil
}

func validateSlot(slot string) error {
	if !models.IsValidSlot(slot) {
		return database.ErrInvalidSlot
	}
	return nil
}
