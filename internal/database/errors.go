package database

import "errors"

var (
	// ErrSlotUnavailable means the requested tables are no longer
	// jointly free for the slot at commit time.
	ErrSlotUnavailable = errors.New("slot no longer available")

	ErrCustomerNotFound = errors.New("customer not found")
	ErrGroupNotFound    = errors.New("booking group not found")
	ErrTableNotFound    = errors.New("table not found")

	// ErrTableInUse blocks deleting a table that still has upcoming
	// bookings.
	ErrTableInUse = errors.New("table has upcoming bookings")

	ErrPastDate    = errors.New("booking date is in the past")
	ErrDateTooFar  = errors.New("booking date is too far in the future")
	ErrInvalidSlot = errors.New("booking time is not a valid slot")
)
