package models

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// BookingDuration is how long a booking occupies its table,
	// starting at the booking time.
	BookingDuration = 90 * time.Minute
)

const (
	CustomerStatusRegular = "regular"
	CustomerStatusVIP     = "vip"
)

var (
	LunchSlots  = []string{"11:30", "12:00", "12:30", "13:00", "13:30", "14:00"}
	DinnerSlots = []string{"17:30", "18:00", "18:30", "19:00", "19:30", "20:00", "20:30", "21:00"}
)

// AllSlots returns every bookable start time across both service
// windows, lunch first.
func AllSlots() []string {
	slots := make([]string, 0, len(LunchSlots)+len(DinnerSlots))
	slots = append(slots, LunchSlots...)
	slots = append(slots, DinnerSlots...)
	return slots
}

// IsValidSlot reports whether t is one of the fixed start times.
func IsValidSlot(t string) bool {
	for _, slot := range AllSlots() {
		if slot == t {
			return true
		}
	}
	return false
}

// SlotMinutes converts an HH:MM clock string to minutes since midnight.
func SlotMinutes(t string) (int, error) {
	parsed, err := time.Parse(TimeLayout, t)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", t, err)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// MinutesToClock renders minutes since midnight as HH:MM, clamped to
// the [00:00, 24:00] range so the result stays comparable as a string.
func MinutesToClock(m int) string {
	if m < 0 {
		m = 0
	}
	if m > 24*60 {
		m = 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
