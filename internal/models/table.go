package models

import "time"

type Table struct {
	ID          string    `json:"id"`
	TableNumber int       `json:"table_number"`
	Seats       int       `json:"seats"`
	IsAvailable bool      `json:"is_available"` // manual override, independent of bookings
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
