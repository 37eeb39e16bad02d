package models

import "time"

type Booking struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	TableID     string    `json:"table_id"`
	CustomerID  string    `json:"customer_id"`
	PartySize   int       `json:"party_size"`
	BookingDate string    `json:"booking_date"` // YYYY-MM-DD
	BookingTime string    `json:"booking_time"` // HH:MM
	CreatedAt   time.Time `json:"created_at"`

	// Joined attributes, populated by listing queries.
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	TableNumber   int    `json:"table_number,omitempty"`
}

// BookingGroupParams carries everything needed to persist one party's
// reservation across one or more tables as a single unit.
type BookingGroupParams struct {
	CustomerName   string
	CustomerPhone  string
	TableIDs       []string
	PartySize      int
	BookingDate    string
	BookingTime    string
	CreateCustomer bool
}

// SlotAvailability is the per-slot verdict of an availability pass.
type SlotAvailability struct {
	Available bool     `json:"available"`
	Tables    []*Table `json:"tables"`
}
