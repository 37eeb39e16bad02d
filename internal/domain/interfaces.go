package domain

import (
	"context"

	"tablebook/internal/models"
)

// Store is the persistence contract the services depend on. The
// booking-group mutations are transactional: a group either fully
// exists or not at all, and the availability re-check runs inside the
// same transaction as the write.
type Store interface {
	GetAvailableTables(ctx context.Context, date, slot, excludeGroup string) ([]*models.Table, error)
	CreateBookingGroup(ctx context.Context, p models.BookingGroupParams) (string, error)
	UpdateBookingGroup(ctx context.Context, groupID string, p models.BookingGroupParams) (string, error)
	CancelBookingGroup(ctx context.Context, groupID string) (int, error)
	GetBookingsByGroup(ctx context.Context, groupID string) ([]*models.Booking, error)
	GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error)

	CustomerExistsByPhone(ctx context.Context, phone string) (bool, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
	FilterCustomers(ctx context.Context, query, status string) ([]*models.Customer, error)

	GetTables(ctx context.Context) ([]*models.Table, error)
	GetTable(ctx context.Context, id string) (*models.Table, error)
	CreateTable(ctx context.Context, table *models.Table) error
	UpdateTable(ctx context.Context, table *models.Table) error
	DeleteTable(ctx context.Context, id string) error
}

// AvailabilityCache holds computed slot maps keyed by date and party
// size. It is advisory only: commits never trust a cached read.
type AvailabilityCache interface {
	Get(ctx context.Context, date string, partySize int) (map[string]models.SlotAvailability, bool, error)
	Set(ctx context.Context, date string, partySize int, slots map[string]models.SlotAvailability) error
	InvalidateDate(ctx context.Context, date string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ExportQueue schedules a regeneration of the daily schedule sheet.
type ExportQueue interface {
	EnqueueScheduleExport(ctx context.Context, date string) error
}

type AvailabilityService interface {
	CheckAllAvailability(ctx context.Context, date string, partySize int) (map[string]models.SlotAvailability, error)
}

type BookingService interface {
	CreateBookingGroup(ctx context.Context, req models.BookingGroupParams) (string, error)
	UpdateBookingGroup(ctx context.Context, groupID string, req models.BookingGroupParams) (string, error)
	CancelBookingGroup(ctx context.Context, groupID string) error
	CustomerExists(ctx context.Context, phone string) (bool, error)
	GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error)
}

type CustomerService interface {
	FilterCustomers(ctx context.Context, query, status string) ([]*models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error
}

type TableService interface {
	GetTables(ctx context.Context) ([]*models.Table, error)
	CreateTable(ctx context.Context, table *models.Table) error
	UpdateTable(ctx context.Context, table *models.Table) error
	DeleteTable(ctx context.Context, id string) error
}
