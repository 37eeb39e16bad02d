package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"tablebook/internal/database"
	"tablebook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetAvailableTables(ctx context.Context, date, slot, excludeGroup string) ([]*models.Table, error) {
	args := m.Called(ctx, date, slot, excludeGroup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Table), args.Error(1)
}
func (m *mockStore) CreateBookingGroup(ctx context.Context, p models.BookingGroupParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}
func (m *mockStore) UpdateBookingGroup(ctx context.Context, groupID string, p models.BookingGroupParams) (string, error) {
	args := m.Called(ctx, groupID, p)
	return args.String(0), args.Error(1)
}
func (m *mockStore) CancelBookingGroup(ctx context.Context, groupID string) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}
func (m *mockStore) GetBookingsByGroup(ctx context.Context, groupID string) ([]*models.Booking, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockStore) GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockStore) CustomerExistsByPhone(ctx context.Context, phone string) (bool, error) {
	args := m.Called(ctx, phone)
	return args.Bool(0), args.Error(1)
}
func (m *mockStore) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}
func (m *mockStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockStore) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockStore) FilterCustomers(ctx context.Context, query, status string) ([]*models.Customer, error) {
	args := m.Called(ctx, query, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Customer), args.Error(1)
}
func (m *mockStore) GetTables(ctx context.Context) ([]*models.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Table), args.Error(1)
}
func (m *mockStore) GetTable(ctx context.Context, id string) (*models.Table, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Table), args.Error(1)
}
func (m *mockStore) CreateTable(ctx context.Context, t *models.Table) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockStore) UpdateTable(ctx context.Context, t *models.Table) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockStore) DeleteTable(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockExportQueue struct {
	mock.Mock
}

func (m *mockExportQueue) EnqueueScheduleExport(ctx context.Context, date string) error {
	return m.Called(ctx, date).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, date string, partySize int) (map[string]models.SlotAvailability, bool, error) {
	args := m.Called(ctx, date, partySize)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(map[string]models.SlotAvailability), args.Bool(1), args.Error(2)
}
func (m *mockCache) Set(ctx context.Context, date string, partySize int, slots map[string]models.SlotAvailability) error {
	return m.Called(ctx, date, partySize, slots).Error(0)
}
func (m *mockCache) InvalidateDate(ctx context.Context, date string) error {
	return m.Called(ctx, date).Error(0)
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(models.DateLayout)
}

func TestBookingService(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	newSvc := func() (*BookingService, *mockStore, *mockEventBus, *mockExportQueue, *mockCache) {
		store := new(mockStore)
		bus := new(mockEventBus)
		exports := new(mockExportQueue)
		cache := new(mockCache)
		svc := NewBookingService(store, cache, bus, exports, &logger, 90, 20)
		return svc, store, bus, exports, cache
	}

	validParams := func() models.BookingGroupParams {
		return models.BookingGroupParams{
			CustomerName:   "Ada",
			CustomerPhone:  "+1555000001",
			TableIDs:       []string{"t1", "t2"},
			PartySize:      6,
			BookingDate:    futureDate(3),
			BookingTime:    "19:00",
			CreateCustomer: true,
		}
	}

	t.Run("CreateBookingGroup", func(t *testing.T) {
		svc, store, bus, exports, cache := newSvc()
		p := validParams()

		store.On("CreateBookingGroup", ctx, p).Return("group-1", nil).Once()
		bus.On("PublishJSON", "booking_group_created", mock.Anything).Return(nil).Once()
		cache.On("InvalidateDate", ctx, p.BookingDate).Return(nil).Once()
		exports.On("EnqueueScheduleExport", ctx, p.BookingDate).Return(nil).Once()

		groupID, err := svc.CreateBookingGroup(ctx, p)
		assert.NoError(t, err)
		assert.Equal(t, "group-1", groupID)
		store.AssertExpectations(t)
		bus.AssertExpectations(t)
		exports.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("CreateValidation", func(t *testing.T) {
		svc, store, _, _, _ := newSvc()

		cases := []struct {
			name   string
			mutate func(*models.BookingGroupParams)
			want   error
		}{
			{"NoName", func(p *models.BookingGroupParams) { p.CustomerName = " " }, ErrMissingCustomerName},
			{"NoPhone", func(p *models.BookingGroupParams) { p.CustomerPhone = "" }, ErrMissingPhone},
			{"NoTables", func(p *models.BookingGroupParams) { p.TableIDs = nil }, ErrNoTablesChosen},
			{"RepeatedTable", func(p *models.BookingGroupParams) { p.TableIDs = []string{"t1", "t2", "t1"} }, ErrDuplicateTable},
			{"ZeroParty", func(p *models.BookingGroupParams) { p.PartySize = 0 }, ErrInvalidPartySize},
			{"HugeParty", func(p *models.BookingGroupParams) { p.PartySize = 21 }, ErrPartySizeTooLarge},
			{"BadDate", func(p *models.BookingGroupParams) { p.BookingDate = "tomorrow" }, ErrInvalidDate},
			{"PastDate", func(p *models.BookingGroupParams) { p.BookingDate = "2020-01-01" }, database.ErrPastDate},
			{"TooFar", func(p *models.BookingGroupParams) { p.BookingDate = futureDate(91) }, database.ErrDateTooFar},
			{"OffGrid", func(p *models.BookingGroupParams) { p.BookingTime = "15:00" }, database.ErrInvalidSlot},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				p := validParams()
				tc.mutate(&p)
				_, err := svc.CreateBookingGroup(ctx, p)
				assert.ErrorIs(t, err, tc.want)
				assert.True(t, IsValidationError(err))
			})
		}
		store.AssertNotCalled(t, "CreateBookingGroup", mock.Anything, mock.Anything)
	})

	t.Run("CreateSlotTaken", func(t *testing.T) {
		svc, store, bus, exports, cache := newSvc()
		p := validParams()

		store.On("CreateBookingGroup", ctx, p).Return("", database.ErrSlotUnavailable).Once()

		_, err := svc.CreateBookingGroup(ctx, p)
		assert.ErrorIs(t, err, database.ErrSlotUnavailable)
		bus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
		exports.AssertNotCalled(t, "EnqueueScheduleExport", mock.Anything, mock.Anything)
		cache.AssertNotCalled(t, "InvalidateDate", mock.Anything, mock.Anything)
	})

	t.Run("UpdateBookingGroup", func(t *testing.T) {
		svc, store, bus, exports, cache := newSvc()
		p := validParams()
		oldDate := futureDate(5)

		store.On("GetBookingsByGroup", ctx, "group-1").Return([]*models.Booking{
			{GroupID: "group-1", BookingDate: oldDate, BookingTime: "12:00"},
		}, nil).Once()
		store.On("UpdateBookingGroup", ctx, "group-1", p).Return("group-2", nil).Once()
		bus.On("PublishJSON", "booking_group_updated", mock.Anything).Return(nil).Once()
		// Both the new and the old date go stale when a booking moves.
		cache.On("InvalidateDate", ctx, p.BookingDate).Return(nil).Once()
		cache.On("InvalidateDate", ctx, oldDate).Return(nil).Once()
		exports.On("EnqueueScheduleExport", ctx, p.BookingDate).Return(nil).Once()
		exports.On("EnqueueScheduleExport", ctx, oldDate).Return(nil).Once()

		newID, err := svc.UpdateBookingGroup(ctx, "group-1", p)
		assert.NoError(t, err)
		assert.Equal(t, "group-2", newID)
		store.AssertExpectations(t)
		cache.AssertExpectations(t)
		exports.AssertExpectations(t)
	})

	t.Run("UpdateUnknownGroup", func(t *testing.T) {
		svc, store, _, _, _ := newSvc()
		p := validParams()

		store.On("GetBookingsByGroup", ctx, "nope").Return([]*models.Booking{}, nil).Once()
		store.On("UpdateBookingGroup", ctx, "nope", p).Return("", database.ErrGroupNotFound).Once()

		_, err := svc.UpdateBookingGroup(ctx, "nope", p)
		assert.ErrorIs(t, err, database.ErrGroupNotFound)
	})

	t.Run("CancelBookingGroup", func(t *testing.T) {
		svc, store, bus, exports, cache := newSvc()
		date := futureDate(2)

		store.On("GetBookingsByGroup", ctx, "group-1").Return([]*models.Booking{
			{GroupID: "group-1", TableID: "t1", BookingDate: date, BookingTime: "18:00", PartySize: 4},
			{GroupID: "group-1", TableID: "t2", BookingDate: date, BookingTime: "18:00", PartySize: 4},
		}, nil).Once()
		store.On("CancelBookingGroup", ctx, "group-1").Return(2, nil).Once()
		bus.On("PublishJSON", "booking_group_cancelled", mock.Anything).Return(nil).Once()
		cache.On("InvalidateDate", ctx, date).Return(nil).Once()
		exports.On("EnqueueScheduleExport", ctx, date).Return(nil).Once()

		assert.NoError(t, svc.CancelBookingGroup(ctx, "group-1"))
		store.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("CancelIsIdempotent", func(t *testing.T) {
		svc, store, bus, _, cache := newSvc()

		store.On("GetBookingsByGroup", ctx, "gone").Return([]*models.Booking{}, nil).Twice()
		store.On("CancelBookingGroup", ctx, "gone").Return(0, nil).Twice()

		assert.NoError(t, svc.CancelBookingGroup(ctx, "gone"))
		assert.NoError(t, svc.CancelBookingGroup(ctx, "gone"))
		bus.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
		cache.AssertNotCalled(t, "InvalidateDate", mock.Anything, mock.Anything)
	})

	t.Run("SideEffectFailureDoesNotFailBooking", func(t *testing.T) {
		svc, store, bus, exports, cache := newSvc()
		p := validParams()

		store.On("CreateBookingGroup", ctx, p).Return("group-9", nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(errors.New("bus down")).Once()
		cache.On("InvalidateDate", ctx, p.BookingDate).Return(errors.New("redis down")).Once()
		exports.On("EnqueueScheduleExport", ctx, p.BookingDate).Return(errors.New("queue full")).Once()

		groupID, err := svc.CreateBookingGroup(ctx, p)
		assert.NoError(t, err)
		assert.Equal(t, "group-9", groupID)
	})

	t.Run("CustomerExists", func(t *testing.T) {
		svc, store, _, _, _ := newSvc()

		store.On("CustomerExistsByPhone", ctx, "+1555000001").Return(true, nil).Once()
		ok, err := svc.CustomerExists(ctx, "+1555000001")
		assert.NoError(t, err)
		assert.True(t, ok)

		_, err = svc.CustomerExists(ctx, "  ")
		assert.ErrorIs(t, err, ErrMissingPhone)
	})

	t.Run("GetBookingsByDate", func(t *testing.T) {
		svc, store, _, _, _ := newSvc()

		store.On("GetBookingsByDate", ctx, "2026-09-10").Return([]*models.Booking{{ID: "b1"}}, nil).Once()
		rows, err := svc.GetBookingsByDate(ctx, "2026-09-10")
		assert.NoError(t, err)
		assert.Len(t, rows, 1)

		_, err = svc.GetBookingsByDate(ctx, "next friday")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}
