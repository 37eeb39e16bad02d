package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tablebook/internal/config"
	"tablebook/internal/database"
	"tablebook/internal/models"
	"tablebook/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAvailability struct {
	slots map[string]models.SlotAvailability
	err   error
}

func (s *stubAvailability) CheckAllAvailability(_ context.Context, _ string, _ int) (map[string]models.SlotAvailability, error) {
	return s.slots, s.err
}

type stubBookings struct {
	createErr error
	updateErr error
	cancelErr error
	groupID   string
	exists    bool
	existsErr error
	byDate    []*models.Booking
}

func (s *stubBookings) CreateBookingGroup(_ context.Context, _ models.BookingGroupParams) (string, error) {
	return s.groupID, s.createErr
}
func (s *stubBookings) UpdateBookingGroup(_ context.Context, _ string, _ models.BookingGroupParams) (string, error) {
	return s.groupID, s.updateErr
}
func (s *stubBookings) CancelBookingGroup(_ context.Context, _ string) error { return s.cancelErr }
func (s *stubBookings) CustomerExists(_ context.Context, _ string) (bool, error) {
	return s.exists, s.existsErr
}
func (s *stubBookings) GetBookingsByDate(_ context.Context, _ string) ([]*models.Booking, error) {
	return s.byDate, nil
}

type stubCustomers struct {
	customers []*models.Customer
	updateErr error
}

func (s *stubCustomers) FilterCustomers(_ context.Context, _, _ string) ([]*models.Customer, error) {
	return s.customers, nil
}
func (s *stubCustomers) UpdateCustomer(_ context.Context, _ *models.Customer) error {
	return s.updateErr
}

type stubTables struct {
	tables    []*models.Table
	createErr error
	updateErr error
	deleteErr error
}

func (s *stubTables) GetTables(_ context.Context) ([]*models.Table, error) { return s.tables, nil }
func (s *stubTables) CreateTable(_ context.Context, _ *models.Table) error { return s.createErr }
func (s *stubTables) UpdateTable(_ context.Context, _ *models.Table) error { return s.updateErr }
func (s *stubTables) DeleteTable(_ context.Context, _ string) error        { return s.deleteErr }

type serverOptions struct {
	cfg          *config.APIConfig
	availability *stubAvailability
	bookings     *stubBookings
	customers    *stubCustomers
	tables       *stubTables
}

func newTestServer(opts serverOptions) *HTTPServer {
	cfg := config.APIConfig{Enabled: true, HTTP: config.APIHTTPConfig{Port: 0}}
	if opts.cfg != nil {
		cfg = *opts.cfg
	}
	if opts.availability == nil {
		opts.availability = &stubAvailability{}
	}
	if opts.bookings == nil {
		opts.bookings = &stubBookings{}
	}
	if opts.customers == nil {
		opts.customers = &stubCustomers{}
	}
	if opts.tables == nil {
		opts.tables = &stubTables{}
	}
	logger := zerolog.Nop()
	return NewHTTPServer(cfg, opts.availability, opts.bookings, opts.customers, opts.tables, &logger)
}

func doRequest(t *testing.T, srv *HTTPServer, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAvailabilityEndpoint(t *testing.T) {
	srv := newTestServer(serverOptions{
		availability: &stubAvailability{slots: map[string]models.SlotAvailability{
			"12:00": {Available: true, Tables: []*models.Table{{ID: "t1", TableNumber: 1, Seats: 4}}},
			"19:00": {Available: false},
		}},
	})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/availability?date=2026-09-15&party_size=4", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Date      string                             `json:"date"`
		PartySize int                                `json:"party_size"`
		Slots     map[string]models.SlotAvailability `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-09-15", resp.Date)
	assert.Equal(t, 4, resp.PartySize)
	assert.True(t, resp.Slots["12:00"].Available)
	assert.False(t, resp.Slots["19:00"].Available)
}

func TestAvailabilityEndpointValidation(t *testing.T) {
	srv := newTestServer(serverOptions{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/availability?party_size=4", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/availability?date=2026-09-15&party_size=four", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/availability", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	srv = newTestServer(serverOptions{availability: &stubAvailability{err: service.ErrInvalidPartySize}})
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/availability?date=2026-09-15&party_size=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingEndpoint(t *testing.T) {
	body := `{"customer_name":"Ada","customer_phone":"+1555000001","table_ids":["t1"],"party_size":2,"booking_date":"2026-09-15","booking_time":"19:00","create_customer":true}`

	t.Run("Created", func(t *testing.T) {
		srv := newTestServer(serverOptions{bookings: &stubBookings{groupID: "group-1"}})
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/bookings", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "group-1", resp["group_id"])
	})

	t.Run("SlotConflict", func(t *testing.T) {
		srv := newTestServer(serverOptions{bookings: &stubBookings{createErr: database.ErrSlotUnavailable}})
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/bookings", body, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("UnknownCustomer", func(t *testing.T) {
		srv := newTestServer(serverOptions{bookings: &stubBookings{createErr: database.ErrCustomerNotFound}})
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/bookings", body, nil)
		assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	})

	t.Run("ValidationError", func(t *testing.T) {
		srv := newTestServer(serverOptions{bookings: &stubBookings{createErr: service.ErrMissingCustomerName}})
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/bookings", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadJSON", func(t *testing.T) {
		srv := newTestServer(serverOptions{})
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/bookings", "{", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateAndCancelEndpoints(t *testing.T) {
	body := `{"customer_name":"Ada","customer_phone":"+1555000001","table_ids":["t1"],"party_size":2,"booking_date":"2026-09-15","booking_time":"19:00"}`

	t.Run("Updated", func(t *testing.T) {
		srv := newTestServer(serverOptions{bookings: &stubBookings{groupID: "group-2"}})
		rec := doRequest(t, srv, http.MethodPut, "/api/v1/bookings/group-1", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "group-2", resp["group_id"])
	})

	t.Run("UnknownGroup", func(t *testing.T) {
		srv := newTestServer(serverOptions{bookings: &stubBookings{updateErr: database.ErrGroupNotFound}})
		rec := doRequest(t, srv, http.MethodPut, "/api/v1/bookings/missing", body, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Cancelled", func(t *testing.T) {
		srv := newTestServer(serverOptions{})
		rec := doRequest(t, srv, http.MethodDelete, "/api/v1/bookings/group-1", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("MissingGroupID", func(t *testing.T) {
		srv := newTestServer(serverOptions{})
		rec := doRequest(t, srv, http.MethodDelete, "/api/v1/bookings/", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCustomerEndpoints(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		srv := newTestServer(serverOptions{bookings: &stubBookings{exists: true}})
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/customers/exists?phone=%2B1555000001", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]bool
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp["exists"])
	})

	t.Run("Filter", func(t *testing.T) {
		srv := newTestServer(serverOptions{customers: &stubCustomers{customers: []*models.Customer{
			{ID: "c1", Name: "Ada", Status: models.CustomerStatusVIP},
		}}})
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/customers?query=ada", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Ada")
	})

	t.Run("Update", func(t *testing.T) {
		srv := newTestServer(serverOptions{})
		rec := doRequest(t, srv, http.MethodPut, "/api/v1/customers/c1", `{"name":"Ada","phone":"+1","status":"vip"}`, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestTableEndpoints(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		srv := newTestServer(serverOptions{tables: &stubTables{tables: []*models.Table{
			{ID: "t1", TableNumber: 1, Seats: 4},
		}}})
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/tables", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"table_number":1`)
	})

	t.Run("Create", func(t *testing.T) {
		srv := newTestServer(serverOptions{})
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/tables", `{"table_number":5,"seats":4,"is_available":true}`, nil)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("DeleteInUse", func(t *testing.T) {
		srv := newTestServer(serverOptions{tables: &stubTables{deleteErr: database.ErrTableInUse}})
		rec := doRequest(t, srv, http.MethodDelete, "/api/v1/tables/t1", "", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		srv := newTestServer(serverOptions{tables: &stubTables{deleteErr: database.ErrTableNotFound}})
		rec := doRequest(t, srv, http.MethodDelete, "/api/v1/tables/missing", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAuth(t *testing.T) {
	cfg := &config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: "reader", Name: "display", Permissions: []string{"read:availability"}},
				{Key: "admin", Name: "staff"},
			},
		},
	}

	t.Run("MissingKey", func(t *testing.T) {
		srv := newTestServer(serverOptions{cfg: cfg})
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/tables", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("InvalidKey", func(t *testing.T) {
		srv := newTestServer(serverOptions{cfg: cfg})
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/tables", "", map[string]string{"x-api-key": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		srv := newTestServer(serverOptions{cfg: cfg})
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/tables", "", map[string]string{"x-api-key": "reader"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("PermittedRead", func(t *testing.T) {
		srv := newTestServer(serverOptions{cfg: cfg})
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/availability?date=2026-09-15&party_size=2", "", map[string]string{"x-api-key": "reader"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("EmptyPermissionsAllowsAll", func(t *testing.T) {
		srv := newTestServer(serverOptions{cfg: cfg})
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/tables", "", map[string]string{"x-api-key": "admin"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	cfg := &config.APIConfig{
		Enabled:   true,
		RateLimit: config.APIRateLimitConfig{RPS: 0.001, Burst: 2},
	}
	srv := newTestServer(serverOptions{cfg: cfg})

	headers := map[string]string{"x-api-key": "client-a"}
	assert.Equal(t, http.StatusOK, doRequest(t, srv, http.MethodGet, "/healthz", "", headers).Code)
	assert.Equal(t, http.StatusOK, doRequest(t, srv, http.MethodGet, "/healthz", "", headers).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, srv, http.MethodGet, "/healthz", "", headers).Code)

	// Another key gets its own bucket.
	assert.Equal(t, http.StatusOK, doRequest(t, srv, http.MethodGet, "/healthz", "", map[string]string{"x-api-key": "client-b"}).Code)
}
