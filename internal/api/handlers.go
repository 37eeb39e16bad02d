package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tablebook/internal/database"
	"tablebook/internal/models"
	"tablebook/internal/service"
)

type bookingRequest struct {
	CustomerName   string   `json:"customer_name"`
	CustomerPhone  string   `json:"customer_phone"`
	TableIDs       []string `json:"table_ids"`
	PartySize      int      `json:"party_size"`
	BookingDate    string   `json:"booking_date"`
	BookingTime    string   `json:"booking_time"`
	CreateCustomer bool     `json:"create_customer"`
}

func (r bookingRequest) params() models.BookingGroupParams {
	return models.BookingGroupParams{
		CustomerName:   r.CustomerName,
		CustomerPhone:  r.CustomerPhone,
		TableIDs:       r.TableIDs,
		PartySize:      r.PartySize,
		BookingDate:    r.BookingDate,
		BookingTime:    r.BookingTime,
		CreateCustomer: r.CreateCustomer,
	}
}

// writeServiceError translates domain errors into HTTP statuses. A
// taken slot is a conflict; a missing customer when creation was not
// requested is a failed precondition rather than a plain bad request.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsValidationError(err),
		errors.Is(err, service.ErrInvalidTableNumber),
		errors.Is(err, service.ErrInvalidSeats):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrSlotUnavailable),
		errors.Is(err, database.ErrTableInUse):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrCustomerNotFound):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, database.ErrGroupNotFound),
		errors.Is(err, database.ErrTableNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	partySize, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("party_size")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "party_size must be an integer")
		return
	}

	slots, err := s.availability.CheckAllAvailability(r.Context(), date, partySize)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":       date,
		"party_size": partySize,
		"slots":      slots,
	})
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		date := strings.TrimSpace(r.URL.Query().Get("date"))
		if date == "" {
			writeError(w, http.StatusBadRequest, "date is required")
			return
		}
		bookings, err := s.bookings.GetBookingsByDate(r.Context(), date)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})

	case http.MethodPost:
		var body bookingRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		groupID, err := s.bookings.CreateBookingGroup(r.Context(), body.params())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"group_id": groupID})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleBookingByGroup(w http.ResponseWriter, r *http.Request) {
	groupID := pathTail(r.URL.Path, "/api/v1/bookings/")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "group_id is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var body bookingRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		newGroupID, err := s.bookings.UpdateBookingGroup(r.Context(), groupID, body.params())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"group_id": newGroupID})

	case http.MethodDelete:
		if err := s.bookings.CancelBookingGroup(r.Context(), groupID); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCustomerExists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	exists, err := s.bookings.CustomerExists(r.Context(), phone)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (s *HTTPServer) handleCustomers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query().Get("query")
	status := r.URL.Query().Get("status")
	customers, err := s.customers.FilterCustomers(r.Context(), query, status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (s *HTTPServer) handleCustomerByID(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/api/v1/customers/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "customer id is required")
		return
	}

	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var customer models.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	customer.ID = id

	if err := s.customers.UpdateCustomer(r.Context(), &customer); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *HTTPServer) handleTables(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tables, err := s.tables.GetTables(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tables": tables})

	case http.MethodPost:
		var table models.Table
		if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.tables.CreateTable(r.Context(), &table); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, table)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleTableByID(w http.ResponseWriter, r *http.Request) {
	id := pathTail(r.URL.Path, "/api/v1/tables/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "table id is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var table models.Table
		if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		table.ID = id
		if err := s.tables.UpdateTable(r.Context(), &table); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, table)

	case http.MethodDelete:
		if err := s.tables.DeleteTable(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func pathTail(path, prefix string) string {
	tail := strings.TrimPrefix(path, prefix)
	tail = strings.TrimSpace(tail)
	if tail == "" || strings.Contains(tail, "/") {
		return ""
	}
	return tail
}
