package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tablebook/internal/models"

	"github.com/google/uuid"
)

// querier is satisfied by both *sql.DB and *sql.Tx so availability
// reads can run inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conflictWindow returns the half-open clock range around a slot whose
// bookings would overlap the slot's 90-minute occupancy.
func conflictWindow(slot string) (string, string, error) {
	minutes, err := models.SlotMinutes(slot)
	if err != nil {
		return "", "", err
	}
	span := int(models.BookingDuration.Minutes())
	return models.MinutesToClock(minutes - span), models.MinutesToClock(minutes + span), nil
}

// GetAvailableTables returns tables that are not manually disabled and
// have no booking overlapping the slot's occupancy window on the given
// date. excludeGroup, when non-empty, ignores that group's own rows so
// an existing reservation can be moved. Seat capacity is deliberately
// not filtered here; combining tables for large parties is the
// solver's concern.
func (db *DB) GetAvailableTables(ctx context.Context, date, slot, excludeGroup string) ([]*models.Table, error) {
	return availableTables(ctx, db.DB, date, slot, excludeGroup)
}

func availableTables(ctx context.Context, q querier, date, slot, excludeGroup string) ([]*models.Table, error) {
	lo, hi, err := conflictWindow(slot)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, table_number, seats, is_available, created_at, updated_at
              FROM restaurant_tables
              WHERE is_available = 1
                AND id NOT IN (
                    SELECT table_id FROM bookings
                    WHERE booking_date = ?
                      AND booking_time > ?
                      AND booking_time < ?
                      AND group_id != ?
                )
              ORDER BY table_number`

	rows, err := q.QueryContext(ctx, query, date, lo, hi, excludeGroup)
	if err != nil {
		return nil, fmt.Errorf("failed to get available tables: %w", err)
	}
	defer rows.Close()

	var tables []*models.Table
	for rows.Next() {
		t := &models.Table{}
		if err := rows.Scan(&t.ID, &t.TableNumber, &t.Seats, &t.IsAvailable, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// verifyTablesFit re-checks, against a fresh availability read, that
// every requested table is still free and that their combined capacity
// seats the party. Each table counts once, so a request naming the
// same id twice fails rather than double-reserving it. This runs
// inside the commit transaction so the check and the insert are
// atomic.
func verifyTablesFit(ctx context.Context, q querier, date, slot, excludeGroup string, tableIDs []string, partySize int) error {
	available, err := availableTables(ctx, q, date, slot, excludeGroup)
	if err != nil {
		return err
	}

	seatsByID := make(map[string]int, len(available))
	for _, t := range available {
		seatsByID[t.ID] = t.Seats
	}

	total := 0
	for _, id := range tableIDs {
		seats, ok := seatsByID[id]
		if !ok {
			return ErrSlotUnavailable
		}
		delete(seatsByID, id)
		total += seats
	}
	if total < partySize {
		return ErrSlotUnavailable
	}
	return nil
}

// resolveCustomer finds the customer by phone, creating one when
// allowed. Runs inside the group transaction.
func resolveCustomer(ctx context.Context, tx *sql.Tx, name, phone string, create bool) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM customers WHERE phone = ?`, phone).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up customer: %w", err)
	}

	if !create {
		return "", ErrCustomerNotFound
	}

	id = uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO customers (id, name, phone, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, phone, models.CustomerStatusRegular, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	return id, nil
}

func insertGroupRows(ctx context.Context, tx *sql.Tx, groupID, customerID string, p models.BookingGroupParams) error {
	query := `INSERT INTO bookings (id, group_id, table_id, customer_id, party_size, booking_date, booking_time, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	for _, tableID := range p.TableIDs {
		// The full party size is stored on every row of the group;
		// downstream reporting depends on the duplicated value.
		_, err := tx.ExecContext(ctx, query,
			uuid.NewString(), groupID, tableID, customerID,
			p.PartySize, p.BookingDate, p.BookingTime, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking row: %w", err)
		}
	}
	return nil
}

// CreateBookingGroup persists one booking row per table as a single
// transaction and returns the new group id. The availability check
// runs inside the same transaction, so a concurrent booking that
// consumed a requested table surfaces as ErrSlotUnavailable and no
// row of the group is left behind.
func (db *DB) CreateBookingGroup(ctx context.Context, p models.BookingGroupParams) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := verifyTablesFit(ctx, tx, p.BookingDate, p.BookingTime, "", p.TableIDs, p.PartySize); err != nil {
		return "", err
	}

	customerID, err := resolveCustomer(ctx, tx, p.CustomerName, p.CustomerPhone, p.CreateCustomer)
	if err != nil {
		return "", err
	}

	groupID := uuid.NewString()
	if err := insertGroupRows(ctx, tx, groupID, customerID, p); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit booking group: %w", err)
	}
	return groupID, nil
}

// UpdateBookingGroup moves a reservation by cancelling the old group
// and creating a new one in the same transaction. The old group's own
// rows are excluded from the conflict check, and its customer is kept.
// The new table set may differ in cardinality from the old one, which
// is why this is cancel-and-recreate rather than row updates.
func (db *DB) UpdateBookingGroup(ctx context.Context, groupID string, p models.BookingGroupParams) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var customerID sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT customer_id FROM bookings WHERE group_id = ? LIMIT 1`, groupID).Scan(&customerID)
	if err == sql.ErrNoRows {
		return "", ErrGroupNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load booking group: %w", err)
	}

	if err := verifyTablesFit(ctx, tx, p.BookingDate, p.BookingTime, groupID, p.TableIDs, p.PartySize); err != nil {
		return "", err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE group_id = ?`, groupID); err != nil {
		return "", fmt.Errorf("failed to cancel old booking group: %w", err)
	}

	newGroupID := uuid.NewString()
	if err := insertGroupRows(ctx, tx, newGroupID, customerID.String, p); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit booking group update: %w", err)
	}
	return newGroupID, nil
}

// CancelBookingGroup removes every row of the group. Cancelling an
// unknown or already-cancelled group is a no-op success; the returned
// count tells callers whether anything was actually removed.
func (db *DB) CancelBookingGroup(ctx context.Context, groupID string) (int, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE group_id = ?`, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel booking group: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

const bookingSelect = `SELECT b.id, b.group_id, b.table_id, COALESCE(b.customer_id, ''), b.party_size,
                              b.booking_date, b.booking_time, b.created_at,
                              COALESCE(c.name, ''), COALESCE(c.phone, ''), t.table_number
                       FROM bookings b
                       LEFT JOIN customers c ON c.id = b.customer_id
                       JOIN restaurant_tables t ON t.id = b.table_id`

func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		err := rows.Scan(
			&b.ID, &b.GroupID, &b.TableID, &b.CustomerID, &b.PartySize,
			&b.BookingDate, &b.BookingTime, &b.CreatedAt,
			&b.CustomerName, &b.CustomerPhone, &b.TableNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) GetBookingsByGroup(ctx context.Context, groupID string) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, bookingSelect+` WHERE b.group_id = ? ORDER BY t.table_number`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by group: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (db *DB) GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, bookingSelect+` WHERE b.booking_date = ? ORDER BY b.booking_time, t.table_number`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}
