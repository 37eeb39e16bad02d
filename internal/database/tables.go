package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tablebook/internal/models"

	"github.com/google/uuid"
)

func (db *DB) GetTables(ctx context.Context) ([]*models.Table, error) {
	query := `SELECT id, table_number, seats, is_available, created_at, updated_at
              FROM restaurant_tables ORDER BY table_number`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
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

func (db *DB) GetTable(ctx context.Context, id string) (*models.Table, error) {
	query := `SELECT id, table_number, seats, is_available, created_at, updated_at
              FROM restaurant_tables WHERE id = ?`
	t := &models.Table{}
	err := db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.TableNumber, &t.Seats, &t.IsAvailable, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return t, nil
}

func (db *DB) CreateTable(ctx context.Context, table *models.Table) error {
	if table.ID == "" {
		table.ID = uuid.NewString()
	}
	now := time.Now()
	query := `INSERT INTO restaurant_tables (id, table_number, seats, is_available, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, table.ID, table.TableNumber, table.Seats, table.IsAvailable, now, now)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	table.CreatedAt = now
	table.UpdatedAt = now
	return nil
}

func (db *DB) UpdateTable(ctx context.Context, table *models.Table) error {
	query := `UPDATE restaurant_tables SET table_number = ?, seats = ?, is_available = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, table.TableNumber, table.Seats, table.IsAvailable, time.Now(), table.ID)
	if err != nil {
		return fmt.Errorf("failed to update table: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrTableNotFound
	}
	return nil
}

// DeleteTable removes a table unless bookings from today onward still
// reference it.
func (db *DB) DeleteTable(ctx context.Context, id string) error {
	today := time.Now().Format(models.DateLayout)

	var upcoming int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE table_id = ? AND booking_date >= ?`, id, today,
	).Scan(&upcoming)
	if err != nil {
		return fmt.Errorf("failed to count table bookings: %w", err)
	}
	if upcoming > 0 {
		return ErrTableInUse
	}

	result, err := db.ExecContext(ctx, `DELETE FROM restaurant_tables WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrTableNotFound
	}
	return nil
}
