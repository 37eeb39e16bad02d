package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tablebook/internal/models"

	"github.com/google/uuid"
)

func (db *DB) CustomerExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE phone = ?`, phone).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check customer by phone: %w", err)
	}
	return count > 0, nil
}

func (db *DB) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	c := &models.Customer{}
	query := `SELECT id, name, COALESCE(phone, ''), status, created_at FROM customers WHERE phone = ?`
	err := db.QueryRowContext(ctx, query, phone).Scan(&c.ID, &c.Name, &c.Phone, &c.Status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by phone: %w", err)
	}
	return c, nil
}

func (db *DB) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	if customer.Status == "" {
		customer.Status = models.CustomerStatusRegular
	}
	now := time.Now()
	query := `INSERT INTO customers (id, name, phone, status, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, customer.ID, customer.Name, customer.Phone, customer.Status, now)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	customer.CreatedAt = now
	return nil
}

func (db *DB) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `UPDATE customers SET name = ?, phone = ?, status = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, customer.Name, customer.Phone, customer.Status, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// FilterCustomers matches name or phone against a substring query,
// optionally narrowed to a status. Empty arguments match everyone.
func (db *DB) FilterCustomers(ctx context.Context, query, status string) ([]*models.Customer, error) {
	sqlQuery := `SELECT id, name, COALESCE(phone, ''), status, created_at
                 FROM customers
                 WHERE (? = '' OR name LIKE ? OR phone LIKE ?)
                   AND (? = '' OR status = ?)
                 ORDER BY name`
	pattern := "%" + query + "%"
	rows, err := db.QueryContext(ctx, sqlQuery, query, pattern, pattern, status, status)
	if err != nil {
		return nil, fmt.Errorf("failed to filter customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c := &models.Customer{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
