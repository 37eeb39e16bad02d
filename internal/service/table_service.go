package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"tablebook/internal/domain"
	"tablebook/internal/models"
)

var (
	ErrInvalidTableNumber = errors.New("table number must be positive")
	ErrInvalidSeats       = errors.New("seat count must be positive")
)

type TableService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewTableService(store domain.Store, logger *zerolog.Logger) *TableService {
	return &TableService{store: store, logger: logger}
}

func (s *TableService) GetTables(ctx context.Context) ([]*models.Table, error) {
	return s.store.GetTables(ctx)
}

func validateTable(table *models.Table) error {
	if table.TableNumber <= 0 {
		return ErrInvalidTableNumber
	}
	if table.Seats <= 0 {
		return ErrInvalidSeats
	}
	return nil
}

func (s *TableService) CreateTable(ctx context.Context, table *models.Table) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if err := s.store.CreateTable(ctx, table); err != nil {
		return err
	}
	s.logger.Info().Str("table_id", table.ID).Int("table_number", table.TableNumber).Msg("table created")
	return nil
}

func (s *TableService) UpdateTable(ctx context.Context, table *models.Table) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if err := s.store.UpdateTable(ctx, table); err != nil {
		return err
	}
	s.logger.Info().Str("table_id", table.ID).Msg("table updated")
	return nil
}

// DeleteTable refuses to remove a table that still has upcoming
// bookings; the store reports that as ErrTableInUse.
func (s *TableService) DeleteTable(ctx context.Context, id string) error {
	if err := s.store.DeleteTable(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("table_id", id).Msg("table deleted")
	return nil
}
