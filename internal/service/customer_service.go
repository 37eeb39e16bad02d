package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"tablebook/internal/domain"
	"tablebook/internal/models"
)

type CustomerService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewCustomerService(store domain.Store, logger *zerolog.Logger) *CustomerService {
	return &CustomerService{store: store, logger: logger}
}

// FilterCustomers matches query against name and phone; an empty query
// lists everyone. Status, when given, must be a known value.
func (s *CustomerService) FilterCustomers(ctx context.Context, query, status string) ([]*models.Customer, error) {
	if status != "" && status != models.CustomerStatusRegular && status != models.CustomerStatusVIP {
		return nil, ErrInvalidStatus
	}
	return s.store.FilterCustomers(ctx, strings.TrimSpace(query), status)
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	if strings.TrimSpace(customer.Name) == "" {
		return ErrMissingCustomerName
	}
	if strings.TrimSpace(customer.Phone) == "" {
		return ErrMissingPhone
	}
	if customer.Status != models.CustomerStatusRegular && customer.Status != models.CustomerStatusVIP {
		customer.Status = models.CustomerStatusRegular
	}
	if err := s.store.UpdateCustomer(ctx, customer); err != nil {
		return err
	}
	s.logger.Info().Str("customer_id", customer.ID).Msg("customer updated")
	return nil
}
