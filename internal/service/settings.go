package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"restopos/internal/domain"
	"restopos/internal/store"
)

// Settings returns a copy of the current terminal settings.
func (s *Service) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// FormatMoney renders an amount with the configured currency symbol.
func (s *Service) FormatMoney(amount decimal.Decimal) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.FormatMoney(amount)
}

// UpdateRestaurantInfo sets the restaurant name shown on receipts and
// reports.
func (s *Service) UpdateRestaurantInfo(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return fmt.Errorf("%w: restaurant name must be 1-100 characters", store.ErrInvalidInput)
	}
	return s.updateSettings(ctx, func(settings *domain.Settings) {
		settings.RestaurantName = name
	})
}

// SetServiceChargeRate sets the service charge percentage applied to
// new checkouts. Stored orders keep the totals they were closed with.
func (s *Service) SetServiceChargeRate(ctx context.Context, rate float64) error {
	if rate < 0 || rate > 100 {
		return fmt.Errorf("%w: service charge rate must be between 0 and 100", store.ErrInvalidInput)
	}
	return s.updateSettings(ctx, func(settings *domain.Settings) {
		settings.ServiceChargeRatePercent = rate
	})
}

// SetDiscountRate sets the discount percentage applied to new
// checkouts.
func (s *Service) SetDiscountRate(ctx context.Context, rate float64) error {
	if rate < 0 || rate > 100 {
		return fmt.Errorf("%w: discount rate must be between 0 and 100", store.ErrInvalidInput)
	}
	return s.updateSettings(ctx, func(settings *domain.Settings) {
		settings.DiscountRatePercent = rate
	})
}

// SetCurrencySymbol sets the symbol used when formatting money.
func (s *Service) SetCurrencySymbol(ctx context.Context, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" || len(symbol) > 8 {
		return fmt.Errorf("%w: currency symbol must be 1-8 characters", store.ErrInvalidInput)
	}
	return s.updateSettings(ctx, func(settings *domain.Settings) {
		settings.CurrencySymbol = symbol
	})
}

// SetAdminContact sets the contact line printed on receipts.
func (s *Service) SetAdminContact(ctx context.Context, contact string) error {
	contact = strings.TrimSpace(contact)
	if len(contact) > 100 {
		return fmt.Errorf("%w: contact must be at most 100 characters", store.ErrInvalidInput)
	}
	return s.updateSettings(ctx, func(settings *domain.Settings) {
		settings.AdminContact = contact
	})
}

func (s *Service) updateSettings(ctx context.Context, apply func(*domain.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRoleLocked(domain.RoleAdmin); err != nil {
		return err
	}

	next := s.settings
	apply(&next)
	if err := s.repo.Save(ctx, store.KeySettings, next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.settings = next
	return nil
}
