package service

import (
	"context"
	"fmt"
	"slices"

	"restopos/internal/domain"
	"restopos/internal/store"
)

func (s *Service) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.orders)
}

func (s *Service) OrderByID(id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orderByIDLocked(id)
}

func (s *Service) orderByIDLocked(id string) (domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, store.ErrNotFound
}

// DeleteOrder removes an order from the current ledger epoch. Stock
// is not restored: deletion is a record correction, not a return.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRoleLocked(domain.RoleAdmin); err != nil {
		return err
	}

	idx := slices.IndexFunc(s.orders, func(o domain.Order) bool { return o.ID == id })
	if idx < 0 {
		return store.ErrNotFound
	}

	next := slices.Delete(slices.Clone(s.orders), idx, idx+1)
	if err := s.repo.Save(ctx, store.KeyOrders, next); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	s.orders = next
	return nil
}
