package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"restopos/internal/domain"
	"restopos/internal/pricing"
	"restopos/internal/store"
)

// AddToCart inserts a new line with a price/name snapshot of the
// product, or bumps the quantity of the existing line. Unknown
// products are rejected without touching the cart.
func (s *Service) AddToCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.products, func(p domain.Product) bool { return p.ID == productID })
	if idx < 0 {
		return fmt.Errorf("%w: product %s", store.ErrNotFound, productID)
	}
	product := s.products[idx]

	next := slices.Clone(s.cart)
	if li := lineIndex(next, productID); li >= 0 {
		next[li].Quantity++
	} else {
		next = append(next, domain.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  1,
		})
	}

	if err := s.repo.Save(ctx, store.KeyCart, next); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.cart = next
	return nil
}

// SetQuantity overwrites a line's quantity; zero or less removes the
// line. The snapshot price is kept as-is.
func (s *Service) SetQuantity(ctx context.Context, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	li := lineIndex(s.cart, productID)
	if li < 0 {
		return fmt.Errorf("%w: cart line %s", store.ErrNotFound, productID)
	}

	next := slices.Clone(s.cart)
	if qty <= 0 {
		next = slices.Delete(next, li, li+1)
	} else {
		next[li].Quantity = qty
	}

	if err := s.repo.Save(ctx, store.KeyCart, next); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.cart = next
	return nil
}

func (s *Service) RemoveFromCart(ctx context.Context, productID string) error {
	return s.SetQuantity(ctx, productID, 0)
}

// ClearCart empties the cart and resets the pending payment amount in
// the same step; checkout state is never left dangling behind an
// empty cart.
func (s *Service) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, store.KeyCart, []domain.CartLine{}); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.cart = nil
	s.payment = decimal.Zero
	return nil
}

func (s *Service) Cart() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cart)
}

// SubtotalFor returns unit price times quantity for one line, zero if
// the product is not in the cart.
func (s *Service) SubtotalFor(productID string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if li := lineIndex(s.cart, productID); li >= 0 {
		return s.cart[li].Subtotal()
	}
	return decimal.Zero
}

// CartTotals recomputes the totals from scratch under the current
// rates. Nothing is cached; a settings change is reflected in the
// next call.
func (s *Service) CartTotals() domain.Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pricing.ComputeTotals(s.cart, s.settings)
}

// SetPaymentAmount records the tendered amount and returns the
// payment/balance breakdown for display.
func (s *Service) SetPaymentAmount(amount decimal.Decimal) domain.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount.IsNegative() {
		amount = decimal.Zero
	}
	s.payment = amount
	return pricing.ComputeBalance(amount, pricing.ComputeTotals(s.cart, s.settings))
}

func (s *Service) PaymentAmount() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payment
}

func lineIndex(cart []domain.CartLine, productID string) int {
	return slices.IndexFunc(cart, func(l domain.CartLine) bool { return l.ProductID == productID })
}
