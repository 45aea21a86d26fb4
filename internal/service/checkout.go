package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"restopos/internal/domain"
	"restopos/internal/pricing"
	"restopos/internal/store"
)

var (
	ErrCartEmpty           = errors.New("cart is empty")
	ErrInsufficientPayment = errors.New("payment amount is less than total")
)

// StockConflictError rejects a checkout whose cart asks for more of a
// tracked product than the catalog holds. The whole checkout aborts;
// no stock is deducted.
type StockConflictError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d", e.ProductName, e.Available)
}

// Checkout is the atomic commit of the current cart: validate payment
// and stock across every line, then deduct stock, mint the next
// ledger-local order ID, append the order, and persist catalog,
// ledger, counter and the now-empty cart in one transaction. A
// rejection leaves every piece of state untouched.
func (s *Service) Checkout(ctx context.Context, payment decimal.Decimal) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cart) == 0 {
		return domain.Order{}, ErrCartEmpty
	}

	totals := pricing.ComputeTotals(s.cart, s.settings)
	balance := pricing.ComputeBalance(payment, totals)
	if !balance.Sufficient {
		return domain.Order{}, fmt.Errorf("%w: total %s, received %s",
			ErrInsufficientPayment, totals.Total.StringFixed(2), balance.Payment.StringFixed(2))
	}

	// Validate stock across the whole cart before any deduction.
	// Untracked products are never checked and never touched.
	type deduction struct {
		productIdx int
		qty        int
	}
	deductions := make([]deduction, 0, len(s.cart))
	for _, line := range s.cart {
		idx := slices.IndexFunc(s.products, func(p domain.Product) bool { return p.ID == line.ProductID })
		if idx < 0 {
			// Product deleted since the line was added; the snapshot
			// still sells, and reporting buckets it under Other.
			continue
		}
		product := s.products[idx]
		if !product.Tracked() {
			continue
		}
		if *product.Stock < line.Quantity {
			return domain.Order{}, &StockConflictError{
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   *product.Stock,
			}
		}
		deductions = append(deductions, deduction{productIdx: idx, qty: line.Quantity})
	}

	nextProducts := slices.Clone(s.products)
	for _, d := range deductions {
		remaining := *nextProducts[d.productIdx].Stock - d.qty
		nextProducts[d.productIdx].Stock = &remaining
	}

	order := domain.Order{
		ID:          strconv.Itoa(s.orderCounter),
		Items:       slices.Clone(s.cart),
		Totals:      totals,
		Timestamp:   s.now(),
		CashierName: s.cashierName(),
		Payment:     balance.Payment,
		Balance:     balance.Balance,
	}
	nextOrders := append(slices.Clone(s.orders), order)

	err := s.repo.SaveAll(ctx, map[string]any{
		store.KeyProducts:     nextProducts,
		store.KeyOrders:       nextOrders,
		store.KeyOrderCounter: s.orderCounter + 1,
		store.KeyCart:         []domain.CartLine{},
	})
	if err != nil {
		// Nothing has been mutated yet; the session stays consistent
		// with the durable state and the checkout can be retried.
		return domain.Order{}, fmt.Errorf("commit checkout: %w", err)
	}

	s.products = nextProducts
	s.orders = nextOrders
	s.orderCounter++
	s.cart = nil
	s.payment = decimal.Zero
	return order, nil
}
