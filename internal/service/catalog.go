package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restopos/internal/domain"
	"restopos/internal/store"
)

const (
	maxProductNameLen = 100
	maxStockQty       = 100000
)

var maxProductPrice = decimal.NewFromInt(1000000)

// Products returns the catalog sorted by category label, then name.
func (s *Service) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, len(s.products))
	copy(products, s.products)
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := strings.Compare(a.Category.Label(), b.Category.Label()); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return products
}

func (s *Service) ProductByID(id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, store.ErrNotFound
}

func (s *Service) AddProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRoleLocked(domain.RoleAdmin); err != nil {
		return domain.Product{}, err
	}
	if err := validateProduct(req.Name, req.Category, req.Price, req.Stock); err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
		Price:    req.Price,
		Stock:    req.Stock,
	}

	next := append(slices.Clone(s.products), product)
	if err := s.repo.Save(ctx, store.KeyProducts, next); err != nil {
		return domain.Product{}, fmt.Errorf("save products: %w", err)
	}
	s.products = next
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRoleLocked(domain.RoleAdmin); err != nil {
		return domain.Product{}, err
	}

	idx := slices.IndexFunc(s.products, func(p domain.Product) bool { return p.ID == id })
	if idx < 0 {
		return domain.Product{}, store.ErrNotFound
	}

	updated := s.products[idx]
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		updated.Category = *req.Category
	}
	if req.Price != nil {
		updated.Price = *req.Price
	}
	if req.Stock != nil {
		updated.Stock = *req.Stock
	}
	if err := validateProduct(updated.Name, updated.Category, updated.Price, updated.Stock); err != nil {
		return domain.Product{}, err
	}

	next := slices.Clone(s.products)
	next[idx] = updated
	if err := s.repo.Save(ctx, store.KeyProducts, next); err != nil {
		return domain.Product{}, fmt.Errorf("save products: %w", err)
	}
	s.products = next
	return updated, nil
}

// DeleteProduct removes a catalog record. Open cart lines keep their
// snapshot and historical orders keep theirs; reporting attributes
// such lines to the unknown-product bucket.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRoleLocked(domain.RoleAdmin); err != nil {
		return err
	}

	idx := slices.IndexFunc(s.products, func(p domain.Product) bool { return p.ID == id })
	if idx < 0 {
		return store.ErrNotFound
	}

	next := slices.Delete(slices.Clone(s.products), idx, idx+1)
	if err := s.repo.Save(ctx, store.KeyProducts, next); err != nil {
		return fmt.Errorf("save products: %w", err)
	}
	s.products = next
	return nil
}

// SearchProducts matches the query against product name and category
// label, case-insensitively. An empty query returns everything.
func (s *Service) SearchProducts(query string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return slices.Clone(s.products)
	}

	matches := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Category.Label()), query) {
			matches = append(matches, p)
		}
	}
	return matches
}

// FilterByCategory returns products whose category label matches.
// "All" (or empty) returns everything.
func (s *Service) FilterByCategory(label string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if label == "" || label == "All" {
		return slices.Clone(s.products)
	}

	matches := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Category.Label() == label {
			matches = append(matches, p)
		}
	}
	return matches
}

// SortByPrice returns the catalog sorted by price, ascending unless
// order is "desc".
func (s *Service) SortByPrice(order string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := slices.Clone(s.products)
	slices.SortStableFunc(sorted, func(a, b domain.Product) int {
		if order == "desc" {
			return b.Price.Cmp(a.Price)
		}
		return a.Price.Cmp(b.Price)
	})
	return sorted
}

// Categories lists the distinct category labels in catalog order,
// with the "All" pseudo-entry first.
func (s *Service) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := []string{"All"}
	seen := map[string]bool{}
	for _, p := range s.products {
		label := p.Category.Label()
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	return labels
}

func validateProduct(name string, category domain.Category, price decimal.Decimal, stock *int) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxProductNameLen {
		return fmt.Errorf("%w: product name", store.ErrInvalidInput)
	}
	if category.IsZero() {
		return fmt.Errorf("%w: category", store.ErrInvalidInput)
	}
	if !price.IsPositive() || price.GreaterThan(maxProductPrice) {
		return fmt.Errorf("%w: price", store.ErrInvalidInput)
	}
	if stock != nil && (*stock < 0 || *stock > maxStockQty) {
		return fmt.Errorf("%w: stock", store.ErrInvalidInput)
	}
	return nil
}
