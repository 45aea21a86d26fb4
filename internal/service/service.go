// Package service holds the terminal session: catalog, cart, order
// ledger, settings, sales history and the logged-in user, loaded from
// the persistence collaborator at start and written back on every
// mutation. One Service instance serves one terminal.
package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"restopos/internal/domain"
	"restopos/internal/store"
	"restopos/internal/suggest"
)

type Options struct {
	// SessionSecret signs the persisted login token.
	SessionSecret string
	SessionTTL    time.Duration

	SeedAdminPassword   string
	SeedCashierPassword string

	// Now is the wall clock; overridable in tests that cross a day
	// boundary.
	Now func() time.Time
}

type Service struct {
	mu   sync.RWMutex
	repo store.Store
	now  func() time.Time

	sessionSecret []byte
	sessionTTL    time.Duration
	seedPasswords map[string]string
	upsell        *suggest.Engine

	products []domain.Product
	cart     []domain.CartLine
	orders   []domain.Order
	// orderCounter is the next ledger-local order ID; reset to 1 by
	// the daily rollover.
	orderCounter int
	settings     domain.Settings
	history      []domain.MonthlyArchive
	currentUser  *domain.User
	payment      decimal.Decimal
}

func New(repo store.Store, opts Options) *Service {
	if opts.SessionSecret == "" {
		opts.SessionSecret = "restopos-dev-session-secret"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.SeedAdminPassword == "" {
		opts.SeedAdminPassword = "admin123"
	}
	if opts.SeedCashierPassword == "" {
		opts.SeedCashierPassword = "cashier123"
	}

	return &Service{
		repo:          repo,
		now:           opts.Now,
		sessionSecret: []byte(opts.SessionSecret),
		sessionTTL:    opts.SessionTTL,
		seedPasswords: map[string]string{
			domain.RoleAdmin:   opts.SeedAdminPassword,
			domain.RoleCashier: opts.SeedCashierPassword,
		},
		upsell:       suggest.NewEngine(),
		orderCounter: 1,
		settings:     domain.DefaultSettings(),
		payment:      decimal.Zero,
	}
}

// Start loads every persisted record, seeds user accounts on first
// run, restores the login session, and runs the day-boundary
// rollover before the day's first checkout can happen. A corrupted
// record falls back to its default; only a store that cannot be
// written to is fatal.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadRecord(ctx, store.KeyProducts, &s.products)
	s.loadRecord(ctx, store.KeyCart, &s.cart)
	s.loadRecord(ctx, store.KeyOrders, &s.orders)

	if !s.loadRecord(ctx, store.KeyOrderCounter, &s.orderCounter) || s.orderCounter < 1 {
		s.orderCounter = 1
	}

	settings := domain.DefaultSettings()
	if s.loadRecord(ctx, store.KeySettings, &settings) {
		s.settings = settings
	}

	s.loadRecord(ctx, store.KeySalesHistory, &s.history)
	s.history = pruneArchives(s.history, s.today())

	if err := s.seedUsers(ctx); err != nil {
		return err
	}
	s.restoreSession(ctx)

	if _, err := s.rolloverLocked(ctx); err != nil {
		return fmt.Errorf("daily rollover: %w", err)
	}
	return nil
}

// loadRecord reads one record into v, reporting whether it was
// present and readable. Corrupt records are logged and skipped so the
// session starts from the default value instead of crashing.
func (s *Service) loadRecord(ctx context.Context, key string, v any) bool {
	ok, err := s.repo.Load(ctx, key, v)
	if err != nil {
		log.Printf("[service] WARN: record %s unreadable, falling back to default: %v", key, err)
		return false
	}
	return ok
}

func (s *Service) today() string {
	return s.now().Format("2006-01-02")
}

func monthKeyOf(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}

func (s *Service) cashierName() string {
	if s.currentUser != nil {
		return s.currentUser.Username
	}
	return "Cashier"
}
