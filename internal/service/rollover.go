package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"restopos/internal/domain"
	"restopos/internal/store"
)

// retainedMonths bounds the sales history archive.
const retainedMonths = 3

// RunRollover folds the closed day's ledger into the monthly archive
// if the calendar date has changed since the last rollover. It
// returns the daily report when a day was folded, nil when the
// rollover was a no-op. The fold and the ledger reset are one durable
// transaction: the ledger is never cleared without its report having
// been saved.
func (s *Service) RunRollover(ctx context.Context) (*domain.DailyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rolloverLocked(ctx)
}

func (s *Service) rolloverLocked(ctx context.Context) (*domain.DailyReport, error) {
	today := s.today()
	if s.settings.LastRolloverDate == today {
		return nil, nil
	}

	nextSettings := s.settings
	nextSettings.LastRolloverDate = today

	if len(s.orders) == 0 {
		// Nothing to fold; just advance the marker.
		if err := s.repo.Save(ctx, store.KeySettings, nextSettings); err != nil {
			return nil, fmt.Errorf("save settings: %w", err)
		}
		s.settings = nextSettings
		return nil, nil
	}

	// The ledger belongs to the day it was opened on; fall back to
	// the first order's date on a fresh install.
	reportDate := s.settings.LastRolloverDate
	if reportDate == "" {
		reportDate = s.orders[0].Timestamp.Format("2006-01-02")
	}

	report := aggregateDay(s.orders, s.products, reportDate)
	nextHistory := upsertDailyReport(s.history, report)
	nextHistory = pruneArchives(nextHistory, today)

	err := s.repo.SaveAll(ctx, map[string]any{
		store.KeySalesHistory: nextHistory,
		store.KeyOrders:       []domain.Order{},
		store.KeyOrderCounter: 1,
		store.KeySettings:     nextSettings,
	})
	if err != nil {
		return nil, fmt.Errorf("commit rollover: %w", err)
	}

	s.history = nextHistory
	s.orders = nil
	s.orderCounter = 1
	s.settings = nextSettings
	return &report, nil
}

// aggregateDay builds the daily report for a ledger. Lines whose
// product has been deleted from the catalog are attributed to the
// unknown-category bucket instead of being dropped.
func aggregateDay(orders []domain.Order, products []domain.Product, date string) domain.DailyReport {
	report := domain.DailyReport{
		Date:              date,
		OrderCount:        len(orders),
		TotalRevenue:      decimal.Zero,
		CategoryBreakdown: map[string]domain.BreakdownEntry{},
		ProductBreakdown:  map[string]domain.BreakdownEntry{},
	}

	for _, order := range orders {
		report.TotalRevenue = report.TotalRevenue.Add(order.Totals.Total)
		for _, line := range order.Items {
			report.TotalItems += line.Quantity
			addBreakdown(report.CategoryBreakdown, categoryLabelFor(products, line), line)
			addBreakdown(report.ProductBreakdown, line.Name, line)
		}
	}
	return report
}

func categoryLabelFor(products []domain.Product, line domain.CartLine) string {
	idx := slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == line.ProductID })
	if idx < 0 {
		return domain.UnknownCategory().Label()
	}
	return products[idx].Category.Label()
}

func addBreakdown(breakdown map[string]domain.BreakdownEntry, key string, line domain.CartLine) {
	entry := breakdown[key]
	entry.Count += line.Quantity
	entry.Amount = entry.Amount.Add(line.Subtotal())
	breakdown[key] = entry
}

// upsertDailyReport merges a report into its month's archive,
// replacing any report already stored for the same date, and
// recomputes the archive totals from scratch. The input slice is not
// mutated.
func upsertDailyReport(history []domain.MonthlyArchive, report domain.DailyReport) []domain.MonthlyArchive {
	monthKey := monthKeyOf(report.Date)
	next := slices.Clone(history)

	idx := slices.IndexFunc(next, func(m domain.MonthlyArchive) bool { return m.MonthKey == monthKey })
	if idx < 0 {
		next = append(next, domain.MonthlyArchive{
			MonthKey:     monthKey,
			DailyReports: map[string]domain.DailyReport{},
		})
		idx = len(next) - 1
	}

	archive := next[idx]
	archive.DailyReports = maps.Clone(archive.DailyReports)
	if archive.DailyReports == nil {
		archive.DailyReports = map[string]domain.DailyReport{}
	}
	archive.DailyReports[report.Date] = report
	archive.Recompute()
	next[idx] = archive
	return next
}

// pruneArchives keeps only the newest retainedMonths month keys. It
// runs on every load and every save of the history, not just at
// rollover.
func pruneArchives(history []domain.MonthlyArchive, today string) []domain.MonthlyArchive {
	if len(history) == 0 {
		return history
	}

	pruned := make([]domain.MonthlyArchive, 0, len(history))
	seen := map[string]bool{}
	for _, archive := range history {
		if archive.MonthKey == "" || seen[archive.MonthKey] {
			continue
		}
		// A month key in the future of the wall clock is corrupt
		// data; drop it rather than let it pin the retention window.
		if strings.Compare(archive.MonthKey, monthKeyOf(today)) > 0 {
			continue
		}
		seen[archive.MonthKey] = true
		pruned = append(pruned, archive)
	}

	slices.SortFunc(pruned, func(a, b domain.MonthlyArchive) int {
		return strings.Compare(b.MonthKey, a.MonthKey)
	})
	if len(pruned) > retainedMonths {
		pruned = pruned[:retainedMonths]
	}
	slices.Reverse(pruned)
	return pruned
}
