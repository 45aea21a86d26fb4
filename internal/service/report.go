package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"

	"restopos/internal/domain"
)

// DailyTotalsReport sums the open ledger: revenue and order count for
// the current day so far.
func (s *Service) DailyTotalsReport() domain.DailyTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := domain.DailyTotals{Total: decimal.Zero, OrderCount: len(s.orders)}
	for _, order := range s.orders {
		totals.Total = totals.Total.Add(order.Totals.Total)
	}
	return totals
}

// DetailedStatsReport breaks the open ledger down by category and by
// product. Lines whose product has left the catalog land in the
// unknown-category bucket; product rows always keep their snapshot
// name.
func (s *Service) DetailedStatsReport() domain.DetailedStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.DetailedStats{
		CategoryBreakdown: map[string]domain.BreakdownEntry{},
		ProductBreakdown:  map[string]domain.BreakdownEntry{},
		TotalOrders:       len(s.orders),
		TotalAmount:       decimal.Zero,
	}
	for _, order := range s.orders {
		stats.TotalAmount = stats.TotalAmount.Add(order.Totals.Total)
		for _, line := range order.Items {
			stats.TotalItems += line.Quantity
			addBreakdown(stats.CategoryBreakdown, categoryLabelFor(s.products, line), line)
			addBreakdown(stats.ProductBreakdown, line.Name, line)
		}
	}
	return stats
}

// ThreeMonthSummaryReport merges every retained daily report into one
// cross-month view with per-product first/last sold dates.
func (s *Service) ThreeMonthSummaryReport() domain.ThreeMonthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.ThreeMonthSummary{
		TotalRevenue:         decimal.Zero,
		CategoryTotals:       map[string]domain.BreakdownEntry{},
		ProductTotals:        map[string]domain.ProductSalesTotal{},
		AverageOrderValue:    decimal.Zero,
		AverageItemsPerOrder: decimal.Zero,
	}

	for _, archive := range s.history {
		dates := maps.Keys(archive.DailyReports)
		slices.Sort(dates)
		for _, date := range dates {
			report := archive.DailyReports[date]
			summary.TotalOrders += report.OrderCount
			summary.TotalItems += report.TotalItems
			summary.TotalRevenue = summary.TotalRevenue.Add(report.TotalRevenue)

			for label, entry := range report.CategoryBreakdown {
				total := summary.CategoryTotals[label]
				total.Count += entry.Count
				total.Amount = total.Amount.Add(entry.Amount)
				summary.CategoryTotals[label] = total
			}
			for name, entry := range report.ProductBreakdown {
				total := summary.ProductTotals[name]
				total.Count += entry.Count
				total.Amount = total.Amount.Add(entry.Amount)
				if total.FirstSold == "" || date < total.FirstSold {
					total.FirstSold = date
				}
				if date > total.LastSold {
					total.LastSold = date
				}
				summary.ProductTotals[name] = total
			}
		}
	}

	if summary.TotalOrders > 0 {
		orders := decimal.NewFromInt(int64(summary.TotalOrders))
		summary.AverageOrderValue = summary.TotalRevenue.DivRound(orders, 2)
		summary.AverageItemsPerOrder = decimal.NewFromInt(int64(summary.TotalItems)).DivRound(orders, 2)
	}
	return summary
}

// SalesHistory returns the retained monthly archives, oldest first.
func (s *Service) SalesHistory() []domain.MonthlyArchive {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

// FormatDailyReport renders a daily report as a plain-text summary
// suitable for printing or export.
func (s *Service) FormatDailyReport(report domain.DailyReport) string {
	s.mu.RLock()
	settings := s.settings
	s.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", settings.RestaurantName)
	fmt.Fprintf(&b, "Daily Sales Report - %s\n", report.Date)
	b.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&b, "Orders:  %d\n", report.OrderCount)
	fmt.Fprintf(&b, "Items:   %d\n", report.TotalItems)
	fmt.Fprintf(&b, "Revenue: %s\n", settings.FormatMoney(report.TotalRevenue))

	if len(report.CategoryBreakdown) > 0 {
		b.WriteString("\nBy category:\n")
		labels := maps.Keys(report.CategoryBreakdown)
		slices.Sort(labels)
		for _, label := range labels {
			entry := report.CategoryBreakdown[label]
			fmt.Fprintf(&b, "  %-20s %4d  %s\n", label, entry.Count, settings.FormatMoney(entry.Amount))
		}
	}
	if len(report.ProductBreakdown) > 0 {
		b.WriteString("\nBy product:\n")
		names := maps.Keys(report.ProductBreakdown)
		slices.Sort(names)
		for _, name := range names {
			entry := report.ProductBreakdown[name]
			fmt.Fprintf(&b, "  %-20s %4d  %s\n", name, entry.Count, settings.FormatMoney(entry.Amount))
		}
	}
	return b.String()
}
