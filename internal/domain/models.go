package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog record. Stock is nil for untracked items
// (made-to-order products that are never stock-checked at checkout).
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category Category        `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    *int            `json:"stock,omitempty"`
}

// Tracked reports whether the product participates in stock
// validation and deduction.
func (p Product) Tracked() bool {
	return p.Stock != nil
}

type ProductCreateRequest struct {
	Name     string          `json:"name"`
	Category Category        `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    *int            `json:"stock,omitempty"`
}

type ProductUpdateRequest struct {
	Name     *string          `json:"name,omitempty"`
	Category *Category        `json:"category,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    **int            `json:"-"`
}

// CartLine is one cart entry. Name and UnitPrice are snapshots taken
// when the line was first added; later catalog edits do not alter an
// open cart.
type CartLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is derived from a cart and the current rates; it is never
// stored on its own, only embedded inside a finalized Order.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
}

type Balance struct {
	Payment    decimal.Decimal `json:"payment"`
	Total      decimal.Decimal `json:"total"`
	Balance    decimal.Decimal `json:"balance"`
	Sufficient bool            `json:"sufficient"`
}

// Order is immutable once created, except for deletion. ID is the
// ledger-local counter value, unique only within the current epoch.
type Order struct {
	ID          string          `json:"id"`
	Items       []CartLine      `json:"items"`
	Totals      Totals          `json:"totals"`
	Timestamp   time.Time       `json:"timestamp"`
	CashierName string          `json:"cashierName"`
	Payment     decimal.Decimal `json:"payment"`
	Balance     decimal.Decimal `json:"balance"`
}

func (o Order) ItemCount() int {
	count := 0
	for _, line := range o.Items {
		count += line.Quantity
	}
	return count
}

// BreakdownEntry is one row of a category or product breakdown.
type BreakdownEntry struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// DailyReport is the aggregate of one closed ledger day, produced by
// the rollover.
type DailyReport struct {
	Date              string                    `json:"date"`
	OrderCount        int                       `json:"orderCount"`
	TotalRevenue      decimal.Decimal           `json:"totalRevenue"`
	TotalItems        int                       `json:"totalItems"`
	CategoryBreakdown map[string]BreakdownEntry `json:"categoryBreakdown"`
	ProductBreakdown  map[string]BreakdownEntry `json:"productBreakdown"`
}

// MonthlyArchive holds at most one DailyReport per date. Totals are
// recomputed as sums over DailyReports on every upsert, never
// incremented independently.
type MonthlyArchive struct {
	MonthKey     string                 `json:"monthKey"`
	DailyReports map[string]DailyReport `json:"dailyReports"`
	TotalOrders  int                    `json:"totalOrders"`
	TotalRevenue decimal.Decimal        `json:"totalRevenue"`
	TotalItems   int                    `json:"totalItems"`
}

// Recompute rebuilds the archive totals from its daily reports.
func (m *MonthlyArchive) Recompute() {
	m.TotalOrders = 0
	m.TotalItems = 0
	m.TotalRevenue = decimal.Zero
	for _, report := range m.DailyReports {
		m.TotalOrders += report.OrderCount
		m.TotalItems += report.TotalItems
		m.TotalRevenue = m.TotalRevenue.Add(report.TotalRevenue)
	}
}

type DailyTotals struct {
	Total      decimal.Decimal `json:"total"`
	OrderCount int             `json:"orderCount"`
}

type DetailedStats struct {
	CategoryBreakdown map[string]BreakdownEntry `json:"categoryBreakdown"`
	ProductBreakdown  map[string]BreakdownEntry `json:"productBreakdown"`
	TotalOrders       int                       `json:"totalOrders"`
	TotalItems        int                       `json:"totalItems"`
	TotalAmount       decimal.Decimal           `json:"totalAmount"`
}

// ProductSalesTotal carries first/last sold dates across the retained
// history in addition to the plain breakdown numbers.
type ProductSalesTotal struct {
	Count     int             `json:"count"`
	Amount    decimal.Decimal `json:"amount"`
	FirstSold string          `json:"firstSold"`
	LastSold  string          `json:"lastSold"`
}

type ThreeMonthSummary struct {
	TotalOrders          int                          `json:"totalOrders"`
	TotalRevenue         decimal.Decimal              `json:"totalRevenue"`
	TotalItems           int                          `json:"totalItems"`
	CategoryTotals       map[string]BreakdownEntry    `json:"categoryTotals"`
	ProductTotals        map[string]ProductSalesTotal `json:"productTotals"`
	AverageOrderValue    decimal.Decimal              `json:"averageOrderValue"`
	AverageItemsPerOrder decimal.Decimal              `json:"averageItemsPerOrder"`
}

// User is the logged-in identity restored from the currentUser
// record. A UI-access gate, not a trust boundary.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserAccount is the internal persistence model for login
// credentials. Password holds a bcrypt hash.
type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)
