package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"restopos/internal/domain"
	"restopos/internal/store"
	"restopos/internal/store/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(n int) *int {
	return &n
}

// testClock is a settable wall clock for tests that cross a day
// boundary.
type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time {
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func seedCatalog() []domain.Product {
	return []domain.Product{
		{ID: "p-biryani", Name: "Chicken Biryani", Category: domain.FlatCategory("Rice"), Price: dec("450"), Stock: intPtr(10)},
		{ID: "p-kottu", Name: "Kottu", Category: domain.HierarchicalCategory("Food", "Roti"), Price: dec("650"), Stock: intPtr(3)},
		{ID: "p-tea", Name: "Milk Tea", Category: domain.FlatCategory("Beverages"), Price: dec("80")},
	}
}

// newTestService starts a service over a memory store with a seeded
// catalog, default rates 10%/5%, and a fixed clock.
func newTestService(t *testing.T) (*Service, *memory.Store, *testClock) {
	t.Helper()
	ctx := context.Background()

	repo := memory.New()
	if err := repo.Save(ctx, store.KeyProducts, seedCatalog()); err != nil {
		t.Fatalf("seed products: %v", err)
	}
	settings := domain.DefaultSettings()
	settings.ServiceChargeRatePercent = 10
	settings.DiscountRatePercent = 5
	if err := repo.Save(ctx, store.KeySettings, settings); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	clock := &testClock{current: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
	svc := New(repo, Options{Now: clock.Now})
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc, repo, clock
}

// flakyStore fails batch writes on demand, for exercising the commit
// failure paths of checkout and rollover.
type flakyStore struct {
	*memory.Store
	failSaveAll bool
}

func (f *flakyStore) SaveAll(ctx context.Context, records map[string]any) error {
	if f.failSaveAll {
		return errors.New("disk full")
	}
	return f.Store.SaveAll(ctx, records)
}

// newFlakyService is newTestService over a store whose SaveAll can be
// made to fail mid-test.
func newFlakyService(t *testing.T) (*Service, *flakyStore, *testClock) {
	t.Helper()
	ctx := context.Background()

	flaky := &flakyStore{Store: memory.New()}
	if err := flaky.Save(ctx, store.KeyProducts, seedCatalog()); err != nil {
		t.Fatalf("seed products: %v", err)
	}
	settings := domain.DefaultSettings()
	settings.ServiceChargeRatePercent = 10
	settings.DiscountRatePercent = 5
	if err := flaky.Save(ctx, store.KeySettings, settings); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	clock := &testClock{current: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
	svc := New(flaky, Options{Now: clock.Now})
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc, flaky, clock
}

// restart builds a fresh service over the same store, simulating a
// process restart at the clock's current time.
func restart(t *testing.T, repo *memory.Store, clock *testClock) *Service {
	t.Helper()
	svc := New(repo, Options{Now: clock.Now})
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	return svc
}

func TestAddToCartSnapshotsPriceAndName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add again: %v", err)
	}

	// Repricing the product must not touch the open cart line.
	if _, err := svc.Login(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	newPrice := dec("500")
	if _, err := svc.UpdateProduct(ctx, "p-biryani", domain.ProductUpdateRequest{Price: &newPrice}); err != nil {
		t.Fatalf("update price: %v", err)
	}

	cart := svc.Cart()
	if len(cart) != 1 {
		t.Fatalf("cart lines = %d, want 1 merged line", len(cart))
	}
	if cart[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", cart[0].Quantity)
	}
	if !cart[0].UnitPrice.Equal(dec("450")) {
		t.Fatalf("snapshot price = %s, want 450", cart[0].UnitPrice)
	}
}

func TestAddToCartUnknownProduct(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.AddToCart(context.Background(), "p-nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(svc.Cart()) != 0 {
		t.Fatalf("cart mutated by rejected add")
	}
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.SetQuantity(ctx, "p-biryani", 0); err != nil {
		t.Fatalf("set quantity 0: %v", err)
	}
	if len(svc.Cart()) != 0 {
		t.Fatalf("line not removed at quantity 0")
	}

	if err := svc.SetQuantity(ctx, "p-biryani", 2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("set quantity on absent line: err = %v, want ErrNotFound", err)
	}
}

func TestClearCartResetsPayment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add: %v", err)
	}
	svc.SetPaymentAmount(dec("1000"))

	if err := svc.ClearCart(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(svc.Cart()) != 0 {
		t.Fatalf("cart not cleared")
	}
	if !svc.PaymentAmount().IsZero() {
		t.Fatalf("payment = %s, want 0 after clear", svc.PaymentAmount())
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.SetQuantity(ctx, "p-biryani", 2); err != nil {
		t.Fatalf("qty: %v", err)
	}

	order, err := svc.Checkout(ctx, dec("1000"))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if order.ID != "1" {
		t.Fatalf("order ID = %q, want 1", order.ID)
	}
	if !order.Totals.Total.Equal(dec("940.5")) {
		t.Fatalf("total = %s, want 940.5", order.Totals.Total)
	}
	if !order.Balance.Equal(dec("59.5")) {
		t.Fatalf("change = %s, want 59.5", order.Balance)
	}
	if order.CashierName != "Cashier" {
		t.Fatalf("cashier = %q, want default Cashier", order.CashierName)
	}

	// Stock deducted, cart cleared, ledger appended.
	p, err := svc.ProductByID("p-biryani")
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	if *p.Stock != 8 {
		t.Fatalf("stock = %d, want 8", *p.Stock)
	}
	if len(svc.Cart()) != 0 {
		t.Fatalf("cart not cleared after checkout")
	}
	if got := len(svc.Orders()); got != 1 {
		t.Fatalf("ledger size = %d, want 1", got)
	}
}

func TestCheckoutInsufficientPayment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.SetQuantity(ctx, "p-biryani", 2); err != nil {
		t.Fatalf("qty: %v", err)
	}

	_, err := svc.Checkout(ctx, dec("500"))
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("err = %v, want ErrInsufficientPayment", err)
	}

	// Rejection leaves everything untouched.
	p, _ := svc.ProductByID("p-biryani")
	if *p.Stock != 10 {
		t.Fatalf("stock = %d after rejected checkout, want 10", *p.Stock)
	}
	if len(svc.Cart()) != 1 {
		t.Fatalf("cart mutated by rejected checkout")
	}
	if len(svc.Orders()) != 0 {
		t.Fatalf("ledger mutated by rejected checkout")
	}
}

func TestCheckoutInsufficientStockRejectsWholeCart(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.AddToCart(ctx, "p-kottu"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.SetQuantity(ctx, "p-kottu", 5); err != nil {
		t.Fatalf("qty: %v", err)
	}

	_, err := svc.Checkout(ctx, dec("100000"))
	var conflict *StockConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want StockConflictError", err)
	}
	if got, want := conflict.Error(), "Insufficient stock for Kottu. Available: 3"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}

	// No partial deduction: the valid line's stock is untouched too.
	p, _ := svc.ProductByID("p-biryani")
	if *p.Stock != 10 {
		t.Fatalf("stock = %d, want 10", *p.Stock)
	}
	if len(svc.Orders()) != 0 {
		t.Fatalf("order created despite stock conflict")
	}
}

func TestCheckoutUntrackedProductIgnoresStock(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-tea"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.SetQuantity(ctx, "p-tea", 100); err != nil {
		t.Fatalf("qty: %v", err)
	}

	order, err := svc.Checkout(ctx, dec("100000"))
	if err != nil {
		t.Fatalf("checkout of untracked product: %v", err)
	}
	if order.ItemCount() != 100 {
		t.Fatalf("item count = %d, want 100", order.ItemCount())
	}

	p, _ := svc.ProductByID("p-tea")
	if p.Tracked() {
		t.Fatalf("untracked product grew a stock value")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Checkout(context.Background(), dec("100"))
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("err = %v, want ErrCartEmpty", err)
	}
}

func TestCheckoutCommitFailureLeavesStateUntouched(t *testing.T) {
	svc, flaky, _ := newFlakyService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.SetQuantity(ctx, "p-biryani", 2); err != nil {
		t.Fatalf("qty: %v", err)
	}

	flaky.failSaveAll = true
	if _, err := svc.Checkout(ctx, dec("1000")); err == nil {
		t.Fatalf("checkout succeeded despite failed commit")
	}

	// The failed write left memory consistent with durable state:
	// stock, cart, and ledger all untouched.
	p, _ := svc.ProductByID("p-biryani")
	if *p.Stock != 10 {
		t.Fatalf("stock = %d after failed commit, want 10", *p.Stock)
	}
	if len(svc.Cart()) != 1 {
		t.Fatalf("cart cleared by failed commit")
	}
	if len(svc.Orders()) != 0 {
		t.Fatalf("order appended by failed commit")
	}

	// Retry succeeds and still mints the first ID: the counter did
	// not advance on failure.
	flaky.failSaveAll = false
	order, err := svc.Checkout(ctx, dec("1000"))
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if order.ID != "1" {
		t.Fatalf("retry ID = %q, want 1", order.ID)
	}
	p, _ = svc.ProductByID("p-biryani")
	if *p.Stock != 8 {
		t.Fatalf("stock = %d after retry, want 8", *p.Stock)
	}
}

func TestOrderIDsIncreaseAcrossRestart(t *testing.T) {
	svc, repo, clock := newTestService(t)
	ctx := context.Background()

	checkout := func(s *Service) domain.Order {
		t.Helper()
		if err := s.AddToCart(ctx, "p-tea"); err != nil {
			t.Fatalf("add: %v", err)
		}
		order, err := s.Checkout(ctx, dec("1000"))
		if err != nil {
			t.Fatalf("checkout: %v", err)
		}
		return order
	}

	if got := checkout(svc).ID; got != "1" {
		t.Fatalf("first ID = %q, want 1", got)
	}
	if got := checkout(svc).ID; got != "2" {
		t.Fatalf("second ID = %q, want 2", got)
	}

	// Same day restart continues the counter from durable state.
	svc2 := restart(t, repo, clock)
	if got := checkout(svc2).ID; got != "3" {
		t.Fatalf("post-restart ID = %q, want 3", got)
	}
}

func TestCheckoutDeletedProductSellsFromSnapshot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Login(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.DeleteProduct(ctx, "p-biryani"); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	order, err := svc.Checkout(ctx, dec("1000"))
	if err != nil {
		t.Fatalf("checkout with deleted product: %v", err)
	}
	if !order.Totals.Subtotal.Equal(dec("450")) {
		t.Fatalf("subtotal = %s, want snapshot 450", order.Totals.Subtotal)
	}
}

func TestCorruptRecordFallsBackToDefault(t *testing.T) {
	svc, repo, clock := newTestService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-tea"); err != nil {
		t.Fatalf("add: %v", err)
	}

	repo.Corrupt(store.KeyCart)
	repo.Corrupt(store.KeySettings)

	svc2 := restart(t, repo, clock)
	if len(svc2.Cart()) != 0 {
		t.Fatalf("corrupt cart record did not fall back to empty")
	}
	if got := svc2.Settings().RestaurantName; got != "My Restaurant" {
		t.Fatalf("settings fallback name = %q", got)
	}
	// Catalog record was untouched and still loads.
	if len(svc2.Products()) != 3 {
		t.Fatalf("products = %d, want 3", len(svc2.Products()))
	}
}

func TestSettingsRateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.SetServiceChargeRate(ctx, 101); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("rate 101: err = %v, want ErrInvalidInput", err)
	}
	if err := svc.SetDiscountRate(ctx, -1); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("rate -1: err = %v, want ErrInvalidInput", err)
	}
	if err := svc.SetServiceChargeRate(ctx, 0); err != nil {
		t.Fatalf("rate 0 rejected: %v", err)
	}

	// Stored orders keep their closed totals; only new checkouts see
	// the new rate.
	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add: %v", err)
	}
	totals := svc.CartTotals()
	if !totals.ServiceCharge.IsZero() {
		t.Fatalf("service charge = %s after rate 0", totals.ServiceCharge)
	}
}

func TestBuildReceipt(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "p-biryani"); err != nil {
		t.Fatalf("add: %v", err)
	}
	order, err := svc.Checkout(ctx, dec("500"))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	receipt, err := svc.BuildReceipt(order.ID)
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if receipt.FileName != "receipt-1.bin" {
		t.Fatalf("file name = %q", receipt.FileName)
	}
	for _, want := range []string{"My Restaurant", "Chicken Biryani x1", "Order #1"} {
		if !strings.Contains(receipt.PreviewText, want) {
			t.Fatalf("preview missing %q:\n%s", want, receipt.PreviewText)
		}
	}

	if _, err := svc.BuildReceipt("999"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("receipt for unknown order: err = %v, want ErrNotFound", err)
	}
}
