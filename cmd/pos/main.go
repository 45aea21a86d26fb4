package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"restopos/internal/config"
	"restopos/internal/domain"
	"restopos/internal/service"
	"restopos/internal/store/sqlite"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	repo, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatalf("[pos] open database %s: %v", cfg.DBPath, err)
	}
	defer repo.Close()

	svc := service.New(repo, service.Options{
		SessionSecret:       cfg.SessionSecret,
		SessionTTL:          cfg.SessionTTL(),
		SeedAdminPassword:   cfg.SeedAdminPassword,
		SeedCashierPassword: cfg.SeedCashierPassword,
	})
	if err := svc.Start(ctx); err != nil {
		log.Fatalf("[pos] start: %v", err)
	}

	settings := svc.Settings()
	fmt.Printf("%s terminal ready. Type 'help' for commands.\n", settings.RestaurantName)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt(svc))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := dispatch(ctx, svc, line); err != nil {
			fmt.Println("error:", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("[pos] read input: %v", err)
	}
}

func prompt(svc *service.Service) string {
	if user, ok := svc.CurrentUser(); ok {
		return user.Username + "> "
	}
	return "pos> "
}

func dispatch(ctx context.Context, svc *service.Service, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		printHelp()
	case "login":
		if len(args) != 2 {
			return errors.New("usage: login <username> <password>")
		}
		user, err := svc.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", user.Username, user.Role)
	case "logout":
		return svc.Logout(ctx)
	case "products":
		printProducts(svc, svc.Products())
	case "search":
		if len(args) == 0 {
			return errors.New("usage: search <query>")
		}
		printProducts(svc, svc.SearchProducts(strings.Join(args, " ")))
	case "category":
		if len(args) == 0 {
			fmt.Println(strings.Join(svc.Categories(), ", "))
			return nil
		}
		printProducts(svc, svc.FilterByCategory(strings.Join(args, " ")))
	case "add":
		if len(args) != 1 {
			return errors.New("usage: add <product-id>")
		}
		return svc.AddToCart(ctx, args[0])
	case "qty":
		if len(args) != 2 {
			return errors.New("usage: qty <product-id> <quantity>")
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad quantity %q", args[1])
		}
		return svc.SetQuantity(ctx, args[0], qty)
	case "rm":
		if len(args) != 1 {
			return errors.New("usage: rm <product-id>")
		}
		return svc.RemoveFromCart(ctx, args[0])
	case "clear":
		return svc.ClearCart(ctx)
	case "cart":
		printCart(svc)
	case "pay":
		if len(args) != 1 {
			return errors.New("usage: pay <amount>")
		}
		amount, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("bad amount %q", args[0])
		}
		balance := svc.SetPaymentAmount(amount)
		if !balance.Sufficient {
			fmt.Printf("insufficient: total %s, short by %s\n",
				svc.FormatMoney(balance.Total), svc.FormatMoney(balance.Total.Sub(balance.Payment)))
			return nil
		}
		fmt.Printf("change: %s\n", svc.FormatMoney(balance.Balance))
	case "checkout":
		order, err := svc.Checkout(ctx, svc.PaymentAmount())
		if err != nil {
			return err
		}
		fmt.Printf("order #%s closed, total %s, change %s\n",
			order.ID, svc.FormatMoney(order.Totals.Total), svc.FormatMoney(order.Balance))
	case "orders":
		for _, order := range svc.Orders() {
			fmt.Printf("#%-4s %s  %2d items  %s  %s\n", order.ID,
				order.Timestamp.Format("15:04:05"), order.ItemCount(),
				svc.FormatMoney(order.Totals.Total), order.CashierName)
		}
	case "receipt":
		if len(args) != 1 {
			return errors.New("usage: receipt <order-id>")
		}
		receipt, err := svc.BuildReceipt(args[0])
		if err != nil {
			return err
		}
		fmt.Println(receipt.PreviewText)
	case "suggest":
		suggestion, ok := svc.SuggestUpsell()
		if !ok {
			fmt.Println("no suggestion")
			return nil
		}
		fmt.Printf("try %s (%s) - %s\n",
			suggestion.Name, svc.FormatMoney(suggestion.Price), suggestion.ReasonCode)
	case "report":
		totals := svc.DailyTotalsReport()
		fmt.Printf("today: %d orders, %s\n", totals.OrderCount, svc.FormatMoney(totals.Total))
	case "stats":
		printStats(svc)
	case "summary":
		printSummary(svc)
	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
	return nil
}

func printHelp() {
	fmt.Print(`catalog:   products | search <q> | category [name]
cart:      add <id> | qty <id> <n> | rm <id> | clear | cart | suggest
checkout:  pay <amount> | checkout | orders | receipt <id>
reports:   report | stats | summary
session:   login <user> <pass> | logout | quit
`)
}

func printProducts(svc *service.Service, products []domain.Product) {
	for _, p := range products {
		stock := "-"
		if p.Tracked() {
			stock = strconv.Itoa(*p.Stock)
		}
		fmt.Printf("%-36s %-24s %-18s %10s  stock %s\n",
			p.ID, p.Name, p.Category.Label(), svc.FormatMoney(p.Price), stock)
	}
}

func printCart(svc *service.Service) {
	cart := svc.Cart()
	if len(cart) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, line := range cart {
		fmt.Printf("%-24s x%-3d %10s\n", line.Name, line.Quantity, svc.FormatMoney(line.Subtotal()))
	}
	totals := svc.CartTotals()
	fmt.Printf("subtotal %s  service %s  discount %s  total %s\n",
		svc.FormatMoney(totals.Subtotal), svc.FormatMoney(totals.ServiceCharge),
		svc.FormatMoney(totals.Discount), svc.FormatMoney(totals.Total))
}

func printStats(svc *service.Service) {
	stats := svc.DetailedStatsReport()
	fmt.Printf("today: %d orders, %d items, %s\n",
		stats.TotalOrders, stats.TotalItems, svc.FormatMoney(stats.TotalAmount))
	for label, entry := range stats.CategoryBreakdown {
		fmt.Printf("  %-20s %4d  %s\n", label, entry.Count, svc.FormatMoney(entry.Amount))
	}
}

func printSummary(svc *service.Service) {
	summary := svc.ThreeMonthSummaryReport()
	fmt.Printf("last 3 months: %d orders, %d items, %s\n",
		summary.TotalOrders, summary.TotalItems, svc.FormatMoney(summary.TotalRevenue))
	fmt.Printf("avg order %s, avg items/order %s\n",
		svc.FormatMoney(summary.AverageOrderValue), summary.AverageItemsPerOrder.String())
}
