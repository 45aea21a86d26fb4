package service

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Receipt is a rendered order receipt: a plain-text preview plus the
// raw ESC/POS bytes (base64) for a thermal printer.
type Receipt struct {
	OrderID      string `json:"orderId"`
	PreviewText  string `json:"previewText"`
	EscposBase64 string `json:"escposBase64"`
	FileName     string `json:"fileName"`
}

// BuildReceipt renders the receipt for a stored order.
func (s *Service) BuildReceipt(orderID string) (Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, err := s.orderByIDLocked(orderID)
	if err != nil {
		return Receipt{}, err
	}

	lines := []string{
		s.settings.RestaurantName,
		"========================",
		"Order #" + order.ID,
		"Date: " + order.Timestamp.Format("2006-01-02 15:04:05"),
		"Cashier: " + order.CashierName,
		"------------------------",
	}
	for _, line := range order.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", line.Name, line.Quantity))
		lines = append(lines, "  "+s.settings.FormatMoney(line.Subtotal()))
	}
	lines = append(lines,
		"------------------------",
		"Subtotal : "+s.settings.FormatMoney(order.Totals.Subtotal),
		"Service  : "+s.settings.FormatMoney(order.Totals.ServiceCharge),
		"Discount : "+s.settings.FormatMoney(order.Totals.Discount),
		"Total    : "+s.settings.FormatMoney(order.Totals.Total),
		"Payment  : "+s.settings.FormatMoney(order.Payment),
		"Change   : "+s.settings.FormatMoney(order.Balance),
		"========================",
		"Thank you",
	)
	if s.settings.AdminContact != "" {
		lines = append(lines, s.settings.AdminContact)
	}
	lines = append(lines, "")

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return Receipt{
		OrderID:      order.ID,
		PreviewText:  strings.Join(lines, "\n"),
		EscposBase64: base64.StdEncoding.EncodeToString(escpos),
		FileName:     fmt.Sprintf("receipt-%s.bin", order.ID),
	}, nil
}
