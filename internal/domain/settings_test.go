package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSettingsUnmarshalLegacyKeys(t *testing.T) {
	data := []byte(`{"restaurantName":"Spice House","taxRate":10,"discount":5,"currency":"$"}`)

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal legacy: %v", err)
	}
	if s.ServiceChargeRatePercent != 10 {
		t.Fatalf("service charge rate = %v, want 10", s.ServiceChargeRatePercent)
	}
	if s.DiscountRatePercent != 5 {
		t.Fatalf("discount rate = %v, want 5", s.DiscountRatePercent)
	}
	if s.CurrencySymbol != "$" {
		t.Fatalf("currency symbol = %q", s.CurrencySymbol)
	}
}

func TestSettingsUnmarshalCurrentKeysWin(t *testing.T) {
	data := []byte(`{"serviceChargeRatePercent":12,"taxRate":10,"currencySymbol":"Rs.","currency":"$"}`)

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.ServiceChargeRatePercent != 12 {
		t.Fatalf("service charge rate = %v, want 12", s.ServiceChargeRatePercent)
	}
	if s.CurrencySymbol != "Rs." {
		t.Fatalf("currency symbol = %q", s.CurrencySymbol)
	}
}

func TestSettingsExplicitZeroBeatsLegacyKey(t *testing.T) {
	data := []byte(`{"serviceChargeRatePercent":0,"taxRate":10,"discountRatePercent":0,"discount":5}`)

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.ServiceChargeRatePercent != 0 {
		t.Fatalf("service charge rate = %v, want explicit 0", s.ServiceChargeRatePercent)
	}
	if s.DiscountRatePercent != 0 {
		t.Fatalf("discount rate = %v, want explicit 0", s.DiscountRatePercent)
	}
}

func TestFormatMoneyRoundsHalfUpToTwoPlaces(t *testing.T) {
	s := Settings{CurrencySymbol: "Rs."}

	cases := map[string]string{
		"940.5":  "Rs. 940.50",
		"0.005":  "Rs. 0.01",
		"1234":   "Rs. 1234.00",
		"99.994": "Rs. 99.99",
		"-3.5":   "Rs. -3.50",
	}
	for in, want := range cases {
		got := s.FormatMoney(decimal.RequireFromString(in))
		if got != want {
			t.Fatalf("FormatMoney(%s) = %q, want %q", in, got, want)
		}
	}
}
