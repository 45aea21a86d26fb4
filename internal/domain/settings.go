package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Settings is the single process-wide configuration record. Rates are
// percentages in [0,100]. LastRolloverDate is a 2006-01-02 calendar
// date, updated only by the daily rollover.
type Settings struct {
	RestaurantName           string  `json:"restaurantName"`
	ServiceChargeRatePercent float64 `json:"serviceChargeRatePercent"`
	DiscountRatePercent      float64 `json:"discountRatePercent"`
	CurrencySymbol           string  `json:"currencySymbol"`
	AdminContact             string  `json:"adminContact"`
	LastRolloverDate         string  `json:"lastRolloverDate"`
}

func DefaultSettings() Settings {
	return Settings{
		RestaurantName: "My Restaurant",
		CurrencySymbol: "Rs.",
	}
}

// FormatMoney renders an amount per the presentation contract:
// currency symbol plus the amount at two decimal places, half-up.
func (s Settings) FormatMoney(amount decimal.Decimal) string {
	return s.CurrencySymbol + " " + amount.StringFixed(2)
}

// UnmarshalJSON accepts the legacy record shape, whose rate fields
// were named taxRate/discount and whose symbol field was currency. A
// current key always wins over its legacy twin, even when it holds
// the zero value.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var rec struct {
		RestaurantName           *string  `json:"restaurantName"`
		ServiceChargeRatePercent *float64 `json:"serviceChargeRatePercent"`
		DiscountRatePercent      *float64 `json:"discountRatePercent"`
		CurrencySymbol           *string  `json:"currencySymbol"`
		AdminContact             *string  `json:"adminContact"`
		LastRolloverDate         *string  `json:"lastRolloverDate"`

		TaxRate  *float64 `json:"taxRate"`
		Discount *float64 `json:"discount"`
		Currency *string  `json:"currency"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	*s = Settings{}
	if rec.RestaurantName != nil {
		s.RestaurantName = *rec.RestaurantName
	}
	if rec.AdminContact != nil {
		s.AdminContact = *rec.AdminContact
	}
	if rec.LastRolloverDate != nil {
		s.LastRolloverDate = *rec.LastRolloverDate
	}

	switch {
	case rec.ServiceChargeRatePercent != nil:
		s.ServiceChargeRatePercent = *rec.ServiceChargeRatePercent
	case rec.TaxRate != nil:
		s.ServiceChargeRatePercent = *rec.TaxRate
	}
	switch {
	case rec.DiscountRatePercent != nil:
		s.DiscountRatePercent = *rec.DiscountRatePercent
	case rec.Discount != nil:
		s.DiscountRatePercent = *rec.Discount
	}
	switch {
	case rec.CurrencySymbol != nil:
		s.CurrencySymbol = *rec.CurrencySymbol
	case rec.Currency != nil:
		s.CurrencySymbol = *rec.Currency
	}
	return nil
}
