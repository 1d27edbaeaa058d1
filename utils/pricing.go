package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// VAT rates in percent per destination country. Prices are EUR brutto;
// checkout applies the destination country's rate on top of the net subtotal.
var vatRates = map[string]string{
	"AT": "20.0",
	"DE": "19.0",
	"FR": "20.0",
	"IT": "22.0",
	"ES": "21.0",
	"NL": "21.0",
	"BE": "21.0",
	"PL": "23.0",
	"CZ": "21.0",
	"CH": "7.7",
	"GB": "20.0",
	"SE": "25.0",
	"DK": "25.0",
	"NO": "25.0",
}

// The domestic rate, used when even the configured fallback country is
// unknown. The result of VATRate is never zero.
const homeVATRate = "20.0"

// VATRate returns the rate for a country code as a percentage, e.g. 20.0 for AT.
// Unknown countries fall back to fallbackCountry's rate, and a misconfigured
// fallback falls back to the domestic rate.
func VATRate(countryCode, fallbackCountry string) decimal.Decimal {
	if rate, ok := vatRates[strings.ToUpper(countryCode)]; ok {
		return decimal.RequireFromString(rate)
	}
	if rate, ok := vatRates[strings.ToUpper(fallbackCountry)]; ok {
		return decimal.RequireFromString(rate)
	}
	return decimal.RequireFromString(homeVATRate)
}

// RoundMoney rounds to 2 decimal places using banker's rounding. All monetary
// amounts leaving the service layer go through this exactly once.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}
