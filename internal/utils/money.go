package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies have no minor unit.
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "ISK": {}, "JPY": {}, "KMF": {}, "KRW": {},
	"PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// threeDecimalCurrencies use a thousandth minor unit.
var threeDecimalCurrencies = map[string]struct{}{
	"BHD": {}, "IQD": {}, "JOD": {}, "KWD": {}, "LYD": {}, "OMR": {}, "TND": {},
}

// CurrencyPrecision returns the number of minor-unit decimal places for a currency code.
// Unknown codes default to 2 (MYR/USD class).
func CurrencyPrecision(currencyCode string) int32 {
	code := strings.ToUpper(currencyCode)
	if _, ok := zeroDecimalCurrencies[code]; ok {
		return 0
	}
	if _, ok := threeDecimalCurrencies[code]; ok {
		return 3
	}
	return 2
}

// RoundHalfUp rounds to the given number of places, sending ties away from zero so that
// -2.345 and 2.345 round to the same magnitude. This is the single rounding convention
// used for every monetary amount.
func RoundHalfUp(amount decimal.Decimal, places int32) decimal.Decimal {
	return amount.Round(places)
}

// RoundToCurrency rounds an amount to the minor unit of the given currency.
// Example: 12.345 USD -> 12.35, 12.5 JPY -> 13
func RoundToCurrency(amount decimal.Decimal, currencyCode string) decimal.Decimal {
	return RoundHalfUp(amount, CurrencyPrecision(currencyCode))
}

// FormatWithCurrencyPrecision formats an amount with the correct precision for a given currency.
// Example: amount 12.3456 with USD returns "12.35"
// Example: amount 12.3456 with JPY returns "12"
func FormatWithCurrencyPrecision(amount decimal.Decimal, currencyCode string) string {
	precision := CurrencyPrecision(currencyCode)
	return RoundHalfUp(amount, precision).StringFixed(precision)
}
