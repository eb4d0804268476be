package models

import "github.com/shopspring/decimal"

// Money columns are numeric(14,2).
const (
	moneyScale  = 2
	moneyDigits = 12
)

var moneyLimit = decimal.New(1, moneyDigits)

// ValidMoney reports whether d fits a money column without rounding: at most
// two decimal places and twelve integer digits.
func ValidMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(moneyScale)) && d.Abs().LessThan(moneyLimit)
}
