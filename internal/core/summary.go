package core

import "github.com/shopspring/decimal"

const (
	BalanceStatusPositive BalanceStatus = "Positive"
	BalanceStatusNegative BalanceStatus = "Negative"
)

// BalanceStatus is computed by the server from the sign of the balance.
type BalanceStatus string

// Summary aggregates the user's records. The aggregation scope is decided
// by the server.
type Summary struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Balance       decimal.Decimal `json:"balance"`
	BalanceStatus BalanceStatus   `json:"balanceStatus"`
}

// Positive reports whether the status banner uses the positive variant.
func (s Summary) Positive() bool {
	return s.BalanceStatus == BalanceStatusPositive
}

// Consistent reports whether BalanceStatus agrees with the sign of Balance.
// A zero balance is consistent with either status.
func (s Summary) Consistent() bool {
	switch {
	case s.Balance.IsPositive():
		return s.BalanceStatus == BalanceStatusPositive
	case s.Balance.IsNegative():
		return s.BalanceStatus == BalanceStatusNegative
	default:
		return true
	}
}
