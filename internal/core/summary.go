package core

import (
	"sort"
	"time"
)

// TrailingYear returns the calendar date exactly 12 months before now: the
// lower bound of the by-month rollup window.
func TrailingYear(now time.Time) Date {
	t := now.AddDate(-1, 0, 0)
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Summary holds the all-time totals for one user. Balance is income minus
// expense and may be negative.
type Summary struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// MonthlyPoint is one row of the trailing-12-months rollup. Months without
// transactions are absent from the series; consumers must tolerate gaps.
type MonthlyPoint struct {
	YM      string `json:"ym"` // YYYY-MM
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// CategoryAmount is the summed expense amount for one category label.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"value"`
}

// ExpenseByCategory groups expense transactions by category label, summing
// amounts per category. Labels are free text and compared case-sensitively:
// "Food" and "food" are distinct categories on purpose. Output is sorted by
// descending amount, ties by name, for stable chart and report ordering.
func ExpenseByCategory(txs []Transaction) []CategoryAmount {
	sums := make(map[string]int64)
	for _, tx := range txs {
		if tx.Type != TypeExpense {
			continue
		}
		sums[tx.Category] += tx.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(sums))
	for name, cents := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
