// Package reports builds the chart summaries shown on the reports screen.
//
// Every summary is a fixed window of period labels ending at the current
// period. Transactions are folded into a bucket by formatted label; anything
// outside the window or with an unknown time is dropped.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	MonthWindow = 6
	DayWindow   = 7
)

type (
	MonthBucket struct {
		Label   string          `json:"label"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}

	DayBucket struct {
		Label string          `json:"label"`
		Net   decimal.Decimal `json:"net"`
	}

	CategoryTotal struct {
		Category core.Category   `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Color    string          `json:"color"`
	}

	Summary struct {
		Months     []MonthBucket   `json:"incomeExpense"`
		CashFlow   []DayBucket     `json:"cashFlow"`
		Categories []CategoryTotal `json:"expenseByCategory"`
	}
)

// MonthlyIncomeExpense sums income and expense for the six months ending with
// the month of now, oldest first.
func MonthlyIncomeExpense(txs []core.Transaction, now time.Time) []MonthBucket {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	buckets := make([]MonthBucket, MonthWindow)
	index := make(map[string]int, MonthWindow)
	for i := 0; i < MonthWindow; i++ {
		label := core.MonthLabel(first.AddDate(0, i-(MonthWindow-1), 0))
		buckets[i] = MonthBucket{Label: label, Income: decimal.Zero, Expense: decimal.Zero}
		index[label] = i
	}

	for _, t := range txs {
		at, ok := t.Time()
		if !ok {
			continue
		}
		i, ok := index[core.MonthLabel(at)]
		if !ok {
			continue
		}
		if t.Kind == core.Income {
			buckets[i].Income = buckets[i].Income.Add(t.Amount.Abs())
		} else {
			buckets[i].Expense = buckets[i].Expense.Add(t.Amount.Abs())
		}
	}
	return buckets
}

// DailyCashFlow nets income against expense for the seven days ending today,
// oldest first.
//
// Buckets are keyed by weekday name only, so a transaction from the same
// weekday in any earlier week lands in this week's bucket.
func DailyCashFlow(txs []core.Transaction, now time.Time) []DayBucket {
	buckets := make([]DayBucket, DayWindow)
	index := make(map[string]int, DayWindow)
	for i := 0; i < DayWindow; i++ {
		label := core.WeekdayLabel(now.AddDate(0, 0, i-(DayWindow-1)))
		buckets[i] = DayBucket{Label: label, Net: decimal.Zero}
		index[label] = i
	}

	for _, t := range txs {
		at, ok := t.Time()
		if !ok {
			continue
		}
		i, ok := index[core.WeekdayLabel(at)]
		if !ok {
			continue
		}
		buckets[i].Net = buckets[i].Net.Add(t.SignedAmount())
	}
	return buckets
}

// CategoryBreakdown sums expenses per category, sorted by category name.
func CategoryBreakdown(txs []core.Transaction) []CategoryTotal {
	sums := map[core.Category]decimal.Decimal{}
	for _, t := range txs {
		if t.Kind != core.Expense {
			continue
		}
		sum, ok := sums[t.Category]
		if !ok {
			sum = decimal.Zero
		}
		sums[t.Category] = sum.Add(t.Amount.Abs())
	}

	out := make([]CategoryTotal, 0, len(sums))
	for c, amount := range sums {
		out = append(out, CategoryTotal{Category: c, Amount: amount, Color: core.CategoryColor(c)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func Build(txs []core.Transaction, now time.Time) Summary {
	return Summary{
		Months:     MonthlyIncomeExpense(txs, now),
		CashFlow:   DailyCashFlow(txs, now),
		Categories: CategoryBreakdown(txs),
	}
}
