package reports_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/reports"
)

// A Wednesday.
var now = time.Date(2026, time.October, 14, 18, 0, 0, 0, time.Local)

func tx(amount string, kind core.Kind, cat core.Category, at time.Time) core.Transaction {
	return core.Transaction{
		Title:    "t",
		Amount:   decimal.RequireFromString(amount),
		Kind:     kind,
		Category: cat,
		DateTime: core.FormatDateTime(at),
	}
}

func TestMonthlyIncomeExpenseKeepsSixTrailingMonths(t *testing.T) {
	var txs []core.Transaction
	for i := 0; i < 8; i++ {
		at := time.Date(2026, time.October-time.Month(i), 10, 9, 0, 0, 0, time.Local)
		txs = append(txs,
			tx("100", core.Income, core.Other, at),
			tx("10", core.Expense, core.Food, at),
		)
	}

	buckets := reports.MonthlyIncomeExpense(txs, now)
	require.Len(t, buckets, reports.MonthWindow)

	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
		assert.Equal(t, "100.00", b.Income.StringFixed(2), b.Label)
		assert.Equal(t, "10.00", b.Expense.StringFixed(2), b.Label)
	}
	assert.Equal(t, []string{"May 2026", "Jun 2026", "Jul 2026", "Aug 2026", "Sep 2026", "Oct 2026"}, labels)
}

func TestMonthlyIncomeExpenseOnMonthEnd(t *testing.T) {
	endOfMonth := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.Local)
	buckets := reports.MonthlyIncomeExpense(nil, endOfMonth)

	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
		assert.True(t, b.Income.IsZero())
	}
	assert.Equal(t, []string{"Oct 2025", "Nov 2025", "Dec 2025", "Jan 2026", "Feb 2026", "Mar 2026"}, labels)
}

func TestDailyCashFlow(t *testing.T) {
	txs := []core.Transaction{
		tx("50", core.Income, core.Other, now),
		tx("20", core.Expense, core.Food, now),
		tx("5", core.Expense, core.Transport, now.AddDate(0, 0, -1)),
		// Same weekday two weeks back aliases into this week's Wednesday.
		tx("7", core.Expense, core.Food, now.AddDate(0, 0, -14)),
		{Title: "undated", Amount: decimal.NewFromInt(1), Kind: core.Expense, Category: core.Food},
	}

	buckets := reports.DailyCashFlow(txs, now)
	require.Len(t, buckets, reports.DayWindow)
	assert.Equal(t, "Thu", buckets[0].Label)
	assert.Equal(t, "Wed", buckets[6].Label)
	assert.Equal(t, "23.00", buckets[6].Net.StringFixed(2))
	assert.Equal(t, "Tue", buckets[5].Label)
	assert.Equal(t, "-5.00", buckets[5].Net.StringFixed(2))
	assert.True(t, buckets[0].Net.IsZero())
}

func TestCategoryBreakdown(t *testing.T) {
	txs := []core.Transaction{
		tx("12.50", core.Expense, core.Transport, now),
		tx("4.50", core.Expense, core.Food, now),
		tx("3", core.Expense, core.Food, now.AddDate(-1, 0, 0)),
		tx("999", core.Income, core.Other, now),
	}

	got := reports.CategoryBreakdown(txs)
	require.Len(t, got, 2)
	assert.Equal(t, core.Food, got[0].Category)
	assert.Equal(t, "7.50", got[0].Amount.StringFixed(2))
	assert.Equal(t, "#FF5722", got[0].Color)
	assert.Equal(t, core.Transport, got[1].Category)
	assert.Equal(t, "12.50", got[1].Amount.StringFixed(2))
}

func TestBuildEmpty(t *testing.T) {
	s := reports.Build(nil, now)
	assert.Len(t, s.Months, reports.MonthWindow)
	assert.Len(t, s.CashFlow, reports.DayWindow)
	assert.Empty(t, s.Categories)
}
