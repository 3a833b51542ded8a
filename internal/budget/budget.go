// Package budget derives the monthly budget status from a user's ledger.
package budget

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	LabelNotSet  = "Not set"
	LabelOver    = "Over budget!"
	LabelAlmost  = "Almost there"
	LabelOnTrack = "On track"
)

const (
	AlertOver    AlertKind = "over"
	AlertWarning AlertKind = "warning"
)

var (
	almostThreshold  = decimal.RequireFromString("0.8")
	warningThreshold = decimal.RequireFromString("0.9")
	hundred          = decimal.NewFromInt(100)
)

type (
	// Budget is one monthly amount tracked against the month it was set in.
	Budget struct {
		MonthlyBudget decimal.Decimal
		CreationMonth string // "Jan 2006", empty when never set
	}

	// Spend is what the budget month has consumed so far.
	Spend struct {
		Total      decimal.Decimal
		Remaining  decimal.Decimal // may be negative
		Percentage decimal.Decimal // clamped to [0, 1]
	}

	Status struct {
		Amount     decimal.Decimal
		Spent      decimal.Decimal
		Remaining  decimal.Decimal
		Percentage decimal.Decimal
		Label      string
		Color      string
		Alert      *Alert
	}

	AlertKind string

	Alert struct {
		Kind       AlertKind       `json:"kind"`
		Title      string          `json:"title"`
		Message    string          `json:"message"`
		Username   string          `json:"username"`
		Spent      decimal.Decimal `json:"spent"`
		Budget     decimal.Decimal `json:"budget"`
		Percentage decimal.Decimal `json:"percentage"`
		At         time.Time       `json:"at"`
	}
)

func (b Budget) IsSet() bool { return !b.MonthlyBudget.IsZero() }

// Period returns the budget month. ok is false when no month is recorded or
// the label does not parse.
func (b Budget) Period() (year int, month time.Month, ok bool) {
	if b.CreationMonth == "" {
		return 0, 0, false
	}
	return core.ParseMonthLabel(b.CreationMonth)
}

// Progress is the whole-percent fill of a progress bar.
func (s Status) Progress() int {
	return int(s.Percentage.Mul(hundred).IntPart())
}

// ComputeSpend sums the expenses dated in the budget month. Without a budget
// month nothing counts; records whose time is unknown never count.
func ComputeSpend(txs []core.Transaction, b Budget) Spend {
	total := decimal.Zero
	if year, month, ok := b.Period(); ok {
		for _, t := range txs {
			if t.Kind != core.Expense {
				continue
			}
			at, ok := t.Time()
			if !ok || !core.SameMonth(at, year, month) {
				continue
			}
			total = total.Add(t.Amount.Abs())
		}
	}

	pct := decimal.Zero
	if b.MonthlyBudget.IsPositive() {
		pct = clamp(total.Div(b.MonthlyBudget))
	}
	return Spend{
		Total:      total,
		Remaining:  b.MonthlyBudget.Sub(total),
		Percentage: pct,
	}
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return d
}

// Classify labels a spend. The first matching rule wins: no budget, over
// budget, above 80%, otherwise on track. An alert is attached when the user
// is over budget or above 90%.
func Classify(b Budget, s Spend) Status {
	return ClassifyWithSymbol(core.DefaultCurrencySymbol, b, s)
}

// ClassifyWithSymbol is Classify with the currency symbol used in alert text.
func ClassifyWithSymbol(symbol string, b Budget, s Spend) Status {
	st := Status{
		Amount:     b.MonthlyBudget,
		Spent:      s.Total,
		Remaining:  s.Remaining,
		Percentage: s.Percentage,
	}

	switch {
	case b.MonthlyBudget.IsZero():
		st.Label, st.Color = LabelNotSet, "#9E9E9E"
	case s.Remaining.IsNegative():
		st.Label, st.Color = LabelOver, "#F44336"
		if b.MonthlyBudget.IsPositive() && s.Total.GreaterThan(b.MonthlyBudget) {
			st.Alert = &Alert{
				Kind:  AlertOver,
				Title: "Budget Limit Exceeded!",
				Message: fmt.Sprintf("You've spent %s out of your %s budget",
					core.FormatMoney(symbol, s.Total), core.FormatMoney(symbol, b.MonthlyBudget)),
			}
		}
	case s.Percentage.GreaterThan(almostThreshold):
		st.Label, st.Color = LabelAlmost, "#FF9800"
		if s.Percentage.GreaterThan(warningThreshold) {
			st.Alert = &Alert{
				Kind:    AlertWarning,
				Title:   "Budget Warning",
				Message: fmt.Sprintf("You've used %s%% of your monthly budget", s.Percentage.Mul(hundred).StringFixed(0)),
			}
		}
	default:
		st.Label, st.Color = LabelOnTrack, "#4CAF50"
	}

	if st.Alert != nil {
		st.Alert.Spent = s.Total
		st.Alert.Budget = b.MonthlyBudget
		st.Alert.Percentage = s.Percentage
	}
	return st
}

// Evaluate computes and classifies the spend for username, stamping any
// alert with the user and time.
func Evaluate(symbol, username string, txs []core.Transaction, b Budget, now time.Time) Status {
	st := ClassifyWithSymbol(symbol, b, ComputeSpend(txs, b))
	if st.Alert != nil {
		st.Alert.Username = username
		st.Alert.At = now
	}
	return st
}
