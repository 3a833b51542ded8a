// Package ledger owns each user's transaction list and running totals.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrPersist means a write failed; the returned Ledger still carries the
	// mutation in memory.
	ErrPersist             = errors.New("persist ledger")
	ErrNoUsername          = errors.New("username is required")
)

// Ledger is one user's transactions, newest first, with the running totals.
// The totals are maintained incrementally and are not guaranteed to match
// the list; Reconcile recomputes them.
type Ledger struct {
	Username     string
	Transactions []core.Transaction
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

func (l Ledger) Balance() decimal.Decimal {
	return l.TotalIncome.Sub(l.TotalExpense)
}

// Head is the most recent transaction.
func (l Ledger) Head() (core.Transaction, bool) {
	if len(l.Transactions) == 0 {
		return core.Transaction{}, false
	}
	return l.Transactions[0], true
}

// IndexOf returns the first position equal to t, or -1.
func (l Ledger) IndexOf(t core.Transaction) int {
	for i, cur := range l.Transactions {
		if cur.Equal(t) {
			return i
		}
	}
	return -1
}

// Sums partitions the list by kind. It ignores the running totals.
func Sums(txs []core.Transaction) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, t := range txs {
		if t.Kind == core.Income {
			income = income.Add(t.Amount.Abs())
		} else {
			expense = expense.Add(t.Amount.Abs())
		}
	}
	return income, expense
}

func (l Ledger) clone() Ledger {
	txs := make([]core.Transaction, len(l.Transactions))
	copy(txs, l.Transactions)
	l.Transactions = txs
	return l
}

// adjust moves the total of kind by delta.
func (l *Ledger) adjust(kind core.Kind, delta decimal.Decimal) {
	if kind == core.Income {
		l.TotalIncome = l.TotalIncome.Add(delta)
		return
	}
	l.TotalExpense = l.TotalExpense.Add(delta)
}
