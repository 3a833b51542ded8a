package http

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/services"
)

type (
	// transactionJSON is both how transactions are shown and how a client
	// names one to edit or remove: every field must match the stored record.
	transactionJSON struct {
		Title    string `json:"title"`
		Amount   string `json:"amount"`
		Kind     string `json:"kind"`
		Category string `json:"category"`
		DateTime string `json:"dateTime"`
		Display  string `json:"display,omitempty"`
		Color    string `json:"color,omitempty"`
	}

	transactionInputJSON struct {
		Title    string `json:"title"`
		Amount   string `json:"amount"`
		Kind     string `json:"kind"`
		Category string `json:"category"`
		Date     string `json:"date,omitempty"`
		Time     string `json:"time,omitempty"`
	}

	editRequest struct {
		Original transactionJSON      `json:"original"`
		Update   transactionInputJSON `json:"update"`
	}

	ledgerJSON struct {
		Username       string            `json:"username"`
		Transactions   []transactionJSON `json:"transactions"`
		TotalIncome    string            `json:"totalIncome"`
		TotalExpense   string            `json:"totalExpense"`
		Balance        string            `json:"balance"`
		BalanceDisplay string            `json:"balanceDisplay"`
	}

	statusJSON struct {
		Amount     string        `json:"amount"`
		Spent      string        `json:"spent"`
		Remaining  string        `json:"remaining"`
		Percentage string        `json:"percentage"`
		Progress   int           `json:"progress"`
		Label      string        `json:"label"`
		Color      string        `json:"color"`
		Alert      *budget.Alert `json:"alert,omitempty"`
	}

	snapshotResponse struct {
		Ledger  ledgerJSON `json:"ledger"`
		Budget  statusJSON `json:"budget"`
		Warning string     `json:"warning,omitempty"`
	}

	budgetResponse struct {
		MonthlyBudget string     `json:"monthlyBudget"`
		CreationMonth string     `json:"creationMonth"`
		Status        statusJSON `json:"status"`
	}

	setBudgetRequest struct {
		Amount string `json:"amount"`
	}

	loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	sessionResponse struct {
		Token     string    `json:"token"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		ExpiresAt time.Time `json:"expiresAt"`
	}

	userResponse struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
)

func toTransactionJSON(symbol string, t core.Transaction) transactionJSON {
	return transactionJSON{
		Title:    t.Title,
		Amount:   t.Amount.StringFixed(2),
		Kind:     t.Kind.String(),
		Category: string(t.Category),
		DateTime: t.DateTime,
		Display:  t.Display(symbol),
		Color:    t.Color(),
	}
}

// transaction rebuilds the identity of a listed record. Display and Color
// are derived and ignored.
func (j transactionJSON) transaction() (core.Transaction, error) {
	kind, err := core.ParseKind(j.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := decimal.NewFromString(j.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, j.Amount)
	}
	return core.Transaction{
		Title:    j.Title,
		Amount:   amount.Abs(),
		Kind:     kind,
		Category: core.Category(j.Category),
		DateTime: j.DateTime,
	}, nil
}

func (j transactionInputJSON) input() core.TransactionInput {
	return core.TransactionInput{
		Title:    sanitizeInput(j.Title),
		Amount:   sanitizeInput(j.Amount),
		Kind:     sanitizeInput(j.Kind),
		Category: sanitizeInput(j.Category),
		Date:     sanitizeInput(j.Date),
		Time:     sanitizeInput(j.Time),
	}
}

func toLedgerJSON(symbol string, l ledger.Ledger) ledgerJSON {
	txs := make([]transactionJSON, len(l.Transactions))
	for i, t := range l.Transactions {
		txs[i] = toTransactionJSON(symbol, t)
	}
	return ledgerJSON{
		Username:       l.Username,
		Transactions:   txs,
		TotalIncome:    l.TotalIncome.StringFixed(2),
		TotalExpense:   l.TotalExpense.StringFixed(2),
		Balance:        l.Balance().StringFixed(2),
		BalanceDisplay: core.FormatMoney(symbol, l.Balance()),
	}
}

func toStatusJSON(s budget.Status) statusJSON {
	return statusJSON{
		Amount:     s.Amount.StringFixed(2),
		Spent:      s.Spent.StringFixed(2),
		Remaining:  s.Remaining.StringFixed(2),
		Percentage: s.Percentage.StringFixed(4),
		Progress:   s.Progress(),
		Label:      s.Label,
		Color:      s.Color,
		Alert:      s.Alert,
	}
}

func toSnapshotResponse(symbol string, snap services.Snapshot, warn error) snapshotResponse {
	return snapshotResponse{
		Ledger:  toLedgerJSON(symbol, snap.Ledger),
		Budget:  toStatusJSON(snap.Budget),
		Warning: warningFor(warn),
	}
}
