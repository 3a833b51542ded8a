package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/prefs"
)

// ErrInvalidBudget rejects negative budgets and budgets too large to store
// as whole cents.
var ErrInvalidBudget = errors.New("budget must be a non-negative amount")

func AmountKey(username string) string { return "budget_cents:" + username }
func MonthKey(username string) string  { return "budget_month:" + username }

// Store persists each user's budget. The amount is kept as whole cents.
type Store struct {
	prefs  prefs.Store
	logger *slog.Logger
}

func NewStore(p prefs.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{prefs: p, logger: logger}
}

// Load returns the zero Budget for a user who never set one. An unreadable
// amount is logged and read as zero.
func (s *Store) Load(ctx context.Context, username string) (Budget, error) {
	cents, err := prefs.GetInt64(ctx, s.prefs, AmountKey(username), 0)
	if err != nil {
		if !errors.Is(err, prefs.ErrDecode) {
			return Budget{}, fmt.Errorf("read budget: %w", err)
		}
		s.logger.WarnContext(ctx, "Stored budget is unreadable, using zero", "username", username, "error", err)
		cents = 0
	}
	month, err := prefs.GetString(ctx, s.prefs, MonthKey(username), "")
	if err != nil {
		return Budget{}, fmt.Errorf("read budget month: %w", err)
	}
	return Budget{MonthlyBudget: decimal.New(cents, -2), CreationMonth: month}, nil
}

// Set stores amount and starts a new budget period in the month of now.
// Fractions of a cent are dropped.
func (s *Store) Set(ctx context.Context, username string, amount decimal.Decimal, now time.Time) (Budget, error) {
	if amount.IsNegative() {
		return Budget{}, ErrInvalidBudget
	}
	whole := amount.Shift(2).Truncate(0)
	if !whole.BigInt().IsInt64() {
		return Budget{}, fmt.Errorf("%w: %s is out of range", ErrInvalidBudget, amount.String())
	}
	cents := whole.IntPart()
	b := Budget{MonthlyBudget: decimal.New(cents, -2), CreationMonth: core.MonthLabel(now)}

	if err := s.prefs.Apply(ctx,
		prefs.PutInt64(AmountKey(username), cents),
		prefs.Put(MonthKey(username), b.CreationMonth),
	); err != nil {
		fields := log.NewFields().
			WithOperation(log.OpSetBudget).
			WithUsername(username).
			WithErrorType(log.ErrorTypeStorage).
			WithError(err)
		s.logger.ErrorContext(ctx, "Failed to persist budget", fields.ToSlice()...)
		return b, fmt.Errorf("persist budget: %w", err)
	}
	fields := log.NewFields().
		WithOperation(log.OpSetBudget).
		WithUsername(username).
		WithBudget(b.MonthlyBudget, b.CreationMonth)
	s.logger.InfoContext(ctx, "Budget set", fields.ToSlice()...)
	return b, nil
}

// ParseBudgetAmount reads the budget dialog text with core.ParseDecimal.
// Empty or unparseable input is 0. A sign is kept so Set can reject it.
func ParseBudgetAmount(s string) decimal.Decimal {
	d, err := core.ParseDecimal(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
