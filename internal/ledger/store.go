package ledger

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

// DefaultStartingBalance is credited to income the first time a user opens
// the transaction screen.
var DefaultStartingBalance = decimal.NewFromInt(5000)

type Option func(*Store)

func WithStartingBalance(d decimal.Decimal) Option {
	return func(s *Store) { s.startingBalance = d }
}

// WithLegacyEditTotals makes Replace add the new amount without taking the
// old one back out, so totals inflate on every edit.
func WithLegacyEditTotals() Option {
	return func(s *Store) { s.legacyEdit = true }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store loads and persists ledgers through a preference store. All access to
// a username goes through that user's lock.
type Store struct {
	prefs           prefs.Store
	startingBalance decimal.Decimal
	legacyEdit      bool
	now             func() time.Time
	logger          *slog.Logger

	locks KeyedMutex
}

func NewStore(p prefs.Store, opts ...Option) *Store {
	s := &Store{
		prefs:           p,
		startingBalance: DefaultStartingBalance,
		now:             time.Now,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTransaction builds a transaction from form input, defaulting an empty
// date and time to the store clock.
func (s *Store) NewTransaction(in core.TransactionInput) (core.Transaction, error) {
	return core.NewTransaction(in, s.now())
}

// LegacyEditTotals reports whether Replace reproduces the inflating edit.
func (s *Store) LegacyEditTotals() bool { return s.legacyEdit }

func (s *Store) lock(username string) func() {
	return s.locks.Lock(username)
}

// Load reads the persisted ledger without seeding. A malformed list yields an
// empty list and an error wrapping core.ErrMalformedData; the returned ledger
// is usable in that case.
func (s *Store) Load(ctx context.Context, username string) (Ledger, error) {
	if username == "" {
		return Ledger{}, ErrNoUsername
	}
	defer s.lock(username)()
	return s.load(ctx, username)
}

// Open is the transaction screen load. On a user's first open it credits the
// starting balance to income once, without creating any transaction. Totals
// recorded before that first open are kept.
func (s *Store) Open(ctx context.Context, username string) (Ledger, error) {
	if username == "" {
		return Ledger{}, ErrNoUsername
	}
	defer s.lock(username)()

	done, err := prefs.GetBool(ctx, s.prefs, FirstRunKey(username), false)
	if err != nil {
		return Ledger{}, fmt.Errorf("read first run flag: %w", err)
	}
	if !done {
		cur, loadErr := s.load(ctx, username)
		if loadErr != nil && !errors.Is(loadErr, core.ErrMalformedData) {
			return Ledger{}, loadErr
		}
		income := cur.TotalIncome.Add(s.startingBalance)
		err := s.prefs.Apply(ctx,
			prefs.PutDecimal(IncomeKey(username), income),
			prefs.PutDecimal(ExpenseKey(username), cur.TotalExpense),
			prefs.PutDecimal(OpeningKey(username), s.startingBalance),
			prefs.PutBool(FirstRunKey(username), true),
		)
		if err != nil {
			fields := log.NewFields().
				WithOperation(log.OpSeed).
				WithUsername(username).
				WithErrorType(log.ErrorTypeStorage).
				WithError(err)
			s.logger.ErrorContext(ctx, "Failed to seed starting balance", fields.ToSlice()...)
			cur.TotalIncome = income
			return cur, errors.Join(fmt.Errorf("%w: seed: %v", ErrPersist, err), loadErr)
		}
		s.logger.InfoContext(ctx, "Seeded starting balance",
			"username", username, "amount", s.startingBalance.StringFixed(2))
	}

	return s.load(ctx, username)
}

func (s *Store) load(ctx context.Context, username string) (Ledger, error) {
	l := Ledger{Username: username, Transactions: []core.Transaction{}}
	var malformed []error

	raw, _, err := s.prefs.Get(ctx, TransactionsKey(username))
	if err != nil {
		return Ledger{}, fmt.Errorf("read transactions: %w", err)
	}
	txs, err := core.DecodeTransactions(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "Stored transaction list is malformed, starting empty",
			"username", username, "error", err)
		malformed = append(malformed, err)
	} else {
		l.Transactions = txs
	}

	for _, total := range []struct {
		key string
		dst *decimal.Decimal
	}{
		{IncomeKey(username), &l.TotalIncome},
		{ExpenseKey(username), &l.TotalExpense},
	} {
		d, err := prefs.GetDecimal(ctx, s.prefs, total.key, decimal.Zero)
		switch {
		case errors.Is(err, prefs.ErrDecode):
			s.logger.WarnContext(ctx, "Stored total is unreadable, using zero", "key", total.key, "error", err)
			malformed = append(malformed, fmt.Errorf("%w: %v", core.ErrMalformedData, err))
		case err != nil:
			return Ledger{}, fmt.Errorf("read %s: %w", total.key, err)
		}
		*total.dst = d
	}

	return l, errors.Join(malformed...)
}

// Append records t at the head of the list.
func (s *Store) Append(ctx context.Context, l Ledger, t core.Transaction) (Ledger, error) {
	if err := t.Validate(); err != nil {
		return l, err
	}
	if l.Username == "" {
		return l, ErrNoUsername
	}
	defer s.lock(l.Username)()

	next := l.clone()
	next.Transactions = append([]core.Transaction{t}, next.Transactions...)
	next.adjust(t.Kind, t.Amount.Abs())

	s.logger.InfoContext(ctx, "Transaction added", txFields(log.OpAppend, next, t).ToSlice()...)
	return next, s.persist(ctx, next)
}

// Replace substitutes the first record equal to old with t.
func (s *Store) Replace(ctx context.Context, l Ledger, old, t core.Transaction) (Ledger, error) {
	if err := t.Validate(); err != nil {
		return l, err
	}
	if l.Username == "" {
		return l, ErrNoUsername
	}
	defer s.lock(l.Username)()

	i := l.IndexOf(old)
	if i < 0 {
		s.logger.WarnContext(ctx, "Edited transaction not found", "username", l.Username, "title", old.Title)
		return l, ErrTransactionNotFound
	}

	next := l.clone()
	if !s.legacyEdit {
		next.adjust(old.Kind, old.Amount.Abs().Neg())
	}
	next.adjust(t.Kind, t.Amount.Abs())
	next.Transactions[i] = t

	fields := txFields(log.OpReplace, next, t)
	fields["legacy_totals"] = s.legacyEdit
	s.logger.InfoContext(ctx, "Transaction edited", fields.ToSlice()...)
	return next, s.persist(ctx, next)
}

// Remove deletes the first record equal to t.
func (s *Store) Remove(ctx context.Context, l Ledger, t core.Transaction) (Ledger, error) {
	if l.Username == "" {
		return l, ErrNoUsername
	}
	defer s.lock(l.Username)()

	i := l.IndexOf(t)
	if i < 0 {
		s.logger.WarnContext(ctx, "Removed transaction not found", "username", l.Username, "title", t.Title)
		return l, ErrTransactionNotFound
	}

	next := l.clone()
	removed := next.Transactions[i]
	next.Transactions = append(next.Transactions[:i], next.Transactions[i+1:]...)
	next.adjust(removed.Kind, removed.Amount.Abs().Neg())

	s.logger.InfoContext(ctx, "Transaction removed", txFields(log.OpRemove, next, removed).ToSlice()...)
	return next, s.persist(ctx, next)
}

// Reconcile recomputes the totals from the list plus the opening balance
// credited on first run, and persists them.
func (s *Store) Reconcile(ctx context.Context, l Ledger) (Ledger, error) {
	if l.Username == "" {
		return l, ErrNoUsername
	}
	defer s.lock(l.Username)()

	opening, err := prefs.GetDecimal(ctx, s.prefs, OpeningKey(l.Username), decimal.Zero)
	if err != nil {
		return l, fmt.Errorf("read opening balance: %w", err)
	}

	next := l.clone()
	income, expense := Sums(next.Transactions)
	next.TotalIncome = opening.Add(income)
	next.TotalExpense = expense

	if !next.TotalIncome.Equal(l.TotalIncome) || !next.TotalExpense.Equal(l.TotalExpense) {
		s.logger.WarnContext(ctx, "Ledger totals drifted, reconciled",
			log.FieldOperation, log.OpReconcile,
			log.FieldUsername, l.Username,
			"income_before", l.TotalIncome.StringFixed(2), "income_after", next.TotalIncome.StringFixed(2),
			"expense_before", l.TotalExpense.StringFixed(2), "expense_after", next.TotalExpense.StringFixed(2))
	}
	return next, s.persist(ctx, next)
}

// persist writes list and totals in one batch. Caller holds the user lock.
func (s *Store) persist(ctx context.Context, l Ledger) error {
	data, err := core.EncodeTransactions(l.Transactions)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	err = s.prefs.Apply(ctx,
		prefs.Put(TransactionsKey(l.Username), data),
		prefs.PutDecimal(IncomeKey(l.Username), l.TotalIncome),
		prefs.PutDecimal(ExpenseKey(l.Username), l.TotalExpense),
	)
	if err != nil {
		fields := log.NewFields().
			WithUsername(l.Username).
			WithTotals(l.TotalIncome, l.TotalExpense).
			WithErrorType(log.ErrorTypeStorage).
			WithError(err)
		s.logger.ErrorContext(ctx, "Failed to persist ledger", fields.ToSlice()...)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func txFields(op string, l Ledger, t core.Transaction) log.LogFields {
	return log.NewFields().
		WithOperation(op).
		WithUsername(l.Username).
		WithTransaction(t.Title, t.Amount, t.Kind.String(), string(t.Category)).
		WithTotals(l.TotalIncome, l.TotalExpense)
}
