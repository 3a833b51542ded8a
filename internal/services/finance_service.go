package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/reports"
)

// Snapshot is what a screen renders after an intent: the ledger and the
// budget status derived from it.
type Snapshot struct {
	Ledger ledger.Ledger
	Budget budget.Status
}

type Option func(*FinanceService)

func WithNotifier(n budget.Notifier) Option {
	return func(s *FinanceService) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *FinanceService) { s.now = now }
}

func WithCurrencySymbol(symbol string) Option {
	return func(s *FinanceService) { s.symbol = symbol }
}

// FinanceService orchestrates ledger mutations, the budget refresh that
// follows each of them, and alert delivery.
type FinanceService struct {
	ledgers  *ledger.Store
	budgets  *budget.Store
	notifier budget.Notifier
	now      func() time.Time
	symbol   string

	users ledger.KeyedMutex // serializes the intents of each user
}

func NewFinanceService(ledgers *ledger.Store, budgets *budget.Store, opts ...Option) *FinanceService {
	s := &FinanceService{
		ledgers:  ledgers,
		budgets:  budgets,
		notifier: budget.LogNotifier{},
		now:      time.Now,
		symbol:   core.DefaultCurrencySymbol,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FinanceService) CurrencySymbol() string { return s.symbol }

// Open is the transaction screen load; it seeds the starting balance once.
// A malformed stored list or an unsaved seed still yields a snapshot, with
// the error.
func (s *FinanceService) Open(ctx context.Context, username string) (Snapshot, error) {
	defer s.users.Lock(username)()

	l, err := s.ledgers.Open(ctx, username)
	if err != nil && !errors.Is(err, core.ErrMalformedData) && !errors.Is(err, ledger.ErrPersist) {
		return Snapshot{}, err
	}
	return s.refresh(ctx, l, err)
}

// Dashboard loads without seeding. Malformed data is logged and swallowed,
// as the dashboard does.
func (s *FinanceService) Dashboard(ctx context.Context, username string) (Snapshot, error) {
	l, err := s.ledgers.Load(ctx, username)
	if err != nil {
		if !errors.Is(err, core.ErrMalformedData) {
			return Snapshot{}, err
		}
		log.FromContext(ctx).WarnContext(ctx, "Dashboard loaded with malformed data", log.FieldUsername, username, log.FieldError, err)
	}
	b, err := s.budgets.Load(ctx, username)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Ledger: l, Budget: budget.Evaluate(s.symbol, username, l.Transactions, b, s.now())}, nil
}

func (s *FinanceService) AddTransaction(ctx context.Context, username string, in core.TransactionInput) (Snapshot, error) {
	defer s.users.Lock(username)()

	t, err := s.ledgers.NewTransaction(in)
	if err != nil {
		return Snapshot{}, err
	}
	l, err := s.current(ctx, username)
	if err != nil {
		return Snapshot{}, err
	}
	l, err = s.ledgers.Append(ctx, l, t)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		return Snapshot{}, err
	}
	return s.refresh(ctx, l, err)
}

func (s *FinanceService) EditTransaction(ctx context.Context, username string, old core.Transaction, in core.TransactionInput) (Snapshot, error) {
	defer s.users.Lock(username)()

	t, err := s.ledgers.NewTransaction(in)
	if err != nil {
		return Snapshot{}, err
	}
	l, err := s.current(ctx, username)
	if err != nil {
		return Snapshot{}, err
	}
	l, err = s.ledgers.Replace(ctx, l, old, t)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		return Snapshot{}, err
	}
	return s.refresh(ctx, l, err)
}

func (s *FinanceService) RemoveTransaction(ctx context.Context, username string, t core.Transaction) (Snapshot, error) {
	defer s.users.Lock(username)()

	l, err := s.current(ctx, username)
	if err != nil {
		return Snapshot{}, err
	}
	l, err = s.ledgers.Remove(ctx, l, t)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		return Snapshot{}, err
	}
	return s.refresh(ctx, l, err)
}

// Reconcile recomputes the running totals from the list.
func (s *FinanceService) Reconcile(ctx context.Context, username string) (Snapshot, error) {
	defer s.users.Lock(username)()

	l, err := s.current(ctx, username)
	if err != nil {
		return Snapshot{}, err
	}
	l, err = s.ledgers.Reconcile(ctx, l)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		return Snapshot{}, err
	}
	return s.refresh(ctx, l, err)
}

func (s *FinanceService) CurrentBudget(ctx context.Context, username string) (budget.Budget, budget.Status, error) {
	snap, err := s.Dashboard(ctx, username)
	if err != nil {
		return budget.Budget{}, budget.Status{}, err
	}
	b, err := s.budgets.Load(ctx, username)
	if err != nil {
		return budget.Budget{}, budget.Status{}, err
	}
	return b, snap.Budget, nil
}

// SetBudget parses the dialog text and starts a new budget period this month.
func (s *FinanceService) SetBudget(ctx context.Context, username, amountText string) (Snapshot, error) {
	defer s.users.Lock(username)()

	amount := budget.ParseBudgetAmount(amountText)
	if _, err := s.budgets.Set(ctx, username, amount, s.now()); err != nil {
		return Snapshot{}, err
	}
	l, err := s.ledgers.Load(ctx, username)
	if err != nil && !errors.Is(err, core.ErrMalformedData) {
		return Snapshot{}, fmt.Errorf("load ledger: %w", err)
	}
	return s.refresh(ctx, l, nil)
}

func (s *FinanceService) Reports(ctx context.Context, username string) (reports.Summary, error) {
	l, err := s.ledgers.Load(ctx, username)
	if err != nil && !errors.Is(err, core.ErrMalformedData) {
		return reports.Summary{}, err
	}
	return reports.Build(l.Transactions, s.now()), nil
}

// current loads the ledger a mutation applies to, crediting the starting
// balance first if the user never opened the ledger. A malformed list is
// replaced by the mutation, so it is not an error here.
func (s *FinanceService) current(ctx context.Context, username string) (ledger.Ledger, error) {
	l, err := s.ledgers.Open(ctx, username)
	switch {
	case err == nil:
		return l, nil
	case errors.Is(err, ledger.ErrPersist):
		// an unsaved seed would be credited again on the next open
		return ledger.Ledger{}, fmt.Errorf("seed ledger: %v", err)
	case errors.Is(err, core.ErrMalformedData):
		return l, nil
	default:
		return ledger.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}
}

// refresh recomputes the budget status for l and emits its alert. carried is
// a non-fatal error from the step before, returned with the snapshot.
func (s *FinanceService) refresh(ctx context.Context, l ledger.Ledger, carried error) (Snapshot, error) {
	b, err := s.budgets.Load(ctx, l.Username)
	if err != nil {
		return Snapshot{Ledger: l}, errors.Join(carried, err)
	}

	status := budget.Evaluate(s.symbol, l.Username, l.Transactions, b, s.now())
	if status.Alert != nil && s.notifier != nil {
		if err := s.notifier.Notify(ctx, *status.Alert); err != nil {
			fields := log.NewFields().
				WithOperation(log.OpNotify).
				WithUsername(l.Username).
				WithBudget(b.MonthlyBudget, b.CreationMonth).
				WithErrorType(log.ErrorTypeDelivery).
				WithError(err)
			fields[log.FieldAlert] = string(status.Alert.Kind)
			log.FromContext(ctx).WarnContext(ctx, "Failed to deliver budget alert", fields.ToSlice()...)
		}
	}
	return Snapshot{Ledger: l, Budget: status}, carried
}
