package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Housing       Category = "Housing"
	Shopping      Category = "Shopping"
	Entertainment Category = "Entertainment"
	Other         Category = "Other"

	// Bills only exists in the legacy color table; nothing can record it.
	Bills Category = "Bills"
)

const (
	IncomeColor  = "#4CAF50"
	ExpenseColor = "#F44336"
)

const maxTitleLength = 200

type (
	// Kind is the polarity of a transaction.
	Kind string

	Category string

	// Transaction is one recorded financial event. Amount is always a
	// non-negative magnitude; Kind says which running total it belongs to.
	// DateTime keeps the stored text verbatim so records with an unknown or
	// unreadable time still round-trip and display.
	Transaction struct {
		Title    string
		Amount   decimal.Decimal
		Kind     Kind
		Category Category
		DateTime string
	}

	// TransactionInput is what a user types into the add/edit form.
	TransactionInput struct {
		Title    string
		Amount   string
		Kind     string
		Category string
		Date     string // "Jan 2, 2006"
		Time     string // "15:04"
	}
)

var (
	ErrEmptyTitle       = errors.New("empty title")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid transaction type")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidDateTime  = errors.New("invalid date or time")
	ErrMalformedData    = errors.New("malformed stored data")
	ErrTitleTooLong     = errors.New("title too long (max 200 characters)")
	ErrMissingDateParts = errors.New("date and time must be given together")
)

// ParseKind accepts "income"/"expense" in any case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (k Kind) String() string { return string(k) }

// Sign returns the display prefix of the kind.
func (k Kind) Sign() string {
	if k == Income {
		return "+"
	}
	return "-"
}

func (k Kind) Valid() bool { return k == Income || k == Expense }

// ValidCategories lists the categories a transaction can be recorded under.
func ValidCategories() []Category {
	return []Category{Food, Transport, Housing, Shopping, Entertainment, Other}
}

// ParseCategory matches one of ValidCategories, ignoring case.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range ValidCategories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// CategoryColor is the chart color of a category.
func CategoryColor(c Category) string {
	switch c {
	case Food:
		return "#FF5722"
	case Transport:
		return "#2196F3"
	case Shopping:
		return "#4CAF50"
	case Bills:
		return "#F44336"
	case Entertainment:
		return "#9C27B0"
	default:
		return "#000000"
	}
}

// Color is derived from the kind, not the category.
func (t Transaction) Color() string {
	if t.Kind == Income {
		return IncomeColor
	}
	return ExpenseColor
}

// SignedAmount is positive for income and negative for expenses.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == Income {
		return t.Amount.Abs()
	}
	return t.Amount.Abs().Neg()
}

// Display renders the amount the way the list shows it, e.g. "+$120.00".
func (t Transaction) Display(symbol string) string {
	return FormatSigned(symbol, t.Kind, t.Amount)
}

// Time parses DateTime. ok is false for the empty placeholder of old records
// and for text that does not parse.
func (t Transaction) Time() (time.Time, bool) {
	return ParseDateTime(t.DateTime)
}

// Equal reports value equality, the identity used by edit and remove.
func (t Transaction) Equal(o Transaction) bool {
	return t.Title == o.Title &&
		t.Amount.Equal(o.Amount) &&
		t.Kind == o.Kind &&
		t.Category == o.Category &&
		t.DateTime == o.DateTime
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if _, err := ParseCategory(string(t.Category)); err != nil {
		return err
	}
	if _, ok := t.Time(); !ok {
		return ErrInvalidDateTime
	}
	return nil
}

// NewTransaction validates form input and builds the transaction it
// describes. Date and time default to now when both are left empty.
func NewTransaction(in TransactionInput, now time.Time) (Transaction, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Transaction{}, ErrEmptyTitle
	}

	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Transaction{}, err
	}

	kind, err := ParseKind(in.Kind)
	if err != nil {
		return Transaction{}, err
	}

	category, err := ParseCategory(in.Category)
	if err != nil {
		return Transaction{}, err
	}

	date, clock := strings.TrimSpace(in.Date), strings.TrimSpace(in.Time)
	var at time.Time
	switch {
	case date == "" && clock == "":
		at = now
	case date == "" || clock == "":
		return Transaction{}, ErrMissingDateParts
	default:
		at, err = time.ParseInLocation(DateTimeLayout, date+" "+clock, now.Location())
		if err != nil {
			return Transaction{}, fmt.Errorf("%w: %v", ErrInvalidDateTime, err)
		}
	}

	t := Transaction{
		Title:    title,
		Amount:   amount,
		Kind:     kind,
		Category: category,
		DateTime: FormatDateTime(at),
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// SortByTime orders transactions newest first. Records with an unknown time
// keep their relative order and go last.
func SortByTime(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		ti, okI := txs[i].Time()
		tj, okJ := txs[j].Time()
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})
}
