package core

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// StoredTransaction is the persisted JSON form of a Transaction.
//
// Older lists carry only a signed display amount ("-$4.50") and no kind; such
// records are migrated on read by inferring the kind from the sign. Color is
// written for readers of the raw list and ignored on load.
type StoredTransaction struct {
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Kind     Kind   `json:"kind,omitempty"`
	Category string `json:"category"`
	Color    string `json:"color"`
	DateTime string `json:"dateTime"`
}

// ToStored converts a transaction to its persisted form.
func ToStored(t Transaction) StoredTransaction {
	return StoredTransaction{
		Title:    t.Title,
		Amount:   t.Amount.StringFixed(2),
		Kind:     t.Kind,
		Category: string(t.Category),
		Color:    t.Color(),
		DateTime: t.DateTime,
	}
}

// Transaction converts a persisted record back, migrating legacy amounts.
func (s StoredTransaction) Transaction() (Transaction, error) {
	t := Transaction{
		Title:    s.Title,
		Kind:     s.Kind,
		Category: Category(s.Category),
		DateTime: s.DateTime,
	}

	if s.Kind == "" {
		kind, amount, err := ParseLegacyAmount(s.Amount)
		if err != nil {
			return Transaction{}, fmt.Errorf("legacy amount %q: %w", s.Amount, err)
		}
		t.Kind, t.Amount = kind, amount
		return t, nil
	}

	if !s.Kind.Valid() {
		return Transaction{}, fmt.Errorf("%w: %q", ErrInvalidKind, s.Kind)
	}
	amount, err := decimal.NewFromString(s.Amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("amount %q: %w", s.Amount, ErrInvalidAmount)
	}
	t.Amount = amount.Abs()
	return t, nil
}

// EncodeTransactions serializes a list in order.
func EncodeTransactions(txs []Transaction) (string, error) {
	stored := make([]StoredTransaction, len(txs))
	for i, t := range txs {
		stored[i] = ToStored(t)
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("encode transactions: %w", err)
	}
	return string(b), nil
}

// DecodeTransactions parses a stored list. Any unreadable record makes the
// whole list malformed; the caller decides how to fall back.
func DecodeTransactions(data string) ([]Transaction, error) {
	if data == "" {
		return []Transaction{}, nil
	}
	var stored []StoredTransaction
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	txs := make([]Transaction, 0, len(stored))
	for i, s := range stored {
		t, err := s.Transaction()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedData, i, err)
		}
		txs = append(txs, t)
	}
	return txs, nil
}
