package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/budget"
)

// BudgetAlertMessage is the queued form of a budget.Alert. Amounts travel as
// fixed two-place strings.
type BudgetAlertMessage struct {
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Username   string    `json:"username"`
	Spent      string    `json:"spent"`
	Budget     string    `json:"budget"`
	Percentage string    `json:"percentage"`
	At         time.Time `json:"at"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(a budget.Alert) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		Kind:       string(a.Kind),
		Title:      a.Title,
		Message:    a.Message,
		Username:   a.Username,
		Spent:      a.Spent.StringFixed(2),
		Budget:     a.Budget.StringFixed(2),
		Percentage: a.Percentage.StringFixed(4),
		At:         a.At,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Alert converts the message back. Unreadable amounts become zero.
func (m *BudgetAlertMessage) Alert() budget.Alert {
	return budget.Alert{
		Kind:       budget.AlertKind(m.Kind),
		Title:      m.Title,
		Message:    m.Message,
		Username:   m.Username,
		Spent:      parseOrZero(m.Spent),
		Budget:     parseOrZero(m.Budget),
		Percentage: parseOrZero(m.Percentage),
		At:         m.At,
	}
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func parseOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
