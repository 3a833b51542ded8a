package budget

import (
	"context"
	"errors"
	"log/slog"
)

// Notifier delivers budget alerts, e.g. as a push notification or a queued
// message.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, a Alert) error

func (f NotifierFunc) Notify(ctx context.Context, a Alert) error { return f(ctx, a) }

// LogNotifier writes alerts to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, a Alert) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.WarnContext(ctx, a.Title,
		"alert", string(a.Kind),
		"username", a.Username,
		"message", a.Message,
		"total_spent", a.Spent.StringFixed(2),
		"monthly_budget", a.Budget.StringFixed(2))
	return nil
}

// Multi delivers to every notifier and joins their errors.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, a Alert) error {
		var errs []error
		for _, n := range notifiers {
			if n == nil {
				continue
			}
			if err := n.Notify(ctx, a); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
