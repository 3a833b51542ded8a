// Package worker delivers budget alerts taken off the queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/budget"
)

// AlertWorker hands queued alerts to a notifier, e.g. a push gateway.
type AlertWorker struct {
	deliver budget.Notifier

	mu        sync.Mutex
	delivered map[string]int // per user, for the shutdown summary
}

func NewAlertWorker(deliver budget.Notifier) *AlertWorker {
	return &AlertWorker{deliver: deliver, delivered: map[string]int{}}
}

// HandleAlert processes a single budget alert message from AMQP
func (w *AlertWorker) HandleAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if msg.Username == "" {
		// Nothing to address it to; acking drops it.
		slog.WarnContext(ctx, "Dropping budget alert without username", "alert", msg.Kind)
		return nil
	}

	alert := msg.Alert()
	switch alert.Kind {
	case budget.AlertOver, budget.AlertWarning:
	default:
		slog.WarnContext(ctx, "Dropping budget alert of unknown kind", "alert", msg.Kind, "username", msg.Username)
		return nil
	}

	if err := w.deliver.Notify(ctx, alert); err != nil {
		return fmt.Errorf("deliver budget alert: %w", err)
	}

	w.mu.Lock()
	w.delivered[alert.Username]++
	w.mu.Unlock()
	return nil
}

// Delivered returns how many alerts were delivered per user.
func (w *AlertWorker) Delivered() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]int, len(w.delivered))
	for k, v := range w.delivered {
		out[k] = v
	}
	return out
}

// Run consumes until ctx is cancelled.
func (w *AlertWorker) Run(ctx context.Context, client *amqp.Client) error {
	err := client.ConsumeBudgetAlerts(ctx, w.HandleAlert)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
