// Package backend assembles the preference store and alert notifier the
// services run on, from the application config.
package backend

import (
	"context"

	"fintrack/internal/budget"
	"fintrack/internal/prefs"
)

// CleanupFunc releases what a backend opened.
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// Result is an assembled backend. Cleanup is never nil.
type Result struct {
	Store    prefs.Store
	Notifier budget.Notifier
	Ready    ReadyFunc
	Cleanup  CleanupFunc

	// AlertsPublished is true when alerts go to the broker as well as the log.
	AlertsPublished bool
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}
