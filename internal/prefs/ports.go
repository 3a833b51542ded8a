// Package prefs defines the key-value preference storage every ledger,
// budget and credential record is persisted through.
package prefs

import "context"

type (
	// Store is a flat string key-value store. Apply commits all edits or
	// none of them, so a multi-key mutation never lands half-written.
	Store interface {
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Apply(ctx context.Context, edits ...Edit) error
	}

	// Edit is one write in an Apply batch.
	Edit struct {
		Key    string
		Value  string
		Delete bool
	}
)

// Put sets key to value.
func Put(key, value string) Edit {
	return Edit{Key: key, Value: value}
}

// Remove deletes key.
func Remove(key string) Edit {
	return Edit{Key: key, Delete: true}
}
