package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const getPreference = `SELECT value FROM preferences WHERE key = ?`

func (q *Queries) GetPreference(ctx context.Context, key string) (string, error) {
	row := q.db.QueryRowContext(ctx, getPreference, key)
	var value string
	err := row.Scan(&value)
	return value, err
}

const upsertPreference = `INSERT INTO preferences (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertPreference(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertPreference, key, value)
	return err
}

const deletePreference = `DELETE FROM preferences WHERE key = ?`

func (q *Queries) DeletePreference(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deletePreference, key)
	return err
}
