package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// dateLayout is the storage format of every DATE column.
const dateLayout = "2006-01-02"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// sqliteTimestampLayout is what CURRENT_TIMESTAMP produces.
const sqliteTimestampLayout = "2006-01-02 15:04:05"

// ParseTime parses a date string in "2006-01-02", RFC3339 or SQLite timestamp format.
func ParseTime(str string) (time.Time, error) {
	var lastErr error
	for _, layout := range []string{dateLayout, time.RFC3339, sqliteTimestampLayout} {
		returnTime, err := time.Parse(layout, str)
		if err == nil {
			return returnTime.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("failed to parse date: %w", lastErr)
}

// formatDate renders t in the storage format.
func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// placeholders returns the "?,?,..." list for ids and the matching query arguments.
func placeholders(ids []string) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ","), args
}
