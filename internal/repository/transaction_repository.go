package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/portfolio-engine/internal/model"
)

// TransactionRepository provides data access methods for the transaction table.
// It handles retrieving a user's buy and sell executions up to a given date.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{db: r.db, tx: tx}
}

func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetTransactions retrieves all transactions of a user dated on or before endDate.
// Transactions are sorted by date, then ID, in ascending order.
//
// Parameters:
//   - ctx: request context
//   - userID: owner of the ledger
//   - endDate: inclusive upper bound; later executions have not happened yet as of that date
//
// Returns an empty slice when the user has no transactions.
func (r *TransactionRepository) GetTransactions(ctx context.Context, userID string, endDate time.Time) ([]model.Transaction, error) {
	query := `
		SELECT id, user_id, instrument_id, date, type, quantity, price, commission, currency
		FROM "transaction"
		WHERE user_id = ?
		AND date <= ?
		ORDER BY date ASC, id ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, userID, formatDate(endDate))
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}

	for rows.Next() {
		var dateStr string
		var t model.Transaction

		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.InstrumentID,
			&dateStr,
			&t.Type,
			&t.Quantity,
			&t.Price,
			&t.Commission,
			&t.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}
		t.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		if t.Date.IsZero() {
			return nil, fmt.Errorf("zero date for transaction %s", t.ID)
		}

		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactions, nil
}

// InsertTransaction stores a transaction. An empty ID is replaced with a new UUID.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	query := `
		INSERT INTO "transaction" (id, user_id, instrument_id, date, type, quantity, price, commission, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID, t.UserID, t.InstrumentID, formatDate(t.Date), t.Type, t.Quantity, t.Price, t.Commission, t.Currency,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}
