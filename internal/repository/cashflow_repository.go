package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ndewijer/portfolio-engine/internal/model"
)

// CashflowRepository provides data access methods for the cashflow table.
type CashflowRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewCashflowRepository creates a new CashflowRepository with the provided database connection.
func NewCashflowRepository(db *sql.DB) *CashflowRepository {
	return &CashflowRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *CashflowRepository) WithTx(tx *sql.Tx) *CashflowRepository {
	return &CashflowRepository{db: r.db, tx: tx}
}

func (r *CashflowRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetCashflows retrieves every paid and projected cashflow of a user, past and future,
// sorted by date then ID.
func (r *CashflowRepository) GetCashflows(ctx context.Context, userID string) ([]model.Cashflow, error) {
	query := `
		SELECT id, user_id, instrument_id, date, amount, currency, type, status
		FROM cashflow
		WHERE user_id = ?
		ORDER BY date ASC, id ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cashflow table: %w", err)
	}
	defer rows.Close()

	cashflows := []model.Cashflow{}

	for rows.Next() {
		var dateStr string
		var c model.Cashflow

		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.InstrumentID,
			&dateStr,
			&c.Amount,
			&c.Currency,
			&c.Type,
			&c.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cashflow table results: %w", err)
		}
		c.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		if c.Date.IsZero() {
			return nil, fmt.Errorf("zero date for cashflow %s", c.ID)
		}

		cashflows = append(cashflows, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cashflow table: %w", err)
	}

	return cashflows, nil
}

// InsertCashflow stores a cashflow. An empty ID is replaced with a new UUID.
func (r *CashflowRepository) InsertCashflow(ctx context.Context, c *model.Cashflow) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	query := `
		INSERT INTO cashflow (id, user_id, instrument_id, date, amount, currency, type, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.getQuerier().ExecContext(ctx, query,
		c.ID, c.UserID, c.InstrumentID, formatDate(c.Date), c.Amount, c.Currency, c.Type, c.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cashflow: %w", err)
	}
	return nil
}
