package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/portfolio-engine/internal/model"
)

// ExchangeRateRepository provides data access methods for the exchange_rate table.
type ExchangeRateRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewExchangeRateRepository creates a new ExchangeRateRepository with the provided database connection.
func NewExchangeRateRepository(db *sql.DB) *ExchangeRateRepository {
	return &ExchangeRateRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *ExchangeRateRepository) WithTx(tx *sql.Tx) *ExchangeRateRepository {
	return &ExchangeRateRepository{db: r.db, tx: tx}
}

func (r *ExchangeRateRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetExchangeRates retrieves every rate observation dated on or before endDate,
// for all pairs, sorted by date. Rates published after endDate were unknown at
// that date and are left out so results can be recomputed for past dates.
func (r *ExchangeRateRepository) GetExchangeRates(ctx context.Context, endDate time.Time) ([]model.ExchangeRate, error) {
	query := `
		SELECT id, base, quote, date, value
		FROM exchange_rate
		WHERE date <= ?
		ORDER BY date ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, formatDate(endDate))
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange_rate table: %w", err)
	}
	defer rows.Close()

	rates := []model.ExchangeRate{}

	for rows.Next() {
		var dateStr string
		var e model.ExchangeRate

		if err := rows.Scan(&e.ID, &e.Base, &e.Quote, &dateStr, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan exchange_rate table results: %w", err)
		}
		e.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		if e.Date.IsZero() {
			return nil, fmt.Errorf("zero date for exchange rate %s", e.ID)
		}

		rates = append(rates, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange_rate table: %w", err)
	}

	return rates, nil
}

// InsertExchangeRate stores a rate observation. An empty ID is replaced with a new UUID.
func (r *ExchangeRateRepository) InsertExchangeRate(ctx context.Context, e *model.ExchangeRate) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query := `INSERT INTO exchange_rate (id, base, quote, date, value) VALUES (?, ?, ?, ?, ?)`
	_, err := r.getQuerier().ExecContext(ctx, query, e.ID, e.Base, e.Quote, formatDate(e.Date), e.Value)
	if err != nil {
		return fmt.Errorf("failed to insert exchange rate: %w", err)
	}
	return nil
}
