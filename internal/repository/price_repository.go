package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/portfolio-engine/internal/model"
)

// PriceRepository provides data access methods for the price table.
type PriceRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *PriceRepository) WithTx(tx *sql.Tx) *PriceRepository {
	return &PriceRepository{db: r.db, tx: tx}
}

func (r *PriceRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetLatestPrices retrieves, for each instrument, the most recent price dated on
// or before endDate.
//
// Parameters:
//   - ctx: request context
//   - instrumentIDs: instruments to price
//   - endDate: inclusive upper bound
//
// Returns at most one price per instrument. Instruments without a price are absent.
func (r *PriceRepository) GetLatestPrices(ctx context.Context, instrumentIDs []string, endDate time.Time) ([]model.Price, error) {
	if len(instrumentIDs) == 0 {
		return []model.Price{}, nil
	}

	marks, args := placeholders(instrumentIDs)
	end := formatDate(endDate)
	query := `
		SELECT p.id, p.instrument_id, p.date, p.price, p.currency
		FROM price p
		INNER JOIN (
			SELECT instrument_id, MAX(date) AS latest_date
			FROM price
			WHERE instrument_id IN (` + marks + `)
			AND date <= ?
			GROUP BY instrument_id
		) latest ON p.instrument_id = latest.instrument_id AND p.date = latest.latest_date
		ORDER BY p.instrument_id ASC
	`
	args = append(args, end)

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price table: %w", err)
	}
	defer rows.Close()

	prices := []model.Price{}

	for rows.Next() {
		var dateStr string
		var cur sql.NullString
		var p model.Price

		if err := rows.Scan(&p.ID, &p.InstrumentID, &dateStr, &p.Price, &cur); err != nil {
			return nil, fmt.Errorf("failed to scan price table results: %w", err)
		}
		p.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		if p.Date.IsZero() {
			return nil, fmt.Errorf("zero date for price %s", p.ID)
		}
		if cur.Valid {
			p.Currency = cur.String
		}

		prices = append(prices, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price table: %w", err)
	}

	return prices, nil
}

// InsertPrice stores a price observation. An empty ID is replaced with a new UUID.
func (r *PriceRepository) InsertPrice(ctx context.Context, p *model.Price) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	var cur sql.NullString
	if p.Currency != "" {
		cur = sql.NullString{String: p.Currency, Valid: true}
	}

	query := `INSERT INTO price (id, instrument_id, date, price, currency) VALUES (?, ?, ?, ?, ?)`
	_, err := r.getQuerier().ExecContext(ctx, query, p.ID, p.InstrumentID, formatDate(p.Date), p.Price, cur)
	if err != nil {
		return fmt.Errorf("failed to insert price: %w", err)
	}
	return nil
}
