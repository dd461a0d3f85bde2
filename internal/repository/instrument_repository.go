package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ndewijer/portfolio-engine/internal/model"
)

// InstrumentRepository provides data access methods for the instrument table.
type InstrumentRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewInstrumentRepository creates a new InstrumentRepository with the provided database connection.
func NewInstrumentRepository(db *sql.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *InstrumentRepository) WithTx(tx *sql.Tx) *InstrumentRepository {
	return &InstrumentRepository{db: r.db, tx: tx}
}

func (r *InstrumentRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetInstruments retrieves instrument metadata for the given IDs.
//
// Parameters:
//   - ctx: request context
//   - instrumentIDs: IDs to look up; unknown IDs are simply absent from the result
//
// Returns a map of instrumentID -> Instrument. If instrumentIDs is empty, returns an empty map.
func (r *InstrumentRepository) GetInstruments(ctx context.Context, instrumentIDs []string) (map[string]model.Instrument, error) {
	instruments := make(map[string]model.Instrument)
	if len(instrumentIDs) == 0 {
		return instruments, nil
	}

	marks, args := placeholders(instrumentIDs)
	query := `
		SELECT id, ticker, name, type, market, currency, last_price, last_price_date
		FROM instrument
		WHERE id IN (` + marks + `)
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instrument table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var i model.Instrument
		var market, lastPriceDate sql.NullString
		var lastPrice sql.NullFloat64

		err := rows.Scan(
			&i.ID,
			&i.Ticker,
			&i.Name,
			&i.Type,
			&market,
			&i.Currency,
			&lastPrice,
			&lastPriceDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument table results: %w", err)
		}

		if market.Valid {
			i.Market = market.String
		}
		if lastPrice.Valid {
			i.LastPrice = lastPrice.Float64
		}
		if lastPriceDate.Valid {
			i.LastPriceDate, err = ParseTime(lastPriceDate.String)
			if err != nil {
				return nil, err
			}
		}

		instruments[i.ID] = i
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instrument table: %w", err)
	}

	return instruments, nil
}

// InsertInstrument stores an instrument. An empty ID is replaced with a new UUID.
func (r *InstrumentRepository) InsertInstrument(ctx context.Context, i *model.Instrument) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}

	var lastPrice sql.NullFloat64
	var lastPriceDate sql.NullString
	if i.LastPrice != 0 {
		lastPrice = sql.NullFloat64{Float64: i.LastPrice, Valid: true}
	}
	if !i.LastPriceDate.IsZero() {
		lastPriceDate = sql.NullString{String: formatDate(i.LastPriceDate), Valid: true}
	}

	query := `
		INSERT INTO instrument (id, ticker, name, type, market, currency, last_price, last_price_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.getQuerier().ExecContext(ctx, query,
		i.ID, i.Ticker, i.Name, i.Type, i.Market, i.Currency, lastPrice, lastPriceDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert instrument: %w", err)
	}
	return nil
}
