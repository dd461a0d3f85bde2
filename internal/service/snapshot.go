package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-engine/internal/currency"
	"github.com/ndewijer/portfolio-engine/internal/model"
)

// PastProjectedCountsAsCollected controls how a PROJECTED cashflow dated on or
// before the as-of date is classified. Payments are often reported days after
// they happen, so such a cashflow is counted as collected rather than pending.
const PastProjectedCountsAsCollected = true

// DefaultUpcomingLimit caps the number of upcoming payments returned.
const DefaultUpcomingLimit = 200

// DefaultWorkers bounds how many instruments are computed concurrently.
const DefaultWorkers = 4

// Snapshot is the immutable input of one aggregation: everything the data
// access layer fetched for a user, plus the instant the figures are computed for.
type Snapshot struct {
	UserID       string
	AsOf         time.Time
	Instruments  map[string]model.Instrument
	Transactions []model.Transaction
	Cashflows    []model.Cashflow
	Rates        []model.ExchangeRate
	Prices       []model.Price
}

// Options holds the accounting policy applied by Aggregate.
type Options struct {
	ReferenceCurrency string
	FallbackDays      int
	DefaultRates      map[currency.Pair]decimal.Decimal
	UpcomingLimit     int
	Workers           int
}

// DefaultOptions returns the policy used when nothing is configured.
func DefaultOptions(referenceCurrency string) Options {
	return Options{
		ReferenceCurrency: referenceCurrency,
		FallbackDays:      currency.DefaultFallbackDays,
		UpcomingLimit:     DefaultUpcomingLimit,
		Workers:           DefaultWorkers,
	}
}

// normalizer builds the rate tables for this snapshot, one per currency pair.
func (s Snapshot) normalizer(opts Options) *currency.Normalizer {
	pointsByPair := make(map[currency.Pair][]currency.Point)
	for _, r := range s.Rates {
		pair := currency.NewPair(r.Base, r.Quote)
		pointsByPair[pair] = append(pointsByPair[pair], currency.Point{
			Date:  r.Date,
			Value: decimal.NewFromFloat(r.Value),
		})
	}

	tables := make([]*currency.RateTable, 0, len(pointsByPair))
	for pair, points := range pointsByPair {
		tables = append(tables, currency.NewRateTable(pair, points))
	}

	nopts := []currency.Option{currency.WithFallbackDays(opts.FallbackDays)}
	for pair, v := range opts.DefaultRates {
		nopts = append(nopts, currency.WithDefaultRate(pair, v))
	}
	return currency.NewNormalizer(tables, nopts...)
}
