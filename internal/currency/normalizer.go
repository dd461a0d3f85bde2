package currency

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
)

// DefaultFallbackDays is how many days before the requested date a missing
// rate may be substituted by an earlier one.
const DefaultFallbackDays = 10

// Source tells which step of the lookup policy produced a rate.
type Source int

const (
	SourceIdentity Source = iota // same currency, no conversion
	SourceExact                  // rate dated on the requested day
	SourceWindow                 // nearest earlier rate within the fallback window
	SourceLatest                 // most recent rate of the table
	SourceDefault                // configured default constant
)

func (s Source) String() string {
	switch s {
	case SourceIdentity:
		return "identity"
	case SourceExact:
		return "exact"
	case SourceWindow:
		return "window"
	case SourceLatest:
		return "latest"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Rate is the outcome of a lookup. When Inverted is set the amount is
// expressed in the table's Base and must be divided by Value.
type Rate struct {
	Value    decimal.Decimal
	Date     time.Time
	Source   Source
	Inverted bool
}

// Apply converts amount with the rate. Zero, negative or missing values are
// rejected rather than divided against.
func (r Rate) Apply(amount decimal.Decimal) (decimal.Decimal, error) {
	if r.Source == SourceIdentity {
		return amount, nil
	}
	if !r.Value.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s (%s)", apperrors.ErrNonPositiveRate, r.Value, r.Source)
	}
	if r.Inverted {
		return amount.Div(r.Value), nil
	}
	return amount.Mul(r.Value), nil
}

// Normalizer converts amounts into a reference currency.
type Normalizer struct {
	tables       map[Pair]*RateTable
	defaults     map[Pair]decimal.Decimal
	fallbackDays int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithFallbackDays sets the backward search window. Negative values are treated as zero.
func WithFallbackDays(days int) Option {
	return func(n *Normalizer) {
		n.fallbackDays = max(0, days)
	}
}

// WithDefaultRate registers the constant used when a pair has no observation at all.
func WithDefaultRate(pair Pair, value decimal.Decimal) Option {
	return func(n *Normalizer) {
		n.defaults[NewPair(pair.Base, pair.Quote)] = value
	}
}

// NewNormalizer builds a Normalizer over the given tables. A later table for
// the same pair replaces an earlier one.
func NewNormalizer(tables []*RateTable, opts ...Option) *Normalizer {
	n := &Normalizer{
		tables:       make(map[Pair]*RateTable, len(tables)),
		defaults:     make(map[Pair]decimal.Decimal),
		fallbackDays: DefaultFallbackDays,
	}
	for _, t := range tables {
		n.tables[t.Pair()] = t
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts amount from native into reference using the rate for date.
//
// Lookup policy:
//   - same currency: amount unchanged
//   - rate on date, else nearest earlier rate within the fallback window
//   - else the most recent rate known for the pair
//   - else the configured default for the pair, else ErrRateNotFound
func (n *Normalizer) Normalize(amount decimal.Decimal, native string, date time.Time, reference string) (decimal.Decimal, error) {
	rate, err := n.Rate(native, reference, date)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Apply(amount)
}

// NormalizeLatest converts amount using the most recent rate known for the pair.
// It is used for amounts dated in the future.
func (n *Normalizer) NormalizeLatest(amount decimal.Decimal, native, reference string) (decimal.Decimal, error) {
	rate, err := n.LatestRate(native, reference)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Apply(amount)
}

// Rate resolves the rate that Normalize would use.
func (n *Normalizer) Rate(native, reference string, date time.Time) (Rate, error) {
	return n.resolve(native, reference, func(t *RateTable) (Point, Source, bool) {
		p, ok := t.OnOrBefore(date)
		if ok {
			gap := Day(date).Sub(p.Date)
			switch {
			case gap == 0:
				return p, SourceExact, true
			case gap <= time.Duration(n.fallbackDays)*24*time.Hour:
				return p, SourceWindow, true
			}
		}
		p, ok = t.Latest()
		return p, SourceLatest, ok
	})
}

// LatestRate resolves the most recent rate for the pair, or its default.
func (n *Normalizer) LatestRate(native, reference string) (Rate, error) {
	return n.resolve(native, reference, func(t *RateTable) (Point, Source, bool) {
		p, ok := t.Latest()
		return p, SourceLatest, ok
	})
}

func (n *Normalizer) resolve(native, reference string, lookup func(*RateTable) (Point, Source, bool)) (Rate, error) {
	native, reference = Code(native), Code(reference)
	if native == reference {
		return Rate{Value: decimal.NewFromInt(1), Source: SourceIdentity}, nil
	}

	// Quote -> Base multiplies, Base -> Quote divides.
	direct := Pair{Base: reference, Quote: native}
	inverse := Pair{Base: native, Quote: reference}

	for _, candidate := range []struct {
		pair     Pair
		inverted bool
	}{{direct, false}, {inverse, true}} {
		if t, ok := n.tables[candidate.pair]; ok {
			if p, src, found := lookup(t); found {
				return Rate{Value: p.Value, Date: p.Date, Source: src, Inverted: candidate.inverted}, nil
			}
		}
	}

	if v, ok := n.defaults[direct]; ok {
		return Rate{Value: v, Source: SourceDefault}, nil
	}
	if v, ok := n.defaults[inverse]; ok {
		return Rate{Value: v, Source: SourceDefault, Inverted: true}, nil
	}

	_, hasDirect := n.tables[direct]
	_, hasInverse := n.tables[inverse]
	if !hasDirect && !hasInverse {
		return Rate{}, fmt.Errorf("%w: %s to %s", apperrors.ErrUnsupportedCurrencyPair, native, reference)
	}
	return Rate{}, fmt.Errorf("%w: %s to %s", apperrors.ErrRateNotFound, native, reference)
}
