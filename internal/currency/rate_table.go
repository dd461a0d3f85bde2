// Package currency converts amounts between currencies using sparse daily rate tables.
//
// A RateTable is an immutable, date-sorted snapshot of one currency pair. It is
// built once per computation and shared read-only, so lookups need no locking.
package currency

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Pair identifies a rate table: each point is the price of one Quote unit in Base.
// The textual form is "QUOTE/BASE", e.g. "USD/ARS" for pesos per dollar.
type Pair struct {
	Base  string
	Quote string
}

// NewPair builds a pair with normalized currency codes.
func NewPair(base, quote string) Pair {
	return Pair{Base: Code(base), Quote: Code(quote)}
}

// ParsePair parses the "QUOTE/BASE" form.
func ParsePair(s string) (Pair, error) {
	quote, base, ok := strings.Cut(s, "/")
	if !ok || strings.TrimSpace(quote) == "" || strings.TrimSpace(base) == "" {
		return Pair{}, fmt.Errorf("invalid currency pair %q: expected QUOTE/BASE", s)
	}
	return NewPair(base, quote), nil
}

func (p Pair) String() string {
	return p.Quote + "/" + p.Base
}

// Code normalizes a currency code for comparison.
func Code(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

// Point is one daily observation.
type Point struct {
	Date  time.Time
	Value decimal.Decimal
}

// RateTable holds the observations of one pair sorted by ascending date,
// one point per calendar day.
type RateTable struct {
	pair   Pair
	points []Point
}

// NewRateTable copies and sorts the given points. Dates are truncated to the
// calendar day; when a day appears twice the last occurrence wins.
func NewRateTable(pair Pair, points []Point) *RateTable {
	sorted := make([]Point, len(points))
	for i, p := range points {
		sorted[i] = Point{Date: Day(p.Date), Value: p.Value}
	}
	slices.SortStableFunc(sorted, func(a, b Point) int {
		return a.Date.Compare(b.Date)
	})

	deduped := sorted[:0]
	for _, p := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(p.Date) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}

	return &RateTable{pair: pair, points: deduped}
}

// Pair returns the currency pair of the table.
func (t *RateTable) Pair() Pair { return t.pair }

// Len returns the number of distinct days with a rate.
func (t *RateTable) Len() int { return len(t.points) }

// OnOrBefore returns the most recent point dated on or before the given day.
func (t *RateTable) OnOrBefore(date time.Time) (Point, bool) {
	day := Day(date)
	// first index strictly after day
	i := sort.Search(len(t.points), func(i int) bool {
		return t.points[i].Date.After(day)
	})
	if i == 0 {
		return Point{}, false
	}
	return t.points[i-1], true
}

// Latest returns the most recent point of the table.
func (t *RateTable) Latest() (Point, bool) {
	if len(t.points) == 0 {
		return Point{}, false
	}
	return t.points[len(t.points)-1], true
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
