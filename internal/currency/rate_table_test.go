package currency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateTable_SortsAndDeduplicates(t *testing.T) {
	pair := NewPair("ARS", "USD")
	table := NewRateTable(pair, []Point{
		{Date: date("2024-01-03"), Value: dec(3)},
		{Date: date("2024-01-01"), Value: dec(1)},
		{Date: time.Date(2024, 1, 3, 18, 30, 0, 0, time.UTC), Value: dec(33)},
	})

	require.Equal(t, 2, table.Len())

	latest, ok := table.Latest()
	require.True(t, ok)
	assert.True(t, latest.Value.Equal(dec(33)), "last occurrence of a day wins")
	assert.Equal(t, date("2024-01-03"), latest.Date)
}

func TestRateTable_OnOrBefore(t *testing.T) {
	table := NewRateTable(NewPair("ARS", "USD"), []Point{
		{Date: date("2024-01-01"), Value: dec(1)},
		{Date: date("2024-01-05"), Value: dec(5)},
	})

	tests := []struct {
		name   string
		on     time.Time
		want   float64
		wantOK bool
	}{
		{"before first", date("2023-12-31"), 0, false},
		{"exact first", date("2024-01-01"), 1, true},
		{"between", date("2024-01-04"), 1, true},
		{"exact last", date("2024-01-05"), 5, true},
		{"intraday time ignored", time.Date(2024, 1, 5, 23, 59, 0, 0, time.UTC), 5, true},
		{"after last", date("2024-02-01"), 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := table.OnOrBefore(tt.on)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, p.Value.Equal(dec(tt.want)), "got %s", p.Value)
			}
		})
	}
}

func TestRateTable_Empty(t *testing.T) {
	table := NewRateTable(NewPair("ARS", "USD"), nil)

	_, ok := table.Latest()
	assert.False(t, ok)
	_, ok = table.OnOrBefore(date("2024-01-01"))
	assert.False(t, ok)
}
