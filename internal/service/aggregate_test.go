package service_test

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
	"github.com/ndewijer/portfolio-engine/internal/currency"
	"github.com/ndewijer/portfolio-engine/internal/model"
	"github.com/ndewijer/portfolio-engine/internal/service"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func on(day int) time.Time { return day0.AddDate(0, 0, day) }

func assertDecimal(t *testing.T, want float64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(decimal.NewFromFloat(want)), append([]any{"want %v, got %s", want, got}, msgAndArgs...)...)
}

func assertApprox(t *testing.T, want float64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want, got.InexactFloat64(), 1e-9, msgAndArgs...)
}

func tx(id, instrumentID string, day int, typ model.TransactionType, qty, price, commission float64, cur string) model.Transaction {
	return model.Transaction{
		ID: id, UserID: "user-1", InstrumentID: instrumentID, Date: on(day), Type: typ,
		Quantity: qty, Price: price, Commission: commission, Currency: cur,
	}
}

func cashflow(id, instrumentID string, day int, typ model.CashflowType, status model.CashflowStatus, amount float64, cur string) model.Cashflow {
	return model.Cashflow{
		ID: id, UserID: "user-1", InstrumentID: instrumentID, Date: on(day),
		Amount: amount, Currency: cur, Type: typ, Status: status,
	}
}

func stock(id, ticker, cur string) model.Instrument {
	return model.Instrument{ID: id, Ticker: ticker, Name: ticker, Type: model.InstrumentTypeStock, Currency: cur}
}

func findPosition(t *testing.T, stats model.Statistics, id string) model.Position {
	t.Helper()
	for _, p := range stats.Positions {
		if p.InstrumentID == id {
			return p
		}
	}
	t.Fatalf("position %s not found", id)
	return model.Position{}
}

// TestAggregate_EndToEnd tests lot matching through the aggregate figures.
//
// WHY: The realized and unrealized split is the core output of the engine. A
// partial sell must realize exactly the consumed share of the buy commission.
func TestAggregate_EndToEnd(t *testing.T) {
	snap := service.Snapshot{
		UserID:      "user-1",
		AsOf:        on(200),
		Instruments: map[string]model.Instrument{"aapl": stock("aapl", "AAPL", "USD")},
		Transactions: []model.Transaction{
			tx("t2", "aapl", 100, model.TransactionTypeSell, 40, 12, 2, "USD"),
			tx("t1", "aapl", 0, model.TransactionTypeBuy, 100, 10, 5, "USD"),
		},
		Prices: []model.Price{
			{ID: "p1", InstrumentID: "aapl", Date: on(150), Price: 11, Currency: "USD"},
			{ID: "p2", InstrumentID: "aapl", Date: on(250), Price: 99, Currency: "USD"},
		},
	}

	stats, err := service.Aggregate(snap, service.DefaultOptions("USD"))
	require.NoError(t, err)

	assert.Empty(t, stats.Issues)
	assert.Empty(t, stats.ExcludedInstruments)
	require.Len(t, stats.Positions, 1)

	pos := stats.Positions[0]
	assertDecimal(t, 60, pos.Quantity)
	assertDecimal(t, 603, pos.CostBasis)
	assertDecimal(t, 10.05, pos.AveragePrice)
	assertDecimal(t, 11, pos.CurrentPrice, "price after the as-of date is ignored")
	assertDecimal(t, 660, pos.MarketValue)
	assertDecimal(t, 57, pos.UnrealizedGain)
	assertDecimal(t, 76, pos.RealizedGain)
	assertDecimal(t, 402, pos.RealizedCostBasis)
	require.NotNil(t, pos.XIRR, "buy and sell give a sign change")
	assert.Nil(t, pos.TheoreticalYield, "no projected cashflows")

	assertDecimal(t, 603, stats.CapitalInvested)
	assertDecimal(t, 660, stats.MarketValue)
	assertDecimal(t, 76, stats.RealizedGain)
	assertApprox(t, 76.0/402.0, stats.RealizedGainPercent)
	assertApprox(t, 57.0/603.0, stats.UnrealizedGainPercent)
	assertDecimal(t, -1, stats.ROI, "no cashflows recorded against the open cost")

	require.Len(t, stats.Breakdown, 1)
	assertDecimal(t, 1, stats.Breakdown[0].Share)
}

// TestAggregate_IgnoresRecordsAfterAsOf tests that trades and rates dated after
// the as-of day do not leak into the figures, even when the caller passes them.
func TestAggregate_IgnoresRecordsAfterAsOf(t *testing.T) {
	snap := service.Snapshot{
		UserID:      "user-1",
		AsOf:        on(200),
		Instruments: map[string]model.Instrument{"aapl": stock("aapl", "AAPL", "USD")},
		Transactions: []model.Transaction{
			tx("t1", "aapl", 0, model.TransactionTypeBuy, 100, 10, 5, "USD"),
			tx("t2", "aapl", 100, model.TransactionTypeSell, 40, 12, 2, "USD"),
			tx("t3", "aapl", 300, model.TransactionTypeBuy, 1000, 10, 0, "USD"),
			tx("t4", "msft", 250, model.TransactionTypeBuy, 5, 300, 0, "USD"),
		},
		Rates: []model.ExchangeRate{
			{ID: "r1", Base: "ARS", Quote: "USD", Date: on(0), Value: 1000},
			{ID: "r2", Base: "ARS", Quote: "USD", Date: on(250), Value: 1500},
		},
		Prices: []model.Price{
			{ID: "p1", InstrumentID: "aapl", Date: on(150), Price: 11, Currency: "USD"},
		},
	}

	stats, err := service.Aggregate(snap, service.DefaultOptions("ARS"))
	require.NoError(t, err)

	assert.Empty(t, stats.RecordIssues, "future records are not invalid")
	require.Len(t, stats.Positions, 1, "an instrument first bought after as-of is not held yet")

	pos := findPosition(t, stats, "aapl")
	assertDecimal(t, 60, pos.Quantity)
	assertDecimal(t, 603000, pos.CostBasis)
	assertDecimal(t, 76000, pos.RealizedGain, "the sell falls back to the latest rate known at as-of")
	assertDecimal(t, 660000, pos.MarketValue)

	assertDecimal(t, 603000, stats.CapitalInvested)
	assertDecimal(t, 660000, stats.MarketValue)
}

// TestAggregate_CurrencyNormalization tests that every amount is converted at its own date.
func TestAggregate_CurrencyNormalization(t *testing.T) {
	snap := service.Snapshot{
		UserID:      "user-1",
		AsOf:        on(110),
		Instruments: map[string]model.Instrument{"spy": stock("spy", "SPY", "USD")},
		Transactions: []model.Transaction{
			tx("t1", "spy", 0, model.TransactionTypeBuy, 10, 5, 0, "USD"),
		},
		Rates: []model.ExchangeRate{
			{ID: "r1", Base: "ARS", Quote: "USD", Date: on(0), Value: 1000},
			{ID: "r2", Base: "ARS", Quote: "USD", Date: on(100), Value: 1200},
		},
		Prices: []model.Price{
			{ID: "p1", InstrumentID: "spy", Date: on(110), Price: 6, Currency: "USD"},
		},
	}

	stats, err := service.Aggregate(snap, service.DefaultOptions("ARS"))
	require.NoError(t, err)

	assert.Equal(t, "ARS", stats.ReferenceCurrency)
	pos := findPosition(t, stats, "spy")
	assertDecimal(t, 50000, pos.CostBasis, "bought at 1000")
	assertDecimal(t, 7200, pos.CurrentPrice, "valued with the rate 10 days earlier")
	assertDecimal(t, 72000, pos.MarketValue)
	assertDecimal(t, 22000, pos.UnrealizedGain)
}

// TestAggregate_CashflowBuckets tests the collected and pending split.
//
// WHY: Capital and interest are reported separately, and a projected payment
// whose date has passed is counted as collected.
func TestAggregate_CashflowBuckets(t *testing.T) {
	require.True(t, service.PastProjectedCountsAsCollected)

	bond := model.Instrument{ID: "gd30", Ticker: "GD30", Type: model.InstrumentTypeBond, Currency: "USD"}
	snap := service.Snapshot{
		UserID:      "user-1",
		AsOf:        on(180),
		Instruments: map[string]model.Instrument{"gd30": bond},
		Transactions: []model.Transaction{
			tx("t1", "gd30", 0, model.TransactionTypeBuy, 1000, 0.9, 0, "USD"),
		},
		Cashflows: []model.Cashflow{
			cashflow("c1", "gd30", 90, model.CashflowTypeInterest, model.CashflowStatusPaid, 20, "USD"),
			cashflow("c2", "gd30", 90, model.CashflowTypeAmortization, model.CashflowStatusPaid, 100, "USD"),
			cashflow("c3", "gd30", 170, model.CashflowTypeInterest, model.CashflowStatusProjected, 15, "USD"),
			cashflow("c4", "gd30", 270, model.CashflowTypeInterest, model.CashflowStatusProjected, 18, "USD"),
			cashflow("c5", "gd30", 270, model.CashflowTypeAmortization, model.CashflowStatusProjected, 400, "USD"),
			cashflow("c6", "gd30", 360, model.CashflowTypeAmortization, model.CashflowStatusProjected, 500, "USD"),
		},
		Prices: []model.Price{
			{ID: "p1", InstrumentID: "gd30", Date: on(179), Price: 85},
		},
	}

	stats, err := service.Aggregate(snap, service.DefaultOptions("USD"))
	require.NoError(t, err)

	assertDecimal(t, 100, stats.CapitalCollected)
	assertDecimal(t, 900, stats.CapitalPending)
	assertDecimal(t, 35, stats.InterestCollected, "past projected interest counts as collected")
	assertDecimal(t, 18, stats.InterestPending)
	assertDecimal(t, 918, stats.TotalReceivable)
	assertApprox(t, (1053.0-900.0)/900.0, stats.ROI)

	pos := findPosition(t, stats, "gd30")
	assertDecimal(t, 0.85, pos.CurrentPrice, "bond prices are quoted per 100 of nominal")
	assertDecimal(t, 850, pos.MarketValue)
	require.NotNil(t, pos.TheoreticalYield)
	assert.Greater(t, *pos.TheoreticalYield, 0.0)
	require.NotNil(t, pos.XIRR)
	assert.Greater(t, *pos.XIRR, 0.0)

	require.Len(t, stats.Upcoming, 3)
	assert.Equal(t, "c4", stats.Upcoming[0].CashflowID)
	assert.Equal(t, "c5", stats.Upcoming[1].CashflowID)
	assert.Equal(t, "c6", stats.Upcoming[2].CashflowID)
}

func TestAggregate_UpcomingOrderAndLimit(t *testing.T) {
	snap := service.Snapshot{
		UserID: "user-1",
		AsOf:   on(0),
		Instruments: map[string]model.Instrument{
			"a": stock("a", "A", "USD"),
			"b": stock("b", "B", "USD"),
		},
		Cashflows: []model.Cashflow{
			cashflow("z", "b", 30, model.CashflowTypeInterest, model.CashflowStatusProjected, 1, "USD"),
			cashflow("y", "a", 30, model.CashflowTypeInterest, model.CashflowStatusProjected, 1, "USD"),
			cashflow("x", "a", 10, model.CashflowTypeInterest, model.CashflowStatusProjected, 1, "USD"),
			cashflow("w", "b", 60, model.CashflowTypeInterest, model.CashflowStatusProjected, 1, "USD"),
			cashflow("paid", "a", 40, model.CashflowTypeInterest, model.CashflowStatusPaid, 1, "USD"),
		},
	}

	opts := service.DefaultOptions("USD")
	opts.UpcomingLimit = 3

	stats, err := service.Aggregate(snap, opts)
	require.NoError(t, err)

	ids := make([]string, 0, len(stats.Upcoming))
	for _, u := range stats.Upcoming {
		ids = append(ids, u.CashflowID)
	}
	assert.Equal(t, []string{"x", "y", "z"}, ids)
}

// TestAggregate_ExcludesFailedInstruments tests per-instrument failure isolation.
//
// WHY: One broken ledger must not zero or distort the rest of the portfolio,
// and the failure must be visible in the result.
func TestAggregate_ExcludesFailedInstruments(t *testing.T) {
	snap := service.Snapshot{
		UserID: "user-1",
		AsOf:   on(30),
		Instruments: map[string]model.Instrument{
			"ok":       stock("ok", "OK", "USD"),
			"oversold": stock("oversold", "OVR", "USD"),
			"eur":      stock("eur", "EUR", "EUR"),
		},
		Transactions: []model.Transaction{
			tx("t1", "ok", 0, model.TransactionTypeBuy, 10, 10, 0, "USD"),
			tx("t2", "oversold", 0, model.TransactionTypeBuy, 5, 10, 0, "USD"),
			tx("t3", "oversold", 1, model.TransactionTypeSell, 6, 10, 0, "USD"),
			tx("t4", "eur", 0, model.TransactionTypeBuy, 1, 10, 0, "EUR"),
		},
		Cashflows: []model.Cashflow{
			cashflow("c1", "oversold", 5, model.CashflowTypeInterest, model.CashflowStatusPaid, 50, "USD"),
		},
		Prices: []model.Price{
			{ID: "p1", InstrumentID: "ok", Date: on(30), Price: 12, Currency: "USD"},
		},
	}

	stats, err := service.Aggregate(snap, service.DefaultOptions("USD"))
	require.NoError(t, err)

	assert.Equal(t, []string{"eur", "oversold"}, stats.ExcludedInstruments)
	require.Len(t, stats.Positions, 1)
	assert.Equal(t, "ok", stats.Positions[0].InstrumentID)

	assertDecimal(t, 100, stats.CapitalInvested)
	assertDecimal(t, 120, stats.MarketValue)
	assertDecimal(t, 0, stats.InterestCollected, "cashflows of excluded instruments are dropped")

	kinds := map[string]model.IssueKind{}
	for _, issue := range stats.Issues {
		if issue.Excluded {
			kinds[issue.InstrumentID] = issue.Kind
		}
	}
	assert.Equal(t, model.IssueInventory, kinds["oversold"])
	assert.Equal(t, model.IssueNormalization, kinds["eur"])
}

func TestAggregate_DefaultRateIsReported(t *testing.T) {
	snap := service.Snapshot{
		UserID:      "user-1",
		AsOf:        on(10),
		Instruments: map[string]model.Instrument{"spy": stock("spy", "SPY", "USD")},
		Transactions: []model.Transaction{
			tx("t1", "spy", 0, model.TransactionTypeBuy, 1, 10, 0, "USD"),
		},
	}

	opts := service.DefaultOptions("ARS")
	opts.DefaultRates = map[currency.Pair]decimal.Decimal{
		currency.NewPair("ARS", "USD"): decimal.NewFromInt(1000),
	}

	stats, err := service.Aggregate(snap, opts)
	require.NoError(t, err)

	assert.Empty(t, stats.ExcludedInstruments)
	assertDecimal(t, 10000, stats.CapitalInvested)

	var found bool
	for _, issue := range stats.Issues {
		if issue.Kind == model.IssueDefaultRate {
			found = true
			assert.False(t, issue.Excluded)
		}
	}
	assert.True(t, found, "default rate usage must be surfaced")
}

func TestAggregate_InvalidRecordsAreReported(t *testing.T) {
	snap := service.Snapshot{
		UserID:      "user-1",
		AsOf:        on(10),
		Instruments: map[string]model.Instrument{"spy": stock("spy", "SPY", "USD")},
		Transactions: []model.Transaction{
			tx("t1", "spy", 0, model.TransactionTypeBuy, 1, 10, 0, "USD"),
			tx("bad", "spy", 1, model.TransactionTypeBuy, math.NaN(), 10, 0, "USD"),
		},
		Rates: []model.ExchangeRate{
			{ID: "zero", Base: "ARS", Quote: "USD", Date: on(0), Value: 0},
		},
	}

	stats, err := service.Aggregate(snap, service.DefaultOptions("USD"))
	require.NoError(t, err)

	require.Len(t, stats.RecordIssues, 2)
	assert.Equal(t, "bad", stats.RecordIssues[0].RecordID)
	assert.Equal(t, model.RecordTransaction, stats.RecordIssues[0].Kind)
	assert.Equal(t, "zero", stats.RecordIssues[1].RecordID)
	assert.Equal(t, model.RecordExchangeRate, stats.RecordIssues[1].Kind)
	assertDecimal(t, 10, stats.CapitalInvested)
}

func TestAggregate_MissingPriceAndMetadata(t *testing.T) {
	snap := service.Snapshot{
		UserID: "user-1",
		AsOf:   on(10),
		Transactions: []model.Transaction{
			tx("t1", "unknown", 0, model.TransactionTypeBuy, 3, 10, 0, "USD"),
		},
	}

	stats, err := service.Aggregate(snap, service.DefaultOptions("USD"))
	require.NoError(t, err)

	kinds := map[model.IssueKind]bool{}
	for _, issue := range stats.Issues {
		kinds[issue.Kind] = true
		assert.False(t, issue.Excluded)
	}
	assert.True(t, kinds[model.IssueMissingMetadata])
	assert.True(t, kinds[model.IssueMissingPrice])

	pos := findPosition(t, stats, "unknown")
	assertDecimal(t, 0, pos.MarketValue)
	assertDecimal(t, 30, pos.CostBasis)
}

func TestAggregate_BreakdownOrdering(t *testing.T) {
	snap := service.Snapshot{
		UserID: "user-1",
		AsOf:   on(10),
		Instruments: map[string]model.Instrument{
			"a": stock("a", "A", "USD"),
			"b": stock("b", "B", "USD"),
			"c": stock("c", "C", "USD"),
		},
		Transactions: []model.Transaction{
			tx("t1", "a", 0, model.TransactionTypeBuy, 1, 100, 0, "USD"),
			tx("t2", "b", 0, model.TransactionTypeBuy, 3, 100, 0, "USD"),
			tx("t3", "c", 0, model.TransactionTypeBuy, 1, 100, 0, "USD"),
		},
		Prices: []model.Price{
			{ID: "p1", InstrumentID: "a", Date: on(10), Price: 100, Currency: "USD"},
			{ID: "p2", InstrumentID: "b", Date: on(10), Price: 100, Currency: "USD"},
			{ID: "p3", InstrumentID: "c", Date: on(10), Price: 100, Currency: "USD"},
		},
	}

	stats, err := service.Aggregate(snap, service.DefaultOptions("USD"))
	require.NoError(t, err)

	require.Len(t, stats.Breakdown, 3)
	assert.Equal(t, "b", stats.Breakdown[0].InstrumentID)
	assert.Equal(t, "a", stats.Breakdown[1].InstrumentID, "ties are ordered by instrument ID")
	assert.Equal(t, "c", stats.Breakdown[2].InstrumentID)
	assertDecimal(t, 0.6, stats.Breakdown[0].Share)
	assertDecimal(t, 0.2, stats.Breakdown[1].Share)
}

func TestAggregate_EmptySnapshot(t *testing.T) {
	stats, err := service.Aggregate(service.Snapshot{UserID: "user-1", AsOf: on(0)}, service.DefaultOptions("USD"))
	require.NoError(t, err)

	assertDecimal(t, 0, stats.ROI, "zero capital never divides")
	assert.Nil(t, stats.XIRR)
	assert.Empty(t, stats.Positions)
	assert.Empty(t, stats.Breakdown)
}

func TestAggregate_Deterministic(t *testing.T) {
	instruments := map[string]model.Instrument{}
	var txs []model.Transaction
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		instruments[id] = stock(id, id, "USD")
		txs = append(txs, tx("t"+id, id, i, model.TransactionTypeBuy, float64(i+1), 10, 1, "USD"))
	}
	snap := service.Snapshot{UserID: "user-1", AsOf: on(30), Instruments: instruments, Transactions: txs}

	opts := service.DefaultOptions("USD")
	first, err := service.Aggregate(snap, opts)
	require.NoError(t, err)

	opts.Workers = 1
	second, err := service.Aggregate(snap, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregate_InvalidOptions(t *testing.T) {
	_, err := service.Aggregate(service.Snapshot{AsOf: on(0)}, service.Options{})
	assert.ErrorIs(t, err, apperrors.ErrMissingReferenceCurrency)

	_, err = service.Aggregate(service.Snapshot{}, service.DefaultOptions("USD"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
}
