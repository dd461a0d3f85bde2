package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
	"github.com/ndewijer/portfolio-engine/internal/currency"
	"github.com/ndewijer/portfolio-engine/internal/model"
	"github.com/ndewijer/portfolio-engine/internal/validation"
	"github.com/ndewijer/portfolio-engine/internal/xirr"
)

// Aggregate computes the portfolio statistics of a snapshot.
//
// Records are validated first; rejected ones are reported in RecordIssues and
// otherwise ignored. Instruments are then computed independently (bounded by
// opts.Workers) and merged in instrument ID order, so the result does not
// depend on scheduling. An instrument whose lots cannot be matched or whose
// amounts cannot be normalized is excluded from every figure and listed in
// ExcludedInstruments.
//
// Parameters:
//   - snap: the user's ledger and market data, with the as-of instant
//   - opts: reference currency and accounting policy
//
// Returns:
//   - model.Statistics: aggregate figures in the reference currency
//   - error: only for unusable options or a missing as-of date
func Aggregate(snap Snapshot, opts Options) (model.Statistics, error) {
	reference := currency.Code(opts.ReferenceCurrency)
	if reference == "" {
		return model.Statistics{}, apperrors.ErrMissingReferenceCurrency
	}
	if snap.AsOf.IsZero() {
		return model.Statistics{}, fmt.Errorf("%w: as-of date is required", apperrors.ErrInvalidDate)
	}
	if opts.UpcomingLimit <= 0 {
		opts.UpcomingLimit = DefaultUpcomingLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	stats := model.Statistics{
		UserID:            snap.UserID,
		AsOf:              snap.AsOf,
		ReferenceCurrency: reference,
	}

	inputs, rates, recordIssues := partition(snap)
	stats.RecordIssues = recordIssues

	valid := snap
	valid.Rates = rates
	normalizer := valid.normalizer(opts)

	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]instrumentResult, len(ids))
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			results[i] = computeInstrument(*inputs[id], normalizer, reference, snap.AsOf)
			return nil
		})
	}
	_ = g.Wait()

	var (
		buckets             cashflowBuckets
		consolidated        []xirr.Flow
		unrealizedCostBasis = decimal.Zero
	)
	for _, r := range results {
		stats.Issues = append(stats.Issues, r.issues...)
		if r.excluded {
			stats.ExcludedInstruments = append(stats.ExcludedInstruments, r.id)
			continue
		}

		pos := r.position
		stats.Positions = append(stats.Positions, pos)
		stats.Upcoming = append(stats.Upcoming, r.upcoming...)
		consolidated = append(consolidated, r.flows...)
		buckets.merge(r.buckets)

		stats.CapitalInvested = stats.CapitalInvested.Add(pos.CostBasis)
		stats.MarketValue = stats.MarketValue.Add(pos.MarketValue)
		stats.RealizedGain = stats.RealizedGain.Add(pos.RealizedGain)
		stats.RealizedCostBasis = stats.RealizedCostBasis.Add(pos.RealizedCostBasis)
		if pos.Quantity.IsPositive() {
			stats.UnrealizedGain = stats.UnrealizedGain.Add(pos.UnrealizedGain)
			unrealizedCostBasis = unrealizedCostBasis.Add(pos.CostBasis)
		}
	}

	stats.CapitalCollected = buckets.CapitalCollected
	stats.CapitalPending = buckets.CapitalPending
	stats.InterestCollected = buckets.InterestCollected
	stats.InterestPending = buckets.InterestPending
	stats.TotalReceivable = buckets.CapitalPending.Add(buckets.InterestPending)
	stats.ROI = ratio(buckets.total().Sub(stats.CapitalInvested), stats.CapitalInvested)
	stats.XIRR = solveRateReported("", "consolidated xirr", consolidated, &stats.Issues)

	stats.UnrealizedCostBasis = unrealizedCostBasis
	stats.RealizedGainPercent = ratio(stats.RealizedGain, stats.RealizedCostBasis)
	stats.UnrealizedGainPercent = ratio(stats.UnrealizedGain, unrealizedCostBasis)

	stats.Breakdown = buildBreakdown(stats.Positions)
	stats.Upcoming = sortUpcoming(stats.Upcoming, opts.UpcomingLimit)

	return stats, nil
}

// partition validates every record and groups the survivors by instrument.
// Exchange rates are not instrument scoped and are returned separately.
// Transactions and rates dated after the as-of day had not happened yet and are
// left out; cashflows are kept because future ones are pending payments.
func partition(snap Snapshot) (map[string]*instrumentInput, []model.ExchangeRate, []model.RecordIssue) {
	inputs := make(map[string]*instrumentInput)
	var issues []model.RecordIssue
	asOfDay := currency.Day(snap.AsOf)

	get := func(id string) *instrumentInput {
		in, ok := inputs[id]
		if !ok {
			inst, found := snap.Instruments[id]
			if !found {
				inst = model.Instrument{ID: id}
			}
			in = &instrumentInput{id: id, instrument: inst, hasMetadata: found}
			inputs[id] = in
		}
		return in
	}

	for _, tx := range snap.Transactions {
		if err := validation.ValidateTransaction(tx); err != nil {
			issues = append(issues, recordIssue(tx.ID, model.RecordTransaction, tx.InstrumentID, err))
			continue
		}
		if currency.Day(tx.Date).After(asOfDay) {
			continue
		}
		in := get(tx.InstrumentID)
		in.transactions = append(in.transactions, tx)
	}

	for _, cf := range snap.Cashflows {
		if err := validation.ValidateCashflow(cf); err != nil {
			issues = append(issues, recordIssue(cf.ID, model.RecordCashflow, cf.InstrumentID, err))
			continue
		}
		in := get(cf.InstrumentID)
		in.cashflows = append(in.cashflows, cf)
	}

	for _, p := range snap.Prices {
		if err := validation.ValidatePrice(p); err != nil {
			issues = append(issues, recordIssue(p.ID, model.RecordPrice, p.InstrumentID, err))
			continue
		}
		// Prices alone do not make an instrument part of the portfolio.
		if in, ok := inputs[p.InstrumentID]; ok {
			in.prices = append(in.prices, p)
		}
	}

	rates := make([]model.ExchangeRate, 0, len(snap.Rates))
	for _, r := range snap.Rates {
		if err := validation.ValidateExchangeRate(r); err != nil {
			issues = append(issues, recordIssue(r.ID, model.RecordExchangeRate, "", err))
			continue
		}
		if currency.Day(r.Date).After(asOfDay) {
			continue
		}
		rates = append(rates, r)
	}

	return inputs, rates, issues
}

func recordIssue(id string, kind model.RecordKind, instrumentID string, err error) model.RecordIssue {
	return model.RecordIssue{
		RecordID:     id,
		Kind:         kind,
		InstrumentID: strings.TrimSpace(instrumentID),
		Message:      err.Error(),
	}
}

// buildBreakdown ranks positions by market value, largest first, with the
// instrument ID as tie-breaker. Shares add up to one unless the total is zero.
func buildBreakdown(positions []model.Position) []model.BreakdownEntry {
	total := decimal.Zero
	for _, p := range positions {
		total = total.Add(p.MarketValue)
	}

	entries := make([]model.BreakdownEntry, 0, len(positions))
	for _, p := range positions {
		entries = append(entries, model.BreakdownEntry{
			InstrumentID: p.InstrumentID,
			Ticker:       p.Ticker,
			MarketValue:  p.MarketValue,
			Share:        ratio(p.MarketValue, total),
			XIRR:         p.XIRR,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].MarketValue.Cmp(entries[j].MarketValue); c != 0 {
			return c > 0
		}
		return entries[i].InstrumentID < entries[j].InstrumentID
	})
	return entries
}

// sortUpcoming orders payments by date then cashflow ID and keeps the first limit.
func sortUpcoming(payments []model.UpcomingPayment, limit int) []model.UpcomingPayment {
	sort.SliceStable(payments, func(i, j int) bool {
		if !payments[i].Date.Equal(payments[j].Date) {
			return payments[i].Date.Before(payments[j].Date)
		}
		return payments[i].CashflowID < payments[j].CashflowID
	})
	if len(payments) > limit {
		payments = payments[:limit]
	}
	return payments
}
