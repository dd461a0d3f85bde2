package service

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-engine/internal/currency"
	"github.com/ndewijer/portfolio-engine/internal/fifo"
	"github.com/ndewijer/portfolio-engine/internal/model"
	"github.com/ndewijer/portfolio-engine/internal/xirr"
)

// instrumentInput is the validated slice of the snapshot belonging to one instrument.
type instrumentInput struct {
	id           string
	instrument   model.Instrument
	hasMetadata  bool
	transactions []model.Transaction
	cashflows    []model.Cashflow
	prices       []model.Price
}

// instrumentResult is everything one instrument contributes to the statistics.
// When excluded is set only issues may be used.
type instrumentResult struct {
	id       string
	position model.Position
	flows    []xirr.Flow
	buckets  cashflowBuckets
	upcoming []model.UpcomingPayment
	issues   []model.InstrumentIssue
	excluded bool
}

// cashflowBuckets splits cashflows by kind (capital or interest) and by
// whether they are collected or still pending.
type cashflowBuckets struct {
	CapitalCollected  decimal.Decimal
	CapitalPending    decimal.Decimal
	InterestCollected decimal.Decimal
	InterestPending   decimal.Decimal
}

func (b *cashflowBuckets) add(cf model.Cashflow, amount decimal.Decimal, future bool) {
	collected := cf.Status == model.CashflowStatusPaid || (!future && PastProjectedCountsAsCollected)

	switch cf.Type {
	case model.CashflowTypeAmortization:
		if collected {
			b.CapitalCollected = b.CapitalCollected.Add(amount)
		} else {
			b.CapitalPending = b.CapitalPending.Add(amount)
		}
	case model.CashflowTypeInterest:
		if collected {
			b.InterestCollected = b.InterestCollected.Add(amount)
		} else {
			b.InterestPending = b.InterestPending.Add(amount)
		}
	}
}

// total is everything received or still to be received.
func (b cashflowBuckets) total() decimal.Decimal {
	return b.CapitalCollected.Add(b.CapitalPending).Add(b.InterestCollected).Add(b.InterestPending)
}

func (b *cashflowBuckets) merge(o cashflowBuckets) {
	b.CapitalCollected = b.CapitalCollected.Add(o.CapitalCollected)
	b.CapitalPending = b.CapitalPending.Add(o.CapitalPending)
	b.InterestCollected = b.InterestCollected.Add(o.InterestCollected)
	b.InterestPending = b.InterestPending.Add(o.InterestPending)
}

// converter normalizes amounts for one instrument and remembers whether a
// configured default rate had to be used.
type converter struct {
	normalizer  *currency.Normalizer
	reference   string
	asOf        time.Time
	usedDefault bool
}

// at converts with the rate of date (with the normal fallback policy).
func (c *converter) at(amount decimal.Decimal, cur string, date time.Time) (decimal.Decimal, error) {
	rate, err := c.normalizer.Rate(cur, c.reference, date)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.Source == currency.SourceDefault {
		c.usedDefault = true
	}
	return rate.Apply(amount)
}

// dated converts past amounts at their historical rate and future ones at the latest known rate.
func (c *converter) dated(amount decimal.Decimal, cur string, date time.Time) (decimal.Decimal, error) {
	if !c.isFuture(date) {
		return c.at(amount, cur, date)
	}
	rate, err := c.normalizer.LatestRate(cur, c.reference)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.Source == currency.SourceDefault {
		c.usedDefault = true
	}
	return rate.Apply(amount)
}

func (c *converter) isFuture(date time.Time) bool {
	return currency.Day(date).After(currency.Day(c.asOf))
}

// computeInstrument runs the full per-instrument pipeline: normalization,
// FIFO matching, valuation, cashflow classification and both return measures.
// A normalization or inventory failure excludes the instrument.
func computeInstrument(in instrumentInput, n *currency.Normalizer, reference string, asOf time.Time) instrumentResult {
	res := instrumentResult{id: in.id}
	conv := &converter{normalizer: n, reference: reference, asOf: asOf}

	exclude := func(kind model.IssueKind, err error) instrumentResult {
		res.excluded = true
		res.issues = append(res.issues, model.InstrumentIssue{
			InstrumentID: in.id,
			Kind:         kind,
			Message:      err.Error(),
			Excluded:     true,
		})
		return res
	}

	if !in.hasMetadata {
		res.issues = append(res.issues, model.InstrumentIssue{
			InstrumentID: in.id,
			Kind:         model.IssueMissingMetadata,
			Message:      "instrument metadata not found; prices are read per unit",
		})
	}

	trades := make([]fifo.Trade, 0, len(in.transactions))
	for _, tx := range in.transactions {
		price, err := conv.at(decimal.NewFromFloat(tx.Price), tx.Currency, tx.Date)
		if err != nil {
			return exclude(model.IssueNormalization, fmt.Errorf("transaction %s: %w", tx.ID, err))
		}
		commission, err := conv.at(decimal.NewFromFloat(tx.Commission), tx.Currency, tx.Date)
		if err != nil {
			return exclude(model.IssueNormalization, fmt.Errorf("transaction %s: %w", tx.ID, err))
		}
		trades = append(trades, fifo.Trade{
			ID:         tx.ID,
			Date:       tx.Date,
			Type:       tx.Type,
			Quantity:   decimal.NewFromFloat(tx.Quantity),
			Price:      price,
			Commission: commission,
		})
	}
	fifo.SortTrades(trades)

	lots, err := fifo.Match(trades)
	if err != nil {
		return exclude(model.IssueInventory, err)
	}

	quantity := lots.OpenQuantity()
	costBasis := lots.OpenCostBasis()

	pos := model.Position{
		InstrumentID:      in.id,
		Ticker:            in.instrument.Ticker,
		Name:              in.instrument.Name,
		Type:              in.instrument.Type,
		Quantity:          quantity,
		CostBasis:         costBasis,
		RealizedGain:      lots.RealizedGain(),
		RealizedCostBasis: lots.RealizedCostBasis(),
	}

	if quote, ok := latestPrice(in, asOf, reference); ok {
		unit := quote.price
		if in.instrument.Type.QuoteConvention() == model.QuotePercentOfPar {
			unit = unit.Div(decimal.NewFromInt(100))
		}
		price, err := conv.at(unit, quote.currency, asOf)
		if err != nil {
			return exclude(model.IssueNormalization, fmt.Errorf("price: %w", err))
		}
		pos.CurrentPrice = price
		pos.PriceDate = quote.date
	} else if quantity.IsPositive() {
		res.issues = append(res.issues, model.InstrumentIssue{
			InstrumentID: in.id,
			Kind:         model.IssueMissingPrice,
			Message:      "no price available; market value reported as zero",
		})
	}

	pos.MarketValue = quantity.Mul(pos.CurrentPrice)
	if quantity.IsPositive() {
		pos.UnrealizedGain = pos.MarketValue.Sub(costBasis)
		pos.AveragePrice = costBasis.Div(quantity)
	}

	flows := make([]xirr.Flow, 0, len(trades)+len(in.cashflows))
	for _, tr := range trades {
		flows = append(flows, toSignedFlow(tr))
	}

	var futureFlows []xirr.Flow
	for _, cf := range in.cashflows {
		native := decimal.NewFromFloat(cf.Amount)
		amount, err := conv.dated(native, cf.Currency, cf.Date)
		if err != nil {
			return exclude(model.IssueNormalization, fmt.Errorf("cashflow %s: %w", cf.ID, err))
		}

		future := conv.isFuture(cf.Date)
		res.buckets.add(cf, amount, future)

		flow := xirr.Flow{Date: cf.Date, Amount: amount.InexactFloat64()}
		flows = append(flows, flow)

		if future && cf.Status == model.CashflowStatusProjected {
			futureFlows = append(futureFlows, flow)
			res.upcoming = append(res.upcoming, model.UpcomingPayment{
				CashflowID:   cf.ID,
				InstrumentID: in.id,
				Ticker:       in.instrument.Ticker,
				Date:         cf.Date,
				Type:         cf.Type,
				Amount:       amount,
				NativeAmount: native,
				Currency:     currency.Code(cf.Currency),
			})
		}
	}

	pos.XIRR = solveRateReported(in.id, "xirr", flows, &res.issues)
	if pos.MarketValue.IsPositive() && len(futureFlows) > 0 {
		yieldFlows := make([]xirr.Flow, 0, len(futureFlows)+1)
		yieldFlows = append(yieldFlows, xirr.Flow{Date: asOf, Amount: pos.MarketValue.Neg().InexactFloat64()})
		yieldFlows = append(yieldFlows, futureFlows...)
		pos.TheoreticalYield = solveRateReported(in.id, "theoretical yield", yieldFlows, &res.issues)
	}

	if conv.usedDefault {
		res.issues = append(res.issues, model.InstrumentIssue{
			InstrumentID: in.id,
			Kind:         model.IssueDefaultRate,
			Message:      "no exchange rate available for at least one amount; configured default rate used",
		})
	}

	res.position = pos
	res.flows = flows
	return res
}

type priceQuote struct {
	price    decimal.Decimal
	date     time.Time
	currency string
}

// latestPrice prefers the most recent price record dated on or before asOf and
// falls back to the instrument's stored last price. Prices without a currency
// are read in the instrument currency, then in the reference currency.
func latestPrice(in instrumentInput, asOf time.Time, reference string) (priceQuote, bool) {
	fallbackCurrency := in.instrument.Currency
	if fallbackCurrency == "" {
		fallbackCurrency = reference
	}

	limit := currency.Day(asOf)
	var best *model.Price
	for i := range in.prices {
		p := &in.prices[i]
		if currency.Day(p.Date).After(limit) {
			continue
		}
		if best == nil || !p.Date.Before(best.Date) {
			best = p
		}
	}
	if best != nil {
		cur := best.Currency
		if cur == "" {
			cur = fallbackCurrency
		}
		return priceQuote{price: decimal.NewFromFloat(best.Price), date: best.Date, currency: cur}, true
	}

	last := in.instrument.LastPrice
	if last > 0 && !math.IsInf(last, 0) && !math.IsNaN(last) {
		return priceQuote{price: decimal.NewFromFloat(last), date: in.instrument.LastPriceDate, currency: fallbackCurrency}, true
	}
	return priceQuote{}, false
}
