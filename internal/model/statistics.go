package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the enriched per-instrument view computed for one request.
// All monetary values are expressed in the reference currency.
type Position struct {
	InstrumentID      string
	Ticker            string
	Name              string
	Type              InstrumentType
	Quantity          decimal.Decimal
	AveragePrice      decimal.Decimal // open cost basis / quantity, commission included
	CostBasis         decimal.Decimal // open lots only
	CurrentPrice      decimal.Decimal // per unit, after quote convention and conversion
	PriceDate         time.Time
	MarketValue       decimal.Decimal
	UnrealizedGain    decimal.Decimal
	RealizedGain      decimal.Decimal
	RealizedCostBasis decimal.Decimal
	TheoreticalYield  *float64 // IRR if held to maturity from the as-of date
	XIRR              *float64 // personal money-weighted return
}

// BreakdownEntry is one row of the portfolio breakdown, ranked by market value.
type BreakdownEntry struct {
	InstrumentID string
	Ticker       string
	MarketValue  decimal.Decimal
	Share        decimal.Decimal // fraction of the total breakdown value
	XIRR         *float64
}

// UpcomingPayment is a projected cashflow due after the as-of date.
type UpcomingPayment struct {
	CashflowID   string
	InstrumentID string
	Ticker       string
	Date         time.Time
	Type         CashflowType
	Amount       decimal.Decimal // reference currency, latest known rate
	NativeAmount decimal.Decimal
	Currency     string
}

// IssueKind names the reason an instrument was flagged.
type IssueKind string

const (
	IssueInventory       IssueKind = "inventory"
	IssueNormalization   IssueKind = "normalization"
	IssueDefaultRate     IssueKind = "default_rate"
	IssueMissingPrice    IssueKind = "missing_price"
	IssueMissingMetadata IssueKind = "missing_metadata"
	IssueYield           IssueKind = "yield"
)

// InstrumentIssue reports a problem found while computing one instrument.
// Excluded instruments contribute nothing to the aggregate figures.
type InstrumentIssue struct {
	InstrumentID string
	Kind         IssueKind
	Message      string
	Excluded     bool
}

// RecordKind names the ledger collection a rejected record came from.
type RecordKind string

const (
	RecordTransaction  RecordKind = "transaction"
	RecordCashflow     RecordKind = "cashflow"
	RecordExchangeRate RecordKind = "exchange_rate"
	RecordPrice        RecordKind = "price"
)

// RecordIssue reports a record rejected by boundary validation.
type RecordIssue struct {
	RecordID     string
	Kind         RecordKind
	InstrumentID string
	Message      string
}

// Statistics is the aggregate result for one user as of a given instant.
// Ratios (ROI, percentages, XIRR) are decimal fractions: 0.18 means 18%.
type Statistics struct {
	UserID            string
	AsOf              time.Time
	ReferenceCurrency string

	CapitalInvested   decimal.Decimal
	CapitalCollected  decimal.Decimal
	CapitalPending    decimal.Decimal
	InterestCollected decimal.Decimal
	InterestPending   decimal.Decimal
	TotalReceivable   decimal.Decimal
	ROI               decimal.Decimal
	XIRR              *float64

	MarketValue           decimal.Decimal
	RealizedGain          decimal.Decimal
	RealizedCostBasis     decimal.Decimal
	RealizedGainPercent   decimal.Decimal
	UnrealizedGain        decimal.Decimal
	UnrealizedCostBasis   decimal.Decimal
	UnrealizedGainPercent decimal.Decimal

	Positions []Position
	Breakdown []BreakdownEntry
	Upcoming  []UpcomingPayment

	Issues              []InstrumentIssue
	RecordIssues        []RecordIssue
	ExcludedInstruments []string
}
