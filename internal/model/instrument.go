package model

import "time"

// InstrumentType classifies an instrument and decides how its prices are quoted.
type InstrumentType string

const (
	InstrumentTypeStock         InstrumentType = "STOCK"
	InstrumentTypeCedear        InstrumentType = "CEDEAR"
	InstrumentTypeFund          InstrumentType = "FUND"
	InstrumentTypeBond          InstrumentType = "BOND"
	InstrumentTypeLetter        InstrumentType = "LETTER"
	InstrumentTypeCorporateBond InstrumentType = "ON"
)

// QuoteConvention describes the scale a market price is expressed in.
type QuoteConvention int

const (
	// QuotePerUnit means the price is the value of one unit.
	QuotePerUnit QuoteConvention = iota
	// QuotePercentOfPar means the price is quoted per 100 of nominal value.
	QuotePercentOfPar
)

// QuoteConvention returns the quoting convention used by the market for this type.
// Bond-like instruments trade as a percentage of par; everything else per unit.
func (t InstrumentType) QuoteConvention() QuoteConvention {
	switch t {
	case InstrumentTypeBond, InstrumentTypeLetter, InstrumentTypeCorporateBond:
		return QuotePercentOfPar
	default:
		return QuotePerUnit
	}
}

// Instrument represents a tradable instrument from the database.
// LastPrice and LastPriceDate are the stale fallback used when no recent
// price record exists.
type Instrument struct {
	ID            string
	Ticker        string
	Name          string
	Type          InstrumentType
	Market        string
	Currency      string
	LastPrice     float64
	LastPriceDate time.Time
}
