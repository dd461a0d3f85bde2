package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-engine/internal/model"
)

const (
	moneyPlaces = 2
	ratioPlaces = 6
)

// money rounds a monetary amount for presentation.
func money(d decimal.Decimal) float64 {
	return d.Round(moneyPlaces).InexactFloat64()
}

// rate rounds a fraction (0.18 = 18%) for presentation.
func rate(d decimal.Decimal) float64 {
	return d.Round(ratioPlaces).InexactFloat64()
}

func ratePtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	r := decimal.NewFromFloat(*f).Round(ratioPlaces).InexactFloat64()
	return &r
}

func dateOrNil(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// StatisticsResponse is the JSON form of model.Statistics.
type StatisticsResponse struct {
	UserID            string `json:"userId"`
	AsOf              string `json:"asOf"`
	ReferenceCurrency string `json:"referenceCurrency"`

	CapitalInvested   float64  `json:"capitalInvested"`
	CapitalCollected  float64  `json:"capitalCollected"`
	CapitalPending    float64  `json:"capitalPending"`
	InterestCollected float64  `json:"interestCollected"`
	InterestPending   float64  `json:"interestPending"`
	TotalReceivable   float64  `json:"totalReceivable"`
	ROI               float64  `json:"roi"`
	XIRR              *float64 `json:"xirr"`

	MarketValue           float64 `json:"marketValue"`
	RealizedGain          float64 `json:"realizedGain"`
	RealizedGainPercent   float64 `json:"realizedGainPercent"`
	UnrealizedGain        float64 `json:"unrealizedGain"`
	UnrealizedGainPercent float64 `json:"unrealizedGainPercent"`

	Breakdown []BreakdownResponse       `json:"breakdown"`
	Upcoming  []UpcomingPaymentResponse `json:"upcoming"`

	Issues              []IssueResponse       `json:"issues"`
	RecordIssues        []RecordIssueResponse `json:"recordIssues"`
	ExcludedInstruments []string              `json:"excludedInstruments"`
}

// PositionResponse is the JSON form of model.Position.
type PositionResponse struct {
	InstrumentID     string   `json:"instrumentId"`
	Ticker           string   `json:"ticker"`
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Quantity         float64  `json:"quantity"`
	AveragePrice     float64  `json:"averagePrice"`
	CostBasis        float64  `json:"costBasis"`
	CurrentPrice     float64  `json:"currentPrice"`
	PriceDate        *string  `json:"priceDate"`
	MarketValue      float64  `json:"marketValue"`
	UnrealizedGain   float64  `json:"unrealizedGain"`
	RealizedGain     float64  `json:"realizedGain"`
	TheoreticalYield *float64 `json:"theoreticalYield"`
	XIRR             *float64 `json:"xirr"`
}

// BreakdownResponse is one ranked instrument of the portfolio.
type BreakdownResponse struct {
	InstrumentID string   `json:"instrumentId"`
	Ticker       string   `json:"ticker"`
	MarketValue  float64  `json:"marketValue"`
	Share        float64  `json:"share"`
	XIRR         *float64 `json:"xirr"`
}

// UpcomingPaymentResponse is a projected payment due after the as-of date.
type UpcomingPaymentResponse struct {
	CashflowID     string  `json:"cashflowId"`
	InstrumentID   string  `json:"instrumentId"`
	Ticker         string  `json:"ticker"`
	Date           string  `json:"date"`
	Type           string  `json:"type"`
	Amount         float64 `json:"amount"`
	NativeAmount   float64 `json:"nativeAmount"`
	NativeCurrency string  `json:"nativeCurrency"`
}

// IssueResponse reports a per-instrument problem.
type IssueResponse struct {
	InstrumentID string `json:"instrumentId"`
	Kind         string `json:"kind"`
	Message      string `json:"message"`
	Excluded     bool   `json:"excluded"`
}

// RecordIssueResponse reports a rejected ledger record.
type RecordIssueResponse struct {
	RecordID     string `json:"recordId"`
	Kind         string `json:"kind"`
	InstrumentID string `json:"instrumentId,omitempty"`
	Message      string `json:"message"`
}

func newStatisticsResponse(s model.Statistics) StatisticsResponse {
	resp := StatisticsResponse{
		UserID:                s.UserID,
		AsOf:                  s.AsOf.Format("2006-01-02"),
		ReferenceCurrency:     s.ReferenceCurrency,
		CapitalInvested:       money(s.CapitalInvested),
		CapitalCollected:      money(s.CapitalCollected),
		CapitalPending:        money(s.CapitalPending),
		InterestCollected:     money(s.InterestCollected),
		InterestPending:       money(s.InterestPending),
		TotalReceivable:       money(s.TotalReceivable),
		ROI:                   rate(s.ROI),
		XIRR:                  ratePtr(s.XIRR),
		MarketValue:           money(s.MarketValue),
		RealizedGain:          money(s.RealizedGain),
		RealizedGainPercent:   rate(s.RealizedGainPercent),
		UnrealizedGain:        money(s.UnrealizedGain),
		UnrealizedGainPercent: rate(s.UnrealizedGainPercent),
		Breakdown:             make([]BreakdownResponse, 0, len(s.Breakdown)),
		Upcoming:              newUpcomingResponse(s.Upcoming),
		Issues:                make([]IssueResponse, 0, len(s.Issues)),
		RecordIssues:          make([]RecordIssueResponse, 0, len(s.RecordIssues)),
		ExcludedInstruments:   []string{},
	}

	for _, b := range s.Breakdown {
		resp.Breakdown = append(resp.Breakdown, BreakdownResponse{
			InstrumentID: b.InstrumentID,
			Ticker:       b.Ticker,
			MarketValue:  money(b.MarketValue),
			Share:        rate(b.Share),
			XIRR:         ratePtr(b.XIRR),
		})
	}
	for _, i := range s.Issues {
		resp.Issues = append(resp.Issues, IssueResponse{
			InstrumentID: i.InstrumentID,
			Kind:         string(i.Kind),
			Message:      i.Message,
			Excluded:     i.Excluded,
		})
	}
	for _, r := range s.RecordIssues {
		resp.RecordIssues = append(resp.RecordIssues, RecordIssueResponse{
			RecordID:     r.RecordID,
			Kind:         string(r.Kind),
			InstrumentID: r.InstrumentID,
			Message:      r.Message,
		})
	}
	resp.ExcludedInstruments = append(resp.ExcludedInstruments, s.ExcludedInstruments...)

	return resp
}

func newPositionsResponse(positions []model.Position) []PositionResponse {
	resp := make([]PositionResponse, 0, len(positions))
	for _, p := range positions {
		resp = append(resp, PositionResponse{
			InstrumentID:     p.InstrumentID,
			Ticker:           p.Ticker,
			Name:             p.Name,
			Type:             string(p.Type),
			Quantity:         p.Quantity.InexactFloat64(),
			AveragePrice:     money(p.AveragePrice),
			CostBasis:        money(p.CostBasis),
			CurrentPrice:     money(p.CurrentPrice),
			PriceDate:        dateOrNil(p.PriceDate),
			MarketValue:      money(p.MarketValue),
			UnrealizedGain:   money(p.UnrealizedGain),
			RealizedGain:     money(p.RealizedGain),
			TheoreticalYield: ratePtr(p.TheoreticalYield),
			XIRR:             ratePtr(p.XIRR),
		})
	}
	return resp
}

func newUpcomingResponse(payments []model.UpcomingPayment) []UpcomingPaymentResponse {
	resp := make([]UpcomingPaymentResponse, 0, len(payments))
	for _, u := range payments {
		resp = append(resp, UpcomingPaymentResponse{
			CashflowID:     u.CashflowID,
			InstrumentID:   u.InstrumentID,
			Ticker:         u.Ticker,
			Date:           u.Date.Format("2006-01-02"),
			Type:           string(u.Type),
			Amount:         money(u.Amount),
			NativeAmount:   money(u.NativeAmount),
			NativeCurrency: u.Currency,
		})
	}
	return resp
}
