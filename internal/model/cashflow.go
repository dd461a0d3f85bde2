package model

import "time"

// CashflowType separates returned capital from income.
type CashflowType string

const (
	CashflowTypeInterest     CashflowType = "INTEREST"
	CashflowTypeAmortization CashflowType = "AMORTIZATION"
)

// CashflowStatus tells whether a cashflow was reported as paid.
type CashflowStatus string

const (
	CashflowStatusPaid      CashflowStatus = "PAID"
	CashflowStatusProjected CashflowStatus = "PROJECTED"
)

// Cashflow represents one scheduled or realized payment tied to an instrument.
// Amount is signed: inflows to the holder are positive.
type Cashflow struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	InstrumentID string         `json:"instrumentId"`
	Date         time.Time      `json:"date"`
	Amount       float64        `json:"amount"`
	Currency     string         `json:"currency"`
	Type         CashflowType   `json:"type"`
	Status       CashflowStatus `json:"status"`
}
