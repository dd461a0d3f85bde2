package model

import "time"

// TransactionType is the direction of a trade.
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "BUY"
	TransactionTypeSell TransactionType = "SELL"
)

// Transaction represents one buy or sell execution for an instrument.
// Price and Commission are expressed in Currency.
type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	InstrumentID string          `json:"instrumentId"`
	Date         time.Time       `json:"date"`
	Type         TransactionType `json:"type"`
	Quantity     float64         `json:"quantity"`
	Price        float64         `json:"price"`
	Commission   float64         `json:"commission"`
	Currency     string          `json:"currency"`
}
