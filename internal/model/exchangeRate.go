package model

import "time"

// ExchangeRate is one daily observation for a currency pair.
// Value is the price of one unit of Quote expressed in Base.
type ExchangeRate struct {
	ID    string
	Base  string
	Quote string
	Date  time.Time
	Value float64
}
