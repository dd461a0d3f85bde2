package model

import "time"

// Price is a market price observation for an instrument, in the instrument's quoting scale.
type Price struct {
	ID           string
	InstrumentID string
	Date         time.Time
	Price        float64
	Currency     string
}
