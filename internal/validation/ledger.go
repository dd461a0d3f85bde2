package validation

import (
	"fmt"

	"github.com/ndewijer/portfolio-engine/internal/model"
)

// ValidTransactionType contains the allowed transaction type values.
var ValidTransactionType = map[model.TransactionType]bool{
	model.TransactionTypeBuy: true, model.TransactionTypeSell: true,
}

// ValidCashflowType contains the allowed cashflow type values.
var ValidCashflowType = map[model.CashflowType]bool{
	model.CashflowTypeInterest: true, model.CashflowTypeAmortization: true,
}

// ValidCashflowStatus contains the allowed cashflow status values.
var ValidCashflowStatus = map[model.CashflowStatus]bool{
	model.CashflowStatusPaid: true, model.CashflowStatusProjected: true,
}

// ValidateTransaction checks a ledger transaction before it enters lot matching.
//
// Required fields:
//   - instrumentId: non-empty
//   - date: non-zero
//   - type: BUY or SELL
//   - quantity: finite and positive
//   - price: finite and not negative
//   - commission: finite and not negative
//   - currency: ISO 4217 code
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateTransaction(tx model.Transaction) error {
	errs := fieldErrors{}

	errs.required("instrumentId", tx.InstrumentID)
	if tx.Date.IsZero() {
		errs["date"] = "date is required"
	}
	if !ValidTransactionType[tx.Type] {
		errs["type"] = fmt.Sprintf("invalid type: %s", tx.Type)
	}
	errs.positive("quantity", tx.Quantity)
	errs.nonNegative("price", tx.Price)
	errs.nonNegative("commission", tx.Commission)
	errs.currency("currency", tx.Currency)

	return errs.err()
}

// ValidateCashflow checks an interest or amortization record.
// The amount is signed, so only finiteness is enforced.
func ValidateCashflow(cf model.Cashflow) error {
	errs := fieldErrors{}

	errs.required("instrumentId", cf.InstrumentID)
	if cf.Date.IsZero() {
		errs["date"] = "date is required"
	}
	errs.finite("amount", cf.Amount)
	if !ValidCashflowType[cf.Type] {
		errs["type"] = fmt.Sprintf("invalid type: %s", cf.Type)
	}
	if !ValidCashflowStatus[cf.Status] {
		errs["status"] = fmt.Sprintf("invalid status: %s", cf.Status)
	}
	errs.currency("currency", cf.Currency)

	return errs.err()
}

// ValidateExchangeRate rejects zero, negative and non-finite rates so they are
// never divided against.
func ValidateExchangeRate(r model.ExchangeRate) error {
	errs := fieldErrors{}

	if r.Date.IsZero() {
		errs["date"] = "date is required"
	}
	errs.positive("value", r.Value)
	errs.currency("base", r.Base)
	errs.currency("quote", r.Quote)

	return errs.err()
}

// ValidatePrice checks a market price observation.
func ValidatePrice(p model.Price) error {
	errs := fieldErrors{}

	errs.required("instrumentId", p.InstrumentID)
	if p.Date.IsZero() {
		errs["date"] = "date is required"
	}
	errs.positive("price", p.Price)
	if p.Currency != "" {
		errs.currency("currency", p.Currency)
	}

	return errs.err()
}
