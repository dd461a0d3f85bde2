package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/portfolio-engine/internal/model"
	"github.com/ndewijer/portfolio-engine/internal/repository"
)

// UserBuilder provides a fluent interface for creating test users.
//
// Example usage:
//
//	user := testutil.NewUser().WithName("Ana").Build(t, db)
type UserBuilder struct {
	ID   string
	Name string
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		ID:   MakeID(),
		Name: "Test User " + randomAlphanumeric(4),
	}
}

// WithID sets a custom ID.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.Name = name
	return b
}

// Build creates the user in the database and returns it.
func (b *UserBuilder) Build(t *testing.T, db *sql.DB) model.User {
	t.Helper()

	u := model.User{ID: b.ID, Name: b.Name}
	if err := repository.NewUserRepository(db).InsertUser(context.Background(), &u); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// InstrumentBuilder provides a fluent interface for creating test instruments.
//
// Example usage:
//
//	bond := testutil.NewInstrument().
//	    WithTicker("GD30").
//	    WithType(model.InstrumentTypeBond).
//	    WithCurrency("USD").
//	    Build(t, db)
type InstrumentBuilder struct {
	instrument model.Instrument
}

// NewInstrument creates an InstrumentBuilder for a USD stock.
func NewInstrument() *InstrumentBuilder {
	ticker := MakeTicker("")
	return &InstrumentBuilder{instrument: model.Instrument{
		ID:       MakeID(),
		Ticker:   ticker,
		Name:     ticker + " Inc.",
		Type:     model.InstrumentTypeStock,
		Market:   "BYMA",
		Currency: "USD",
	}}
}

// WithID sets a custom ID.
func (b *InstrumentBuilder) WithID(id string) *InstrumentBuilder {
	b.instrument.ID = id
	return b
}

// WithTicker sets the ticker and derives the name from it.
func (b *InstrumentBuilder) WithTicker(ticker string) *InstrumentBuilder {
	b.instrument.Ticker = ticker
	b.instrument.Name = ticker
	return b
}

// WithType sets the instrument type.
func (b *InstrumentBuilder) WithType(t model.InstrumentType) *InstrumentBuilder {
	b.instrument.Type = t
	return b
}

// WithCurrency sets the quoting currency.
func (b *InstrumentBuilder) WithCurrency(currency string) *InstrumentBuilder {
	b.instrument.Currency = currency
	return b
}

// WithLastPrice sets the stored fallback price.
func (b *InstrumentBuilder) WithLastPrice(price float64, date time.Time) *InstrumentBuilder {
	b.instrument.LastPrice = price
	b.instrument.LastPriceDate = date
	return b
}

// Build creates the instrument in the database and returns it.
func (b *InstrumentBuilder) Build(t *testing.T, db *sql.DB) model.Instrument {
	t.Helper()

	i := b.instrument
	if err := repository.NewInstrumentRepository(db).InsertInstrument(context.Background(), &i); err != nil {
		t.Fatalf("Failed to create test instrument: %v", err)
	}
	return i
}

// TransactionBuilder provides a fluent interface for creating test transactions.
//
// Example usage:
//
//	testutil.NewTransaction(user.ID, inst.ID).
//	    WithType(model.TransactionTypeSell).
//	    WithQuantity(40).
//	    WithPrice(12).
//	    Build(t, db)
type TransactionBuilder struct {
	tx model.Transaction
}

// NewTransaction creates a TransactionBuilder for a buy of 10 units at 100 USD.
func NewTransaction(userID, instrumentID string) *TransactionBuilder {
	return &TransactionBuilder{tx: model.Transaction{
		ID:           MakeID(),
		UserID:       userID,
		InstrumentID: instrumentID,
		Date:         time.Now().UTC().AddDate(0, 0, -30).Truncate(24 * time.Hour),
		Type:         model.TransactionTypeBuy,
		Quantity:     10,
		Price:        100,
		Currency:     "USD",
	}}
}

// WithID sets a custom ID.
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.tx.ID = id
	return b
}

// WithDate sets the execution date.
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	b.tx.Date = date
	return b
}

// WithType sets BUY or SELL.
func (b *TransactionBuilder) WithType(txType model.TransactionType) *TransactionBuilder {
	b.tx.Type = txType
	return b
}

// WithQuantity sets the number of units.
func (b *TransactionBuilder) WithQuantity(qty float64) *TransactionBuilder {
	b.tx.Quantity = qty
	return b
}

// WithPrice sets the unit price.
func (b *TransactionBuilder) WithPrice(price float64) *TransactionBuilder {
	b.tx.Price = price
	return b
}

// WithCommission sets the commission paid.
func (b *TransactionBuilder) WithCommission(commission float64) *TransactionBuilder {
	b.tx.Commission = commission
	return b
}

// WithCurrency sets the currency of price and commission.
func (b *TransactionBuilder) WithCurrency(currency string) *TransactionBuilder {
	b.tx.Currency = currency
	return b
}

// Build creates the transaction in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	tx := b.tx
	if err := repository.NewTransactionRepository(db).InsertTransaction(context.Background(), &tx); err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}
	return tx
}

// CashflowBuilder provides a fluent interface for creating test cashflows.
type CashflowBuilder struct {
	cf model.Cashflow
}

// NewCashflow creates a CashflowBuilder for a paid 10 USD interest payment.
func NewCashflow(userID, instrumentID string) *CashflowBuilder {
	return &CashflowBuilder{cf: model.Cashflow{
		ID:           MakeID(),
		UserID:       userID,
		InstrumentID: instrumentID,
		Date:         time.Now().UTC().Truncate(24 * time.Hour),
		Amount:       10,
		Currency:     "USD",
		Type:         model.CashflowTypeInterest,
		Status:       model.CashflowStatusPaid,
	}}
}

// WithID sets a custom ID.
func (b *CashflowBuilder) WithID(id string) *CashflowBuilder {
	b.cf.ID = id
	return b
}

// WithDate sets the payment date.
func (b *CashflowBuilder) WithDate(date time.Time) *CashflowBuilder {
	b.cf.Date = date
	return b
}

// WithAmount sets the signed amount.
func (b *CashflowBuilder) WithAmount(amount float64) *CashflowBuilder {
	b.cf.Amount = amount
	return b
}

// WithCurrency sets the payment currency.
func (b *CashflowBuilder) WithCurrency(currency string) *CashflowBuilder {
	b.cf.Currency = currency
	return b
}

// Amortization marks the cashflow as returned capital.
func (b *CashflowBuilder) Amortization() *CashflowBuilder {
	b.cf.Type = model.CashflowTypeAmortization
	return b
}

// Projected marks the cashflow as not yet paid.
func (b *CashflowBuilder) Projected() *CashflowBuilder {
	b.cf.Status = model.CashflowStatusProjected
	return b
}

// Build creates the cashflow in the database and returns it.
func (b *CashflowBuilder) Build(t *testing.T, db *sql.DB) model.Cashflow {
	t.Helper()

	cf := b.cf
	if err := repository.NewCashflowRepository(db).InsertCashflow(context.Background(), &cf); err != nil {
		t.Fatalf("Failed to create test cashflow: %v", err)
	}
	return cf
}

// CreateExchangeRate stores one rate observation: value units of base per unit of quote.
//
// Example usage:
//
//	testutil.CreateExchangeRate(t, db, "ARS", "USD", date, 1000)
func CreateExchangeRate(t *testing.T, db *sql.DB, base, quote string, date time.Time, value float64) model.ExchangeRate {
	t.Helper()

	e := model.ExchangeRate{Base: base, Quote: quote, Date: date, Value: value}
	if err := repository.NewExchangeRateRepository(db).InsertExchangeRate(context.Background(), &e); err != nil {
		t.Fatalf("Failed to create test exchange rate: %v", err)
	}
	return e
}

// CreatePrice stores one price observation for an instrument.
//
// Example usage:
//
//	testutil.CreatePrice(t, db, inst.ID, date, 97.5, "USD")
func CreatePrice(t *testing.T, db *sql.DB, instrumentID string, date time.Time, price float64, currency string) model.Price {
	t.Helper()

	p := model.Price{InstrumentID: instrumentID, Date: date, Price: price, Currency: currency}
	if err := repository.NewPriceRepository(db).InsertPrice(context.Background(), &p); err != nil {
		t.Fatalf("Failed to create test price: %v", err)
	}
	return p
}
