package validation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
	"github.com/ndewijer/portfolio-engine/internal/model"
)

func validTransaction() model.Transaction {
	return model.Transaction{
		ID:           "tx-1",
		InstrumentID: "inst-1",
		Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Type:         model.TransactionTypeBuy,
		Quantity:     10,
		Price:        100,
		Commission:   1,
		Currency:     "USD",
	}
}

func TestValidateTransaction(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.Transaction)
		wantField string
	}{
		{name: "valid", mutate: func(*model.Transaction) {}},
		{name: "NaN quantity", mutate: func(tx *model.Transaction) { tx.Quantity = math.NaN() }, wantField: "quantity"},
		{name: "zero quantity", mutate: func(tx *model.Transaction) { tx.Quantity = 0 }, wantField: "quantity"},
		{name: "infinite price", mutate: func(tx *model.Transaction) { tx.Price = math.Inf(1) }, wantField: "price"},
		{name: "negative commission", mutate: func(tx *model.Transaction) { tx.Commission = -1 }, wantField: "commission"},
		{name: "zero date", mutate: func(tx *model.Transaction) { tx.Date = time.Time{} }, wantField: "date"},
		{name: "unknown type", mutate: func(tx *model.Transaction) { tx.Type = "DIVIDEND" }, wantField: "type"},
		{name: "unknown currency", mutate: func(tx *model.Transaction) { tx.Currency = "XYZ" }, wantField: "currency"},
		{name: "lower case currency accepted", mutate: func(tx *model.Transaction) { tx.Currency = "ars" }},
		{name: "missing instrument", mutate: func(tx *model.Transaction) { tx.InstrumentID = " " }, wantField: "instrumentId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)

			err := ValidateTransaction(tx)

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidRecord)

			var vErr *Error
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tt.wantField)
		})
	}
}

func TestValidateCashflow(t *testing.T) {
	valid := model.Cashflow{
		ID:           "cf-1",
		InstrumentID: "inst-1",
		Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Amount:       -12.5,
		Currency:     "USD",
		Type:         model.CashflowTypeInterest,
		Status:       model.CashflowStatusPaid,
	}
	assert.NoError(t, ValidateCashflow(valid), "negative amounts are allowed")

	bad := valid
	bad.Amount = math.NaN()
	bad.Status = "LATE"
	err := ValidateCashflow(bad)
	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "amount")
	assert.Contains(t, vErr.Fields, "status")
}

func TestValidateExchangeRate(t *testing.T) {
	valid := model.ExchangeRate{Base: "ARS", Quote: "USD", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 800}
	assert.NoError(t, ValidateExchangeRate(valid))

	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		r := valid
		r.Value = v
		assert.ErrorIs(t, ValidateExchangeRate(r), apperrors.ErrInvalidRecord, "value %v", v)
	}
}

func TestValidatePrice(t *testing.T) {
	valid := model.Price{InstrumentID: "inst-1", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 98.5}
	assert.NoError(t, ValidatePrice(valid), "currency is optional")

	bad := valid
	bad.Price = 0
	assert.Error(t, ValidatePrice(bad))
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("5f9b3c5e-1d2a-4f3b-9c7d-0a1b2c3d4e5f"))
	assert.ErrorIs(t, ValidateUUID("not-a-uuid"), apperrors.ErrInvalidUUID)
}

func TestError_MessageIsSorted(t *testing.T) {
	err := &Error{Fields: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, "a: first; b: second", err.Error())
}
