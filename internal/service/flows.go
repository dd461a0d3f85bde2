package service

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
	"github.com/ndewijer/portfolio-engine/internal/fifo"
	"github.com/ndewijer/portfolio-engine/internal/model"
	"github.com/ndewijer/portfolio-engine/internal/xirr"
)

// toSignedFlow converts a trade into the holder's cashflow.
// Buys pay price × quantity + commission; sells receive price × quantity − commission.
// Every personal cashflow stream, per instrument or consolidated, is built with it.
func toSignedFlow(tr fifo.Trade) xirr.Flow {
	gross := tr.Price.Mul(tr.Quantity)

	var amount decimal.Decimal
	switch tr.Type {
	case model.TransactionTypeSell:
		amount = gross.Sub(tr.Commission)
	default:
		amount = gross.Add(tr.Commission).Neg()
	}

	return xirr.Flow{Date: tr.Date, Amount: amount.InexactFloat64()}
}

// solveRate wraps xirr.Solve. "No solution" yields a nil rate and no error;
// any other solver error is returned.
func solveRate(flows []xirr.Flow) (*float64, error) {
	rate, err := xirr.Solve(flows)
	if errors.Is(err, apperrors.ErrNoSolution) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// solveRateReported is solveRate that turns a solver failure into a yield issue.
func solveRateReported(instrumentID, what string, flows []xirr.Flow, issues *[]model.InstrumentIssue) *float64 {
	rate, err := solveRate(flows)
	if err != nil {
		*issues = append(*issues, model.InstrumentIssue{
			InstrumentID: instrumentID,
			Kind:         model.IssueYield,
			Message:      what + " not computed: " + err.Error(),
		})
	}
	return rate
}

// ratio returns num / den, or zero when den is zero.
func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}
