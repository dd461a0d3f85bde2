// Package fifo splits the trades of one instrument into lots, matching sells
// against the oldest open buys first.
package fifo

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
	"github.com/ndewijer/portfolio-engine/internal/model"
)

// Trade is a validated transaction with price and commission already
// expressed in the reference currency.
type Trade struct {
	ID         string
	Date       time.Time
	Type       model.TransactionType
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Commission decimal.Decimal
}

// OpenLot is the unsold remainder of a buy. Commission is the part of the
// buy commission still attributed to the remainder.
type OpenLot struct {
	TransactionID string
	Date          time.Time
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	Commission    decimal.Decimal
}

// CostBasis returns quantity × price + commission.
func (l OpenLot) CostBasis() decimal.Decimal {
	return l.Quantity.Mul(l.Price).Add(l.Commission)
}

// ClosedLot is the part of a buy matched by a sell.
type ClosedLot struct {
	BuyTransactionID  string
	SellTransactionID string
	BuyDate           time.Time
	SellDate          time.Time
	Quantity          decimal.Decimal
	BuyPrice          decimal.Decimal
	BuyCommission     decimal.Decimal
	SellPrice         decimal.Decimal
	SellCommission    decimal.Decimal
	Gain              decimal.Decimal
}

// CostBasis returns quantity × buy price + allocated buy commission.
func (l ClosedLot) CostBasis() decimal.Decimal {
	return l.Quantity.Mul(l.BuyPrice).Add(l.BuyCommission)
}

// Proceeds returns quantity × sell price − allocated sell commission.
func (l ClosedLot) Proceeds() decimal.Decimal {
	return l.Quantity.Mul(l.SellPrice).Sub(l.SellCommission)
}

// InventoryError reports a sell that exceeds the open quantity.
type InventoryError struct {
	TransactionID string
	Date          time.Time
	Requested     decimal.Decimal
	Available     decimal.Decimal
}

func (e *InventoryError) Error() string {
	return fmt.Sprintf("%s: sell %s on %s requests %s, only %s open",
		apperrors.ErrInsufficientQuantity,
		e.TransactionID,
		e.Date.Format("2006-01-02"),
		e.Requested,
		e.Available,
	)
}

func (e *InventoryError) Unwrap() error { return apperrors.ErrInsufficientQuantity }

// Result holds the lots produced by Match. Open lots are ordered oldest
// first; closed lots in the order they were realized.
type Result struct {
	Open   []OpenLot
	Closed []ClosedLot
}

// OpenQuantity sums the quantity of open lots.
func (r Result) OpenQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Open {
		total = total.Add(l.Quantity)
	}
	return total
}

// ClosedQuantity sums the quantity of closed lots.
func (r Result) ClosedQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Closed {
		total = total.Add(l.Quantity)
	}
	return total
}

// OpenCostBasis sums the cost basis of open lots.
func (r Result) OpenCostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Open {
		total = total.Add(l.CostBasis())
	}
	return total
}

// RealizedGain sums the gain of closed lots.
func (r Result) RealizedGain() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Closed {
		total = total.Add(l.Gain)
	}
	return total
}

// RealizedCostBasis sums the cost basis of closed lots.
func (r Result) RealizedCostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Closed {
		total = total.Add(l.CostBasis())
	}
	return total
}

// SortTrades orders trades by date, then by ID so that same-day trades are
// matched deterministically.
func SortTrades(trades []Trade) {
	slices.SortStableFunc(trades, func(a, b Trade) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Match runs FIFO matching over trades, which must be ordered by date.
// Trades sharing a date are processed in the order given.
//
// Commissions are split by quantity: a sell consuming part of a lot takes the
// same fraction of the lot's buy commission and of its own sell commission.
// The slice that exhausts a lot or a sell takes the exact remainder so that
// commissions are conserved without rounding drift.
//
// A sell larger than the open quantity returns an *InventoryError.
func Match(trades []Trade) (Result, error) {
	var queue []OpenLot
	var closed []ClosedLot

	for i, tr := range trades {
		if !tr.Quantity.IsPositive() {
			return Result{}, fmt.Errorf("%w: trade %s has quantity %s", apperrors.ErrInvalidQuantity, tr.ID, tr.Quantity)
		}
		if i > 0 && tr.Date.Before(trades[i-1].Date) {
			return Result{}, fmt.Errorf("trades must be ordered by date: %s precedes %s", trades[i-1].ID, tr.ID)
		}

		switch tr.Type {
		case model.TransactionTypeBuy:
			queue = append(queue, OpenLot{
				TransactionID: tr.ID,
				Date:          tr.Date,
				Quantity:      tr.Quantity,
				Price:         tr.Price,
				Commission:    tr.Commission,
			})

		case model.TransactionTypeSell:
			available := decimal.Zero
			for _, l := range queue {
				available = available.Add(l.Quantity)
			}
			if tr.Quantity.GreaterThan(available) {
				return Result{}, &InventoryError{
					TransactionID: tr.ID,
					Date:          tr.Date,
					Requested:     tr.Quantity,
					Available:     available,
				}
			}

			remaining := tr.Quantity
			sellCommissionLeft := tr.Commission
			for remaining.IsPositive() {
				lot := &queue[0]
				take := decimal.Min(remaining, lot.Quantity)

				buyCommission := lot.Commission
				if take.LessThan(lot.Quantity) {
					buyCommission = lot.Commission.Mul(take).Div(lot.Quantity)
				}
				sellCommission := sellCommissionLeft
				if take.LessThan(remaining) {
					sellCommission = tr.Commission.Mul(take).Div(tr.Quantity)
				}

				cl := ClosedLot{
					BuyTransactionID:  lot.TransactionID,
					SellTransactionID: tr.ID,
					BuyDate:           lot.Date,
					SellDate:          tr.Date,
					Quantity:          take,
					BuyPrice:          lot.Price,
					BuyCommission:     buyCommission,
					SellPrice:         tr.Price,
					SellCommission:    sellCommission,
				}
				cl.Gain = cl.Proceeds().Sub(cl.CostBasis())
				closed = append(closed, cl)

				lot.Quantity = lot.Quantity.Sub(take)
				lot.Commission = lot.Commission.Sub(buyCommission)
				remaining = remaining.Sub(take)
				sellCommissionLeft = sellCommissionLeft.Sub(sellCommission)

				if lot.Quantity.IsZero() {
					queue = queue[1:]
				}
			}

		default:
			return Result{}, fmt.Errorf("%w: trade %s has unknown type %q", apperrors.ErrInvalidRecord, tr.ID, tr.Type)
		}
	}

	return Result{Open: queue, Closed: closed}, nil
}
