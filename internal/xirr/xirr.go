// Package xirr computes the annualized internal rate of return of a series of
// irregularly dated cashflows.
package xirr

import (
	"fmt"
	"math"
	"time"

	"github.com/ndewijer/portfolio-engine/internal/apperrors"
)

const (
	daysPerYear = 365.0

	newtonMaxIter = 100
	tolerance     = 1e-6
	minRate       = -0.99 // the discount base 1+r must stay positive
	maxRate       = 10.0  // 1000% annual

	bisectMaxIter = 200
)

// Flow is one dated, signed cashflow: negative when money is paid out,
// positive when it is received.
type Flow struct {
	Date   time.Time
	Amount float64
}

// Solve returns the rate r such that Σ amount_i × (1+r)^(−days_i/365) = 0,
// where days_i counts calendar days from the earliest flow.
//
// It returns apperrors.ErrNoSolution when the flows cannot have a root (fewer
// than two flows, no sign change, non-finite amounts) or when neither
// Newton-Raphson nor the bisection fallback converges. A zero date is
// rejected with apperrors.ErrInvalidDate.
//
// The result is a decimal rate: 0.18 means 18% a year.
func Solve(flows []Flow) (float64, error) {
	if len(flows) < 2 {
		return 0, apperrors.ErrNoSolution
	}

	base := flows[0].Date
	hasNeg, hasPos := false, false
	for _, f := range flows {
		if f.Date.IsZero() {
			return 0, fmt.Errorf("%w: cashflow without date", apperrors.ErrInvalidDate)
		}
		if math.IsNaN(f.Amount) || math.IsInf(f.Amount, 0) {
			return 0, fmt.Errorf("%w: cashflow amount %v", apperrors.ErrNoSolution, f.Amount)
		}
		if f.Date.Before(base) {
			base = f.Date
		}
		if f.Amount < 0 {
			hasNeg = true
		}
		if f.Amount > 0 {
			hasPos = true
		}
	}
	if !hasNeg || !hasPos {
		return 0, apperrors.ErrNoSolution
	}

	years := make([]float64, len(flows))
	baseDay := day(base)
	for i, f := range flows {
		days := math.Round(day(f.Date).Sub(baseDay).Hours() / 24)
		years[i] = days / daysPerYear
	}

	if rate, ok := newton(flows, years); ok {
		return rate, nil
	}
	if rate, ok := bisect(flows, years); ok {
		return rate, nil
	}
	return 0, apperrors.ErrNoSolution
}

// npv returns the net present value and its derivative at rate.
func npv(flows []Flow, years []float64, rate float64) (float64, float64) {
	base := 1 + rate
	var value, deriv float64
	for i, f := range flows {
		discount := math.Pow(base, years[i])
		value += f.Amount / discount
		deriv -= years[i] * f.Amount / (discount * base)
	}
	return value, deriv
}

func newton(flows []Flow, years []float64) (float64, bool) {
	rate := initialGuess(flows)

	for i := 0; i < newtonMaxIter; i++ {
		value, deriv := npv(flows, years, rate)
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, false
		}
		if math.Abs(value) < tolerance {
			return rate, true
		}
		if deriv == 0 || math.IsNaN(deriv) {
			return 0, false
		}

		rate -= value / deriv
		rate = math.Min(math.Max(rate, minRate), maxRate)
	}
	return 0, false
}

func bisect(flows []Flow, years []float64) (float64, bool) {
	lo, hi := minRate, maxRate
	npvLo, _ := npv(flows, years, lo)
	npvHi, _ := npv(flows, years, hi)
	if math.IsNaN(npvLo) || math.IsNaN(npvHi) || npvLo*npvHi > 0 {
		return 0, false
	}

	for i := 0; i < bisectMaxIter; i++ {
		mid := (lo + hi) / 2
		npvMid, _ := npv(flows, years, mid)
		if math.IsNaN(npvMid) {
			return 0, false
		}
		if math.Abs(npvMid) < tolerance || hi-lo < 1e-12 {
			return mid, true
		}
		if npvMid*npvLo < 0 {
			hi = mid
		} else {
			lo, npvLo = mid, npvMid
		}
	}
	return 0, false
}

// initialGuess uses the simple return, clamped to a sane range.
func initialGuess(flows []Flow) float64 {
	var invested, received float64
	for _, f := range flows {
		if f.Amount < 0 {
			invested -= f.Amount
		} else {
			received += f.Amount
		}
	}
	guess := 0.1
	if invested > 0 {
		if simple := received/invested - 1; simple > -0.9 && simple < 1 {
			guess = simple
		}
	}
	return guess
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
