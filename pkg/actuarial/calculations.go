// Package actuarial provides the pure actuarial approximation functions used
// by the roll-forward engine.
package actuarial

import (
	"fmt"
	"math"

	"github.com/iwvelando/opeb-rollforward/pkg/constants"
)

// InterestCost computes the interest accrued on the liability over one
// measurement period using the mid-year convention:
//
//	(BOY TOL + SC/2 - BP/2) x rate
//
// The rate must be the discount rate in effect at the start of the period;
// service cost and benefit payments may carry either sign.
func InterestCost(boyTOL, serviceCost, benefitPayments, rate float64) float64 {
	avgBalance := boyTOL + serviceCost/2 - benefitPayments/2
	return avgBalance * rate
}

// AssumptionChangeEffect approximates the liability change caused by a
// discount rate move using the duration approximation -D x L x delta-r.
// A rate decrease (negative delta) increases the liability. Rate moves
// smaller than constants.MinRateDelta are treated as no change.
func AssumptionChangeEffect(liability, duration, rateDelta float64) float64 {
	if math.Abs(rateDelta) < constants.MinRateDelta {
		return 0
	}
	return -duration * liability * rateDelta
}

// DurationEstimate blends an active-member duration of ARSL+10 years with a
// fixed retiree duration, weighted by the active share of the liability.
func DurationEstimate(activeFraction, arsl float64) (float64, error) {
	if activeFraction < 0 || activeFraction > 1 {
		return 0, fmt.Errorf("activeFraction must be within [0, 1], got %v", activeFraction)
	}
	if arsl < 0 {
		return 0, fmt.Errorf("arsl must be non-negative, got %v", arsl)
	}
	return activeFraction*(arsl+constants.RetireeDurationYears) + (1-activeFraction)*constants.RetireeDurationYears, nil
}

// ActiveFraction computes the share of the total liability attributable to
// active members. A zero or negative total liability cannot produce a
// fraction and is reported as an error rather than a NaN.
func ActiveFraction(tolActives, totalLiability float64) (float64, error) {
	if totalLiability <= 0 {
		return 0, fmt.Errorf("totalLiability must be positive to derive an active fraction, got %v", totalLiability)
	}
	return tolActives / totalLiability, nil
}

// DiscountSensitivity approximates the EOY TOL revalued at a shifted
// discount rate: TOL x (1 - duration x shift).
func DiscountSensitivity(eoyTOL, duration, shift float64) float64 {
	return eoyTOL * (1 - duration*shift)
}

// TrendSensitivity approximates the EOY TOL under a shifted healthcare trend
// assumption: TOL x (1 + trendDuration x shift).
func TrendSensitivity(eoyTOL, trendDuration, shift float64) float64 {
	return eoyTOL * (1 + trendDuration*shift)
}

// GrowPayroll applies one year of payroll growth.
func GrowPayroll(coveredPayroll, growthRate float64) float64 {
	return coveredPayroll * (1 + growthRate)
}
