// Package valuation defines the data structures exchanged with the
// roll-forward engine: the prior valuation snapshot, the per-period inputs,
// and the reconciliation result.
package valuation

import (
	"fmt"

	"github.com/iwvelando/opeb-rollforward/pkg/actuarial"
	"github.com/iwvelando/opeb-rollforward/pkg/constants"
	"github.com/iwvelando/opeb-rollforward/pkg/datetime"
	"github.com/iwvelando/opeb-rollforward/pkg/mathutil"
)

// ConfigError reports a malformed or contradictory input field. The field
// name and offending value are preserved so the caller can correct the input.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// PriorValuation is an immutable snapshot of one prior measurement period's
// results. It is read-only input to exactly one roll-forward run.
type PriorValuation struct {
	ValuationDate           string  `json:"valuation_date" yaml:"valuationDate"`
	TotalOPEBLiability      float64 `json:"total_opeb_liability" yaml:"totalOpebLiability"`
	TOLActives              float64 `json:"tol_actives" yaml:"tolActives"`
	TOLRetirees             float64 `json:"tol_retirees" yaml:"tolRetirees"`
	ServiceCost             float64 `json:"service_cost" yaml:"serviceCost"`
	DiscountRateBOY         float64 `json:"discount_rate_boy" yaml:"discountRateBoy"`
	DiscountRateEOY         float64 `json:"discount_rate_eoy" yaml:"discountRateEoy"`
	AvgRemainingServiceLife float64 `json:"avg_remaining_service_life" yaml:"avgRemainingServiceLife"`
	CoveredPayroll          float64 `json:"covered_payroll,omitempty" yaml:"coveredPayroll"`
	ClientName              string  `json:"client_name,omitempty" yaml:"clientName"`
}

// Validate checks the prior valuation for configuration errors. The
// active/retiree split is a reporting decomposition of the total, so it is
// only checked for consistency, never re-derived.
func (p *PriorValuation) Validate() error {
	if _, err := datetime.ParseMeasurementDate(p.ValuationDate); err != nil {
		return &ConfigError{Field: "valuation_date", Value: p.ValuationDate, Reason: "expected YYYY-MM-DD"}
	}
	if p.TotalOPEBLiability <= 0 {
		return &ConfigError{Field: "total_opeb_liability", Value: p.TotalOPEBLiability, Reason: "must be positive"}
	}
	split := p.TOLActives + p.TOLRetirees
	if !mathutil.WithinTolerance(split, p.TotalOPEBLiability, constants.LiabilitySplitTolerance) {
		return &ConfigError{
			Field:  "tol_actives+tol_retirees",
			Value:  split,
			Reason: fmt.Sprintf("must equal total_opeb_liability %v within %v", p.TotalOPEBLiability, constants.LiabilitySplitTolerance),
		}
	}
	for _, rate := range []struct {
		field string
		value float64
	}{
		{"discount_rate_boy", p.DiscountRateBOY},
		{"discount_rate_eoy", p.DiscountRateEOY},
	} {
		if rate.value <= 0 || rate.value >= 1 {
			return &ConfigError{Field: rate.field, Value: rate.value, Reason: "must be a positive fraction less than 1"}
		}
	}
	if p.AvgRemainingServiceLife < 0 {
		return &ConfigError{Field: "avg_remaining_service_life", Value: p.AvgRemainingServiceLife, Reason: "must be non-negative"}
	}
	return nil
}

// ActiveFraction returns the active share of the total liability.
func (p *PriorValuation) ActiveFraction() (float64, error) {
	frac, err := actuarial.ActiveFraction(p.TOLActives, p.TotalOPEBLiability)
	if err != nil {
		return 0, &ConfigError{Field: "total_opeb_liability", Value: p.TotalOPEBLiability, Reason: "cannot derive active fraction"}
	}
	if frac < 0 || frac > 1 {
		return 0, &ConfigError{Field: "tol_actives", Value: p.TOLActives, Reason: "active fraction outside [0, 1]"}
	}
	return frac, nil
}

// ARSL returns the average remaining service life, falling back to the
// default assumption when the snapshot does not carry one.
func (p *PriorValuation) ARSL() float64 {
	if p.AvgRemainingServiceLife > 0 {
		return p.AvgRemainingServiceLife
	}
	return constants.DefaultARSL
}

// RollForwardInputs holds the current-period inputs for one roll-forward
// invocation. ActualEOYTOL is present only for full valuations; when nil the
// run is a pure roll-forward with experience forced to zero.
type RollForwardInputs struct {
	CurrentDate       string   `json:"current_date" yaml:"currentDate"`
	BenefitPayments   float64  `json:"benefit_payments" yaml:"benefitPayments"`
	NewDiscountRate   float64  `json:"new_discount_rate" yaml:"newDiscountRate"`
	ActualEOYTOL      *float64 `json:"actual_eoy_tol,omitempty" yaml:"actualEoyTol"`
	ServiceCost       *float64 `json:"service_cost,omitempty" yaml:"serviceCost"`
	Duration          *float64 `json:"duration,omitempty" yaml:"duration"`
	TrendDuration     float64  `json:"trend_duration,omitempty" yaml:"trendDuration"`
	PayrollGrowthRate float64  `json:"payroll_growth_rate,omitempty" yaml:"payrollGrowthRate"`
	BenefitChanges    string   `json:"benefit_changes,omitempty" yaml:"benefitChanges"`
}

// Validate checks the inputs against the prior valuation they will be
// applied to.
func (in *RollForwardInputs) Validate(prior *PriorValuation) error {
	if _, err := datetime.ParseMeasurementDate(in.CurrentDate); err != nil {
		return &ConfigError{Field: "current_date", Value: in.CurrentDate, Reason: "expected YYYY-MM-DD"}
	}
	after, err := datetime.DateBeforeDate(prior.ValuationDate, in.CurrentDate)
	if err != nil {
		return err
	}
	if !after {
		return &ConfigError{
			Field:  "current_date",
			Value:  in.CurrentDate,
			Reason: fmt.Sprintf("must be strictly after prior valuation date %s", prior.ValuationDate),
		}
	}
	if in.NewDiscountRate <= 0 || in.NewDiscountRate >= 1 {
		return &ConfigError{Field: "new_discount_rate", Value: in.NewDiscountRate, Reason: "must be a positive fraction less than 1"}
	}
	if in.Duration != nil && *in.Duration < 0 {
		return &ConfigError{Field: "duration", Value: *in.Duration, Reason: "must be non-negative"}
	}
	return nil
}

// RollForwardResult is the TOL reconciliation produced by one roll-forward
// run. The residual identity
//
//	ActualEOYTOL == ExpectedEOYTOL + AssumptionChangeEffect + ExperienceGainLoss
//
// holds for every result the engine returns.
type RollForwardResult struct {
	BOYDate                string  `json:"boy_date"`
	EOYDate                string  `json:"eoy_date"`
	BOYTOL                 float64 `json:"boy_tol"`
	ServiceCost            float64 `json:"service_cost"`
	InterestCost           float64 `json:"interest_cost"`
	BenefitPayments        float64 `json:"benefit_payments"`
	ExpectedEOYTOL         float64 `json:"expected_eoy_tol"`
	AssumptionChangeEffect float64 `json:"assumption_change"`
	ExperienceGainLoss     float64 `json:"experience_gain_loss"`
	ActualEOYTOL           float64 `json:"actual_eoy_tol"`

	// Rates in effect over the period: interest accrued at the BOY rate, the
	// EOY rate is the new measurement assumption.
	DiscountRateBOY float64 `json:"discount_rate_boy"`
	DiscountRateEOY float64 `json:"discount_rate_eoy"`

	Duration float64 `json:"duration"`

	// Sensitivity approximations for the disclosure tables.
	SensitivityDiscountPlus1  float64 `json:"sensitivity_disc_plus1"`
	SensitivityDiscountMinus1 float64 `json:"sensitivity_disc_minus1"`
	SensitivityTrendPlus1     float64 `json:"sensitivity_trend_plus1"`
	SensitivityTrendMinus1    float64 `json:"sensitivity_trend_minus1"`

	CoveredPayroll float64 `json:"covered_payroll,omitempty"`

	// Warnings holds anomaly messages surfaced alongside the result.
	Warnings []string `json:"warnings,omitempty"`
}

// ReconciliationRow is one line of the ordered TOL reconciliation table.
type ReconciliationRow struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// ReconciliationTable returns the disclosure-ordered reconciliation rows,
// rounded to cents. Benefit payments are presented as a reduction of the
// liability.
func (r *RollForwardResult) ReconciliationTable() []ReconciliationRow {
	return []ReconciliationRow{
		{Label: "Beginning TOL", Amount: mathutil.Round(r.BOYTOL)},
		{Label: "Service Cost", Amount: mathutil.Round(r.ServiceCost)},
		{Label: "Interest Cost", Amount: mathutil.Round(r.InterestCost)},
		{Label: "Benefit Payments", Amount: mathutil.Round(-r.BenefitPayments)},
		{Label: "Experience (Gain)/Loss", Amount: mathutil.Round(r.ExperienceGainLoss)},
		{Label: "Assumption Changes", Amount: mathutil.Round(r.AssumptionChangeEffect)},
		{Label: "Ending TOL", Amount: mathutil.Round(r.ActualEOYTOL)},
	}
}

// CheckIdentity verifies the residual identity. A failure indicates an
// internal defect, not a correctable input.
func (r *RollForwardResult) CheckIdentity() error {
	reconstructed := r.ExpectedEOYTOL + r.AssumptionChangeEffect + r.ExperienceGainLoss
	if !mathutil.WithinTolerance(r.ActualEOYTOL, reconstructed, constants.ReconciliationTolerance) {
		return fmt.Errorf("reconciliation identity violated: actual_eoy_tol %v != expected %v + assumption %v + experience %v",
			r.ActualEOYTOL, r.ExpectedEOYTOL, r.AssumptionChangeEffect, r.ExperienceGainLoss)
	}
	return nil
}

// NextPriorValuation projects the result into the prior-valuation snapshot
// for the following period, carrying the liability split forward
// proportionally from the given prior split.
func (r *RollForwardResult) NextPriorValuation(prior *PriorValuation, newDiscountRate float64) (*PriorValuation, error) {
	frac, err := prior.ActiveFraction()
	if err != nil {
		return nil, err
	}
	return &PriorValuation{
		ValuationDate:           r.EOYDate,
		TotalOPEBLiability:      r.ActualEOYTOL,
		TOLActives:              r.ActualEOYTOL * frac,
		TOLRetirees:             r.ActualEOYTOL * (1 - frac),
		ServiceCost:             r.ServiceCost,
		DiscountRateBOY:         prior.DiscountRateEOY,
		DiscountRateEOY:         newDiscountRate,
		AvgRemainingServiceLife: prior.AvgRemainingServiceLife,
		CoveredPayroll:          r.CoveredPayroll,
		ClientName:              prior.ClientName,
	}, nil
}
