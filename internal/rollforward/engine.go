// Package rollforward implements the GASB 75 roll-forward engine: it
// reconciles the Total OPEB Liability from one measurement date to the next
// from a prior valuation and a small set of current-period inputs.
package rollforward

import (
	"fmt"

	"github.com/iwvelando/opeb-rollforward/pkg/actuarial"
	"github.com/iwvelando/opeb-rollforward/pkg/constants"
	"github.com/iwvelando/opeb-rollforward/pkg/datetime"
	"github.com/iwvelando/opeb-rollforward/pkg/ledger"
	"github.com/iwvelando/opeb-rollforward/pkg/mathutil"
	"github.com/iwvelando/opeb-rollforward/pkg/valuation"
	"go.uber.org/zap"
)

// Engine runs roll-forward reconciliations. It holds no per-run state; a
// single engine may serve many plans.
type Engine struct {
	logger *zap.Logger

	// experienceAnomalyFraction is the |experience| / BOY TOL ratio above
	// which a warning is raised.
	experienceAnomalyFraction float64
}

// NewEngine creates a roll-forward engine. If logger is nil, a no-op logger
// is used.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:                    logger,
		experienceAnomalyFraction: constants.DefaultExperienceAnomalyFraction,
	}
}

// SetExperienceAnomalyFraction overrides the experience anomaly threshold.
// Non-positive values disable the check.
func (e *Engine) SetExperienceAnomalyFraction(fraction float64) {
	e.experienceAnomalyFraction = fraction
}

// Run reconciles the TOL from the prior valuation date to inputs.CurrentDate.
//
// Interest accrues at the prior period's ending discount rate; the new rate
// enters only through the assumption change effect. When inputs carry an
// actual EOY TOL (full valuation), experience is the residual that forces
// the reconciliation identity; otherwise experience is zero and the actual
// EOY TOL is derived.
func (e *Engine) Run(prior *valuation.PriorValuation, inputs *valuation.RollForwardInputs) (*valuation.RollForwardResult, error) {
	if err := prior.Validate(); err != nil {
		return nil, err
	}
	if err := inputs.Validate(prior); err != nil {
		return nil, err
	}

	boyTOL := prior.TotalOPEBLiability

	// Roll-forward convention: reuse the prior year's service cost unless a
	// full valuation supplies its own.
	serviceCost := prior.ServiceCost
	if inputs.ServiceCost != nil {
		serviceCost = *inputs.ServiceCost
	}

	interestCost := actuarial.InterestCost(boyTOL, serviceCost, inputs.BenefitPayments, prior.DiscountRateEOY)
	expectedEOYTOL := boyTOL + serviceCost + interestCost - inputs.BenefitPayments

	duration, err := e.resolveDuration(prior, inputs)
	if err != nil {
		return nil, err
	}

	rateDelta := inputs.NewDiscountRate - prior.DiscountRateEOY
	assumptionChange := actuarial.AssumptionChangeEffect(boyTOL, duration, rateDelta)

	var experience, actualEOYTOL float64
	if inputs.ActualEOYTOL != nil {
		// Full valuation: whatever variance is not explained by expected
		// growth or the rate change is attributed to experience.
		actualEOYTOL = *inputs.ActualEOYTOL
		experience = actualEOYTOL - expectedEOYTOL - assumptionChange
	} else {
		actualEOYTOL = expectedEOYTOL + assumptionChange
	}

	trendDuration := inputs.TrendDuration
	if trendDuration <= 0 {
		trendDuration = constants.DefaultTrendDuration
	}

	result := &valuation.RollForwardResult{
		BOYDate:                prior.ValuationDate,
		EOYDate:                inputs.CurrentDate,
		BOYTOL:                 boyTOL,
		ServiceCost:            serviceCost,
		InterestCost:           interestCost,
		BenefitPayments:        inputs.BenefitPayments,
		ExpectedEOYTOL:         expectedEOYTOL,
		AssumptionChangeEffect: assumptionChange,
		ExperienceGainLoss:     experience,
		ActualEOYTOL:           actualEOYTOL,
		DiscountRateBOY:        prior.DiscountRateEOY,
		DiscountRateEOY:        inputs.NewDiscountRate,
		Duration:               duration,

		SensitivityDiscountPlus1:  actuarial.DiscountSensitivity(actualEOYTOL, duration, constants.SensitivityRateShift),
		SensitivityDiscountMinus1: actuarial.DiscountSensitivity(actualEOYTOL, duration, -constants.SensitivityRateShift),
		SensitivityTrendPlus1:     actuarial.TrendSensitivity(actualEOYTOL, trendDuration, constants.SensitivityRateShift),
		SensitivityTrendMinus1:    actuarial.TrendSensitivity(actualEOYTOL, trendDuration, -constants.SensitivityRateShift),
	}

	if prior.CoveredPayroll > 0 {
		result.CoveredPayroll = actuarial.GrowPayroll(prior.CoveredPayroll, inputs.PayrollGrowthRate)
	}

	result.Warnings = e.detectAnomalies(result, inputs)

	if err := result.CheckIdentity(); err != nil {
		return nil, err
	}

	e.logger.Debug(fmt.Sprintf("rolled forward %s -> %s: TOL %.2f -> %.2f", result.BOYDate, result.EOYDate, boyTOL, actualEOYTOL),
		zap.String("op", "rollforward.Run"),
		zap.Float64("interestCost", interestCost),
		zap.Float64("assumptionChange", assumptionChange),
		zap.Float64("experience", experience),
	)

	return result, nil
}

// resolveDuration applies the duration override when given and otherwise
// derives the blended duration estimate from the prior liability split.
func (e *Engine) resolveDuration(prior *valuation.PriorValuation, inputs *valuation.RollForwardInputs) (float64, error) {
	if inputs.Duration != nil {
		return *inputs.Duration, nil
	}
	frac, err := prior.ActiveFraction()
	if err != nil {
		return 0, err
	}
	return actuarial.DurationEstimate(frac, prior.ARSL())
}

// detectAnomalies flags structurally valid but actuarially unusual results.
// These are warnings, never rejections; legitimate plans can exhibit them.
func (e *Engine) detectAnomalies(result *valuation.RollForwardResult, inputs *valuation.RollForwardInputs) []string {
	var warnings []string

	if mathutil.IsNegative(result.ActualEOYTOL) {
		warnings = append(warnings, fmt.Sprintf("ending TOL is negative (%.2f); legitimate only for declining closed plans", result.ActualEOYTOL))
	}
	if inputs.NewDiscountRate < constants.NearZeroDiscountRate {
		warnings = append(warnings, fmt.Sprintf("new discount rate %.4f is near zero", inputs.NewDiscountRate))
	}
	if e.experienceAnomalyFraction > 0 && result.BOYTOL > 0 {
		limit := e.experienceAnomalyFraction * result.BOYTOL
		if result.ExperienceGainLoss > limit || result.ExperienceGainLoss < -limit {
			warnings = append(warnings, fmt.Sprintf("experience gain/loss %.2f exceeds %.0f%% of BOY TOL %.2f",
				result.ExperienceGainLoss, e.experienceAnomalyFraction*constants.PercentageMultiplier, result.BOYTOL))
		}
	}

	for _, warning := range warnings {
		e.logger.Warn("Roll-forward anomaly: "+warning,
			zap.String("op", "rollforward.Run"),
		)
	}
	return warnings
}

// ApplyToLedgers inserts the result's experience and assumption-change
// figures as new vintages into the plan's two amortization ledgers. Both
// ledgers are checked for contiguity before either is mutated, so a
// validation failure leaves the plan state untouched. The ARSL recorded for
// the new vintages is frozen from the prior valuation that produced the
// result.
func (e *Engine) ApplyToLedgers(result *valuation.RollForwardResult, prior *valuation.PriorValuation,
	experienceLedger, assumptionLedger *ledger.Ledger) (evictedExperience, evictedAssumption *ledger.Entry, err error) {

	vintage, err := datetime.MeasurementYear(result.EOYDate)
	if err != nil {
		return nil, nil, err
	}

	for _, l := range []*ledger.Ledger{experienceLedger, assumptionLedger} {
		if max, ok := l.MaxVintage(); ok && vintage != max+1 {
			return nil, nil, fmt.Errorf("%w: result year %d does not extend ledger at vintage %d",
				ledger.ErrNonContiguousVintage, vintage, max)
		}
	}

	arsl := prior.ARSL()
	evictedExperience, err = experienceLedger.AdvanceYear(vintage, result.ExperienceGainLoss, arsl)
	if err != nil {
		return nil, nil, err
	}
	evictedAssumption, err = assumptionLedger.AdvanceYear(vintage, result.AssumptionChangeEffect, arsl)
	if err != nil {
		return evictedExperience, nil, err
	}
	return evictedExperience, evictedAssumption, nil
}
