// Package constants provides shared constants for the opeb-rollforward application.
package constants

// DateLayout is the measurement date format expected in config files and is
// also the output date format.
const DateLayout = "2006-01-02"

// Actuarial constants
const (
	// DefaultAmortizationWindow is the number of vintage years retained in the
	// required supplementary schedules.
	DefaultAmortizationWindow = 7

	// DefaultARSL is the average remaining service life assumed when a prior
	// valuation does not carry one.
	DefaultARSL = 12.0

	// DefaultDuration is the liability duration fallback when neither an
	// override nor a usable liability split is available.
	DefaultDuration = 10.0

	// DefaultTrendDuration is the healthcare trend duration used for the
	// trend sensitivity approximation.
	DefaultTrendDuration = 5.0

	// DefaultPayrollGrowthRate is the assumed annual covered payroll growth.
	DefaultPayrollGrowthRate = 0.03

	// RetireeDurationYears is the duration assigned to the retiree share of
	// the liability in the blended duration estimate.
	RetireeDurationYears = 10.0

	// MinRateDelta is the discount rate change below which the assumption
	// change effect is treated as zero.
	MinRateDelta = 0.0001

	// NearZeroDiscountRate marks discount rates low enough to flag as an
	// anomaly.
	NearZeroDiscountRate = 0.005

	// DefaultExperienceAnomalyFraction is the default experience gain/loss
	// threshold, expressed as a fraction of BOY TOL, above which a warning is
	// raised.
	DefaultExperienceAnomalyFraction = 0.10

	// SensitivityRateShift is the discount/trend shift used for the +/-1%
	// sensitivity approximations.
	SensitivityRateShift = 0.01
)

// Numeric tolerances
const (
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// ReconciliationTolerance is the tolerance within which the TOL
	// reconciliation identity must hold.
	ReconciliationTolerance = 1e-6

	// LiabilitySplitTolerance is the tolerance for the actives + retirees
	// liability decomposition check, in dollars.
	LiabilitySplitTolerance = 1.0

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
