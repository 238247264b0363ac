// Package config defines the data structures related to plan configuration
// and includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/iwvelando/opeb-rollforward/pkg/constants"
	"github.com/iwvelando/opeb-rollforward/pkg/ledger"
	"github.com/iwvelando/opeb-rollforward/pkg/mathutil"
	"github.com/iwvelando/opeb-rollforward/pkg/valuation"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DateLayout is the measurement date format expected in config files and is
// also the output date format.
const DateLayout = constants.DateLayout

// Configuration holds all configuration for opeb-rollforward.
type Configuration struct {
	Plan    Plan
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// Plan describes one OPEB plan: the prior valuation snapshot, the
// current-period roll-forward inputs, and the seeded amortization bases.
type Plan struct {
	ClientName                string
	AmortizationWindow        int
	ExperienceAnomalyFraction float64
	PriorValuation            valuation.PriorValuation
	RollForward               valuation.RollForwardInputs
	ExperienceBases           []ledger.Entry
	AssumptionBases           []ledger.Entry
}

// decodeDateHook maps YAML timestamp nodes back into the plain YYYY-MM-DD
// strings the plan structs carry. Unquoted dates like 2024-09-30 resolve to
// time.Time during YAML decoding and would otherwise fail to unmarshal into
// the measurement date fields.
func decodeDateHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from == reflect.TypeOf(time.Time{}) && to.Kind() == reflect.String {
			return data.(time.Time).Format(DateLayout), nil
		}
		return data, nil
	}
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration, viper.DecodeHook(decodeDateHook()))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()

	return &configuration, nil
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from an
// in-memory reader, e.g. an uploaded config file.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration, viper.DecodeHook(decodeDateHook()))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()

	return &configuration, nil
}

func (c *Configuration) applyDefaults() {
	if c.Plan.AmortizationWindow == 0 {
		c.Plan.AmortizationWindow = constants.DefaultAmortizationWindow
	}
	if c.Plan.ExperienceAnomalyFraction == 0 {
		c.Plan.ExperienceAnomalyFraction = constants.DefaultExperienceAnomalyFraction
	}
	if c.Plan.RollForward.PayrollGrowthRate == 0 {
		c.Plan.RollForward.PayrollGrowthRate = constants.DefaultPayrollGrowthRate
	}
}

// BuildLedgers constructs the plan's experience and assumption-change
// ledgers seeded from the configured bases.
func (c *Configuration) BuildLedgers(logger *zap.Logger) (experience, assumption *ledger.Ledger, err error) {
	experience = ledger.New(c.Plan.AmortizationWindow, logger)
	if err := experience.Seed(c.Plan.ExperienceBases); err != nil {
		return nil, nil, fmt.Errorf("seeding experience bases: %w", err)
	}
	assumption = ledger.New(c.Plan.AmortizationWindow, logger)
	if err := assumption.Seed(c.Plan.AssumptionBases); err != nil {
		return nil, nil, fmt.Errorf("seeding assumption bases: %w", err)
	}
	return experience, assumption, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Fatal input errors are reported later by the engine;
// warnings only flag configurations that are legal but likely unintended.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	plan := c.Plan
	if plan.ClientName == "" {
		warnings = append(warnings, "plan has no clientName; output will be unlabeled")
	}
	if mathutil.IsZero(plan.PriorValuation.CoveredPayroll) {
		warnings = append(warnings, "prior valuation has no coveredPayroll; payroll ratios will be omitted")
	}
	if plan.RollForward.NewDiscountRate == plan.PriorValuation.DiscountRateEOY {
		warnings = append(warnings, fmt.Sprintf("new discount rate equals prior EOY rate (%v); assumption change effect will be zero",
			plan.RollForward.NewDiscountRate))
	}
	if len(plan.ExperienceBases) != len(plan.AssumptionBases) {
		warnings = append(warnings, fmt.Sprintf("experience bases (%d) and assumption bases (%d) cover different vintage spans",
			len(plan.ExperienceBases), len(plan.AssumptionBases)))
	}
	if plan.RollForward.ActualEOYTOL != nil && plan.RollForward.ServiceCost == nil {
		warnings = append(warnings, "actualEoyTol is set (full valuation) but serviceCost is not; prior year's service cost will be reused")
	}

	return warnings
}
