package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iwvelando/opeb-rollforward/internal/config"
	"github.com/iwvelando/opeb-rollforward/internal/rollforward"
	"github.com/iwvelando/opeb-rollforward/pkg/constants"
	"github.com/iwvelando/opeb-rollforward/pkg/output"
	"github.com/iwvelando/opeb-rollforward/pkg/validation"
	"github.com/iwvelando/opeb-rollforward/pkg/valuation"
	"github.com/iwvelando/opeb-rollforward/pkg/verify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to plan configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")

	// Roll-forward input overrides (config values apply when flags are unset)
	newDate := flag.String("new-date", "", "new measurement date override (YYYY-MM-DD)")
	newRate := flag.Float64("new-rate", 0, "new discount rate override (e.g., 0.0502)")
	duration := flag.Float64("duration", 0, "liability duration override")
	payrollGrowth := flag.Float64("payroll-growth", 0, "payroll growth rate override (e.g., 0.03)")
	benefitChanges := flag.String("benefit-changes", "", "benefit changes description")
	actualEOYTOL := flag.Float64("actual-eoy-tol", 0, "actual EOY TOL from a full valuation (omit for pure roll-forward)")

	runVerify := flag.Bool("verify", false, "run verification checks and fail on any violation")
	savePrior := flag.String("save-prior", "", "path to write the next period's prior valuation snapshot")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Apply CLI overrides to the roll-forward inputs
	inputs := &conf.Plan.RollForward
	if *newDate != "" {
		inputs.CurrentDate = *newDate
	}
	if *newRate != 0 {
		inputs.NewDiscountRate = *newRate
	}
	if *duration != 0 {
		inputs.Duration = duration
	}
	if *payrollGrowth != 0 {
		inputs.PayrollGrowthRate = *payrollGrowth
	}
	if *benefitChanges != "" {
		inputs.BenefitChanges = *benefitChanges
	}
	if *actualEOYTOL != 0 {
		inputs.ActualEOYTOL = actualEOYTOL
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	// Seed the amortization ledgers from the configured bases.
	experienceLedger, assumptionLedger, err := conf.BuildLedgers(logger)
	if err != nil {
		logger.Fatal("failed to build amortization ledgers",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Run the roll-forward reconciliation.
	engine := rollforward.NewEngine(logger)
	engine.SetExperienceAnomalyFraction(conf.Plan.ExperienceAnomalyFraction)

	result, err := engine.Run(&conf.Plan.PriorValuation, inputs)
	if err != nil {
		logger.Fatal("failed to compute roll-forward",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Advance both ledgers with the new period's deferred amounts.
	evictedExp, evictedAssum, err := engine.ApplyToLedgers(result, &conf.Plan.PriorValuation, experienceLedger, assumptionLedger)
	if err != nil {
		logger.Fatal("failed to advance amortization ledgers",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	report := output.Report{
		ClientName:           conf.Plan.ClientName,
		Result:               result,
		ExperienceBases:      experienceLedger.Entries(),
		AssumptionBases:      assumptionLedger.Entries(),
		RecognizedExperience: experienceLedger.RecognizedAmountThisPeriod(),
		RecognizedAssumption: assumptionLedger.RecognizedAmountThisPeriod(),
		EvictedExperience:    evictedExp,
		EvictedAssumption:    evictedAssum,
	}
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(report)
	case constants.OutputFormatCSV:
		output.CsvFormat(report)
	}

	// Persist the next period's prior valuation snapshot if requested.
	if *savePrior != "" {
		next, err := result.NextPriorValuation(&conf.Plan.PriorValuation, inputs.NewDiscountRate)
		if err != nil {
			logger.Fatal("failed to project next prior valuation",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if err := valuation.SavePriorValuation(next, *savePrior); err != nil {
			logger.Fatal("failed to save prior valuation snapshot",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		logger.Info("saved next period's prior valuation snapshot",
			zap.String("op", "main"),
			zap.String("path", *savePrior),
		)
	}

	if *runVerify {
		summary := verify.RunChecks(result, experienceLedger, assumptionLedger)
		for _, check := range summary.Checks {
			status := "PASS"
			if !check.Passed {
				status = "FAIL"
			}
			fmt.Printf("%s: %s (expected %s, got %s)\n", status, check.Name, check.Expected, check.Actual)
		}
		if !summary.Passed() {
			logger.Fatal("verification checks failed",
				zap.String("op", "main"),
			)
		}
	}
}
