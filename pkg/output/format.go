// Package output provides utilities for formatting and displaying
// roll-forward results and amortization schedules.
package output

import (
	"fmt"
	"strconv"

	"github.com/iwvelando/opeb-rollforward/pkg/format"
	"github.com/iwvelando/opeb-rollforward/pkg/ledger"
	"github.com/iwvelando/opeb-rollforward/pkg/mathutil"
	"github.com/iwvelando/opeb-rollforward/pkg/valuation"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report bundles everything one roll-forward run produces for display: the
// reconciliation result and the post-advance state of both amortization
// ledgers.
type Report struct {
	ClientName           string
	Result               *valuation.RollForwardResult
	ExperienceBases      []ledger.Entry
	AssumptionBases      []ledger.Entry
	RecognizedExperience float64
	RecognizedAssumption float64
	EvictedExperience    *ledger.Entry
	EvictedAssumption    *ledger.Entry
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
// Amounts go through the locale printer for digit grouping; vintage years and
// dates are plain strings.
func PrettyFormat(report Report) {
	p := message.NewPrinter(language.English)
	result := report.Result

	header := "GASB 75 ROLL-FORWARD"
	if report.ClientName != "" {
		header = fmt.Sprintf("GASB 75 ROLL-FORWARD - %s", report.ClientName)
	}
	fmt.Printf("--- %s ---\n", header)
	fmt.Printf("Measurement Period: %s -> %s\n", result.BOYDate, result.EOYDate)
	if result.DiscountRateEOY > 0 {
		fmt.Printf("Discount Rate: %s -> %s\n", format.Rate(result.DiscountRateBOY), format.Rate(result.DiscountRateEOY))
	}
	fmt.Printf("\n")

	fmt.Printf("TOL Reconciliation:\n")
	for _, row := range result.ReconciliationTable() {
		_, _ = p.Printf("  %-24s | %14.2f\n", row.Label, row.Amount)
	}
	fmt.Printf("\n")

	fmt.Printf("Sensitivities:\n")
	_, _ = p.Printf("  %-24s | %14.2f\n", "Discount +1%", result.SensitivityDiscountPlus1)
	_, _ = p.Printf("  %-24s | %14.2f\n", "Discount -1%", result.SensitivityDiscountMinus1)
	_, _ = p.Printf("  %-24s | %14.2f\n", "Trend +1%", result.SensitivityTrendPlus1)
	_, _ = p.Printf("  %-24s | %14.2f\n", "Trend -1%", result.SensitivityTrendMinus1)
	fmt.Printf("\n")

	if result.CoveredPayroll > 0 {
		_, _ = p.Printf("Covered Payroll: $%.2f\n", result.CoveredPayroll)
		_, _ = p.Printf("TOL as %% of Covered Payroll: %.1f%%\n", mathutil.CalculatePercentage(result.ActualEOYTOL, result.CoveredPayroll))
		fmt.Printf("\n")
	}

	printSchedule("Experience amortization bases", report.ExperienceBases, report.RecognizedExperience, report.EvictedExperience, p)
	printSchedule("Assumption-change amortization bases", report.AssumptionBases, report.RecognizedAssumption, report.EvictedAssumption, p)

	for _, warning := range result.Warnings {
		fmt.Printf("WARNING: %s\n", warning)
	}
}

func printSchedule(title string, entries []ledger.Entry, recognized float64, evicted *ledger.Entry, p *message.Printer) {
	fmt.Printf("%s:\n", title)
	fmt.Printf("  Vintage | Base           | ARSL\n")
	fmt.Printf("  _______ | ______________ | ____\n")
	for _, entry := range entries {
		_, _ = p.Printf("  %s    | %14.2f | %.1f\n", strconv.Itoa(entry.VintageYear), entry.BaseAmount, entry.ARSL)
	}
	fmt.Printf("  Recognized this period: %s\n", format.Currency(recognized))
	if evicted != nil {
		_, _ = p.Printf("  Evicted vintage %s (base %.2f)\n", strconv.Itoa(evicted.VintageYear), evicted.BaseAmount)
	}
	fmt.Printf("\n")
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(report Report) {
	result := report.Result

	fmt.Printf("\"section\",\"label\",\"amount\"\n")
	for _, row := range result.ReconciliationTable() {
		fmt.Printf("\"reconciliation\",\"%s\",\"%.2f\"\n", row.Label, row.Amount)
	}
	fmt.Printf("\"sensitivity\",\"discount +1%%\",\"%.2f\"\n", result.SensitivityDiscountPlus1)
	fmt.Printf("\"sensitivity\",\"discount -1%%\",\"%.2f\"\n", result.SensitivityDiscountMinus1)
	fmt.Printf("\"sensitivity\",\"trend +1%%\",\"%.2f\"\n", result.SensitivityTrendPlus1)
	fmt.Printf("\"sensitivity\",\"trend -1%%\",\"%.2f\"\n", result.SensitivityTrendMinus1)
	if result.CoveredPayroll > 0 {
		fmt.Printf("\"payroll\",\"covered payroll\",\"%.2f\"\n", result.CoveredPayroll)
	}
	csvSchedule("experience", report.ExperienceBases, report.RecognizedExperience)
	csvSchedule("assumption", report.AssumptionBases, report.RecognizedAssumption)
}

func csvSchedule(section string, entries []ledger.Entry, recognized float64) {
	for _, entry := range entries {
		fmt.Printf("\"%s\",\"vintage %d (arsl %.1f)\",\"%.2f\"\n", section, entry.VintageYear, entry.ARSL, entry.BaseAmount)
	}
	fmt.Printf("\"%s\",\"recognized this period\",\"%.2f\"\n", section, recognized)
}
