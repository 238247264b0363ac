// Package verify runs post-run quality checks over a roll-forward result and
// the plan's amortization ledgers before the figures reach reporting.
package verify

import (
	"fmt"

	"github.com/iwvelando/opeb-rollforward/pkg/datetime"
	"github.com/iwvelando/opeb-rollforward/pkg/ledger"
	"github.com/iwvelando/opeb-rollforward/pkg/valuation"
)

// Check is the outcome of a single verification check.
type Check struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Summary aggregates all verification checks for one run.
type Summary struct {
	Checks []Check `json:"checks"`
}

// Passed reports whether every check passed.
func (s Summary) Passed() bool {
	for _, check := range s.Checks {
		if !check.Passed {
			return false
		}
	}
	return true
}

// RunChecks verifies the reconciliation identity and the structural
// invariants of both amortization ledgers.
func RunChecks(result *valuation.RollForwardResult, experience, assumption *ledger.Ledger) Summary {
	var summary Summary

	identityErr := result.CheckIdentity()
	summary.Checks = append(summary.Checks, Check{
		Name:     "reconciliation_identity",
		Passed:   identityErr == nil,
		Expected: "actual_eoy_tol == expected + assumption + experience",
		Actual:   identityActual(identityErr),
	})

	resultYear, yearErr := datetime.MeasurementYear(result.EOYDate)
	summary.Checks = append(summary.Checks, Check{
		Name:     "eoy_date_parses",
		Passed:   yearErr == nil,
		Expected: "YYYY-MM-DD",
		Actual:   result.EOYDate,
	})

	ledgers := []struct {
		name string
		l    *ledger.Ledger
	}{
		{"experience_ledger", experience},
		{"assumption_ledger", assumption},
	}
	for _, entry := range ledgers {
		summary.Checks = append(summary.Checks, checkWindow(entry.name, entry.l))
		summary.Checks = append(summary.Checks, checkContiguity(entry.name, entry.l))
		if yearErr == nil {
			summary.Checks = append(summary.Checks, checkCurrentVintage(entry.name, entry.l, resultYear))
		}
	}

	return summary
}

func identityActual(err error) string {
	if err == nil {
		return "holds"
	}
	return err.Error()
}

func checkWindow(name string, l *ledger.Ledger) Check {
	return Check{
		Name:     name + "_window",
		Passed:   l.Len() <= l.Window(),
		Expected: fmt.Sprintf("at most %d entries", l.Window()),
		Actual:   fmt.Sprintf("%d entries", l.Len()),
	}
}

func checkContiguity(name string, l *ledger.Ledger) Check {
	entries := l.Entries()
	contiguous := true
	for i := 1; i < len(entries); i++ {
		if entries[i-1].VintageYear != entries[i].VintageYear+1 {
			contiguous = false
			break
		}
	}
	return Check{
		Name:     name + "_contiguity",
		Passed:   contiguous,
		Expected: "consecutive vintage years, most recent first",
		Actual:   fmt.Sprintf("%d entries", len(entries)),
	}
}

func checkCurrentVintage(name string, l *ledger.Ledger, resultYear int) Check {
	max, ok := l.MaxVintage()
	return Check{
		Name:     name + "_current_vintage",
		Passed:   ok && max == resultYear,
		Expected: fmt.Sprintf("most recent vintage %d", resultYear),
		Actual:   fmt.Sprintf("most recent vintage %d", max),
	}
}
