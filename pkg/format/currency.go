// Package format renders currency and rate values for disclosure output.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/opeb-rollforward/pkg/constants"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// Rate renders a fractional discount rate as a percentage (e.g., 0.0381 -> "3.81%").
func Rate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*constants.PercentageMultiplier)
}

func formatPositiveCurrency(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
