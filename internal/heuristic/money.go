// internal/heuristic/money.go
package heuristic

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is the display suffix of a cost string.
type Unit string

const (
	UnitRupee    Unit = ""
	UnitThousand Unit = "k"
	UnitLakh     Unit = "Lakhs"
	UnitCrore    Unit = "Crores"
)

const (
	rupeesPerThousand = 1_000
	rupeesPerLakh     = 100_000
	rupeesPerCrore    = 10_000_000
)

// unitSuffixes maps every accepted suffix token onto its multiplier. Tokens
// are matched whole, so "Lakhs" never reads as "k".
var unitSuffixes = map[string]float64{
	"":       1,
	"k":      rupeesPerThousand,
	"K":      rupeesPerThousand,
	"L":      rupeesPerLakh,
	"Lakh":   rupeesPerLakh,
	"Lakhs":  rupeesPerLakh,
	"Cr":     rupeesPerCrore,
	"Crore":  rupeesPerCrore,
	"Crores": rupeesPerCrore,
}

var costNoise = strings.NewReplacer("₹", "", ",", "")

// Multiplier returns the rupee value of one unit, and false for an unknown
// unit.
func (u Unit) Multiplier() (float64, bool) {
	m, ok := unitSuffixes[string(u)]
	return m, ok
}

// ParseCost converts a display string such as "₹ 12 Lakhs", "₹ 45k",
// "₹ 2,000" or "₹ 1.25 Cr" into rupees.
func ParseCost(s string) (float64, error) {
	clean := strings.TrimSpace(costNoise.Replace(s))
	if clean == "" {
		return 0, fmt.Errorf("empty cost string %q", s)
	}

	split := strings.IndexFunc(clean, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	number, suffix := clean, ""
	if split >= 0 {
		number = strings.TrimSpace(clean[:split])
		suffix = strings.TrimSpace(clean[split:])
	}
	if number == "" {
		return 0, fmt.Errorf("cost %q has no numeric part", s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("cost %q: %w", s, err)
	}
	mult, ok := unitSuffixes[suffix]
	if !ok {
		return 0, fmt.Errorf("cost %q has unknown unit %q", s, suffix)
	}
	return value * mult, nil
}

// FormatAmount renders a whole number of units the way line items are
// displayed. Zero always renders as "₹ 0".
func FormatAmount(n int, u Unit) string {
	switch {
	case n == 0:
		return "₹ 0"
	case u == UnitThousand:
		return fmt.Sprintf("₹ %dk", n)
	case u == UnitRupee:
		return fmt.Sprintf("₹ %d", n)
	default:
		return fmt.Sprintf("₹ %d %s", n, u)
	}
}

// FormatLakhs renders rupees as a two-decimal Lakh figure.
func FormatLakhs(rupees float64) string {
	return fmt.Sprintf("₹ %.2f Lakhs", rupees/rupeesPerLakh)
}

// FormatRollup renders rupees in Lakhs below one crore and in crores above.
func FormatRollup(rupees float64) string {
	if rupees < rupeesPerCrore {
		return FormatLakhs(rupees)
	}
	return fmt.Sprintf("₹ %.2f Cr", rupees/rupeesPerCrore)
}
