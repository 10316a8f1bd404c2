// Package units provides shared constants and validation for length units
// reported to clients. World coordinates are computed in millimetres.
package units

import (
	"math"
	"strconv"
	"strings"
)

// Unit constants
const (
	MM = "mm"
	CM = "cm"
	M  = "m"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MM, CM, M}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertLength converts a length from millimetres to the target units.
// Unknown units are treated as millimetres.
func ConvertLength(mm float64, targetUnits string) float64 {
	switch targetUnits {
	case CM:
		return mm / 10
	case M:
		return mm / 1000
	default:
		return mm
	}
}

// ToMillimetres converts a length in unit back to millimetres. Unknown
// units are treated as millimetres.
func ToMillimetres(v float64, unit string) float64 {
	switch unit {
	case CM:
		return v * 10
	case M:
		return v * 1000
	default:
		return v
	}
}

// FormatLength renders mm in targetUnits as a decimal string rounded to
// three decimals, the way the vision messages carry numbers.
func FormatLength(mm float64, targetUnits string) string {
	v := math.Round(ConvertLength(mm, targetUnits)*1000) / 1000
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
