package utils

import (
	"strconv"
	"strings"
)

const sizeUnitStep = 1024

var sizeUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize converts a byte length into a human-readable lower-case unit string,
// keeping one decimal below ten units ("1.5kb") and none above ("12mb").
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		return "0b"
	}
	if bytes < sizeUnitStep {
		return strconv.FormatInt(bytes, 10) + sizeUnits[0]
	}
	value := float64(bytes)
	unitIndex := 0
	for value >= sizeUnitStep && unitIndex < len(sizeUnits)-1 {
		value /= sizeUnitStep
		unitIndex++
	}
	precision := 0
	if value < 10 {
		precision = 1
	}
	formatted := strconv.FormatFloat(value, 'f', precision, 64)
	formatted = strings.TrimSuffix(formatted, ".0")
	return formatted + sizeUnits[unitIndex]
}
