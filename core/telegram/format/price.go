package format

import (
	"strconv"
	"strings"
)

// MinorUnits renders an integer minor-unit amount as a decimal major-unit value.
// The shortest exact representation is used with at least one fractional digit:
// 150 -> "1.5", 100 -> "1.0", 1999 -> "19.99".
func MinorUnits(amount int64) string {
	s := strconv.FormatFloat(float64(amount)/100, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
