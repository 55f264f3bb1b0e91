package exporter

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts/domain"
)

// formatFloat writes the shortest representation that parses back to f; missing is empty
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatDate formats a calendar date in the input layout
func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// formatReprFloat renders f the way a Python float prints: integral values keep
// a trailing ".0" and exponent notation is used outside [1e-4, 1e16).
func formatReprFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if f != 0 && (abs < 1e-4 || abs >= 1e16) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		if len(digits) < 2 {
			digits = strings.Repeat("0", 2-len(digits)) + digits
		}
		return mantissa + "e" + string(sign) + digits
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// parseFloat reads a feature cell; empty means missing
func parseFloat(s string) (float64, error) {
	if s == "" {
		return domain.Missing, nil
	}
	return strconv.ParseFloat(s, 64)
}
