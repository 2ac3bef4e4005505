package canon

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Each normalizer returns the canonical rendering and whether it is a real
// value. When it is not, the rendering is the field's sentinel.

// NormalizeText passes descriptions and string values through verbatim and
// renders bare numbers as plain numerals.
func NormalizeText(r Raw) (string, bool) {
	switch {
	case !r.Found:
		return UnknownText, false
	case r.HasNumber:
		return numeral(r.Number), true
	case strings.TrimSpace(r.Text) == "":
		return UnknownText, false
	}
	return r.Text, true
}

// NormalizeISO coerces the value to an integer.
func NormalizeISO(r Raw) (int, bool) {
	if !r.Found {
		return UnknownNumber, false
	}
	v, ok := r.Number, r.HasNumber
	if !ok {
		v, ok = parseNumber(strings.TrimPrefix(strings.TrimSpace(r.Text), "ISO"))
	}
	if !ok || v <= 0 || v > math.MaxInt32 {
		return UnknownNumber, false
	}
	return int(math.Round(v)), true
}

// NormalizeAperture renders an F-number as "F4.0". Text such as "f/4",
// "F4" or "4.0" is parsed back into a number first.
func NormalizeAperture(r Raw) (string, bool) {
	if !r.Found {
		return UnknownText, false
	}
	v, ok := r.Number, r.HasNumber
	if !ok {
		s := strings.TrimSpace(r.Text)
		if s != "" && (s[0] == 'f' || s[0] == 'F') {
			s = strings.TrimSpace(strings.TrimPrefix(s[1:], "/"))
		}
		v, ok = parseNumber(s)
	}
	if !ok || v <= 0 {
		return UnknownText, false
	}
	return fmt.Sprintf("F%.1f", v), true
}

// NormalizeShutter renders an exposure time in seconds: durations of at
// least one second as a plain numeral, shorter ones as 1/n. A description
// that is not a bare number is taken as already formatted.
func NormalizeShutter(r Raw) (string, bool) {
	if !r.Found {
		return UnknownText, false
	}
	v, ok := r.Number, r.HasNumber
	if !ok {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			return UnknownText, false
		}
		if v, ok = parseNumber(text); !ok {
			return text, true
		}
	}
	s, ok := ShutterFraction(v)
	if !ok {
		return UnknownText, false
	}
	return s, true
}

// ShutterFraction formats d seconds. It reports false for d <= 0.
func ShutterFraction(d float64) (string, bool) {
	switch {
	case d <= 0 || math.IsNaN(d) || math.IsInf(d, 0):
		return "", false
	case d >= 1:
		return strconv.FormatFloat(d, 'f', -1, 64), true
	}
	return "1/" + strconv.FormatFloat(math.Round(1/d), 'f', -1, 64), true
}

// NormalizeFocalLength renders millimetres as "23mm". Text already carrying
// the unit passes through.
func NormalizeFocalLength(r Raw) (string, bool) {
	if !r.Found {
		return UnknownText, false
	}
	v, ok := r.Number, r.HasNumber
	if !ok {
		text := strings.TrimSpace(r.Text)
		if strings.HasSuffix(text, "mm") {
			return text, true
		}
		v, ok = parseNumber(text)
	}
	if !ok || v <= 0 {
		return UnknownText, false
	}
	return numeral(math.Round(v*10)/10) + "mm", true
}

func numeral(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
