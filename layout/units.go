package layout

import (
	"strconv"
	"strings"
)

// This file defines length parsing for DSL values. Layout works in millimetres.

// Unit represents the original unit of a length value as specified in DSL.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM
	UnitCM
	UnitIN
	UnitPT
	UnitPercent
)

// Conversion constants between pt and mm.
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

var unitSuffixes = []struct {
	suffix string
	unit   Unit
}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"%", UnitPercent}}

// String returns the DSL suffix of the unit.
func (u Unit) String() string {
	for _, s := range unitSuffixes {
		if s.unit == u {
			return s.suffix
		}
	}
	return ""
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// MM converts the length to millimetres. Percentages resolve against reference,
// unit-less values are taken as millimetres.
func (l Length) MM(reference float64) float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	case UnitPercent:
		return reference * l.Value / 100
	default:
		return l.Value
	}
}

// ParseLength parses "12pt", "1.5cm", "40%" or a bare number.
func ParseLength(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	for _, s := range unitSuffixes {
		if strings.HasSuffix(v, s.suffix) {
			unit = s.unit
			v = strings.TrimSpace(strings.TrimSuffix(v, s.suffix))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}

// parseLength returns millimetres, or 0 when value is not a length.
func parseLength(value string) float64 {
	return parseDimension(value, 0)
}

// parseDimension is parseLength with percentages resolved against reference.
func parseDimension(value string, reference float64) float64 {
	l, ok := ParseLength(value)
	if !ok {
		return 0
	}
	return l.MM(reference)
}

// parseLineHeight resolves "1.2x" as a factor of base, or an absolute length.
func parseLineHeight(value string, base float64) (float64, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, false
	}
	if strings.HasSuffix(v, "x") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
		if err != nil || f <= 0 {
			return 0, false
		}
		return base * f, true
	}
	if lh := parseLength(v); lh > 0 {
		return lh, true
	}
	return 0, false
}
