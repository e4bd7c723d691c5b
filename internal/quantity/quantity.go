// Package quantity implements the "assumed available" quantity parser: it
// turns a LEMS attribute value like "3 mV" or "-70" into a normalised SI
// float64, the way the instance builder needs for every <Parameter>
// attribute. It does not attempt dimensional analysis (checking that a
// Parameter's declared dimension matches the unit symbol used) — that is an
// explicit Non-goal of the wider pipeline.
package quantity

import (
	"fmt"
	"strconv"
	"strings"
)

// Quantity is a value already normalised to SI base units.
type Quantity struct {
	Value float64
}

// siScale maps the unit symbols that appear in NeuroML/LEMS models to the
// multiplier that converts a value expressed in that unit into SI base
// units. The empty symbol (a bare number) has scale 1; a symbol missing from
// this table makes Parse fail.
var siScale = map[string]float64{
	"":     1,
	"s":    1,
	"ms":   1e-3,
	"us":   1e-6,
	"m":    1,
	"cm":   1e-2,
	"mm":   1e-3,
	"um":   1e-6,
	"nm":   1e-9,
	"V":    1,
	"mV":   1e-3,
	"S":    1,
	"mS":   1e-3,
	"uS":   1e-6,
	"nS":   1e-9,
	"pS":   1e-12,
	"F":    1,
	"uF":   1e-6,
	"nF":   1e-9,
	"pF":   1e-12,
	"A":    1,
	"mA":   1e-3,
	"uA":   1e-6,
	"nA":   1e-9,
	"pA":   1e-12,
	"Ohm":  1,
	"kOhm": 1e3,
	"MOhm": 1e6,
	"Hz":   1,
	"kHz":  1e3,
	"degC": 1,
	"K":    1,
	"mol":  1,
	"mM":   1e-3,
	"M":    1,
}

// Parse reads a LEMS quantity literal of the form "<number>" or
// "<number> <unit>" (a single optional space-separated unit symbol) and
// returns it normalised to SI.
func Parse(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Quantity{}, fmt.Errorf("quantity: empty value")
	}
	i := 0
	for i < len(s) && (s[i] == '-' || s[i] == '+' || s[i] == '.' || s[i] == 'e' || s[i] == 'E' ||
		(s[i] >= '0' && s[i] <= '9')) {
		// allow a single embedded exponent sign right after e/E
		if (s[i] == 'e' || s[i] == 'E') && i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
			i++
		}
		i++
	}
	numPart := strings.TrimSpace(s[:i])
	unitPart := strings.TrimSpace(s[i:])
	v, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("quantity: bad numeric value %q: %w", s, err)
	}
	scale, ok := siScale[unitPart]
	if !ok {
		return Quantity{}, fmt.Errorf("quantity: unrecognised unit %q in %q", unitPart, s)
	}
	return Quantity{Value: v * scale}, nil
}

// Normalise is a pass-through hook kept for symmetry with the wider
// toolchain's "parse, then normalise against the Dimensions/Units tables
// declared by the LEMS document" flow. Since Parse already resolves against
// a fixed SI scale table, Normalise is currently the identity; it is the
// extension point a full dimensional-unit system would hook into.
func Normalise(q Quantity) (Quantity, error) {
	return q, nil
}
