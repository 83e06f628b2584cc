// Package extract recovers typed records from free-form model output.
//
// Completion text is expected to carry a JSON object matching a Schema, but
// in practice it arrives wrapped in prose, fenced in markdown, or partially
// malformed. Extract applies a fixed sequence of recovery steps and either
// returns a fully populated Record or a *Failure. It never returns a record
// missing a required field.
package extract

import (
	"math"
	"strings"
)

// MaterialTolerance is the fraction of a field's span that a numeric value
// may fall outside its bounds and still be clamped. Values further out are
// rejected with OUT_OF_RANGE.
const MaterialTolerance = 0.5

// Kind identifies how a field's raw value is typed and coerced.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindNumber
	KindEnum
)

// Bounds is an inclusive numeric range.
type Bounds struct {
	Min float64
	Max float64
}

// clamp reports the value to store, whether it was moved onto the range,
// and whether the value was close enough to the range to keep at all.
func (b Bounds) clamp(n float64) (value float64, clamped bool, ok bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false, false
	}

	tolerance := (b.Max - b.Min) * MaterialTolerance
	if n < b.Min-tolerance || n > b.Max+tolerance {
		return 0, false, false
	}

	switch {
	case n < b.Min:
		return b.Min, true, true
	case n > b.Max:
		return b.Max, true, true
	default:
		return n, false, true
	}
}

// Field describes one value in a Schema. Path addresses nested objects
// with dots, e.g. "quantitative_assessment.a_score".
type Field struct {
	Path     string
	Kind     Kind
	Required bool

	// Values is the closed set for KindEnum fields.
	Values []string

	// Alias maps a non-canonical enum spelling onto a member of Values.
	Alias func(string) (string, bool)

	Bounds *Bounds
}

func (f Field) leaf() string {
	if i := strings.LastIndex(f.Path, "."); i >= 0 {
		return f.Path[i+1:]
	}
	return f.Path
}

func (f Field) segments() []string {
	return strings.Split(f.Path, ".")
}

// enum resolves s to a canonical member of the field's closed set.
func (f Field) enum(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	for _, v := range f.Values {
		if s == v {
			return v, true
		}
	}

	canonical := strings.ToUpper(s)
	canonical = strings.NewReplacer(" ", "_", "-", "_").Replace(canonical)
	for _, v := range f.Values {
		if canonical == v {
			return v, true
		}
	}

	if f.Alias != nil {
		if v, ok := f.Alias(s); ok {
			for _, member := range f.Values {
				if v == member {
					return v, true
				}
			}
		}
	}

	return "", false
}

// Schema names a set of fields extracted together.
type Schema struct {
	Name   string
	Fields []Field
}
