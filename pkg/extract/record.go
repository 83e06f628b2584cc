package extract

import "slices"

// Step names the recovery step that produced a Record.
type Step string

const (
	StepDirect    Step = "direct"
	StepFenced    Step = "fenced"
	StepSubstring Step = "substring"
	StepFields    Step = "fields"
)

// Flag records a numeric value that was clamped onto its bounds.
type Flag struct {
	Field   string
	Raw     float64
	Clamped float64
}

// Record holds the typed values recovered for a Schema, keyed by field path.
// Values are string for KindString and KindEnum, int for KindInteger and
// float64 for KindNumber. Optional fields that could not be recovered are
// absent.
type Record struct {
	Schema string
	Step   Step
	Values map[string]any
	Flags  []Flag
}

func newRecord(schema string) *Record {
	return &Record{
		Schema: schema,
		Values: make(map[string]any),
	}
}

func (r *Record) Has(path string) bool {
	_, ok := r.Values[path]
	return ok
}

func (r *Record) String(path string) string {
	s, _ := r.Values[path].(string)
	return s
}

func (r *Record) Int(path string) int {
	n, _ := r.Values[path].(int)
	return n
}

// Float returns the numeric value at path and whether it was present.
func (r *Record) Float(path string) (float64, bool) {
	switch v := r.Values[path].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func (r *Record) Flagged(path string) bool {
	return slices.ContainsFunc(r.Flags, func(f Flag) bool {
		return f.Field == path
	})
}

func (r *Record) set(f Field, v any) error {
	if f.Bounds != nil {
		var n float64
		switch x := v.(type) {
		case int:
			n = float64(x)
		case float64:
			n = x
		}

		value, clamped, ok := f.Bounds.clamp(n)
		if !ok {
			return &Failure{Kind: OutOfRange, Schema: r.Schema, Field: f.Path, Value: n}
		}

		if clamped {
			r.Flags = append(r.Flags, Flag{Field: f.Path, Raw: n, Clamped: value})
			if f.Kind == KindInteger {
				v = int(value)
			} else {
				v = value
			}
		}
	}

	r.Values[f.Path] = v
	return nil
}
