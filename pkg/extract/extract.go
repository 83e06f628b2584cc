package extract

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var fencePattern = regexp.MustCompile(`(?s)` + "```" + `[\w+-]*[ \t]*\r?\n?(.*?)\r?\n?[ \t]*` + "```")

// Extract recovers a Record for schema from raw completion text.
//
// The steps run in order and the first to satisfy every required field wins:
// a direct JSON parse, a parse after stripping a markdown fence, a parse of
// the span between the first '{' and the last '}', and finally per-field
// pattern recovery. A numeric value outside its bounds by more than
// MaterialTolerance stops extraction with OUT_OF_RANGE. When no step
// succeeds Extract returns a MALFORMED_OUTPUT *Failure.
func Extract(raw string, schema Schema) (*Record, error) {
	text := strings.TrimSpace(raw)

	attempts := []struct {
		step      Step
		candidate func(string) (string, bool)
	}{
		{StepDirect, verbatim},
		{StepFenced, unfence},
		{StepSubstring, braceSpan},
	}

	for _, a := range attempts {
		candidate, ok := a.candidate(text)
		if !ok {
			continue
		}

		rec, err := decode(candidate, schema)
		if errors.Is(err, errMismatch) {
			continue
		}
		if err != nil {
			return nil, withRaw(err, raw)
		}

		rec.Step = a.step
		return rec, nil
	}

	rec, err := recoverFields(text, schema)
	switch {
	case err == nil:
		rec.Step = StepFields
		return rec, nil
	case !errors.Is(err, errMismatch):
		return nil, withRaw(err, raw)
	}

	return nil, &Failure{Kind: MalformedOutput, Schema: schema.Name, RawText: raw}
}

func withRaw(err error, raw string) error {
	var f *Failure
	if errors.As(err, &f) {
		f.RawText = raw
		return f
	}
	return err
}

func verbatim(text string) (string, bool) {
	return text, text != ""
}

func unfence(text string) (string, bool) {
	if m := fencePattern.FindStringSubmatch(text); len(m) == 2 {
		return strings.TrimSpace(m[1]), true
	}

	// an opening fence with no closing marker, typical of truncated output
	if rest, ok := strings.CutPrefix(text, "```"); ok {
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			return strings.TrimSpace(rest[i+1:]), true
		}
	}

	return "", false
}

func braceSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func decode(candidate string, schema Schema) (*Record, error) {
	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, errMismatch
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errMismatch
	}

	rec := newRecord(schema.Name)
	for _, f := range schema.Fields {
		v, ok := lookup(doc, f.segments())
		if ok {
			v, ok = strict(f, v)
		}

		if !ok {
			if f.Required {
				return nil, errMismatch
			}
			continue
		}

		if err := rec.set(f, v); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

func lookup(doc map[string]any, path []string) (any, bool) {
	var current any = doc
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = obj[key]; !ok {
			return nil, false
		}
	}
	return current, current != nil
}

// strict types a decoded JSON value. Numbers must be JSON numbers and enum
// values must resolve to a member of the field's closed set.
func strict(f Field, v any) (any, bool) {
	switch f.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, false
		}
		return strings.TrimSpace(s), true

	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		return f.enum(s)

	case KindInteger, KindNumber:
		n, ok := v.(json.Number)
		if !ok {
			return nil, false
		}
		return number(f, n.String())
	}

	return nil, false
}

func number(f Field, s string) (any, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, false
	}

	if f.Kind == KindNumber {
		return n, true
	}

	if n != math.Trunc(n) || math.IsInf(n, 0) {
		return nil, false
	}
	return int(n), true
}

var (
	fieldPatterns   = make(map[string]*regexp.Regexp)
	fieldPatternsMu sync.Mutex
)

func fieldPattern(leaf string) *regexp.Regexp {
	fieldPatternsMu.Lock()
	defer fieldPatternsMu.Unlock()

	if re, ok := fieldPatterns[leaf]; ok {
		return re
	}

	re := regexp.MustCompile(`"` + regexp.QuoteMeta(leaf) + `"\s*[:=]\s*(?:"((?:[^"\\]|\\.)*)"|([^,}\]\r\n]+))`)
	fieldPatterns[leaf] = re
	return re
}

// recoverFields scans text for each field's leaf key independently. It only
// succeeds when every required field is found and coerces cleanly.
func recoverFields(text string, schema Schema) (*Record, error) {
	rec := newRecord(schema.Name)

	for _, f := range schema.Fields {
		v, ok := scan(text, f)
		if !ok {
			if f.Required {
				return nil, errMismatch
			}
			continue
		}

		if err := rec.set(f, v); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

func scan(text string, f Field) (any, bool) {
	m := fieldPattern(f.leaf()).FindStringSubmatchIndex(text)
	if m == nil {
		return nil, false
	}

	if m[2] >= 0 {
		quoted := text[m[2]:m[3]]
		var s string
		if err := json.Unmarshal([]byte(`"`+quoted+`"`), &s); err != nil {
			s = quoted
		}
		return loose(f, s, true)
	}

	bare := strings.TrimSpace(text[m[4]:m[5]])
	if bare == "" || bare == "null" {
		return nil, false
	}
	return loose(f, bare, false)
}

// loose coerces a scanned token. Numeric fields accept quoted digits here.
func loose(f Field, s string, quoted bool) (any, bool) {
	switch f.Kind {
	case KindString:
		s = strings.TrimSpace(s)
		if !quoted {
			s = strings.Trim(s, `"'`)
		}
		return s, s != ""
	case KindEnum:
		return f.enum(strings.Trim(s, `"'`))
	case KindInteger, KindNumber:
		return number(f, strings.Trim(s, `"'`))
	}
	return nil, false
}
