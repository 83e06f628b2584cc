package query

import (
	"reflect"
	"strconv"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// condition is a WHERE fragment whose "?" markers are replaced, in order,
// by numbered placeholders when the query is rendered.
type condition struct {
	clause string
	args   []any
}

// SortField is one ORDER BY term. Field is a view name resolved through the
// ProjectionMap.
type SortField struct {
	Field      string
	Descending bool
}

// Builder assembles COUNT and paged SELECT statements for one projection.
// Conditions are joined with AND and numbered $1..$n in the order they were added.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder for the projection. defaultSort applies when
// OrderByFields leaves no usable field.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields parses "name,-createdAt" style input. A leading "-" sorts
// descending. Blank entries are skipped and empty input yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// BuildCount returns a COUNT(*) statement over the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(b.projection.Table())
	args := b.writeWhere(&sb)
	return sb.String(), args
}

// BuildPage returns a SELECT of every projected column for the 1-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(b.projection.Columns())
	sb.WriteString(" FROM ")
	sb.WriteString(b.projection.Table())
	args := b.writeWhere(&sb)
	b.writeOrderBy(&sb)

	sb.WriteString(" LIMIT ")
	sb.WriteString(strconv.Itoa(pageSize))
	sb.WriteString(" OFFSET ")
	sb.WriteString(strconv.Itoa((page - 1) * pageSize))
	return sb.String(), args
}

// OrderByFields replaces the default sort. Fields the projection does not map
// are dropped, so client input never reaches the ORDER BY clause verbatim.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = b.sort[:0]
	for _, f := range fields {
		if b.projection.Has(f.Field) {
			b.sort = append(b.sort, f)
		}
	}
	return b
}

// WhereEquals adds "field = value". Nil values, including typed nil
// pointers, add nothing.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.where(b.projection.Column(field)+" = ?", value)
}

// WhereSearch matches search as a case-insensitive substring of any of the
// fields. LIKE wildcards in search are matched literally.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + likeEscaper.Replace(*search) + "%"
	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE ?"
		args[i] = pattern
	}
	return b.where("("+strings.Join(clauses, " OR ")+")", args...)
}

func (b *Builder) where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

func (b *Builder) writeWhere(sb *strings.Builder) []any {
	if len(b.conditions) == 0 {
		return nil
	}

	var args []any
	for i, cond := range b.conditions {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}

		rest := cond.clause
		for _, arg := range cond.args {
			before, after, _ := strings.Cut(rest, "?")
			args = append(args, arg)
			sb.WriteString(before)
			sb.WriteString("$" + strconv.Itoa(len(args)))
			rest = after
		}
		sb.WriteString(rest)
	}
	return args
}

func (b *Builder) writeOrderBy(sb *strings.Builder) {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	for i, f := range fields {
		if i == 0 {
			sb.WriteString(" ORDER BY ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(b.projection.Column(f.Field))
		if f.Descending {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
