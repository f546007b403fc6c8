// Package dynfield enforces the dynamic-field convention on array fields.
//
// Every array field of a record schema must hold records of either exactly
// {field, value} or exactly {field, value, type}, matched case-insensitively.
// Such arrays carry an open list of name/value pairs that are flattened into
// extra columns at write time.
package dynfield

import (
	"fmt"
	"sort"
	"strings"

	"github.com/acksell/dynsink/schema"
	"github.com/acksell/dynsink/walker"
	"github.com/pkg/errors"
)

// Canonical member names of a dynamic element record.
const (
	FieldMember = "field"
	ValueMember = "value"
	TypeMember  = "type"
)

// ShapeViolation is returned when an array element schema is not a record at
// all. It aborts validation.
type ShapeViolation struct {
	Field string
	Found *schema.Schema
}

func (e *ShapeViolation) Error() string {
	return fmt.Sprintf("dynamic field %q: array element must be a record, found %s", e.Field, e.Found)
}

// ShapeFailure describes one array field whose element record does not follow
// the convention.
type ShapeFailure struct {
	Field    string
	Expected string
	Found    []string
}

func (f ShapeFailure) String() string {
	return fmt.Sprintf("dynamic field %q: expected %s, found {%s}", f.Field, f.Expected, strings.Join(f.Found, ", "))
}

// ShapeFailureError lists every failing array field of a schema.
type ShapeFailureError struct {
	Failures []ShapeFailure
}

func (e *ShapeFailureError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.String()
	}
	return strings.Join(msgs, "; ")
}

// Result is the accumulated outcome of validating one schema.
type Result struct {
	arrays   int
	failures []ShapeFailure
}

// OK reports whether every array field passed.
func (r Result) OK() bool { return len(r.failures) == 0 }

// Arrays returns the number of array fields inspected.
func (r Result) Arrays() int { return r.arrays }

func (r Result) Failures() []ShapeFailure { return r.failures }

// Err returns a *ShapeFailureError if any array field failed.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ShapeFailureError{Failures: r.failures}
}

// Validate checks every array field of the record schema s. A non-record
// array element aborts with a *ShapeViolation; convention mismatches are
// collected in the Result and validation moves on to the next field.
func Validate(s *schema.Schema) (Result, error) {
	v := &validator{}
	if err := walker.TraverseSchema(s, v); err != nil {
		var sv *ShapeViolation
		if errors.As(err, &sv) {
			return v.result, sv
		}
		return v.result, err
	}
	return v.result, nil
}

type validator struct {
	walker.BaseSchemaVisitor
	result Result
}

func (v *validator) VisitArray(_ int, name string, field schema.Field) (bool, error) {
	v.result.arrays++
	elem := field.Schema.NonNullable().Elem().NonNullable()
	if elem.Kind() != schema.KindRecord {
		return false, &ShapeViolation{Field: name, Found: elem}
	}
	if f, ok := check(name, elem); !ok {
		v.result.failures = append(v.result.failures, f)
	}
	return true, nil
}

func check(name string, elem *schema.Schema) (ShapeFailure, bool) {
	fields := elem.Fields()
	found := make([]string, len(fields))
	seen := make(map[string]int, 3)
	for i, f := range fields {
		found[i] = f.Name
		seen[strings.ToLower(f.Name)]++
	}

	switch len(fields) {
	case 2:
		if seen[FieldMember] == 1 && seen[ValueMember] == 1 {
			return ShapeFailure{}, true
		}
		return ShapeFailure{Field: name, Expected: "{field, value}", Found: found}, false
	case 3:
		if seen[FieldMember] == 1 && seen[ValueMember] == 1 && seen[TypeMember] == 1 {
			return ShapeFailure{}, true
		}
		return ShapeFailure{Field: name, Expected: "{field, value, type}", Found: found}, false
	default:
		return ShapeFailure{Field: name, Expected: "{field, value} or {field, value, type}", Found: found}, false
	}
}

// Members holds the actual field names of a dynamic element record.
type Members struct {
	Field string
	Value string
	Type  string // empty for two-member elements
}

// MemberNames resolves the member names of a dynamic element record schema
// case-insensitively. It reports false if field or value is missing.
func MemberNames(elem *schema.Schema) (Members, bool) {
	var m Members
	names := make([]string, 0, len(elem.Fields()))
	for _, f := range elem.Fields() {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	for _, n := range names {
		switch strings.ToLower(n) {
		case FieldMember:
			if m.Field == "" {
				m.Field = n
			}
		case ValueMember:
			if m.Value == "" {
				m.Value = n
			}
		case TypeMember:
			if m.Type == "" {
				m.Type = n
			}
		}
	}
	return m, m.Field != "" && m.Value != ""
}
