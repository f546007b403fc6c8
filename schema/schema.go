// Package schema defines the recursive type descriptors for records written by
// dynsink. A Schema is built once and never mutated afterwards, so it can be
// shared freely between goroutines.
package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the type tag of a Schema.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindBytes
	KindMap
	KindArray
	KindRecord
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindString:  "string",
	KindBytes:   "bytes",
	KindMap:     "map",
	KindArray:   "array",
	KindRecord:  "record",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsPrimitive reports whether values of this kind encode to a single column.
func (k Kind) IsPrimitive() bool {
	return k <= KindBytes
}

// Schema describes the shape of a value.
type Schema struct {
	kind     Kind
	nullable bool
	name     string  // record name
	fields   []Field // record fields in declared order
	index    map[string]int
	elem     *Schema // array element
}

// Field is a named member of a record schema.
type Field struct {
	Name   string
	Schema *Schema
}

var primitives = map[Kind]*Schema{}

func init() {
	for k := KindNull; k <= KindBytes; k++ {
		primitives[k] = &Schema{kind: k}
	}
	primitives[KindMap] = &Schema{kind: KindMap}
}

// Of returns the schema for a primitive kind or a map of string to string.
// It panics for array and record kinds, use ArrayOf and RecordOf instead.
func Of(k Kind) *Schema {
	s, ok := primitives[k]
	if !ok {
		panic(fmt.Sprintf("schema.Of: %s is not a primitive kind", k))
	}
	return s
}

// MapOf returns the schema of a map from string to string.
func MapOf() *Schema {
	return primitives[KindMap]
}

// ArrayOf returns the schema of an array with the given element schema.
func ArrayOf(elem *Schema) *Schema {
	if elem == nil {
		panic("schema.ArrayOf: nil element schema")
	}
	return &Schema{kind: KindArray, elem: elem}
}

// RecordOf returns a record schema. Field names must be unique and non-empty.
func RecordOf(name string, fields ...Field) (*Schema, error) {
	s := &Schema{
		kind:   KindRecord,
		name:   name,
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, errors.Errorf("record %q: field %d has no name", name, i)
		}
		if f.Schema == nil {
			return nil, errors.Errorf("record %q: field %q has no schema", name, f.Name)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, errors.Errorf("record %q: duplicate field %q", name, f.Name)
		}
		s.fields[i] = f
		s.index[f.Name] = i
	}
	return s, nil
}

// MustRecordOf is like RecordOf but panics on error.
func MustRecordOf(name string, fields ...Field) *Schema {
	s, err := RecordOf(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// F is shorthand for building a Field.
func F(name string, s *Schema) Field {
	return Field{Name: name, Schema: s}
}

// Nullable wraps s so that null is an accepted value.
func Nullable(s *Schema) *Schema {
	if s.nullable {
		return s
	}
	cp := *s
	cp.nullable = true
	return &cp
}

// Kind returns the type tag. Nullability is not reflected in the kind.
func (s *Schema) Kind() Kind { return s.kind }

// IsNullable reports whether null is an accepted value.
func (s *Schema) IsNullable() bool { return s.nullable }

// NonNullable returns s with the nullable wrapper removed.
func (s *Schema) NonNullable() *Schema {
	if !s.nullable {
		return s
	}
	cp := *s
	cp.nullable = false
	return &cp
}

// Name returns the record name, or "" for non-record schemas.
func (s *Schema) Name() string { return s.name }

// Fields returns the record fields in declared order.
func (s *Schema) Fields() []Field { return s.fields }

// Field looks up a record field by exact name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Elem returns the element schema of an array, or nil.
func (s *Schema) Elem() *Schema { return s.elem }

// IsSimple reports whether the schema, after unwrapping nullability, is one of
// string, int, long, float or double. Only simple fields can be referenced
// from row key and column family expressions.
func (s *Schema) IsSimple() bool {
	switch s.kind {
	case KindString, KindInt, KindLong, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// String renders a compact description, e.g. "record Event{id: string, tags: array<record Tag{...}>}".
func (s *Schema) String() string {
	var b strings.Builder
	s.write(&b, 0)
	return b.String()
}

func (s *Schema) write(b *strings.Builder, depth int) {
	if s.nullable {
		b.WriteString("?")
	}
	switch s.kind {
	case KindMap:
		b.WriteString("map<string,string>")
	case KindArray:
		b.WriteString("array<")
		s.elem.write(b, depth+1)
		b.WriteString(">")
	case KindRecord:
		b.WriteString("record ")
		b.WriteString(s.name)
		if depth > 1 {
			b.WriteString("{...}")
			return
		}
		b.WriteString("{")
		for i, f := range s.fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Schema.write(b, depth+1)
		}
		b.WriteString("}")
	default:
		b.WriteString(s.kind.String())
	}
}
