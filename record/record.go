package record

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/acksell/dynsink/schema"
	"github.com/pkg/errors"
)

// Record is an immutable instance of a record schema.
type Record struct {
	schema *schema.Schema
	values []Value // indexed like schema.Fields()
}

// Schema returns the record schema.
func (r *Record) Schema() *schema.Schema { return r.schema }

// Get returns the value of the named field. The second result is false when
// the schema has no such field.
func (r *Record) Get(name string) (Value, bool) {
	for i, f := range r.schema.Fields() {
		if f.Name == name {
			return r.values[i], true
		}
	}
	return Value{}, false
}

// At returns the value of the i-th declared field.
func (r *Record) At(i int) Value { return r.values[i] }

// Builder assembles a Record. A Builder must not be reused after Build.
type Builder struct {
	schema *schema.Schema
	values map[string]Value
	errs   []error
}

// NewBuilder starts a record of the given record schema.
func NewBuilder(s *schema.Schema) *Builder {
	return &Builder{schema: s, values: make(map[string]Value, len(s.Fields()))}
}

// Set assigns a field value. Mismatches are reported by Build.
func (b *Builder) Set(name string, v Value) *Builder {
	b.values[name] = v
	return b
}

// SetNative converts a Go value using the declared type of the field.
func (b *Builder) SetNative(name string, v any) *Builder {
	f, ok := b.schema.Field(name)
	if !ok {
		b.errs = append(b.errs, errors.Errorf("unknown field %q", name))
		return b
	}
	val, err := fromNative(f.Schema, v)
	if err != nil {
		b.errs = append(b.errs, errors.Wrapf(err, "field %q", name))
		return b
	}
	b.values[name] = val
	return b
}

// Build validates every value against the schema and returns the record.
func (b *Builder) Build() (*Record, error) {
	if b.schema.Kind() != schema.KindRecord {
		return nil, errors.Errorf("schema %s is not a record", b.schema)
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	var unknown []string
	for name := range b.values {
		if _, ok := b.schema.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.Errorf("record %q has no field %q", b.schema.Name(), unknown[0])
	}

	fields := b.schema.Fields()
	r := &Record{schema: b.schema, values: make([]Value, len(fields))}
	for i, f := range fields {
		v := b.values[f.Name]
		if err := check(f.Schema, v); err != nil {
			return nil, errors.Wrapf(err, "field %q", f.Name)
		}
		r.values[i] = v
	}
	return r, nil
}

func check(s *schema.Schema, v Value) error {
	if v.IsNull() {
		if s.IsNullable() || s.Kind() == schema.KindNull {
			return nil
		}
		return errors.Errorf("null value for non-nullable %s", s)
	}
	if v.Kind() != s.Kind() {
		return errors.Errorf("value of kind %s does not match declared %s", v.Kind(), s)
	}
	switch s.Kind() {
	case schema.KindArray:
		for i, elem := range v.AsArray() {
			if elem == nil {
				return errors.Errorf("array element %d is nil", i)
			}
			if elem.Schema() != s.Elem() && elem.Schema().Name() != s.Elem().Name() {
				return errors.Errorf("array element %d has schema %q, want %q", i, elem.Schema().Name(), s.Elem().Name())
			}
		}
	case schema.KindRecord:
		if v.AsRecord() == nil {
			return errors.New("nil nested record")
		}
	}
	return nil
}

// FromNative converts decoded native data, as produced by encoding/json or the
// goavro codecs, into a Record. Avro union wrappers of the form {"type": v}
// are unwrapped.
func FromNative(s *schema.Schema, data map[string]any) (*Record, error) {
	b := NewBuilder(s)
	for _, f := range s.Fields() {
		raw, ok := data[f.Name]
		if !ok {
			continue
		}
		b.SetNative(f.Name, raw)
	}
	return b.Build()
}

func fromNative(s *schema.Schema, v any) (Value, error) {
	if s.IsNullable() {
		v = unwrapUnion(s, v)
	}
	if v == nil {
		return Null(), nil
	}
	switch s.Kind() {
	case schema.KindNull:
		return Value{}, errors.Errorf("expected null, got %T", v)
	case schema.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return Value{}, errors.Errorf("expected boolean, got %T", v)
		}
		return Boolean(b), nil
	case schema.KindInt:
		n, err := toInt64(v)
		if err != nil {
			return Value{}, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return Value{}, errors.Errorf("value %d overflows int", n)
		}
		return Int(int32(n)), nil
	case schema.KindLong:
		n, err := toInt64(v)
		if err != nil {
			return Value{}, err
		}
		return Long(n), nil
	case schema.KindFloat:
		f, err := toFloat64(v)
		if err != nil {
			return Value{}, err
		}
		return Float(float32(f)), nil
	case schema.KindDouble:
		f, err := toFloat64(v)
		if err != nil {
			return Value{}, err
		}
		return Double(f), nil
	case schema.KindString:
		str, ok := v.(string)
		if !ok {
			return Value{}, errors.Errorf("expected string, got %T", v)
		}
		return String(str), nil
	case schema.KindBytes:
		switch b := v.(type) {
		case []byte:
			return Bytes(b), nil
		case *bytes.Buffer:
			return BytesBuffer(b), nil
		case string:
			return Bytes([]byte(b)), nil
		}
		return Value{}, errors.Errorf("expected bytes, got %T", v)
	case schema.KindMap:
		return mapFromNative(v)
	case schema.KindArray:
		items, ok := v.([]any)
		if !ok {
			return Value{}, errors.Errorf("expected array, got %T", v)
		}
		elems := make([]*Record, len(items))
		for i, item := range items {
			ev, err := fromNative(s.Elem(), item)
			if err != nil {
				return Value{}, errors.Wrapf(err, "array element %d", i)
			}
			if ev.Kind() != schema.KindRecord {
				return Value{}, errors.Errorf("array element %d: expected record, got %s", i, ev.Kind())
			}
			elems[i] = ev.AsRecord()
		}
		return Array(elems), nil
	case schema.KindRecord:
		m, ok := v.(map[string]any)
		if !ok {
			return Value{}, errors.Errorf("expected record, got %T", v)
		}
		rec, err := FromNative(s.NonNullable(), m)
		if err != nil {
			return Value{}, err
		}
		return Nested(rec), nil
	}
	return Value{}, errors.Errorf("unsupported kind %s", s.Kind())
}

func mapFromNative(v any) (Value, error) {
	switch m := v.(type) {
	case map[string]string:
		return Map(m), nil
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, raw := range m {
			str, ok := raw.(string)
			if !ok {
				return Value{}, errors.Errorf("map entry %q: expected string, got %T", k, raw)
			}
			out[k] = str
		}
		return Map(out), nil
	}
	return Value{}, errors.Errorf("expected map, got %T", v)
}

// unwrapUnion strips a goavro union wrapper: a single-entry map keyed by the
// branch type name, e.g. {"string": "x"} or {"acme.Pair": {...}}.
func unwrapUnion(s *schema.Schema, v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v
	}
	branch := s.Kind().String()
	for k, inner := range m {
		if k == branch {
			return inner
		}
		if s.Kind() == schema.KindRecord && (k == s.Name() || strings.HasSuffix(k, "."+s.Name())) {
			return inner
		}
	}
	return v
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, errors.Errorf("expected integer, got %v", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	}
	return 0, errors.Errorf("expected integer, got %T", v)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, errors.Errorf("expected number, got %T", v)
}
