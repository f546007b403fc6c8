package mutation

import (
	"fmt"
	"sort"

	"github.com/acksell/dynsink/dynfield"
	"github.com/acksell/dynsink/record"
	"github.com/acksell/dynsink/schema"
	"github.com/acksell/dynsink/walker"
	"github.com/pkg/errors"
)

// EncodingError is returned when a dynamic element record cannot be turned
// into a column.
type EncodingError struct {
	Field string // the array field holding the element
	Msg   string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("dynamic field %q: %s", e.Field, e.Msg)
}

// Builder turns record walk callbacks into column writes on S. A Builder is
// scoped to one record and must not be shared.
type Builder[S ColumnSink] struct {
	sink S
}

var _ walker.RecordVisitor = (*Builder[*TablePut])(nil)

func NewBuilder[S ColumnSink](sink S) *Builder[S] {
	return &Builder[S]{sink: sink}
}

// Build walks r into sink and returns the sink.
func Build[S ColumnSink](r *record.Record, sink S) (S, error) {
	b := NewBuilder(sink)
	if err := walker.TraverseRecord(r, b); err != nil {
		return sink, err
	}
	return sink, nil
}

func (b *Builder[S]) Sink() S { return b.sink }

func (b *Builder[S]) VisitInt(_ int, name string, _ *schema.Field, v int32) (bool, error) {
	b.sink.AddColumn([]byte(name), EncodeNumber(v))
	return true, nil
}

func (b *Builder[S]) VisitLong(_ int, name string, _ *schema.Field, v int64) (bool, error) {
	b.sink.AddColumn([]byte(name), EncodeNumber(v))
	return true, nil
}

func (b *Builder[S]) VisitFloat(_ int, name string, _ *schema.Field, v float32) (bool, error) {
	b.sink.AddColumn([]byte(name), EncodeNumber(v))
	return true, nil
}

func (b *Builder[S]) VisitDouble(_ int, name string, _ *schema.Field, v float64) (bool, error) {
	b.sink.AddColumn([]byte(name), EncodeNumber(v))
	return true, nil
}

func (b *Builder[S]) VisitBoolean(_ int, name string, _ *schema.Field, v bool) (bool, error) {
	b.sink.AddColumn([]byte(name), EncodeBoolean(v))
	return true, nil
}

func (b *Builder[S]) VisitString(_ int, name string, _ *schema.Field, v string) (bool, error) {
	b.sink.AddColumn([]byte(name), EncodeString(v))
	return true, nil
}

func (b *Builder[S]) VisitBytes(_ int, name string, _ *schema.Field, v []byte) (bool, error) {
	b.sink.AddColumn([]byte(name), v)
	return true, nil
}

// VisitMap writes one column per entry, in key order.
func (b *Builder[S]) VisitMap(_ int, _ string, _ *schema.Field, v map[string]string) (bool, error) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.sink.AddColumn([]byte(k), EncodeString(v[k]))
	}
	return true, nil
}

func (b *Builder[S]) VisitNull(_ int, name string, _ *schema.Field) (bool, error) {
	b.sink.AddNull([]byte(name))
	return true, nil
}

// VisitRecord writes a dynamic element (depth > 0) as a single column named
// by its field member. Records at depth 0, the outer record included, carry
// no columns.
func (b *Builder[S]) VisitRecord(depth int, name string, _ *schema.Field, v *record.Record) (bool, error) {
	if depth == 0 {
		return true, nil
	}
	m, ok := dynfield.MemberNames(v.Schema())
	if !ok {
		return false, &EncodingError{Field: name, Msg: "element has no 'field' and 'value' members"}
	}
	col, _ := v.Get(m.Field)
	if col.IsNull() || col.Kind() != schema.KindString {
		return false, &EncodingError{Field: name, Msg: fmt.Sprintf("member %q must be a non-null string, got %s", m.Field, col)}
	}
	val, _ := v.Get(m.Value)
	if val.IsNull() {
		b.sink.AddNull([]byte(col.AsString()))
		return true, nil
	}
	enc, err := EncodeValue(val)
	if err != nil {
		return false, &EncodingError{Field: name, Msg: fmt.Sprintf("member %q: %v", m.Value, err)}
	}
	b.sink.AddColumn([]byte(col.AsString()), enc)
	return true, nil
}

// EncodeValue encodes a primitive value with the column encoding of its kind.
func EncodeValue(v record.Value) ([]byte, error) {
	switch v.Kind() {
	case schema.KindInt:
		return EncodeNumber(v.AsInt()), nil
	case schema.KindLong:
		return EncodeNumber(v.AsLong()), nil
	case schema.KindFloat:
		return EncodeNumber(v.AsFloat()), nil
	case schema.KindDouble:
		return EncodeNumber(v.AsDouble()), nil
	case schema.KindBoolean:
		return EncodeBoolean(v.AsBoolean()), nil
	case schema.KindString:
		return EncodeString(v.AsString()), nil
	case schema.KindBytes:
		return v.AsBytes(), nil
	}
	return nil, errors.Errorf("kind %s has no column encoding", v.Kind())
}
