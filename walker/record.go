package walker

import (
	"fmt"

	"github.com/acksell/dynsink/record"
	"github.com/acksell/dynsink/schema"
	"github.com/pkg/errors"
)

// RecordVisitor receives the value of every field of a record. For the outer
// record visit, field is nil.
type RecordVisitor interface {
	VisitInt(depth int, name string, field *schema.Field, v int32) (bool, error)
	VisitLong(depth int, name string, field *schema.Field, v int64) (bool, error)
	VisitFloat(depth int, name string, field *schema.Field, v float32) (bool, error)
	VisitDouble(depth int, name string, field *schema.Field, v float64) (bool, error)
	VisitBoolean(depth int, name string, field *schema.Field, v bool) (bool, error)
	VisitString(depth int, name string, field *schema.Field, v string) (bool, error)
	VisitBytes(depth int, name string, field *schema.Field, v []byte) (bool, error)
	VisitMap(depth int, name string, field *schema.Field, v map[string]string) (bool, error)
	VisitNull(depth int, name string, field *schema.Field) (bool, error)
	VisitRecord(depth int, name string, field *schema.Field, v *record.Record) (bool, error)
}

// FieldError attributes a visitor failure to the field being visited.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// TraverseRecord walks r depth-first. The outer record is visited first with
// VisitRecord at depth 0; if that returns false nothing else is visited.
// Array fields dispatch VisitRecord once per element at depth+1. Nested record
// fields dispatch VisitRecord at the field's depth and are not descended into.
func TraverseRecord(r *record.Record, v RecordVisitor) error {
	cont, err := v.VisitRecord(0, r.Schema().Name(), nil, r)
	if err != nil {
		return &FieldError{Field: r.Schema().Name(), Err: err}
	}
	if !cont {
		return nil
	}
	return traverseValues(0, r, v)
}

func traverseValues(depth int, r *record.Record, v RecordVisitor) error {
	for i, f := range r.Schema().Fields() {
		cont, err := visitValue(depth, &f, r.At(i), v)
		if err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				return err
			}
			return &FieldError{Field: f.Name, Err: err}
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func visitValue(depth int, f *schema.Field, val record.Value, v RecordVisitor) (bool, error) {
	if val.IsNull() {
		return v.VisitNull(depth, f.Name, f)
	}
	switch val.Kind() {
	case schema.KindInt:
		return v.VisitInt(depth, f.Name, f, val.AsInt())
	case schema.KindLong:
		return v.VisitLong(depth, f.Name, f, val.AsLong())
	case schema.KindFloat:
		return v.VisitFloat(depth, f.Name, f, val.AsFloat())
	case schema.KindDouble:
		return v.VisitDouble(depth, f.Name, f, val.AsDouble())
	case schema.KindBoolean:
		return v.VisitBoolean(depth, f.Name, f, val.AsBoolean())
	case schema.KindString:
		return v.VisitString(depth, f.Name, f, val.AsString())
	case schema.KindBytes:
		return v.VisitBytes(depth, f.Name, f, val.AsBytes())
	case schema.KindMap:
		return v.VisitMap(depth, f.Name, f, val.AsMap())
	case schema.KindRecord:
		return v.VisitRecord(depth, f.Name, f, val.AsRecord())
	case schema.KindArray:
		// false from an element also skips the remaining sibling fields.
		for _, elem := range val.AsArray() {
			cont, err := v.VisitRecord(depth+1, f.Name, f, elem)
			if err != nil || !cont {
				return false, err
			}
		}
		return true, nil
	default:
		return false, errors.Errorf("unhandled kind %s", val.Kind())
	}
}
