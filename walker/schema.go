// Package walker provides depth-first traversal over schemas and records.
//
// The two walkers have different payloads and are consumed by different
// callers: TraverseSchema drives configuration-time shape checks,
// TraverseRecord drives mutation construction. A visitor returning false
// stops the walk of the current level; it is a signal, not an error.
package walker

import (
	"github.com/acksell/dynsink/schema"
	"github.com/pkg/errors"
)

// SchemaVisitor receives one callback per field, dispatched on the field kind
// after nullability is unwrapped.
type SchemaVisitor interface {
	VisitInt(depth int, name string, field schema.Field) (bool, error)
	VisitLong(depth int, name string, field schema.Field) (bool, error)
	VisitFloat(depth int, name string, field schema.Field) (bool, error)
	VisitDouble(depth int, name string, field schema.Field) (bool, error)
	VisitBoolean(depth int, name string, field schema.Field) (bool, error)
	VisitString(depth int, name string, field schema.Field) (bool, error)
	VisitBytes(depth int, name string, field schema.Field) (bool, error)
	VisitNull(depth int, name string, field schema.Field) (bool, error)
	VisitMap(depth int, name string, field schema.Field) (bool, error)
	VisitArray(depth int, name string, field schema.Field) (bool, error)
}

// BaseSchemaVisitor continues on every callback. Embed it to implement only
// the callbacks you need.
type BaseSchemaVisitor struct{}

func (BaseSchemaVisitor) VisitInt(int, string, schema.Field) (bool, error)     { return true, nil }
func (BaseSchemaVisitor) VisitLong(int, string, schema.Field) (bool, error)    { return true, nil }
func (BaseSchemaVisitor) VisitFloat(int, string, schema.Field) (bool, error)   { return true, nil }
func (BaseSchemaVisitor) VisitDouble(int, string, schema.Field) (bool, error)  { return true, nil }
func (BaseSchemaVisitor) VisitBoolean(int, string, schema.Field) (bool, error) { return true, nil }
func (BaseSchemaVisitor) VisitString(int, string, schema.Field) (bool, error)  { return true, nil }
func (BaseSchemaVisitor) VisitBytes(int, string, schema.Field) (bool, error)   { return true, nil }
func (BaseSchemaVisitor) VisitNull(int, string, schema.Field) (bool, error)    { return true, nil }
func (BaseSchemaVisitor) VisitMap(int, string, schema.Field) (bool, error)     { return true, nil }
func (BaseSchemaVisitor) VisitArray(int, string, schema.Field) (bool, error)   { return true, nil }

// TraverseSchema visits every field of the record schema s in declared order.
// Array fields are visited with depth 1; their element schema is left to the
// visitor. Nested record fields are not visited.
func TraverseSchema(s *schema.Schema, v SchemaVisitor) error {
	if s.Kind() != schema.KindRecord {
		return errors.Errorf("traverse schema: %s is not a record", s)
	}
	_, err := traverseFields(0, s, v)
	return err
}

func traverseFields(depth int, s *schema.Schema, v SchemaVisitor) (bool, error) {
	for _, f := range s.Fields() {
		cont, err := visitSchemaField(depth, f, v)
		if err != nil {
			return false, errors.Wrapf(err, "field %q", f.Name)
		}
		if !cont {
			return false, nil
		}
	}
	return true, nil
}

func visitSchemaField(depth int, f schema.Field, v SchemaVisitor) (bool, error) {
	switch f.Schema.NonNullable().Kind() {
	case schema.KindInt:
		return v.VisitInt(depth, f.Name, f)
	case schema.KindLong:
		return v.VisitLong(depth, f.Name, f)
	case schema.KindFloat:
		return v.VisitFloat(depth, f.Name, f)
	case schema.KindDouble:
		return v.VisitDouble(depth, f.Name, f)
	case schema.KindBoolean:
		return v.VisitBoolean(depth, f.Name, f)
	case schema.KindString:
		return v.VisitString(depth, f.Name, f)
	case schema.KindBytes:
		return v.VisitBytes(depth, f.Name, f)
	case schema.KindNull:
		return v.VisitNull(depth, f.Name, f)
	case schema.KindMap:
		return v.VisitMap(depth, f.Name, f)
	case schema.KindArray:
		return v.VisitArray(depth+1, f.Name, f)
	case schema.KindRecord:
		return true, nil
	default:
		return false, errors.Errorf("unhandled kind %s", f.Schema.Kind())
	}
}
