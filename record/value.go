// Package record holds immutable record instances and the tagged Value variant
// carried by each field.
package record

import (
	"bytes"
	"fmt"

	"github.com/acksell/dynsink/schema"
)

// Value is a tagged variant holding one field value. The zero Value is null.
type Value struct {
	kind schema.Kind
	i    int64
	f    float64
	b    bool
	s    string
	raw  []byte
	buf  *bytes.Buffer
	m    map[string]string
	arr  []*Record
	rec  *Record
}

func Null() Value                  { return Value{kind: schema.KindNull} }
func Int(v int32) Value            { return Value{kind: schema.KindInt, i: int64(v)} }
func Long(v int64) Value           { return Value{kind: schema.KindLong, i: v} }
func Float(v float32) Value        { return Value{kind: schema.KindFloat, f: float64(v)} }
func Double(v float64) Value       { return Value{kind: schema.KindDouble, f: v} }
func Boolean(v bool) Value         { return Value{kind: schema.KindBoolean, b: v} }
func String(v string) Value        { return Value{kind: schema.KindString, s: v} }
func Bytes(v []byte) Value         { return Value{kind: schema.KindBytes, raw: v} }
func Map(v map[string]string) Value { return Value{kind: schema.KindMap, m: v} }
func Array(v []*Record) Value      { return Value{kind: schema.KindArray, arr: v} }
func Nested(v *Record) Value       { return Value{kind: schema.KindRecord, rec: v} }

// BytesBuffer wraps a buffer-like byte value. Readers see the unread portion
// of the buffer as a flat slice; the buffer itself is not consumed.
func BytesBuffer(v *bytes.Buffer) Value { return Value{kind: schema.KindBytes, buf: v} }

func (v Value) Kind() schema.Kind { return v.kind }
func (v Value) IsNull() bool      { return v.kind == schema.KindNull }

// AsInt returns the payload of an int value.
func (v Value) AsInt() int32 { return int32(v.i) }

func (v Value) AsLong() int64     { return v.i }
func (v Value) AsFloat() float32  { return float32(v.f) }
func (v Value) AsDouble() float64 { return v.f }
func (v Value) AsBoolean() bool   { return v.b }
func (v Value) AsString() string  { return v.s }

// AsBytes returns the flat byte content, normalizing buffer values.
func (v Value) AsBytes() []byte {
	if v.buf != nil {
		return v.buf.Bytes()
	}
	return v.raw
}

func (v Value) AsMap() map[string]string { return v.m }
func (v Value) AsArray() []*Record       { return v.arr }
func (v Value) AsRecord() *Record        { return v.rec }

// Native returns the Go value for simple kinds and nil for null. It is what
// expressions bind to.
func (v Value) Native() any {
	switch v.kind {
	case schema.KindInt:
		return v.AsInt()
	case schema.KindLong:
		return v.i
	case schema.KindFloat:
		return v.AsFloat()
	case schema.KindDouble:
		return v.f
	case schema.KindBoolean:
		return v.b
	case schema.KindString:
		return v.s
	case schema.KindBytes:
		return v.AsBytes()
	case schema.KindMap:
		return v.m
	case schema.KindArray:
		return v.arr
	case schema.KindRecord:
		return v.rec
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.kind == schema.KindNull {
		return "null"
	}
	return fmt.Sprintf("%s(%v)", v.kind, v.Native())
}
