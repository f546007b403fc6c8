package record

import (
	"bytes"
	"testing"

	"github.com/acksell/dynsink/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pairSchema = schema.MustRecordOf("Pair",
	schema.F("field", schema.Of(schema.KindString)),
	schema.F("value", schema.Nullable(schema.Of(schema.KindString))),
)

var eventSchema = schema.MustRecordOf("Event",
	schema.F("id", schema.Of(schema.KindString)),
	schema.F("count", schema.Of(schema.KindInt)),
	schema.F("score", schema.Nullable(schema.Of(schema.KindDouble))),
	schema.F("payload", schema.Nullable(schema.Of(schema.KindBytes))),
	schema.F("labels", schema.MapOf()),
	schema.F("extra", schema.ArrayOf(pairSchema)),
)

func TestBuilder(t *testing.T) {
	pair, err := NewBuilder(pairSchema).Set("field", String("x")).Set("value", String("7")).Build()
	require.NoError(t, err)

	r, err := NewBuilder(eventSchema).
		Set("id", String("e1")).
		Set("count", Int(9)).
		Set("labels", Map(map[string]string{"a": "b"})).
		Set("extra", Array([]*Record{pair})).
		Build()
	require.NoError(t, err)

	v, ok := r.Get("count")
	require.True(t, ok)
	assert.Equal(t, int32(9), v.AsInt())

	score, ok := r.Get("score")
	require.True(t, ok)
	assert.True(t, score.IsNull(), "missing nullable fields are null")

	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*Record, error)
	}{
		{"missing required", func() (*Record, error) {
			return NewBuilder(pairSchema).Set("value", String("x")).Build()
		}},
		{"kind mismatch", func() (*Record, error) {
			return NewBuilder(pairSchema).Set("field", Int(1)).Build()
		}},
		{"unknown field", func() (*Record, error) {
			return NewBuilder(pairSchema).Set("field", String("x")).Set("other", String("y")).Build()
		}},
		{"explicit null for required", func() (*Record, error) {
			return NewBuilder(pairSchema).Set("field", Null()).Build()
		}},
		{"native of wrong type", func() (*Record, error) {
			return NewBuilder(pairSchema).SetNative("field", 12).Build()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.Error(t, err)
		})
	}
}

func TestBytesBufferNormalized(t *testing.T) {
	buf := bytes.NewBufferString("hello")
	v := BytesBuffer(buf)
	assert.Equal(t, schema.KindBytes, v.Kind())
	assert.Equal(t, []byte("hello"), v.AsBytes())
	assert.Equal(t, []byte("hello"), v.AsBytes(), "reading does not consume the buffer")
}

func TestFromNative(t *testing.T) {
	r, err := FromNative(eventSchema, map[string]any{
		"id":      "e1",
		"count":   float64(3), // encoding/json numbers
		"score":   map[string]any{"double": 1.5},
		"payload": nil,
		"labels":  map[string]any{"k": "v"},
		"extra": []any{
			map[string]any{"field": "x", "value": map[string]any{"string": "7"}},
			map[string]any{"field": "y", "value": nil},
		},
	})
	require.NoError(t, err)

	count, _ := r.Get("count")
	assert.Equal(t, int32(3), count.AsInt())

	score, _ := r.Get("score")
	assert.Equal(t, 1.5, score.AsDouble())

	payload, _ := r.Get("payload")
	assert.True(t, payload.IsNull())

	labels, _ := r.Get("labels")
	assert.Equal(t, map[string]string{"k": "v"}, labels.AsMap())

	extra, _ := r.Get("extra")
	require.Len(t, extra.AsArray(), 2)
	first, _ := extra.AsArray()[0].Get("value")
	assert.Equal(t, "7", first.AsString())
	second, _ := extra.AsArray()[1].Get("value")
	assert.True(t, second.IsNull())
}

func TestFromNativeRejects(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"fractional int", map[string]any{"id": "e", "count": 1.5, "labels": map[string]any{}, "extra": []any{}}},
		{"int overflow", map[string]any{"id": "e", "count": int64(1) << 40, "labels": map[string]any{}, "extra": []any{}}},
		{"non string map value", map[string]any{"id": "e", "count": 1, "labels": map[string]any{"a": 1}, "extra": []any{}}},
		{"array of scalars", map[string]any{"id": "e", "count": 1, "labels": map[string]any{}, "extra": []any{"x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromNative(eventSchema, tt.data)
			assert.Error(t, err)
		})
	}
}

func TestNative(t *testing.T) {
	assert.Equal(t, int32(9), Int(9).Native())
	assert.Equal(t, int64(9), Long(9).Native())
	assert.Equal(t, float32(2.8), Float(2.8).Native())
	assert.Equal(t, "s", String("s").Native())
	assert.Nil(t, Null().Native())
	assert.Nil(t, Value{}.Native())
}
