package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventSchema = `{
  "type": "record",
  "name": "Event",
  "namespace": "acme",
  "fields": [
    {"name": "id", "type": "string"},
    {"name": "count", "type": "int"},
    {"name": "score", "type": ["null", "double"]},
    {"name": "labels", "type": {"type": "map", "values": "string"}},
    {"name": "extra", "type": {"type": "array", "items": {
      "type": "record", "name": "Pair",
      "fields": [
        {"name": "field", "type": "string"},
        {"name": "value", "type": ["string", "null"]}
      ]
    }}},
    {"name": "more", "type": {"type": "array", "items": "Pair"}}
  ]
}`

func TestParseAvro(t *testing.T) {
	s, err := ParseAvro(eventSchema)
	require.NoError(t, err)

	assert.Equal(t, KindRecord, s.Kind())
	assert.Equal(t, "Event", s.Name())
	require.Len(t, s.Fields(), 6)

	score, _ := s.Field("score")
	assert.True(t, score.Schema.IsNullable())
	assert.Equal(t, KindDouble, score.Schema.Kind())

	labels, _ := s.Field("labels")
	assert.Equal(t, KindMap, labels.Schema.Kind())

	extra, _ := s.Field("extra")
	require.Equal(t, KindArray, extra.Schema.Kind())
	elem := extra.Schema.Elem()
	assert.Equal(t, "Pair", elem.Name())
	value, _ := elem.Field("value")
	assert.True(t, value.Schema.IsNullable(), "null may come second in the union")

	more, _ := s.Field("more")
	assert.Same(t, elem, more.Schema.Elem(), "named reference resolves to the same schema")
}

func TestParseAvroRejects(t *testing.T) {
	tests := []struct {
		name   string
		schema string
	}{
		{"not json", `{`},
		{"top level primitive", `"string"`},
		{"wide union", `{"type":"record","name":"r","fields":[{"name":"a","type":["null","int","string"]}]}`},
		{"union without null", `{"type":"record","name":"r","fields":[{"name":"a","type":["int","string"]}]}`},
		{"map of ints", `{"type":"record","name":"r","fields":[{"name":"a","type":{"type":"map","values":"int"}}]}`},
		{"enum", `{"type":"record","name":"r","fields":[{"name":"a","type":{"type":"enum","name":"e","symbols":["X"]}}]}`},
		{"fixed", `{"type":"record","name":"r","fields":[{"name":"a","type":{"type":"fixed","name":"f","size":4}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAvro(tt.schema)
			assert.Error(t, err)
		})
	}
}
