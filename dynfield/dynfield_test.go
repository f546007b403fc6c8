package dynfield

import (
	"testing"

	"github.com/acksell/dynsink/schema"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elem(names ...string) *schema.Schema {
	fields := make([]schema.Field, len(names))
	for i, n := range names {
		fields[i] = schema.F(n, schema.Of(schema.KindString))
	}
	return schema.MustRecordOf("elem", fields...)
}

func withArrays(elems ...*schema.Schema) *schema.Schema {
	fields := []schema.Field{schema.F("id", schema.Of(schema.KindString))}
	for i, e := range elems {
		fields = append(fields, schema.F(string(rune('a'+i)), schema.ArrayOf(e)))
	}
	return schema.MustRecordOf("rec", fields...)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		elem *schema.Schema
		ok   bool
	}{
		{"field value", elem("field", "value"), true},
		{"mixed case", elem("Field", "VALUE"), true},
		{"reversed", elem("value", "field"), true},
		{"with type", elem("field", "value", "type"), true},
		{"with type mixed case", elem("TYPE", "Value", "field"), true},
		{"one field", elem("field"), false},
		{"four fields", elem("field", "value", "type", "extra"), false},
		{"foreign name", elem("field", "other"), false},
		{"field and type only", elem("field", "type"), false},
		{"duplicate case-insensitive", elem("field", "Field", "value"), false},
		{"three without type", elem("field", "value", "kind"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Validate(withArrays(tt.elem))
			require.NoError(t, err)
			assert.Equal(t, tt.ok, res.OK())
			assert.Equal(t, 1, res.Arrays())
			if tt.ok {
				assert.NoError(t, res.Err())
			} else {
				var sfe *ShapeFailureError
				require.True(t, errors.As(res.Err(), &sfe))
				require.Len(t, sfe.Failures, 1)
				assert.Equal(t, "a", sfe.Failures[0].Field)
			}
		})
	}
}

func TestValidateFailsRegardlessOfPosition(t *testing.T) {
	good := elem("field", "value")
	bad := elem("field", "nope")
	orders := [][]*schema.Schema{
		{bad, good, good},
		{good, bad, good},
		{good, good, bad},
	}
	for _, order := range orders {
		res, err := Validate(withArrays(order...))
		require.NoError(t, err)
		assert.False(t, res.OK())
		assert.Len(t, res.Failures(), 1)
		assert.Equal(t, 3, res.Arrays(), "every array is inspected")
	}
}

func TestValidateAccumulatesAllFailures(t *testing.T) {
	res, err := Validate(withArrays(elem("x"), elem("field", "value"), elem("a", "b", "c")))
	require.NoError(t, err)
	require.Len(t, res.Failures(), 2)
	assert.Equal(t, "a", res.Failures()[0].Field)
	assert.Equal(t, "c", res.Failures()[1].Field)
	assert.Equal(t, "{field, value, type}", res.Failures()[1].Expected)
	assert.Equal(t, []string{"a", "b", "c"}, res.Failures()[1].Found)
	assert.Contains(t, res.Err().Error(), `dynamic field "a"`)
}

func TestValidateNoArrays(t *testing.T) {
	res, err := Validate(withArrays())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Zero(t, res.Arrays())
}

func TestValidateShapeViolation(t *testing.T) {
	s := schema.MustRecordOf("rec",
		schema.F("tags", schema.ArrayOf(schema.Of(schema.KindString))),
		schema.F("more", schema.ArrayOf(elem("x"))),
	)
	res, err := Validate(s)
	var sv *ShapeViolation
	require.True(t, errors.As(err, &sv))
	assert.Equal(t, "tags", sv.Field)
	assert.Zero(t, len(res.Failures()), "violation aborts before later arrays")
}

func TestValidateNullableArray(t *testing.T) {
	s := schema.MustRecordOf("rec",
		schema.F("extra", schema.Nullable(schema.ArrayOf(schema.Nullable(elem("field", "value"))))),
	)
	res, err := Validate(s)
	require.NoError(t, err)
	assert.True(t, res.OK())
}

func TestMemberNames(t *testing.T) {
	m, ok := MemberNames(elem("Value", "FIELD", "Type"))
	require.True(t, ok)
	assert.Equal(t, Members{Field: "FIELD", Value: "Value", Type: "Type"}, m)

	_, ok = MemberNames(elem("field", "type"))
	assert.False(t, ok)
}
