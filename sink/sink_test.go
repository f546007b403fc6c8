package sink

import (
	"context"
	"testing"

	"github.com/acksell/dynsink/dynfield"
	"github.com/acksell/dynsink/expr"
	"github.com/acksell/dynsink/mutation"
	"github.com/acksell/dynsink/record"
	"github.com/acksell/dynsink/schema"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	str = schema.Of(schema.KindString)

	kvSchema = schema.MustRecordOf("kv",
		schema.F("field", str),
		schema.F("value", schema.Nullable(str)),
	)

	eventSchema = schema.MustRecordOf("event",
		schema.F("id", str),
		schema.F("count", schema.Of(schema.KindInt)),
		schema.F("ok", schema.Of(schema.KindBoolean)),
		schema.F("region", schema.Nullable(str)),
		schema.F("tags", schema.MapOf()),
		schema.F("extra", schema.ArrayOf(kvSchema)),
	)
)

func familyConfig() Config {
	return Config{
		ReferenceName: "events-sink",
		Table:         "events",
		RowKey:        "id + '-' + count",
		Family:        "'cf'",
		Durability:    "skip wal",
	}
}

func newEvent(t *testing.T, id string, count int, region any) *record.Record {
	t.Helper()
	r, err := record.FromNative(eventSchema, map[string]any{
		"id":     id,
		"count":  count,
		"ok":     true,
		"region": region,
		"tags":   map[string]any{"t": "x"},
		"extra":  []any{map[string]any{"field": "k1", "value": "v1"}},
	})
	require.NoError(t, err)
	return r
}

func failureMessages(t *testing.T, err error) []string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected *ValidationError, got %v", err)
	msgs := make([]string, len(ve.Failures))
	for i, f := range ve.Failures {
		msgs[i] = f.Error()
	}
	return msgs
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(familyConfig(), KindFamily, eventSchema))

	tests := []struct {
		name   string
		modify func(*Config)
		kind   Kind
		want   []string
	}{
		{
			name:   "everything missing is reported together",
			modify: func(c *Config) { *c = Config{} },
			kind:   KindFamily,
			want:   []string{"reference name is required", "table name is required", "row key is required", "family is required"},
		},
		{
			name:   "bad reference name",
			modify: func(c *Config) { c.ReferenceName = "my sink" },
			kind:   KindFamily,
			want:   []string{`reference name "my sink" may only contain`},
		},
		{
			name:   "row key without variables",
			modify: func(c *Config) { c.RowKey = "'constant'" },
			kind:   KindFamily,
			want:   []string{"is not correctly formed"},
		},
		{
			name:   "row key does not compile",
			modify: func(c *Config) { c.RowKey = "id +" },
			kind:   KindFamily,
			want:   []string{"compile expression"},
		},
		{
			name:   "row key binding errors",
			modify: func(c *Config) { c.RowKey = "tags + nope" },
			kind:   KindFamily,
			want:   []string{`variable "nope" that is not present`, `variable "tags" that is not of type`},
		},
		{
			name:   "family binding error",
			modify: func(c *Config) { c.Family = "extra" },
			kind:   KindFamily,
			want:   []string{`variable "extra" that is not of type`},
		},
		{
			name:   "family on a table sink",
			modify: func(c *Config) {},
			kind:   KindTable,
			want:   []string{"family is not supported by table sinks"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := familyConfig()
			tt.modify(&cfg)
			msgs := failureMessages(t, Validate(cfg, tt.kind, eventSchema))
			require.Len(t, msgs, len(tt.want), "failures: %v", msgs)
			for i, want := range tt.want {
				assert.Contains(t, msgs[i], want)
			}
		})
	}
}

func TestValidateTypedErrors(t *testing.T) {
	cfg := familyConfig()
	cfg.RowKey = "id +"
	var ce *expr.CompileError
	assert.ErrorAs(t, Validate(cfg, KindFamily, eventSchema), &ce)

	named := schema.MustRecordOf("event",
		schema.F("upper", str),
		schema.F("id", str),
	)
	cfg = familyConfig()
	cfg.RowKey = "upper(id)"
	ce = nil
	require.ErrorAs(t, Validate(cfg, KindFamily, named), &ce)
	assert.Equal(t, "upper(id)", ce.Expression)

	cfg = familyConfig()
	cfg.RowKey = "missing"
	var be *expr.VariableBindingError
	require.ErrorAs(t, Validate(cfg, KindFamily, eventSchema), &be)
	assert.Equal(t, expr.ReasonMissing, be.Reason)

	bad := schema.MustRecordOf("event",
		schema.F("id", str),
		schema.F("extra", schema.ArrayOf(schema.MustRecordOf("pair", schema.F("a", str), schema.F("b", str)))),
	)
	var sf *dynfield.ShapeFailureError
	assert.ErrorAs(t, Validate(familyConfig(), KindFamily, bad), &sf)

	violating := schema.MustRecordOf("event",
		schema.F("id", str),
		schema.F("extra", schema.ArrayOf(str)),
	)
	var sv *dynfield.ShapeViolation
	assert.ErrorAs(t, Validate(familyConfig(), KindFamily, violating), &sv)
}

func TestTransformFamily(t *testing.T) {
	s, err := New(familyConfig(), KindFamily, eventSchema)
	require.NoError(t, err)

	m, err := s.Transform(context.Background(), newEvent(t, "a", 3, "eu"))
	require.NoError(t, err)
	assert.Equal(t, "a-3", string(m.Row))
	assert.Equal(t, "cf", string(m.Family))
	assert.Equal(t, mutation.SkipWAL, m.Durability)

	want := map[string][]byte{
		"id":     mutation.EncodeString("a"),
		"count":  mutation.EncodeInt(3),
		"ok":     mutation.EncodeBoolean(true),
		"region": mutation.EncodeString("eu"),
		"t":      mutation.EncodeString("x"),
		"k1":     mutation.EncodeString("v1"),
	}
	assert.Equal(t, len(want), m.Len())
	for name, value := range want {
		c, ok := m.Column(name)
		require.True(t, ok, name)
		assert.Equal(t, value, c.Value, name)
	}
}

func TestTransformTable(t *testing.T) {
	cfg := familyConfig()
	cfg.Family = ""
	s, err := New(cfg, KindTable, eventSchema)
	require.NoError(t, err)

	m, err := s.Transform(context.Background(), newEvent(t, "a", 3, nil))
	require.NoError(t, err)
	assert.Equal(t, "a-3", string(m.Row))
	assert.Empty(t, m.Family)
	assert.Equal(t, mutation.SyncWAL, m.Durability)

	c, ok := m.Column("region")
	require.True(t, ok)
	assert.True(t, c.Null)
}

func TestTransformErrors(t *testing.T) {
	cfg := familyConfig()
	cfg.RowKey = "id"
	s, err := New(cfg, KindFamily, eventSchema)
	require.NoError(t, err)
	_, err = s.Transform(context.Background(), newEvent(t, "", 1, nil))
	assert.ErrorContains(t, err, "empty string")

	cfg = familyConfig()
	cfg.Family = "region"
	s, err = New(cfg, KindFamily, eventSchema)
	require.NoError(t, err)
	_, err = s.Transform(context.Background(), newEvent(t, "a", 1, ""))
	assert.ErrorContains(t, err, "family")

	cfg = familyConfig()
	cfg.RowKey = "region + id"
	s, err = New(cfg, KindFamily, eventSchema)
	require.NoError(t, err)
	_, err = s.Transform(context.Background(), newEvent(t, "a", 1, nil))
	var ee *expr.EvalError
	assert.ErrorAs(t, err, &ee, "null operands do not evaluate")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{}, KindTable, eventSchema)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Family")
	require.NoError(t, err)
	assert.Equal(t, KindFamily, k)
	assert.Equal(t, "family", k.String())

	_, err = ParseKind("columnar")
	assert.Error(t, err)

	k, err = Config{Family: "'cf'"}.SinkKind()
	require.NoError(t, err)
	assert.Equal(t, KindFamily, k)

	k, err = Config{}.SinkKind()
	require.NoError(t, err)
	assert.Equal(t, KindTable, k)
}
