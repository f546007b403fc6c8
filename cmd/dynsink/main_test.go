package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clickSchema = `{
  "type": "record", "name": "click",
  "fields": [
    {"name": "id", "type": "string"},
    {"name": "count", "type": "int"},
    {"name": "score", "type": ["null", "double"]},
    {"name": "dyn", "type": {"type": "array", "items": {
      "type": "record", "name": "kv",
      "fields": [
        {"name": "field", "type": "string"},
        {"name": "value", "type": ["null", "string"]}
      ]}}}
  ]
}`

const clickConfig = `
referenceName: clicks
table: clicks
rowKey: id
family: "'cf'"
`

const clickRecords = `{"id": "a", "count": 1, "score": 0.5, "dyn": [{"field": "color", "value": "red"}]}
{"id": "b", "count": 2, "score": null, "dyn": []}
`

type fixture struct {
	dir    string
	schema string
	config string
}

func newFixture(t *testing.T) fixture {
	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		schema: filepath.Join(dir, "click.avsc"),
		config: filepath.Join(dir, "dynsink.yaml"),
	}
	require.NoError(t, os.WriteFile(f.schema, []byte(clickSchema), 0o644))
	require.NoError(t, os.WriteFile(f.config, []byte(clickConfig), 0o644))
	return f
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "dynsink version "+version+"\n", out)
}

func TestValidateCommand(t *testing.T) {
	f := newFixture(t)

	out, _, err := execute(t, "", "validate", "--config", f.config, "--schema", f.schema)
	require.NoError(t, err)
	assert.Contains(t, out, `family sink "clicks" is valid`)

	_, stderr, err := execute(t, "", "validate", "--config", f.config, "--schema", f.schema, "--row-key", "'fixed'", "--family", "dyn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 configuration problem(s)")
	assert.Contains(t, stderr, "not correctly formed")
	assert.Contains(t, stderr, `variable "dyn"`)

	_, _, err = execute(t, "", "validate", "--config", f.config)
	assert.ErrorContains(t, err, "schema")
}

func TestLoadMemory(t *testing.T) {
	f := newFixture(t)

	out, _, err := execute(t, clickRecords, "load", "--config", f.config, "--schema", f.schema, "--memory")
	require.NoError(t, err)
	assert.Contains(t, out, "records=2 written=2 skipped=0")
}

func TestLoadAndShow(t *testing.T) {
	f := newFixture(t)
	input := filepath.Join(f.dir, "clicks.json")
	require.NoError(t, os.WriteFile(input, []byte(clickRecords), 0o644))
	db := filepath.Join(f.dir, "data")

	_, _, err := execute(t, "", "load", "--config", f.config, "--schema", f.schema, "--input", input, "--db", db)
	require.NoError(t, err)

	out, _, err := execute(t, "", "show", "--db", db, "--table", "clicks")
	require.NoError(t, err)
	assert.Contains(t, out, "a\tcf:id\t\"a\"")
	assert.Contains(t, out, "a\tcf:color\t\"red\"")
	assert.Contains(t, out, "b\tcf:id\t\"b\"")

	out, _, err = execute(t, "", "show", "--db", db, "--table", "clicks", "--row", "b")
	require.NoError(t, err)
	assert.NotContains(t, out, "a\t")
}

func TestLoadDumpAndSkip(t *testing.T) {
	f := newFixture(t)
	input := clickRecords + `{"id": "", "count": 3, "score": null, "dyn": []}` + "\n"

	_, _, err := execute(t, input, "load", "--config", f.config, "--schema", f.schema, "--memory")
	assert.ErrorContains(t, err, "record 2")

	out, stderr, err := execute(t, input, "load", "--config", f.config, "--schema", f.schema, "--memory", "--skip-invalid", "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, `clicks "a":`)
	assert.Contains(t, out, "records=3 written=2 skipped=1")
	assert.Contains(t, stderr, "record skipped")
}

func TestLoadUnknownTarget(t *testing.T) {
	f := newFixture(t)
	_, _, err := execute(t, clickRecords, "load", "--config", f.config, "--schema", f.schema, "--target", "cassandra")
	assert.ErrorContains(t, err, `unknown target "cassandra"`)
}
