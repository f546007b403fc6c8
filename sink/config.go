package sink

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the file name FindConfig looks for.
const ConfigFile = "dynsink.yaml"

// Config holds the sink settings. It is usually loaded from dynsink.yaml.
type Config struct {
	// ReferenceName identifies the sink in logs and lineage.
	ReferenceName string `yaml:"referenceName"`

	// Table is the destination table.
	Table string `yaml:"table"`

	// RowKey is the expression computing the row key of each record.
	RowKey string `yaml:"rowKey"`

	// Family is the expression computing the column family. Family sinks only.
	Family string `yaml:"family"`

	// Kind is "table" or "family". Empty means family when Family is set.
	Kind string `yaml:"kind"`

	// Durability is the write-ahead-log policy of family sinks,
	// e.g. "sync_wal" or "skip wal".
	Durability string `yaml:"durability"`

	Target TargetConfig `yaml:"target"`
}

// TargetConfig selects and configures the store the mutations go to.
type TargetConfig struct {
	// Type is "badger" (default) or "dynamodb".
	Type string `yaml:"type"`

	// Path is the badger data directory. Empty means in-memory.
	Path string `yaml:"path"`

	// Mode is the DynamoDB write mode: "update", "batch" or "create".
	Mode            string  `yaml:"mode"`
	RowKeyAttribute string  `yaml:"rowKeyAttribute"`
	WritesPerSecond float64 `yaml:"writesPerSecond"`
	Region          string  `yaml:"region"`
	Endpoint        string  `yaml:"endpoint"`
}

// SinkKind resolves the Kind setting.
func (c Config) SinkKind() (Kind, error) {
	if c.Kind == "" {
		if c.Family != "" {
			return KindFamily, nil
		}
		return KindTable, nil
	}
	return ParseKind(c.Kind)
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// FindConfig searches for dynsink.yaml starting from dir and walking up to
// the filesystem root. Returns "" if not found.
func FindConfig(dir string) string {
	for {
		path := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
