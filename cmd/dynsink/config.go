package main

import (
	"os"

	"github.com/acksell/dynsink/avroin"
	"github.com/acksell/dynsink/logging"
	"github.com/acksell/dynsink/sink"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// addSinkFlags registers the flags that override dynsink.yaml settings.
func addSinkFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("schema", "", "Avro schema file of the input records (required).")
	flags.String("reference-name", "", "Sink reference name.")
	flags.String("table", "", "Destination table.")
	flags.String("row-key", "", "Row key expression.")
	flags.String("family", "", "Column family expression.")
	flags.String("kind", "", "Sink kind: table or family.")
	flags.String("durability", "", "Write-ahead-log durability of family sinks.")
	_ = cmd.MarkFlagRequired("schema")
}

// loadConfig reads the config file named by --config, or the nearest
// dynsink.yaml, and applies flag overrides. No config file is not an error.
func loadConfig(cmd *cobra.Command) (sink.Config, error) {
	var cfg sink.Config

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = sink.FindConfig(wd)
		}
	}
	if path != "" {
		var err error
		if cfg, err = sink.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	overrides := map[string]*string{
		"reference-name": &cfg.ReferenceName,
		"table":          &cfg.Table,
		"row-key":        &cfg.RowKey,
		"family":         &cfg.Family,
		"kind":           &cfg.Kind,
		"durability":     &cfg.Durability,
	}
	for name, dst := range overrides {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	return cfg, nil
}

func loadDecoder(cmd *cobra.Command) (*avroin.Decoder, error) {
	path, _ := cmd.Flags().GetString("schema")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read schema")
	}
	d, err := avroin.NewDecoder(string(data))
	return d, errors.Wrapf(err, "schema %s", path)
}

func newLogger(cmd *cobra.Command) (*logging.Logger, error) {
	lvl, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	level, err := logging.ParseLevel(lvl)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format, cmd.ErrOrStderr())
}
