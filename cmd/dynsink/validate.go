package main

import (
	"fmt"
	"io"

	"github.com/acksell/dynsink/sink"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newValidateCommand(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a sink configuration against an input schema",
		Long: `Checks the reference name, table, row key and family expressions, and the
shape of every dynamic-field array in the schema. All problems are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			kind, err := cfg.SinkKind()
			if err != nil {
				return err
			}
			dec, err := loadDecoder(cmd)
			if err != nil {
				return err
			}

			err = sink.Validate(cfg, kind, dec.Schema())
			var ve *sink.ValidationError
			if errors.As(err, &ve) {
				for _, f := range ve.Failures {
					fmt.Fprintf(stderr, "  - %v\n", f)
				}
				return errors.Errorf("%d configuration problem(s)", len(ve.Failures))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s sink %q is valid for %s\n", kind, cfg.ReferenceName, dec.Schema())
			return nil
		},
	}
	addSinkFlags(cmd)
	return cmd
}
