// dynsink loads Avro records into a wide-column store.
//
// # Commands
//
//	dynsink validate   Check a sink configuration against an input schema
//	dynsink load       Transform records and write them to badger or DynamoDB
//	dynsink show       Print rows stored in a local badger database
//	dynsink version    Print the version
//
// # Quick Start
//
// Describe the sink in dynsink.yaml:
//
//	referenceName: clicks
//	table: clicks
//	rowKey: "user + ':' + ts"
//	family: "'d'"
//
// Check it against the schema, then load newline-delimited JSON records:
//
//	dynsink validate --schema click.avsc
//	dynsink load --schema click.avsc --input clicks.json --db ./data
//	dynsink show --db ./data --table clicks
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dynsink: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree with the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	rc := &cobra.Command{
		Use:   "dynsink",
		Short: "dynsink writes Avro records into wide-column stores.",
		Long: `dynsink turns typed records into row mutations. The row key and column
family are computed from record fields with small expressions; every primitive
field becomes a column, and arrays of {field, value} records become dynamic
columns.

Configuration is read from --config or from the nearest dynsink.yaml found by
walking up from the current directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rc.PersistentFlags().StringP("config", "c", "", "Configuration file to read from.")
	rc.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error.")
	rc.PersistentFlags().String("log-format", "text", "Log format: text or json.")

	rc.AddCommand(newValidateCommand(stdout, stderr))
	rc.AddCommand(newLoadCommand(stdin, stdout))
	rc.AddCommand(newShowCommand(stdout))
	rc.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "dynsink version %s\n", version)
		},
	})

	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}
