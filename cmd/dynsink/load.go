package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/acksell/dynsink/avroin"
	"github.com/acksell/dynsink/ddbwriter"
	"github.com/acksell/dynsink/logging"
	"github.com/acksell/dynsink/mutation"
	"github.com/acksell/dynsink/record"
	"github.com/acksell/dynsink/sink"
	"github.com/acksell/dynsink/store"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLoadCommand(stdin io.Reader, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Transform records and write them to badger or DynamoDB",
		Long: `Reads Avro records, newline-delimited JSON by default, transforms each one
into a row mutation and writes the mutations in input order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, stdin, stdout)
		},
	}
	addSinkFlags(cmd)

	flags := cmd.Flags()
	flags.StringP("input", "i", "-", "Input file, - for stdin.")
	flags.String("format", "json", "Input encoding: json or binary.")
	flags.String("target", "", "Store to write to: badger or dynamodb.")
	flags.String("db", "", "Badger data directory.")
	flags.Bool("memory", false, "Use an in-memory badger database.")
	flags.Bool("sync-writes", false, "Sync every badger commit to disk.")
	flags.String("mode", "", "DynamoDB write mode: update, batch or create.")
	flags.String("region", "", "AWS region.")
	flags.String("endpoint", "", "DynamoDB endpoint override, e.g. a local emulator.")
	flags.Float64("writes-per-second", 0, "Limit DynamoDB requests per second.")
	flags.Int("workers", 0, "Concurrent record transforms. Defaults to GOMAXPROCS.")
	flags.Int("batch-size", 100, "Records per write.")
	flags.Bool("skip-invalid", false, "Log and skip records that fail to transform.")
	flags.Bool("dump", false, "Print every mutation before writing it.")
	return cmd
}

func runLoad(cmd *cobra.Command, stdin io.Reader, stdout io.Writer) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	flags := cmd.Flags()

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
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
	s, err := sink.New(cfg, kind, dec.Schema())
	if err != nil {
		return err
	}

	records, err := readRecords(cmd, dec, stdin)
	if err != nil {
		return err
	}

	w, closeFn, err := openWriter(ctx, cmd, cfg.Target, log)
	if err != nil {
		return err
	}
	defer closeFn()

	if dump, _ := flags.GetBool("dump"); dump {
		w = newDumpWriter(w, stdout)
	}

	workers, _ := flags.GetInt("workers")
	batchSize, _ := flags.GetInt("batch-size")
	skip, _ := flags.GetBool("skip-invalid")
	stats, err := sink.Run(ctx, s, records, w, sink.Options{
		Workers:     workers,
		BatchSize:   batchSize,
		SkipInvalid: skip,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "records=%d written=%d skipped=%d\n", stats.Records, stats.Written, stats.Skipped)
	return nil
}

func readRecords(cmd *cobra.Command, dec *avroin.Decoder, stdin io.Reader) ([]*record.Record, error) {
	path, _ := cmd.Flags().GetString("input")
	format, _ := cmd.Flags().GetString("format")

	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open input")
		}
		defer f.Close()
		in = f
	}

	var records []*record.Record
	collect := func(_ int, r *record.Record) error {
		records = append(records, r)
		return nil
	}
	var err error
	switch format {
	case "json":
		err = dec.ReadJSON(in, collect)
	case "binary":
		var data []byte
		if data, err = io.ReadAll(in); err != nil {
			return nil, errors.Wrap(err, "read input")
		}
		err = dec.ReadBinary(data, collect)
	default:
		err = errors.Errorf("unknown input format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

// openWriter opens the target store. Flags take precedence over the target
// section of the config file.
func openWriter(ctx context.Context, cmd *cobra.Command, target sink.TargetConfig, log *logging.Logger) (sink.Writer, func() error, error) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("target", &target.Type)
	str("db", &target.Path)
	str("mode", &target.Mode)
	str("region", &target.Region)
	str("endpoint", &target.Endpoint)
	if flags.Changed("writes-per-second") {
		target.WritesPerSecond, _ = flags.GetFloat64("writes-per-second")
	}

	switch target.Type {
	case "", "badger":
		memory, _ := flags.GetBool("memory")
		syncWrites, _ := flags.GetBool("sync-writes")
		db, err := store.New(store.StoreOptions{
			Path:       target.Path,
			InMemory:   memory,
			SyncWrites: syncWrites,
			Logger:     log.Badger(),
		})
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil

	case "dynamodb":
		mode, err := ddbwriter.ParseMode(target.Mode)
		if err != nil {
			return nil, nil, err
		}
		var opts []func(*awsconfig.LoadOptions) error
		if target.Region != "" {
			opts = append(opts, awsconfig.WithRegion(target.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, nil, errors.Wrap(err, "load aws config")
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if target.Endpoint != "" {
				o.BaseEndpoint = aws.String(target.Endpoint)
			}
		})
		w := ddbwriter.New(client, ddbwriter.Options{
			RowKeyAttribute: target.RowKeyAttribute,
			Mode:            mode,
			WritesPerSecond: target.WritesPerSecond,
		})
		return w, func() error { return nil }, nil
	}
	return nil, nil, errors.Errorf("unknown target %q", target.Type)
}

// dumpWriter prints mutations before passing them on.
type dumpWriter struct {
	next sink.Writer
	out  io.Writer
	cfg  *spew.ConfigState
}

func newDumpWriter(next sink.Writer, out io.Writer) *dumpWriter {
	return &dumpWriter{
		next: next,
		out:  out,
		cfg: &spew.ConfigState{
			Indent:                  "  ",
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		},
	}
}

func (w *dumpWriter) Write(ctx context.Context, table string, muts []*mutation.Mutation) error {
	for _, m := range muts {
		fmt.Fprintf(w.out, "%s %q:\n", table, m.Row)
		w.cfg.Fdump(w.out, m)
	}
	return w.next.Write(ctx, table, muts)
}
