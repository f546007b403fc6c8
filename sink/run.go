package sink

import (
	"context"
	"runtime"

	"github.com/acksell/dynsink/logging"
	"github.com/acksell/dynsink/mutation"
	"github.com/acksell/dynsink/record"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Writer stores mutations. store.Store and ddbwriter.Writer implement it.
type Writer interface {
	Write(ctx context.Context, table string, muts []*mutation.Mutation) error
}

type Options struct {
	// Workers bounds concurrent transforms. Defaults to GOMAXPROCS.
	Workers int
	// BatchSize is the number of records per write. Defaults to 100.
	BatchSize int
	// SkipInvalid logs and drops records that fail to transform instead of
	// stopping the run.
	SkipInvalid bool
	Logger      *logging.Logger
}

// Stats counts the records of one run.
type Stats struct {
	Records int
	Written int
	Skipped int
}

// Run transforms records and writes the mutations to w in input order, one
// batch at a time. Transforms within a batch run concurrently. The first
// record error stops the run unless SkipInvalid is set; write errors always
// stop it.
func Run(ctx context.Context, s *Sink, records []*record.Record, w Writer, opts Options) (Stats, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	log = log.WithTable(s.Table())

	var stats Stats
	for start := 0; start < len(records); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(records))
		muts, errs, err := transformBatch(ctx, s, records[start:end], opts.Workers)
		if err != nil {
			return stats, err
		}

		batch := make([]*mutation.Mutation, 0, len(muts))
		for i, m := range muts {
			stats.Records++
			if errs[i] == nil {
				batch = append(batch, m)
				continue
			}
			re := newRecordError(start+i, errs[i])
			if !opts.SkipInvalid {
				return stats, re
			}
			log.LogRecordSkipped(ctx, re.Index, re.Field, re.Err)
			stats.Skipped++
		}
		if len(batch) == 0 {
			continue
		}

		err = w.Write(ctx, s.Table(), batch)
		log.LogBatchWritten(ctx, start, len(batch), err)
		if err != nil {
			return stats, errors.Wrapf(err, "write records %d-%d", start, end-1)
		}
		stats.Written += len(batch)
	}
	log.LogRunCompleted(ctx, stats.Records, stats.Written, stats.Skipped)
	return stats, nil
}

// transformBatch returns one mutation or one error per record. The returned
// error is only set when ctx is done.
func transformBatch(ctx context.Context, s *Sink, records []*record.Record, workers int) ([]*mutation.Mutation, []error, error) {
	muts := make([]*mutation.Mutation, len(records))
	errs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, r := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			muts[i], errs[i] = s.Transform(gctx, r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return muts, errs, ctx.Err()
}
