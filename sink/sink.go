// Package sink turns input records into mutations and hands them to a store.
//
// A Sink is built once from a Config and the input schema. Validation happens
// up front; afterwards every record is transformed independently:
//
//	row key (and family) = evaluate expressions against the record
//	mutation             = walk the record, one column per primitive field
package sink

import (
	"context"
	"fmt"

	"github.com/acksell/dynsink/expr"
	"github.com/acksell/dynsink/mutation"
	"github.com/acksell/dynsink/record"
	"github.com/acksell/dynsink/schema"
	"github.com/acksell/dynsink/walker"
	"github.com/pkg/errors"
)

// Sink holds the validated configuration and compiled expressions. It is
// safe for concurrent use.
type Sink struct {
	cfg        Config
	kind       Kind
	schema     *schema.Schema
	rowKey     *expr.Expression
	family     *expr.Expression
	durability mutation.Durability
}

// New validates cfg against s and compiles the expressions.
func New(cfg Config, kind Kind, s *schema.Schema) (*Sink, error) {
	rowKey, family, err := compile(cfg, kind, s)
	if err != nil {
		return nil, err
	}
	return &Sink{
		cfg:        cfg,
		kind:       kind,
		schema:     s,
		rowKey:     rowKey,
		family:     family,
		durability: mutation.ParseDurability(cfg.Durability),
	}, nil
}

func (s *Sink) Config() Config         { return s.cfg }
func (s *Sink) Kind() Kind             { return s.kind }
func (s *Sink) Schema() *schema.Schema { return s.schema }
func (s *Sink) Table() string          { return s.cfg.Table }

// Transform builds the mutation for one record.
func (s *Sink) Transform(ctx context.Context, r *record.Record) (*mutation.Mutation, error) {
	row, err := s.rowKey.EvaluateContext(ctx, r)
	if err != nil {
		return nil, &exprError{source: SourceRowKey, err: err}
	}
	if row == "" {
		return nil, &exprError{source: SourceRowKey, err: errors.Errorf("row key %q evaluated to an empty string", s.rowKey)}
	}

	if s.kind == KindTable {
		put, err := mutation.Build(r, mutation.NewTablePut([]byte(row)))
		if err != nil {
			return nil, err
		}
		return put.Mutation(), nil
	}

	family, err := s.family.EvaluateContext(ctx, r)
	if err != nil {
		return nil, &exprError{source: SourceFamily, err: err}
	}
	if family == "" {
		return nil, &exprError{source: SourceFamily, err: errors.Errorf("family %q evaluated to an empty string", s.family)}
	}
	put, err := mutation.Build(r, mutation.NewFamilyPut([]byte(row), []byte(family), s.durability))
	if err != nil {
		return nil, err
	}
	return put.Mutation(), nil
}

// Labels used as RecordError.Field when an expression fails.
const (
	SourceRowKey = "rowkey"
	SourceFamily = "family"
)

// exprError records which expression failed.
type exprError struct {
	source string
	err    error
}

func (e *exprError) Error() string { return e.err.Error() }
func (e *exprError) Unwrap() error { return e.err }

// RecordError is a per-record failure reported by Run.
type RecordError struct {
	Index int
	// Field is the field being processed when the error happened, if known.
	// Expression failures report the bound variable, or SourceRowKey or
	// SourceFamily when no single variable is to blame.
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func newRecordError(index int, err error) *RecordError {
	re := &RecordError{Index: index, Err: err}
	var fe *walker.FieldError
	var ee *expr.EvalError
	var xe *exprError
	switch {
	case errors.As(err, &fe):
		re.Field = fe.Field
	case errors.As(err, &ee) && ee.Variable != "":
		re.Field = ee.Variable
	case errors.As(err, &xe):
		re.Field = xe.source
	}
	return re
}
