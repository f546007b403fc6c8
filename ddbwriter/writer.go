// Package ddbwriter writes mutations into a DynamoDB table. Each mutation
// becomes one item keyed by its row key; columns become binary attributes.
package ddbwriter

import (
	"context"
	"time"

	"github.com/acksell/dynsink/mutation"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Client is the subset of *dynamodb.Client the writer needs.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Mode selects the DynamoDB call used per mutation.
type Mode int

const (
	// ModeUpdate merges columns into the item with UpdateItem. Null columns
	// remove the attribute.
	ModeUpdate Mode = iota
	// ModeBatch replaces whole items with BatchWriteItem.
	ModeBatch
	// ModeCreate puts items only when the row does not exist yet.
	ModeCreate
)

// ParseMode maps "update", "batch" and "create" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "update":
		return ModeUpdate, nil
	case "batch":
		return ModeBatch, nil
	case "create":
		return ModeCreate, nil
	}
	return 0, errors.Errorf("unknown write mode %q", s)
}

const (
	DefaultRowKeyAttribute = "rowkey"
	DefaultFamilySeparator = ":"

	// maxBatchSize is the BatchWriteItem request limit.
	maxBatchSize = 25
)

type Options struct {
	// RowKeyAttribute is the table's partition key attribute. Defaults to "rowkey".
	RowKeyAttribute string
	// FamilySeparator joins family and column into an attribute name. Defaults to ":".
	FamilySeparator string
	Mode            Mode
	// MaxRetries bounds unprocessed-item retries per batch. Defaults to 10.
	MaxRetries int
	// Backoff defaults to DefaultBackoff.
	Backoff BackoffFunc
	// WritesPerSecond limits DynamoDB requests. Zero means unlimited.
	WritesPerSecond float64
}

// Writer implements the sink's Writer on top of DynamoDB.
type Writer struct {
	client  Client
	opts    Options
	limiter *rate.Limiter
}

func New(client Client, opts Options) *Writer {
	if opts.RowKeyAttribute == "" {
		opts.RowKeyAttribute = DefaultRowKeyAttribute
	}
	if opts.FamilySeparator == "" {
		opts.FamilySeparator = DefaultFamilySeparator
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 10
	}
	if opts.Backoff == nil {
		opts.Backoff = DefaultBackoff
	}
	w := &Writer{client: client, opts: opts}
	if opts.WritesPerSecond > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(opts.WritesPerSecond), 1)
	}
	return w
}

// AttributeName returns the item attribute a column is stored under.
func (w *Writer) AttributeName(family, column []byte) string {
	if len(family) == 0 {
		return string(column)
	}
	return string(family) + w.opts.FamilySeparator + string(column)
}

// columnAttribute is AttributeName for a column that must not shadow the row
// key attribute.
func (w *Writer) columnAttribute(family, column []byte) (string, error) {
	name := w.AttributeName(family, column)
	if name == w.opts.RowKeyAttribute {
		return "", errors.Errorf("column %q collides with the row key attribute", name)
	}
	return name, nil
}

// Item converts a mutation into a full DynamoDB item. The row key is a string
// attribute, columns are binary and null columns are NULL.
func (w *Writer) Item(m *mutation.Mutation) (map[string]types.AttributeValue, error) {
	if len(m.Row) == 0 {
		return nil, errors.New("empty row key")
	}
	attrs := make(map[string]any, m.Len()+1)
	for _, c := range m.Columns() {
		name, err := w.columnAttribute(m.Family, c.Name)
		if err != nil {
			return nil, err
		}
		if c.Null {
			attrs[name] = nil
			continue
		}
		attrs[name] = append([]byte{}, c.Value...)
	}
	attrs[w.opts.RowKeyAttribute] = string(m.Row)
	item, err := attributevalue.MarshalMap(attrs)
	if err != nil {
		return nil, errors.Wrap(err, "marshal item")
	}
	return item, nil
}

// Write stores the mutations in table using the configured mode.
func (w *Writer) Write(ctx context.Context, table string, muts []*mutation.Mutation) error {
	if table == "" {
		return errors.New("table name is required")
	}
	switch w.opts.Mode {
	case ModeBatch:
		return w.writeBatches(ctx, table, muts)
	case ModeCreate:
		for i, m := range muts {
			if err := w.create(ctx, table, m); err != nil {
				return errors.Wrapf(err, "mutation %d", i)
			}
		}
		return nil
	default:
		for i, m := range muts {
			if err := w.update(ctx, table, m); err != nil {
				return errors.Wrapf(err, "mutation %d", i)
			}
		}
		return nil
	}
}

func (w *Writer) wait(ctx context.Context) error {
	if w.limiter == nil {
		return nil
	}
	return w.limiter.Wait(ctx)
}

func (w *Writer) key(m *mutation.Mutation) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		w.opts.RowKeyAttribute: &types.AttributeValueMemberS{Value: string(m.Row)},
	}
}

func (w *Writer) create(ctx context.Context, table string, m *mutation.Mutation) error {
	item, err := w.Item(m)
	if err != nil {
		return err
	}
	cond := expression.AttributeNotExists(expression.Name(w.opts.RowKeyAttribute))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return errors.Wrap(err, "build condition")
	}
	if err := w.wait(ctx); err != nil {
		return err
	}
	_, err = w.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(table),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return errors.Wrapf(ErrRowExists, "row %q", m.Row)
	}
	return errors.Wrap(err, "put item")
}

// ErrRowExists is returned in ModeCreate when the row is already stored.
var ErrRowExists = errors.New("row already exists")

func (w *Writer) update(ctx context.Context, table string, m *mutation.Mutation) error {
	if len(m.Row) == 0 {
		return errors.New("empty row key")
	}
	if m.Len() == 0 {
		return nil
	}
	var upd expression.UpdateBuilder
	for _, c := range m.Columns() {
		attr, err := w.columnAttribute(m.Family, c.Name)
		if err != nil {
			return err
		}
		name := expression.NameNoDotSplit(attr)
		if c.Null {
			upd = upd.Remove(name)
			continue
		}
		upd = upd.Set(name, expression.Value(append([]byte{}, c.Value...)))
	}
	expr, err := expression.NewBuilder().WithUpdate(upd).Build()
	if err != nil {
		return errors.Wrap(err, "build update")
	}
	if err := w.wait(ctx); err != nil {
		return err
	}
	_, err = w.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       w.key(m),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return errors.Wrap(err, "update item")
}

// writeBatches splits the mutations into BatchWriteItem requests. A batch
// never holds the same row twice, DynamoDB rejects such requests.
func (w *Writer) writeBatches(ctx context.Context, table string, muts []*mutation.Mutation) error {
	var (
		batch []types.WriteRequest
		rows  = make(map[string]struct{})
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := w.execAndRetry(ctx, map[string][]types.WriteRequest{table: batch})
		batch = nil
		clear(rows)
		return err
	}
	for i, m := range muts {
		item, err := w.Item(m)
		if err != nil {
			return errors.Wrapf(err, "mutation %d", i)
		}
		if _, dup := rows[string(m.Row)]; dup || len(batch) == maxBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
		rows[string(m.Row)] = struct{}{}
		batch = append(batch, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	return flush()
}

func (w *Writer) execAndRetry(ctx context.Context, pending map[string][]types.WriteRequest) error {
	for retries := 0; ; retries++ {
		if err := w.wait(ctx); err != nil {
			return err
		}
		res, err := w.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return errors.Wrap(err, "batch write failed")
		}
		pending = res.UnprocessedItems
		if countRequests(pending) == 0 {
			return nil
		}
		if retries >= w.opts.MaxRetries {
			return errors.Errorf("max retries (%d) exceeded: %d items unprocessed", w.opts.MaxRetries, countRequests(pending))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.opts.Backoff(retries + 1)):
		}
	}
}

func countRequests(m map[string][]types.WriteRequest) int {
	var n int
	for _, reqs := range m {
		n += len(reqs)
	}
	return n
}
