// Package keyvalue writes datasets into DynamoDB tables keyed by a string
// "id" partition key. Rows are written independently: a rejected row is
// counted and the rest continue.
package keyvalue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/dbroute/internal/config"
	"github.com/JonMunkholm/dbroute/internal/dataset"
	"github.com/JonMunkholm/dbroute/internal/logging"
	"github.com/JonMunkholm/dbroute/internal/sink"
)

// batchSize is the BatchWriteItem request limit.
const batchSize = 25

// API is the subset of the DynamoDB client the sink uses.
type API interface {
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

func init() {
	sink.Register(sink.KeyValue, func(_ context.Context, targets config.Targets) (sink.Sink, error) {
		return New(targets.KeyValue)
	})
}

// Sink is the DynamoDB store.
type Sink struct {
	cfg config.KeyValueConfig

	newClient  func(ctx context.Context, cfg config.KeyValueConfig) (API, error)
	newBackoff func() backoff.BackOff
}

// New validates cfg and returns a sink. No connection is made.
func New(cfg config.KeyValueConfig) (*Sink, error) {
	if err := sink.Required(sink.KeyValue, "AWS_REGION", cfg.Region); err != nil {
		return nil, err
	}
	if cfg.WriteConcurrency <= 0 {
		cfg.WriteConcurrency = 1
	}
	return &Sink{cfg: cfg, newClient: newClient, newBackoff: newBackoff}, nil
}

func newClient(ctx context.Context, cfg config.KeyValueConfig) (API, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

func newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithMaxRetries(b, 5)
}

// Kind implements sink.Sink.
func (s *Sink) Kind() sink.Kind { return sink.KeyValue }

// Insert provisions table when missing, then writes every row. Only a
// provisioning failure is returned as an error; row failures are counted.
func (s *Sink) Insert(ctx context.Context, ds *dataset.Dataset, table string) (sink.Result, error) {
	var res sink.Result
	logger := logging.ForTarget(ctx, "dynamodb", table)

	client, err := s.newClient(ctx, s.cfg)
	if err != nil {
		return res, &sink.SinkError{Kind: sink.KeyValue, Op: "connect", Err: err}
	}

	if err := s.ensureTable(ctx, client, table); err != nil {
		return res, &sink.SinkError{Kind: sink.KeyValue, Op: "provision table " + table, Err: err}
	}

	pending := make([]pendingItem, len(ds.Rows))
	for i, row := range ds.Rows {
		pending[i] = pendingItem{row: i + 1, item: buildItem(ds.Columns, row)}
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.WriteConcurrency)

	for start := 0; start < len(pending); start += batchSize {
		chunk := pending[start:min(start+batchSize, len(pending))]
		g.Go(func() error {
			written, failed := s.writeChunk(ctx, client, table, chunk)

			mu.Lock()
			defer mu.Unlock()
			res.Inserted += written
			for _, f := range failed {
				res.Fail(f.Row, f.Err)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].Row < res.Errors[j].Row })
	for _, e := range res.Errors {
		logger.Warn("row not written", "row", e.Row, "error", e.Err)
	}
	logger.Info("rows written", "inserted", res.Inserted, "failed", res.Failed)

	s.verify(ctx, client, table, res.Inserted)
	return res, nil
}

type pendingItem struct {
	row  int
	item map[string]types.AttributeValue
}

// ensureTable creates table if it does not exist and waits until it is
// active.
func (s *Sink) ensureTable(ctx context.Context, client API, table string) error {
	out, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	switch {
	case err == nil:
		if out.Table != nil && out.Table.TableStatus == types.TableStatusActive {
			return nil
		}
	case isErrorCode(err, "ResourceNotFoundException"):
		_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(table),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(keyAttribute), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(keyAttribute), KeyType: types.KeyTypeHash},
			},
			BillingMode: types.BillingModePayPerRequest,
		})
		if err != nil && !isErrorCode(err, "ResourceInUseException") {
			return fmt.Errorf("create table: %w", err)
		}
		logging.ForTarget(ctx, "dynamodb", table).Info("table created")
	default:
		return fmt.Errorf("describe table: %w", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, s.cfg.TableWait); err != nil {
		return fmt.Errorf("wait for table: %w", err)
	}
	return nil
}

var errUnprocessed = errors.New("unprocessed items remain")

// writeChunk writes up to batchSize items. Unprocessed items are retried
// with backoff; whatever is left after that, or after the batch call
// itself fails, is written one item at a time so a bad row is isolated.
func (s *Sink) writeChunk(ctx context.Context, client API, table string, chunk []pendingItem) (int, []sink.RowError) {
	remaining := chunk

	op := func() error {
		reqs := make([]types.WriteRequest, len(remaining))
		for i, p := range remaining {
			reqs[i] = types.WriteRequest{PutRequest: &types.PutRequest{Item: p.item}}
		}
		out, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{table: reqs},
		})
		if err != nil {
			return backoff.Permanent(err)
		}
		remaining = unprocessed(remaining, out.UnprocessedItems[table])
		if len(remaining) > 0 {
			return errUnprocessed
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(s.newBackoff(), ctx))
	written := len(chunk) - len(remaining)
	if err == nil {
		return written, nil
	}

	var failed []sink.RowError
	for _, p := range remaining {
		_, err := client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(table), Item: p.item})
		if err != nil {
			failed = append(failed, sink.RowError{Row: p.row, Err: err})
			continue
		}
		written++
	}
	return written, failed
}

// unprocessed returns the members of sent whose items came back unprocessed.
func unprocessed(sent []pendingItem, back []types.WriteRequest) []pendingItem {
	if len(back) == 0 {
		return nil
	}
	byKey := make(map[string][]pendingItem, len(sent))
	for _, p := range sent {
		k := itemKey(p.item)
		byKey[k] = append(byKey[k], p)
	}

	out := make([]pendingItem, 0, len(back))
	for _, w := range back {
		if w.PutRequest == nil {
			continue
		}
		k := itemKey(w.PutRequest.Item)
		if ps := byKey[k]; len(ps) > 0 {
			out = append(out, ps[0])
			byKey[k] = ps[1:]
		}
	}
	return out
}

// verify reads the item count back after VerifyDelay and logs a warning on
// mismatch. It never changes the result.
func (s *Sink) verify(ctx context.Context, client API, table string, inserted int) {
	logger := logging.ForTarget(ctx, "dynamodb", table)

	if s.cfg.VerifyDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.VerifyDelay):
		}
	}

	var count int
	p := dynamodb.NewScanPaginator(client, &dynamodb.ScanInput{
		TableName: aws.String(table),
		Select:    types.SelectCount,
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			logger.Warn("verification scan failed", "error", err)
			return
		}
		count += int(page.Count)
	}

	if count != inserted {
		logger.Warn("item count differs from rows written", "items", count, "inserted", inserted)
		return
	}
	logger.Debug("item count verified", "items", count)
}

// isErrorCode reports whether err carries the given DynamoDB error code.
func isErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
