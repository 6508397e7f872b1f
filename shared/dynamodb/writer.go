package dynamodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"paper-digest/shared/corpus"
	"paper-digest/shared/logger"
)

const (
	// MaxBatchSize is the maximum number of items per batch write request
	MaxBatchSize = 25

	defaultMaxRetries = 3
	defaultRetryDelay = 200 * time.Millisecond
)

// SampledPaper is one row of the samples table, keyed by (week, paper_id)
type SampledPaper struct {
	Week      string `dynamodbav:"week" json:"week"`
	PaperID   string `dynamodbav:"paper_id" json:"paper_id"`
	Abstract  string `dynamodbav:"abstract,omitempty" json:"abstract,omitempty"`
	TraceID   string `dynamodbav:"trace_id" json:"trace_id"`
	SampledAt string `dynamodbav:"sampled_at" json:"sampled_at"`
}

// WriteStats summarises a sample write
type WriteStats struct {
	TotalItems   int `json:"total_items"`
	WrittenItems int `json:"written_items"`
	SkippedItems int `json:"skipped_items"`
	BatchCount   int `json:"batch_count"`
}

// Writer handles DynamoDB write operations
type Writer struct {
	client     dynamodbiface.DynamoDBAPI
	tableName  string
	logger     *logger.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewWriter creates a new DynamoDB writer instance
func NewWriter(sess *session.Session, tableName string, log *logger.Logger) *Writer {
	return NewWriterWithClient(dynamodb.New(sess), tableName, log)
}

// NewWriterWithClient creates a new DynamoDB writer with custom client
func NewWriterWithClient(client dynamodbiface.DynamoDBAPI, tableName string, log *logger.Logger) *Writer {
	return &Writer{
		client:     client,
		tableName:  tableName,
		logger:     log,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
}

// SampledPapers converts sampled records into table items. Records without a
// paper_id and repeats of an ID already seen are skipped, since BatchWriteItem
// rejects duplicate keys within a request.
func SampledPapers(week, traceID string, sampledAt time.Time, records []corpus.Record) ([]SampledPaper, int) {
	items := make([]SampledPaper, 0, len(records))
	seen := make(map[string]bool, len(records))
	skipped := 0

	stamp := sampledAt.UTC().Format(time.RFC3339)
	for _, record := range records {
		id := strings.TrimSpace(record.PaperID())
		if id == "" || seen[id] {
			skipped++
			continue
		}
		seen[id] = true
		items = append(items, SampledPaper{
			Week:      week,
			PaperID:   id,
			Abstract:  record.Abstract(),
			TraceID:   traceID,
			SampledAt: stamp,
		})
	}
	return items, skipped
}

// WriteSample upserts a week's sampled papers. Writing stops at the first
// batch that cannot be stored.
func (w *Writer) WriteSample(ctx context.Context, week, traceID string, sampledAt time.Time, records []corpus.Record) (*WriteStats, error) {
	items, skipped := SampledPapers(week, traceID, sampledAt, records)
	stats := &WriteStats{
		TotalItems:   len(records),
		SkippedItems: skipped,
		BatchCount:   (len(items) + MaxBatchSize - 1) / MaxBatchSize,
	}

	if skipped > 0 {
		w.logger.Warn("Skipped sampled papers without a unique paper_id", map[string]interface{}{
			"skipped": skipped,
			"week":    week,
		})
	}

	if len(items) == 0 {
		w.logger.Info("No papers to upsert")
		return stats, nil
	}

	w.logger.InfoWithCount("Starting batch upsert", len(items), map[string]interface{}{
		"table_name": w.tableName,
		"week":       week,
	})

	for i := 0; i < len(items); i += MaxBatchSize {
		end := i + MaxBatchSize
		if end > len(items) {
			end = len(items)
		}

		batch := items[i:end]
		if err := w.processBatch(ctx, batch); err != nil {
			return stats, logger.NewAppErrorWithMetadata(
				logger.ErrorTypeDynamoDB,
				fmt.Sprintf("failed to process batch %d-%d", i, end-1),
				err,
				map[string]interface{}{"table_name": w.tableName, "week": week},
			)
		}
		stats.WrittenItems += len(batch)

		w.logger.Debug("Successfully processed batch", map[string]interface{}{
			"batch_start": i,
			"batch_end":   end - 1,
			"batch_size":  len(batch),
		})
	}

	w.logger.InfoWithCount("Completed batch upsert", stats.WrittenItems, map[string]interface{}{
		"table_name": w.tableName,
	})
	return stats, nil
}

// processBatch processes a single batch of items
func (w *Writer) processBatch(ctx context.Context, items []SampledPaper) error {
	if len(items) > MaxBatchSize {
		return fmt.Errorf("batch size %d exceeds maximum %d", len(items), MaxBatchSize)
	}

	writeRequests := make([]*dynamodb.WriteRequest, 0, len(items))
	for _, item := range items {
		av, err := dynamodbattribute.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal paper %s: %w", item.PaperID, err)
		}
		writeRequests = append(writeRequests, &dynamodb.WriteRequest{
			PutRequest: &dynamodb.PutRequest{Item: av},
		})
	}

	return w.executeBatchWriteWithRetry(ctx, writeRequests)
}

// executeBatchWriteWithRetry executes batch write with retry for unprocessed items
func (w *Writer) executeBatchWriteWithRetry(ctx context.Context, writeRequests []*dynamodb.WriteRequest) error {
	currentRequests := writeRequests

	for attempt := 0; attempt < w.maxRetries && len(currentRequests) > 0; attempt++ {
		if attempt > 0 {
			w.logger.Info("Retrying batch write", map[string]interface{}{
				"attempt":         attempt + 1,
				"max_retries":     w.maxRetries,
				"items_remaining": len(currentRequests),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * w.retryDelay):
			}
		}

		input := &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]*dynamodb.WriteRequest{
				w.tableName: currentRequests,
			},
		}

		result, err := w.client.BatchWriteItemWithContext(ctx, input)
		if err != nil {
			return fmt.Errorf("batch write failed on attempt %d: %w", attempt+1, err)
		}

		unprocessed := result.UnprocessedItems[w.tableName]
		if len(unprocessed) == 0 {
			return nil
		}
		currentRequests = unprocessed
		w.logger.Info("Batch write partially succeeded", map[string]interface{}{
			"unprocessed_items": len(unprocessed),
		})
	}

	return fmt.Errorf("failed to process %d items after %d retries", len(currentRequests), w.maxRetries)
}
