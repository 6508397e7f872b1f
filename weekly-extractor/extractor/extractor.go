package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"paper-digest/shared/corpus"
	"paper-digest/shared/dedup"
	"paper-digest/shared/dynamodb"
	"paper-digest/shared/exporter"
	"paper-digest/shared/logger"
	"paper-digest/shared/report"
	"paper-digest/shared/s3"
	"paper-digest/shared/sampler"
	"paper-digest/weekly-extractor/filter"
	"paper-digest/weekly-extractor/week"
)

// ErrEmptyWeek means the corpus has no papers in the target week. The run
// ends cleanly without writing a sample.
var ErrEmptyWeek = errors.New("no papers found for the target week")

const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
)

// CorpusLoader loads the monthly CSV files
type CorpusLoader interface {
	Load(ctx context.Context, src corpus.Source) (*corpus.Corpus, error)
}

// Deduplicator drops repeated paper IDs
type Deduplicator interface {
	Deduplicate(records []corpus.Record) ([]corpus.Record, dedup.Stats)
}

// SamplePublisher uploads the sample file
type SamplePublisher interface {
	UploadSample(ctx context.Context, week string, csvData []byte, paperCount int, traceID string) (*s3.UploadResult, error)
}

// SampleStore records the sampled papers
type SampleStore interface {
	WriteSample(ctx context.Context, week, traceID string, sampledAt time.Time, records []corpus.Record) (*dynamodb.WriteStats, error)
}

// Options control a single extraction
type Options struct {
	Source     corpus.Source
	SamplesDir string
	SampleSize int
	Seed       uint64
}

// Result represents the outcome of an extraction
type Result struct {
	TraceID       string               `json:"trace_id"`
	Status        string               `json:"status"`
	Week          string               `json:"week"`
	Monday        string               `json:"monday"`
	Sunday        string               `json:"sunday"`
	TotalPapers   int                  `json:"total_papers"`
	WeekPapers    int                  `json:"week_papers"`
	SampledPapers int                  `json:"sampled_papers"`
	OutputPath    string               `json:"output_path,omitempty"`
	S3URI         string               `json:"s3_uri,omitempty"`
	Dedup         *dedup.Stats         `json:"deduplication_stats,omitempty"`
	Store         *dynamodb.WriteStats `json:"store_stats,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}

// Extractor runs the weekly pipeline: resolve week, load, filter, sample, export
type Extractor struct {
	loader       CorpusLoader
	deduplicator Deduplicator
	publisher    SamplePublisher
	store        SampleStore
	logger       *logger.Logger
	out          *report.Printer
	now          func() time.Time
}

// New creates an extractor. deduplicator, publisher and store may be nil.
func New(loader CorpusLoader, deduplicator Deduplicator, publisher SamplePublisher, store SampleStore, log *logger.Logger, out io.Writer) *Extractor {
	return &Extractor{
		loader:       loader,
		deduplicator: deduplicator,
		publisher:    publisher,
		store:        store,
		logger:       log,
		out:          report.NewPrinter(out),
		now:          time.Now,
	}
}

// Resolve returns the requested week, or the last completed week when
// weekArg is empty
func (e *Extractor) Resolve(weekArg string) (week.Week, error) {
	if weekArg != "" {
		w, err := week.Parse(weekArg)
		if err != nil {
			return week.Week{}, err
		}
		e.out.Blank()
		e.out.Linef("Using specified week: %s", w)
		return w, nil
	}

	now := e.now()
	friday := week.LastFriday(now)
	e.out.Blank()
	e.out.Linef("Today: %s", now.Format("02-Jan-2006 (Monday)"))
	e.out.Linef("Last Friday: %s", friday.Format("02-Jan-2006"))
	return week.Of(friday), nil
}

// Run extracts the sample for weekArg (YYYYWKn, or empty for the last
// completed week)
func (e *Extractor) Run(ctx context.Context, weekArg string, opts Options) (*Result, error) {
	traceID := uuid.New().String()
	startTime := time.Now()
	log := e.logger.WithTraceID(traceID)

	e.out.Section("Weekly arXiv Papers Extractor")

	target, err := e.Resolve(weekArg)
	if err != nil {
		log.Error("Invalid week argument", err, map[string]interface{}{"week": weekArg})
		return nil, err
	}
	monday, sunday := target.Monday(), target.Sunday()
	e.out.Linef("Target week: %s", target)

	result := &Result{
		TraceID:   traceID,
		Week:      target.String(),
		Monday:    monday.Format("2006-01-02"),
		Sunday:    sunday.Format("2006-01-02"),
		Timestamp: e.now().UTC(),
	}

	log.Info("Starting weekly extraction", map[string]interface{}{
		"event":  "extraction_start",
		"week":   target.String(),
		"source": opts.Source.String(),
	})

	papers, err := e.loader.Load(ctx, opts.Source)
	if err != nil {
		log.Error("Failed to load corpus", err)
		return nil, err
	}
	result.TotalPapers = papers.Len()
	e.describeCorpus(papers)

	matched := filter.InWeek(papers.Records, monday, sunday)
	e.out.Blank()
	e.out.Linef("Week range: %s to %s", result.Monday, result.Sunday)
	e.out.Linef("Found %d papers submitted during this week", len(matched))

	if e.deduplicator != nil && len(matched) > 0 {
		unique, stats := e.deduplicator.Deduplicate(matched)
		result.Dedup = &stats
		if stats.DuplicateCount > 0 || stats.InvalidCount > 0 {
			e.out.Linef("Removed %d duplicate and %d ID-less papers", stats.DuplicateCount, stats.InvalidCount)
		}
		matched = unique
	}
	result.WeekPapers = len(matched)

	if len(matched) == 0 {
		result.Status = StatusEmpty
		e.out.Blank()
		e.out.Linef("Warning: No papers found for the specified week.")
		e.out.Linef("The corpus may not cover %s yet. Try a week with available data.", target)
		log.Warn("No papers in target week", map[string]interface{}{"week": target.String()})
		return result, logger.NewAppErrorWithCode(logger.ErrorTypeData,
			fmt.Sprintf("no papers found for week %s", target), "EMPTY_WEEK", ErrEmptyWeek)
	}

	sample := sampler.Sample(matched, opts.SampleSize, opts.Seed)
	outcome := sampler.Describe(len(matched), opts.SampleSize)
	result.SampledPapers = len(sample)
	e.out.Blank()
	if outcome.UsedAll {
		e.out.Linef("Using all %d papers (fewer than %d available)", outcome.Drawn, outcome.Requested)
	} else {
		e.out.Linef("Randomly sampled %d papers from %d total", outcome.Drawn, outcome.Available)
	}

	var encoded bytes.Buffer
	if err := exporter.Encode(&encoded, exporter.SampleColumns, sample); err != nil {
		return nil, logger.WrapError(err, logger.ErrorTypeInternal, "failed to encode sample")
	}

	result.OutputPath = exporter.WeeklySamplePath(opts.SamplesDir, target.String())
	if err := exporter.WriteFile(result.OutputPath, encoded.Bytes()); err != nil {
		log.Error("Failed to write sample", err, map[string]interface{}{"path": result.OutputPath})
		return nil, logger.WrapError(err, logger.ErrorTypeInternal, "failed to write sample file")
	}
	e.out.Linef("Exported %d papers to: %s", len(sample), result.OutputPath)

	if err := e.publish(ctx, log, target, encoded.Bytes(), sample, result); err != nil {
		return nil, err
	}

	result.Status = StatusSuccess
	log.InfoWithDuration("Weekly extraction completed", time.Since(startTime), map[string]interface{}{
		"event":          "extraction_complete",
		"week":           result.Week,
		"week_papers":    result.WeekPapers,
		"sampled_papers": result.SampledPapers,
		"output_path":    result.OutputPath,
	})

	e.out.Blank()
	e.out.Section("Extraction completed successfully!")
	e.out.Blank()
	e.out.Linef("Output file: %s", result.OutputPath)
	if result.S3URI != "" {
		e.out.Linef("Uploaded to: %s", result.S3URI)
	}
	e.out.Linef("Week: %s (%s)", target, target.Range())

	return result, nil
}

// publish pushes the sample to the optional S3 and DynamoDB targets. The
// local file has already been written when this runs.
func (e *Extractor) publish(ctx context.Context, log *logger.Logger, target week.Week, csvData []byte, sample []corpus.Record, result *Result) error {
	if e.publisher != nil {
		upload, err := e.publisher.UploadSample(ctx, target.String(), csvData, len(sample), result.TraceID)
		if err != nil {
			log.Error("Failed to upload sample", err)
			return logger.WrapError(err, logger.ErrorTypeS3, "failed to upload sample")
		}
		result.S3URI = upload.URI()
		if upload.Replaced {
			e.out.Linef("Replaced existing sample at %s", result.S3URI)
			log.Warn("Replaced existing sample", map[string]interface{}{"s3_key": upload.S3Key})
		}
		log.Info("Uploaded sample", map[string]interface{}{
			"s3_key":          upload.S3Key,
			"compressed_size": upload.CompressedSize,
			"replaced":        upload.Replaced,
		})
	}

	if e.store != nil {
		stats, err := e.store.WriteSample(ctx, target.String(), result.TraceID, result.Timestamp, sample)
		if err != nil {
			log.Error("Failed to store sampled papers", err)
			return logger.WrapError(err, logger.ErrorTypeDynamoDB, "failed to store sampled papers")
		}
		result.Store = stats
	}
	return nil
}

func (e *Extractor) describeCorpus(c *corpus.Corpus) {
	e.out.Blank()
	e.out.Linef("Loading %d CSV files...", len(c.Files))
	for _, f := range c.Files {
		e.out.Linef("  Loaded %s papers from %s", report.Count(f.Rows), f.Name)
	}
	e.out.Blank()
	e.out.Linef("Combined total: %s papers from %d files", report.Count(c.Len()), len(c.Files))

	coverage := filter.Coverage(c.Records)
	if coverage.HasDates() {
		e.out.Linef("Data coverage: %s to %s", coverage.Earliest.Format("2006-01-02"), coverage.Latest.Format("2006-01-02"))
	}

	dist := filter.Distribution(c.Records)
	if len(dist) == 0 {
		return
	}
	rows := make([][]string, 0, len(dist))
	for _, wc := range dist {
		rows = append(rows, []string{wc.Week.Label(), report.Count(wc.Count)})
	}
	e.out.Blank()
	e.out.Linef("Papers per week distribution:")
	e.out.Table([]string{"Week", "Papers"}, rows, 1)
}
