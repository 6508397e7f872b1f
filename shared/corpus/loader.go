package corpus

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"paper-digest/shared/logger"
)

// ErrNoInputFiles is returned when a source matches zero files
var ErrNoInputFiles = errors.New("no input files matched")

// Source lists and opens the CSV files of a corpus
type Source interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// LocalSource reads files matching Pattern inside Dir
type LocalSource struct {
	Dir     string
	Pattern string
}

// List returns the matching file paths sorted by name
func (s LocalSource) List(_ context.Context) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, s.Pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", s.Pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Open opens a file returned by List
func (s LocalSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func (s LocalSource) String() string {
	return filepath.Join(s.Dir, s.Pattern)
}

// Loader concatenates every file of a Source into one Corpus
type Loader struct {
	logger *logger.Logger
}

// NewLoader creates a corpus loader
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{logger: log}
}

// Load reads every file of src. Columns are the ordered union of all headers.
func (l *Loader) Load(ctx context.Context, src Source) (*Corpus, error) {
	start := time.Now()

	names, err := src.List(ctx)
	if err != nil {
		return nil, logger.WrapError(err, logger.ErrorTypeData, "failed to list corpus files")
	}
	if len(names) == 0 {
		return nil, logger.NewAppErrorWithMetadata(
			logger.ErrorTypeData,
			fmt.Sprintf("no CSV files found matching pattern: %s", src),
			ErrNoInputFiles,
			map[string]interface{}{"pattern": src.String()},
		)
	}

	l.logger.InfoWithCount("Loading corpus files", len(names), map[string]interface{}{
		"source": src.String(),
	})

	corpus := &Corpus{}
	seen := make(map[string]bool)

	for _, name := range names {
		columns, records, err := l.loadFile(ctx, src, name)
		if err != nil {
			return nil, logger.NewAppErrorWithMetadata(
				logger.ErrorTypeData,
				fmt.Sprintf("failed to load %s", name),
				err,
				map[string]interface{}{"file": name},
			)
		}

		for _, col := range columns {
			if !seen[col] {
				seen[col] = true
				corpus.Columns = append(corpus.Columns, col)
			}
		}
		corpus.Records = append(corpus.Records, records...)
		corpus.Files = append(corpus.Files, FileStat{Name: name, Rows: len(records)})

		l.logger.Debug("Loaded corpus file", map[string]interface{}{
			"file": name,
			"rows": len(records),
		})
	}

	l.logger.InfoWithDuration("Corpus loaded", time.Since(start), map[string]interface{}{
		"files":   len(names),
		"papers":  len(corpus.Records),
		"columns": len(corpus.Columns),
	})

	return corpus, nil
}

func (l *Loader) loadFile(ctx context.Context, src Source, name string) ([]string, []Record, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	return ReadCSV(rc, name)
}

// ReadCSV parses one CSV stream with a header row. Short rows leave their
// trailing columns missing and fields past the header are ignored.
func ReadCSV(r io.Reader, source string) ([]string, []Record, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, 0, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns = append(columns, strings.TrimSpace(name))
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}

		values := make(map[string]string, len(columns))
		for i, col := range columns {
			if i >= len(row) {
				break
			}
			if _, dup := values[col]; dup {
				continue
			}
			values[col] = row[i]
		}
		records = append(records, Record{Source: source, values: values})
	}

	return columns, records, nil
}
