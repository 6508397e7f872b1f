// Package splitter draws one seeded sample per arXiv subcategory.
package splitter

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"paper-digest/shared/corpus"
	"paper-digest/shared/exporter"
	"paper-digest/shared/logger"
	"paper-digest/shared/report"
	"paper-digest/shared/sampler"
)

// Uncategorized names the group and file of papers without a subcategory
const Uncategorized = "uncategorized"

// CorpusLoader loads the monthly CSV files
type CorpusLoader interface {
	Load(ctx context.Context, src corpus.Source) (*corpus.Corpus, error)
}

// Group holds the papers of one subcategory
type Group struct {
	Name    string
	Records []corpus.Record
}

// Row is one line of the summary table
type Row struct {
	Subcategory string `json:"subcategory"`
	Total       int    `json:"total"`
	Sampled     int    `json:"sampled"`
	Path        string `json:"path"`
}

// Summary reports what was written, largest subcategory first
type Summary struct {
	Rows         []Row `json:"rows"`
	TotalPapers  int   `json:"total_papers"`
	TotalSampled int   `json:"total_sampled"`
}

// Options control a split
type Options struct {
	Source     corpus.Source
	OutputDir  string
	SampleSize int
	Seed       uint64
}

// Splitter writes <OutputDir>/<subcategory>.csv for every subcategory
type Splitter struct {
	loader CorpusLoader
	logger *logger.Logger
	out    *report.Printer
}

// New creates a splitter
func New(loader CorpusLoader, log *logger.Logger, out io.Writer) *Splitter {
	return &Splitter{loader: loader, logger: log, out: report.NewPrinter(out)}
}

// GroupBySubcategory partitions records by their subcategory value in
// first-seen order. A missing or blank subcategory forms its own group.
func GroupBySubcategory(records []corpus.Record) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, record := range records {
		name := strings.TrimSpace(record.Subcategory())
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Records = append(groups[i].Records, record)
	}
	return groups
}

// FileName turns a subcategory into a file base name: slashes and spaces
// become underscores, commas are dropped, and the result is lowercased
func FileName(subcategory string) string {
	name := strings.NewReplacer("/", "_", " ", "_", ",", "").Replace(subcategory)
	name = strings.ToLower(name)
	if name == "" {
		return Uncategorized
	}
	return name
}

// Run loads the corpus and writes one sample file per subcategory
func (s *Splitter) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()

	papers, err := s.loader.Load(ctx, opts.Source)
	if err != nil {
		return nil, err
	}

	s.out.Linef("Found %d CSV files:", len(papers.Files))
	for _, f := range papers.Files {
		s.out.Linef("  - %s: %s papers", filepath.Base(f.Name), report.Count(f.Rows))
	}
	s.out.Blank()
	s.out.Linef("Total papers combined: %s", report.Count(papers.Len()))

	groups := GroupBySubcategory(papers.Records)
	s.out.Linef("Found %d unique subcategories", len(groups))
	s.out.Linef("Output directory: %s", opts.OutputDir)

	summary := &Summary{}
	for _, group := range groups {
		sample := sampler.Sample(group.Records, opts.SampleSize, opts.Seed)
		path := filepath.Join(opts.OutputDir, FileName(group.Name)+".csv")

		if err := exporter.WriteCSV(path, exporter.SampleColumns, sample); err != nil {
			return nil, logger.NewAppErrorWithMetadata(
				logger.ErrorTypeInternal,
				"failed to write subcategory sample",
				err,
				map[string]interface{}{"subcategory": group.Name, "path": path},
			)
		}

		display := group.Name
		if display == "" {
			display = Uncategorized
		}
		summary.Rows = append(summary.Rows, Row{
			Subcategory: display,
			Total:       len(group.Records),
			Sampled:     len(sample),
			Path:        path,
		})
		summary.TotalPapers += len(group.Records)
		summary.TotalSampled += len(sample)

		s.logger.Debug("Wrote subcategory sample", map[string]interface{}{
			"subcategory": display,
			"total":       len(group.Records),
			"sampled":     len(sample),
		})
	}

	sort.SliceStable(summary.Rows, func(i, j int) bool {
		return summary.Rows[i].Total > summary.Rows[j].Total
	})

	s.printSummary(summary, opts.OutputDir)

	s.logger.InfoWithDuration("Subcategory sampling completed", time.Since(start), map[string]interface{}{
		"subcategories": len(summary.Rows),
		"total_papers":  summary.TotalPapers,
		"total_sampled": summary.TotalSampled,
	})
	return summary, nil
}

func (s *Splitter) printSummary(summary *Summary, outputDir string) {
	rows := make([][]string, 0, len(summary.Rows)+1)
	for _, r := range summary.Rows {
		rows = append(rows, []string{r.Subcategory, report.Count(r.Total), report.Count(r.Sampled)})
	}
	rows = append(rows, []string{"TOTAL", report.Count(summary.TotalPapers), report.Count(summary.TotalSampled)})

	s.out.Blank()
	s.out.Section("SUBCATEGORY SAMPLES")
	s.out.Table([]string{"Subcategory", "Total", "Sampled"}, rows, 1, 2)
	s.out.Blank()
	s.out.Linef("All subcategory samples exported to: %s", outputDir)
	s.out.Linef("  Total subcategories processed: %d", len(summary.Rows))
}
