// Package consolidator merges the most recent weekly digest articles into a
// single context file for the next summarization run.
package consolidator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"paper-digest/shared/exporter"
	"paper-digest/shared/logger"
	"paper-digest/shared/report"
)

// Header opens the consolidated file
const Header = "# Previous articles\n\n"

// Separator follows every article in the consolidated file
const Separator = "\n\n---\n\n"

var articleName = regexp.MustCompile(`^(\d{2})Wk(\d+)_articles?\.md$`)

// Article is one weekly digest file
type Article struct {
	Year int // two-digit year as written in the file name
	Week int
	Name string
	Path string
}

// Label renders the article's week as "2025 Week 46"
func (a Article) Label() string {
	return fmt.Sprintf("20%02d Week %d", a.Year, a.Week)
}

// Options control a consolidation
type Options struct {
	ArticlesDir string
	MaxArticles int
	OutputFile  string
}

// Result describes the consolidated file. Path is empty when nothing was written.
type Result struct {
	Path     string    `json:"path,omitempty"`
	Articles []Article `json:"articles"`
}

// ParseName extracts the year and week from names like 25Wk46_article.md
// or 25Wk46_articles.md
func ParseName(name string) (year, week int, ok bool) {
	m := articleName.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	week, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return year, week, true
}

// Scan lists the article files in dir, most recent week first
func Scan(dir string) ([]Article, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read articles dir %s: %w", dir, err)
	}

	var articles []Article
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		year, week, ok := ParseName(entry.Name())
		if !ok {
			continue
		}
		articles = append(articles, Article{
			Year: year,
			Week: week,
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
		})
	}

	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].Year != articles[j].Year {
			return articles[i].Year > articles[j].Year
		}
		return articles[i].Week > articles[j].Week
	})
	return articles, nil
}

// Consolidator writes the previous-articles file
type Consolidator struct {
	logger *logger.Logger
	out    *report.Printer
}

// New creates a consolidator
func New(log *logger.Logger, out io.Writer) *Consolidator {
	return &Consolidator{logger: log, out: report.NewPrinter(out)}
}

// Run concatenates the newest opts.MaxArticles articles into
// <ArticlesDir>/<OutputFile>. No file is written when no article matches.
func (c *Consolidator) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	if opts.MaxArticles <= 0 {
		return nil, logger.NewAppError(logger.ErrorTypeInput,
			fmt.Sprintf("max articles must be positive, got %d", opts.MaxArticles), nil)
	}

	articles, err := Scan(opts.ArticlesDir)
	if err != nil {
		return nil, logger.NewAppError(logger.ErrorTypeInput, "failed to scan articles", err)
	}
	if len(articles) > opts.MaxArticles {
		articles = articles[:opts.MaxArticles]
	}

	result := &Result{Articles: articles}
	if len(articles) == 0 {
		c.out.Linef("No article files found")
		c.logger.Warn("No article files found", map[string]interface{}{
			"articles_dir": opts.ArticlesDir,
		})
		return result, nil
	}

	var buf bytes.Buffer
	buf.WriteString(Header)
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.out.Linef("Adding: %s", article.Name)

		content, err := os.ReadFile(article.Path)
		if err != nil {
			return nil, logger.NewAppErrorWithMetadata(logger.ErrorTypeInput, "failed to read article", err,
				map[string]interface{}{"path": article.Path})
		}
		buf.WriteString(strings.TrimSpace(string(content)))
		buf.WriteString(Separator)
	}

	path := filepath.Join(opts.ArticlesDir, opts.OutputFile)
	if err := exporter.WriteFile(path, buf.Bytes()); err != nil {
		return nil, logger.NewAppErrorWithMetadata(logger.ErrorTypeInternal, "failed to write consolidated articles", err,
			map[string]interface{}{"path": path})
	}
	result.Path = path

	c.out.Blank()
	c.out.Linef("Consolidated %d articles into: %s", len(articles), path)
	c.out.Linef("Articles included (most recent first):")
	for _, article := range articles {
		c.out.Linef("  - %s: %s", article.Label(), article.Name)
	}

	c.logger.InfoWithDuration("Articles consolidated", time.Since(start), map[string]interface{}{
		"articles": len(articles),
		"path":     path,
		"bytes":    buf.Len(),
	})
	return result, nil
}
