package dedup

import (
	"strings"

	"paper-digest/shared/corpus"
	"paper-digest/shared/logger"
)

// Stats contains statistics about the deduplication pass
type Stats struct {
	OriginalCount  int `json:"original_count"`
	UniqueCount    int `json:"unique_count"`
	DuplicateCount int `json:"duplicate_count"`
	InvalidCount   int `json:"invalid_count"`
}

// Deduplicator removes papers that appear in more than one monthly file
type Deduplicator struct {
	logger *logger.Logger
}

// NewDeduplicator creates a new deduplicator instance
func NewDeduplicator(log *logger.Logger) *Deduplicator {
	return &Deduplicator{logger: log}
}

// Deduplicate keeps the first record for each paper_id and drops records
// without one. Order of the kept records is preserved.
func (d *Deduplicator) Deduplicate(records []corpus.Record) ([]corpus.Record, Stats) {
	stats := Stats{OriginalCount: len(records)}
	if len(records) == 0 {
		return records, stats
	}

	seen := make(map[string]bool, len(records))
	unique := make([]corpus.Record, 0, len(records))

	for _, record := range records {
		id := strings.TrimSpace(record.PaperID())
		if id == "" {
			stats.InvalidCount++
			continue
		}
		if seen[id] {
			stats.DuplicateCount++
			d.logger.Debug("Duplicate paper found and removed", map[string]interface{}{
				"paper_id": id,
				"source":   record.Source,
			})
			continue
		}
		seen[id] = true
		unique = append(unique, record)
	}

	stats.UniqueCount = len(unique)

	d.logger.Info("Deduplication completed", map[string]interface{}{
		"original_count":  stats.OriginalCount,
		"unique_count":    stats.UniqueCount,
		"duplicate_count": stats.DuplicateCount,
		"invalid_count":   stats.InvalidCount,
	})

	return unique, stats
}
