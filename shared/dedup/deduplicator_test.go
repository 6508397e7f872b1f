package dedup

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"paper-digest/shared/corpus"
	"paper-digest/shared/logger"
)

func paper(id, abstract, source string) corpus.Record {
	return corpus.NewRecord(source, map[string]string{
		corpus.ColumnPaperID:  id,
		corpus.ColumnAbstract: abstract,
	})
}

func newTestDeduplicator() *Deduplicator {
	return NewDeduplicator(logger.New("dedup-test").WithOutput(&bytes.Buffer{}))
}

func TestDeduplicator_NoDuplicates(t *testing.T) {
	records := []corpus.Record{
		paper("2511.00001", "A", "2511.csv"),
		paper("2511.00002", "B", "2511.csv"),
		paper("2511.00003", "C", "2511.csv"),
	}

	result, stats := newTestDeduplicator().Deduplicate(records)

	assert.Len(t, result, 3)
	assert.Equal(t, Stats{OriginalCount: 3, UniqueCount: 3}, stats)
}

func TestDeduplicator_KeepsFirstOccurrence(t *testing.T) {
	records := []corpus.Record{
		paper("2510.09999", "October copy", "2510.csv"),
		paper("2511.00001", "A", "2511.csv"),
		paper("2510.09999", "November copy", "2511.csv"),
		paper(" 2511.00001 ", "A again", "2511.csv"),
	}

	result, stats := newTestDeduplicator().Deduplicate(records)

	assert.Len(t, result, 2)
	assert.Equal(t, "October copy", result[0].Abstract())
	assert.Equal(t, "A", result[1].Abstract())
	assert.Equal(t, 2, stats.DuplicateCount)
	assert.Equal(t, 2, stats.UniqueCount)
}

func TestDeduplicator_DropsEmptyPaperID(t *testing.T) {
	records := []corpus.Record{
		paper("2511.00001", "A", "x"),
		paper("", "No id", "x"),
		corpus.NewRecord("x", map[string]string{corpus.ColumnAbstract: "Missing id column"}),
	}

	result, stats := newTestDeduplicator().Deduplicate(records)

	assert.Len(t, result, 1)
	assert.Equal(t, 2, stats.InvalidCount)
	assert.Equal(t, 3, stats.OriginalCount)
}

func TestDeduplicator_EmptyInput(t *testing.T) {
	result, stats := newTestDeduplicator().Deduplicate(nil)

	assert.Empty(t, result)
	assert.Equal(t, Stats{}, stats)
}
