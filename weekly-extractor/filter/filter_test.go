package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-digest/shared/corpus"
	"paper-digest/weekly-extractor/week"
)

func submitted(id, on string) corpus.Record {
	return corpus.NewRecord("test.csv", map[string]string{
		corpus.ColumnPaperID:     id,
		corpus.ColumnSubmittedOn: on,
	})
}

func ids(records []corpus.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.PaperID())
	}
	return out
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC)

	for _, input := range []string{
		"2025-11-12",
		"2025/11/12",
		" 2025-11-12 ",
		"2025-11-12T18:45:00Z",
		"2025-11-12 07:00:00",
		"November 12, 2025",
	} {
		t.Run(input, func(t *testing.T) {
			got, ok := ParseDate(input)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseDate_Unparsable(t *testing.T) {
	for _, input := range []string{"", "   ", "not a date", "submitted soon", "2025", "1731196800", "20251112"} {
		_, ok := ParseDate(input)
		assert.False(t, ok, "%q", input)
	}
}

func TestInWeek_InclusiveBounds(t *testing.T) {
	w := week.Week{Year: 2025, Number: 46}

	tests := []struct {
		submittedOn string
		included    bool
	}{
		{"2025-11-09", false},
		{"2025-11-10", true},
		{"2025-11-11", true},
		{"2025-11-12", true},
		{"2025/11/13", true},
		{"2025-11-14", true},
		{"2025-11-15", true},
		{"2025-11-16", true},
		{"2025-11-16T23:30:00Z", true},
		{"2025-11-17", false},
	}

	for _, tt := range tests {
		t.Run(tt.submittedOn, func(t *testing.T) {
			matched := InWeek([]corpus.Record{submitted("p", tt.submittedOn)}, w.Monday(), w.Sunday())
			assert.Equal(t, tt.included, len(matched) == 1)
		})
	}
}

func TestInWeek_DropsBareYearAndEpoch(t *testing.T) {
	w := week.Week{Year: 2025, Number: 1}
	records := []corpus.Record{
		submitted("bare-year", "2025"),
		submitted("epoch", "1735776000"),
		submitted("ok", "2025-01-02"),
	}

	matched := InWeek(records, w.Monday(), w.Sunday())

	assert.Equal(t, []string{"ok"}, ids(matched))
}

func TestInWeek_DropsMissingAndUnparsableDates(t *testing.T) {
	w := week.Week{Year: 2025, Number: 46}
	records := []corpus.Record{
		submitted("ok", "2025-11-11"),
		submitted("garbage", "yesterday-ish"),
		submitted("empty", ""),
		corpus.NewRecord("old.csv", map[string]string{corpus.ColumnPaperID: "no-column"}),
	}

	matched := InWeek(records, w.Monday(), w.Sunday())

	assert.Equal(t, []string{"ok"}, ids(matched))
}

func TestInWeek_NoMatches(t *testing.T) {
	w := week.Week{Year: 2025, Number: 46}
	matched := InWeek([]corpus.Record{submitted("a", "2025-10-01")}, w.Monday(), w.Sunday())

	assert.Empty(t, matched)
}

func TestCoverage(t *testing.T) {
	report := Coverage([]corpus.Record{
		submitted("a", "2025-11-12"),
		submitted("b", "2025-10-01"),
		submitted("c", "bad"),
		submitted("d", "2025-11-20"),
	})

	assert.True(t, report.HasDates())
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), report.Earliest)
	assert.Equal(t, time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), report.Latest)
	assert.Equal(t, 3, report.Parsed)
	assert.Equal(t, 1, report.Unparsable)
}

func TestCoverage_NoDates(t *testing.T) {
	report := Coverage([]corpus.Record{submitted("a", "")})

	assert.False(t, report.HasDates())
	assert.Equal(t, 1, report.Unparsable)
}

func TestDistribution(t *testing.T) {
	dist := Distribution([]corpus.Record{
		submitted("a", "2025-11-12"),
		submitted("b", "2024-12-31"),
		submitted("c", "2025-11-16"),
		submitted("d", "2025-11-03"),
		submitted("e", "n/a"),
	})

	assert.Equal(t, []WeekCount{
		{Week: week.Week{Year: 2025, Number: 1}, Count: 1},
		{Week: week.Week{Year: 2025, Number: 45}, Count: 1},
		{Week: week.Week{Year: 2025, Number: 46}, Count: 2},
	}, dist)
}
