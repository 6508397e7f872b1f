// Package filter selects corpus rows by submission date.
package filter

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"

	"paper-digest/shared/corpus"
	"paper-digest/weekly-extractor/week"
)

var layouts = []string{"2006-01-02", "2006/01/02"}

// ParseDate parses a submitted_on value and truncates it to the calendar
// date in UTC. Empty and unrecognised values report false, as do values
// without a month and day such as "2025" or a Unix timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// a bare year or epoch has no month and day
	if !strings.ContainsAny(s, "-/") && strings.IndexFunc(s, unicode.IsLetter) < 0 {
		return time.Time{}, false
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// InWeek returns the records submitted between monday and sunday inclusive,
// in input order. Rows with a missing or unparsable date are dropped.
func InWeek(records []corpus.Record, monday, sunday time.Time) []corpus.Record {
	var matched []corpus.Record
	for _, record := range records {
		day, ok := ParseDate(record.SubmittedOn())
		if !ok {
			continue
		}
		if day.Before(monday) || day.After(sunday) {
			continue
		}
		matched = append(matched, record)
	}
	return matched
}

// CoverageReport describes the submission dates found in a corpus
type CoverageReport struct {
	Earliest   time.Time
	Latest     time.Time
	Parsed     int
	Unparsable int
}

// HasDates reports whether at least one row had a usable date
func (c CoverageReport) HasDates() bool {
	return c.Parsed > 0
}

// Coverage scans every record's submitted_on
func Coverage(records []corpus.Record) CoverageReport {
	var report CoverageReport
	for _, record := range records {
		day, ok := ParseDate(record.SubmittedOn())
		if !ok {
			report.Unparsable++
			continue
		}
		if report.Parsed == 0 || day.Before(report.Earliest) {
			report.Earliest = day
		}
		if report.Parsed == 0 || day.After(report.Latest) {
			report.Latest = day
		}
		report.Parsed++
	}
	return report
}

// WeekCount is the number of papers submitted in one ISO week
type WeekCount struct {
	Week  week.Week `json:"week"`
	Count int       `json:"count"`
}

// Distribution counts papers per ISO week in chronological order
func Distribution(records []corpus.Record) []WeekCount {
	counts := make(map[week.Week]int)
	for _, record := range records {
		if day, ok := ParseDate(record.SubmittedOn()); ok {
			counts[week.Of(day)]++
		}
	}

	result := make([]WeekCount, 0, len(counts))
	for w, n := range counts {
		result = append(result, WeekCount{Week: w, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Week.Before(result[j].Week)
	})
	return result
}
