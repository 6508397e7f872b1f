// Package week resolves ISO weeks: parsing YYYYWKn identifiers, picking the
// last completed week, and computing Monday to Sunday bounds.
package week

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"paper-digest/shared/logger"
)

// ErrInvalidWeekFormat is returned for identifiers that are not YYYYWKn with n in [1,53]
var ErrInvalidWeekFormat = errors.New("invalid week format")

var weekPattern = regexp.MustCompile(`(?i)^(\d{4})WK(\d{1,2})$`)

// Week is an ISO 8601 (year, week) pair
type Week struct {
	Year   int `json:"year"`
	Number int `json:"week"`
}

// Parse reads an identifier such as 2025WK46 (case-insensitive)
func Parse(s string) (Week, error) {
	m := weekPattern.FindStringSubmatch(strings.TrimSuffix(s, "\n"))
	if m == nil {
		return Week{}, invalid(s)
	}

	year, _ := strconv.Atoi(m[1])
	number, _ := strconv.Atoi(m[2])
	if number < 1 || number > 53 {
		return Week{}, invalid(s)
	}

	return Week{Year: year, Number: number}, nil
}

func invalid(s string) error {
	return logger.NewAppErrorWithMetadata(
		logger.ErrorTypeInput,
		fmt.Sprintf("invalid week %q, expected YYYYWKn with n in 1..53 (e.g. 2025WK46)", s),
		ErrInvalidWeekFormat,
		map[string]interface{}{"week": s},
	)
}

// Of returns the ISO week containing t
func Of(t time.Time) Week {
	year, number := t.ISOWeek()
	return Week{Year: year, Number: number}
}

// LastFriday returns the most recent Friday on or before now, at midnight.
// Monday to Thursday give the previous week's Friday.
func LastFriday(now time.Time) time.Time {
	back := (int(now.Weekday()) - int(time.Friday) + 7) % 7
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -back)
}

// LastCompleted returns the ISO week of the last Friday
func LastCompleted(now time.Time) Week {
	return Of(LastFriday(now))
}

// Monday returns the first day of the week: the Monday of the week holding
// January 4th, shifted by Number-1 weeks
func (w Week) Monday() time.Time {
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset+(w.Number-1)*7)
}

// Sunday returns the last day of the week, six days after Monday
func (w Week) Sunday() time.Time {
	return w.Monday().AddDate(0, 0, 6)
}

// Contains reports whether the calendar date of t falls within the week
func (w Week) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(w.Monday()) && !day.After(w.Sunday())
}

// String returns the identifier used for file names, e.g. 2025WK46
func (w Week) String() string {
	return fmt.Sprintf("%dWK%d", w.Year, w.Number)
}

// Label returns the short form used in distribution tables, e.g. 2025Wk46
func (w Week) Label() string {
	return fmt.Sprintf("%dWk%d", w.Year, w.Number)
}

// Range formats the bounds as 10-Nov-25 to 16-Nov-25
func (w Week) Range() string {
	const layout = "02-Jan-06"
	return w.Monday().Format(layout) + " to " + w.Sunday().Format(layout)
}

// Before orders weeks chronologically
func (w Week) Before(o Week) bool {
	if w.Year != o.Year {
		return w.Year < o.Year
	}
	return w.Number < o.Number
}
