package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

// Window is an inclusive [start, end] range in millisecond timestamps plus a
// human-readable label. Labels are cosmetic; only the bounds feed computation.
type Window struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Label string `json:"label"`
}

// Contains reports whether the millisecond instant falls inside the window.
func (w Window) Contains(ms int64) bool {
	return ms >= w.Start && ms <= w.End
}

// Elapsed reports whether the window has fully passed at the given instant.
func (w Window) Elapsed(now time.Time) bool {
	return now.UnixMilli() > w.End
}

// DefaultWeekStart anchors 7-day windows when no preference is configured.
const DefaultWeekStart = time.Sunday

// ParseWeekStart maps a day name ("Sunday", "monday", ...) to a weekday.
// Empty input yields the default anchor.
func ParseWeekStart(name string) (time.Weekday, error) {
	if name == "" {
		return DefaultWeekStart, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, nil
		}
	}
	return DefaultWeekStart, fmt.Errorf("unknown week start day %q", name)
}

// Resolve computes the boundary window for a period type around the
// reference instant. Week-based types honour weekStart except 5day_week,
// which is always Monday through Friday. An unrecognised period type is a
// programmer error and is reported rather than guessed at.
func Resolve(periodType models.PeriodType, reference time.Time, weekStart time.Weekday) (Window, error) {
	switch periodType {
	case models.PeriodDaily:
		start := startOfDay(reference)
		return window(start, endOfDay(reference), start.Format("Jan 2, 2006")), nil

	case models.Period5DayWeek:
		monday := mondayOf(reference)
		friday := monday.AddDate(0, 0, 4)
		return window(monday, endOfDay(friday), rangeLabel(monday, friday)), nil

	case models.Period7DayWeek:
		offset := (int(reference.Weekday()) - int(weekStart) + 7) % 7
		start := startOfDay(reference.AddDate(0, 0, -offset))
		last := start.AddDate(0, 0, 6)
		return window(start, endOfDay(last), rangeLabel(start, last)), nil

	case models.PeriodBiweekly:
		monday := mondayOf(reference)
		last := monday.AddDate(0, 0, 13)
		return window(monday, endOfDay(last), rangeLabel(monday, last)), nil

	case models.PeriodMonthly:
		first := time.Date(reference.Year(), reference.Month(), 1, 0, 0, 0, 0, reference.Location())
		last := first.AddDate(0, 1, -1)
		return window(first, endOfDay(last), first.Format("January 2006")), nil

	case models.PeriodSemester:
		// Fixed June/July split. A placeholder heuristic, not a lookup
		// against real term dates.
		year := reference.Year()
		if reference.Month() <= time.June {
			start := time.Date(year, time.January, 1, 0, 0, 0, 0, reference.Location())
			last := time.Date(year, time.June, 30, 0, 0, 0, 0, reference.Location())
			return window(start, endOfDay(last), fmt.Sprintf("Spring %d", year)), nil
		}
		start := time.Date(year, time.July, 1, 0, 0, 0, 0, reference.Location())
		last := time.Date(year, time.December, 31, 0, 0, 0, 0, reference.Location())
		return window(start, endOfDay(last), fmt.Sprintf("Fall %d", year)), nil

	case models.PeriodSchoolYear:
		startYear := reference.Year()
		if reference.Month() < time.August {
			startYear--
		}
		start := time.Date(startYear, time.August, 1, 0, 0, 0, 0, reference.Location())
		last := time.Date(startYear+1, time.July, 31, 0, 0, 0, 0, reference.Location())
		return window(start, endOfDay(last), fmt.Sprintf("%d-%d School Year", startYear, startYear+1)), nil
	}

	return Window{}, fmt.Errorf("unknown period type %q", periodType)
}

func window(start, end time.Time, label string) Window {
	return Window{Start: start.UnixMilli(), End: end.UnixMilli(), Label: label}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay returns 23:59:59.999 of the given date. Bounds are millisecond
// granular, matching the stored timestamps.
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// mondayOf snaps to the Monday of the reference date's week; Sunday belongs
// to the week that started the previous Monday.
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t.AddDate(0, 0, -offset))
}

func rangeLabel(start, end time.Time) string {
	if start.Year() == end.Year() {
		return fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
	}
	return fmt.Sprintf("%s - %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
}
