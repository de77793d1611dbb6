// Package occurrence computes when an alarm rule should next fire.
package occurrence

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/awakeful/alarmd/internal/model"
)

// DayNames indexes short weekday names by time.Weekday ordinal (0=Sunday).
var DayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Next returns the next instant the alarm should ring strictly after now,
// in now's location. ok is false when the alarm is disabled, its clock
// string is invalid, or (defensively) a non-empty repeat mask matches no
// day within the next 7 calendar days.
func Next(a model.Alarm, now time.Time) (time.Time, bool) {
	if !a.Enabled {
		return time.Time{}, false
	}
	hour, minute, err := model.ParseClock(a.Time)
	if err != nil {
		return time.Time{}, false
	}

	if len(a.RepeatDays) == 0 {
		candidate := at(now, hour, minute)
		if !candidate.After(now) {
			candidate = at(now.AddDate(0, 0, 1), hour, minute)
		}
		return candidate, true
	}

	days := make(map[int]bool, len(a.RepeatDays))
	for _, d := range a.RepeatDays {
		days[d] = true
	}
	// Check exactly 7 distinct calendar days starting today; any weekday in
	// the mask recurs within that window.
	for offset := 0; offset < 7; offset++ {
		day := now.AddDate(0, 0, offset)
		if !days[int(day.Weekday())] {
			continue
		}
		candidate := at(day, hour, minute)
		if candidate.After(now) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// FormatClock renders an "HH:MM" wall clock in 12-hour form, e.g. "7:05 AM".
func FormatClock(clock string) string {
	hour, minute, err := model.ParseClock(clock)
	if err != nil {
		return clock
	}
	suffix := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		suffix = "PM"
	case hour > 12:
		display = hour - 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, suffix)
}

// FormatRepeatDays renders a repeat mask for display.
func FormatRepeatDays(days []int) string {
	if len(days) == 0 {
		return "One time"
	}
	set := make(map[int]bool, len(days))
	distinct := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || set[d] {
			continue
		}
		set[d] = true
		distinct = append(distinct, d)
	}
	sort.Ints(distinct)
	if len(distinct) == 7 {
		return "Every day"
	}
	if len(distinct) == 5 && !set[0] && !set[6] {
		return "Weekdays"
	}
	if len(distinct) == 2 && set[0] && set[6] {
		return "Weekends"
	}
	names := make([]string, len(distinct))
	for i, d := range distinct {
		names[i] = DayNames[d]
	}
	return strings.Join(names, ", ")
}
