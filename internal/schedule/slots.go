package schedule

import (
	"fmt"
	"time"
)

const (
	// slotStepMinutes quantizes reservation start times.
	slotStepMinutes = 30
	// closingBufferMinutes keeps the last bookable start a full hour before
	// closing.
	closingBufferMinutes = 60

	// Fallback window rendered before any date is chosen: 18:00 through 22:00.
	fallbackFirstMinutes = 18 * 60
	fallbackLastMinutes  = 22 * 60
)

// IsDateSelectable reports whether date may be offered in the calendar
// picker. Past dates are never selectable. An empty schedule blocks nothing
// (unknown hours are not a reason to grey a date out); otherwise the date's
// weekday must have working hours.
func IsDateSelectable(date, today time.Time, s Schedule) bool {
	if dateOnly(date).Before(dateOnly(today)) {
		return false
	}
	if len(s) == 0 {
		return true
	}
	_, open := s.ForDay(WeekdayOf(date))
	return open
}

// AvailableSlots returns the bookable HH:MM start times for date, ascending.
//
// A zero date means no date has been chosen yet; the fixed fallback sequence
// 18:00..22:00 is returned so the UI always has something to render. A date
// whose weekday has no working hours yields an empty list — the restaurant is
// closed, which the caller must render distinctly from "no date chosen".
//
// A closing time of 00:00 is treated as 24:00 (midnight rollover), so a
// restaurant open through midnight needs no second entry. No start is offered
// within the final hour before closing; if the whole window is shorter than
// that buffer, the list is empty.
func AvailableSlots(date time.Time, s Schedule) []string {
	if date.IsZero() {
		return slotsBetween(fallbackFirstMinutes, fallbackLastMinutes)
	}
	wh, ok := s.ForDay(WeekdayOf(date))
	if !ok {
		return nil
	}

	open := wh.Open.Minutes()
	close := wh.Close.Minutes()
	if close == 0 {
		close = 24 * 60
	}
	return slotsBetween(open, close-closingBufferMinutes)
}

func slotsBetween(first, last int) []string {
	if last < first {
		return nil
	}
	out := make([]string, 0, (last-first)/slotStepMinutes+1)
	for m := first; m <= last; m += slotStepMinutes {
		out = append(out, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
