// Package schedule computes reservation availability from a restaurant's
// weekly working hours: which calendar dates are selectable at all, and which
// start times can be booked on a selected date.
package schedule

import "fmt"

// WorkingHours is one weekday's open/close interval. A close of 00:00 means
// midnight at the end of the day, not the start (see AvailableSlots).
type WorkingHours struct {
	Day   Weekday
	Open  TimeOfDay
	Close TimeOfDay
}

// Schedule is a restaurant's weekly hours, at most one interval per weekday.
// Split shifts (lunch + dinner) cannot be represented; a day is either absent
// (closed) or a single open/close pair.
type Schedule []WorkingHours

// Entry is the wire shape of one working-hours row as the platform API
// returns it.
type Entry struct {
	Day   string `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// ParseSchedule validates and canonicalizes platform workHours rows. It fails
// on unknown weekday names, non-HH:MM times, and duplicate days; malformed
// schedules never reach the slot generator.
func ParseSchedule(entries []Entry) (Schedule, error) {
	var (
		out  Schedule
		seen [7]bool
	)
	for _, e := range entries {
		day, err := ParseWeekday(e.Day)
		if err != nil {
			return nil, err
		}
		if seen[day] {
			return nil, fmt.Errorf("duplicate entry for %s", day)
		}
		seen[day] = true

		open, err := ParseTimeOfDay(e.Open)
		if err != nil {
			return nil, fmt.Errorf("%s open: %w", day, err)
		}
		close, err := ParseTimeOfDay(e.Close)
		if err != nil {
			return nil, fmt.Errorf("%s close: %w", day, err)
		}
		out = append(out, WorkingHours{Day: day, Open: open, Close: close})
	}
	return out, nil
}

// ForDay returns the working hours for a weekday, if the restaurant opens
// that day.
func (s Schedule) ForDay(d Weekday) (WorkingHours, bool) {
	for _, wh := range s {
		if wh.Day == d {
			return wh, true
		}
	}
	return WorkingHours{}, false
}
