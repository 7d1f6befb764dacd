package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is a closed day-of-week enumeration. The canonical wire form is the
// uppercase English name ("MONDAY"), which is what the platform API emits in
// workHours entries.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
	Saturday:  "SATURDAY",
	Sunday:    "SUNDAY",
}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday matches case-insensitively and fails on anything outside the
// seven known names rather than falling through silently.
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for d, n := range weekdayNames {
		if n == name {
			return Weekday(d), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekdayOf maps the stdlib's Sunday-first numbering onto ours.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Sunday:
		return Sunday
	default:
		return Weekday(int(t.Weekday()) - 1)
	}
}
