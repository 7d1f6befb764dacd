package schedule

import (
	"reflect"
	"testing"
	"time"
)

// Fixed anchor week: 2026-03-02 is a Monday.
func day(weekday Weekday) time.Time {
	return time.Date(2026, time.March, 2+int(weekday), 0, 0, 0, 0, time.UTC)
}

func mustSchedule(t *testing.T, entries ...Entry) Schedule {
	t.Helper()
	s, err := ParseSchedule(entries)
	if err != nil {
		t.Fatalf("ParseSchedule() unexpected error: %v", err)
	}
	return s
}

func TestIsDateSelectable(t *testing.T) {
	today := day(Wednesday)
	hours := mustSchedule(t, Entry{Day: "MONDAY", Open: "18:00", Close: "22:00"})

	tests := []struct {
		name     string
		date     time.Time
		schedule Schedule
		want     bool
	}{
		{
			name:     "pastDateNeverSelectable",
			date:     day(Monday),
			schedule: hours,
			want:     false,
		},
		{
			name:     "pastDateWithEmptySchedule",
			date:     day(Tuesday),
			schedule: nil,
			want:     false,
		},
		{
			name:     "todaySelectableDespiteLaterClock",
			date:     day(Wednesday).Add(23 * time.Hour),
			schedule: nil,
			want:     true,
		},
		{
			name:     "emptyScheduleBlocksNoFutureDate",
			date:     day(Sunday),
			schedule: nil,
			want:     true,
		},
		{
			name:     "openWeekdayNextWeek",
			date:     day(Monday).AddDate(0, 0, 7),
			schedule: hours,
			want:     true,
		},
		{
			name:     "closedWeekday",
			date:     day(Friday),
			schedule: hours,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDateSelectable(tt.date, today, tt.schedule); got != tt.want {
				t.Errorf("IsDateSelectable(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestAvailableSlots(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		schedule Schedule
		want     []string
	}{
		{
			name:     "noDateYieldsFallback",
			date:     time.Time{},
			schedule: mustSchedule(t, Entry{Day: "MONDAY", Open: "09:00", Close: "11:00"}),
			want: []string{
				"18:00", "18:30", "19:00", "19:30", "20:00",
				"20:30", "21:00", "21:30", "22:00",
			},
		},
		{
			name:     "closedWeekdayYieldsNothing",
			date:     day(Tuesday),
			schedule: mustSchedule(t, Entry{Day: "MONDAY", Open: "18:00", Close: "22:00"}),
			want:     nil,
		},
		{
			name:     "standardEveningWindow",
			date:     day(Friday),
			schedule: mustSchedule(t, Entry{Day: "FRIDAY", Open: "18:00", Close: "22:00"}),
			want:     []string{"18:00", "18:30", "19:00", "19:30", "20:00", "20:30"},
		},
		{
			name:     "midnightCloseRollsOver",
			date:     day(Saturday),
			schedule: mustSchedule(t, Entry{Day: "SATURDAY", Open: "20:00", Close: "00:00"}),
			want:     []string{"20:00", "20:30", "21:00", "21:30", "22:00", "22:30", "23:00"},
		},
		{
			name:     "windowShorterThanBuffer",
			date:     day(Monday),
			schedule: mustSchedule(t, Entry{Day: "MONDAY", Open: "21:30", Close: "22:00"}),
			want:     nil,
		},
		{
			name:     "exactlyOneSlot",
			date:     day(Monday),
			schedule: mustSchedule(t, Entry{Day: "MONDAY", Open: "21:00", Close: "22:00"}),
			want:     []string{"21:00"},
		},
		{
			name:     "offsetOpenKeepsHalfHourGrid",
			date:     day(Thursday),
			schedule: mustSchedule(t, Entry{Day: "THURSDAY", Open: "11:15", Close: "13:30"}),
			want:     []string{"11:15", "11:45", "12:15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AvailableSlots(tt.date, tt.schedule)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AvailableSlots() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAvailableSlotsDeterministic(t *testing.T) {
	s := mustSchedule(t, Entry{Day: "FRIDAY", Open: "18:00", Close: "22:00"})
	date := day(Friday)

	first := AvailableSlots(date, s)
	second := AvailableSlots(date, s)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls differ: %v vs %v", first, second)
	}

	// Fresh allocation each call: mutating one result must not leak into the
	// next.
	if len(first) > 0 {
		first[0] = "mutated"
		third := AvailableSlots(date, s)
		if third[0] != "18:00" {
			t.Errorf("result shares backing storage across calls: %v", third)
		}
	}
}
