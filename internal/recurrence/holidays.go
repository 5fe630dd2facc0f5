package recurrence

import "time"

// Holiday is a fixed public holiday entry.
type Holiday struct {
	Date string // YYYY-MM-DD
	Name string
}

// Korean public holidays, 2024-2025.
var holidays = []Holiday{
	{"2024-01-01", "New Year's Day"},
	{"2024-02-09", "Seollal holiday"},
	{"2024-02-10", "Seollal"},
	{"2024-02-11", "Seollal holiday"},
	{"2024-02-12", "Substitute holiday"},
	{"2024-03-01", "Independence Movement Day"},
	{"2024-04-10", "National Assembly election"},
	{"2024-05-05", "Children's Day"},
	{"2024-05-06", "Substitute holiday"},
	{"2024-05-15", "Buddha's Birthday"},
	{"2024-06-06", "Memorial Day"},
	{"2024-08-15", "Liberation Day"},
	{"2024-09-16", "Chuseok holiday"},
	{"2024-09-17", "Chuseok"},
	{"2024-09-18", "Chuseok holiday"},
	{"2024-10-03", "National Foundation Day"},
	{"2024-10-09", "Hangul Day"},
	{"2024-12-25", "Christmas Day"},
	{"2025-01-01", "New Year's Day"},
	{"2025-01-28", "Seollal holiday"},
	{"2025-01-29", "Seollal"},
	{"2025-01-30", "Seollal holiday"},
	{"2025-03-01", "Independence Movement Day"},
	{"2025-03-03", "Substitute holiday"},
	{"2025-05-05", "Children's Day"},
	{"2025-05-06", "Substitute holiday"},
	{"2025-05-15", "Buddha's Birthday"},
	{"2025-06-06", "Memorial Day"},
	{"2025-08-15", "Liberation Day"},
	{"2025-10-03", "National Foundation Day"},
	{"2025-10-05", "Chuseok holiday"},
	{"2025-10-06", "Chuseok"},
	{"2025-10-07", "Chuseok holiday"},
	{"2025-10-08", "Substitute holiday"},
	{"2025-10-09", "Hangul Day"},
	{"2025-12-25", "Christmas Day"},
}

// IsWeekend reports whether date falls on Saturday or Sunday.
func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether date is a listed public holiday.
func IsHoliday(date time.Time) bool {
	return HolidayName(date) != ""
}

// IsRedDay reports whether date is a weekend or public holiday.
func IsRedDay(date time.Time) bool {
	return IsWeekend(date) || IsHoliday(date)
}

// HolidayName returns the holiday name for date, or "" when it is an
// ordinary day.
func HolidayName(date time.Time) string {
	key := date.Format("2006-01-02")
	for _, h := range holidays {
		if h.Date == key {
			return h.Name
		}
	}
	return ""
}
