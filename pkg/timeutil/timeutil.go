// Package timeutil provides timezone utilities for Western Indonesian Time
// (WIB, UTC+7). The bot serves a campus group in Jakarta, so every schedule
// lookup and reminder calculation happens in WIB regardless of host timezone.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WIB is Western Indonesian Time (UTC+7, no DST).
var WIB = time.FixedZone("Asia/Jakarta", 7*60*60)

// Now returns the current time in WIB.
func Now() time.Time {
	return time.Now().In(WIB)
}

// ToWIB converts a time to WIB.
func ToWIB(t time.Time) time.Time {
	return t.In(WIB)
}

// Date creates a time in WIB with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, WIB)
}

// DateTime creates a time in WIB with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, WIB)
}

// StartOfDay returns the start of the day (00:00:00) in WIB.
func StartOfDay(t time.Time) time.Time {
	wib := ToWIB(t)
	return time.Date(wib.Year(), wib.Month(), wib.Day(), 0, 0, 0, 0, WIB)
}

// TruncateMinute drops seconds and below, in WIB.
func TruncateMinute(t time.Time) time.Time {
	wib := ToWIB(t)
	return time.Date(wib.Year(), wib.Month(), wib.Day(), wib.Hour(), wib.Minute(), 0, 0, WIB)
}

// IsSameDay checks if two times are on the same day in WIB.
func IsSameDay(t1, t2 time.Time) bool {
	a1, a2 := ToWIB(t1), ToWIB(t2)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatClock is the standard time format (HH:MM).
	FormatClock = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in WIB.
func FormatDateStr(t time.Time) string {
	return ToWIB(t).Format(FormatDate)
}

// FormatClockStr formats a time as HH:MM in WIB.
func FormatClockStr(t time.Time) string {
	return ToWIB(t).Format(FormatClock)
}

// Clock is a wall-clock time of day with minute resolution.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (or "H:MM") into a Clock.
func ParseClock(s string) (Clock, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid clock %q: expected HH:MM", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("invalid clock %q: bad hour", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("invalid clock %q: bad minute", s)
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MinutesOfDay returns the clock as minutes since midnight.
func (c Clock) MinutesOfDay() int {
	return c.Hour*60 + c.Minute
}

// SubMinutes shifts the clock earlier by n minutes on the same day.
// The second return value is false when the shift would cross midnight.
func (c Clock) SubMinutes(n int) (Clock, bool) {
	total := c.MinutesOfDay() - n
	if total < 0 {
		return Clock{}, false
	}
	return Clock{Hour: total / 60, Minute: total % 60}, true
}

// On anchors the clock to the date of t in WIB.
func (c Clock) On(t time.Time) time.Time {
	wib := ToWIB(t)
	return time.Date(wib.Year(), wib.Month(), wib.Day(), c.Hour, c.Minute, 0, 0, WIB)
}

// WeekdayNameID returns the lowercase Indonesian name for the weekday of t,
// matching the keys used in the jadwal document (senin..minggu).
func WeekdayNameID(t time.Time) string {
	wib := ToWIB(t)
	switch wib.Weekday() {
	case time.Monday:
		return "senin"
	case time.Tuesday:
		return "selasa"
	case time.Wednesday:
		return "rabu"
	case time.Thursday:
		return "kamis"
	case time.Friday:
		return "jumat"
	case time.Saturday:
		return "sabtu"
	case time.Sunday:
		return "minggu"
	default:
		return ""
	}
}

// MonthNameID returns the Indonesian name for a month.
func MonthNameID(m time.Month) string {
	names := []string{
		"", "Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	}
	if int(m) >= 1 && int(m) <= 12 {
		return names[m]
	}
	return ""
}
