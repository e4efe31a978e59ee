// Package civil provides calendar-agnostic civil date and time values.
//
// A Date is a plain (year, month, day) triple. It carries no calendar of its
// own: the same triple means different days in the Gregorian and Khorshidi
// calendars, so callers always pair it with a calendar identifier.
package civil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

// SecondsPerDay is the length of a civil day on the wall clock.
const SecondsPerDay = 24 * 60 * 60

var (
	dateRegex     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	timeRegex     = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)
	dateTimeRegex = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ](\d{2}:\d{2}(?::\d{2})?)$`)
)

// Date is a year, 1-based month and day of month.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Time is a wall-clock time of day with second precision.
type Time struct {
	Hour   int
	Minute int
	Second int
}

// DateTime is a Date and a Time.
type DateTime struct {
	Date Date
	Time Time
}

// Midnight is 00:00:00.
var Midnight = Time{}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Before reports whether d precedes e in the same calendar.
func (d Date) Before(e Date) bool {
	if d.Year != e.Year {
		return d.Year < e.Year
	}
	if d.Month != e.Month {
		return d.Month < e.Month
	}
	return d.Day < e.Day
}

// At combines d with a time of day.
func (d Date) At(t Time) DateTime {
	return DateTime{Date: d, Time: t}
}

// Gregorian interprets d as a Gregorian date at t in loc.
func (d Date) Gregorian(t Time, loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, t.Hour, t.Minute, t.Second, 0, loc)
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// SecondOfDay returns the number of seconds elapsed since midnight.
func (t Time) SecondOfDay() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// Before reports whether t is strictly earlier than u.
func (t Time) Before(u Time) bool {
	return t.SecondOfDay() < u.SecondOfDay()
}

// After reports whether t is strictly later than u.
func (t Time) After(u Time) bool {
	return t.SecondOfDay() > u.SecondOfDay()
}

// MinusSeconds subtracts n seconds, wrapping around midnight.
func (t Time) MinusSeconds(n int) Time {
	return TimeOfSecondOfDay(t.SecondOfDay() - n)
}

// TimeOfSecondOfDay builds a Time from seconds since midnight, wrapping
// values outside [0, SecondsPerDay) onto the 24 hour clock.
func TimeOfSecondOfDay(s int) Time {
	s %= SecondsPerDay
	if s < 0 {
		s += SecondsPerDay
	}
	return Time{Hour: s / 3600, Minute: s / 60 % 60, Second: s % 60}
}

func (dt DateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}

// DateOf returns the Gregorian date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// TimeOf returns the wall-clock time of t in t's location.
func TimeOf(t time.Time) Time {
	h, m, s := t.Clock()
	return Time{Hour: h, Minute: m, Second: s}
}

// DateTimeOf returns the Gregorian date-time of t in t's location.
func DateTimeOf(t time.Time) DateTime {
	return DateTime{Date: DateOf(t), Time: TimeOf(t)}
}

// ParseDate parses yyyy-MM-dd. Only the shape and coarse ranges are checked
// (months up to 13 for calendars with an intercalary month); whether the day
// exists is up to the calendar.
func ParseDate(s string) (Date, error) {
	m := dateRegex.FindStringSubmatch(s)
	if m == nil {
		return Date{}, sentinel.InvalidFormat("date", "%q is not yyyy-MM-dd", s)
	}
	d := Date{Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3])}
	if d.Month < 1 || d.Month > 13 || d.Day < 1 || d.Day > 31 {
		return Date{}, sentinel.InvalidArgument("date", "%q is out of range", s)
	}
	return d, nil
}

// ParseTime parses HH:mm or HH:mm:ss.
func ParseTime(s string) (Time, error) {
	m := timeRegex.FindStringSubmatch(s)
	if m == nil {
		return Time{}, sentinel.InvalidFormat("time", "%q is not HH:mm[:ss]", s)
	}
	t := Time{Hour: atoi(m[1]), Minute: atoi(m[2])}
	if m[3] != "" {
		t.Second = atoi(m[3])
	}
	if t.Hour > 23 || t.Minute > 59 || t.Second > 59 {
		return Time{}, sentinel.InvalidArgument("time", "%q is out of range", s)
	}
	return t, nil
}

// ParseDateTime parses yyyy-MM-ddTHH:mm[:ss]; a space may replace the T.
func ParseDateTime(s string) (DateTime, error) {
	m := dateTimeRegex.FindStringSubmatch(s)
	if m == nil {
		return DateTime{}, sentinel.InvalidFormat("date_time", "%q is not yyyy-MM-ddTHH:mm[:ss]", s)
	}
	d, err := ParseDate(m[1])
	if err != nil {
		return DateTime{}, err
	}
	t, err := ParseTime(m[2])
	if err != nil {
		return DateTime{}, err
	}
	return DateTime{Date: d, Time: t}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Time) UnmarshalText(b []byte) error {
	v, err := ParseTime(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (dt DateTime) MarshalText() ([]byte, error) {
	return []byte(dt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (dt *DateTime) UnmarshalText(b []byte) error {
	v, err := ParseDateTime(string(b))
	if err != nil {
		return err
	}
	*dt = v
	return nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1 // unreachable: callers pass regex-matched digits
	}
	return n
}
