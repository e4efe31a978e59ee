// Package calendar provides single-calendar date arithmetic.
//
// Each System maps its own (year, month, day) triples onto the proleptic
// Gregorian calendar, which serves as the pivot for every cross-calendar
// conversion. Month lengths and leap rules come from the System; the helpers
// in this package only combine them.
package calendar

import (
	"sort"
	"time"

	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

// Calendar kinds understood by Lookup.
const (
	KindGregorian = "gregorian"
	KindPersian   = "persian"
)

// System is the arithmetic capability of one calendar system.
type System interface {
	// Kind returns the calendar kind, e.g. "gregorian".
	Kind() string
	MonthsInYear() int
	DaysInMonth(year, month int) int
	// DaysInYear returns the actual maximum day-of-year of year.
	DaysInYear(year int) int
	// FromGregorian converts a valid Gregorian date into this calendar.
	FromGregorian(d civil.Date) civil.Date
	// ToGregorian converts a valid date of this calendar into Gregorian.
	ToGregorian(d civil.Date) civil.Date
}

var systems = map[string]System{
	KindGregorian: Gregorian(),
	KindPersian:   Persian(),
}

// Lookup returns the System registered for kind.
func Lookup(kind string) (System, bool) {
	s, ok := systems[kind]
	return s, ok
}

// Kinds returns the registered calendar kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(systems))
	for k := range systems {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Validate checks that d names an existing day in sys.
func Validate(sys System, d civil.Date) error {
	if d.Month < 1 || d.Month > sys.MonthsInYear() {
		return sentinel.InvalidArgument("date", "month %d does not exist in the %s calendar", d.Month, sys.Kind())
	}
	if n := sys.DaysInMonth(d.Year, d.Month); d.Day < 1 || d.Day > n {
		return sentinel.InvalidArgument("date", "%s has no day %d in the %s calendar (month has %d days)", d, d.Day, sys.Kind(), n)
	}
	return nil
}

// AddDate adds years, then months, then days to d within sys. After the year
// and month steps the day of month is pinned to the length of the resulting
// month, so 2024-01-31 plus one month is 2024-02-29.
func AddDate(sys System, d civil.Date, years, months, days int) (civil.Date, error) {
	if err := Validate(sys, d); err != nil {
		return civil.Date{}, err
	}

	y, m := d.Year+years, d.Month
	day := min(d.Day, sys.DaysInMonth(y, m))

	n := sys.MonthsInYear()
	total := y*n + (m - 1) + months
	y, m = floorDiv(total, n), floorMod(total, n)+1
	day = min(day, sys.DaysInMonth(y, m))

	if days == 0 {
		return civil.Date{Year: y, Month: m, Day: day}, nil
	}
	g := sys.ToGregorian(civil.Date{Year: y, Month: m, Day: day})
	t := g.Gregorian(civil.Time{Hour: 12}, time.UTC).AddDate(0, 0, days)
	return sys.FromGregorian(civil.DateOf(t)), nil
}

// Weekday returns the day of the week of a valid date of sys.
func Weekday(sys System, d civil.Date) time.Weekday {
	return sys.ToGregorian(d).Gregorian(civil.Time{Hour: 12}, time.UTC).Weekday()
}

// Convert moves a valid date of from into to through the Gregorian pivot.
func Convert(from, to System, d civil.Date) civil.Date {
	return to.FromGregorian(from.ToGregorian(d))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
