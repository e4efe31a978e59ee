package tzconvert

import (
	"time"

	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

// DayShift is the whole-day correction (-1, 0 or +1) applied to a date after
// its time of day was moved to another zone.
type DayShift int

// Between returns the offset of to relative to from at instant at.
// Example: Between(Tehran, Tokyo, now) is +05:30 while Tehran observes +03:30.
func Between(from, to *time.Location, at time.Time) Offset {
	_, a := at.In(from).Zone()
	_, b := at.In(to).Zone()
	return Offset(b - a)
}

// BetweenLocal is like Between, except each zone is sampled at the wall-clock
// date-time dt read in that zone rather than at a shared instant.
func BetweenLocal(dt civil.DateTime, from, to *time.Location) Offset {
	_, a := dt.Date.Gregorian(dt.Time, from).Zone()
	_, b := dt.Date.Gregorian(dt.Time, to).Zone()
	return Offset(b - a)
}

// ChangeZone reads the Gregorian date-time dt in from and returns the wall
// clock showing at the same instant in to.
func ChangeZone(dt civil.DateTime, from, to *time.Location) civil.DateTime {
	return civil.DateTimeOf(dt.Date.Gregorian(dt.Time, from).In(to))
}

// ChangeDateZone returns the date in to at the instant d starts in from.
func ChangeDateZone(d civil.Date, from, to *time.Location) civil.Date {
	return ChangeDateZoneAt(d, civil.Midnight, from, to)
}

// ChangeDateZoneAt returns the date in to at the instant d, at time of day t,
// occurs in from.
func ChangeDateZoneAt(d civil.Date, t civil.Time, from, to *time.Location) civil.Date {
	return civil.DateOf(d.Gregorian(t, from).In(to))
}

// LocalSpan returns nextZone's UTC offset at (date, nextTime) minus
// currentZone's UTC offset at (date, currentTime).
func LocalSpan(date civil.Date, currentTime civil.Time, currentZone *time.Location, nextTime civil.Time, nextZone *time.Location) Offset {
	a := BetweenLocal(date.At(currentTime), time.UTC, currentZone)
	b := BetweenLocal(date.At(nextTime), time.UTC, nextZone)
	return b - a
}

// ValidateSpan returns an invalid argument error when LocalSpan is a whole
// day or more, e.g. Pacific/Pago_Pago (-11:00) and Pacific/Kiritimati
// (+14:00). Such a move can change the date by two days, which no DayShift
// describes.
func ValidateSpan(date civil.Date, currentTime civil.Time, currentZone *time.Location, nextTime civil.Time, nextZone *time.Location) error {
	span := LocalSpan(date, currentTime, currentZone, nextTime, nextZone)
	if span <= -civil.SecondsPerDay || span >= civil.SecondsPerDay {
		return sentinel.InvalidArgument("zone", "%s and %s are %s apart, a day or more",
			currentZone, nextZone, span.Signed())
	}
	return nil
}

// DayShiftFor decides whether moving the Gregorian date from currentZone at
// currentTime to nextZone, where the wall clock reads nextTime, crossed a
// midnight.
//
// Each zone's UTC offset is sampled at (date, its own time). With diff the
// second offset minus the first and boundary |diff| on the 24 hour clock:
//   - diff > 0: +1 when nextTime < boundary and currentTime > midnight-boundary
//   - diff < 0: -1 when currentTime < boundary and nextTime > midnight-boundary
//   - otherwise 0
//
// Both comparisons are strict, so a time landing exactly on the boundary does
// not shift. A zone moved onto itself never shifts, even on a DST transition
// date. Callers check ValidateSpan first; a pair a day or more apart yields 0.
func DayShiftFor(date civil.Date, currentTime civil.Time, currentZone *time.Location, nextTime civil.Time, nextZone *time.Location) DayShift {
	if currentZone.String() == nextZone.String() {
		return 0
	}
	diff := LocalSpan(date, currentTime, currentZone, nextTime, nextZone)
	if diff <= -civil.SecondsPerDay || diff >= civil.SecondsPerDay {
		return 0
	}

	boundary := diff.timeOfDay()
	edge := civil.Midnight.MinusSeconds(boundary.SecondOfDay())

	switch {
	case diff > 0:
		if nextTime.Before(boundary) && currentTime.After(edge) {
			return 1
		}
	case diff < 0:
		if currentTime.Before(boundary) && nextTime.After(edge) {
			return -1
		}
	}
	return 0
}
