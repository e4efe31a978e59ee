// Package caltz converts dates and date-times between calendar systems,
// locales and timezones.
//
// A conversion pivots the date through the Gregorian calendar, moves the
// time of day to the target zone and then corrects the date by the day shift
// that move produced. Calendar arithmetic is delegated to package calendar,
// zone arithmetic to package tzconvert; this package only orchestrates them
// and renders the result with the target profile's patterns.
package caltz

import (
	"time"

	"github.com/codeGROOVE-dev/calTZ/pkg/calendar"
	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/profile"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
	"github.com/codeGROOVE-dev/calTZ/pkg/tzconvert"
)

// Converter is the conversion engine. It holds no mutable state beyond the
// zone resolver cache and is safe for concurrent use.
type Converter struct {
	profiles Profiles
	resolver *tzconvert.Resolver
	now      func() time.Time
}

// New creates a Converter over the given calendar profiles.
func New(profiles Profiles, opts ...Option) *Converter {
	optHolder := &OptionHolder{}
	for _, opt := range opts {
		opt(optHolder)
	}

	c := &Converter{
		profiles: profiles,
		resolver: optHolder.resolver,
		now:      optHolder.now,
	}
	if c.resolver == nil {
		c.resolver = tzconvert.NewResolver()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Calendars returns the ids of every known calendar.
func (c *Converter) Calendars() []string {
	return c.profiles.IDs()
}

// Resolver returns the zone resolver in use.
func (c *Converter) Resolver() *tzconvert.Resolver {
	return c.resolver
}

// side is a Side with every name resolved.
type side struct {
	profile *profile.Profile
	system  calendar.System
	symbols calendar.Symbols
	loc     *time.Location
}

func (c *Converter) resolve(s Side) (side, error) {
	p, err := c.profiles.Resolve(s.Calendar)
	if err != nil {
		return side{}, err
	}
	sym, err := p.Symbols(s.Locale)
	if err != nil {
		return side{}, err
	}
	loc, err := c.resolver.Location(s.Zone)
	if err != nil {
		return side{}, err
	}
	return side{profile: p, system: p.System(), symbols: sym, loc: loc}, nil
}

func (c *Converter) lookup(id, locale string) (*profile.Profile, calendar.Symbols, error) {
	p, err := c.profiles.Resolve(id)
	if err != nil {
		return nil, calendar.Symbols{}, err
	}
	sym, err := p.Symbols(locale)
	if err != nil {
		return nil, calendar.Symbols{}, err
	}
	return p, sym, nil
}

// ConvertDate converts d from one calendar to another. Both zones must
// resolve but do not move the date; use ConvertDateTime for that.
func (c *Converter) ConvertDate(d civil.Date, from, to Side) (DateResult, error) {
	src, err := c.resolve(from)
	if err != nil {
		return DateResult{}, err
	}
	dst, err := c.resolve(to)
	if err != nil {
		return DateResult{}, err
	}
	if err := calendar.Validate(src.system, d); err != nil {
		return DateResult{}, err
	}

	next := calendar.Convert(src.system, dst.system, d)
	text, formatted, err := dst.render(dst.profile.Formats.Date1, dst.profile.Formats.Date2, next.At(civil.Midnight))
	if err != nil {
		return DateResult{}, err
	}
	return DateResult{Value: next, Text: text, Formatted: formatted}, nil
}

// ConvertDateTime converts dt, a wall-clock date-time of from, into the wall
// clock of to.
//
// Example: 2021-03-20T20:30:01 gregorian/UTC is 1400-01-01T00:00:01
// khorshidi/Asia/Tehran, while 2021-03-20T20:30:00 stays 1399-12-30T00:00:00
// because the day-boundary test is strict. Zones whose offsets are a day or
// more apart, such as Pacific/Pago_Pago and Pacific/Kiritimati, are rejected.
func (c *Converter) ConvertDateTime(dt civil.DateTime, from, to Side) (DateTimeResult, error) {
	src, err := c.resolve(from)
	if err != nil {
		return DateTimeResult{}, err
	}
	dst, err := c.resolve(to)
	if err != nil {
		return DateTimeResult{}, err
	}
	if err := validate(src.system, dt); err != nil {
		return DateTimeResult{}, err
	}

	pivot := src.system.ToGregorian(dt.Date)
	nextTime := tzconvert.ChangeZone(pivot.At(dt.Time), src.loc, dst.loc).Time
	if err := tzconvert.ValidateSpan(pivot, dt.Time, src.loc, nextTime, dst.loc); err != nil {
		return DateTimeResult{}, err
	}
	nextDate := calendar.Convert(src.system, dst.system, dt.Date)

	shift := tzconvert.DayShiftFor(pivot, dt.Time, src.loc, nextTime, dst.loc)
	source := dt.Date
	if shift != 0 {
		if source, err = calendar.AddDate(src.system, dt.Date, 0, 0, int(shift)); err != nil {
			return DateTimeResult{}, err
		}
		if nextDate, err = calendar.AddDate(dst.system, nextDate, 0, 0, int(shift)); err != nil {
			return DateTimeResult{}, err
		}
	}

	value := nextDate.At(nextTime)
	text, formatted, err := dst.render(dst.profile.Formats.DateTime1, dst.profile.Formats.DateTime2, value)
	if err != nil {
		return DateTimeResult{}, err
	}
	return DateTimeResult{Value: value, Text: text, Formatted: formatted, Shift: shift, Source: source}, nil
}

// IsLeap reports whether year has 366 days in the calendar. The year is
// anchored on day 1 of month 2, which must exist in the calendar. The locale
// is validated but has no effect on the answer.
func (c *Converter) IsLeap(year int, calendarID, locale string) (bool, error) {
	p, _, err := c.lookup(calendarID, locale)
	if err != nil {
		return false, err
	}
	sys := p.System()
	anchor := civil.Date{Year: year, Month: 2, Day: 1}
	if err := calendar.Validate(sys, anchor); err != nil {
		return false, err
	}
	return sys.DaysInYear(anchor.Year) == 366, nil
}

// AddDate adds years, then months, then days to d in the given calendar,
// clamping the day of month after each of the first two steps.
// Example: 2021-09-04 gregorian plus 2 years, 3 months and 5 days is 2023-12-09.
func (c *Converter) AddDate(d civil.Date, calendarID, locale string, years, months, days int) (civil.Date, error) {
	p, _, err := c.lookup(calendarID, locale)
	if err != nil {
		return civil.Date{}, err
	}
	return calendar.AddDate(p.System(), d, years, months, days)
}

// Now returns the current wall clock of zone expressed in the calendar.
func (c *Converter) Now(calendarID, locale, zone string) (DateTimeResult, error) {
	s, err := c.resolve(Side{Calendar: calendarID, Locale: locale, Zone: zone})
	if err != nil {
		return DateTimeResult{}, err
	}
	g := civil.DateTimeOf(c.now().In(s.loc))
	value := s.system.FromGregorian(g.Date).At(g.Time)
	text, formatted, err := s.render(s.profile.Formats.DateTime1, s.profile.Formats.DateTime2, value)
	if err != nil {
		return DateTimeResult{}, err
	}
	return DateTimeResult{Value: value, Text: text, Formatted: formatted, Source: value.Date}, nil
}

// Format renders dt, a date-time of the calendar, with an arbitrary pattern.
func (c *Converter) Format(dt civil.DateTime, calendarID, locale, pattern string) (string, error) {
	p, sym, err := c.lookup(calendarID, locale)
	if err != nil {
		return "", err
	}
	if err := validate(p.System(), dt); err != nil {
		return "", err
	}
	return calendar.Format(pattern, p.System(), dt, sym)
}

// Instant returns the absolute instant at which the calendar date-time dt
// occurs in zone.
func (c *Converter) Instant(dt civil.DateTime, calendarID, zone string) (time.Time, error) {
	p, err := c.profiles.Resolve(calendarID)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := c.resolver.Location(zone)
	if err != nil {
		return time.Time{}, err
	}
	if err := validate(p.System(), dt); err != nil {
		return time.Time{}, err
	}
	return p.System().ToGregorian(dt.Date).Gregorian(dt.Time, loc), nil
}

func (s side) render(pattern1, pattern2 string, dt civil.DateTime) (text, formatted string, err error) {
	plain := s.symbols
	plain.Digits = nil
	if text, err = calendar.Format(pattern1, s.system, dt, plain); err != nil {
		return "", "", err
	}
	if formatted, err = calendar.Format(pattern2, s.system, dt, s.symbols); err != nil {
		return "", "", err
	}
	return text, formatted, nil
}

func validate(sys calendar.System, dt civil.DateTime) error {
	if err := calendar.Validate(sys, dt.Date); err != nil {
		return err
	}
	t := dt.Time
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return sentinel.InvalidArgument("time", "%s is not a valid time of day", t)
	}
	return nil
}
