package caltz

import (
	"time"

	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/tzconvert"
)

// Offset returns the current offset of zoneB relative to zoneA.
// Example: Offset("Asia/Tehran", "Japan") is +05:30.
func (c *Converter) Offset(zoneA, zoneB string) (tzconvert.Offset, error) {
	return c.OffsetAt(c.now(), zoneA, zoneB)
}

// OffsetAt is Offset at an explicit instant.
func (c *Converter) OffsetAt(at time.Time, zoneA, zoneB string) (tzconvert.Offset, error) {
	a, b, err := c.zones(zoneA, zoneB)
	if err != nil {
		return 0, err
	}
	return tzconvert.Between(a, b, at), nil
}

// ToSeconds converts "HH:mm:ss" or "[±]HH:mm[:ss]" to signed seconds.
func (c *Converter) ToSeconds(text string) (int, error) {
	return tzconvert.ToSeconds(text)
}

// ChangeZone moves a Gregorian date-time from one zone's wall clock to
// another's.
func (c *Converter) ChangeZone(dt civil.DateTime, from, to string) (civil.DateTime, error) {
	a, b, err := c.zones(from, to)
	if err != nil {
		return civil.DateTime{}, err
	}
	return tzconvert.ChangeZone(dt, a, b), nil
}

// ChangeDateZone returns the Gregorian date in to at the instant d starts in
// from.
func (c *Converter) ChangeDateZone(d civil.Date, from, to string) (civil.Date, error) {
	a, b, err := c.zones(from, to)
	if err != nil {
		return civil.Date{}, err
	}
	return tzconvert.ChangeDateZone(d, a, b), nil
}

// ChangeDateZoneNow is ChangeDateZone at the current time of day in from
// rather than at midnight.
func (c *Converter) ChangeDateZoneNow(d civil.Date, from, to string) (civil.Date, error) {
	a, b, err := c.zones(from, to)
	if err != nil {
		return civil.Date{}, err
	}
	t := civil.TimeOf(c.now().In(a))
	return tzconvert.ChangeDateZoneAt(d, t, a, b), nil
}

// DayShift reports the day correction for a time moved between zones on the
// Gregorian date. Zones a day or more apart are an invalid argument.
func (c *Converter) DayShift(date civil.Date, currentTime civil.Time, currentZone string, nextTime civil.Time, nextZone string) (tzconvert.DayShift, error) {
	a, b, err := c.zones(currentZone, nextZone)
	if err != nil {
		return 0, err
	}
	if err := tzconvert.ValidateSpan(date, currentTime, a, nextTime, b); err != nil {
		return 0, err
	}
	return tzconvert.DayShiftFor(date, currentTime, a, nextTime, b), nil
}

// ZonesRelatedTo returns the current offset of every known zone relative to
// ref.
func (c *Converter) ZonesRelatedTo(ref string) (map[string]tzconvert.Offset, error) {
	loc, err := c.resolver.Location(ref)
	if err != nil {
		return nil, err
	}
	return c.resolver.ZonesRelatedTo(loc, c.now()), nil
}

func (c *Converter) zones(a, b string) (*time.Location, *time.Location, error) {
	la, err := c.resolver.Location(a)
	if err != nil {
		return nil, nil, err
	}
	lb, err := c.resolver.Location(b)
	if err != nil {
		return nil, nil, err
	}
	return la, lb, nil
}
