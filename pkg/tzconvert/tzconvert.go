// Package tzconvert computes wall-clock relationships between IANA timezones:
// signed offsets, zone-to-zone moves of civil date-times, and the day shift a
// move introduces when it crosses midnight.
//
// All functions take resolved *time.Location values; name resolution and its
// errors live in Resolver.
package tzconvert

import (
	"fmt"
	"regexp"

	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

// Offset is a signed difference between two zones, in whole seconds.
type Offset int

var offsetRegex = regexp.MustCompile(`^([+-])?(\d{2}):(\d{2})(?::(\d{2}))?$`)

// Seconds returns o as an int.
func (o Offset) Seconds() int {
	return int(o)
}

// String renders o as ±HH:mm. Zero has no sign.
// Example: Offset(19800) is "+05:30", Offset(-12600) is "-03:30", Offset(0) is "00:00".
func (o Offset) String() string {
	switch {
	case o > 0:
		return "+" + o.Magnitude()
	case o < 0:
		return "-" + o.Magnitude()
	default:
		return o.Magnitude()
	}
}

// Signed renders o like String but always carries a sign, "+00:00" for zero.
func (o Offset) Signed() string {
	if o < 0 {
		return "-" + o.Magnitude()
	}
	return "+" + o.Magnitude()
}

// Magnitude renders |o| as HH:mm. Hours may exceed 23 and seconds are dropped.
func (o Offset) Magnitude() string {
	s := int(o)
	if s < 0 {
		s = -s
	}
	return fmt.Sprintf("%02d:%02d", s/3600, s/60%60)
}

// ToSeconds converts "HH:mm:ss" or "[±]HH:mm[:ss]" to signed seconds. The sign
// applies to every field, so "-00:30" is -1800 and "-01:30" is -5400.
func ToSeconds(text string) (int, error) {
	if text == "" {
		return 0, sentinel.InvalidArgument("time", "must not be empty")
	}
	m := offsetRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, sentinel.InvalidFormat("time", "%q is not HH:mm:ss or ±HH:mm[:ss]", text)
	}
	h, mi, s := atoi(m[2]), atoi(m[3]), 0
	if m[4] != "" {
		s = atoi(m[4])
	}
	if mi > 59 || s > 59 {
		return 0, sentinel.InvalidFormat("time", "%q has minutes or seconds above 59", text)
	}
	total := h*3600 + mi*60 + s
	if m[1] == "-" {
		total = -total
	}
	return total, nil
}

// ParseOffset is ToSeconds returning an Offset.
func ParseOffset(text string) (Offset, error) {
	s, err := ToSeconds(text)
	return Offset(s), err
}

// timeOfDay maps |o| onto the 24 hour clock.
func (o Offset) timeOfDay() civil.Time {
	s := int(o)
	if s < 0 {
		s = -s
	}
	return civil.TimeOfSecondOfDay(s)
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
