package caltz

import (
	"time"

	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/profile"
	"github.com/codeGROOVE-dev/calTZ/pkg/tzconvert"
)

// Option configures a Converter.
type Option func(*OptionHolder)

// OptionHolder holds configuration options for the Converter.
type OptionHolder struct {
	now      func() time.Time
	resolver *tzconvert.Resolver
}

// WithClock sets the source of the current instant, used by Offset, Now and
// ChangeDateZoneNow.
func WithClock(now func() time.Time) Option {
	return func(o *OptionHolder) {
		o.now = now
	}
}

// WithResolver shares a zone resolver (and its cache) between converters.
func WithResolver(r *tzconvert.Resolver) Option {
	return func(o *OptionHolder) {
		o.resolver = r
	}
}

// Profiles resolves calendar ids; *profile.Registry implements it.
type Profiles interface {
	Resolve(id string) (*profile.Profile, error)
	IDs() []string
}

// Side is one end of a conversion: a calendar, the locale its text is
// rendered in and the timezone its wall clock belongs to.
type Side struct {
	Calendar string `json:"calendar"`
	Locale   string `json:"locale,omitempty"`
	Zone     string `json:"zone"`
}

// DateResult is a converted date.
type DateResult struct {
	Value     civil.Date `json:"value"`
	Text      string     `json:"text"`      // date1 pattern, ASCII digits
	Formatted string     `json:"formatted"` // date2 pattern, target locale
}

// DateTimeResult is a converted date-time.
type DateTimeResult struct {
	Value     civil.DateTime     `json:"value"`
	Text      string             `json:"text"`      // date_time1 pattern, ASCII digits
	Formatted string             `json:"formatted"` // date_time2 pattern, target locale
	Shift     tzconvert.DayShift `json:"shift"`
	// Source is the input date moved by Shift, still in the source calendar.
	Source civil.Date `json:"source"`
}
