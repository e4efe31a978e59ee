package caltz

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/profile"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

var (
	gregorianUTC    = Side{Calendar: "gregorian", Locale: "en-US", Zone: "UTC"}
	gregorianTehran = Side{Calendar: "gregorian", Locale: "en-US", Zone: "Asia/Tehran"}
	khorshidiTehran = Side{Calendar: "khorshidi", Locale: "fa-IR", Zone: "Asia/Tehran"}
)

func newConverter(t *testing.T, now time.Time) *Converter {
	t.Helper()
	reg, err := profile.Default()
	require.NoError(t, err)
	return New(reg, WithClock(func() time.Time { return now }))
}

func dt(t *testing.T, s string) civil.DateTime {
	t.Helper()
	v, err := civil.ParseDateTime(s)
	require.NoError(t, err)
	return v
}

func TestConvertDateTimeFixtures(t *testing.T) {
	c := newConverter(t, time.Now())
	tests := []struct {
		gregorian string
		from      Side
		khorshidi string
	}{
		{"2021-03-20T20:30:00", gregorianUTC, "1399-12-30T00:00:00"},
		{"2021-03-20T20:30:01", gregorianUTC, "1400-01-01T00:00:01"},
		{"2021-03-20T23:59:59", gregorianUTC, "1400-01-01T03:29:59"},
		{"2021-03-21T00:00:00", gregorianUTC, "1400-01-01T03:30:00"},
		{"2021-04-20T19:29:59", gregorianUTC, "1400-01-31T23:59:59"},
		{"2021-04-20T19:30:00", gregorianUTC, "1400-01-31T00:00:00"},
		{"2021-04-20T00:00:00", gregorianTehran, "1400-01-31T00:00:00"},
		{"2021-03-21T08:30:00", gregorianTehran, "1400-01-01T08:30:00"},
		{"2022-03-25T13:47:00", gregorianUTC, "1401-01-05T18:17:00"},
	}
	for _, tt := range tests {
		t.Run(tt.gregorian+"/"+tt.from.Zone, func(t *testing.T) {
			forward, err := c.ConvertDateTime(dt(t, tt.gregorian), tt.from, khorshidiTehran)
			require.NoError(t, err)
			assert.Equal(t, tt.khorshidi, forward.Value.String(), "gregorian to khorshidi")
			assert.Equal(t, tt.khorshidi, forward.Text)

			back, err := c.ConvertDateTime(dt(t, tt.khorshidi), khorshidiTehran, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.gregorian, back.Value.String(), "khorshidi to gregorian")
		})
	}
}

func TestConvertDateTimeZoneMatrix(t *testing.T) {
	c := newConverter(t, time.Now())
	zones := []string{
		"UTC", "America/New_York", "America/St_Johns", "Asia/Kathmandu", "Asia/Tehran",
		"Pacific/Chatham", "Pacific/Kiritimati", "Pacific/Pago_Pago",
	}
	instants := []time.Time{
		time.Date(2021, time.January, 15, 0, 0, 7, 0, time.UTC),
		time.Date(2021, time.January, 15, 10, 15, 7, 0, time.UTC),
		time.Date(2021, time.January, 15, 23, 45, 7, 0, time.UTC),
		time.Date(2021, time.July, 15, 5, 30, 7, 0, time.UTC),
		time.Date(2021, time.July, 15, 13, 0, 7, 0, time.UTC),
		time.Date(2021, time.July, 15, 19, 20, 7, 0, time.UTC),
		time.Date(2021, time.October, 20, 2, 10, 7, 0, time.UTC),
		time.Date(2021, time.October, 20, 11, 59, 7, 0, time.UTC),
		time.Date(2021, time.October, 20, 21, 40, 7, 0, time.UTC),
	}

	for _, fromZone := range zones {
		for _, toZone := range zones {
			from, err := time.LoadLocation(fromZone)
			require.NoError(t, err)
			to, err := time.LoadLocation(toZone)
			require.NoError(t, err)

			for _, inst := range instants {
				in := civil.DateTimeOf(inst.In(from))
				want := civil.DateTimeOf(inst.In(to))
				_, a := inst.In(from).Zone()
				_, b := inst.In(to).Zone()

				got, err := c.ConvertDateTime(in,
					Side{Calendar: "gregorian", Locale: "en-US", Zone: fromZone},
					Side{Calendar: "gregorian", Locale: "en-US", Zone: toZone})
				if span := b - a; span >= civil.SecondsPerDay || span <= -civil.SecondsPerDay {
					assert.ErrorIs(t, err, sentinel.ErrInvalidArgument, "%s %s -> %s", in, fromZone, toZone)
					continue
				}
				require.NoError(t, err, "%s %s -> %s", in, fromZone, toZone)
				assert.Equal(t, want, got.Value, "%s %s -> %s", in, fromZone, toZone)
			}
		}
	}
}

func TestConvertDateTimeRejectsDaySpan(t *testing.T) {
	c := newConverter(t, time.Now())
	pagoPago := Side{Calendar: "gregorian", Locale: "en-US", Zone: "Pacific/Pago_Pago"}
	kiritimati := Side{Calendar: "gregorian", Locale: "en-US", Zone: "Pacific/Kiritimati"}

	for _, s := range []string{"2021-03-20T12:00:00", "2021-03-20T23:30:00"} {
		_, err := c.ConvertDateTime(dt(t, s), pagoPago, kiritimati)
		assert.ErrorIs(t, err, sentinel.ErrInvalidArgument, s)

		_, err = c.ConvertDateTime(dt(t, s), kiritimati, pagoPago)
		assert.ErrorIs(t, err, sentinel.ErrInvalidArgument, s)
	}

	// Honolulu is one hour short of a full day from Kiritimati.
	honolulu := pagoPago
	honolulu.Zone = "Pacific/Honolulu"
	_, err := c.ConvertDateTime(dt(t, "2021-03-20T12:00:00"), honolulu, kiritimati)
	assert.ErrorIs(t, err, sentinel.ErrInvalidArgument)

	samoa := pagoPago
	samoa.Zone = "Pacific/Midway"
	got, err := c.ConvertDateTime(dt(t, "2021-03-20T12:00:00"), samoa, gregorianUTC)
	require.NoError(t, err)
	assert.Equal(t, "2021-03-20T23:00:00", got.Value.String())
}

func TestConvertDateTimeShift(t *testing.T) {
	c := newConverter(t, time.Now())

	got, err := c.ConvertDateTime(dt(t, "2021-03-20T20:30:01"), gregorianUTC, khorshidiTehran)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Shift)
	assert.Equal(t, civil.Date{Year: 2021, Month: 3, Day: 21}, got.Source)

	got, err = c.ConvertDateTime(dt(t, "1400-01-01T00:00:01"), khorshidiTehran, gregorianUTC)
	require.NoError(t, err)
	assert.EqualValues(t, -1, got.Shift)
	assert.Equal(t, civil.Date{Year: 1399, Month: 12, Day: 30}, got.Source)

	got, err = c.ConvertDateTime(dt(t, "2021-03-21T08:30:00"), gregorianTehran, khorshidiTehran)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Shift)
}

func TestConvertDateTimeFormatting(t *testing.T) {
	c := newConverter(t, time.Now())

	got, err := c.ConvertDateTime(dt(t, "2021-03-20T20:30:01"), gregorianUTC, khorshidiTehran)
	require.NoError(t, err)
	assert.Equal(t, "1400-01-01T00:00:01", got.Text)
	assert.Equal(t, "یکشنبه ۱ فروردین ۱۴۰۰ ۰۰:۰۰:۰۱", got.Formatted)

	english := khorshidiTehran
	english.Locale = "en"
	got, err = c.ConvertDateTime(dt(t, "2021-03-20T20:30:01"), gregorianUTC, english)
	require.NoError(t, err)
	assert.Equal(t, "Sunday 1 Farvardin 1400 00:00:01", got.Formatted)

	got, err = c.ConvertDateTime(dt(t, "1401-01-05T18:17:00"), khorshidiTehran, gregorianUTC)
	require.NoError(t, err)
	assert.Equal(t, "2022-03-25T13:47:00", got.Text)
	assert.Equal(t, "Friday, March 25, 2022 1:47:00 PM", got.Formatted)
}

func TestConvertDate(t *testing.T) {
	c := newConverter(t, time.Now())
	tests := []struct {
		gregorian civil.Date
		khorshidi civil.Date
	}{
		{civil.Date{Year: 2021, Month: 3, Day: 20}, civil.Date{Year: 1399, Month: 12, Day: 30}},
		{civil.Date{Year: 2021, Month: 3, Day: 21}, civil.Date{Year: 1400, Month: 1, Day: 1}},
		{civil.Date{Year: 2021, Month: 4, Day: 20}, civil.Date{Year: 1400, Month: 1, Day: 31}},
	}
	for _, tt := range tests {
		got, err := c.ConvertDate(tt.gregorian, gregorianUTC, khorshidiTehran)
		require.NoError(t, err)
		assert.Equal(t, tt.khorshidi, got.Value)

		back, err := c.ConvertDate(tt.khorshidi, khorshidiTehran, gregorianUTC)
		require.NoError(t, err)
		assert.Equal(t, tt.gregorian, back.Value)
	}

	got, err := c.ConvertDate(civil.Date{Year: 2021, Month: 3, Day: 20}, gregorianUTC, khorshidiTehran)
	require.NoError(t, err)
	assert.Equal(t, "1399-12-30", got.Text)
	assert.Equal(t, "شنبه ۳۰ اسفند ۱۳۹۹", got.Formatted)
}

func TestConvertErrors(t *testing.T) {
	c := newConverter(t, time.Now())
	valid := dt(t, "2021-03-20T20:30:00")
	tests := []struct {
		name     string
		value    civil.DateTime
		from, to Side
	}{
		{"unknown calendar", valid, Side{Calendar: "hebrew", Zone: "UTC"}, khorshidiTehran},
		{"unknown target calendar", valid, gregorianUTC, Side{Calendar: "mayan", Zone: "UTC"}},
		{"malformed locale", valid, Side{Calendar: "gregorian", Locale: "not a tag!", Zone: "UTC"}, khorshidiTehran},
		{"empty zone", valid, Side{Calendar: "gregorian", Locale: "en"}, khorshidiTehran},
		{"unknown zone", valid, gregorianUTC, Side{Calendar: "khorshidi", Zone: "Mars/Base"}},
		{"esfand 30 in common year", dt(t, "1400-12-30T10:00:00"), khorshidiTehran, gregorianUTC},
		{"month 13", dt(t, "1400-13-01T10:00:00"), khorshidiTehran, gregorianUTC},
		{"feb 30", dt(t, "2021-02-30T10:00:00"), gregorianUTC, khorshidiTehran},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ConvertDateTime(tt.value, tt.from, tt.to)
			assert.ErrorIs(t, err, sentinel.ErrInvalidArgument)
			_, err = c.ConvertDate(tt.value.Date, tt.from, tt.to)
			assert.ErrorIs(t, err, sentinel.ErrInvalidArgument)
		})
	}

	_, err := c.ConvertDateTime(civil.DateTime{Date: civil.Date{Year: 2021, Month: 3, Day: 20}, Time: civil.Time{Hour: 25}}, gregorianUTC, khorshidiTehran)
	assert.ErrorIs(t, err, sentinel.ErrInvalidArgument)
}

func TestSameSideIsIdentity(t *testing.T) {
	c := newConverter(t, time.Now())
	for _, s := range []string{"1399-12-30T23:59:59", "1400-01-01T00:00:00", "1401-06-31T12:00:00"} {
		got, err := c.ConvertDateTime(dt(t, s), khorshidiTehran, khorshidiTehran)
		require.NoError(t, err)
		assert.Equal(t, s, got.Value.String())
		assert.EqualValues(t, 0, got.Shift)
	}
}

func TestConcurrentConversions(t *testing.T) {
	c := newConverter(t, time.Now())
	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			got, err := c.ConvertDateTime(civil.DateTime{
				Date: civil.Date{Year: 2022, Month: 3, Day: 25},
				Time: civil.Time{Hour: 13, Minute: 47},
			}, gregorianUTC, khorshidiTehran)
			if err != nil {
				return err
			}
			if got.Value.String() != "1401-01-05T18:17:00" {
				t.Errorf("concurrent conversion = %s", got.Value)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestIsLeap(t *testing.T) {
	c := newConverter(t, time.Now())
	tests := []struct {
		year     int
		calendar string
		want     bool
	}{
		{1399, "khorshidi", true},
		{1400, "khorshidi", false},
		{2000, "gregorian", true},
		{1900, "gregorian", false},
		{2024, "gregorian", true},
		{2023, "gregorian", false},
	}
	for _, tt := range tests {
		got, err := c.IsLeap(tt.year, tt.calendar, "en")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %d", tt.calendar, tt.year)
	}

	_, err := c.IsLeap(1400, "lunar", "en")
	assert.ErrorIs(t, err, sentinel.ErrInvalidArgument)
}

func TestIsLeapMatchesMonthLengths(t *testing.T) {
	c := newConverter(t, time.Now())
	reg, err := profile.Default()
	require.NoError(t, err)

	for id, first := range map[string]int{"khorshidi": 1390, "gregorian": 2010} {
		p, err := reg.Resolve(id)
		require.NoError(t, err)
		sys := p.System()
		for year := first; year < first+40; year++ {
			days := 0
			for m := 1; m <= sys.MonthsInYear(); m++ {
				days += sys.DaysInMonth(year, m)
			}
			got, err := c.IsLeap(year, id, "")
			require.NoError(t, err)
			assert.Equal(t, days == 366, got, "%s %d has %d days", id, year, days)
		}
	}
}

func TestAddDate(t *testing.T) {
	c := newConverter(t, time.Now())
	got, err := c.AddDate(civil.Date{Year: 2021, Month: 9, Day: 4}, "gregorian", "en-US", 2, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2023, Month: 12, Day: 9}, got)

	got, err = c.AddDate(civil.Date{Year: 1399, Month: 12, Day: 30}, "khorshidi", "fa-IR", 0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 1400, Month: 1, Day: 1}, got)

	_, err = c.AddDate(civil.Date{Year: 1400, Month: 12, Day: 30}, "khorshidi", "fa-IR", 0, 0, 1)
	assert.ErrorIs(t, err, sentinel.ErrInvalidArgument)
}

func TestNow(t *testing.T) {
	c := newConverter(t, time.Date(2022, time.March, 25, 13, 47, 0, 0, time.UTC))
	got, err := c.Now("khorshidi", "en", "Asia/Tehran")
	require.NoError(t, err)
	assert.Equal(t, "1401-01-05T18:17:00", got.Value.String())
	assert.Equal(t, "Friday 5 Farvardin 1401 18:17:00", got.Formatted)

	got, err = c.Now("gregorian", "en", "UTC")
	require.NoError(t, err)
	assert.Equal(t, "2022-03-25T13:47:00", got.Text)
}

func TestFormatAndInstant(t *testing.T) {
	c := newConverter(t, time.Now())

	s, err := c.Format(dt(t, "1400-01-31T00:00:00"), "khorshidi", "fa", "yyyy/MM/dd")
	require.NoError(t, err)
	assert.Equal(t, "۱۴۰۰/۰۱/۳۱", s)

	_, err = c.Format(dt(t, "1400-01-31T00:00:00"), "khorshidi", "fa", "yyyy-QQ")
	assert.ErrorIs(t, err, sentinel.ErrInvalidFormat)

	at, err := c.Instant(dt(t, "1400-01-01T00:00:01"), "khorshidi", "Asia/Tehran")
	require.NoError(t, err)
	assert.True(t, at.Equal(time.Date(2021, time.March, 20, 20, 30, 1, 0, time.UTC)), "got %v", at)
}

func TestOffsets(t *testing.T) {
	c := newConverter(t, time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC))

	off, err := c.Offset("Asia/Tehran", "Japan")
	require.NoError(t, err)
	assert.Equal(t, "+05:30", off.String())

	off, err = c.Offset("Asia/Tehran", "UTC")
	require.NoError(t, err)
	assert.Equal(t, "-03:30", off.String())

	off, err = c.Offset("UTC", "UTC")
	require.NoError(t, err)
	assert.Equal(t, "00:00", off.String())

	// Berlin and New York both observe DST, so allow either side of it.
	off, err = c.Offset("Europe/Berlin", "America/New_York")
	require.NoError(t, err)
	assert.Contains(t, []int{-5 * 3600, -6 * 3600, -7 * 3600}, off.Seconds())

	_, err = c.Offset("", "UTC")
	assert.ErrorIs(t, err, sentinel.ErrInvalidArgument)

	secs, err := c.ToSeconds(off.String())
	require.NoError(t, err)
	assert.Equal(t, off.Seconds(), secs)
}

func TestZoneHelpers(t *testing.T) {
	c := newConverter(t, time.Date(2021, time.March, 20, 22, 0, 0, 0, time.UTC))
	mar20 := civil.Date{Year: 2021, Month: 3, Day: 20}

	d, err := c.ChangeDateZone(mar20, "Japan", "Asia/Tehran")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2021, Month: 3, Day: 19}, d)

	// 18:00 in New York is 01:30 the next day in Tehran.
	d, err = c.ChangeDateZoneNow(mar20, "America/New_York", "Asia/Tehran")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2021, Month: 3, Day: 21}, d)

	moved, err := c.ChangeZone(dt(t, "2022-03-25T13:47:00"), "UTC", "Asia/Tehran")
	require.NoError(t, err)
	assert.Equal(t, "2022-03-25T18:17:00", moved.String())

	shift, err := c.DayShift(mar20, civil.Time{Hour: 20, Minute: 30, Second: 1}, "UTC", civil.Time{Second: 1}, "Asia/Tehran")
	require.NoError(t, err)
	assert.EqualValues(t, 1, shift)

	// New York falls back on 2021-11-07; a zone onto itself still never shifts.
	nov7 := civil.Date{Year: 2021, Month: 11, Day: 7}
	shift, err = c.DayShift(nov7, civil.Time{Minute: 30}, "America/New_York", civil.Time{Hour: 23, Minute: 30}, "America/New_York")
	require.NoError(t, err)
	assert.EqualValues(t, 0, shift)

	_, err = c.DayShift(mar20, civil.Time{Hour: 12}, "Pacific/Pago_Pago", civil.Time{Hour: 13}, "Pacific/Kiritimati")
	assert.ErrorIs(t, err, sentinel.ErrInvalidArgument)

	_, err = c.ChangeZone(moved, "UTC", "")
	assert.ErrorIs(t, err, sentinel.ErrInvalidArgument)
}

func TestZonesRelatedTo(t *testing.T) {
	c := newConverter(t, time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC))
	zones, err := c.ZonesRelatedTo("Asia/Tehran")
	require.NoError(t, err)
	require.NotEmpty(t, zones)
	if off, ok := zones["Asia/Tehran"]; ok {
		assert.Equal(t, 0, off.Seconds())
	}

	_, err = c.ZonesRelatedTo("")
	assert.ErrorIs(t, err, sentinel.ErrInvalidArgument)

	assert.Equal(t, []string{"gregorian", "khorshidi"}, c.Calendars())
}
