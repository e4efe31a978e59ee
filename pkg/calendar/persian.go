package calendar

import (
	"time"

	ptime "github.com/yaa110/go-persian-calendar"

	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
)

type persian struct{}

// Persian returns the Khorshidi (solar hijri) calendar. Conversions and the
// leap-year model are delegated to go-persian-calendar.
func Persian() System {
	return persian{}
}

func (persian) Kind() string { return KindPersian }

func (persian) MonthsInYear() int { return 12 }

func (p persian) DaysInMonth(year, month int) int {
	switch {
	case month <= 6:
		return 31
	case month <= 11:
		return 30
	case p.isLeap(year):
		return 30
	default:
		return 29
	}
}

func (p persian) DaysInYear(year int) int {
	if p.isLeap(year) {
		return 366
	}
	return 365
}

func (persian) FromGregorian(d civil.Date) civil.Date {
	pt := ptime.New(d.Gregorian(civil.Time{Hour: 12}, time.UTC))
	return civil.Date{Year: pt.Year(), Month: int(pt.Month()), Day: pt.Day()}
}

func (persian) ToGregorian(d civil.Date) civil.Date {
	t := ptime.Date(d.Year, ptime.Month(d.Month), d.Day, 12, 0, 0, 0, time.UTC).Time()
	return civil.DateOf(t)
}

func (persian) isLeap(year int) bool {
	return ptime.Date(year, ptime.Esfand, 1, 12, 0, 0, 0, time.UTC).IsLeap()
}
