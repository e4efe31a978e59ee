package calendar

import (
	"time"

	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
)

type gregorian struct{}

// Gregorian returns the proleptic Gregorian calendar backed by package time.
func Gregorian() System {
	return gregorian{}
}

func (gregorian) Kind() string { return KindGregorian }

func (gregorian) MonthsInYear() int { return 12 }

func (gregorian) DaysInMonth(year, month int) int {
	// Day 0 of the following month normalises to the last day of month.
	return time.Date(year, time.Month(month)+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

func (gregorian) DaysInYear(year int) int {
	return time.Date(year, time.December, 31, 12, 0, 0, 0, time.UTC).YearDay()
}

func (gregorian) FromGregorian(d civil.Date) civil.Date { return d }

func (gregorian) ToGregorian(d civil.Date) civil.Date { return d }
