package main

import (
	"context"
	"errors"
	"time"

	"github.com/codeGROOVE-dev/calTZ/pkg/api"
	"github.com/codeGROOVE-dev/calTZ/pkg/caltz"
	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
	"github.com/codeGROOVE-dev/calTZ/pkg/client"
	"github.com/codeGROOVE-dev/calTZ/pkg/tzconvert"
)

// backend answers CLI commands either in-process or through a caltz-server.
type backend interface {
	convertDate(ctx context.Context, d civil.Date, from, to caltz.Side) (caltz.DateResult, error)
	convertDateTime(ctx context.Context, dt civil.DateTime, from, to caltz.Side) (caltz.DateTimeResult, error)
	offset(ctx context.Context, zoneA, zoneB string) (tzconvert.Offset, error)
	seconds(ctx context.Context, text string) (int, error)
	leap(ctx context.Context, year int, calendar, locale string) (bool, error)
	add(ctx context.Context, d civil.Date, calendar, locale string, years, months, days int) (civil.Date, error)
	now(ctx context.Context, calendar, locale, zone string) (caltz.DateTimeResult, error)
	zones(ctx context.Context, ref string) (map[string]tzconvert.Offset, error)
	calendars(ctx context.Context) ([]string, error)
}

type local struct {
	conv *caltz.Converter
}

func (l local) convertDate(_ context.Context, d civil.Date, from, to caltz.Side) (caltz.DateResult, error) {
	return l.conv.ConvertDate(d, from, to)
}

func (l local) convertDateTime(_ context.Context, dt civil.DateTime, from, to caltz.Side) (caltz.DateTimeResult, error) {
	return l.conv.ConvertDateTime(dt, from, to)
}

func (l local) offset(_ context.Context, zoneA, zoneB string) (tzconvert.Offset, error) {
	return l.conv.Offset(zoneA, zoneB)
}

func (l local) seconds(_ context.Context, text string) (int, error) {
	return l.conv.ToSeconds(text)
}

func (l local) leap(_ context.Context, year int, calendar, locale string) (bool, error) {
	return l.conv.IsLeap(year, calendar, locale)
}

func (l local) add(_ context.Context, d civil.Date, calendar, locale string, years, months, days int) (civil.Date, error) {
	return l.conv.AddDate(d, calendar, locale, years, months, days)
}

func (l local) now(_ context.Context, calendar, locale, zone string) (caltz.DateTimeResult, error) {
	return l.conv.Now(calendar, locale, zone)
}

func (l local) zones(_ context.Context, ref string) (map[string]tzconvert.Offset, error) {
	return l.conv.ZonesRelatedTo(ref)
}

func (l local) calendars(context.Context) ([]string, error) {
	return l.conv.Calendars(), nil
}

type remote struct {
	c *client.Client
}

func (r remote) convertDate(ctx context.Context, d civil.Date, from, to caltz.Side) (caltz.DateResult, error) {
	resp, err := r.c.Convert(ctx, api.ConvertRequest{Date: &d, From: from, To: to})
	if err != nil {
		return caltz.DateResult{}, err
	}
	if resp.Date == nil {
		return caltz.DateResult{}, errors.New("server returned no date")
	}
	return *resp.Date, nil
}

func (r remote) convertDateTime(ctx context.Context, dt civil.DateTime, from, to caltz.Side) (caltz.DateTimeResult, error) {
	resp, err := r.c.Convert(ctx, api.ConvertRequest{DateTime: &dt, From: from, To: to})
	if err != nil {
		return caltz.DateTimeResult{}, err
	}
	if resp.DateTime == nil {
		return caltz.DateTimeResult{}, errors.New("server returned no date_time")
	}
	return *resp.DateTime, nil
}

func (r remote) offset(ctx context.Context, zoneA, zoneB string) (tzconvert.Offset, error) {
	resp, err := r.c.Offset(ctx, zoneA, zoneB, time.Time{})
	if err != nil {
		return 0, err
	}
	return tzconvert.Offset(resp.Seconds), nil
}

func (r remote) seconds(ctx context.Context, text string) (int, error) {
	return r.c.Seconds(ctx, text)
}

func (r remote) leap(ctx context.Context, year int, calendar, locale string) (bool, error) {
	return r.c.Leap(ctx, year, calendar, locale)
}

func (r remote) add(ctx context.Context, d civil.Date, calendar, locale string, years, months, days int) (civil.Date, error) {
	return r.c.Add(ctx, api.AddRequest{Date: d, Calendar: calendar, Locale: locale, Years: years, Months: months, Days: days})
}

func (r remote) now(ctx context.Context, calendar, locale, zone string) (caltz.DateTimeResult, error) {
	return r.c.Now(ctx, calendar, locale, zone)
}

func (r remote) zones(ctx context.Context, ref string) (map[string]tzconvert.Offset, error) {
	raw, err := r.c.Zones(ctx, ref)
	if err != nil {
		return nil, err
	}
	out := make(map[string]tzconvert.Offset, len(raw))
	for name, text := range raw {
		off, err := tzconvert.ParseOffset(text)
		if err != nil {
			return nil, err
		}
		out[name] = off
	}
	return out, nil
}

func (r remote) calendars(ctx context.Context) ([]string, error) {
	return r.c.Calendars(ctx)
}
