package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeGROOVE-dev/calTZ/pkg/api"
	"github.com/codeGROOVE-dev/calTZ/pkg/caltz"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
	"github.com/codeGROOVE-dev/calTZ/pkg/tzconvert"
)

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req api.ConvertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.convert(req)
	if err != nil {
		s.logger.Debug("conversion failed",
			"request_id", w.Header().Get("X-Request-ID"),
			"from", req.From.Calendar,
			"to", req.To.Calendar,
			"error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) convert(req api.ConvertRequest) (api.ConvertResponse, error) {
	var resp api.ConvertResponse
	var err error
	switch {
	case req.Date != nil && req.DateTime != nil:
		err = sentinel.InvalidArgument("body", "date and date_time are mutually exclusive")
	case req.DateTime != nil:
		var res caltz.DateTimeResult
		if res, err = s.conv.ConvertDateTime(*req.DateTime, req.From, req.To); err == nil {
			resp.DateTime = &res
			s.metrics.IncrementDayShift(res.Shift)
		}
	case req.Date != nil:
		var res caltz.DateResult
		if res, err = s.conv.ConvertDate(*req.Date, req.From, req.To); err == nil {
			resp.Date = &res
		}
	default:
		err = sentinel.InvalidArgument("body", "one of date or date_time is required")
	}
	if err != nil {
		s.metrics.IncrementConversion(sentinel.Code(err))
		return api.ConvertResponse{}, err
	}
	s.metrics.IncrementConversion("ok")
	return resp, nil
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req api.BatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Items) > api.MaxBatch {
		writeError(w, sentinel.InvalidArgument("items", "at most %d items per batch, got %d", api.MaxBatch, len(req.Items)))
		return
	}

	results, err := s.convertAll(r.Context(), req.Items)
	if err != nil {
		s.logger.Warn("batch abandoned",
			"request_id", w.Header().Get("X-Request-ID"),
			"items", len(req.Items),
			"error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.BatchResponse{Results: results})
}

func (s *Server) handleOffset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")

	var off tzconvert.Offset
	var err error
	if v := q.Get("at"); v != "" {
		at, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			writeError(w, sentinel.InvalidFormat("at", "%q is not an RFC 3339 timestamp", v))
			return
		}
		off, err = s.conv.OffsetAt(at, from, to)
	} else {
		off, err = s.conv.Offset(from, to)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.OffsetResponse{From: from, To: to, Offset: off.String(), Seconds: off.Seconds()})
}

func (s *Server) handleSeconds(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	secs, err := s.conv.ToSeconds(text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.SecondsResponse{Text: text, Seconds: secs})
}

func (s *Server) handleLeap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, sentinel.InvalidArgument("year", "%q is not an integer", q.Get("year")))
		return
	}
	cal := q.Get("calendar")
	leap, err := s.conv.IsLeap(year, cal, q.Get("locale"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.LeapResponse{Calendar: cal, Year: year, Leap: leap})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req api.AddRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.conv.AddDate(req.Date, req.Calendar, req.Locale, req.Years, req.Months, req.Days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.AddResponse{Date: d})
}

func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.conv.Now(q.Get("calendar"), q.Get("locale"), q.Get("zone"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ConvertResponse{DateTime: &res})
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	zones, err := s.conv.ZonesRelatedTo(ref)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string]string, len(zones))
	for name, off := range zones {
		out[name] = off.String()
	}
	writeJSON(w, http.StatusOK, api.ZonesResponse{Ref: ref, Zones: out})
}

func (s *Server) handleCalendars(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.CalendarsResponse{Calendars: s.conv.Calendars()})
}

// convertAll converts reqs concurrently. Per-item failures are reported in
// the item; only cancellation of ctx fails the whole batch.
func (s *Server) convertAll(ctx context.Context, reqs []api.ConvertRequest) ([]api.BatchItem, error) {
	results := make([]api.BatchItem, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchWorkers)
	for i, item := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			resp, err := s.convert(item)
			if err != nil {
				results[i] = api.BatchItem{Error: sentinel.Code(err), ErrorDescription: err.Error()}
				return nil
			}
			results[i] = api.BatchItem{ConvertResponse: resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
