// Package api defines the JSON wire types of the caltz HTTP API.
package api

import (
	"github.com/codeGROOVE-dev/calTZ/pkg/caltz"
	"github.com/codeGROOVE-dev/calTZ/pkg/civil"
)

// Prefix is the path prefix every endpoint is served under.
const Prefix = "/api/v1"

// ConvertRequest asks for one conversion. Exactly one of Date and DateTime
// must be set.
type ConvertRequest struct {
	Date     *civil.Date     `json:"date,omitempty"`
	DateTime *civil.DateTime `json:"date_time,omitempty"`
	From     caltz.Side      `json:"from"`
	To       caltz.Side      `json:"to"`
}

// ConvertResponse carries either a date or a date-time result.
type ConvertResponse struct {
	Date     *caltz.DateResult     `json:"date,omitempty"`
	DateTime *caltz.DateTimeResult `json:"date_time,omitempty"`
}

// BatchRequest holds up to MaxBatch conversions.
type BatchRequest struct {
	Items []ConvertRequest `json:"items"`
}

// MaxBatch bounds the number of items in one BatchRequest.
const MaxBatch = 256

// BatchItem is the outcome of one batch entry. Failed entries carry the
// error code and description instead of a result.
type BatchItem struct {
	ConvertResponse
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// BatchResponse lists outcomes in request order.
type BatchResponse struct {
	Results []BatchItem `json:"results"`
}

// OffsetResponse is returned by GET /offset.
type OffsetResponse struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Offset  string `json:"offset"`
	Seconds int    `json:"seconds"`
}

// SecondsResponse is returned by GET /seconds.
type SecondsResponse struct {
	Text    string `json:"text"`
	Seconds int    `json:"seconds"`
}

// LeapResponse is returned by GET /leap.
type LeapResponse struct {
	Calendar string `json:"calendar"`
	Year     int    `json:"year"`
	Leap     bool   `json:"leap"`
}

// AddRequest is the body of POST /add.
type AddRequest struct {
	Date     civil.Date `json:"date"`
	Calendar string     `json:"calendar"`
	Locale   string     `json:"locale,omitempty"`
	Years    int        `json:"years"`
	Months   int        `json:"months"`
	Days     int        `json:"days"`
}

// AddResponse is returned by POST /add.
type AddResponse struct {
	Date civil.Date `json:"date"`
}

// ZonesResponse maps zone names to their offset from Ref.
type ZonesResponse struct {
	Ref   string            `json:"ref"`
	Zones map[string]string `json:"zones"`
}

// CalendarsResponse lists the calendar ids the server knows.
type CalendarsResponse struct {
	Calendars []string `json:"calendars"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
