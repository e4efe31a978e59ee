package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/codeGROOVE-dev/calTZ/pkg/api"
	"github.com/codeGROOVE-dev/calTZ/pkg/sentinel"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

// writeError maps err onto a status code and error body. Internal errors
// carry no description.
func writeError(w http.ResponseWriter, err error) {
	code := sentinel.Code(err)
	status := http.StatusInternalServerError
	body := api.ErrorResponse{Error: code}
	switch code {
	case "invalid_argument", "invalid_format":
		status = http.StatusBadRequest
		body.ErrorDescription = err.Error()
	default:
		body.Error = "internal_error"
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var se *sentinel.Error
		if errors.As(err, &se) {
			return err
		}
		return sentinel.InvalidFormat("body", "decoding request: %v", err)
	}
	return nil
}
