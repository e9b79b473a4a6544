// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for decoding request bodies and reading
// query and path parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tourney/internal/core"
	"tourney/internal/ledger"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 64 << 10

// requestError reports a body that is not valid JSON for the target type.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// DecodeJSON reads a single JSON object into dst. Unknown fields and
// trailing data are rejected. Numbers are kept as json.Number so money and
// nights reach the validators as written.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return badRequest("unsupported content type %q", ct)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	dec.UseNumber()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &syntaxErr):
			return badRequest("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return badRequest("malformed JSON")
		case errors.As(err, &typeErr):
			return badRequest("field %q has the wrong type", typeErr.Field)
		case strings.Contains(err.Error(), "invalid number literal"):
			// A quoted non-number in an amount or nights field is bad input,
			// not bad JSON.
			return core.NewValidationError("", "numeric fields must hold a decimal number")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return badRequest("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		default:
			return badRequest("invalid request body: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON object")
	}
	return nil
}

// TeamParam returns the finance team filter, defaulting to all teams.
func TeamParam(r *http.Request) string {
	team := sanitizeInput(r.URL.Query().Get("team"))
	if team == "" {
		return ledger.AllTeams
	}
	return team
}
