package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/lchelper/lchelper/internal/explain"
	"github.com/lchelper/lchelper/internal/llm"
	"github.com/lchelper/lchelper/internal/problems"
	"github.com/lchelper/lchelper/internal/spacedrep"
	"github.com/lchelper/lchelper/internal/store"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Messages of 5xx answers
// are not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case status >= 500:
		hlog.FromRequest(r).Error().Err(err).Int("status", status).Msg("request failed")
		msg = http.StatusText(status)
		var unavailable *spacedrep.UnavailableError
		if errors.As(err, &unavailable) {
			msg = "schedule store unavailable, retry later"
		}
		if errors.Is(err, explain.ErrDisabled) {
			msg = err.Error()
		}
	case status == http.StatusNotFound && errors.Is(err, store.ErrNotFound):
		msg = "not found"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func statusFor(err error) int {
	var (
		validation  *problems.ValidationError
		badRequest  *requestError
		invalid     *spacedrep.InvalidOutcomeError
		unavailable *spacedrep.UnavailableError
		rateLimited *llm.ErrRateLimit
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &badRequest), errors.As(err, &invalid),
		errors.Is(err, spacedrep.ErrInvalidConfidence):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, spacedrep.ErrNotTracked),
		errors.Is(err, explain.ErrNoSolution):
		return http.StatusNotFound
	case errors.As(err, &unavailable), errors.Is(err, explain.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// requestError is a malformed request: bad JSON or a bad query parameter.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequestf("request body is empty")
		}
		return badRequestf("invalid JSON body: %v", err)
	}
	return nil
}
