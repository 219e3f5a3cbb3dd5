package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the core error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err; internal failures are logged and hidden from the
// client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

func pathTxID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("txID"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: transaction id %q", core.ErrInvalidInput, r.PathValue("txID"))
	}
	return id, nil
}

func pathMonth(r *http.Request) (time.Month, error) {
	m, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || !core.ValidMonth(time.Month(m)) {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidMonth, r.PathValue("month"))
	}
	return time.Month(m), nil
}
