package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/leitner/internal/catalog"
	"github.com/conorfennell/leitner/internal/exchange"
	"github.com/conorfennell/leitner/internal/sourcesync"
	"github.com/conorfennell/leitner/internal/study"
)

// maxBodyBytes bounds request bodies; imports are the largest.
const maxBodyBytes = 10 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondErr maps domain errors to status codes. Anything unknown is logged
// and reported as a 500 without details.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, catalog.ErrDeckNotFound),
		errors.Is(err, catalog.ErrCardNotFound),
		errors.Is(err, study.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, study.ErrEmptyDueSet):
		respondError(w, http.StatusConflict, "no cards due")
	case errors.Is(err, study.ErrInvalidTransition),
		errors.Is(err, catalog.ErrDuplicateDeckName),
		errors.Is(err, sourcesync.ErrSourceExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrEmptyDeckName),
		errors.Is(err, catalog.ErrEmptyFront),
		errors.Is(err, catalog.ErrEmptyBack),
		errors.Is(err, exchange.ErrInvalidFormat),
		errors.As(err, &verrs):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
