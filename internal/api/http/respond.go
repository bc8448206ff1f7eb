package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/mind-engage/ielts-studio/internal/editor"
	"github.com/mind-engage/ielts-studio/internal/passage"
	"github.com/mind-engage/ielts-studio/internal/storage"
	"github.com/mind-engage/ielts-studio/internal/zones"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors to status codes. Unknown errors are logged
// and reported as 500 without detail.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, passage.ErrNotFound), errors.Is(err, editor.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, zones.ErrDuplicateToken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, zones.ErrUnknownBuffer),
		errors.Is(err, passage.ErrInvalid),
		errors.Is(err, passage.ErrNotListening),
		errors.Is(err, storage.ErrBadKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func zoneParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "zoneID"))
	if err != nil || id < 1 {
		http.Error(w, "zone id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
