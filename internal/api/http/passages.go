package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/ielts-studio/internal/eventlog"
	"github.com/mind-engage/ielts-studio/internal/passage"
	"github.com/mind-engage/ielts-studio/internal/zones"
)

type EventLister interface {
	List(ctx context.Context, key string, limit int) ([]eventlog.Event, error)
}

func CreatePassageHandler(store passage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p passage.Passage
		if !decode(w, r, &p) {
			return
		}
		p.ID, p.AudioKey = "", ""
		out, err := store.Put(r.Context(), p)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func GetPassageHandler(store passage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), chi.URLParam(r, "passageID"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func ListPassagesHandler(store passage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := store.List(r.Context(), passage.ListOpts{
			Q:      strings.TrimSpace(q.Get("q")),
			Kind:   passage.Kind(q.Get("kind")),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// UpdatePassageHandler replaces title, kind and both texts. The audio key is
// kept; it only changes through the audio upload.
func UpdatePassageHandler(store passage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "passageID")
		cur, err := store.Get(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		var p passage.Passage
		if !decode(w, r, &p) {
			return
		}
		p.ID, p.AudioKey = id, cur.AudioKey
		out, err := store.Put(r.Context(), p)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeletePassageHandler(store passage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "passageID")); err != nil {
			writeErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func PassageSegmentsHandler(store passage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), chi.URLParam(r, "passageID"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, zones.Split(p.Content))
	}
}

func PassageZonesHandler(store passage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), chi.URLParam(r, "passageID"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, analyze(p.Text()))
	}
}

func PassageEventsHandler(events EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if events == nil {
			writeJSON(w, http.StatusOK, []eventlog.Event{})
			return
		}
		list, err := events.List(r.Context(), chi.URLParam(r, "passageID"), parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
