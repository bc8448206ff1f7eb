package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	authmw "github.com/mind-engage/ielts-studio/internal/auth/middleware"
	"github.com/mind-engage/ielts-studio/internal/editor"
	"github.com/mind-engage/ielts-studio/internal/rbac"
	"github.com/mind-engage/ielts-studio/internal/zones"
)

// ownSession resolves {sessionID} and checks it belongs to the caller.
// Admins may touch any session.
func ownSession(w http.ResponseWriter, r *http.Request, m *editor.Manager) (editor.Snapshot, bool) {
	snap, err := m.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeErr(w, r, err)
		return editor.Snapshot{}, false
	}
	ctx := r.Context()
	if snap.Owner != authmw.SubjectFromContext(ctx) && rbac.RoleFromContext(ctx) != rbac.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return editor.Snapshot{}, false
	}
	return snap, true
}

func OpenSessionHandler(m *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := authmw.SubjectFromContext(r.Context())
		snap, err := m.Open(r.Context(), chi.URLParam(r, "passageID"), owner)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		hlog.FromRequest(r).Info().Str("session", snap.ID).Str("passage", snap.PassageID).Msg("editor session opened")
		writeJSON(w, http.StatusCreated, snap)
	}
}

func GetSessionHandler(m *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := ownSession(w, r, m)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// PUT /sessions/{sessionID}/content  { "buffer": "primary|highlight", "text": "..." }
func SetContentHandler(m *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, ok := ownSession(w, r, m)
		if !ok {
			return
		}
		id := cur.ID
		var req struct {
			Buffer string `json:"buffer"`
			Text   string `json:"text"`
		}
		if !decode(w, r, &req) {
			return
		}
		b, err := zones.ParseBuffer(req.Buffer)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		snap, err := m.SetContent(id, b, req.Text)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func AddZoneHandler(m *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, ok := ownSession(w, r, m)
		if !ok {
			return
		}
		id := cur.ID
		zoneID, snap, err := m.AddZone(id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"zone_id": zoneID,
			"label":   zones.Label(zoneID),
			"token":   zones.Token(zoneID),
			"session": snap,
		})
	}
}

func RemoveZoneHandler(m *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, ok := ownSession(w, r, m)
		if !ok {
			return
		}
		id := cur.ID
		zoneID, ok := zoneParam(w, r)
		if !ok {
			return
		}
		rep, snap, err := m.RemoveZone(r.Context(), id, zoneID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"report": rep, "session": snap})
	}
}

// POST /sessions/{sessionID}/tokens
// { "buffer": "primary|highlight", "zone_id": 3, "start": 10, "end": 10 }
// start/end are character offsets from the text input.
func InsertTokenHandler(m *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, ok := ownSession(w, r, m)
		if !ok {
			return
		}
		id := cur.ID
		var req struct {
			Buffer string `json:"buffer"`
			ZoneID int    `json:"zone_id"`
			Start  int    `json:"start"`
			End    *int   `json:"end,omitempty"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.ZoneID < 1 {
			http.Error(w, "zone_id must be a positive integer", http.StatusBadRequest)
			return
		}
		b, err := zones.ParseBuffer(req.Buffer)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		sel := zones.Selection{Start: req.Start, End: req.Start}
		if req.End != nil {
			sel.End = *req.End
		}
		cursor, snap, err := m.InsertToken(id, b, req.ZoneID, sel)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cursor": cursor, "session": snap})
	}
}

func SessionSegmentsHandler(m *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, ok := ownSession(w, r, m)
		if !ok {
			return
		}
		id := cur.ID
		segs, err := m.Segments(id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, segs)
	}
}

func SaveSessionHandler(m *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, ok := ownSession(w, r, m)
		if !ok {
			return
		}
		id := cur.ID
		p, err := m.Save(r.Context(), id)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func CloseSessionHandler(m *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur, ok := ownSession(w, r, m)
		if !ok {
			return
		}
		id := cur.ID
		if err := m.Close(id); err != nil {
			writeErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
