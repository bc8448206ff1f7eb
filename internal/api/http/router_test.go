package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/ielts-studio/internal/auth/middleware"
	"github.com/mind-engage/ielts-studio/internal/editor"
	"github.com/mind-engage/ielts-studio/internal/eventlog"
	"github.com/mind-engage/ielts-studio/internal/passage"
	"github.com/mind-engage/ielts-studio/internal/storage"
	"github.com/mind-engage/ielts-studio/internal/zones"
)

type memEvents struct{ list []eventlog.Event }

func (m *memEvents) Append(_ context.Context, e eventlog.Event) error {
	m.list = append(m.list, e)
	return nil
}

func (m *memEvents) List(_ context.Context, key string, _ int) ([]eventlog.Event, error) {
	out := []eventlog.Event{}
	for i := len(m.list) - 1; i >= 0; i-- {
		if m.list[i].Key == key {
			out = append(out, m.list[i])
		}
	}
	return out, nil
}

type testServer struct {
	t      *testing.T
	h      http.Handler
	store  passage.Store
	events *memEvents
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	store := passage.NewInMemoryStore()
	events := &memEvents{}
	h := NewRouter(Deps{
		Store:  store,
		Editor: editor.NewManager(store, editor.WithEvents(events)),
		Blobs:  blobs,
		Events: events,
		Auth:   authmw.NewAuthService("test-secret"),
		Login: authmw.LoginOptions{
			AdminUser:     "admin",
			AdminPassHash: string(hash),
			AllowDev:      true,
		},
		Log:          zerolog.Nop(),
		PublicURL:    "https://studio.example.org/api/",
		MaxAudioSize: 1 << 20,
	})
	return &testServer{t: t, h: h, store: store, events: events}
}

func (s *testServer) login(user, pass, role string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"username": user, "password": pass, "role": role,
	})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.AccessToken
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(s.t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) seed(p passage.Passage) passage.Passage {
	s.t.Helper()
	out, err := s.store.Put(context.Background(), p)
	require.NoError(s.t, err)
	return out
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	assert.NotEmpty(t, s.login("admin", "s3cret", ""))
	assert.NotEmpty(t, s.login("alice", "alice", "author"))

	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "bob", "password": "bob", "role": "admin"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "dev login cannot mint admins")

	rec = s.do(http.MethodGet, "/passages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPassageCRUD(t *testing.T) {
	s := newTestServer(t)
	author := s.login("alice", "alice", "author")
	reviewer := s.login("rita", "rita", "reviewer")
	admin := s.login("admin", "s3cret", "")

	rec := s.do(http.MethodPost, "/passages", author, passage.Passage{
		Kind:    passage.KindReading,
		Title:   "Bees",
		Content: "Bees [DROP_ZONE:2] and [DROP_ZONE:1].",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[passage.Passage](t, rec)
	require.NotEmpty(t, created.ID)

	rec = s.do(http.MethodPost, "/passages", reviewer, passage.Passage{Kind: passage.KindReading, Title: "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/passages", author, passage.Passage{Kind: "essay", Title: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/passages?kind=reading", reviewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]passage.Summary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ZoneCount)

	rec = s.do(http.MethodGet, "/passages/"+created.ID+"/zones", reviewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	an := decodeBody[zoneAnalysis](t, rec)
	assert.Equal(t, []int{2, 1}, an.Registry.IDs())
	assert.Equal(t, 3, an.Registry.Next)

	created.Title = "Honey bees"
	rec = s.do(http.MethodPut, "/passages/"+created.ID, author, created)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Honey bees", decodeBody[passage.Passage](t, rec).Title)

	rec = s.do(http.MethodDelete, "/passages/"+created.ID, author, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, "/passages/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/passages/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t)
	author := s.login("alice", "alice", "author")
	p := s.seed(passage.Passage{
		Kind:             passage.KindReading,
		Title:            "Tides",
		Content:          "A [DROP_ZONE:1] B [DROP_ZONE:2] C [DROP_ZONE:3]",
		HighlightContent: "[DROP_ZONE:3] first",
	})

	rec := s.do(http.MethodPost, "/passages/"+p.ID+"/sessions", author, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap := decodeBody[editor.Snapshot](t, rec)
	assert.Equal(t, "alice", snap.Owner)
	assert.Equal(t, []int{1, 2, 3}, snap.Registry.IDs())
	base := "/sessions/" + snap.ID

	rec = s.do(http.MethodDelete, base+"/zones/2", author, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	removed := decodeBody[struct {
		Session editor.Snapshot `json:"session"`
	}](t, rec)
	assert.Equal(t, "A [DROP_ZONE:1] B  C [DROP_ZONE:2]", removed.Session.Text.Primary)
	assert.Equal(t, "[DROP_ZONE:2] first", removed.Session.Text.Highlight)

	rec = s.do(http.MethodPost, base+"/zones", author, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	added := decodeBody[struct {
		ZoneID int    `json:"zone_id"`
		Token  string `json:"token"`
	}](t, rec)
	assert.Equal(t, 3, added.ZoneID)
	assert.Equal(t, "[DROP_ZONE:3]", added.Token)

	rec = s.do(http.MethodPost, base+"/tokens", author, map[string]any{"zone_id": 3, "start": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ins := decodeBody[struct {
		Cursor  int             `json:"cursor"`
		Session editor.Snapshot `json:"session"`
	}](t, rec)
	assert.Equal(t, len("[DROP_ZONE:3]"), ins.Cursor)
	assert.Equal(t, "[DROP_ZONE:3]A [DROP_ZONE:1] B  C [DROP_ZONE:2]", ins.Session.Text.Primary)

	rec = s.do(http.MethodPost, base+"/tokens", author, map[string]any{"zone_id": 3, "start": 5})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, base+"/tokens", author, map[string]any{"zone_id": 3, "start": 0, "buffer": "footer"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, base+"/segments", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	segs := decodeBody[[]struct {
		Kind string `json:"kind"`
	}](t, rec)
	require.NotEmpty(t, segs)
	assert.Equal(t, "zone", segs[0].Kind)

	rec = s.do(http.MethodPost, base+"/save", author, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got, err := s.store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "[DROP_ZONE:3]A [DROP_ZONE:1] B  C [DROP_ZONE:2]", got.Content)

	rec = s.do(http.MethodGet, "/passages/"+p.ID+"/events", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	evs := decodeBody[[]eventlog.Event](t, rec)
	require.Len(t, evs, 2)
	assert.Equal(t, eventlog.TypePassageSaved, evs[0].Type)
	assert.Equal(t, eventlog.TypeZoneRemoved, evs[1].Type)

	rec = s.do(http.MethodDelete, base, author, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, base, author, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionOwnership(t *testing.T) {
	s := newTestServer(t)
	alice := s.login("alice", "alice", "author")
	bob := s.login("bob", "bob", "author")
	reviewer := s.login("rita", "rita", "reviewer")
	admin := s.login("admin", "s3cret", "")
	p := s.seed(passage.Passage{Kind: passage.KindReading, Title: "T", Content: "[DROP_ZONE:1]"})

	rec := s.do(http.MethodPost, "/passages/"+p.ID+"/sessions", alice, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/sessions/" + decodeBody[editor.Snapshot](t, rec).ID

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, base, bob, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, base, reviewer, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, base, admin, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/passages/"+p.ID+"/sessions", reviewer, nil).Code)
}

func TestSetContentResyncsRegistry(t *testing.T) {
	s := newTestServer(t)
	author := s.login("alice", "alice", "author")
	p := s.seed(passage.Passage{Kind: passage.KindReading, Title: "T", Content: "[DROP_ZONE:1]"})

	rec := s.do(http.MethodPost, "/passages/"+p.ID+"/sessions", author, nil)
	base := "/sessions/" + decodeBody[editor.Snapshot](t, rec).ID

	rec = s.do(http.MethodPut, base+"/content", author, map[string]string{"text": "x [DROP_ZONE:4] y [DROP_ZONE:2]"})
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeBody[editor.Snapshot](t, rec)
	assert.Equal(t, []int{4, 2}, snap.Registry.IDs())
	assert.Equal(t, 1, snap.Registry.Next)
	assert.True(t, snap.Dirty)

	rec = s.do(http.MethodPut, base+"/content", author, map[string]string{"buffer": "highlight", "text": "[DROP_ZONE:9]"})
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeBody[editor.Snapshot](t, rec)
	assert.Equal(t, []int{4, 2}, snap.Registry.IDs(), "highlight edits leave the registry alone")
}

func TestAnalyzeZones(t *testing.T) {
	s := newTestServer(t)
	reviewer := s.login("rita", "rita", "reviewer")

	rec := s.do(http.MethodPost, "/zones/analyze", reviewer, zones.DualText{
		Primary:   "[DROP_ZONE:1] [DROP_ZONE:3] [DROP_ZONE:1]",
		Highlight: "[DROP_ZONE:3] [DROP_ZONE:7]",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	an := decodeBody[zoneAnalysis](t, rec)
	assert.Equal(t, []int{1, 3}, an.Registry.IDs())
	assert.Equal(t, 2, an.Registry.Next)
	assert.Equal(t, []int{3, 7}, an.HighlightIDs)
	assert.Equal(t, []int{7}, an.Orphans)
	assert.Len(t, an.Segments, 5)
}

func TestAudioUpload(t *testing.T) {
	s := newTestServer(t)
	author := s.login("alice", "alice", "author")
	listening := s.seed(passage.Passage{Kind: passage.KindListening, Title: "Section 1"})
	reading := s.seed(passage.Passage{Kind: passage.KindReading, Title: "R"})

	upload := func(id, name string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte("ID3fake"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/passages/"+id+"/audio", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+author)
		rec := httptest.NewRecorder()
		s.h.ServeHTTP(rec, req)
		return rec
	}

	rec := upload(listening.ID, "take1.MP3")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "passages/"+listening.ID+"/audio.mp3", out["key"])
	assert.Equal(t, "https://studio.example.org/api/assets/passages/"+listening.ID+"/audio.mp3", out["url"])

	got, err := s.store.Get(context.Background(), listening.ID)
	require.NoError(t, err)
	assert.Equal(t, out["key"], got.AudioKey)

	rec = s.do(http.MethodGet, "/assets/"+out["key"], author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID3fake", rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, upload(reading.ID, "a.mp3").Code)
	assert.Equal(t, http.StatusBadRequest, upload(listening.ID, "a.exe").Code)
}

func TestAssetURL(t *testing.T) {
	tests := []struct {
		public, key, want string
	}{
		{"", "passages/p1/audio.mp3", "/assets/passages/p1/audio.mp3"},
		{"http://localhost:8080", "passages/p1/audio.ogg", "http://localhost:8080/assets/passages/p1/audio.ogg"},
		{"https://studio.example.org/api/", "/passages/p1/audio.wav", "https://studio.example.org/api/assets/passages/p1/audio.wav"},
	}
	for _, tt := range tests {
		got := assetURL(tt.public, tt.key)
		assert.Equal(t, tt.want, got)
		assert.NotContains(t, got, "file://")
	}
}
