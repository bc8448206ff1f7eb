package passage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/ielts-studio/internal/db"
	"github.com/mind-engage/ielts-studio/internal/zones"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	return NewSQLStore(dbh, string(db.DriverSQLite))
}

func TestSQLStore_PutGetUpdate(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	clock := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return clock }

	p, err := s.Put(ctx, Passage{
		Kind:             KindReading,
		Title:            "Coral reefs",
		Content:          "Reefs [DROP_ZONE:1] grow [DROP_ZONE:2].",
		HighlightContent: "[DROP_ZONE:2]",
	})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	assert.Equal(t, clock.Unix(), p.CreatedAt)

	clock = clock.Add(time.Hour)
	p.Content = "Reefs [DROP_ZONE:1] grow."
	updated, err := s.Put(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, "Reefs [DROP_ZONE:1] grow.", updated.Content)
	assert.Equal(t, "[DROP_ZONE:2]", updated.HighlightContent)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt, "created_at survives upsert")
	assert.Equal(t, clock.Unix(), updated.UpdatedAt)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Put(ctx, Passage{Kind: KindReading})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSQLStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	clock := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	r, err := s.Put(ctx, Passage{Kind: KindReading, Title: "Volcanoes", Content: "[DROP_ZONE:1] [DROP_ZONE:2] [DROP_ZONE:1]"})
	require.NoError(t, err)
	l, err := s.Put(ctx, Passage{Kind: KindListening, Title: "Library tour"})
	require.NoError(t, err)

	all, err := s.List(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, l.ID, all[0].ID, "newest first")
	assert.Equal(t, 2, all[1].ZoneCount)

	got, err := s.List(ctx, ListOpts{Kind: KindReading, Q: "VOLC"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)

	got, err = s.List(ctx, ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)

	require.NoError(t, s.Delete(ctx, r.ID))
	assert.ErrorIs(t, s.Delete(ctx, r.ID), ErrNotFound)
}

func TestSQLStore_SetAudio(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	l, err := s.Put(ctx, Passage{Kind: KindListening, Title: "Section 3"})
	require.NoError(t, err)
	r, err := s.Put(ctx, Passage{Kind: KindReading, Title: "Text"})
	require.NoError(t, err)

	require.NoError(t, s.SetAudio(ctx, l.ID, "passages/x/audio.mp3"))
	got, err := s.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "passages/x/audio.mp3", got.AudioKey)

	assert.ErrorIs(t, s.SetAudio(ctx, r.ID, "k"), ErrNotListening)
	assert.ErrorIs(t, s.SetAudio(ctx, "missing", "k"), ErrNotFound)
}

func TestSetText_KeepsOtherFields(t *testing.T) {
	stores := map[string]Store{"sqlite": newSQLiteStore(t), "memory": NewInMemoryStore()}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p, err := s.Put(ctx, Passage{Kind: KindListening, Title: "Section 1", Content: "old"})
			require.NoError(t, err)
			require.NoError(t, s.SetAudio(ctx, p.ID, "passages/a/audio.mp3"))

			got, err := s.SetText(ctx, p.ID, zones.DualText{Primary: "[DROP_ZONE:1]", Highlight: "[DROP_ZONE:1]"})
			require.NoError(t, err)
			assert.Equal(t, "[DROP_ZONE:1]", got.Content)
			assert.Equal(t, "[DROP_ZONE:1]", got.HighlightContent)
			assert.Equal(t, "Section 1", got.Title)
			assert.Equal(t, "passages/a/audio.mp3", got.AudioKey)

			require.NoError(t, s.Delete(ctx, p.ID))
			_, err = s.SetText(ctx, p.ID, zones.DualText{Primary: "x"})
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.Get(ctx, p.ID)
			assert.ErrorIs(t, err, ErrNotFound, "deleted passage stays deleted")
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	p, err := s.Put(ctx, Passage{Kind: KindReading, Title: "Glaciers", Content: "[DROP_ZONE:1]"})
	require.NoError(t, err)

	list, err := s.List(ctx, ListOpts{Q: "glac"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ZoneCount)

	assert.ErrorIs(t, s.SetAudio(ctx, p.ID, "k"), ErrNotListening)
	require.NoError(t, s.Delete(ctx, p.ID))
	_, err = s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
