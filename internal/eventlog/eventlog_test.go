package eventlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/ielts-studio/internal/db"
)

func TestRepo_AppendList(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	r := NewRepo(dbh)

	require.NoError(t, r.Append(ctx, NewEvent("alice", TypeZoneRemoved, "p1", map[string]int{"removed": 2})))
	require.NoError(t, r.Append(ctx, NewEvent("alice", TypePassageSaved, "p1", map[string]any{"zones": []int{1}})))
	require.NoError(t, r.Append(ctx, NewEvent("bob", TypePassageSaved, "p2", nil)))

	got, err := r.List(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, TypePassageSaved, got[0].Type, "newest first")
	assert.Equal(t, TypeZoneRemoved, got[1].Type)
	assert.JSONEq(t, `{"removed":2}`, got[1].DataJSON)
	assert.Greater(t, got[0].Offset, got[1].Offset)

	got, err = r.List(ctx, "p1", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	e := NewEvent("a", TypePassageSaved, "k", make(chan int))
	assert.Equal(t, "{}", e.DataJSON)
}
