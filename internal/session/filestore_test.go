package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coorderr "github.com/p-blackswan/workspace-coordinator/internal/errors"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir(), "/work/project", zerolog.Nop())
	require.NoError(t, err)
	return fs
}

func TestFileStoreCreateAndRead(t *testing.T) {
	fs := newTestFileStore(t)

	task := "wire up login"
	created, err := fs.Create("frontend", Options{
		Focus:        []string{"ui", "css"},
		Directories:  []string{"web/"},
		FilePatterns: []string{"*.tsx"},
		CurrentTask:  &task,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "frontend", created.Name)
	assert.Equal(t, StatusActive, created.Status)
	assert.Empty(t, created.ActiveFiles)
	assert.NotNil(t, created.ActiveFiles)
	assert.False(t, created.Created.IsZero())

	got, err := fs.Read("frontend")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, []string{"ui", "css"}, got.Focus)
	require.NotNil(t, got.CurrentTask)
	assert.Equal(t, task, *got.CurrentTask)
}

func TestFileStoreReadMissingReturnsNil(t *testing.T) {
	fs := newTestFileStore(t)

	got, err := fs.Read("ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStoreCreateDuplicateLeavesOriginalUntouched(t *testing.T) {
	fs := newTestFileStore(t)

	first, err := fs.Create("backend", Options{Focus: []string{"api"}})
	require.NoError(t, err)

	_, err = fs.Create("backend", Options{Focus: []string{"other"}})
	assert.True(t, coorderr.IsDuplicate(err))

	got, err := fs.Read("backend")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, []string{"api"}, got.Focus)
}

func TestFileStoreCreateDuplicateAfterSanitization(t *testing.T) {
	fs := newTestFileStore(t)

	_, err := fs.Create("team/alpha", Options{})
	require.NoError(t, err)

	_, err = fs.Create("team:alpha", Options{})
	assert.True(t, coorderr.IsDuplicate(err))
}

func TestFileStoreUpdateMergesAndStampsLastActive(t *testing.T) {
	fs := newTestFileStore(t)

	created, err := fs.Create("backend", Options{Focus: []string{"api"}, Directories: []string{"srv/"}})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	task := "refactor auth"
	focus := []string{"api", "db"}
	updated, err := fs.Update("backend", Patch{Focus: &focus, CurrentTask: &task})
	require.NoError(t, err)

	assert.Equal(t, []string{"api", "db"}, updated.Focus)
	assert.Equal(t, []string{"srv/"}, updated.Directories, "untouched field survives")
	require.NotNil(t, updated.CurrentTask)
	assert.Equal(t, task, *updated.CurrentTask)
	assert.True(t, updated.LastActive.After(created.LastActive))

	// Empty string clears the current task.
	empty := ""
	updated, err = fs.Update("backend", Patch{CurrentTask: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.CurrentTask)
}

func TestFileStoreUpdateMissingIsNotFound(t *testing.T) {
	fs := newTestFileStore(t)

	_, err := fs.Update("ghost", Patch{})
	assert.True(t, coorderr.IsNotFound(err))
}

func TestFileStoreUpdateDedupesActiveFiles(t *testing.T) {
	fs := newTestFileStore(t)

	_, err := fs.Create("backend", Options{})
	require.NoError(t, err)

	files := []string{"a.go", "b.go", "a.go"}
	updated, err := fs.Update("backend", Patch{ActiveFiles: &files})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.go"}, updated.ActiveFiles)
}

func TestFileStoreListLexicographicOrder(t *testing.T) {
	fs := newTestFileStore(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := fs.Create(name, Options{})
		require.NoError(t, err)
	}

	sessions, err := fs.List(FilterActive)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "alpha", sessions[0].Name)
	assert.Equal(t, "mid", sessions[1].Name)
	assert.Equal(t, "zeta", sessions[2].Name)
}

func TestFileStoreListSkipsCorruptRecords(t *testing.T) {
	fs := newTestFileStore(t)

	_, err := fs.Create("good", Options{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(fs.Dir(), "bad.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(fs.Dir(), "hollow.json"), []byte(`{"status":"active"}`), 0o644))

	sessions, err := fs.List(FilterActive)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "good", sessions[0].Name)
}

func TestFileStoreReadCorruptRecordFails(t *testing.T) {
	fs := newTestFileStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(fs.Dir(), "broken.json"), []byte("{{{"), 0o644))

	_, err := fs.Read("broken")
	assert.True(t, coorderr.IsCorrupt(err))
}

func TestFileStoreCloseClearsClaimsAndLeavesHistory(t *testing.T) {
	fs := newTestFileStore(t)

	_, err := fs.Create("backend", Options{})
	require.NoError(t, err)
	files := []string{"a.go", "b.go"}
	_, err = fs.Update("backend", Patch{ActiveFiles: &files})
	require.NoError(t, err)

	closed, err := fs.Close("backend")
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)
	assert.Empty(t, closed.ActiveFiles)
	require.NotNil(t, closed.Closed)

	active, err := fs.List(FilterActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := fs.List(FilterAll)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, StatusClosed, all[0].Status)
}

func TestFileStoreSummaryTracksMembership(t *testing.T) {
	fs := newTestFileStore(t)

	_, err := fs.Create("alpha", Options{})
	require.NoError(t, err)
	_, err = fs.Create("beta", Options{})
	require.NoError(t, err)

	readSummary := func() Summary {
		data, err := os.ReadFile(filepath.Join(fs.Dir(), "summary.json"))
		require.NoError(t, err)
		var sum Summary
		require.NoError(t, json.Unmarshal(data, &sum))
		return sum
	}

	sum := readSummary()
	assert.Equal(t, []string{"alpha", "beta"}, sum.ActiveSessions)
	assert.Equal(t, "/work/project", sum.ProjectRoot)

	_, err = fs.Close("alpha")
	require.NoError(t, err)

	sum = readSummary()
	assert.Equal(t, []string{"beta"}, sum.ActiveSessions)
}

func TestFileStoreSummaryNotListedAsSession(t *testing.T) {
	fs := newTestFileStore(t)

	_, err := fs.Create("only", Options{})
	require.NoError(t, err)

	sessions, err := fs.List(FilterAll)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "only", sessions[0].Name)
}
