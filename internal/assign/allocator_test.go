package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/workspace-coordinator/internal/session"
)

func sess(name string, focus []string, files ...string) *session.Session {
	return &session.Session{
		Name:        name,
		Status:      session.StatusActive,
		Focus:       focus,
		ActiveFiles: files,
	}
}

func TestRecommendFocusMatchBeatsWorkload(t *testing.T) {
	sessions := []*session.Session{
		sess("backend", []string{"api"}),
		sess("frontend", []string{"ui"}, "src/app.tsx"),
	}

	recs := Recommend([]string{"fix the ui layout", "add api endpoint"}, sessions)
	require.Len(t, recs, 2)

	assert.Equal(t, "frontend", recs[0].Session)
	assert.Equal(t, 9, recs[0].Score, "10 for focus match minus workload 1")
	assert.Equal(t, ReasonFocusMatch, recs[0].Reason)

	assert.Equal(t, "backend", recs[1].Session)
	assert.Equal(t, 10, recs[1].Score)
	assert.Equal(t, ReasonFocusMatch, recs[1].Reason)
}

func TestRecommendMatchIsCaseInsensitiveSubstring(t *testing.T) {
	sessions := []*session.Session{
		sess("frontend", []string{"CSS"}),
	}
	recs := Recommend([]string{"tweak css variables"}, sessions)
	require.Len(t, recs, 1)
	assert.Equal(t, ReasonFocusMatch, recs[0].Reason)
	assert.Equal(t, 10, recs[0].Score)
}

func TestRecommendNoMatchFallsBackToLowestWorkload(t *testing.T) {
	sessions := []*session.Session{
		sess("busy", []string{"ui"}, "a.go", "b.go"),
		sess("idle", []string{"api"}),
	}
	recs := Recommend([]string{"write documentation"}, sessions)
	require.Len(t, recs, 1)
	assert.Equal(t, "idle", recs[0].Session)
	assert.Equal(t, 0, recs[0].Score)
	assert.Equal(t, ReasonLowestWorkload, recs[0].Reason)
}

func TestRecommendTieGoesToFirstInOrder(t *testing.T) {
	sessions := []*session.Session{
		sess("alpha", nil),
		sess("beta", nil),
	}
	recs := Recommend([]string{"anything"}, sessions)
	require.Len(t, recs, 1)
	assert.Equal(t, "alpha", recs[0].Session)
}

func TestRecommendNoSessions(t *testing.T) {
	recs := Recommend([]string{"orphan task"}, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, AnySession, recs[0].Session)
	assert.Equal(t, ReasonLowestWorkload, recs[0].Reason)
}

func TestRecommendTasksIndependently(t *testing.T) {
	sessions := []*session.Session{
		sess("frontend", []string{"ui"}),
	}
	recs := Recommend([]string{"ui pass one", "ui pass two"}, sessions)
	require.Len(t, recs, 2)
	// Recommending a task does not consume capacity; both land on frontend.
	assert.Equal(t, "frontend", recs[0].Session)
	assert.Equal(t, "frontend", recs[1].Session)
	assert.Equal(t, recs[0].Score, recs[1].Score)
}

func TestRecommendSkipsEmptyFocusTags(t *testing.T) {
	sessions := []*session.Session{
		sess("odd", []string{""}),
	}
	recs := Recommend([]string{"anything at all"}, sessions)
	require.Len(t, recs, 1)
	assert.Equal(t, ReasonLowestWorkload, recs[0].Reason)
	assert.Equal(t, 0, recs[0].Score)
}

func TestRecommendNegativeScorePossible(t *testing.T) {
	sessions := []*session.Session{
		sess("loaded", nil, "a.go", "b.go", "c.go"),
	}
	recs := Recommend([]string{"unrelated"}, sessions)
	require.Len(t, recs, 1)
	assert.Equal(t, -3, recs[0].Score)
	assert.Equal(t, ReasonLowestWorkload, recs[0].Reason)
}

func TestAllocatorUsesStoreListingOrder(t *testing.T) {
	store := session.NewMemoryStore()
	_, err := store.Create("zeta", session.Options{})
	require.NoError(t, err)
	_, err = store.Create("alpha", session.Options{})
	require.NoError(t, err)

	a := NewAllocator(store)
	recs, err := a.RecommendTasks([]string{"tie-breaking task"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	// Lexicographic listing order makes the tie-break deterministic.
	assert.Equal(t, "alpha", recs[0].Session)
}

func TestAllocatorIgnoresClosedSessions(t *testing.T) {
	store := session.NewMemoryStore()
	_, err := store.Create("gone", session.Options{Focus: []string{"ui"}})
	require.NoError(t, err)
	_, err = store.Close("gone")
	require.NoError(t, err)

	a := NewAllocator(store)
	recs, err := a.RecommendTasks([]string{"ui work"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, AnySession, recs[0].Session)
}
