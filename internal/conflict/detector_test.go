package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/workspace-coordinator/internal/session"
)

func sess(name string, files ...string) *session.Session {
	return &session.Session{
		Name:        name,
		Status:      session.StatusActive,
		ActiveFiles: files,
	}
}

func TestDetectNoOverlap(t *testing.T) {
	conflicts := Detect([]*session.Session{
		sess("a", "x.go"),
		sess("b", "y.go"),
	})
	assert.Empty(t, conflicts)
}

func TestDetectSingleOverlap(t *testing.T) {
	conflicts := Detect([]*session.Session{
		sess("frontend", "src/app.css", "src/app.tsx"),
		sess("backend", "src/app.css", "srv/main.go"),
	})
	require.Len(t, conflicts, 1)
	assert.Equal(t, "src/app.css", conflicts[0].Path)
	assert.Equal(t, []string{"frontend", "backend"}, conflicts[0].Sessions)
}

func TestDetectIsSymmetric(t *testing.T) {
	a := sess("a", "shared.go")
	b := sess("b", "shared.go")

	forward := Detect([]*session.Session{a, b})
	reverse := Detect([]*session.Session{b, a})

	require.Len(t, forward, 1)
	require.Len(t, reverse, 1)
	assert.ElementsMatch(t, forward[0].Sessions, reverse[0].Sessions)
}

func TestDetectSortsByPath(t *testing.T) {
	conflicts := Detect([]*session.Session{
		sess("a", "z.go", "a.go", "m.go"),
		sess("b", "z.go", "a.go", "m.go"),
	})
	require.Len(t, conflicts, 3)
	assert.Equal(t, "a.go", conflicts[0].Path)
	assert.Equal(t, "m.go", conflicts[1].Path)
	assert.Equal(t, "z.go", conflicts[2].Path)
}

func TestDetectThreeWayOverlap(t *testing.T) {
	conflicts := Detect([]*session.Session{
		sess("a", "hot.go"),
		sess("b", "hot.go"),
		sess("c", "hot.go"),
	})
	require.Len(t, conflicts, 1)
	assert.Equal(t, []string{"a", "b", "c"}, conflicts[0].Sessions)
}

func TestDetectOwnDuplicateClaimIsNotConflict(t *testing.T) {
	conflicts := Detect([]*session.Session{
		sess("a", "x.go", "x.go"),
	})
	assert.Empty(t, conflicts)
}

func TestDetectEmptyInput(t *testing.T) {
	assert.Empty(t, Detect(nil))
	assert.Empty(t, Detect([]*session.Session{}))
}

func TestClaimantsExcludesSelf(t *testing.T) {
	sessions := []*session.Session{
		sess("a", "x.go"),
		sess("b", "x.go"),
		sess("c", "y.go"),
	}
	assert.Equal(t, []string{"b"}, Claimants(sessions, "x.go", "a"))
	assert.Empty(t, Claimants(sessions, "y.go", "c"))
	assert.Equal(t, []string{"a", "b"}, Claimants(sessions, "x.go", "c"))
}
