// Package assign scores sessions against free-text task descriptions and
// suggests which session should take which task.
package assign

import (
	"strings"

	"github.com/p-blackswan/workspace-coordinator/internal/session"
)

const focusMatchScore = 10

// AnySession is recommended when no session exists to take a task.
const AnySession = "any"

// Reasons attached to recommendations.
const (
	ReasonFocusMatch     = "focus_match"
	ReasonLowestWorkload = "lowest_workload"
)

// Recommendation pairs a task with the session best placed to take it.
type Recommendation struct {
	Task    string `json:"task"`
	Session string `json:"session"`
	Score   int    `json:"score"`
	Reason  string `json:"reason"`
}

// Recommend processes each task independently and in input order. A session
// scores 10 when any of its focus tags appears case-insensitively as a
// substring of the task text, minus its workload (claimed file count). The
// strictly highest score wins; ties go to the first session enumerated, so
// the caller must pass sessions in the store's deterministic listing order
// for allocation to be reproducible.
func Recommend(tasks []string, sessions []*session.Session) []Recommendation {
	recs := make([]Recommendation, 0, len(tasks))
	for _, task := range tasks {
		recs = append(recs, recommendOne(task, sessions))
	}
	return recs
}

func recommendOne(task string, sessions []*session.Session) Recommendation {
	if len(sessions) == 0 {
		return Recommendation{Task: task, Session: AnySession, Reason: ReasonLowestWorkload}
	}

	taskLower := strings.ToLower(task)
	best := sessions[0]
	bestScore := score(taskLower, sessions[0])
	for _, s := range sessions[1:] {
		if sc := score(taskLower, s); sc > bestScore {
			best, bestScore = s, sc
		}
	}

	reason := ReasonLowestWorkload
	if bestScore > 0 {
		reason = ReasonFocusMatch
	}
	return Recommendation{Task: task, Session: best.Name, Score: bestScore, Reason: reason}
}

func score(taskLower string, s *session.Session) int {
	sc := -s.Workload()
	for _, tag := range s.Focus {
		if tag == "" {
			continue
		}
		if strings.Contains(taskLower, strings.ToLower(tag)) {
			sc += focusMatchScore
			break
		}
	}
	return sc
}

// Allocator reads the store's active listing and recommends assignments.
type Allocator struct {
	store session.Store
}

// NewAllocator creates an allocator over the given store.
func NewAllocator(store session.Store) *Allocator {
	return &Allocator{store: store}
}

// RecommendTasks snapshots the active sessions and scores the tasks against
// them. The store's lexicographic listing order makes tie-breaking stable
// across runs.
func (a *Allocator) RecommendTasks(tasks []string) ([]Recommendation, error) {
	active, err := a.store.List(session.FilterActive)
	if err != nil {
		return nil, err
	}
	return Recommend(tasks, active), nil
}
