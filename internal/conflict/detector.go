// Package conflict computes claim conflicts over a snapshot of sessions.
// Pure computation: nothing here touches the store, so results are exactly
// as fresh as the snapshot passed in.
package conflict

import (
	"sort"

	"github.com/p-blackswan/workspace-coordinator/internal/session"
)

// Conflict is one path claimed by two or more distinct sessions.
type Conflict struct {
	Path     string   `json:"path"`
	Sessions []string `json:"sessions"`
}

// Detect builds an inverted index mapping each claimed path to the sessions
// claiming it and returns one entry per path with two or more distinct
// claimants. Entries are sorted by path; claimant order follows the input
// session order, so the result is deterministic given the snapshot.
func Detect(sessions []*session.Session) []Conflict {
	index := invert(sessions)

	paths := make([]string, 0, len(index))
	for path, claimants := range index {
		if len(claimants) > 1 {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	conflicts := make([]Conflict, 0, len(paths))
	for _, path := range paths {
		conflicts = append(conflicts, Conflict{Path: path, Sessions: index[path]})
	}
	return conflicts
}

// Claimants returns the names of sessions other than self that claim path.
func Claimants(sessions []*session.Session, path, self string) []string {
	var names []string
	for _, s := range sessions {
		if s.Name == self {
			continue
		}
		if s.HasFile(path) {
			names = append(names, s.Name)
		}
	}
	return names
}

func invert(sessions []*session.Session) map[string][]string {
	index := make(map[string][]string)
	for _, s := range sessions {
		seen := make(map[string]struct{}, len(s.ActiveFiles))
		for _, path := range s.ActiveFiles {
			// A session's own duplicate claim counts once.
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			index[path] = append(index[path], s.Name)
		}
	}
	return index
}
