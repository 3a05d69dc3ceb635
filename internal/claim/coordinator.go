// Package claim implements the advisory file-claim protocol: a claim is
// membership of a path in a session's active-files set, nothing more.
//
// The protocol is best-effort, not a mutex. The conflict check and the
// persisting write are two separate store round trips, so two processes
// claiming the same previously-unclaimed path concurrently can both observe
// "no conflict" and both succeed. The overlap surfaces at the next conflict
// computation. This is a documented property of the design, not a bug:
// callers that need hard guarantees must serialize externally.
package claim

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/workspace-coordinator/internal/conflict"
	coorderr "github.com/p-blackswan/workspace-coordinator/internal/errors"
	"github.com/p-blackswan/workspace-coordinator/internal/session"
)

// Coordinator mediates file claims between sessions.
type Coordinator struct {
	store  session.Store
	logger zerolog.Logger
}

// New creates a coordinator over the given store.
func New(store session.Store, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		logger: logger.With().Str("component", "claim").Logger(),
	}
}

// Claim records sessionName as the advisory editor of path. Claiming a path
// the session already holds is a success no-op. If another active session
// holds the path, Claim fails with a ConflictError listing the claimants and
// performs no mutation.
func (c *Coordinator) Claim(sessionName, path string) (*session.Session, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &coorderr.ValidationError{Field: "path", Reason: "must not be empty"}
	}

	s, err := c.store.Read(sessionName)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &coorderr.NotFoundError{Kind: "session", Name: sessionName}
	}
	if s.HasFile(path) {
		return s, nil
	}

	// Snapshot all active sessions and check the path against everyone
	// else's claims. Closed sessions are history and never conflict.
	active, err := c.store.List(session.FilterActive)
	if err != nil {
		return nil, err
	}
	if others := conflict.Claimants(active, path, s.Name); len(others) > 0 {
		c.logger.Info().
			Str("session", s.Name).
			Str("path", path).
			Strs("claimed_by", others).
			Msg("claim rejected")
		return nil, &coorderr.ConflictError{Path: path, Sessions: others}
	}

	files := append(append([]string(nil), s.ActiveFiles...), path)
	updated, err := c.store.Update(s.Name, session.Patch{ActiveFiles: &files})
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("session", s.Name).Str("path", path).Msg("claim granted")
	return updated, nil
}

// Release removes path from the session's claims. Releasing a path the
// session does not hold is a success no-op.
func (c *Coordinator) Release(sessionName, path string) (*session.Session, error) {
	s, err := c.store.Read(sessionName)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &coorderr.NotFoundError{Kind: "session", Name: sessionName}
	}
	if !s.HasFile(path) {
		return s, nil
	}

	files := make([]string, 0, len(s.ActiveFiles)-1)
	for _, f := range s.ActiveFiles {
		if f != path {
			files = append(files, f)
		}
	}
	updated, err := c.store.Update(s.Name, session.Patch{ActiveFiles: &files})
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("session", s.Name).Str("path", path).Msg("claim released")
	return updated, nil
}

// Conflicts snapshots all active sessions and returns the current claim
// overlaps. Recomputed on every call; never cached or persisted.
func (c *Coordinator) Conflicts() ([]conflict.Conflict, error) {
	active, err := c.store.List(session.FilterActive)
	if err != nil {
		return nil, err
	}
	return conflict.Detect(active), nil
}
