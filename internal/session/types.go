// Package session implements the durable registry of contributor sessions:
// who is working, what they focus on, and which files they have claimed.
package session

import "time"

// Status is the lifecycle state of a session. Closed is terminal: closed
// sessions drop out of active listings and conflict computation but stay on
// disk as history.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusClosed
}

// Session is one contributor's persisted declaration of active work scope.
// The stored record is the sole source of truth for the session's state; any
// aggregate (conflict map, summary file) is recomputed on demand, never
// persisted as ground truth.
type Session struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"last_active"`

	// Focus tags describe specialization and drive task allocation.
	Focus []string `json:"focus"`

	// Directories and FilePatterns are informational scope hints, not
	// enforced by the claim protocol.
	Directories  []string `json:"directories"`
	FilePatterns []string `json:"file_patterns"`

	CurrentTask *string `json:"current_task"`

	// ActiveFiles is the session's set of advisory claims. Membership of a
	// path here is the claim; there is no separate lock entity.
	ActiveFiles []string `json:"active_files"`
	LockedFiles []string `json:"locked_files"`

	Status Status     `json:"status"`
	Closed *time.Time `json:"closed,omitempty"`
}

// HasFile reports whether path is among the session's claims.
func (s *Session) HasFile(path string) bool {
	for _, f := range s.ActiveFiles {
		if f == path {
			return true
		}
	}
	return false
}

// Workload is the number of files the session currently claims. Used as the
// allocation penalty.
func (s *Session) Workload() int {
	return len(s.ActiveFiles)
}

// Clone returns a deep copy, so callers can hand records across goroutines
// without aliasing the store's state.
func (s *Session) Clone() *Session {
	c := *s
	c.Focus = append([]string(nil), s.Focus...)
	c.Directories = append([]string(nil), s.Directories...)
	c.FilePatterns = append([]string(nil), s.FilePatterns...)
	c.ActiveFiles = append([]string(nil), s.ActiveFiles...)
	c.LockedFiles = append([]string(nil), s.LockedFiles...)
	if s.CurrentTask != nil {
		task := *s.CurrentTask
		c.CurrentTask = &task
	}
	if s.Closed != nil {
		closed := *s.Closed
		c.Closed = &closed
	}
	return &c
}

// Options carries the caller-supplied fields for Create. Absent fields
// default to empty.
type Options struct {
	Focus        []string
	Directories  []string
	FilePatterns []string
	CurrentTask  *string
}

// Patch is a shallow merge applied by Update. Nil fields are left untouched;
// setting CurrentTask to the empty string clears it.
type Patch struct {
	Focus        *[]string
	Directories  *[]string
	FilePatterns *[]string
	CurrentTask  *string
	ActiveFiles  *[]string
	LockedFiles  *[]string
	Status       *Status
	Closed       *time.Time
}

func (p Patch) apply(s *Session) {
	if p.Focus != nil {
		s.Focus = append([]string(nil), *p.Focus...)
	}
	if p.Directories != nil {
		s.Directories = append([]string(nil), *p.Directories...)
	}
	if p.FilePatterns != nil {
		s.FilePatterns = append([]string(nil), *p.FilePatterns...)
	}
	if p.CurrentTask != nil {
		if *p.CurrentTask == "" {
			s.CurrentTask = nil
		} else {
			task := *p.CurrentTask
			s.CurrentTask = &task
		}
	}
	if p.ActiveFiles != nil {
		s.ActiveFiles = dedupe(*p.ActiveFiles)
	}
	if p.LockedFiles != nil {
		s.LockedFiles = dedupe(*p.LockedFiles)
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Closed != nil {
		closed := *p.Closed
		s.Closed = &closed
	}
}

// dedupe preserves first-occurrence order. ActiveFiles must never hold
// duplicates, whatever the caller sends.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Summary is the aggregate record collaborators poll instead of scanning
// every session file. It is rewritten after any mutation that changes
// membership and is never read back as ground truth.
type Summary struct {
	Updated        time.Time `json:"updated"`
	ActiveSessions []string  `json:"active_sessions"`
	ProjectRoot    string    `json:"project_root"`
}
