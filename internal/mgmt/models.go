// Package mgmt provides the management HTTP API over the coordination core.
// It is a thin, polling-only presentation: dashboards and journaling layers
// consume these endpoints, the core never pushes.
package mgmt

import (
	"github.com/p-blackswan/workspace-coordinator/internal/assign"
	"github.com/p-blackswan/workspace-coordinator/internal/conflict"
	"github.com/p-blackswan/workspace-coordinator/internal/session"
)

// ProblemDetail is an RFC 7807 error response body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`

	// ConflictingSessions is set on claim conflicts so callers can react
	// programmatically instead of parsing the detail string.
	ConflictingSessions []string `json:"conflicting_sessions,omitempty"`
}

// CreateSessionRequest is the payload for POST /api/v1/sessions.
type CreateSessionRequest struct {
	Name         string   `json:"name"`
	Focus        []string `json:"focus,omitempty"`
	Directories  []string `json:"directories,omitempty"`
	FilePatterns []string `json:"file_patterns,omitempty"`
	CurrentTask  *string  `json:"current_task,omitempty"`
}

// UpdateSessionRequest is the payload for PATCH /api/v1/sessions/:name.
// Absent fields are left untouched.
type UpdateSessionRequest struct {
	Focus        *[]string `json:"focus,omitempty"`
	Directories  *[]string `json:"directories,omitempty"`
	FilePatterns *[]string `json:"file_patterns,omitempty"`
	CurrentTask  *string   `json:"current_task,omitempty"`
}

// ClaimRequest is the payload for claim and release calls.
type ClaimRequest struct {
	Path string `json:"path"`
}

// RecommendRequest is the payload for POST /api/v1/recommendations.
type RecommendRequest struct {
	Tasks []string `json:"tasks"`
}

// SessionResponse wraps a single session record.
type SessionResponse struct {
	Session *session.Session `json:"session"`
}

// SessionListResponse wraps a session listing.
type SessionListResponse struct {
	Sessions []*session.Session `json:"sessions"`
}

// ConflictsResponse wraps the current conflict computation.
type ConflictsResponse struct {
	Conflicts []conflict.Conflict `json:"conflicts"`
}

// RecommendResponse wraps task recommendations.
type RecommendResponse struct {
	Recommendations []assign.Recommendation `json:"recommendations"`
}

// AddTaskRequest is the payload for POST /api/v1/plan/tasks.
type AddTaskRequest struct {
	Text     string `json:"text"`
	Assignee string `json:"assignee,omitempty"`
}

// AddDecisionRequest is the payload for POST /api/v1/plan/decisions.
type AddDecisionRequest struct {
	Text      string `json:"text"`
	Rationale string `json:"rationale,omitempty"`
}
