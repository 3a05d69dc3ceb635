package mgmt

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/workspace-coordinator/internal/assign"
	"github.com/p-blackswan/workspace-coordinator/internal/claim"
	coorderr "github.com/p-blackswan/workspace-coordinator/internal/errors"
	"github.com/p-blackswan/workspace-coordinator/internal/health"
	"github.com/p-blackswan/workspace-coordinator/internal/journal"
	"github.com/p-blackswan/workspace-coordinator/internal/metrics"
	"github.com/p-blackswan/workspace-coordinator/internal/session"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store     session.Store
	claims    *claim.Coordinator
	allocator *assign.Allocator
	plan      *journal.Journal
	checker   *health.Checker
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	startTime time.Time

	// DefaultFocus from the project manifest, applied when a create request
	// carries no focus tags.
	defaultFocus []string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	store session.Store,
	claims *claim.Coordinator,
	allocator *assign.Allocator,
	plan *journal.Journal,
	checker *health.Checker,
	m *metrics.Metrics,
	defaultFocus []string,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		store:        store,
		claims:       claims,
		allocator:    allocator,
		plan:         plan,
		checker:      checker,
		metrics:      m,
		logger:       logger.With().Str("component", "handlers").Logger(),
		startTime:    time.Now(),
		defaultFocus: defaultFocus,
	}
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handlers) CreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	focus := req.Focus
	if len(focus) == 0 {
		focus = h.defaultFocus
	}

	s, err := h.store.Create(req.Name, session.Options{
		Focus:        focus,
		Directories:  req.Directories,
		FilePatterns: req.FilePatterns,
		CurrentTask:  req.CurrentTask,
	})
	if err != nil {
		return h.coreError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(SessionResponse{Session: s})
}

// GetSession handles GET /api/v1/sessions/:name.
func (h *Handlers) GetSession(c *fiber.Ctx) error {
	s, err := h.store.Read(c.Params("name"))
	if err != nil {
		return h.coreError(c, err)
	}
	if s == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"session_not_found", "Not Found",
			"No session named "+c.Params("name"))
	}
	return c.JSON(SessionResponse{Session: s})
}

// ListSessions handles GET /api/v1/sessions. The status query selects
// "active" (default), "closed" or "all".
func (h *Handlers) ListSessions(c *fiber.Ctx) error {
	filter := session.ListFilter(c.Query("status", string(session.FilterActive)))
	switch filter {
	case session.FilterActive, session.FilterClosed, session.FilterAll:
	default:
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_status", "Bad Request",
			"Unknown status filter: "+string(filter))
	}

	sessions, err := h.store.List(filter)
	if err != nil {
		return h.coreError(c, err)
	}
	return c.JSON(SessionListResponse{Sessions: sessions})
}

// UpdateSession handles PATCH /api/v1/sessions/:name.
func (h *Handlers) UpdateSession(c *fiber.Ctx) error {
	var req UpdateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	s, err := h.store.Update(c.Params("name"), session.Patch{
		Focus:        req.Focus,
		Directories:  req.Directories,
		FilePatterns: req.FilePatterns,
		CurrentTask:  req.CurrentTask,
	})
	if err != nil {
		return h.coreError(c, err)
	}
	return c.JSON(SessionResponse{Session: s})
}

// CloseSession handles POST /api/v1/sessions/:name/close.
func (h *Handlers) CloseSession(c *fiber.Ctx) error {
	s, err := h.store.Close(c.Params("name"))
	if err != nil {
		return h.coreError(c, err)
	}
	return c.JSON(SessionResponse{Session: s})
}

// ClaimFile handles POST /api/v1/sessions/:name/claims.
func (h *Handlers) ClaimFile(c *fiber.Ctx) error {
	var req ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	s, err := h.claims.Claim(c.Params("name"), req.Path)
	if err != nil {
		if coorderr.IsConflict(err) {
			h.metrics.RecordClaim("conflict")
		} else {
			h.metrics.RecordClaim("error")
		}
		return h.coreError(c, err)
	}
	h.metrics.RecordClaim("granted")
	return c.JSON(SessionResponse{Session: s})
}

// ReleaseFile handles DELETE /api/v1/sessions/:name/claims.
func (h *Handlers) ReleaseFile(c *fiber.Ctx) error {
	var req ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	s, err := h.claims.Release(c.Params("name"), req.Path)
	if err != nil {
		return h.coreError(c, err)
	}
	h.metrics.RecordRelease()
	return c.JSON(SessionResponse{Session: s})
}

// GetConflicts handles GET /api/v1/conflicts. Always recomputed from the
// current active snapshot.
func (h *Handlers) GetConflicts(c *fiber.Ctx) error {
	conflicts, err := h.claims.Conflicts()
	if err != nil {
		return h.coreError(c, err)
	}
	return c.JSON(ConflictsResponse{Conflicts: conflicts})
}

// RecommendTasks handles POST /api/v1/recommendations.
func (h *Handlers) RecommendTasks(c *fiber.Ctx) error {
	var req RecommendRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if len(req.Tasks) == 0 {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_tasks", "Bad Request",
			"At least one task is required")
	}

	recs, err := h.allocator.RecommendTasks(req.Tasks)
	if err != nil {
		return h.coreError(c, err)
	}
	return c.JSON(RecommendResponse{Recommendations: recs})
}

// GetPlan handles GET /api/v1/plan.
func (h *Handlers) GetPlan(c *fiber.Ctx) error {
	plan, err := h.plan.Plan()
	if err != nil {
		return h.coreError(c, err)
	}
	return c.JSON(plan)
}

// AddPlanTask handles POST /api/v1/plan/tasks.
func (h *Handlers) AddPlanTask(c *fiber.Ctx) error {
	var req AddTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	task, err := h.plan.AddTask(req.Text, req.Assignee)
	if err != nil {
		return h.coreError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// CompletePlanTask handles POST /api/v1/plan/tasks/:id/complete.
func (h *Handlers) CompletePlanTask(c *fiber.Ctx) error {
	task, err := h.plan.CompleteTask(c.Params("id"))
	if err != nil {
		return h.coreError(c, err)
	}
	return c.JSON(task)
}

// AddPlanDecision handles POST /api/v1/plan/decisions.
func (h *Handlers) AddPlanDecision(c *fiber.Ctx) error {
	var req AddDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	dec, err := h.plan.AddDecision(req.Text, req.Rationale)
	if err != nil {
		return h.coreError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dec)
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"uptime": time.Since(h.startTime).String(),
	})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	if !h.checker.IsReady(c.Context()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// coreError maps the core's error taxonomy onto HTTP problem responses.
func (h *Handlers) coreError(c *fiber.Ctx, err error) error {
	switch {
	case coorderr.IsValidation(err):
		return problemResponse(c, fiber.StatusBadRequest,
			"validation_failed", "Bad Request", err.Error())
	case coorderr.IsNotFound(err):
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", err.Error())
	case coorderr.IsDuplicate(err):
		return problemResponse(c, fiber.StatusConflict,
			"duplicate_name", "Conflict", err.Error())
	case coorderr.IsConflict(err):
		var conflictErr *coorderr.ConflictError
		resp := ProblemDetail{
			Type:     "file_conflict",
			Title:    "Conflict",
			Status:   fiber.StatusConflict,
			Detail:   err.Error(),
			Instance: c.Path(),
		}
		if errors.As(err, &conflictErr) {
			resp.ConflictingSessions = conflictErr.Sessions
		}
		return c.Status(fiber.StatusConflict).JSON(resp)
	case coorderr.IsCorrupt(err):
		return problemResponse(c, fiber.StatusInternalServerError,
			"corrupt_record", "Internal Server Error", err.Error())
	default:
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("unexpected core error")
		return problemResponse(c, fiber.StatusInternalServerError,
			"internal_error", "Internal Server Error", "An internal error occurred")
	}
}
