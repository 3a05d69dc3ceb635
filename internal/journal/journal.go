// Package journal keeps the shared masterplan: a persistent log of tasks and
// decisions that collaborators record alongside the session registry. The
// plan is stored as JSON (same atomic rename protocol as session records)
// with a rendered markdown view for humans.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/workspace-coordinator/internal/atomicfile"
	coorderr "github.com/p-blackswan/workspace-coordinator/internal/errors"
)

const (
	planFile     = "masterplan.json"
	markdownFile = "masterplan.md"
)

// Task is one unit of planned work.
type Task struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Assignee string    `json:"assignee,omitempty"`
	Done     bool      `json:"done"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// Decision is a recorded choice with its rationale.
type Decision struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Rationale string    `json:"rationale,omitempty"`
	Created   time.Time `json:"created"`
}

// Plan is the full masterplan document.
type Plan struct {
	Updated   time.Time  `json:"updated"`
	Tasks     []Task     `json:"tasks"`
	Decisions []Decision `json:"decisions"`
}

// Journal persists the masterplan under a directory.
type Journal struct {
	mu     sync.Mutex
	dir    string
	logger zerolog.Logger
}

// New creates the journal directory if needed.
func New(dir string, logger zerolog.Logger) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	return &Journal{
		dir:    dir,
		logger: logger.With().Str("component", "journal").Logger(),
	}, nil
}

// AddTask appends a task to the plan.
func (j *Journal) AddTask(text, assignee string) (*Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &coorderr.ValidationError{Field: "task", Reason: "must not be empty"}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	plan, err := j.load()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	task := Task{
		ID:       uuid.New().String(),
		Text:     strings.TrimSpace(text),
		Assignee: assignee,
		Created:  now,
		Updated:  now,
	}
	plan.Tasks = append(plan.Tasks, task)
	if err := j.save(plan); err != nil {
		return nil, err
	}
	return &task, nil
}

// CompleteTask marks the task with the given id as done.
func (j *Journal) CompleteTask(id string) (*Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &coorderr.ValidationError{Field: "task_id", Reason: "must not be empty"}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	plan, err := j.load()
	if err != nil {
		return nil, err
	}
	for i := range plan.Tasks {
		if plan.Tasks[i].ID == id {
			plan.Tasks[i].Done = true
			plan.Tasks[i].Updated = time.Now().UTC()
			if err := j.save(plan); err != nil {
				return nil, err
			}
			task := plan.Tasks[i]
			return &task, nil
		}
	}
	return nil, &coorderr.NotFoundError{Kind: "task", Name: id}
}

// AddDecision appends a decision to the plan.
func (j *Journal) AddDecision(text, rationale string) (*Decision, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &coorderr.ValidationError{Field: "decision", Reason: "must not be empty"}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	plan, err := j.load()
	if err != nil {
		return nil, err
	}
	dec := Decision{
		ID:        uuid.New().String(),
		Text:      strings.TrimSpace(text),
		Rationale: rationale,
		Created:   time.Now().UTC(),
	}
	plan.Decisions = append(plan.Decisions, dec)
	if err := j.save(plan); err != nil {
		return nil, err
	}
	return &dec, nil
}

// Plan returns the current masterplan.
func (j *Journal) Plan() (*Plan, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.load()
}

func (j *Journal) load() (*Plan, error) {
	data, err := os.ReadFile(filepath.Join(j.dir, planFile))
	if errors.Is(err, os.ErrNotExist) {
		return &Plan{Tasks: []Task{}, Decisions: []Decision{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read masterplan: %w", err)
	}
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, &coorderr.CorruptRecordError{Name: planFile, Err: err}
	}
	if plan.Tasks == nil {
		plan.Tasks = []Task{}
	}
	if plan.Decisions == nil {
		plan.Decisions = []Decision{}
	}
	return &plan, nil
}

func (j *Journal) save(plan *Plan) error {
	plan.Updated = time.Now().UTC()
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal masterplan: %w", err)
	}
	if err := atomicfile.WriteFile(filepath.Join(j.dir, planFile), data, 0o644); err != nil {
		return err
	}
	// The markdown view is derived; a failed render never fails the write.
	md := renderMarkdown(plan)
	if err := atomicfile.WriteFile(filepath.Join(j.dir, markdownFile), []byte(md), 0o644); err != nil {
		j.logger.Warn().Err(err).Msg("masterplan markdown render failed")
	}
	return nil
}

func renderMarkdown(plan *Plan) string {
	var b strings.Builder
	b.WriteString("# Masterplan\n\n")
	fmt.Fprintf(&b, "_Updated: %s_\n\n", plan.Updated.Format(time.RFC3339))

	b.WriteString("## Tasks\n\n")
	if len(plan.Tasks) == 0 {
		b.WriteString("_none_\n")
	}
	for _, t := range plan.Tasks {
		mark := " "
		if t.Done {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s", mark, t.Text)
		if t.Assignee != "" {
			fmt.Fprintf(&b, " (%s)", t.Assignee)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Decisions\n\n")
	if len(plan.Decisions) == 0 {
		b.WriteString("_none_\n")
	}
	for _, d := range plan.Decisions {
		fmt.Fprintf(&b, "- %s", d.Text)
		if d.Rationale != "" {
			fmt.Fprintf(&b, " (%s)", d.Rationale)
		}
		b.WriteString("\n")
	}
	return b.String()
}
