package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/workspace-coordinator/internal/atomicfile"
	coorderr "github.com/p-blackswan/workspace-coordinator/internal/errors"
)

const (
	recordExt   = ".json"
	summaryFile = "summary.json"
	recordPerm  = 0o644
)

// FileStore persists one JSON document per session in a shared directory.
// Every mutation serializes the full record and renames it into place via a
// same-directory temp file, so a reader never observes a partial record. The
// rename is the only cross-process synchronization primitive in play: there
// is no locking across writers.
type FileStore struct {
	dir         string
	projectRoot string
	logger      zerolog.Logger
}

// NewFileStore opens (or creates) the session-records directory.
func NewFileStore(dir, projectRoot string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStore{
		dir:         dir,
		projectRoot: projectRoot,
		logger:      logger.With().Str("component", "session.filestore").Logger(),
	}, nil
}

// Dir returns the records directory.
func (fs *FileStore) Dir() string { return fs.dir }

func (fs *FileStore) recordPath(key string) string {
	return filepath.Join(fs.dir, key+recordExt)
}

// Create persists a fresh active record for the sanitized name.
func (fs *FileStore) Create(name string, opts Options) (*Session, error) {
	key, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(fs.recordPath(key)); err == nil {
		return nil, &coorderr.DuplicateError{Name: key}
	}

	now := time.Now().UTC()
	s := &Session{
		ID:           uuid.New().String(),
		Name:         key,
		Created:      now,
		LastActive:   now,
		Focus:        emptyIfNil(opts.Focus),
		Directories:  emptyIfNil(opts.Directories),
		FilePatterns: emptyIfNil(opts.FilePatterns),
		CurrentTask:  opts.CurrentTask,
		ActiveFiles:  []string{},
		LockedFiles:  []string{},
		Status:       StatusActive,
	}
	if err := fs.writeRecord(s); err != nil {
		return nil, err
	}
	fs.rewriteSummary()
	fs.logger.Info().Str("session", key).Str("id", s.ID).Msg("session created")
	return s, nil
}

// Read returns the record for the sanitized name, or (nil, nil) when absent.
func (fs *FileStore) Read(name string) (*Session, error) {
	key, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}
	return fs.readRecord(key)
}

// Update merges patch into the stored record and persists atomically.
func (fs *FileStore) Update(name string, patch Patch) (*Session, error) {
	key, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}
	s, err := fs.readRecord(key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &coorderr.NotFoundError{Kind: "session", Name: key}
	}

	patch.apply(s)
	s.LastActive = time.Now().UTC()
	if err := fs.writeRecord(s); err != nil {
		return nil, err
	}
	if patch.Status != nil {
		fs.rewriteSummary()
	}
	return s, nil
}

// List enumerates records in lexicographic name order. A record that fails
// to parse is skipped and logged; one bad file must not take down the whole
// listing. The deterministic order matters: allocation tie-breaking depends
// on it.
func (fs *FileStore) List(filter ListFilter) ([]*Session, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("list session directory: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == summaryFile || !strings.HasSuffix(name, recordExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, recordExt))
	}
	sort.Strings(keys)

	sessions := make([]*Session, 0, len(keys))
	for _, key := range keys {
		s, err := fs.readRecord(key)
		if err != nil {
			fs.logger.Warn().Err(err).Str("session", key).Msg("skipping unreadable session record")
			continue
		}
		if s == nil {
			// Deleted between the directory scan and the read.
			continue
		}
		if filter.matches(s.Status) {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// Close transitions the session to closed and clears its claims.
func (fs *FileStore) Close(name string) (*Session, error) {
	now := time.Now().UTC()
	closed := StatusClosed
	none := []string{}
	return fs.Update(name, Patch{
		Status:      &closed,
		ActiveFiles: &none,
		LockedFiles: &none,
		Closed:      &now,
	})
}

func (fs *FileStore) readRecord(key string) (*Session, error) {
	data, err := os.ReadFile(fs.recordPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", key, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &coorderr.CorruptRecordError{Name: key, Err: err}
	}
	// Reject unexpected shapes at the boundary instead of trusting whatever
	// JSON happens to be in the directory.
	if s.ID == "" || s.Name == "" || !s.Status.Valid() {
		return nil, &coorderr.CorruptRecordError{Name: key, Err: errors.New("missing required fields")}
	}
	return &s, nil
}

func (fs *FileStore) writeRecord(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.Name, err)
	}
	return atomicfile.WriteFile(fs.recordPath(s.Name), data, recordPerm)
}

// rewriteSummary rebuilds summary.json from the records on disk. Best
// effort: the summary is a polling convenience for collaborators, and the
// per-session records remain the only ground truth.
func (fs *FileStore) rewriteSummary() {
	active, err := fs.List(FilterActive)
	if err != nil {
		fs.logger.Warn().Err(err).Msg("summary rebuild: listing failed")
		return
	}
	names := make([]string, 0, len(active))
	for _, s := range active {
		names = append(names, s.Name)
	}
	sum := Summary{
		Updated:        time.Now().UTC(),
		ActiveSessions: names,
		ProjectRoot:    fs.projectRoot,
	}
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		fs.logger.Warn().Err(err).Msg("summary rebuild: marshal failed")
		return
	}
	if err := atomicfile.WriteFile(filepath.Join(fs.dir, summaryFile), data, recordPerm); err != nil {
		fs.logger.Warn().Err(err).Msg("summary rebuild: write failed")
	}
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
