package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	coorderr "github.com/p-blackswan/workspace-coordinator/internal/errors"
)

// MemoryStore is an in-memory Store for tests and ephemeral collaborators.
// It mirrors FileStore's observable semantics, including the deterministic
// lexicographic listing order.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Create(name string, opts Options) (*Session, error) {
	key, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key]; ok {
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
	m.sessions[key] = s
	return s.Clone(), nil
}

func (m *MemoryStore) Read(name string) (*Session, error) {
	key, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Update(name string, patch Patch) (*Session, error) {
	key, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		return nil, &coorderr.NotFoundError{Kind: "session", Name: key}
	}
	patch.apply(s)
	s.LastActive = time.Now().UTC()
	return s.Clone(), nil
}

func (m *MemoryStore) List(filter ListFilter) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.sessions))
	for k := range m.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*Session, 0, len(keys))
	for _, k := range keys {
		if s := m.sessions[k]; filter.matches(s.Status) {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) Close(name string) (*Session, error) {
	now := time.Now().UTC()
	closed := StatusClosed
	none := []string{}
	return m.Update(name, Patch{
		Status:      &closed,
		ActiveFiles: &none,
		LockedFiles: &none,
		Closed:      &now,
	})
}
