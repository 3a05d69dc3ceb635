package session

// ListFilter selects which sessions List returns.
type ListFilter string

const (
	// FilterActive is the default: closed sessions are history, not
	// participants.
	FilterActive ListFilter = "active"
	FilterClosed ListFilter = "closed"
	FilterAll    ListFilter = "all"
)

func (f ListFilter) matches(s Status) bool {
	switch f {
	case FilterAll:
		return true
	case FilterClosed:
		return s == StatusClosed
	default:
		return s == StatusActive
	}
}

// Store is the capability surface for session persistence. Backings are
// swappable without touching the claim or allocation layers: FileStore is
// the reference implementation over a shared directory, SQLiteStore an
// embedded-database alternative, MemoryStore the fake used in tests.
//
// All mutations are plain read-modify-write of the full record. No version
// token is used, so two concurrent writers to the same session can lose one
// writer's change; see the claim package for how the protocol treats this.
type Store interface {
	// Create validates and sanitizes name, then persists a fresh record.
	// Fails with a DuplicateError when a record for the sanitized name
	// already exists, leaving the existing record unchanged.
	Create(name string, opts Options) (*Session, error)

	// Read returns the record for the sanitized name, or (nil, nil) when no
	// such session exists. An unparsable record is a hard CorruptRecord
	// failure.
	Read(name string) (*Session, error)

	// Update merges patch into the existing record, stamps LastActive and
	// persists atomically. Fails with a NotFoundError when absent.
	Update(name string, patch Patch) (*Session, error)

	// List enumerates records in lexicographic name order, skipping and
	// logging corrupt records instead of failing the whole listing. The
	// empty filter lists active sessions only.
	List(filter ListFilter) ([]*Session, error)

	// Close transitions the session to closed, clears its claims and stamps
	// the close time. Closed sessions are never physically deleted.
	Close(name string) (*Session, error)
}
