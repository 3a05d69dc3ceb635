package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	coorderr "github.com/p-blackswan/workspace-coordinator/internal/errors"
)

// SQLiteStore is an embedded-database Store backing with the same observable
// semantics as FileStore. SQLite's transactional writes stand in for the
// temp-write+rename protocol; mutations are still full-record
// read-modify-write with no version token.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "session.sqlite").Logger(),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS sessions (
		name          TEXT PRIMARY KEY,
		id            TEXT NOT NULL,
		created       INTEGER NOT NULL,
		last_active   INTEGER NOT NULL,
		focus         TEXT NOT NULL DEFAULT '[]',
		directories   TEXT NOT NULL DEFAULT '[]',
		file_patterns TEXT NOT NULL DEFAULT '[]',
		current_task  TEXT,
		active_files  TEXT NOT NULL DEFAULT '[]',
		locked_files  TEXT NOT NULL DEFAULT '[]',
		status        TEXT NOT NULL DEFAULT 'active',
		closed        INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	`)
	return err
}

// Shutdown closes the underlying database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

const sessionColumns = `name, id, created, last_active, focus, directories, file_patterns, current_task, active_files, locked_files, status, closed`

func (s *SQLiteStore) Create(name string, opts Options) (*Session, error) {
	key, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &Session{
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

	_, err = s.db.Exec(`
	INSERT INTO sessions (`+sessionColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.Name, sess.ID, sess.Created.UnixMilli(), sess.LastActive.UnixMilli(),
		mustJSON(sess.Focus), mustJSON(sess.Directories), mustJSON(sess.FilePatterns),
		nullableString(sess.CurrentTask),
		mustJSON(sess.ActiveFiles), mustJSON(sess.LockedFiles),
		string(sess.Status), sql.NullInt64{},
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, &coorderr.DuplicateError{Name: key}
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) Read(name string) (*Session, error) {
	key, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}
	return s.readRow(key)
}

func (s *SQLiteStore) Update(name string, patch Patch) (*Session, error) {
	key, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}
	sess, err := s.readRow(key)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, &coorderr.NotFoundError{Kind: "session", Name: key}
	}

	patch.apply(sess)
	sess.LastActive = time.Now().UTC()

	var closed sql.NullInt64
	if sess.Closed != nil {
		closed = sql.NullInt64{Int64: sess.Closed.UnixMilli(), Valid: true}
	}
	_, err = s.db.Exec(`
	UPDATE sessions SET last_active = ?, focus = ?, directories = ?, file_patterns = ?,
		current_task = ?, active_files = ?, locked_files = ?, status = ?, closed = ?
	WHERE name = ?`,
		sess.LastActive.UnixMilli(),
		mustJSON(sess.Focus), mustJSON(sess.Directories), mustJSON(sess.FilePatterns),
		nullableString(sess.CurrentTask),
		mustJSON(sess.ActiveFiles), mustJSON(sess.LockedFiles),
		string(sess.Status), closed, key,
	)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) List(filter ListFilter) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	var args []interface{}
	switch filter {
	case FilterAll:
	case FilterClosed:
		query += ` WHERE status = ?`
		args = append(args, string(StatusClosed))
	default:
		query += ` WHERE status = ?`
		args = append(args, string(StatusActive))
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping unreadable session row")
			continue
		}
		sessions = append(sessions, sess)
	}
	if sessions == nil {
		sessions = []*Session{}
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) Close(name string) (*Session, error) {
	now := time.Now().UTC()
	closed := StatusClosed
	none := []string{}
	return s.Update(name, Patch{
		Status:      &closed,
		ActiveFiles: &none,
		LockedFiles: &none,
		Closed:      &now,
	})
}

func (s *SQLiteStore) readRow(key string) (*Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE name = ?`, key)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &coorderr.CorruptRecordError{Name: key, Err: err}
	}
	return sess, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess                                  Session
		created, lastActive                   int64
		focus, dirs, patterns, active, locked string
		currentTask                           sql.NullString
		status                                string
		closed                                sql.NullInt64
	)
	if err := row.Scan(&sess.Name, &sess.ID, &created, &lastActive,
		&focus, &dirs, &patterns, &currentTask, &active, &locked,
		&status, &closed); err != nil {
		return nil, err
	}

	sess.Created = time.UnixMilli(created).UTC()
	sess.LastActive = time.UnixMilli(lastActive).UTC()
	sess.Status = Status(status)
	if !sess.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	if currentTask.Valid {
		sess.CurrentTask = &currentTask.String
	}
	if closed.Valid {
		t := time.UnixMilli(closed.Int64).UTC()
		sess.Closed = &t
	}

	for _, col := range []struct {
		raw  string
		dest *[]string
	}{
		{focus, &sess.Focus},
		{dirs, &sess.Directories},
		{patterns, &sess.FilePatterns},
		{active, &sess.ActiveFiles},
		{locked, &sess.LockedFiles},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
			return nil, fmt.Errorf("decode list column: %w", err)
		}
		if *col.dest == nil {
			*col.dest = []string{}
		}
	}
	return &sess, nil
}

func mustJSON(v []string) string {
	data, err := json.Marshal(v)
	if err != nil {
		// []string cannot fail to marshal.
		return "[]"
	}
	return string(data)
}

func nullableString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
