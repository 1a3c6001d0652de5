// Package history keeps an append-only transcript of every chat session in
// SQLite. If opening the DB or executing queries fails, the store falls back
// to in-memory storage.
package history

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/portfolio-assistant/internal/logger"
)

// MemoryDSN keeps the database in process memory.
const MemoryDSN = ":memory:"

// Store records transcript entries.
type Store struct {
	mu      sync.Mutex
	entries []Entry // in-memory fallback
	nextID  int64

	db *sql.DB
}

// Open opens (or creates) the SQLite database at dsn. It never fails: on any
// error the returned store works from memory only.
func Open(dsn string) *Store {
	s := &Store{}
	if dsn == "" {
		dsn = MemoryDSN
	}
	source := dsn
	if dsn != MemoryDSN {
		source = "file:" + dsn + "?_busy_timeout=10000&_fk=1"
	}

	db, err := sql.Open("sqlite", source)
	if err != nil {
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return s
	}
	// every pooled connection to :memory: would be a separate database
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS transcript (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT,
        message_id TEXT,
        role TEXT,
        content TEXT,
        source TEXT,
        created_at DATETIME
    );`); err != nil {
		logger.L.Warn("sqlite table creation failed; using in-memory history", "error", err)
		_ = db.Close()
		return s
	}
	logger.L.Info("sqlite history DB initialized", "dsn", dsn)
	s.db = db
	return s
}

// Persistent reports whether entries go to SQLite.
func (s *Store) Persistent() bool { return s.db != nil }

// Save persists an entry to SQLite. The entry is kept in memory only when
// there is no database or the insert fails.
func (s *Store) Save(ctx context.Context, e Entry) {
	if s.db != nil {
		_, err := s.db.ExecContext(ctx, `INSERT INTO transcript (session_id, message_id, role, content, source, created_at) VALUES (?,?,?,?,?,?);`,
			e.SessionID, e.MessageID, e.Role, e.Content, e.Source, e.CreatedAt)
		if err == nil {
			return
		}
		logger.L.Error("failed to store transcript entry in sqlite; falling back to memory", "error", err)
	}

	s.mu.Lock()
	s.nextID++
	e.ID = s.nextID
	s.entries = append(s.entries, e)
	s.mu.Unlock()
}

// List returns all entries of a session in chronological order. Entries that
// never reached SQLite follow the stored ones.
func (s *Store) List(ctx context.Context, sessionID string) []Entry {
	var out []Entry
	if s.db != nil {
		rows, err := s.db.QueryContext(ctx, `SELECT id, session_id, message_id, role, content, source, created_at FROM transcript WHERE session_id = ? ORDER BY id ASC;`, sessionID)
		if err == nil {
			defer rows.Close()
			for rows.Next() {
				var e Entry
				if err := rows.Scan(&e.ID, &e.SessionID, &e.MessageID, &e.Role, &e.Content, &e.Source, &e.CreatedAt); err == nil {
					out = append(out, e)
				}
			}
			if err = rows.Err(); err != nil {
				out = nil
			}
		}
		if err != nil {
			logger.L.Warn("sqlite transcript query failed; reading from memory", "session", sessionID, "error", err)
		}
	}

	s.mu.Lock()
	for _, e := range s.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	s.mu.Unlock()
	return out
}

// Delete drops every entry of a session.
func (s *Store) Delete(ctx context.Context, sessionID string) {
	if s.db != nil {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM transcript WHERE session_id = ?;`, sessionID); err != nil {
			logger.L.Error("failed to delete transcript from sqlite", "session", sessionID, "error", err)
		}
	}

	s.mu.Lock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.SessionID != sessionID {
			kept = append(kept, e)
		}
	}
	clear(s.entries[len(kept):])
	s.entries = kept
	s.mu.Unlock()
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
