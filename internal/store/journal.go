package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one tracking run between start and stop.
type Session struct {
	ID        string     `json:"id"`
	Mode      string     `json:"mode"`
	StartedAt time.Time  `json:"started_at"`
	StoppedAt *time.Time `json:"stopped_at,omitempty"`
}

// Entry is a recognized discrete gesture.
type Entry struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	Mode       string    `json:"mode"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	OccurredAt time.Time `json:"occurred_at"`
}

// JournalRepository records tracking sessions and their gestures.
type JournalRepository struct {
	db *sql.DB
}

// Journal returns the journal repository for this store.
func (s *Store) Journal() *JournalRepository {
	return &JournalRepository{db: s.db}
}

// OpenSession records the start of session id.
func (r *JournalRepository) OpenSession(id, mode string, at time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, mode, started_at) VALUES (?, ?, ?)`,
		id, mode, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	return nil
}

// CloseSession stamps the stop time on session id.
func (r *JournalRepository) CloseSession(id string, at time.Time) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET stopped_at = ? WHERE id = ? AND stopped_at IS NULL`,
		at.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes session id and its entries.
func (r *JournalRepository) DeleteSession(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Session returns session id.
func (r *JournalRepository) Session(id string) (*Session, error) {
	var (
		s       Session
		started int64
		stopped sql.NullInt64
	)
	err := r.db.QueryRow(
		`SELECT id, mode, started_at, stopped_at FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.Mode, &started, &stopped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	s.StartedAt = time.UnixMilli(started)
	if stopped.Valid {
		t := time.UnixMilli(stopped.Int64)
		s.StoppedAt = &t
	}
	return &s, nil
}

// Record appends e to the journal, assigning an ID when e.ID is empty.
func (r *JournalRepository) Record(e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.Exec(
		`INSERT INTO gesture_events (id, session_id, kind, mode, x, y, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Kind, e.Mode, e.X, e.Y, e.OccurredAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Kind, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *JournalRepository) Recent(limit int) ([]Entry, error) {
	return r.query(
		`SELECT id, session_id, kind, mode, x, y, occurred_at
		 FROM gesture_events ORDER BY occurred_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
}

// BySession returns the entries of one session in the order they occurred.
func (r *JournalRepository) BySession(sessionID string) ([]Entry, error) {
	return r.query(
		`SELECT id, session_id, kind, mode, x, y, occurred_at
		 FROM gesture_events WHERE session_id = ? ORDER BY occurred_at, rowid`,
		sessionID,
	)
}

// Prune deletes sessions, and with them their entries, that started
// before cutoff. It returns the number of sessions removed.
func (r *JournalRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE started_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return result.RowsAffected()
}

func (r *JournalRepository) query(q string, args ...any) ([]Entry, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			at int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.Mode, &e.X, &e.Y, &at); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.OccurredAt = time.UnixMilli(at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
