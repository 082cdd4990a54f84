package store

import (
	"database/sql"
	"time"
)

// Transition is a persisted tracker mode change.
type Transition struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"session_id"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	// At is the time since the session clock started.
	At time.Duration `json:"-"`
}

// AtMillis returns At in whole milliseconds.
func (t *Transition) AtMillis() int64 {
	return t.At.Milliseconds()
}

// TransitionRepository records tracker mode changes.
type TransitionRepository struct {
	db *sql.DB
}

// Transitions returns the transition repository for this store.
func (s *Store) Transitions() *TransitionRepository {
	return &TransitionRepository{db: s.db}
}

// Record appends a transition and sets its ID.
func (r *TransitionRepository) Record(t *Transition) error {
	result, err := r.db.Exec(
		`INSERT INTO transitions (session_id, from_mode, to_mode, x, y, at_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.From, t.To, t.X, t.Y, t.AtMillis(),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// ListBySession returns the transitions of a session in the order recorded.
func (r *TransitionRepository) ListBySession(sessionID string) ([]*Transition, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, from_mode, to_mode, x, y, at_ms
		 FROM transitions WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []*Transition
	for rows.Next() {
		t := &Transition{}
		var atMS int64
		if err := rows.Scan(&t.ID, &t.SessionID, &t.From, &t.To, &t.X, &t.Y, &atMS); err != nil {
			return nil, err
		}
		t.At = time.Duration(atMS) * time.Millisecond
		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transitions, nil
}

// CountBySession returns how many transitions a session recorded.
func (r *TransitionRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM transitions WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
