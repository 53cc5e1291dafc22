package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/webchat/internal/db"
)

// Store persists sessions and the messages rendered in them.
type Store struct {
	db *db.DB
}

// NewStore creates a new transcript store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateSession records the start of a conversation. An empty id gets a
// fresh UUID.
func (s *Store) CreateSession(ctx context.Context, id, endpointID, remoteAddr string) (*Session, error) {
	if id == "" {
		id = uuid.New().String()
	}
	sess := Session{
		ID:         id,
		EndpointID: endpointID,
		RemoteAddr: remoteAddr,
		StartedAt:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, endpoint_id, remote_addr, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.EndpointID, sess.RemoteAddr, sess.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return &sess, nil
}

// EndSession stamps the end time of a conversation.
func (s *Store) EndSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetSession(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Append records a finished message. Messages keep the order they were
// appended in.
func (s *Store) Append(ctx context.Context, sessionID, sender, text string, quickReplies []string) (*Message, error) {
	if quickReplies == nil {
		quickReplies = []string{}
	}
	replies, err := json.Marshal(quickReplies)
	if err != nil {
		return nil, fmt.Errorf("encoding quick replies: %w", err)
	}

	msg := Message{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		Sender:       sender,
		Text:         text,
		QuickReplies: quickReplies,
		CreatedAt:    time.Now().UTC(),
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO messages (id, session_id, seq, sender, text, quick_replies, created_at)
		 VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?), ?, ?, ?, ?)
		 RETURNING seq`,
		msg.ID, msg.SessionID, msg.SessionID, msg.Sender, msg.Text, string(replies), msg.CreatedAt,
	).Scan(&msg.Seq)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}
	return &msg, nil
}

// GetSession returns the session with id or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT s.id, s.endpoint_id, s.remote_addr, s.started_at, s.ended_at,
		        (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id)
		 FROM sessions s WHERE s.id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return sess, nil
}

// ListSessions returns sessions newest first.
func (s *Store) ListSessions(ctx context.Context, filter ListFilter) ([]Session, error) {
	query := `SELECT s.id, s.endpoint_id, s.remote_addr, s.started_at, s.ended_at,
	                 (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id)
	          FROM sessions s WHERE 1=1`
	args := []any{}

	if filter.EndpointID != "" {
		query += " AND s.endpoint_id = ?"
		args = append(args, filter.EndpointID)
	}
	query += " ORDER BY s.started_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

// Get returns the full transcript of a session.
func (s *Store) Get(ctx context.Context, sessionID string) (*Transcript, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, seq, sender, text, quick_replies, created_at
		 FROM messages WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	t := &Transcript{Session: *sess, Messages: []Message{}}
	for rows.Next() {
		var m Message
		var replies string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Seq, &m.Sender, &m.Text, &replies, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if err := json.Unmarshal([]byte(replies), &m.QuickReplies); err != nil {
			return nil, fmt.Errorf("decoding quick replies: %w", err)
		}
		t.Messages = append(t.Messages, m)
	}
	return t, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	var ended sql.NullTime
	if err := row.Scan(&sess.ID, &sess.EndpointID, &sess.RemoteAddr, &sess.StartedAt, &ended, &sess.Messages); err != nil {
		return nil, err
	}
	if ended.Valid {
		sess.EndedAt = &ended.Time
	}
	return &sess, nil
}
