package endpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/webchat/internal/db"
)

// Store manages persistence of endpoint settings.
type Store struct {
	db *db.DB
}

// NewStore creates a new endpoint store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const selectColumns = `id, flow, flow_url, chatbot_name, header_color, user_color, bot_color, chat_bubble_color,
	input_field_message, send_button, chat_bubble_message, chat_bubble_pill_message, chat_bubble_theme,
	chat_container_theme, enable_jump_animation, allowed_origins, created_at, updated_at`

// Create inserts s. It fails when the id is taken or s is invalid.
func (s *Store) Create(ctx context.Context, st Settings) (*Settings, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now

	origins, err := encodeOrigins(st.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO endpoints (`+selectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Flow, st.FlowURL, st.ChatbotName, st.Colors.Header, st.Colors.User, st.Colors.Bot, st.Colors.ChatBubble,
		st.InputFieldMessage, st.SendButton, st.ChatBubbleMessage, st.ChatBubblePillMessage, st.ChatBubbleTheme,
		st.ChatContainerTheme, st.EnableJumpAnimation, origins, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting endpoint: %w", err)
	}
	return &st, nil
}

// Get returns the endpoint with id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Settings, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM endpoints WHERE id = ?`, id)
	st, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting endpoint: %w", err)
	}
	return st, nil
}

// List returns all endpoints ordered by id.
func (s *Store) List(ctx context.Context) ([]Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM endpoints ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing endpoints: %w", err)
	}
	defer rows.Close()

	var out []Settings
	for rows.Next() {
		st, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning endpoint: %w", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// Update replaces the stored settings for st.ID.
func (s *Store) Update(ctx context.Context, st Settings) (*Settings, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	st.CreatedAt = existing.CreatedAt
	st.UpdatedAt = time.Now().UTC()

	origins, err := encodeOrigins(st.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE endpoints SET flow = ?, flow_url = ?, chatbot_name = ?, header_color = ?, user_color = ?, bot_color = ?,
		 chat_bubble_color = ?, input_field_message = ?, send_button = ?, chat_bubble_message = ?,
		 chat_bubble_pill_message = ?, chat_bubble_theme = ?, chat_container_theme = ?, enable_jump_animation = ?,
		 allowed_origins = ?, updated_at = ? WHERE id = ?`,
		st.Flow, st.FlowURL, st.ChatbotName, st.Colors.Header, st.Colors.User, st.Colors.Bot,
		st.Colors.ChatBubble, st.InputFieldMessage, st.SendButton, st.ChatBubbleMessage,
		st.ChatBubblePillMessage, st.ChatBubbleTheme, st.ChatContainerTheme, st.EnableJumpAnimation,
		origins, st.UpdatedAt, st.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating endpoint: %w", err)
	}
	return &st, nil
}

// Delete removes the endpoint with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM endpoints WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting endpoint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSettings(row scanner) (*Settings, error) {
	var st Settings
	var origins string
	err := row.Scan(&st.ID, &st.Flow, &st.FlowURL, &st.ChatbotName,
		&st.Colors.Header, &st.Colors.User, &st.Colors.Bot, &st.Colors.ChatBubble,
		&st.InputFieldMessage, &st.SendButton, &st.ChatBubbleMessage, &st.ChatBubblePillMessage,
		&st.ChatBubbleTheme, &st.ChatContainerTheme, &st.EnableJumpAnimation, &origins,
		&st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(origins), &st.AllowedOrigins); err != nil {
		return nil, fmt.Errorf("decoding allowed_origins: %w", err)
	}
	return &st, nil
}

func encodeOrigins(origins []string) (string, error) {
	if origins == nil {
		origins = []string{}
	}
	b, err := json.Marshal(origins)
	if err != nil {
		return "", fmt.Errorf("encoding allowed_origins: %w", err)
	}
	return string(b), nil
}
