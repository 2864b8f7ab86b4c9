package travel

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"voyago/internal/models"
)

// Service is the persistence gateway for itineraries and chat messages.
type Service struct {
	db *sql.DB
}

// NewService constructs the gateway around an open database handle.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// CreateItinerary inserts a new itinerary and returns the stored record with
// its generated id and timestamp.
func (s *Service) CreateItinerary(ctx context.Context, destination string, content json.RawMessage) (*models.Itinerary, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("destination is required")
	}
	if len(content) == 0 || !json.Valid(content) {
		return nil, errors.New("content must be valid structured data")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO itineraries (destination, content, created_at) VALUES (?, ?, ?)`,
		destination, string(content), now,
	)
	if err != nil {
		return nil, fmt.Errorf("create itinerary: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("itinerary id: %w", err)
	}
	return &models.Itinerary{ID: id, Destination: destination, Content: content, CreatedAt: now}, nil
}

// ListItineraries returns all itineraries, newest first.
func (s *Service) ListItineraries(ctx context.Context) ([]models.Itinerary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, destination, content, created_at FROM itineraries ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list itineraries: %w", err)
	}
	defer rows.Close()

	items := make([]models.Itinerary, 0)
	for rows.Next() {
		var it models.Itinerary
		var content []byte
		if err := rows.Scan(&it.ID, &it.Destination, &content, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan itinerary: %w", err)
		}
		it.Content = json.RawMessage(content)
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetItinerary returns one itinerary by id, or sql.ErrNoRows when absent.
func (s *Service) GetItinerary(ctx context.Context, id int64) (*models.Itinerary, error) {
	var it models.Itinerary
	var content []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, destination, content, created_at FROM itineraries WHERE id = ?`,
		id,
	).Scan(&it.ID, &it.Destination, &content, &it.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get itinerary: %w", err)
	}
	it.Content = json.RawMessage(content)
	return &it, nil
}

// CreateMessage appends a message to the chat log and returns the stored
// record.
func (s *Service) CreateMessage(ctx context.Context, role models.Role, content string) (*models.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("content is required")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (role, content, created_at) VALUES (?, ?, ?)`,
		role, content, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	return &models.Message{ID: id, Role: role, Content: content, CreatedAt: now}, nil
}

// ListMessages returns the full chat log in chronological order. The id
// tiebreak keeps a user message ahead of the assistant reply written in the
// same instant.
func (s *Service) ListMessages(ctx context.Context) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM messages ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
