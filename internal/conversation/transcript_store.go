package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TranscriptEntry is one persisted message of the long-term conversation log.
type TranscriptEntry struct {
	ID           uuid.UUID
	ClinicID     string
	PhoneNumber  string
	Role         string
	Content      string
	PolicyBranch string
	CreatedAt    time.Time
}

// TranscriptStore writes the durable conversation log to PostgreSQL. The
// rolling Redis state drives the pipeline; this log exists for operators and
// audits. Nil-receiver tolerant so the engine runs without a database.
type TranscriptStore struct {
	db *sql.DB
}

// NewTranscriptStore creates a transcript store. Returns nil when db is nil.
func NewTranscriptStore(db *sql.DB) *TranscriptStore {
	if db == nil {
		return nil
	}
	return &TranscriptStore{db: db}
}

// AppendMessage persists one message. Re-inserting the same ID is a no-op,
// so retried turns do not duplicate rows.
func (s *TranscriptStore) AppendMessage(ctx context.Context, entry TranscriptEntry) error {
	if s == nil || s.db == nil {
		return nil
	}

	id := entry.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_log (
			id, clinic_id, phone_number, role, content, policy_branch, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, id, entry.ClinicID, entry.PhoneNumber, entry.Role, entry.Content, entry.PolicyBranch, createdAt)

	if err != nil {
		return fmt.Errorf("conversation: insert transcript message: %w", err)
	}
	return nil
}

// RecentMessages returns the most recent log rows for a sender at a clinic,
// oldest first.
func (s *TranscriptStore) RecentMessages(ctx context.Context, clinicID, phoneNumber string, limit int) ([]TranscriptEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, clinic_id, phone_number, role, content, policy_branch, created_at
		FROM (
			SELECT id, clinic_id, phone_number, role, content, policy_branch, created_at
			FROM conversation_log
			WHERE clinic_id = $1 AND phone_number = $2
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`, clinicID, phoneNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: query transcript: %w", err)
	}
	defer rows.Close()

	var entries []TranscriptEntry
	for rows.Next() {
		var entry TranscriptEntry
		if err := rows.Scan(
			&entry.ID, &entry.ClinicID, &entry.PhoneNumber,
			&entry.Role, &entry.Content, &entry.PolicyBranch, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("conversation: scan transcript row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: iterate transcript rows: %w", err)
	}

	return entries, nil
}
