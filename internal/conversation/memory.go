package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrStoreUnavailable wraps backing-store failures. Callers must surface it
// and fail the turn; defaulting "first contact" or "open" on store errors
// masks outages and duplicates greetings.
var ErrStoreUnavailable = errors.New("conversation: store unavailable")

// DefaultHistoryLimit bounds the rolling history kept per sender.
const DefaultHistoryLimit = 10

// HistoryEntry is one message of a sender's rolling history.
type HistoryEntry struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState is the per-sender record the pipeline reads and writes.
// PhoneNumber is the sender, not the clinic; the clinic association happens
// at read time via the message's destination number.
type ConversationState struct {
	PhoneNumber       string         `json:"phone_number"`
	LastInteractionAt time.Time      `json:"last_interaction_at"`
	CallerName        string         `json:"caller_name,omitempty"`
	NameExtractedAt   time.Time      `json:"name_extracted_at,omitempty"`
	History           []HistoryEntry `json:"history,omitempty"`
}

// MemoryStore persists per-sender conversation state.
type MemoryStore interface {
	// Load returns the state for a sender, or an empty default state when the
	// sender has never been seen. Absence is not an error.
	Load(ctx context.Context, phoneNumber string) (*ConversationState, error)
	// Append adds one history entry, evicting the oldest beyond the limit.
	Append(ctx context.Context, phoneNumber, role, content string, now time.Time) error
	// SetCallerName upserts the extracted name; last write wins.
	SetCallerName(ctx context.Context, phoneNumber, name string, now time.Time) error
	// RecordContact advances LastInteractionAt to now. It never regresses the
	// stored timestamp, which makes retries of the same turn idempotent.
	RecordContact(ctx context.Context, phoneNumber string, now time.Time) error
}

// RedisMemoryStore keeps one JSON document per sender. Writes go through a
// plain SET, which is atomic per key; last-write-wins is acceptable for this
// domain and no extra locking is done.
type RedisMemoryStore struct {
	redis        *redis.Client
	historyLimit int
	tracer       trace.Tracer
}

// NewRedisMemoryStore creates a memory store with the given history bound.
// A non-positive limit falls back to DefaultHistoryLimit.
func NewRedisMemoryStore(redisClient *redis.Client, historyLimit int) *RedisMemoryStore {
	if redisClient == nil {
		panic("conversation: redis client cannot be nil")
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &RedisMemoryStore{
		redis:        redisClient,
		historyLimit: historyLimit,
		tracer:       otel.Tracer("atendeai.internal.conversation.memory"),
	}
}

func stateKey(phoneNumber string) string {
	return fmt.Sprintf("convstate:%s", phoneNumber)
}

// Load implements MemoryStore.
func (s *RedisMemoryStore) Load(ctx context.Context, phoneNumber string) (*ConversationState, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_state")
	defer span.End()

	data, err := s.redis.Get(ctx, stateKey(phoneNumber)).Bytes()
	if err == redis.Nil {
		return &ConversationState{PhoneNumber: phoneNumber}, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: load state for %s: %v", ErrStoreUnavailable, phoneNumber, err)
	}

	var state ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: decode state for %s: %w", phoneNumber, err)
	}
	if state.PhoneNumber == "" {
		state.PhoneNumber = phoneNumber
	}
	return &state, nil
}

func (s *RedisMemoryStore) save(ctx context.Context, state *ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("conversation: encode state for %s: %w", state.PhoneNumber, err)
	}
	if err := s.redis.Set(ctx, stateKey(state.PhoneNumber), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: save state for %s: %v", ErrStoreUnavailable, state.PhoneNumber, err)
	}
	return nil
}

// Append implements MemoryStore.
func (s *RedisMemoryStore) Append(ctx context.Context, phoneNumber, role, content string, now time.Time) error {
	ctx, span := s.tracer.Start(ctx, "conversation.append_history")
	defer span.End()

	state, err := s.Load(ctx, phoneNumber)
	if err != nil {
		span.RecordError(err)
		return err
	}

	state.History = append(state.History, HistoryEntry{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	if overflow := len(state.History) - s.historyLimit; overflow > 0 {
		state.History = state.History[overflow:]
	}

	if err := s.save(ctx, state); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// SetCallerName implements MemoryStore.
func (s *RedisMemoryStore) SetCallerName(ctx context.Context, phoneNumber, name string, now time.Time) error {
	ctx, span := s.tracer.Start(ctx, "conversation.set_caller_name")
	defer span.End()

	state, err := s.Load(ctx, phoneNumber)
	if err != nil {
		span.RecordError(err)
		return err
	}

	state.CallerName = name
	state.NameExtractedAt = now

	if err := s.save(ctx, state); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// RecordContact implements MemoryStore.
func (s *RedisMemoryStore) RecordContact(ctx context.Context, phoneNumber string, now time.Time) error {
	ctx, span := s.tracer.Start(ctx, "conversation.record_contact")
	defer span.End()

	state, err := s.Load(ctx, phoneNumber)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if now.After(state.LastInteractionAt) {
		state.LastInteractionAt = now
	}

	if err := s.save(ctx, state); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
