package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/atendeai/assistant/internal/clinic"
	"github.com/atendeai/assistant/internal/observability/metrics"
	"github.com/atendeai/assistant/internal/tenancy"
	"github.com/atendeai/assistant/pkg/logging"
)

const defaultTurnTimeout = 30 * time.Second

// Inbound is one WhatsApp message event handed to the engine.
type Inbound struct {
	From      string // sender phone number
	To        string // clinic WhatsApp number
	Body      string
	Timestamp time.Time
}

// Reply is the composed outbound message for one turn.
type Reply struct {
	Text     string
	Branch   PolicyBranch
	ClinicID string
}

// Engine runs the request-scoped pipeline for one inbound message: resolve
// the clinic, compute open/first-contact, draft a reply through the LLM,
// apply the response policy and persist memory. Hard failures abort the
// whole turn; nothing is partially applied behind the caller's back.
type Engine struct {
	directory  clinic.Directory
	memory     MemoryStore
	llm        LLMClient
	model      string
	transcript *TranscriptStore
	metrics    *metrics.ConversationMetrics
	logger     *logging.Logger

	turnTimeout time.Duration
	maxTokens   int32
	temperature float32
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithTranscriptStore enables the durable Postgres conversation log.
func WithTranscriptStore(store *TranscriptStore) EngineOption {
	return func(e *Engine) { e.transcript = store }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.ConversationMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithTurnTimeout overrides the per-turn deadline.
func WithTurnTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.turnTimeout = d
		}
	}
}

// NewEngine wires the conversation pipeline.
func NewEngine(directory clinic.Directory, memory MemoryStore, llm LLMClient, model string, logger *logging.Logger, opts ...EngineOption) *Engine {
	if directory == nil {
		panic("conversation: directory cannot be nil")
	}
	if memory == nil {
		panic("conversation: memory store cannot be nil")
	}
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	e := &Engine{
		directory:   directory,
		memory:      memory,
		llm:         llm,
		model:       model,
		logger:      logger,
		turnTimeout: defaultTurnTimeout,
		maxTokens:   512,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleMessage processes one inbound message and returns the reply to send.
func (e *Engine) HandleMessage(ctx context.Context, in Inbound) (*Reply, error) {
	started := time.Now()
	reply, err := e.handle(ctx, in)
	if err != nil {
		e.metrics.ObserveTurn("error", time.Since(started).Seconds())
		return nil, err
	}
	e.metrics.ObserveTurn("ok", time.Since(started).Seconds())
	return reply, nil
}

func (e *Engine) handle(ctx context.Context, in Inbound) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, e.turnTimeout)
	defer cancel()

	now := in.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	from := clinic.NormalizeNumber(in.From)
	if from == "" {
		return nil, fmt.Errorf("conversation: inbound message has no sender number")
	}

	cfg, err := e.directory.Resolve(ctx, in.To)
	if err != nil {
		return nil, err
	}
	ctx = tenancy.WithClinicID(ctx, cfg.ID)
	logger := e.logger.WithClinic(cfg.ID)

	loc, err := clinic.Location(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	state, err := e.memory.Load(ctx, from)
	if err != nil {
		return nil, err
	}

	firstContact := FirstContactToday(state.LastInteractionAt, loc, now)
	open := clinic.IsOpen(cfg.BusinessHours, loc, now)

	callerName := state.CallerName
	if name, ok := ExtractCallerName(in.Body); ok {
		if err := e.memory.SetCallerName(ctx, from, name, now); err != nil {
			return nil, err
		}
		callerName = name
		e.metrics.ObserveNameExtracted()
		logger.Debug("caller name extracted", "phone", from)
	}

	// The out-of-hours branch discards the draft, so the LLM call is skipped
	// entirely when the clinic is closed.
	var draft string
	if open {
		llmStarted := time.Now()
		resp, err := e.llm.Complete(ctx, LLMRequest{
			Model:       e.model,
			System:      BuildSystemPrompt(cfg, loc, now, callerName),
			Messages:    append(historyAsChatMessages(state.History), ChatMessage{Role: ChatRoleUser, Content: in.Body}),
			MaxTokens:   e.maxTokens,
			Temperature: e.temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("conversation: draft reply: %w", err)
		}
		e.metrics.ObserveLLMLatency(time.Since(llmStarted).Seconds())
		draft = resp.Text
	}

	result := ApplyPolicy(PolicyInput{
		Draft:        draft,
		Open:         open,
		FirstContact: firstContact,
		Farewell:     IsFarewell(in.Body),
		CallerName:   callerName,
	}, cfg)
	if result.TemplateErr != nil {
		logger.Warn("clinic template has unknown placeholders",
			"branch", string(result.Branch), "error", result.TemplateErr)
	}
	e.metrics.ObservePolicyBranch(string(result.Branch))

	if err := e.memory.Append(ctx, from, ChatRoleUser, in.Body, now); err != nil {
		return nil, err
	}
	if err := e.memory.Append(ctx, from, ChatRoleAssistant, result.Text, now); err != nil {
		return nil, err
	}
	if err := e.memory.RecordContact(ctx, from, now); err != nil {
		return nil, err
	}

	e.logTranscript(ctx, logger, cfg.ID, from, in.Body, result, now)

	return &Reply{Text: result.Text, Branch: result.Branch, ClinicID: cfg.ID}, nil
}

// logTranscript writes the durable log. Failures here are logged, not fatal:
// the rolling memory already committed and the reply is on its way out.
func (e *Engine) logTranscript(ctx context.Context, logger *logging.Logger, clinicID, phone, userBody string, result PolicyResult, now time.Time) {
	if e.transcript == nil {
		return
	}

	entries := []TranscriptEntry{
		{ClinicID: clinicID, PhoneNumber: phone, Role: ChatRoleUser, Content: userBody, CreatedAt: now},
		{ClinicID: clinicID, PhoneNumber: phone, Role: ChatRoleAssistant, Content: result.Text, PolicyBranch: string(result.Branch), CreatedAt: now},
	}
	for _, entry := range entries {
		if err := e.transcript.AppendMessage(ctx, entry); err != nil {
			logger.Error("failed to persist transcript message", "phone", phone, "error", err)
		}
	}
}
