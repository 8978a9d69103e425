package messaging

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atendeai/assistant/internal/conversation"
	"github.com/atendeai/assistant/pkg/logging"
)

// Responder turns one inbound message into a reply. Satisfied by
// conversation.Engine.
type Responder interface {
	HandleMessage(ctx context.Context, in conversation.Inbound) (*conversation.Reply, error)
}

// WebhookHandler terminates the Meta webhook: the GET verification handshake
// and the POST message notifications.
type WebhookHandler struct {
	responder   Responder
	sender      Sender
	verifyToken string
	logger      *logging.Logger
}

// NewWebhookHandler wires the webhook to the conversation pipeline.
func NewWebhookHandler(responder Responder, sender Sender, verifyToken string, logger *logging.Logger) *WebhookHandler {
	if responder == nil {
		panic("messaging: responder cannot be nil")
	}
	if sender == nil {
		panic("messaging: sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		responder:   responder,
		sender:      sender,
		verifyToken: verifyToken,
		logger:      logger,
	}
}

// Routes returns the webhook routes, mounted under /webhooks/whatsapp.
func (h *WebhookHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Verify)
	r.Post("/", h.Receive)
	return r
}

// Verify answers Meta's subscription handshake: echo hub.challenge when the
// verify token matches, 403 otherwise.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != h.verifyToken {
		h.logger.Warn("webhook verification rejected", "mode", q.Get("hub.mode"))
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(q.Get("hub.challenge")))
}

// webhookPayload mirrors the subset of the Cloud API notification format the
// assistant consumes.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					DisplayPhoneNumber string `json:"display_phone_number"`
					PhoneNumberID      string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"` // unix seconds
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Receive handles message notifications. The Cloud API retries deliveries
// that do not get a 2xx, so processing failures are logged and acknowledged
// rather than bounced back; a retried notification would just replay the
// same turn against the LLM.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("webhook payload is not valid json", "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			destination := change.Value.Metadata.DisplayPhoneNumber
			for _, msg := range change.Value.Messages {
				h.handleMessage(r.Context(), destination, msg)
			}
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("EVENT_RECEIVED"))
}

func (h *WebhookHandler) handleMessage(ctx context.Context, destination string, msg webhookMessage) {
	// Status updates, media and reactions arrive on the same webhook.
	if msg.Type != "text" || msg.Text.Body == "" {
		h.logger.Debug("ignoring non-text webhook message", "type", msg.Type, "message_id", msg.ID)
		return
	}

	reply, err := h.responder.HandleMessage(ctx, conversation.Inbound{
		From:      msg.From,
		To:        destination,
		Body:      msg.Text.Body,
		Timestamp: parseWebhookTimestamp(msg.Timestamp),
	})
	if err != nil {
		h.logger.Error("failed to process inbound message",
			"message_id", msg.ID, "from", msg.From, "error", err)
		return
	}

	if _, err := h.sender.SendText(ctx, msg.From, reply.Text); err != nil {
		h.logger.Error("failed to deliver reply",
			"message_id", msg.ID, "to", msg.From, "clinic_id", reply.ClinicID, "error", err)
	}
}

// parseWebhookTimestamp converts the Cloud API's unix-seconds string. A
// missing or malformed value falls back to the arrival time.
func parseWebhookTimestamp(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}
