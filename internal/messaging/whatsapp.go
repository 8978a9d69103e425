// Package messaging connects the assistant to the WhatsApp Cloud API:
// an outbound sender for replies and a webhook handler for inbound messages.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atendeai/assistant/pkg/logging"
)

// Sender delivers one outbound text message and returns the provider's
// message id.
type Sender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// WhatsAppClient sends messages through the Meta Graph API.
type WhatsAppClient struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	phoneNumberID string
	logger        *logging.Logger
}

// WhatsAppOption configures the client.
type WhatsAppOption func(*WhatsAppClient)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) WhatsAppOption {
	return func(w *WhatsAppClient) {
		if c != nil {
			w.httpClient = c
		}
	}
}

// NewWhatsAppClient creates a Cloud API client for one business phone number.
func NewWhatsAppClient(baseURL, accessToken, phoneNumberID string, logger *logging.Logger, opts ...WhatsAppOption) *WhatsAppClient {
	if strings.TrimSpace(accessToken) == "" {
		panic("messaging: whatsapp access token cannot be empty")
	}
	if strings.TrimSpace(phoneNumberID) == "" {
		panic("messaging: whatsapp phone number id cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	client := &WhatsAppClient{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		baseURL:       strings.TrimRight(baseURL, "/"),
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type sendTextRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type sendTextResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type graphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText implements Sender.
func (w *WhatsAppClient) SendText(ctx context.Context, to, body string) (string, error) {
	if strings.TrimSpace(to) == "" {
		return "", fmt.Errorf("messaging: recipient number is required")
	}
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("messaging: message body is empty")
	}

	payload, err := json.Marshal(sendTextRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("messaging: encode send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("messaging: build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("messaging: send message to %s: %w", to, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("messaging: read send response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var graphErr graphErrorResponse
		if json.Unmarshal(raw, &graphErr) == nil && graphErr.Error.Message != "" {
			return "", fmt.Errorf("messaging: cloud api rejected message (status %d, code %d): %s",
				resp.StatusCode, graphErr.Error.Code, graphErr.Error.Message)
		}
		return "", fmt.Errorf("messaging: cloud api returned status %d", resp.StatusCode)
	}

	var out sendTextResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("messaging: decode send response: %w", err)
	}
	if len(out.Messages) == 0 {
		return "", fmt.Errorf("messaging: cloud api returned no message id")
	}

	w.logger.Debug("whatsapp message sent", "to", to, "message_id", out.Messages[0].ID)
	return out.Messages[0].ID, nil
}
