package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendeai/assistant/pkg/logging"
)

func TestSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody sendTextRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"id":"wamid.abc123"}]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient(server.URL, "token-xyz", "111222333", logging.New("error"))

	id, err := client.SendText(context.Background(), "5511999990000", "Olá! Como posso ajudar?")
	require.NoError(t, err)

	assert.Equal(t, "wamid.abc123", id)
	assert.Equal(t, "/111222333/messages", gotPath)
	assert.Equal(t, "Bearer token-xyz", gotAuth)
	assert.Equal(t, "whatsapp", gotBody.MessagingProduct)
	assert.Equal(t, "5511999990000", gotBody.To)
	assert.Equal(t, "text", gotBody.Type)
	assert.Equal(t, "Olá! Como posso ajudar?", gotBody.Text.Body)
}

func TestSendTextGraphError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient(server.URL, "bad-token", "111222333", logging.New("error"))

	_, err := client.SendText(context.Background(), "5511999990000", "oi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 190")
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}

func TestSendTextRejectsEmptyInput(t *testing.T) {
	client := NewWhatsAppClient("http://unused", "token", "111222333", logging.New("error"))

	_, err := client.SendText(context.Background(), "", "oi")
	assert.Error(t, err)

	_, err = client.SendText(context.Background(), "5511999990000", "  ")
	assert.Error(t, err)
}

func TestSendTextNoMessageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages":[]}`))
	}))
	defer server.Close()

	client := NewWhatsAppClient(server.URL, "token", "111222333", logging.New("error"))

	_, err := client.SendText(context.Background(), "5511999990000", "oi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no message id")
}
