package clinic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newHandlerFixture(t *testing.T) (*Handler, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client)
	return NewHandler(store, nil), store
}

func TestHandlerGetConfigNotFound(t *testing.T) {
	h, _ := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/5511987654321/config", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerUpdateCreatesAndGetReads(t *testing.T) {
	h, store := newHandlerFixture(t)

	body := `{"id":"cardioprime","name":"CardioPrime","agent_name":"Clara","timezone":"America/Sao_Paulo"}`
	req := httptest.NewRequest(http.MethodPut, "/5511987654321/config", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cfg, err := store.Resolve(context.Background(), "5511987654321")
	if err != nil {
		t.Fatalf("resolve after update: %v", err)
	}
	if cfg.Name != "CardioPrime" || cfg.AgentName != "Clara" {
		t.Errorf("unexpected stored config: %+v", cfg)
	}
	// Defaults fill in what the request omitted.
	if cfg.GreetingTemplate == "" {
		t.Error("expected default greeting template to be retained")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/5511987654321/config", nil)
	getRec := httptest.NewRecorder()
	h.Routes().ServeHTTP(getRec, getReq)

	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", getRec.Code)
	}
	var decoded ClinicConfig
	if err := json.Unmarshal(getRec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.ID != "cardioprime" {
		t.Errorf("expected id cardioprime, got %s", decoded.ID)
	}
}

func TestHandlerUpdateRejectsInvalidTimezone(t *testing.T) {
	h, _ := newHandlerFixture(t)

	body := `{"timezone":"Mars/Olympus"}`
	req := httptest.NewRequest(http.MethodPut, "/5511987654321/config", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerUpdatePartial(t *testing.T) {
	h, store := newHandlerFixture(t)

	ctx := context.Background()
	cfg := DefaultConfig("c1", "5511987654321")
	cfg.Name = "Original"
	if err := store.Set(ctx, cfg); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	empty := ""
	update := UpdateConfigRequest{FarewellTemplate: &empty}
	payload, _ := json.Marshal(update)
	req := httptest.NewRequest(http.MethodPut, "/5511987654321/config", strings.NewReader(string(payload)))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	got, err := store.Resolve(ctx, "5511987654321")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Name != "Original" {
		t.Errorf("partial update must not clobber name, got %s", got.Name)
	}
	if got.FarewellTemplate != "" {
		t.Errorf("expected farewell template cleared, got %q", got.FarewellTemplate)
	}
}
