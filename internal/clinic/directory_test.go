package clinic

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+55 (11) 98765-4321", "5511987654321"},
		{"5511987654321", "5511987654321"},
		{"11987654321", "5511987654321"}, // bare 11-digit local number
		{"1187654321", "551187654321"},   // bare 10-digit landline
		{"", ""},
		{"abc", ""},
	}

	for _, tt := range tests {
		if got := NormalizeNumber(tt.in); got != tt.want {
			t.Errorf("NormalizeNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStoreResolveRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client)

	ctx := context.Background()
	cfg := DefaultConfig("cardioprime", "+55 11 98765-4321")
	cfg.Name = "CardioPrime"
	if err := store.Set(ctx, cfg); err != nil {
		t.Fatalf("set config: %v", err)
	}

	// Lookup with a differently formatted number resolves the same record.
	got, err := store.Resolve(ctx, "55 (11) 98765 4321")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != "cardioprime" {
		t.Errorf("expected id cardioprime, got %s", got.ID)
	}
	if got.Name != "CardioPrime" {
		t.Errorf("expected name CardioPrime, got %s", got.Name)
	}
	if got.WhatsAppNumber != "5511987654321" {
		t.Errorf("expected normalized number, got %s", got.WhatsAppNumber)
	}
}

func TestStoreResolveNotFound(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client)

	_, err := store.Resolve(context.Background(), "5511900000000")
	if !errors.Is(err, ErrClinicNotFound) {
		t.Errorf("expected ErrClinicNotFound, got %v", err)
	}

	_, err = store.Resolve(context.Background(), "")
	if !errors.Is(err, ErrClinicNotFound) {
		t.Errorf("expected ErrClinicNotFound for empty input, got %v", err)
	}
}

func TestStoreResolveStoreFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client)
	mr.Close()

	_, err := store.Resolve(context.Background(), "5511987654321")
	if err == nil {
		t.Fatal("expected error when redis is unavailable")
	}
	if errors.Is(err, ErrClinicNotFound) {
		t.Error("store failure must not be reported as not-found")
	}
}

func TestStaticDirectory(t *testing.T) {
	cfg := DefaultConfig("c1", "5511987654321")
	dir := NewStaticDirectory([]*ClinicConfig{cfg, nil})

	got, err := dir.Resolve(context.Background(), "+55 11 98765-4321")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != "c1" {
		t.Errorf("expected c1, got %s", got.ID)
	}

	if _, err := dir.Resolve(context.Background(), "5511911111111"); !errors.Is(err, ErrClinicNotFound) {
		t.Errorf("expected ErrClinicNotFound, got %v", err)
	}
}
