package tenancy

import (
	"context"
	"testing"
)

func TestClinicIDRoundTrip(t *testing.T) {
	ctx := WithClinicID(context.Background(), "clinic-42")

	got, ok := ClinicIDFromContext(ctx)
	if !ok {
		t.Fatal("expected clinic id to be present")
	}
	if got != "clinic-42" {
		t.Errorf("expected clinic-42, got %s", got)
	}
}

func TestClinicIDMissing(t *testing.T) {
	if _, ok := ClinicIDFromContext(context.Background()); ok {
		t.Error("expected no clinic id on empty context")
	}
}

func TestClinicIDEmptyValue(t *testing.T) {
	ctx := WithClinicID(context.Background(), "")
	if _, ok := ClinicIDFromContext(ctx); ok {
		t.Error("expected empty clinic id to be reported as absent")
	}
}
