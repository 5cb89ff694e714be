package services

import (
	"context"
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("HTTP Error 403: Forbidden")
	err := Wrap(ErrAuth, "acquire", "download", "Download rejected", cause)
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth classification, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
}

func TestWrapWithoutCauseOrMarker(t *testing.T) {
	err := Wrap(nil, "resolver", "", "Locator invalid", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if got := err.Error(); got != "external tool error: resolver: Locator invalid" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestContextAnnotations(t *testing.T) {
	ctx := context.Background()
	ctx = WithItemID(ctx, 42)
	ctx = WithStage(ctx, "acquire")
	ctx = WithSource(ctx, "youtube")
	ctx = WithRunID(ctx, "run-1")

	if id, ok := ItemIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("item id = %d, %v", id, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "acquire" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if source, ok := SourceFromContext(ctx); !ok || source != "youtube" {
		t.Fatalf("source = %q, %v", source, ok)
	}
	if run, ok := RunIDFromContext(ctx); !ok || run != "run-1" {
		t.Fatalf("run id = %q, %v", run, ok)
	}
}

func TestEmptyAnnotationsAreNoops(t *testing.T) {
	ctx := WithStage(context.Background(), "")
	if _, ok := StageFromContext(ctx); ok {
		t.Fatal("expected no stage annotation")
	}
}
