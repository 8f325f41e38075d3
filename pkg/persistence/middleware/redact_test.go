package middleware_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/scout/pkg/persistence/middleware"
)

func TestRedactMiddleware_Masking(t *testing.T) {
	underlyingStore := NewMockStore()
	mw, err := middleware.NewRedactMiddleware([]string{`sk-[a-z0-9]+`})
	if err != nil {
		t.Fatal(err)
	}
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	state := sampleState("redact")
	if err := secureStore.Save(ctx, "redact", state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The live state is untouched.
	if !strings.Contains(state.RawJobText, "sk-zzz999") {
		t.Error("Middleware modified original state in memory!")
	}
	if state.Messages[1].ToolCalls[0].Args["token"] != "sk-abc123" {
		t.Error("Middleware modified original tool call arguments!")
	}

	stored, err := underlyingStore.Load(ctx, "redact")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if strings.Contains(stored.RawJobText, "sk-") || !strings.Contains(stored.RawJobText, middleware.Mask) {
		t.Errorf("RawJobText should be masked, got: %s", stored.RawJobText)
	}
	if strings.Contains(stored.Messages[2].Content, "sk-") {
		t.Errorf("Message content should be masked, got: %s", stored.Messages[2].Content)
	}
	args := stored.Messages[1].ToolCalls[0].Args
	if args["token"] != middleware.Mask {
		t.Errorf("Tool argument should be masked, got: %v", args["token"])
	}
	if nested := args["opts"].(map[string]any); nested["auth"] != middleware.Mask {
		t.Errorf("Nested tool argument should be masked, got: %v", nested["auth"])
	}
	if stored.Messages[0].Content != "get the jobs" {
		t.Error("Unmatched content should be preserved")
	}
}

func TestRedactMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewRedactMiddleware([]string{"("}); err == nil {
		t.Error("Expected compile error")
	}
}

func TestChain_RedactThenEncrypt(t *testing.T) {
	underlyingStore := NewMockStore()
	redact, err := middleware.NewRedactMiddleware([]string{`sk-[a-z0-9]+`})
	if err != nil {
		t.Fatal(err)
	}
	encrypt := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	store := middleware.Chain(underlyingStore, redact, encrypt)

	ctx := context.Background()
	if err := store.Save(ctx, "both", sampleState("both")); err != nil {
		t.Fatal(err)
	}
	if underlyingStore.data["both"].Sealed == "" {
		t.Fatal("expected sealed envelope at the bottom of the chain")
	}
	loaded, err := store.Load(ctx, "both")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(loaded.RawJobText, "sk-") {
		t.Errorf("expected redacted content inside the envelope, got %s", loaded.RawJobText)
	}
}
