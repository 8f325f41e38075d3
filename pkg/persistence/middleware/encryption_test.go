package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/scout/pkg/adapters/file"
	"github.com/aretw0/scout/pkg/domain"
	"github.com/aretw0/scout/pkg/persistence/middleware"
	"github.com/aretw0/scout/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, middleware.KeySize)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func mustEncrypt(t *testing.T, cfg middleware.EncryptionConfig) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return mw
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	ctx := context.Background()
	original := sampleState("run-1")

	if err := secureStore.Save(ctx, "run-1", original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The envelope hides the transcript but keeps monitoring fields.
	stored, err := underlyingStore.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if len(stored.Messages) != 0 || stored.RawJobText != "" || stored.CareerPage != "" {
		t.Fatalf("Expected sensitive fields to be hidden, got %+v", stored)
	}
	if stored.Sealed == "" {
		t.Fatal("Expected sealed payload in envelope")
	}
	if stored.Outcome != domain.OutcomeDirect || stored.TargetSite != "acme" || stored.Steps != 3 {
		t.Errorf("Envelope lost monitoring fields: %+v", stored)
	}

	loaded, err := secureStore.Load(ctx, "run-1")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.RawJobText != original.RawJobText || len(loaded.Messages) != 3 {
		t.Errorf("Decrypted state mismatch: %+v", loaded)
	}
	if loaded.Sealed != "" {
		t.Error("Decrypted state should not carry a sealed payload")
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)
	ctx := context.Background()
	if err := secureStoreOld.Save(ctx, "rot", sampleState("rot")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := mustEncrypt(t, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, "rot")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.TargetSite != "acme" {
		t.Errorf("Decryption with fallback key failed")
	}

	// Re-saving moves the run to the new key.
	if err := secureStoreNew.Save(ctx, "rot", loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}
	if _, err := secureStoreOld.Load(ctx, "rot"); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected error for invalid key size")
	}
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	if err == nil {
		t.Error("Expected error for invalid fallback key size")
	}
}

func TestEncryptionMiddleware_PlainRun(t *testing.T) {
	underlyingStore := NewMockStore()
	_ = underlyingStore.Save(context.Background(), "plain", sampleState("plain"))

	secureStore := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secureStore.Load(context.Background(), "plain")
	if !errors.Is(err, middleware.ErrNotSealed) {
		t.Errorf("Expected ErrNotSealed, got %v", err)
	}

	_, err = secureStore.Load(context.Background(), "missing")
	if !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound passthrough, got %v", err)
	}
}

func TestEncryptionMiddleware_FileStoreContract(t *testing.T) {
	mw := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunStoreContract(t, mw(file.New(t.TempDir())))
}

func TestDecodeKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(key) {
		t.Error("decoded key mismatch")
	}

	if _, err := middleware.DecodeKey("not base64!"); err == nil {
		t.Error("expected base64 error")
	}
	_, err = middleware.DecodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	if err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Errorf("expected size error, got %v", err)
	}
}
