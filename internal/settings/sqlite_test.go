package settings

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "settings.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, ok, err := s.Get(ctx, StorageKeyAPIKey); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, StorageKeyAPIKey, "one"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, StorageKeyAPIKey, "two"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() {
		if closeErr := reopened.Close(); closeErr != nil {
			t.Fatalf("close db: %v", closeErr)
		}
	}()

	v, ok, err := reopened.Get(ctx, StorageKeyAPIKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || v != "two" {
		t.Fatalf("expected %q, got %q (ok=%v)", "two", v, ok)
	}
}

func TestSQLiteStoreInMemory(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	b := NewBridge(BridgeConfig{KV: s})
	if _, err := b.HandleClosed(ctx, `{"reportSourceUrl":{"value":"http://r"}}`); err != nil {
		t.Fatalf("handle closed: %v", err)
	}

	v, ok, err := s.Get(ctx, StorageKeyReportSource)
	if err != nil || !ok || v != "http://r" {
		t.Fatalf("expected persisted report source, got %q ok=%v err=%v", v, ok, err)
	}
}
