package repository

import (
	"context"
	"path/filepath"
	"testing"

	"task-tracker/internal/logging"
)

func newTestRepo(t *testing.T) *TokenRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "tokens.db"), logging.Discard())
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return NewTokenRepository(db)
}

func TestTokenLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	token, err := repo.Load(ctx, "default")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if token != "" {
		t.Errorf("Expected empty token, got %q", token)
	}

	if err := repo.Save(ctx, "default", "first"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Save(ctx, "default", "second"); err != nil {
		t.Fatalf("Save overwrite failed: %v", err)
	}
	token, err = repo.Load(ctx, "default")
	if err != nil || token != "second" {
		t.Errorf("Expected overwritten token 'second', got %q (%v)", token, err)
	}

	if err := repo.Clear(ctx, "default"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	token, err = repo.Load(ctx, "default")
	if err != nil || token != "" {
		t.Errorf("Expected cleared token, got %q (%v)", token, err)
	}
}

func TestTokenKeysAreIndependent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "telegram:2", "b"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, "telegram:1", "a"); err != nil {
		t.Fatal(err)
	}

	keys, err := repo.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "telegram:1" || keys[1] != "telegram:2" {
		t.Errorf("Unexpected keys %v", keys)
	}

	if err := repo.Clear(ctx, "telegram:1"); err != nil {
		t.Fatal(err)
	}
	if token, _ := repo.Load(ctx, "telegram:2"); token != "b" {
		t.Errorf("Clearing one key must not affect another, got %q", token)
	}
}
