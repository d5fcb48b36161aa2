package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestDeadlineStoreIdempotent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	now := t0
	store := NewDeadlineStoreWithClock(client, func() time.Time { return now })

	ctx := context.Background()
	expiry, err := store.GetOrCreate(ctx, "quiz-1", "s1", 10*time.Minute)
	if err != nil {
		t.Fatalf("getOrCreate: %v", err)
	}
	if want := t0.Add(10 * time.Minute); !expiry.Equal(want) {
		t.Fatalf("expected %v, got %v", want, expiry)
	}

	// A later load reads the stored deadline, never a recomputed one.
	now = t0.Add(5 * time.Minute)
	reloaded, err := store.GetOrCreate(ctx, "quiz-1", "s1", 10*time.Minute)
	if err != nil {
		t.Fatalf("getOrCreate reload: %v", err)
	}
	if reloaded.UnixMilli() != expiry.UnixMilli() {
		t.Fatalf("reload moved deadline: %v -> %v", expiry, reloaded)
	}

	if !mr.Exists("quiz:deadline:quiz-1:s1") {
		t.Fatalf("expected redis record")
	}
}

func TestDeadlineStoreClear(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewDeadlineStore(client)
	ctx := context.Background()

	if err := store.Clear(ctx, "quiz-1", "s1"); err != nil {
		t.Fatalf("clear of absent record: %v", err)
	}

	if _, err := store.GetOrCreate(ctx, "quiz-1", "s1", time.Minute); err != nil {
		t.Fatalf("getOrCreate: %v", err)
	}
	if err := store.Clear(ctx, "quiz-1", "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("quiz:deadline:quiz-1:s1") {
		t.Fatalf("expected record removed")
	}
}
