package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/infra/memory"
)

type brokenDeadlineStore struct{}

func (brokenDeadlineStore) GetOrCreate(context.Context, string, string, time.Duration) (time.Time, error) {
	return time.Time{}, errors.New("storage unavailable")
}

func (brokenDeadlineStore) Clear(context.Context, string, string) error {
	return errors.New("storage unavailable")
}

func TestFallbackStoreDegradesToMemory(t *testing.T) {
	ctx := context.Background()
	fallback := memory.NewDeadlineStore()
	store := app.NewFallbackDeadlineStore(brokenDeadlineStore{}, fallback)

	first, err := store.GetOrCreate(ctx, "quiz-1", "s1", time.Minute)
	if err != nil {
		t.Fatalf("expected fallback to absorb primary failure, got %v", err)
	}

	// The fallback keeps the idempotence contract for the degraded record.
	again, err := store.GetOrCreate(ctx, "quiz-1", "s1", time.Minute)
	if err != nil {
		t.Fatalf("second getOrCreate: %v", err)
	}
	if !again.Equal(first) {
		t.Fatalf("degraded deadline moved: %v -> %v", first, again)
	}

	if err := store.Clear(ctx, "quiz-1", "s1"); err != nil {
		t.Fatalf("clear should succeed via fallback, got %v", err)
	}
	fresh, _ := store.GetOrCreate(ctx, "quiz-1", "s1", time.Minute)
	if fresh.Equal(first) {
		t.Fatalf("record survived clear")
	}
}
