package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// deadlineGrace keeps the record alive past the attempt window so a clear
// after a late submission still finds it, and so reconnects right around
// expiry read the original deadline instead of minting a new one.
const deadlineGrace = time.Hour

// DeadlineStore persists attempt expiries in Redis so they survive client
// reloads and service restarts. The expiry for an attempt is written with
// SETNX: whoever writes first fixes the deadline, every later call reads the
// stored value unchanged.
type DeadlineStore struct {
	client *goredis.Client
	clock  func() time.Time
}

func NewDeadlineStore(client *goredis.Client) *DeadlineStore {
	return &DeadlineStore{client: client, clock: time.Now}
}

// NewDeadlineStoreWithClock allows deterministic expiries in tests.
func NewDeadlineStoreWithClock(client *goredis.Client, clock func() time.Time) *DeadlineStore {
	return &DeadlineStore{client: client, clock: clock}
}

func (s *DeadlineStore) GetOrCreate(ctx context.Context, quizID, studentID string, d time.Duration) (time.Time, error) {
	key := s.key(quizID, studentID)
	candidate := s.clock().Add(d)

	for i := 0; i < 2; i++ {
		ok, err := s.client.SetNX(ctx, key, candidate.UnixMilli(), d+deadlineGrace).Result()
		if err != nil {
			return time.Time{}, fmt.Errorf("set deadline: %w", err)
		}
		if ok {
			return candidate, nil
		}
		millis, err := s.client.Get(ctx, key).Int64()
		if err == goredis.Nil {
			// Lost a race with an expiring key; write again.
			continue
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("get deadline: %w", err)
		}
		return time.UnixMilli(millis), nil
	}
	return candidate, nil
}

func (s *DeadlineStore) Clear(ctx context.Context, quizID, studentID string) error {
	// DEL of an absent key is a no-op, which is exactly the contract.
	if err := s.client.Del(ctx, s.key(quizID, studentID)).Err(); err != nil {
		return fmt.Errorf("clear deadline: %w", err)
	}
	return nil
}

func (s *DeadlineStore) key(quizID, studentID string) string {
	return "quiz:deadline:" + quizID + ":" + studentID
}
