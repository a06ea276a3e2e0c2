package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NumberStore issues the daily sequence used in human-readable booking
// numbers (EV-<yymmdd>-<seq>).
type NumberStore struct {
	client *redis.Client
}

// NewNumberStore creates a new NumberStore.
func NewNumberStore(client *redis.Client) *NumberStore {
	return &NumberStore{client: client}
}

// NextBookingSequence returns the next sequence number for the given
// day. The counter key expires after 48 hours; it only needs to survive
// the day it numbers.
func (s *NumberStore) NextBookingSequence(ctx context.Context, day time.Time) (int64, error) {
	key := fmt.Sprintf("seq:booking:%s", day.Format("060102"))

	seq, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	// Best effort; a counter that never expires is harmless.
	_ = s.client.Expire(ctx, key, 48*time.Hour).Err()

	return seq, nil
}
