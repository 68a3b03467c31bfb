package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultJournalTTL = 24 * time.Hour

// TxJournal records transactions whose confirmation was not observed.
// Key format: pending:<op>:<product_id>, value is the tx hash.
type TxJournal struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTxJournal wraps client. Entries expire after ttl (24h when ttl <= 0).
func NewTxJournal(client *redis.Client, ttl time.Duration) *TxJournal {
	if ttl <= 0 {
		ttl = defaultJournalTTL
	}
	return &TxJournal{client: client, ttl: ttl}
}

// Pending returns the recorded tx hash, or "" when none is recorded.
func (j *TxJournal) Pending(ctx context.Context, op, productID string) (string, error) {
	hash, err := j.client.Get(ctx, j.key(op, productID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("journal get: %w", err)
	}
	return hash, nil
}

// MarkPending stores txHash for the operation and product.
func (j *TxJournal) MarkPending(ctx context.Context, op, productID, txHash string) error {
	if err := j.client.Set(ctx, j.key(op, productID), txHash, j.ttl).Err(); err != nil {
		return fmt.Errorf("journal set: %w", err)
	}
	return nil
}

// Clear drops any pending record for the operation and product.
func (j *TxJournal) Clear(ctx context.Context, op, productID string) error {
	if err := j.client.Del(ctx, j.key(op, productID)).Err(); err != nil {
		return fmt.Errorf("journal del: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (j *TxJournal) Ping(ctx context.Context) error {
	return j.client.Ping(ctx).Err()
}

func (j *TxJournal) key(op, productID string) string {
	return fmt.Sprintf("pending:%s:%s", op, productID)
}
