package totpflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	totpKeyPrefix = "tfw"

	// Deactivated records stay readable well past their expiry so that late
	// redemption attempts observe Inactive rather than NotFound.
	redisRecordRetention = 24 * time.Hour
)

var errRedisUnavailable = errors.New("totp redis unavailable")

// RedisStore is a batteries-included [Store] backed by Redis. Records are
// JSON-encoded under a hashed key; retention past expiry is bounded by key
// TTL rather than explicit deletion, honoring the deactivate-don't-delete
// lifecycle.
//
// Reads and partial updates are plain GET/SET: the protocol's
// invalidate-before-issue discipline tolerates the resulting write races.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. An empty prefix selects the
// default.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = totpKeyPrefix
	}
	return &RedisStore{redis: client, prefix: prefix}
}

// Signed tokens run long; keys are their SHA-256 so key size stays bounded.
func (s *RedisStore) key(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

type redisRecord struct {
	Hash      string     `json:"hash"`
	Active    bool       `json:"active"`
	Attempts  int        `json:"attempts"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// StoreTOTP creates the record. Key TTL is expiry plus the retention window
// when the record carries an expiry, unbounded otherwise.
func (s *RedisStore) StoreTOTP(ctx context.Context, record Record) error {
	encoded, err := json.Marshal(redisRecord{
		Hash:      record.Hash,
		Active:    record.Active,
		Attempts:  record.Attempts,
		ExpiresAt: record.ExpiresAt,
	})
	if err != nil {
		return err
	}

	var ttl time.Duration
	if record.ExpiresAt != nil {
		ttl = time.Until(*record.ExpiresAt) + redisRecordRetention
		if ttl <= 0 {
			ttl = redisRecordRetention
		}
	}

	if err := s.redis.Set(ctx, s.key(record.Hash), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return nil
}

// HandleTOTP reads the record by hash, applying the patch first when one is
// given. A missing record yields (nil, nil).
func (s *RedisStore) HandleTOTP(ctx context.Context, hash string, patch *RecordPatch) (*Record, error) {
	key := s.key(hash)

	data, err := s.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}

	var stored redisRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	record := Record{
		Hash:      stored.Hash,
		Active:    stored.Active,
		Attempts:  stored.Attempts,
		ExpiresAt: stored.ExpiresAt,
	}
	if patch == nil {
		return &record, nil
	}

	if patch.Active != nil {
		record.Active = *patch.Active
	}
	if patch.Attempts != nil {
		record.Attempts = *patch.Attempts
	}
	if patch.ExpiresAt != nil {
		record.ExpiresAt = patch.ExpiresAt
	}

	encoded, err := json.Marshal(redisRecord{
		Hash:      record.Hash,
		Active:    record.Active,
		Attempts:  record.Attempts,
		ExpiresAt: record.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, key, encoded, redis.KeepTTL).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}

	return &record, nil
}
