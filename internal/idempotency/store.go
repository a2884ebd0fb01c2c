// Package idempotency stores request outcomes keyed by the client-supplied
// Idempotency-Key header, so that a retried mutation replays the original
// response instead of running twice.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound     = errors.New("idempotency key not found")
	ErrHashMismatch = errors.New("idempotency key body mismatch")
	ErrInProgress   = errors.New("idempotency key in progress")
)

const redisKeyPrefix = "idempotency"

// Record is a finished request outcome replayable to a retrying client.
type Record struct {
	Key         string
	RequestHash string
	Status      int
	Body        []byte
	ContentType string
}

// Store keeps idempotency state in Redis. A key is reserved with SET NX
// before the handler runs and finalized with the response afterwards; both
// states share a TTL so abandoned keys clean themselves up.
type Store struct {
	redis redis.Cmdable
	ttl   time.Duration
}

func NewStore(redis redis.Cmdable, ttl time.Duration) *Store {
	return &Store{redis: redis, ttl: ttl}
}

type envelope struct {
	Hash        string `json:"hash"`
	InProgress  bool   `json:"in_progress"`
	Status      int    `json:"status"`
	Body        []byte `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// Lookup returns the finished record for the key. ErrNotFound when the key
// was never reserved, ErrInProgress while the first request is still running,
// ErrHashMismatch when the key is being reused with a different body.
func (s *Store) Lookup(ctx context.Context, key, requestHash string) (*Record, error) {
	val, err := s.redis.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	if env.Hash != requestHash {
		return nil, ErrHashMismatch
	}
	if env.InProgress {
		return nil, ErrInProgress
	}
	return &Record{
		Key:         key,
		RequestHash: env.Hash,
		Status:      env.Status,
		Body:        env.Body,
		ContentType: env.ContentType,
	}, nil
}

// Reserve claims the key for the current request. Returns true when the
// caller won the reservation and should run the handler, false when the key
// already exists.
func (s *Store) Reserve(ctx context.Context, key, requestHash string) (bool, error) {
	payload, err := json.Marshal(envelope{Hash: requestHash, InProgress: true})
	if err != nil {
		return false, fmt.Errorf("encode idempotency reservation: %w", err)
	}
	ok, err := s.redis.SetNX(ctx, redisKey(key), payload, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Finalize replaces the reservation with the handler's response so later
// retries replay it.
func (s *Store) Finalize(ctx context.Context, key, requestHash string, status int, body []byte, contentType string) (*Record, error) {
	payload, err := json.Marshal(envelope{
		Hash:        requestHash,
		Status:      status,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("encode idempotency record: %w", err)
	}
	if err := s.redis.Set(ctx, redisKey(key), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("finalize idempotency key: %w", err)
	}
	return &Record{
		Key:         key,
		RequestHash: requestHash,
		Status:      status,
		Body:        body,
		ContentType: contentType,
	}, nil
}

// Release drops a reservation after a handler failure, letting the client
// retry immediately.
func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// WaitForCompletion polls until the in-flight request holding the key
// finalizes, the context ends, or the lookup fails for another reason.
func (s *Store) WaitForCompletion(ctx context.Context, key, requestHash string) (*Record, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		rec, err := s.Lookup(ctx, key, requestHash)
		if err == nil {
			return rec, nil
		}
		if errors.Is(err, ErrInProgress) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-ticker.C:
				continue
			}
		}
		return nil, err
	}
}

func redisKey(key string) string {
	return fmt.Sprintf("%s:%s", redisKeyPrefix, key)
}
