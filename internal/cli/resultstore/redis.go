package resultstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"ocontest/internal/submission"
	pkgerrors "ocontest/pkg/errors"
	"ocontest/pkg/utils/contextkey"
	"ocontest/pkg/utils/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "ocontest:result:"

// RedisConfig holds the configuration for the Redis-backed store.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	TTL          time.Duration
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// DefaultRedisConfig returns a RedisConfig sized for a single interactive client.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		TTL:          30 * time.Minute,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	}
}

// RedisStore shares the latest results between client instances through Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings Redis.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, pkgerrors.New(pkgerrors.CacheError).WithMessage("redis addr cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, pkgerrors.Wrapf(err, pkgerrors.CacheError, "failed to ping redis: %v", err)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CacheError).WithMessage("redis client cannot be nil")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func resultKey(submissionID string) string {
	return keyPrefix + submissionID
}

func (s *RedisStore) Get(ctx context.Context, submissionID string) (submission.Result, bool, error) {
	raw, err := s.client.Get(ctx, resultKey(submissionID)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return submission.Result{}, false, nil
	}
	if err != nil {
		return submission.Result{}, false, pkgerrors.Wrapf(err, pkgerrors.CacheError, "read cached result failed: %v", err)
	}
	var result submission.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return submission.Result{}, false, pkgerrors.Wrapf(err, pkgerrors.CacheError, "decode cached result failed: %v", err)
	}
	return result, true, nil
}

// Put swaps the stored value atomically and compares it with the previous one.
func (s *RedisStore) Put(ctx context.Context, submissionID string, result submission.Result) (bool, error) {
	ctx = context.WithValue(ctx, contextkey.SubmissionID, submissionID)
	data, err := json.Marshal(result)
	if err != nil {
		return false, pkgerrors.Wrapf(err, pkgerrors.CacheError, "encode result failed: %v", err)
	}

	key := resultKey(submissionID)
	var previous *redis.StringCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		previous = pipe.GetSet(ctx, key, data)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil && !stderrors.Is(err, redis.Nil) {
		logger.Warn(ctx, "store result in redis failed", zap.Error(err))
		return false, pkgerrors.Wrapf(err, pkgerrors.CacheError, "store result failed: %v", err)
	}

	old, err := previous.Bytes()
	if stderrors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, pkgerrors.Wrapf(err, pkgerrors.CacheError, "read previous result failed: %v", err)
	}
	var prev submission.Result
	if err := json.Unmarshal(old, &prev); err != nil {
		logger.Debug(ctx, "previous cached result unreadable", zap.Error(err))
		return true, nil
	}
	return !prev.Equal(result), nil
}

func (s *RedisStore) Delete(ctx context.Context, submissionID string) error {
	if err := s.client.Del(ctx, resultKey(submissionID)).Err(); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.CacheError, "delete cached result failed: %v", err)
	}
	return nil
}

// TTL reports the remaining lifetime of a cached result.
func (s *RedisStore) TTL(ctx context.Context, submissionID string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, resultKey(submissionID)).Result()
	if err != nil {
		return 0, pkgerrors.Wrapf(err, pkgerrors.CacheError, "read ttl failed: %v", err)
	}
	return ttl, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
