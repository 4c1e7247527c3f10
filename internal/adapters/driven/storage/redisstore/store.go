// Package redisstore provides a Redis-backed driven.ConversationStore so that
// several pagechat processes can share page histories.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
	"github.com/msantosh308/ai-chrome-assistant/internal/logger"
)

// KeyPrefix namespaces every Redis key written by the store.
const KeyPrefix = "pagechat:"

var _ driven.ConversationStore = (*Store)(nil)

// Store keeps each history as a list of JSON messages plus a version counter.
// Appends run under WATCH on the version key.
type Store struct {
	rdb *redis.Client
}

// Open parses a redis:// URL and connects. A URL that does not parse is
// treated as a bare host:port.
func Open(ctx context.Context, rawURL string) (*Store, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		logger.Warn("Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: rawURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return New(rdb), nil
}

// New wraps an existing client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func messagesKey(key string) string { return KeyPrefix + "msgs:" + key }
func versionKey(key string) string  { return KeyPrefix + "ver:" + key }
func indexKey() string              { return KeyPrefix + "keys" }

// Load reads the version and messages of key.
func (s *Store) Load(ctx context.Context, key string) (*domain.History, error) {
	h := &domain.History{Key: key}

	version, err := s.rdb.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	h.Version = version

	raw, err := s.rdb.LRange(ctx, messagesKey(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}
	h.Messages, err = decodeMessages(raw)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Append pushes msgs when the stored version equals expectedVersion.
func (s *Store) Append(ctx context.Context, key string, expectedVersion int64, msgs ...domain.ChatMessage) (int64, error) {
	encoded := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return 0, fmt.Errorf("encoding message: %w", err)
		}
		encoded = append(encoded, string(b))
	}

	var current int64
	txf := func(tx *redis.Tx) error {
		v, err := tx.Get(ctx, versionKey(key)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		current = v
		if current != expectedVersion {
			return domain.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(encoded) > 0 {
				pipe.RPush(ctx, messagesKey(key), encoded...)
			}
			pipe.Incr(ctx, versionKey(key))
			pipe.SAdd(ctx, indexKey(), key)
			return nil
		})
		return err
	}

	err := s.rdb.Watch(ctx, txf, versionKey(key))
	switch {
	case err == nil:
		return current + 1, nil
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return current, domain.ErrVersionConflict
	default:
		return 0, fmt.Errorf("appending messages: %w", err)
	}
}

// Clear deletes the history and drops it from the index.
func (s *Store) Clear(ctx context.Context, key string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, messagesKey(key), versionKey(key))
		pipe.SRem(ctx, indexKey(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("clearing conversation: %w", err)
	}
	return nil
}

// Keys lists indexed keys in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.rdb.SMembers(ctx, indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func decodeMessages(raw []string) ([]domain.ChatMessage, error) {
	msgs := make([]domain.ChatMessage, 0, len(raw))
	for i, r := range raw {
		var m domain.ChatMessage
		if err := json.NewDecoder(strings.NewReader(r)).Decode(&m); err != nil {
			return nil, fmt.Errorf("decoding message %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
