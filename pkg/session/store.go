package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/versal-platform/botlogic/pkg/kvs"
)

const keyPrefix = "chat:"

// Entry pairs a chat identity with its decoded session, as produced by
// ScanByStatus.
type Entry struct {
	ChatID  int64
	Session *Session
}

// Store persists sessions in a kvs.Store as JSON blobs keyed by chat
// identity. Every write refreshes the TTL, so a session that is never
// touched again silently expires; callers treat that as "never
// authenticated", not as an error.
type Store struct {
	kvs kvs.Store
	ttl time.Duration
}

// NewStore creates a session store with the given TTL applied on every write.
func NewStore(kvsStore kvs.Store, ttl time.Duration) *Store {
	return &Store{kvs: kvsStore, ttl: ttl}
}

func key(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

// Get retrieves and decodes the session for a chat.
// Returns ErrNotFound when no session exists or it has expired.
func (s *Store) Get(ctx context.Context, chatID int64) (*Session, error) {
	data, err := s.kvs.Get(ctx, key(chatID))
	if err != nil {
		if errors.Is(err, kvs.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: get failed: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: undecodable record for chat %d: %w", chatID, err)
	}
	return &sess, nil
}

// Set encodes and writes the session, refreshing the TTL.
func (s *Store) Set(ctx context.Context, chatID int64, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal failed: %w", err)
	}
	if err := s.kvs.Set(ctx, key(chatID), data, s.ttl); err != nil {
		return fmt.Errorf("session: set failed: %w", err)
	}
	return nil
}

// Delete removes the session for a chat. Missing sessions are not an error.
func (s *Store) Delete(ctx context.Context, chatID int64) error {
	if err := s.kvs.Delete(ctx, key(chatID)); err != nil {
		return fmt.Errorf("session: delete failed: %w", err)
	}
	return nil
}

// ScanByStatus returns every stored session with the given status.
// Records that vanish mid-scan or fail to decode are skipped; a sweep
// over the result must tolerate both.
func (s *Store) ScanByStatus(ctx context.Context, status Status) ([]Entry, error) {
	keys, err := s.kvs.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("session: scan failed: %w", err)
	}

	entries := make([]Entry, 0)
	for _, k := range keys {
		chatID, err := strconv.ParseInt(strings.TrimPrefix(k, keyPrefix), 10, 64)
		if err != nil {
			continue
		}
		sess, err := s.Get(ctx, chatID)
		if err != nil {
			continue
		}
		if sess.Status == status {
			entries = append(entries, Entry{ChatID: chatID, Session: sess})
		}
	}
	return entries, nil
}

// Close closes the underlying KVS store.
func (s *Store) Close() error {
	return s.kvs.Close()
}
