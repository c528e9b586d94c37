package kvs

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBStore is a filesystem-backed Store. TTLs are enforced by an
// 8-byte big-endian Unix-nano deadline prepended to every value, checked
// on read and swept by a background goroutine.
type LevelDBStore struct {
	prefix string
	db     *leveldb.DB
	mu     sync.RWMutex
	closed bool
	stop   chan struct{}
	done   chan struct{}
}

// NewLevelDBStore opens (or creates) a LevelDB store at cfg.Path.
func NewLevelDBStore(namespace string, cfg LevelDBConfig) (*LevelDBStore, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		dir := "botlogic"
		if namespace != "" {
			dir = dir + "-" + sanitize(namespace)
		}
		dbPath = filepath.Join(cacheDir, dir)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kvs/leveldb: failed to create directory: %w", err)
	}

	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		if _, corrupted := err.(*ldberrors.ErrCorrupted); corrupted {
			db, err = leveldb.RecoverFile(dbPath, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("kvs/leveldb: failed to open %s: %w", dbPath, err)
		}
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}

	s := &LevelDBStore{
		prefix: namespacePrefix(namespace),
		db:     db,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.cleanupLoop(interval)
	return s, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, s)
}

// encodeValue prepends the expiry deadline (0 = no expiry) to the payload.
func encodeValue(value []byte, ttl time.Duration) []byte {
	buf := make([]byte, 8+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf, uint64(time.Now().Add(ttl).UnixNano()))
	}
	copy(buf[8:], value)
	return buf
}

// decodeValue splits the deadline off the payload, reporting expiry.
func decodeValue(raw []byte) ([]byte, bool) {
	if len(raw) < 8 {
		return nil, true
	}
	deadline := binary.BigEndian.Uint64(raw)
	if deadline != 0 && time.Now().UnixNano() > int64(deadline) {
		return nil, true
	}
	return raw[8:], false
}

func (s *LevelDBStore) cleanupLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *LevelDBStore) sweepExpired() {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	s.mu.RUnlock()

	iter := s.db.NewIterator(util.BytesPrefix([]byte(s.prefix)), nil)
	defer iter.Release()

	var expired [][]byte
	for iter.Next() {
		if _, gone := decodeValue(iter.Value()); gone {
			k := make([]byte, len(iter.Key()))
			copy(k, iter.Key())
			expired = append(expired, k)
		}
	}
	for _, k := range expired {
		_ = s.db.Delete(k, nil)
	}
}

// Get retrieves a value by key.
func (s *LevelDBStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	raw, err := s.db.Get([]byte(s.prefix+key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kvs/leveldb: get failed: %w", err)
	}

	value, expired := decodeValue(raw)
	if expired {
		// Lazy deletion; the cleanup loop would get it eventually.
		_ = s.db.Delete([]byte(s.prefix+key), nil)
		return nil, ErrNotFound
	}
	return value, nil
}

// Set stores a value, resetting any previous TTL.
func (s *LevelDBStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.db.Put([]byte(s.prefix+key), encodeValue(value, ttl), nil); err != nil {
		return fmt.Errorf("kvs/leveldb: put failed: %w", err)
	}
	return nil
}

// Delete removes a key.
func (s *LevelDBStore) Delete(_ context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.db.Delete([]byte(s.prefix+key), nil); err != nil {
		return fmt.Errorf("kvs/leveldb: delete failed: %w", err)
	}
	return nil
}

// Keys returns all live keys with the given prefix.
func (s *LevelDBStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	iter := s.db.NewIterator(util.BytesPrefix([]byte(s.prefix+prefix)), nil)
	defer iter.Release()

	keys := make([]string, 0)
	for iter.Next() {
		if _, expired := decodeValue(iter.Value()); expired {
			continue
		}
		keys = append(keys, strings.TrimPrefix(string(iter.Key()), s.prefix))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("kvs/leveldb: iterator failed: %w", err)
	}
	return keys, nil
}

// Close stops the cleanup goroutine and closes the database.
func (s *LevelDBStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return s.db.Close()
}
