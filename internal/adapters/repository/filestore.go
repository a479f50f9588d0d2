package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/myskills/skillhub/pkg/metrics"
)

// Default write retry configuration. A failed write is retried once
// with backoff before the operation is surfaced as fatal.
const (
	defaultRetryAttempts = 2
	defaultRetryDelay    = 50 * time.Millisecond
	collectionFileMode   = 0o644
)

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithRetryDelay sets the backoff delay between write attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(s *FileStore) {
		if delay > 0 {
			s.retryDelay = delay
		}
	}
}

// WithRetryAttempts sets the total number of write attempts.
func WithRetryAttempts(attempts uint) Option {
	return func(s *FileStore) {
		if attempts > 0 {
			s.retryAttempts = attempts
		}
	}
}

// FileStore implements Store with one JSON document per collection.
// Writes go to a temp file in the same directory followed by a rename,
// so a crash mid-write never corrupts the previous document.
type FileStore struct {
	dataDir       string
	retryAttempts uint
	retryDelay    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a FileStore rooted at dataDir, creating the
// directory if needed.
func NewFileStore(dataDir string, opts ...Option) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %w", ErrStorage, err)
	}
	s := &FileStore{
		dataDir:       dataDir,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
		locks:         make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// lock returns the mutex guarding one collection.
func (s *FileStore) lock(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dataDir, collection+".json")
}

// Load reads a collection document into v. A collection that was never
// saved leaves v untouched.
func (s *FileStore) Load(ctx context.Context, collection string, v any) error {
	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		metrics.RecordErrorByComponent("store", "read")
		return fmt.Errorf("%w: read %s: %w", ErrStorage, collection, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		metrics.RecordErrorByComponent("store", "decode")
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, collection, err)
	}
	return nil
}

// Save atomically replaces a collection document with the JSON
// encoding of v. The write is retried once with backoff before the
// error is surfaced; a failure never affects other collections.
func (s *FileStore) Save(ctx context.Context, collection string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrStorage, collection, err)
	}

	l := s.lock(collection)
	l.Lock()
	defer l.Unlock()

	start := time.Now()
	err = retry.Do(
		func() error { return s.writeAtomic(collection, data) },
		retry.Attempts(s.retryAttempts),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	metrics.RecordStoreWriteDuration(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordErrorByComponent("store", "write")
		return fmt.Errorf("%w: write %s: %w", ErrStorage, collection, err)
	}
	return nil
}

// writeAtomic performs a single temp-file-then-rename write.
func (s *FileStore) writeAtomic(collection string, data []byte) error {
	tmp, err := os.CreateTemp(s.dataDir, collection+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, collectionFileMode); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path(collection))
}
