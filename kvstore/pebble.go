package kvstore

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

const (
	defaultCacheSizeBytes        = int64(8 << 20) // 8MB block cache; group blobs are small
	defaultBloomFilterBits       = 10             // Bits per key for SSTable bloom filters
	defaultMemTableSizeBytes     = uint64(4 << 20)
	defaultL0CompactionThreshold = 4
	defaultL0StopWritesThreshold = 16
	defaultWriteQueueDepth       = 16 // Buffered channel depth feeding the single writer
)

// PebbleOptions controls Pebble tuning and writer buffering.
// Zero/negative fields are replaced with defaults via sanitizePebbleOptions.
type PebbleOptions struct {
	CacheSizeBytes        int64
	BloomFilterBitsPerKey int
	MemTableSizeBytes     uint64
	L0CompactionThreshold int
	L0StopWritesThreshold int
	WriteQueueDepth       int
}

// Pebble is a Store backed by a Pebble database directory. All writes go
// through one writer goroutine and are committed with Sync.
type Pebble struct {
	db     *pebble.DB
	writes chan writeRequest
	done   chan struct{}
	cache  *pebble.Cache // owned cache for the DB; unref'd on Close

	mu     sync.Mutex
	closed bool
}

type writeRequest struct {
	ops  []Op
	resp chan error
}

func sanitizePebbleOptions(opts PebbleOptions) PebbleOptions {
	if opts.CacheSizeBytes <= 0 {
		opts.CacheSizeBytes = defaultCacheSizeBytes
	}
	if opts.BloomFilterBitsPerKey <= 0 {
		opts.BloomFilterBitsPerKey = defaultBloomFilterBits
	}
	if opts.MemTableSizeBytes <= 0 {
		opts.MemTableSizeBytes = defaultMemTableSizeBytes
	}
	if opts.L0CompactionThreshold <= 0 {
		opts.L0CompactionThreshold = defaultL0CompactionThreshold
	}
	if opts.L0StopWritesThreshold <= opts.L0CompactionThreshold {
		opts.L0StopWritesThreshold = defaultL0StopWritesThreshold
		if opts.L0StopWritesThreshold <= opts.L0CompactionThreshold {
			opts.L0StopWritesThreshold = opts.L0CompactionThreshold + 4
		}
	}
	if opts.WriteQueueDepth <= 0 {
		opts.WriteQueueDepth = defaultWriteQueueDepth
	}
	return opts
}

// Purpose: Open or create the Pebble database holding channel groups.
// Key aspects: Creates the directory, applies bloom filters to all levels and
// starts the single writer goroutine.
// Upstream: main store wiring, tests.
// Downstream: pebble.Open, writeLoop.
func OpenPebble(path string, opts PebbleOptions) (*Pebble, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("kvstore: pebble path is empty")
	}
	opts = sanitizePebbleOptions(opts)

	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("kvstore: %s exists and is not a directory", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("kvstore: stat path: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("kvstore: ensure directory: %w", err)
	}

	pebbleOpts := &pebble.Options{
		Cache:                 pebble.NewCache(opts.CacheSizeBytes),
		MemTableSize:          opts.MemTableSizeBytes,
		L0CompactionThreshold: opts.L0CompactionThreshold,
		L0StopWritesThreshold: opts.L0StopWritesThreshold,
	}
	level := pebble.LevelOptions{
		FilterPolicy: bloom.FilterPolicy(opts.BloomFilterBitsPerKey),
		FilterType:   pebble.TableFilter,
	}
	// Pebble defaults to 7 levels.
	pebbleOpts.Levels = make([]pebble.LevelOptions, 7)
	for i := range pebbleOpts.Levels {
		pebbleOpts.Levels[i] = level
	}

	db, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		pebbleOpts.Cache.Unref()
		return nil, fmt.Errorf("kvstore: pebble open: %w", err)
	}
	store := &Pebble{
		db:     db,
		writes: make(chan writeRequest, opts.WriteQueueDepth),
		done:   make(chan struct{}),
		cache:  pebbleOpts.Cache,
	}
	go store.writeLoop()
	return store, nil
}

// Close drains the writer goroutine before closing Pebble.
func (s *Pebble) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if !s.closeWriter() {
		return nil
	}
	<-s.done
	err := s.db.Close()
	if s.cache != nil {
		s.cache.Unref()
		s.cache = nil
	}
	return err
}

func (s *Pebble) Get(key string) (string, bool, error) {
	if s.isClosed() {
		return "", false, ErrClosed
	}
	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	defer closer.Close()
	return string(value), true, nil
}

func (s *Pebble) Keys(prefix string) ([]string, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	iter, err := s.db.NewIter(iterOptionsForPrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("kvstore: keys iterator: %w", err)
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("kvstore: iterate keys: %w", err)
	}
	return keys, nil
}

// Apply hands the batch to the writer goroutine and waits for the commit.
func (s *Pebble) Apply(ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	resp := make(chan error, 1)
	if err := s.enqueue(writeRequest{ops: ops, resp: resp}); err != nil {
		return err
	}
	return <-resp
}

func (s *Pebble) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Pebble) enqueue(req writeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.writes <- req
	return nil
}

func (s *Pebble) closeWriter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.writes)
	return true
}

func (s *Pebble) writeLoop() {
	defer close(s.done)
	for req := range s.writes {
		err := s.applyBatch(req.ops)
		if req.resp != nil {
			req.resp <- err
		}
	}
}

// applyBatch commits ops as one Pebble batch with Sync for durability.
func (s *Pebble) applyBatch(ops []Op) error {
	batch := s.db.NewBatch()
	defer batch.Close()
	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			if err := batch.Set([]byte(op.Key), []byte(op.Value), nil); err != nil {
				return fmt.Errorf("kvstore: batch set %s: %w", op.Key, err)
			}
		case OpDelete:
			if err := batch.Delete([]byte(op.Key), nil); err != nil {
				return fmt.Errorf("kvstore: batch delete %s: %w", op.Key, err)
			}
		default:
			return fmt.Errorf("kvstore: unknown op kind %d", op.Kind)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return quotaError(fmt.Errorf("kvstore: batch commit: %w", err), nil)
	}
	return nil
}

func iterOptionsForPrefix(prefix string) *pebble.IterOptions {
	lower := []byte(prefix)
	return &pebble.IterOptions{LowerBound: lower, UpperBound: prefixUpperBound(lower)}
}

func prefixUpperBound(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xFF {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
