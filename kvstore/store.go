// Package kvstore is the durable key/value contract the group layer persists
// into, with Pebble, SQLite and in-memory backends. Values are opaque text;
// Apply commits a batch of sets and deletes atomically.
package kvstore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"syscall"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("kvstore: store is closed")
	// ErrQuotaExceeded is returned when a write would exceed a backend's capacity.
	ErrQuotaExceeded = errors.New("kvstore: storage quota exceeded")
)

// quotaError marks err with ErrQuotaExceeded when full reports that the
// backend ran out of space (ENOSPC always counts).
func quotaError(err error, full func(error) bool) error {
	if err == nil || errors.Is(err, ErrQuotaExceeded) {
		return err
	}
	if errors.Is(err, syscall.ENOSPC) || (full != nil && full(err)) {
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	}
	return err
}

// OpKind selects what an Op does.
type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
)

// Op is one mutation inside an atomic batch.
type Op struct {
	Kind  OpKind
	Key   string
	Value string
}

// Set builds a set operation.
func Set(key, value string) Op {
	return Op{Kind: OpSet, Key: key, Value: value}
}

// Delete builds a delete operation.
func Delete(key string) Op {
	return Op{Kind: OpDelete, Key: key}
}

// Store is the storage medium contract.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	// Keys lists keys starting with prefix in ascending order.
	Keys(prefix string) ([]string, error)
	// Apply commits ops atomically, in order.
	Apply(ops []Op) error
	Close() error
}

// Stats summarizes a store for status output.
type Stats struct {
	Keys  int
	Bytes int64
}

// Measure walks every key under prefix and totals key and value sizes.
func Measure(s Store, prefix string) (Stats, error) {
	keys, err := s.Keys(prefix)
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, key := range keys {
		value, ok, err := s.Get(key)
		if err != nil {
			return Stats{}, err
		}
		if !ok {
			continue
		}
		st.Keys++
		st.Bytes += int64(len(key) + len(value))
	}
	return st, nil
}

func sortedWithPrefix(keys []string, prefix string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
