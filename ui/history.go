package ui

import (
	"bytes"
	"sync"
	"time"
)

// EntryKind identifies where a history line came from.
type EntryKind int

const (
	EntryStatus EntryKind = iota
	EntryError
	EntryLog
)

func (k EntryKind) Label() string {
	switch k {
	case EntryStatus:
		return "INFO"
	case EntryError:
		return "ERR"
	case EntryLog:
		return "LOG"
	default:
		return "UNK"
	}
}

// Entry is one line of the status history.
type Entry struct {
	Timestamp time.Time
	Kind      EntryKind
	Message   string
}

// historyBuffer is a fixed-size ring of entries; the oldest is evicted first.
// Append may be called from any goroutine.
type historyBuffer struct {
	mu      sync.Mutex
	entries []Entry
	head    int
	count   int
	evicted uint64
}

func newHistoryBuffer(maxCount int) *historyBuffer {
	if maxCount <= 0 {
		maxCount = 1
	}
	return &historyBuffer{entries: make([]Entry, maxCount)}
}

func (b *historyBuffer) Append(e Entry) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == len(b.entries) {
		b.head = (b.head + 1) % len(b.entries)
		b.count--
		b.evicted++
	}
	b.entries[(b.head+b.count)%len(b.entries)] = e
	b.count++
}

// Snapshot returns the entries oldest first.
func (b *historyBuffer) Snapshot() []Entry {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, b.count)
	for i := range out {
		out[i] = b.entries[(b.head+i)%len(b.entries)]
	}
	return out
}

// historyWriter turns log output into EntryLog lines.
type historyWriter struct {
	mu  sync.Mutex
	buf []byte
	dst *historyBuffer
	now func() time.Time
}

const historyWriterMaxBytes = 16 * 1024

func (w *historyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	if len(w.buf) > historyWriterMaxBytes {
		w.buf = w.buf[len(w.buf)-historyWriterMaxBytes:]
	}
	var lines []string
	for {
		idx := bytes.IndexByte(w.buf, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, string(bytes.TrimRight(w.buf[:idx], "\r")))
		w.buf = w.buf[idx+1:]
	}
	w.mu.Unlock()

	now := time.Now
	if w.now != nil {
		now = w.now
	}
	for _, line := range lines {
		w.dst.Append(Entry{Timestamp: now(), Kind: EntryLog, Message: line})
	}
	return len(p), nil
}
