// Package groups keeps named channel tables (and their comment maps) in a
// kvstore.Store and tracks which one is active.
package groups

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/zeebo/xxh3"

	"chanplan/channel"
	"chanplan/csvcodec"
	"chanplan/internal/ratelimit"
	"chanplan/kvstore"
)

// storageFullLogInterval bounds how often a failing autosave is logged.
const storageFullLogInterval = 30 * time.Second

var (
	// ErrStorageFull reports that a save did not fit in storage; memory is kept.
	ErrStorageFull = errors.New("groups: storage full")
	// ErrGroupExists rejects renaming onto another stored group.
	ErrGroupExists = errors.New("groups: group already exists")
	// ErrNoActiveGroup is returned by operations that need an active group.
	ErrNoActiveGroup = errors.New("groups: no active group")
)

// Options tunes a Session. Zero values select defaults.
type Options struct {
	// MaxGroupBytes caps serialized CSV plus comments per group; <= 0 is unbounded.
	MaxGroupBytes int
	// LegacyKey is where a pre-group CSV blob may be stored.
	LegacyKey string
	// ExportName is the export file stem used when no group is active.
	ExportName string
	Logf       func(string, ...any)
}

// Session is the single owner of the working channel table, its comments and
// the active group name.
type Session struct {
	store kvstore.Store
	opts  Options

	table    *channel.Table
	comments Comments
	active   string

	savedHash uint64
	saved     bool

	fullLog *ratelimit.Counter
}

// Purpose: Build a session over store, migrating legacy data and loading the
// active group.
// Key aspects: A stale active key (group gone) leaves the session empty.
// Upstream: main wiring, tests.
// Downstream: MigrateLegacy, LoadGroup.
func Open(store kvstore.Store, opts Options) (*Session, error) {
	if store == nil {
		return nil, errors.New("groups: nil store")
	}
	if opts.LegacyKey == "" {
		opts.LegacyKey = DefaultLegacyKey
	}
	if opts.ExportName == "" {
		opts.ExportName = DefaultExportName
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	s := &Session{store: store, opts: opts, table: channel.NewTable(), comments: Comments{},
		fullLog: ratelimit.NewCounter(storageFullLogInterval)}
	if _, err := s.MigrateLegacy(); err != nil {
		return nil, err
	}
	name, ok, err := store.Get(activeKey)
	if err != nil {
		return nil, fmt.Errorf("groups: read active: %w", err)
	}
	if ok && name != "" {
		loaded, err := s.LoadGroup(name)
		if err != nil {
			return nil, err
		}
		if loaded {
			opts.Logf("Groups: loaded %q from storage", name)
		}
	}
	return s, nil
}

// MigrateLegacy wraps a legacy single CSV blob into the group "Imported",
// makes it active and removes the legacy key, all in one batch. It reports
// whether a migration happened.
func (s *Session) MigrateLegacy() (bool, error) {
	blob, ok, err := s.store.Get(s.opts.LegacyKey)
	if err != nil {
		return false, fmt.Errorf("groups: read legacy: %w", err)
	}
	if !ok || blob == "" {
		return false, nil
	}
	ops := []kvstore.Op{
		kvstore.Set(groupKey(MigrationName), blob),
		kvstore.Set(activeKey, MigrationName),
		kvstore.Delete(s.opts.LegacyKey),
	}
	if err := s.store.Apply(ops); err != nil {
		return false, storageError("migrate legacy", err)
	}
	s.opts.Logf("Groups: migrated legacy channel data into %q", MigrationName)
	return true, nil
}

// Table returns the working table. Callers mutate it and then call SaveActive.
func (s *Session) Table() *channel.Table { return s.table }

// Active returns the active group name ("" when none).
func (s *Session) Active() string { return s.active }

// Names lists stored group names in ascending order.
func (s *Session) Names() ([]string, error) {
	keys, err := s.store.Keys(groupPrefix)
	if err != nil {
		return nil, fmt.Errorf("groups: list: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, nameFromGroupKey(k))
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether name is stored.
func (s *Session) Exists(name string) (bool, error) {
	_, ok, err := s.store.Get(groupKey(name))
	if err != nil {
		return false, fmt.Errorf("groups: lookup %s: %w", name, err)
	}
	return ok, nil
}

// Import replaces the working state with text under name and saves it.
func (s *Session) Import(name, text string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNoActiveGroup
	}
	s.replace(name, channel.FromDocument(csvcodec.Parse(text)), Comments{})
	s.table.WidenHeaders()
	s.saved = false
	return s.SaveActive()
}

// Purpose: Persist the working table and comments under the active name.
// Key aspects: No-op without an active group or when nothing changed since the
// last save/load. CSV, comments and the active key go in one batch. Capacity
// failures wrap ErrStorageFull and leave memory untouched.
// Upstream: edit operations, Import, commands SAVE.
// Downstream: csvcodec.Serialize, kvstore Apply.
func (s *Session) SaveActive() error {
	if s.active == "" {
		return nil
	}
	csv := csvcodec.Serialize(s.table.ToDocument())
	comments, err := s.comments.encode()
	if err != nil {
		return fmt.Errorf("groups: encode comments: %w", err)
	}
	hash := contentHash(s.active, csv, comments)
	if s.saved && hash == s.savedHash {
		return nil
	}
	if max := s.opts.MaxGroupBytes; max > 0 && len(csv)+len(comments) > max {
		return s.storageFull(fmt.Errorf("%w: group %q needs %d bytes, limit %d", ErrStorageFull, s.active, len(csv)+len(comments), max))
	}
	ops := []kvstore.Op{
		kvstore.Set(groupKey(s.active), csv),
		kvstore.Set(commentKey(s.active), comments),
		kvstore.Set(activeKey, s.active),
	}
	if err := s.store.Apply(ops); err != nil {
		return s.storageFull(storageError("save "+s.active, err))
	}
	s.savedHash = hash
	s.saved = true
	return nil
}

// Purpose: Replace the working state with a stored group.
// Key aspects: A missing group is a silent no-op (false, nil). Headers are
// widened after parsing; the active key is updated.
// Upstream: Open, DeleteGroup, commands LOAD, ui group selector.
// Downstream: csvcodec.Parse, channel.Table.WidenHeaders.
func (s *Session) LoadGroup(name string) (bool, error) {
	csv, ok, err := s.store.Get(groupKey(name))
	if err != nil {
		return false, fmt.Errorf("groups: load %s: %w", name, err)
	}
	if !ok {
		return false, nil
	}
	raw, _, err := s.store.Get(commentKey(name))
	if err != nil {
		return false, fmt.Errorf("groups: load comments %s: %w", name, err)
	}
	s.replace(name, channel.FromDocument(csvcodec.Parse(csv)), decodeComments(raw))
	// Hash the stored form so an untouched load does not rewrite anything.
	stored, _ := s.comments.encode()
	s.savedHash = contentHash(name, csv, stored)
	s.saved = true
	s.table.WidenHeaders()
	if err := s.store.Apply([]kvstore.Op{kvstore.Set(activeKey, name)}); err != nil {
		return true, storageError("record active", err)
	}
	return true, nil
}

// Purpose: Rename the active group, moving its CSV and comment entries.
// Key aspects: Trims newName; empty or unchanged is a no-op. Stored keys are
// re-read first. With no stored group only the active name changes. A
// different existing group is never overwritten.
// Upstream: commands RENAME, ui rename input, CLI rename.
// Downstream: kvstore Apply.
func (s *Session) RenameActive(newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == s.active {
		return nil
	}
	exists, err := s.Exists(newName)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrGroupExists, newName)
	}
	ops := []kvstore.Op{kvstore.Set(activeKey, newName)}
	if s.active != "" {
		csv, ok, err := s.store.Get(groupKey(s.active))
		if err != nil {
			return fmt.Errorf("groups: rename read %s: %w", s.active, err)
		}
		if ok {
			raw, hasComments, err := s.store.Get(commentKey(s.active))
			if err != nil {
				return fmt.Errorf("groups: rename read comments %s: %w", s.active, err)
			}
			ops = append(ops, kvstore.Set(groupKey(newName), csv), kvstore.Delete(groupKey(s.active)))
			if hasComments {
				ops = append(ops, kvstore.Set(commentKey(newName), raw))
			}
			ops = append(ops, kvstore.Delete(commentKey(s.active)))
		}
	}
	if err := s.store.Apply(ops); err != nil {
		return storageError("rename "+s.active, err)
	}
	s.opts.Logf("Groups: renamed %q to %q", s.active, newName)
	s.active = newName
	s.saved = false
	return nil
}

// Purpose: Remove a stored group and its comments.
// Key aspects: Deleting the active group loads the first remaining group by
// name, or resets to an empty table and clears the active key.
// Upstream: commands DELETE, ui delete, CLI delete.
// Downstream: kvstore Apply, LoadGroup.
func (s *Session) DeleteGroup(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.active
	}
	if name == "" {
		return ErrNoActiveGroup
	}
	ops := []kvstore.Op{kvstore.Delete(groupKey(name)), kvstore.Delete(commentKey(name))}
	if err := s.store.Apply(ops); err != nil {
		return storageError("delete "+name, err)
	}
	s.opts.Logf("Groups: deleted %q", name)
	if name != s.active {
		return nil
	}
	names, err := s.Names()
	if err != nil {
		return err
	}
	if len(names) > 0 {
		_, err := s.LoadGroup(names[0])
		return err
	}
	s.replace("", channel.NewTable(), Comments{})
	if err := s.store.Apply([]kvstore.Op{kvstore.Delete(activeKey)}); err != nil {
		return storageError("clear active", err)
	}
	return nil
}

// Commit validates and writes an edit, then saves. A failed validation
// changes nothing and is not an error.
func (s *Session) Commit(slot int, c channel.Candidate) (channel.Result, error) {
	res, err := s.table.Commit(slot, c)
	if err != nil || !res.Valid {
		return res, err
	}
	return res, s.SaveActive()
}

// Clear empties a channel slot, drops its comment and saves.
func (s *Session) Clear(slot int) error {
	if _, ok := s.table.Get(slot); !ok {
		return nil
	}
	s.table.Clear(slot)
	delete(s.comments, strconv.Itoa(slot))
	return s.SaveActive()
}

// Move reorders a channel (and its comment) and saves. It reports whether
// anything moved.
func (s *Session) Move(source, target int) (bool, error) {
	_, occupied := s.table.Get(target)
	if !s.table.Reorder(source, target) {
		return false, nil
	}
	s.comments = s.comments.remap(source, target, occupied)
	return true, s.SaveActive()
}

// SetComment stores text for slot; empty text removes the comment.
func (s *Session) SetComment(slot int, text string) error {
	key := strconv.Itoa(slot)
	text = strings.TrimSpace(text)
	if text == "" {
		delete(s.comments, key)
	} else {
		s.comments[key] = text
	}
	return s.SaveActive()
}

// Comment returns the comment for slot.
func (s *Session) Comment(slot int) string {
	return s.comments[strconv.Itoa(slot)]
}

// CommentedSlots lists slots carrying a comment, ascending.
func (s *Session) CommentedSlots() []int {
	return s.comments.slots()
}

// Export serializes the working table.
func (s *Session) Export() string {
	return csvcodec.Serialize(s.table.ToDocument())
}

// ExportFilename is the suggested file name for Export.
func (s *Session) ExportFilename() string {
	if s.active != "" {
		return s.active + ".csv"
	}
	return s.opts.ExportName + ".csv"
}

// ExportGroup serializes a stored group without loading it.
func (s *Session) ExportGroup(name string) (string, bool, error) {
	csv, ok, err := s.store.Get(groupKey(name))
	if err != nil {
		return "", false, fmt.Errorf("groups: export %s: %w", name, err)
	}
	return csv, ok, nil
}

// Suggest returns the stored group name closest to name, or "" when nothing
// is within a third of the name's length.
func (s *Session) Suggest(name string) string {
	names, err := s.Names()
	if err != nil || len(names) == 0 {
		return ""
	}
	target := strings.ToLower(strings.TrimSpace(name))
	best, bestDist := "", -1
	for _, candidate := range names {
		d := levenshtein.ComputeDistance(target, strings.ToLower(candidate))
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	limit := len(target) / 3
	if limit < 1 {
		limit = 1
	}
	if bestDist > limit {
		return ""
	}
	return best
}

func (s *Session) replace(name string, table *channel.Table, comments Comments) {
	s.active = name
	s.table = table
	s.comments = comments
	s.saved = false
}

// storageFull logs capacity failures, at most once per interval, and
// returns err unchanged.
func (s *Session) storageFull(err error) error {
	if !errors.Is(err, ErrStorageFull) {
		return err
	}
	if n, ok := s.fullLog.Inc(); ok {
		s.opts.Logf("Groups: save failed %d time(s), working copy kept in memory: %v", n, err)
	}
	return err
}

func contentHash(name, csv, comments string) uint64 {
	return xxh3.HashString(name + "\x00" + csv + "\x00" + comments)
}

func storageError(action string, err error) error {
	if errors.Is(err, kvstore.ErrQuotaExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrStorageFull, action, err)
	}
	return fmt.Errorf("groups: %s: %w", action, err)
}
