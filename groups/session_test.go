package groups

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"chanplan/channel"
	"chanplan/kvstore"
)

const sampleCSV = "title,tx_freq,rx_freq,tx_sub_audio(ctcss=freq/dcs=number),rx_sub_audio(ctcss=freq/dcs=number),bandwidth(12500/25000),scan(0=off/1=on)\n" +
	"RPT1,145000000,145600000,8850,8850,25000,1\n" +
	"\n" +
	"SIMP,146520000,146520000,0,0,12500,0"

// countingStore records how many batches reach the backend.
type countingStore struct {
	kvstore.Store
	applies int
}

func (c *countingStore) Apply(ops []kvstore.Op) error {
	c.applies++
	return c.Store.Apply(ops)
}

func quiet(string, ...any) {}

func openSession(t *testing.T, store kvstore.Store, opts Options) *Session {
	t.Helper()
	if opts.Logf == nil {
		opts.Logf = quiet
	}
	s, err := Open(store, opts)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return s
}

func mustGet(t *testing.T, store kvstore.Store, key string) string {
	t.Helper()
	v, ok, err := store.Get(key)
	if err != nil || !ok {
		t.Fatalf("expected key %s, ok=%v err=%v", key, ok, err)
	}
	return v
}

func TestOpenMigratesLegacyBlob(t *testing.T) {
	store := kvstore.NewMemory(0)
	if err := store.Apply([]kvstore.Op{kvstore.Set(DefaultLegacyKey, sampleCSV)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := openSession(t, store, Options{})
	if s.Active() != MigrationName {
		t.Fatalf("expected active %q, got %q", MigrationName, s.Active())
	}
	if _, ok, _ := store.Get(DefaultLegacyKey); ok {
		t.Fatalf("expected legacy key removed")
	}
	if got := mustGet(t, store, activeKey); got != MigrationName {
		t.Fatalf("active key = %q", got)
	}
	if got := s.Table().Field(0, channel.HeaderFor(channel.KeyTitle)); got != "RPT1" {
		t.Fatalf("expected migrated table loaded, title=%q", got)
	}

	migrated, err := s.MigrateLegacy()
	if err != nil || migrated {
		t.Fatalf("second migration should be a no-op, got %v %v", migrated, err)
	}
}

func TestImportPersistsAndReopens(t *testing.T) {
	store := kvstore.NewMemory(0)
	s := openSession(t, store, Options{})
	if err := s.Import("Field Day", sampleCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(s.Table().Headers()) != len(channel.CanonicalColumns) {
		t.Fatalf("expected widened headers, got %v", s.Table().Headers())
	}

	reopened := openSession(t, store, Options{})
	if reopened.Active() != "Field Day" {
		t.Fatalf("expected active group restored, got %q", reopened.Active())
	}
	if _, ok := reopened.Table().Get(1); ok {
		t.Fatalf("expected slot 2 to stay empty")
	}
	if got := reopened.Table().Field(2, channel.HeaderFor(channel.KeyTitle)); got != "SIMP" {
		t.Fatalf("slot 3 title = %q", got)
	}
}

func TestSaveWithoutActiveGroupIsNoop(t *testing.T) {
	store := &countingStore{Store: kvstore.NewMemory(0)}
	s := openSession(t, store, Options{})
	if err := s.SaveActive(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.applies != 0 {
		t.Fatalf("expected no writes, got %d", store.applies)
	}
}

func TestSaveSkipsUnchangedContent(t *testing.T) {
	store := &countingStore{Store: kvstore.NewMemory(0)}
	s := openSession(t, store, Options{})
	if err := s.Import("Base", sampleCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	before := store.applies
	if err := s.SaveActive(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.applies != before {
		t.Fatalf("expected unchanged save to skip the write")
	}
	if err := s.SetComment(0, "club repeater"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if store.applies != before+1 {
		t.Fatalf("expected a write after a comment change, got %d", store.applies-before)
	}
}

func TestSaveOverGroupLimitKeepsMemory(t *testing.T) {
	s := openSession(t, kvstore.NewMemory(0), Options{MaxGroupBytes: 64})
	err := s.Import("Big", sampleCSV)
	if !errors.Is(err, ErrStorageFull) {
		t.Fatalf("expected ErrStorageFull, got %v", err)
	}
	if s.Active() != "Big" || s.Table().Populated() != 2 {
		t.Fatalf("expected in-memory state intact, active=%q populated=%d", s.Active(), s.Table().Populated())
	}
	if ok, _ := s.Exists("Big"); ok {
		t.Fatalf("expected nothing stored")
	}
}

func TestSaveBackendQuotaIsStorageFull(t *testing.T) {
	s := openSession(t, kvstore.NewMemory(32), Options{})
	if err := s.Import("Quota", sampleCSV); !errors.Is(err, ErrStorageFull) {
		t.Fatalf("expected ErrStorageFull from backend quota, got %v", err)
	}
}

func TestStorageFullLoggedOncePerInterval(t *testing.T) {
	var lines []string
	logf := func(format string, args ...any) { lines = append(lines, format) }
	s := openSession(t, kvstore.NewMemory(0), Options{MaxGroupBytes: 64, Logf: logf})
	if err := s.Import("Big", sampleCSV); !errors.Is(err, ErrStorageFull) {
		t.Fatalf("expected ErrStorageFull, got %v", err)
	}
	for slot := 0; slot < 3; slot++ {
		if err := s.SetComment(0, strings.Repeat("x", slot+1)); !errors.Is(err, ErrStorageFull) {
			t.Fatalf("expected ErrStorageFull on comment, got %v", err)
		}
	}
	if len(lines) != 1 {
		t.Fatalf("expected a single storage-full log line, got %d", len(lines))
	}
}

func TestLoadMissingGroupIsNoop(t *testing.T) {
	s := openSession(t, kvstore.NewMemory(0), Options{})
	if err := s.Import("Base", sampleCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	loaded, err := s.LoadGroup("Nope")
	if err != nil || loaded {
		t.Fatalf("expected silent no-op, got %v %v", loaded, err)
	}
	if s.Active() != "Base" || s.Table().Populated() != 2 {
		t.Fatalf("state changed by missing load")
	}
}

func TestLoadWidensNarrowGroup(t *testing.T) {
	store := kvstore.NewMemory(0)
	if err := store.Apply([]kvstore.Op{kvstore.Set(groupKey("Old"), "title,tx_freq\nA,145000000")}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := openSession(t, store, Options{})
	if ok, err := s.LoadGroup("Old"); err != nil || !ok {
		t.Fatalf("load: %v %v", ok, err)
	}
	headers := s.Table().Headers()
	if len(headers) != len(channel.CanonicalColumns) {
		t.Fatalf("expected widened headers, got %d", len(headers))
	}
	row, _ := s.Table().Get(0)
	if got := row.Cells[len(row.Cells)-1]; got != channel.DefaultCell {
		t.Fatalf("expected new columns filled with %q, got %q", channel.DefaultCell, got)
	}
	if got := mustGet(t, store, activeKey); got != "Old" {
		t.Fatalf("expected load to record active, got %q", got)
	}
}

func TestRenameMovesGroupAndComments(t *testing.T) {
	store := kvstore.NewMemory(0)
	s := openSession(t, store, Options{})
	if err := s.Import("Old", sampleCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := s.SetComment(2, "simplex"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	csv := mustGet(t, store, groupKey("Old"))

	if err := s.RenameActive("  New  "); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if s.Active() != "New" {
		t.Fatalf("active = %q", s.Active())
	}
	if got := mustGet(t, store, groupKey("New")); got != csv {
		t.Fatalf("expected CSV preserved across rename")
	}
	if !strings.Contains(mustGet(t, store, commentKey("New")), "simplex") {
		t.Fatalf("expected comments moved")
	}
	for _, key := range []string{groupKey("Old"), commentKey("Old")} {
		if _, ok, _ := store.Get(key); ok {
			t.Fatalf("expected %s removed", key)
		}
	}
	if got := mustGet(t, store, activeKey); got != "New" {
		t.Fatalf("active key = %q", got)
	}
	if err := s.RenameActive(""); err != nil || s.Active() != "New" {
		t.Fatalf("empty rename should be a no-op")
	}
}

func TestRenameOntoExistingGroupRejected(t *testing.T) {
	s := openSession(t, kvstore.NewMemory(0), Options{})
	if err := s.Import("A", sampleCSV); err != nil {
		t.Fatalf("import A: %v", err)
	}
	if err := s.Import("B", sampleCSV); err != nil {
		t.Fatalf("import B: %v", err)
	}
	if err := s.RenameActive("A"); !errors.Is(err, ErrGroupExists) {
		t.Fatalf("expected ErrGroupExists, got %v", err)
	}
	if s.Active() != "B" {
		t.Fatalf("active changed on rejected rename")
	}
}

func TestRenameWithoutActiveGroupNamesSession(t *testing.T) {
	store := kvstore.NewMemory(0)
	s := openSession(t, store, Options{})
	if err := s.RenameActive("Fresh"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if s.Active() != "Fresh" {
		t.Fatalf("active = %q", s.Active())
	}
	res, err := s.Commit(0, channel.Candidate{channel.KeyTitle: "NEW"})
	if err != nil || !res.Valid {
		t.Fatalf("commit: %+v %v", res, err)
	}
	if ok, _ := s.Exists("Fresh"); !ok {
		t.Fatalf("expected first save to create the group")
	}
}

func TestDeleteActiveLoadsFirstRemaining(t *testing.T) {
	store := kvstore.NewMemory(0)
	s := openSession(t, store, Options{})
	for _, name := range []string{"Zulu", "Alpha", "Mike"} {
		if err := s.Import(name, sampleCSV); err != nil {
			t.Fatalf("import %s: %v", name, err)
		}
	}
	if err := s.DeleteGroup("Mike"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Active() != "Alpha" {
		t.Fatalf("expected first remaining group by name, got %q", s.Active())
	}
	names, _ := s.Names()
	if !reflect.DeepEqual(names, []string{"Alpha", "Zulu"}) {
		t.Fatalf("names = %v", names)
	}

	if err := s.DeleteGroup("Zulu"); err != nil {
		t.Fatalf("delete inactive: %v", err)
	}
	if s.Active() != "Alpha" {
		t.Fatalf("deleting another group changed active to %q", s.Active())
	}
	if err := s.DeleteGroup(""); err != nil {
		t.Fatalf("delete active: %v", err)
	}
	if s.Active() != "" || !s.Table().IsEmpty() {
		t.Fatalf("expected empty session after last delete")
	}
	if _, ok, _ := store.Get(activeKey); ok {
		t.Fatalf("expected active key cleared")
	}
	if err := s.DeleteGroup(""); !errors.Is(err, ErrNoActiveGroup) {
		t.Fatalf("expected ErrNoActiveGroup, got %v", err)
	}
}

func TestMoveCarriesComments(t *testing.T) {
	s := openSession(t, kvstore.NewMemory(0), Options{})
	if err := s.Import("Base", sampleCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := s.SetComment(0, "repeater"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := s.SetComment(2, "simplex"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	// Slot 1 is empty: a plain move.
	moved, err := s.Move(0, 1)
	if err != nil || !moved {
		t.Fatalf("move: %v %v", moved, err)
	}
	if s.Comment(1) != "repeater" || s.Comment(0) != "" {
		t.Fatalf("comment did not follow plain move")
	}
	// Slot 1 is now occupied: a splice shifts slot 1 down to 2.
	if _, err := s.Move(2, 1); err != nil {
		t.Fatalf("splice move: %v", err)
	}
	if s.Comment(1) != "simplex" || s.Comment(2) != "repeater" {
		t.Fatalf("comments after splice: 1=%q 2=%q", s.Comment(1), s.Comment(2))
	}
	if !reflect.DeepEqual(s.CommentedSlots(), []int{1, 2}) {
		t.Fatalf("commented slots = %v", s.CommentedSlots())
	}
}

func TestMoveOntoCommentedEmptySlotKeepsBothComments(t *testing.T) {
	s := openSession(t, kvstore.NewMemory(0), Options{})
	if err := s.Import("Base", sampleCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := s.SetComment(0, "source note"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	// Slot 1 has no row but carries a comment.
	if err := s.SetComment(1, "empty-slot note"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	moved, err := s.Move(0, 1)
	if err != nil || !moved {
		t.Fatalf("move: %v %v", moved, err)
	}
	if s.Comment(1) != "source note" || s.Comment(0) != "empty-slot note" {
		t.Fatalf("comments after move: 0=%q 1=%q", s.Comment(0), s.Comment(1))
	}
}

func TestRemapEmptyTargetIsOneToOne(t *testing.T) {
	for i := 0; i < 50; i++ {
		got := Comments{"0": "a", "1": "b", "5": "c"}.remap(0, 1, false)
		want := Comments{"0": "b", "1": "a", "5": "c"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: got %v, want %v", i, got, want)
		}
	}
}

func TestClearDropsComment(t *testing.T) {
	s := openSession(t, kvstore.NewMemory(0), Options{})
	if err := s.Import("Base", sampleCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := s.SetComment(0, "gone soon"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := s.Clear(0); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := s.Table().Get(0); ok || s.Comment(0) != "" {
		t.Fatalf("expected slot and comment cleared")
	}
}

func TestSuggest(t *testing.T) {
	s := openSession(t, kvstore.NewMemory(0), Options{})
	for _, name := range []string{"Repeaters", "Simplex"} {
		if err := s.Import(name, sampleCSV); err != nil {
			t.Fatalf("import: %v", err)
		}
	}
	if got := s.Suggest("repeatr"); got != "Repeaters" {
		t.Fatalf("suggest = %q", got)
	}
	if got := s.Suggest("marine"); got != "" {
		t.Fatalf("expected no suggestion, got %q", got)
	}
}

func TestExportFilename(t *testing.T) {
	s := openSession(t, kvstore.NewMemory(0), Options{})
	if got := s.ExportFilename(); got != "channels.csv" {
		t.Fatalf("default export name = %q", got)
	}
	if err := s.Import("Base", sampleCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := s.ExportFilename(); got != "Base.csv" {
		t.Fatalf("export name = %q", got)
	}
}

func TestNameFromFile(t *testing.T) {
	cases := map[string]string{
		"Field Day.csv":        "Field Day",
		"/tmp/x/Repeaters.CSV": "Repeaters",
		"notes.txt":            "notes.txt",
		`C:\radio\uv.csv`:      "uv",
	}
	for in, want := range cases {
		if got := NameFromFile(in); got != want {
			t.Fatalf("NameFromFile(%q) = %q, want %q", in, got, want)
		}
	}
}
