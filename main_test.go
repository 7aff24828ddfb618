package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"chanplan/channel"
	"chanplan/commands"
	"chanplan/config"
	"chanplan/csvcodec"
	"chanplan/groups"
	"chanplan/kvstore"
)

const shellCSV = "title,tx_freq,rx_freq,tx_power(h/m/l),bandwidth(12500/25000)\n" +
	"RPT1,145000000,145600000,H,25000\n" +
	"BAD,151000000,145600000,X,25000"

func memorySession(t *testing.T) *groups.Session {
	t.Helper()
	s, err := groups.Open(kvstore.NewMemory(0), groups.Options{Logf: func(string, ...any) {}})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return s
}

func TestRunShellStopsOnBye(t *testing.T) {
	session := memorySession(t)
	if err := session.Import("Base", shellCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	in := strings.NewReader("list\nclear 2\nbye\nlist\n")
	var out bytes.Buffer
	if err := runShell(in, &out, commands.NewProcessor(session), session.Active()); err != nil {
		t.Fatalf("runShell: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, `active group "Base"`) || !strings.Contains(text, "RPT1") {
		t.Fatalf("unexpected shell output %q", text)
	}
	if !strings.Contains(text, "Channel 2 cleared.") || !strings.HasSuffix(text, "73\n") {
		t.Fatalf("expected clear then sign-off, got %q", text)
	}
}

func TestRunShellEOF(t *testing.T) {
	session := memorySession(t)
	var out bytes.Buffer
	if err := runShell(strings.NewReader("groups"), &out, commands.NewProcessor(session), ""); err != nil {
		t.Fatalf("runShell: %v", err)
	}
	if !strings.Contains(out.String(), "No stored groups.") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestValidateTableReportsBadChannels(t *testing.T) {
	table := channel.FromDocument(csvcodec.Parse(shellCSV))
	var out bytes.Buffer
	if bad := validateTable(&out, table); bad != 1 {
		t.Fatalf("expected one bad channel, got %d: %s", bad, out.String())
	}
	text := out.String()
	if !strings.Contains(text, "Channel 2:") {
		t.Fatalf("expected channel 2 reported, got %q", text)
	}
	if !strings.Contains(text, "TX Freq must be 0 or in 144.000-148.000 or 420.000-450.000 MHz.") {
		t.Fatalf("expected frequency error, got %q", text)
	}
	if !strings.Contains(text, "TX Power must be H, M, or L.") {
		t.Fatalf("expected power error, got %q", text)
	}
}

func TestExportTextSuggestsMissingGroup(t *testing.T) {
	session := memorySession(t)
	if _, err := exportText(session, nil); !errors.Is(err, groups.ErrNoActiveGroup) {
		t.Fatalf("expected ErrNoActiveGroup, got %v", err)
	}
	if err := session.Import("Repeaters", shellCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	_, err := exportText(session, []string{"Repeater"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "Repeaters"`) {
		t.Fatalf("expected suggestion, got %v", err)
	}
	text, err := exportText(session, []string{"Repeaters"})
	if err != nil || !strings.HasPrefix(text, "title,") {
		t.Fatalf("export stored group: %q %v", text, err)
	}
}

func TestPrintGroups(t *testing.T) {
	store := kvstore.NewMemory(0)
	session, err := groups.Open(store, groups.Options{Logf: func(string, ...any) {}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := session.Import("Base", shellCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	var out bytes.Buffer
	if err := printGroups(&out, &app{store: store, session: session}); err != nil {
		t.Fatalf("printGroups: %v", err)
	}
	if !strings.Contains(out.String(), "* Base") || !strings.Contains(out.String(), "2 channels") {
		t.Fatalf("unexpected listing %q", out.String())
	}
	if !strings.Contains(out.String(), "1 groups") {
		t.Fatalf("expected summary line, got %q", out.String())
	}
}

func TestOpenStoreMemory(t *testing.T) {
	store, err := openStore(config.StorageConfig{Backend: config.BackendMemory})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*kvstore.Memory); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if _, err := openStore(config.StorageConfig{Backend: "tape"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestDescribeStorageError(t *testing.T) {
	if got := describeStorageError(groups.ErrStorageFull); !strings.Contains(got, "kept in memory") {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRenameGroupKeepsActiveGroup(t *testing.T) {
	store := kvstore.NewMemory(0)
	session, err := groups.Open(store, groups.Options{Logf: func(string, ...any) {}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := session.Import("Old", shellCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := session.Import("Current", shellCSV); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := renameGroup(session, "Old", "New"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if session.Active() != "Current" {
		t.Fatalf("expected active group unchanged, got %q", session.Active())
	}
	if active, _, _ := store.Get("meta|active"); active != "Current" {
		t.Fatalf("expected stored active key unchanged, got %q", active)
	}
	names, err := session.Names()
	if err != nil || strings.Join(names, ",") != "Current,New" {
		t.Fatalf("unexpected names %v err=%v", names, err)
	}

	if err := renameGroup(session, "New", "Current"); !errors.Is(err, groups.ErrGroupExists) {
		t.Fatalf("expected ErrGroupExists, got %v", err)
	}
	if session.Active() != "Current" {
		t.Fatalf("expected active restored after failed rename, got %q", session.Active())
	}
	if err := renameGroup(session, "Missing", "X"); err == nil {
		t.Fatalf("expected missing group error")
	}
}
