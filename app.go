package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"chanplan/config"
	"chanplan/groups"
	"chanplan/kvstore"
)

// app bundles what every subcommand needs: config, logging, store, session.
type app struct {
	cfg     *config.Config
	logs    *logFanout
	store   kvstore.Store
	session *groups.Session
}

// Purpose: Resolve config, start logging, open the store and the session.
// Key aspects: A file-logging failure is reported but not fatal. interactive
// keeps log lines off a terminal the grid UI will own.
// Upstream: every subcommand RunE.
// Downstream: config.Resolve, setupLogging, openStore, groups.Open.
func openApp(console io.Writer, interactive bool) (*app, error) {
	cfg, err := config.Resolve(configDir)
	if err != nil {
		return nil, err
	}
	logs, logErr := setupLogging(cfg.Logging, console, interactive)
	log.SetFlags(0)
	log.SetOutput(logs)
	if logErr != nil {
		log.Printf("Logging: file sink disabled: %v", logErr)
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		logs.Close()
		return nil, err
	}
	session, err := groups.Open(store, groups.Options{
		MaxGroupBytes: cfg.Storage.MaxGroupBytes,
		LegacyKey:     cfg.Groups.LegacyKey,
		ExportName:    cfg.Groups.DefaultName,
	})
	if err != nil {
		store.Close()
		logs.Close()
		return nil, err
	}
	return &app{cfg: cfg, logs: logs, store: store, session: session}, nil
}

func (a *app) Close() {
	if a == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		log.Printf("Storage: close failed: %v", err)
	}
	_ = a.logs.Close()
	log.SetOutput(os.Stderr)
}

// openStore builds the configured kvstore backend.
func openStore(cfg config.StorageConfig) (kvstore.Store, error) {
	switch cfg.Backend {
	case config.BackendPebble:
		store, err := kvstore.OpenPebble(cfg.Path, kvstore.PebbleOptions{
			CacheSizeBytes: int64(cfg.CacheSizeMB) << 20,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("Storage: pebble store at %s", cfg.Path)
		return store, nil
	case config.BackendSQLite:
		store, err := kvstore.OpenSQLite(cfg.Path, time.Duration(cfg.BusyTimeoutMS)*time.Millisecond, log.Printf)
		if err != nil {
			return nil, err
		}
		log.Printf("Storage: sqlite store at %s", cfg.Path)
		return store, nil
	case config.BackendMemory:
		log.Printf("Storage: in-memory store; nothing will persist")
		return kvstore.NewMemory(int64(cfg.MaxGroupBytes)), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

// describeStorageError turns a save failure into the status line users see.
func describeStorageError(err error) string {
	if errors.Is(err, groups.ErrStorageFull) {
		return "storage is full; changes are kept in memory but not saved"
	}
	return err.Error()
}
