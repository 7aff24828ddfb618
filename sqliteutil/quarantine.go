package sqliteutil

import (
	"fmt"
	"os"
	"time"
)

var sidecarSuffixes = []string{"", "-wal", "-shm", "-journal"}

// collectExisting lists the database file and sidecars present right now.
// Sidecars can vanish during a checkpoint, so the list is taken up front.
func collectExisting(path string) []string {
	var out []string
	for _, suffix := range sidecarSuffixes {
		if _, err := os.Stat(path + suffix); err == nil {
			out = append(out, path+suffix)
		}
	}
	return out
}

func quarantine(path string, existing []string, logf func(string, ...any)) (string, error) {
	stamp := time.Now().UTC().Format("20060102T150405Z")
	if len(existing) == 0 {
		existing = collectExisting(path)
	}
	for _, file := range existing {
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				logf("sqlite preflight: %s disappeared before quarantine", file)
				continue
			}
			return "", err
		}
		if err := os.Rename(file, file+".bad-"+stamp); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s.bad-%s", path, stamp), nil
}
