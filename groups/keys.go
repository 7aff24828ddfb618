package groups

import "strings"

const (
	groupPrefix   = "group|"
	commentPrefix = "comment|"
	activeKey     = "meta|active"

	// DefaultLegacyKey holds the single CSV blob written before named groups existed.
	DefaultLegacyKey = "legacy|csv_data"
	// MigrationName is the group a legacy blob is wrapped into.
	MigrationName = "Imported"
	// DefaultExportName is the export file stem when no group is active.
	DefaultExportName = "channels"
)

func groupKey(name string) string   { return groupPrefix + name }
func commentKey(name string) string { return commentPrefix + name }

func nameFromGroupKey(key string) string {
	return strings.TrimPrefix(key, groupPrefix)
}

// NameFromFile derives a group name from an imported file name by dropping a
// trailing ".csv" (any case) and any directory part.
func NameFromFile(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if len(base) >= 4 && strings.EqualFold(base[len(base)-4:], ".csv") {
		base = base[:len(base)-4]
	}
	return base
}
