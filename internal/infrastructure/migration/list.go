package migration

import (
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// ListMigrations returns the base names of the migrations in source, in
// version order. Every up migration must have a matching down migration.
func ListMigrations(source fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	ups := make(map[string]bool)
	downs := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, upSuffix):
			ups[strings.TrimSuffix(name, upSuffix)] = true
		case strings.HasSuffix(name, downSuffix):
			downs[strings.TrimSuffix(name, downSuffix)] = true
		}
	}

	names := make([]string, 0, len(ups))
	for name := range ups {
		if !downs[name] {
			return nil, fmt.Errorf("migration %s has no down file", name)
		}
		names = append(names, name)
	}
	for name := range downs {
		if !ups[name] {
			return nil, fmt.Errorf("migration %s has no up file", name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// VersionOf parses the numeric prefix of a migration name such as
// "000002_create_invoice_audit_entries".
func VersionOf(name string) (uint, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migration %s has no version prefix", name)
	}
	v, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("migration %s has an invalid version prefix: %w", name, err)
	}
	return uint(v), nil
}

// Partition splits the migrations in source into those at or below current
// and those above it.
func Partition(source fs.FS, current uint) (applied, pending []string, err error) {
	names, err := ListMigrations(source)
	if err != nil {
		return nil, nil, err
	}
	applied = make([]string, 0, len(names))
	pending = make([]string, 0, len(names))
	for _, name := range names {
		v, err := VersionOf(name)
		if err != nil {
			return nil, nil, err
		}
		if v <= current {
			applied = append(applied, name)
		} else {
			pending = append(pending, name)
		}
	}
	return applied, pending, nil
}

// HasVersion reports whether source contains a migration with the version.
func HasVersion(source fs.FS, version uint) (bool, error) {
	names, err := ListMigrations(source)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		v, err := VersionOf(name)
		if err != nil {
			return false, err
		}
		if v == version {
			return true, nil
		}
	}
	return false, nil
}
