package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
)

// Migration is one versioned pair of SQL scripts.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

var migrationFile = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.up\.sql$`)

// builtin is the migration set compiled into the binary.
var builtin = mustLoadMigrations(embeddedMigrations, "migrations")

func mustLoadMigrations(fsys fs.FS, dir string) []Migration {
	migrations, err := LoadMigrations(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return migrations
}

// LoadMigrations reads NNNNNN_name.up.sql files and their .down.sql partners
// from dir, sorted by version. A file that does not follow the naming scheme,
// a missing down script or a repeated version is an error.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	ups, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}

	seen := make(map[int]string, len(ups))
	migrations := make([]Migration, 0, len(ups))
	for _, up := range ups {
		file := path.Base(up)
		match := migrationFile.FindStringSubmatch(file)
		if match == nil {
			return nil, fmt.Errorf("migration %s: name must look like 000001_description.up.sql", file)
		}
		version, _ := strconv.Atoi(match[1])
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %06d used by %s and %s", version, other, file)
		}
		seen[version] = file

		upSQL, err := fs.ReadFile(fsys, up)
		if err != nil {
			return nil, err
		}
		downSQL, err := fs.ReadFile(fsys, path.Join(dir, match[1]+"_"+match[2]+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", file, err)
		}
		migrations = append(migrations, Migration{
			Version: version,
			Name:    match[2],
			Up:      string(upSQL),
			Down:    string(downSQL),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// GetMigrations returns the built-in migrations in version order.
func GetMigrations() []Migration {
	out := make([]Migration, len(builtin))
	copy(out, builtin)
	return out
}

// GetMigrationByVersion returns the built-in migration with version, or nil.
func GetMigrationByVersion(version int) *Migration {
	for i := range builtin {
		if builtin[i].Version == version {
			m := builtin[i]
			return &m
		}
	}
	return nil
}
