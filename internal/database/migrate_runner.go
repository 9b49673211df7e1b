package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"storyloom/internal/middleware"

	"gorm.io/gorm"
)

// SchemaVersion records one applied SQL migration.
type SchemaVersion struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaVersion) TableName() string {
	return "schema_versions"
}

// Migrator applies a fixed set of SQL migrations and tracks them in
// schema_versions. Each migration runs in its own transaction together with
// its bookkeeping row.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrator(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

// Applied returns the recorded versions in ascending order. A database that
// has never been migrated has none.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&SchemaVersion{}) {
		return []int{}, nil
	}
	var versions []int
	if err := db.Model(&SchemaVersion{}).Order("version").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read schema versions: %w", err)
	}
	return versions, nil
}

// Pending returns the migrations not applied yet. It refuses to answer when
// the database records versions this binary does not know, since the schema
// is then ahead of the code.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkKnownVersions(applied, m.migrations); err != nil {
		return nil, err
	}

	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	var pending []Migration
	for _, mig := range m.migrations {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration in version order and returns how many
// ran. It stops at the first failure; earlier migrations stay applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return 0, fmt.Errorf("create schema_versions: %w", err)
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for i, mig := range pending {
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&SchemaVersion{Version: mig.Version, Name: mig.Name}).Error
		})
		if err != nil {
			return i, fmt.Errorf("apply migration %s: %w", mig, err)
		}
		middleware.Logger.InfoContext(ctx, "migration applied", slog.String("migration", mig.String()))
	}
	return len(pending), nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration %06d is not known", version)
	}

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	idx := sort.SearchInts(applied, version)
	if idx == len(applied) || applied[idx] != version {
		return fmt.Errorf("migration %s has not been applied", target)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(target.Down).Error; err != nil {
			return err
		}
		return tx.Where("version = ?", version).Delete(&SchemaVersion{}).Error
	})
	if err != nil {
		return fmt.Errorf("revert migration %s: %w", target, err)
	}
	middleware.Logger.InfoContext(ctx, "migration reverted", slog.String("migration", target.String()))
	return nil
}

func checkKnownVersions(applied []int, known []Migration) error {
	registered := make(map[int]bool, len(known))
	for _, mig := range known {
		registered[mig.Version] = true
	}
	var unknown []string
	for _, v := range applied {
		if !registered[v] {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("schema_versions lists migrations this build does not ship: %s", strings.Join(unknown, ", "))
}

// RunMigrations applies the built-in migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	_, err := NewMigrator(db, GetMigrations()).Up(ctx)
	return err
}

// RollbackMigration reverts one built-in migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db, GetMigrations()).Down(ctx, version)
}
