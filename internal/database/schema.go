package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"storyloom/internal/config"
	"storyloom/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes accepted by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus describes what ApplySchema would do for a configuration.
type SchemaStatus struct {
	Mode               string
	Environment        string
	Driver             string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// schemaPlan is the resolved DB_SCHEMA_MODE for one environment.
type schemaPlan struct {
	mode    string
	sql     bool
	autoMig bool
}

var prodLikeEnvs = map[string]bool{"production": true, "prod": true, "staging": true, "stage": true}

// planFor resolves the schema mode. The embedded migrations are Postgres DDL,
// so SQLite always uses AutoMigrate. Production-like environments never
// AutoMigrate.
func planFor(cfg *config.Config) (schemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	switch {
	case cfg.DBDriver == "sqlite":
		mode = SchemaModeAuto
	case mode == "":
		mode = SchemaModeHybrid
	}
	strict := prodLikeEnvs[strings.ToLower(strings.TrimSpace(cfg.Env))]

	plan := schemaPlan{mode: mode}
	switch mode {
	case SchemaModeSQL:
		plan.sql = true
	case SchemaModeHybrid:
		plan.sql, plan.autoMig = true, !strict
	case SchemaModeAuto:
		if strict {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto is not allowed in %q; use sql or hybrid", cfg.Env)
		}
		plan.autoMig = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
	return plan, nil
}

func runAutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database schema up to date: versioned SQL first,
// then AutoMigrate where the plan allows it.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planFor(cfg)
	if err != nil {
		return err
	}
	if plan.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	}
	if plan.autoMig {
		middleware.Logger.InfoContext(ctx, "running automigrate",
			slog.String("mode", plan.mode),
			slog.String("env", cfg.Env),
		)
		if err := runAutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the plan for cfg and, when SQL migrations are part
// of it, which versions are applied and which are pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planFor(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		Driver:             cfg.DBDriver,
		WillRunSQL:         plan.sql,
		WillRunAutoMigrate: plan.autoMig,
	}
	if !plan.sql {
		return status, nil
	}

	m := NewMigrator(db, GetMigrations())
	if status.AppliedVersions, err = m.Applied(ctx); err != nil {
		return nil, err
	}
	if status.PendingMigrations, err = m.Pending(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
