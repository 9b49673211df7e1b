// Command migrate manages the database schema.
//
//	migrate up            apply pending SQL migrations
//	migrate auto          run gorm AutoMigrate (not in production-like envs)
//	migrate status        show schema mode and pending migrations
//	migrate down VERSION  revert one SQL migration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"storyloom/internal/config"
	"storyloom/internal/database"
)

var errUsage = errors.New("usage: migrate <up|auto|status|down VERSION>")

func main() {
	flag.Parse()
	if err := run(context.Background(), flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	migrator := database.NewMigrator(db, database.GetMigrations())

	switch args[0] {
	case "up":
		ran, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		log.Printf("applied %d migration(s)", ran)
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return err
		}
		log.Println("gorm automigrate finished")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return err
		}
		log.Printf("driver=%s mode=%s env=%s sql=%t auto=%t applied=%v",
			status.Driver, status.Mode, status.Environment,
			status.WillRunSQL, status.WillRunAutoMigrate, status.AppliedVersions)
		for _, m := range status.PendingMigrations {
			log.Printf("pending %s", m)
		}
	case "down":
		if len(args) < 2 {
			return errUsage
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		return migrator.Down(ctx, version)
	default:
		return errUsage
	}
	return nil
}
