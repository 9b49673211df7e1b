// Command server is the entry point for the Storyloom authoring API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storyloom/internal/bootstrap"
	"storyloom/internal/config"
	"storyloom/internal/observability"
	"storyloom/internal/server"

	"golang.org/x/sync/errgroup"
)

const (
	serviceName   = "storyloom-api"
	version       = "1.0.0"
	shutdownGrace = 10 * time.Second
)

// @title Storyloom API
// @version 1.0
// @description Authoring API for branching dialogues, simulated text conversations and quizzes.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	seedDemo := flag.Bool("seed-demo", false, "seed a demo project on startup")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *seedDemo); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, seedDemo bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDemo: seedDemo})
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}
	srv, err := server.NewServerWithDeps(cfg, db, rdb)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		log.Println("shutting down")
		drain, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(drain); err != nil {
			log.Printf("server shutdown: %v", err)
		}
		return shutdownTracing(drain)
	})
	return g.Wait()
}
