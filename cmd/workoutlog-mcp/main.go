package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/workoutlog/internal/apply"
	"github.com/claude/workoutlog/internal/config"
	workoutmcp "github.com/claude/workoutlog/internal/mcp"
	"github.com/claude/workoutlog/internal/program"
	"github.com/claude/workoutlog/internal/progression"
	"github.com/claude/workoutlog/internal/scheduler"
	"github.com/claude/workoutlog/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// main serves MCP over stdio. With -server it proxies a remote workoutlog
// server's REST API; otherwise it opens the configured database directly.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	serverURL := flag.String("server", "", "remote workoutlog server URL (e.g. http://workoutlog.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("WORKOUTLOG_API_KEY"), "API key for mutating tools in remote mode")
	flag.Parse()

	// stdout carries the protocol
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds workoutmcp.DataSource
	if *serverURL != "" {
		ds = workoutmcp.NewHTTPClient(*serverURL, *apiKey)
		log.Info("remote mode", "server", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		db, err := storage.Open(context.Background(), cfg.Database.Driver, cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		sched := scheduler.NewService(db, cfg.Scheduler.HorizonDays, log)
		ds = workoutmcp.NewLocal(db,
			program.NewService(db, sched, log),
			apply.NewService(db, log),
			progression.NewService(db, log))
		log.Info("local mode", "driver", cfg.Database.Driver)
	}

	if err := mcpserver.ServeStdio(workoutmcp.New(ds, Version, log)); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %v\n", err)
		os.Exit(1)
	}
}
