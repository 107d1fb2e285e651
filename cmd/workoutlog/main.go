package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/workoutlog/internal/apply"
	"github.com/claude/workoutlog/internal/config"
	"github.com/claude/workoutlog/internal/ingest/csvlog"
	workoutmcp "github.com/claude/workoutlog/internal/mcp"
	"github.com/claude/workoutlog/internal/program"
	"github.com/claude/workoutlog/internal/progression"
	"github.com/claude/workoutlog/internal/scheduler"
	"github.com/claude/workoutlog/internal/server"
	"github.com/claude/workoutlog/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/robfig/cron"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("workoutlog starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected", "driver", cfg.Database.Driver)

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Create services
	sched := scheduler.NewService(db, cfg.Scheduler.HorizonDays, log)
	svc := server.Services{
		Programs:    program.NewService(db, sched, log),
		Scheduler:   sched,
		Apply:       apply.NewService(db, log),
		Progression: progression.NewService(db, log),
		CSV:         csvlog.NewProvider(db, time.Local, log),
	}

	// Keep the planned window of active programs rolling forward
	if err := sched.RefreshActive(ctx); err != nil {
		log.Warn("initial window refresh failed", "error", err)
	}
	c := cron.New()
	if err := c.AddFunc(cfg.Scheduler.Refresh, func() {
		if err := sched.RefreshActive(context.Background()); err != nil {
			log.Warn("window refresh failed", "error", err)
		}
	}); err != nil {
		log.Error("invalid scheduler refresh spec", "spec", cfg.Scheduler.Refresh, "error", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	// Create server
	srv := server.New(db, svc, cfg.Auth.APIKey, log)

	mcpSrv := workoutmcp.New(workoutmcp.NewLocal(db, svc.Programs, svc.Apply, svc.Progression), Version, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcpSrv, mcpserver.WithStateLess(true)))

	// Start server on the tailnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
