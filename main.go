package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"retortweb/internal/config"
	"retortweb/internal/metrics"
	"retortweb/internal/results"
)

var logLevel = new(slog.LevelVar)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "err", err)
	}

	configPath := flag.String("config", envOr("RETORT_CONFIG", "config.yaml"), "path to config file")
	evaluatePath := flag.String("evaluate", "", "evaluate one .xlsx or .csv file, print the JSON result and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	if *evaluatePath != "" {
		if err := runOnce(cfg, *evaluatePath, os.Stdout); err != nil {
			slog.Error("evaluation failed", "file", *evaluatePath, "err", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("retortweb starting",
		"config", *configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"floor", cfg.Lethality.Floor,
		"hold_policy", cfg.Lethality.HoldPolicy,
		"audit_log", cfg.AuditLog.Path,
	)

	store, err := results.NewStore(cfg.Server.CacheEntries)
	if err != nil {
		slog.Error("failed to create result cache", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	srv := newServer(cfg, store, metrics.New())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			applyEnv(updated)
			setLevel(updated)
			if updated.Server.HTTPAddr != cfg.Server.HTTPAddr || updated.Server.CacheEntries != cfg.Server.CacheEntries {
				slog.Warn("server.http_addr and server.cache_entries take effect on restart")
			}
			srv.setConfig(updated)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("http server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("retortweb shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "err", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	setLevel(cfg)
	return cfg, nil
}

// applyEnv lets the environment override the listen address.
func applyEnv(cfg *config.Config) {
	if addr := os.Getenv("RETORT_HTTP_ADDR"); addr != "" {
		cfg.Server.HTTPAddr = addr
	}
}

func setLevel(cfg *config.Config) {
	if lvl, err := config.ParseLevel(cfg.Log.Level); err == nil {
		logLevel.Set(lvl)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// runOnce evaluates a single file with the configured policy, appends it to
// the audit log and writes the JSON result to w.
func runOnce(cfg *config.Config, path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := readTable(path, f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	ev, err := performEvaluation(table, path, cfg, cfg.Lethality.Core(), time.Now())
	if err != nil {
		return err
	}

	resp := toEvaluationResponse(ev)
	resp.ReportURL = ""
	if err := defaultSink(cfg).Append(logRecord(ev)); err != nil {
		slog.Error("audit log write failed", "source", path, "err", err)
		resp.LogError = err.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
