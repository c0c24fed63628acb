package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/action"
	"github.com/gyaneshwarpardhi/orderflow/internal/api"
	"github.com/gyaneshwarpardhi/orderflow/internal/audit"
	"github.com/gyaneshwarpardhi/orderflow/internal/backend"
	"github.com/gyaneshwarpardhi/orderflow/internal/config"
	"github.com/gyaneshwarpardhi/orderflow/internal/engine"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
	"github.com/gyaneshwarpardhi/orderflow/internal/simulate"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "", "Path to server YAML config (optional)")
	notifyURL := flag.String("notify-url", "", "Notification webhook URL (logs locally if empty)")
	fulfillURL := flag.String("fulfill-url", "", "Fulfillment webhook URL (logs locally if empty)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Config ───────────────────────────────────────────────────────────────
	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// ── Rule store (cached, invalidated on file change) ──────────────────────
	rules, err := rule.NewFileStore(cfg.RulesPath)
	if err != nil {
		slog.Error("failed to load rules", "err", err)
		os.Exit(1)
	}
	slog.Info("rules loaded", "path", cfg.RulesPath, "count", len(rules.All()))

	rules.OnChange(func(rs []rule.AutomationRule) {
		slog.Info("rules reloaded", "count", len(rs))
	})
	stopWatch, err := rules.Watch()
	if err != nil {
		slog.Warn("rule watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── Execution log store ──────────────────────────────────────────────────
	logs, err := audit.Open(cfg.AuditDB)
	if err != nil {
		slog.Error("failed to open audit store", "err", err)
		os.Exit(1)
	}
	defer logs.Close()

	// ── Order store ──────────────────────────────────────────────────────────
	// The engine treats the order store as an external collaborator; the
	// bundled in-memory store serves standalone deployments and demos.
	orders := order.NewMemStore()

	// ── Action registry ──────────────────────────────────────────────────────
	actionTimeout := time.Duration(cfg.Engine.ActionTimeoutMs) * time.Millisecond

	var notifier action.Notifier = backend.LogNotifier{}
	if *notifyURL != "" {
		notifier = &backend.WebhookNotifier{URL: *notifyURL}
	}
	var fulfiller action.Fulfiller = backend.LogFulfiller{}
	if *fulfillURL != "" {
		fulfiller = &backend.WebhookFulfiller{URL: *fulfillURL}
	}

	reg := action.NewRegistry()
	reg.Register(&action.UpdateStatus{Orders: orders})
	reg.Register(&action.AssignWorkflow{Orders: orders})
	reg.Register(&action.AssignPriority{Orders: orders})
	reg.Register(&action.AddTag{Orders: orders})
	reg.Register(&action.UpdateCustomField{Orders: orders})
	reg.Register(&action.SendNotification{Backend: notifier, Timeout: actionTimeout})
	reg.Register(&action.CreateFulfillment{Backend: fulfiller, Timeout: actionTimeout})

	// ── Dispatcher ───────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := engine.New(ctx, rules, orders, reg, logs, cfg.Engine)
	sim := simulate.New(rules, orders, reg)

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := api.New(dispatcher, rules, sim, logs)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	dispatcher.Shutdown()
	cancel()
	slog.Info("goodbye")
}
