// Package app wires the daemon's startup sequence: config, logging,
// the audit store, the exchange manager, and the notifier, following
// the shape of the teacher's own Bootstrap type.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"algotrade/internal/domain"
	"algotrade/internal/exchange"
	"algotrade/internal/exchangeapi"
	"algotrade/internal/infra"
	"algotrade/internal/notify"
	"algotrade/internal/referenceexchange"
	"algotrade/internal/storage"
)

// Bootstrap orchestrates application startup.
type Bootstrap struct {
	Config  *infra.Config
	Audit   *storage.AuditStore
	Manager *exchange.Manager

	unlock func()
}

// NewBootstrap creates an empty Bootstrap.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads config, sets up logging, opens the audit store,
// and builds the exchange manager with its connector factory bound to
// cfg.Trading.Mode. It mirrors the teacher's own Initialize in shape:
// config, workspace dirs, instance lock, storage, then the pieces that
// depend on all of the above.
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("bootstrapping algotrade")

	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	mode := strings.ToLower(cfg.Trading.Mode)
	if mode == "" {
		mode = "paper"
	}

	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)
	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	auditPath := cfg.Storage.AuditDBPath
	if auditPath == "" {
		auditPath = filepath.Join(dataDir, "audit.db")
	}
	audit, err := storage.Open(auditPath)
	if err != nil {
		return fmt.Errorf("failed to open audit store: %w", err)
	}
	b.Audit = audit
	slog.Info("audit store ready", slog.String("path", auditPath))

	factory, err := connectorFactory(mode)
	if err != nil {
		return err
	}

	manager := exchange.New(factory)
	manager.Audit = audit
	manager.MinDelay = cfg.Trading.MinDelay
	manager.MaxDelay = cfg.Trading.MaxDelay
	manager.Logger = slog.Default()
	if notifierURL, ok := webhookURL(cfg); ok {
		manager.Notifier = notify.New(notifierURL)
	} else {
		manager.Notifier = &notify.LogNotifier{Logger: slog.Default()}
	}
	b.Manager = manager

	infra.PrintBanner(cfg)
	return nil
}

// connectorFactory returns the exchange.Factory for the configured
// trading mode. Only PAPER is implemented in this module; REAL/DEMO
// connectors are supplied by the host application (spec §1).
func connectorFactory(mode string) (exchange.Factory, error) {
	switch mode {
	case "paper", "":
		return func(ctx context.Context, creds domain.Credentials) (exchangeapi.Port, error) {
			return referenceexchange.New(), nil
		}, nil
	default:
		return nil, fmt.Errorf("trading mode %q has no connector wired into this module; supply one via exchange.Manager.Factory", mode)
	}
}

func webhookURL(cfg *infra.Config) (string, bool) {
	return cfg.Notify.WebhookURL, cfg.Notify.WebhookURL != ""
}

// Shutdown releases the instance lock, waits for in-flight background
// tasks, and closes the audit store.
func (b *Bootstrap) Shutdown() {
	if b.Manager != nil {
		b.Manager.Shutdown()
	}
	if b.Audit != nil {
		if err := b.Audit.Close(); err != nil {
			slog.Warn("failed to close audit store", slog.Any("error", err))
		}
	}
	if b.unlock != nil {
		b.unlock()
	}
}
