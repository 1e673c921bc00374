package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"algotrade/internal/app"
	"algotrade/internal/infra"
	"algotrade/internal/webhook"

	_ "net/http/pprof"
)

func main() {
	defer infra.Recover()

	configPath := flag.String("config", infra.ResolveConfigPath(), "path to config.yaml")
	addr := flag.String("addr", ":8080", "address the webhook server listens on")
	flag.Parse()

	go func() {
		slog.Info("pprof server started", slog.String("addr", "localhost:6060"))
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("pprof server failed", slog.Any("error", err))
		}
	}()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := webhook.New(*addr, bootstrap.Manager, bootstrap.Config.Credentials, slog.Default())
	if err := server.ListenAndServe(ctx); err != nil {
		slog.Error("webhook server failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("shut down gracefully")
}
