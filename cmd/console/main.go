package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/bazaar-console/api/routes"
	"github.com/angelmondragon/bazaar-console/internal/chat"
	"github.com/angelmondragon/bazaar-console/internal/console"
	"github.com/angelmondragon/bazaar-console/internal/gateway"
	"github.com/angelmondragon/bazaar-console/pkg/config"
	"github.com/angelmondragon/bazaar-console/pkg/gemini"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
	"github.com/angelmondragon/bazaar-console/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "console"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "console",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backend := gateway.NewClientFromConfig(cfg.Backend,
		gateway.WithLogger(logg),
		gateway.WithMetrics(metrics.NewGatewayMetrics(registry)),
	)

	completer := chat.Unavailable("chat assistant is not configured")
	if cfg.Gemini.Enabled() {
		geminiClient, err := gemini.NewClientFromConfig(cfg.Gemini)
		if err != nil {
			logg.Error(context.Background(), "failed to create gemini client", err)
			os.Exit(1)
		}
		completer = chat.NewGeminiCompleter(geminiClient)
	} else {
		logg.Warn(context.Background(), "gemini api key missing, chat assistant disabled")
	}

	session := chat.NewSession(completer,
		chat.WithLogger(logg),
		chat.WithUploader(chat.NewLogUploader(logg, cfg.Console.MaxAttachmentBytes())),
		chat.WithHistory(cfg.Gemini.SendHistory),
		chat.WithMetrics(metrics.NewChatMetrics(registry)),
	)
	workspace := console.NewWorkspace(backend, session, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": backend.BaseURL(),
		"model":   cfg.Gemini.Model,
	})
	logg.Info(ctx, "starting console server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, workspace, backend, registry, metrics.NewHTTPMetrics(registry)),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "console server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.App.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(shutdownCtx context.Context) error {
			logg.Info(ctx, "console server shutting down gracefully")
			return server.Shutdown(shutdownCtx)
		},
	})
	os.Exit(<-wait)
}
