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

	"github.com/docstitch/docstitch/internal/api"
	"github.com/docstitch/docstitch/internal/config"
	"github.com/docstitch/docstitch/internal/engine"
	"github.com/docstitch/docstitch/internal/llm"
	"github.com/docstitch/docstitch/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the model client.
	stats := llm.NewStats(time.Hour)
	var client llm.Client
	switch cfg.LLM.Provider {
	case "mock":
		client = llm.NewMockClient(`{"events":[]}`)
	default:
		client = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:           cfg.LLM.APIKey,
			Model:            cfg.LLM.Model,
			BaseURL:          cfg.LLM.BaseURL,
			Timeout:          cfg.LLM.Timeout,
			TransportRetries: cfg.Retry.TransportRetries,
			TransportDelay:   cfg.Retry.TransportDelay,
		}, stats)
	}

	// Initialize the engine and pipeline.
	eng := engine.New(client, engine.Config{
		PageBatchSize:        cfg.Preprocess.PageBatchSize,
		MaxAttempts:          cfg.Retry.MaxAttempts,
		MaxTokens:            cfg.LLM.MaxTokens,
		Temperature:          cfg.LLM.Temperature,
		UseLayoutAnalysis:    cfg.Preprocess.UseLayoutAnalysis,
		PDFFallbackPdftotext: cfg.Preprocess.PDFFallbackPdftotext,
	}, log)

	orch := pipeline.NewOrchestrator(pipeline.Options{
		WorkerCount:          cfg.Pipeline.WorkerCount,
		MaxQueueSize:         cfg.Pipeline.MaxQueueSize,
		JobTTL:               cfg.Pipeline.JobTTL,
		PDFFallbackPdftotext: cfg.Preprocess.PDFFallbackPdftotext,
	}, eng, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, stats, cfg.LLM.Model, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docstitch", "port", cfg.Server.Port, "provider", client.Name(), "model", cfg.LLM.Model)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
