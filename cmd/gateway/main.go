package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oralhq/interview-gateway/internal/archive"
	"github.com/oralhq/interview-gateway/internal/interview"
	"github.com/oralhq/interview-gateway/internal/metrics"
	"github.com/oralhq/interview-gateway/internal/pipeline"
	"github.com/oralhq/interview-gateway/internal/session"
	"github.com/oralhq/interview-gateway/internal/ws"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := loadConfig()

	if err := cfg.weights.Validate(); err != nil {
		slog.Error("invalid evaluation weights", "error", err)
		os.Exit(1)
	}

	chatOpts := pipeline.ChatOptions{
		MaxTokens:   cfg.llmMaxTokens,
		Temperature: cfg.llmTemperature,
	}

	// LLM backends
	llmBackends := map[string]pipeline.ChatClient{}
	if cfg.anthropicAPIKey != "" {
		opts := chatOpts
		opts.Model = cfg.anthropicModel
		llmBackends["anthropic"] = pipeline.NewAnthropicClient(cfg.anthropicAPIKey, cfg.anthropicURL, opts, cfg.llmPoolSize)
	}
	if cfg.openaiAPIKey != "" {
		opts := chatOpts
		opts.Model = cfg.openaiModel
		llmBackends["openai"] = pipeline.NewOpenAIClient(cfg.openaiAPIKey, cfg.openaiBaseURL, opts)
	}
	ollamaOpts := chatOpts
	ollamaOpts.Model = cfg.ollamaModel
	llmBackends["ollama"] = pipeline.NewOllamaClient(cfg.ollamaURL, ollamaOpts, cfg.llmPoolSize)

	llmRouter := pipeline.NewLLMRouter(llmBackends, "ollama")
	generation := pipeline.NewGeneration(llmRouter, cfg.llmEngine, cfg.maxQuestions)

	store := session.NewStore()
	hub := ws.NewHub()
	engine := interview.NewEngine(store, generation, interview.Config{
		MaxQuestions: cfg.maxQuestions,
		Weights:      cfg.weights,
		GenTimeout:   cfg.llmTimeout,
	}, hub)

	ocrClient := pipeline.NewOCRClient(cfg.ocrURL, cfg.ocrPoolSize)
	sttClient := pipeline.NewSTTClient(cfg.sttURL, cfg.sttPoolSize)

	warmCtx, warmCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := sttClient.Warmup(warmCtx); err != nil {
		slog.Warn("stt warmup", "error", err)
	}
	warmCancel()

	var arch *archive.Store
	if cfg.databaseURL != "" {
		var err error
		arch, err = archive.Open(cfg.databaseURL)
		if err != nil {
			slog.Error("archive open failed", "error", err)
			os.Exit(1)
		}
		defer arch.Close()
		slog.Info("archive enabled")
	}

	// Expiry sweep
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := store.Expire(cfg.sessionTTL); removed > 0 {
					metrics.SessionsExpired.Add(float64(removed))
					metrics.SessionsActive.Set(float64(store.Len()))
				}
			case <-sweepDone:
				return
			}
		}
	}()

	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		store:   store,
		engine:  engine,
		ocr:     ocrClient,
		stt:     sttClient,
		hub:     hub,
		archive: arch,
	})

	addr := ":" + cfg.port
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		close(sweepDone)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	slog.Info("gateway starting", "addr", addr, "engine", cfg.llmEngine, "max_questions", cfg.maxQuestions)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("gateway stopped")
}
