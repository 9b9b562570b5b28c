package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	config "bizinsight-api/configs"
	"bizinsight-api/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.L.Info(".env file not loaded, using process environment", "error", err)
	}

	cfg := config.LoadConfig()
	logger.Init(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.L.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	schema, err := config.LoadSchemaConfig(cfg.SchemaConfigPath)
	if err != nil {
		logger.L.Error("failed to load schema config", "path", cfg.SchemaConfigPath, "error", err)
		os.Exit(1)
	}
	prompt, err := config.LoadAssistantPrompt(cfg.AssistantPromptPath)
	if err != nil {
		logger.L.Error("failed to load assistant prompt", "path", cfg.AssistantPromptPath, "error", err)
		os.Exit(1)
	}

	a := buildApp(cfg, schema, prompt)
	if !a.health.Assistant {
		logger.L.Warn("Azure OpenAI is not configured, /api/v1/assistant/ask will return 503")
	}
	if !a.health.TrendSignal || !a.health.MentionSignal {
		logger.L.Warn("signal providers missing, recommendations will fall back to neutral signals",
			"trend", a.health.TrendSignal, "mentions", a.health.MentionSignal)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.L.Info("starting server", "addr", srv.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.L.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("graceful shutdown failed", "error", err)
	}
}
