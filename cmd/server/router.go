package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	config "bizinsight-api/configs"
	"bizinsight-api/pkg/azure"
	"bizinsight-api/pkg/handlers"
	"bizinsight-api/pkg/services"
)

const (
	serviceName    = "BizInsight API"
	serviceVersion = "1.0.0"
)

// app holds the wired services for one server process.
type app struct {
	cfg        *config.Config
	monitoring *services.MonitoringService
	analysis   *handlers.AnalysisHandler
	assistant  *handlers.AssistantHandler
	health     *handlers.HealthHandler
}

// buildApp wires the pipeline from configuration. Empty provider URLs select the
// disabled providers, which turn every signal into a per-product warning.
func buildApp(cfg *config.Config, schema *config.SchemaConfig, prompt *config.AssistantPromptConfig) *app {
	httpClient := &http.Client{Timeout: cfg.SignalFetchTimeout + 2*time.Second}

	var trend services.TrendProvider = services.DisabledTrendProvider{}
	if cfg.TrendProviderURL != "" {
		trend = services.NewHTTPTrendProvider(cfg.TrendProviderURL, httpClient)
	}
	var mentions services.MentionProvider = services.DisabledMentionProvider{}
	if cfg.MentionProviderURL != "" {
		mentions = services.NewHTTPMentionProvider(cfg.MentionProviderURL, cfg.MentionProviderKey, httpClient)
	}

	normalizer := services.NewSchemaNormalizer(schema.AliasTables(), services.NormalizerOptions{
		Threshold:            schema.Threshold,
		NumericFallbackRatio: schema.NumericFallbackRatio,
		NumericSampleSize:    schema.NumericSampleSize,
		IdentifierTokens:     schema.IdentifierTokens,
	})
	recommender := services.NewRecommendationService(trend, mentions, services.NewSentimentScorer(), services.RecommendationOptions{
		MaxConcurrency:    cfg.SignalMaxConcurrent,
		RatePerSec:        cfg.SignalRatePerSec,
		FetchTimeout:      cfg.SignalFetchTimeout,
		TrendWindowMonths: cfg.TrendWindowMonths,
		MentionLimit:      cfg.MentionLimit,
	})
	pipeline := services.NewPipelineService(normalizer, services.NewForecastService(cfg.ForecastHorizon), recommender, cfg.TopProducts)

	openAI := azure.NewOpenAIClient(cfg.AzureOpenAIEndpoint, cfg.AzureOpenAIAPIKey, cfg.AzureOpenAIAPIVersion, cfg.AzureOpenAIDeploymentName)
	assistant := services.NewAssistantService(openAI, prompt)

	return &app{
		cfg:        cfg,
		monitoring: services.NewMonitoringService(),
		analysis:   handlers.NewAnalysisHandler(services.NewTableReader(), pipeline, int64(cfg.MaxUploadMB)<<20),
		assistant:  handlers.NewAssistantHandler(assistant),
		health: &handlers.HealthHandler{
			Service:       serviceName,
			Version:       serviceVersion,
			Assistant:     assistant.Available(),
			TrendSignal:   cfg.TrendProviderURL != "",
			MentionSignal: cfg.MentionProviderURL != "",
		},
	}
}

func setupRouter(a *app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(a.monitoring.LoggingMiddleware())
	r.Use(cors.Default())
	r.MaxMultipartMemory = int64(a.cfg.MaxUploadMB) << 20

	r.GET("/health", a.health.HealthCheck)

	monitoringHandler := handlers.NewMonitoringHandler(a.monitoring)

	v1 := r.Group("/api/v1")
	{
		analysis := v1.Group("/analysis")
		{
			analysis.POST("", a.analysis.Analyze)
			analysis.POST("/schema", a.analysis.PreviewSchema)
		}

		v1.POST("/recommendations", a.analysis.Recommend)
		v1.POST("/assistant/ask", a.assistant.Ask)

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}
	return r
}
