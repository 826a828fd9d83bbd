package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/api/handlers"
	"github.com/visabuddy/ai-service/internal/cache/redis"
	"github.com/visabuddy/ai-service/internal/catalog"
	"github.com/visabuddy/ai-service/internal/enrichment"
	"github.com/visabuddy/ai-service/internal/generation"
	"github.com/visabuddy/ai-service/internal/kb"
	"github.com/visabuddy/ai-service/internal/llm"
	"github.com/visabuddy/ai-service/internal/matcher"
	"github.com/visabuddy/ai-service/internal/metrics"
	"github.com/visabuddy/ai-service/internal/middleware/ratelimit"
	"github.com/visabuddy/ai-service/internal/middleware/security"
	"github.com/visabuddy/ai-service/internal/middleware/validation"
	"github.com/visabuddy/ai-service/internal/normalizer"
	"github.com/visabuddy/ai-service/internal/rag"
	"github.com/visabuddy/ai-service/internal/rules"
	"github.com/visabuddy/ai-service/internal/storage/sqlite"
	"github.com/visabuddy/ai-service/pkg/config"
	appLogger "github.com/visabuddy/ai-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting VisaBuddy checklist service")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Redis carries the single-flight lock and the result cache; both are
	// best-effort, so an unreachable redis degrades rather than aborts.
	redisClient, err := redis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without generation lock and cache", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	// The vector store is optional: without it, retrieval runs on the local
	// cache only and enrichment prompts just carry fewer policy extracts.
	var vectorStore *rag.MilvusStore
	if cfg.Vector.Enabled {
		vectorStore, err = rag.NewMilvusStore(
			cfg.Vector.Endpoint,
			cfg.Vector.CollectionName,
			cfg.Vector.VectorDim,
		)
		if err != nil {
			appLogger.Warn("Failed to create vector store, continuing without it", zap.Error(err))
			vectorStore = nil
		} else {
			defer vectorStore.Close()
			if err := vectorStore.EnsureCollection(context.Background()); err != nil {
				appLogger.Warn("Failed to prepare vector collection", zap.Error(err))
			}
		}
	}

	localCache := rag.NewLocalCache(1000)
	retriever := rag.NewRetriever(llmClient, vectorStore, localCache, cfg.Vector.TopK)

	ingestor := kb.NewIngestor(llmClient, vectorStore, localCache, cfg.KB.ChunkSize, cfg.KB.ChunkOverlap)
	if _, err := os.Stat(cfg.KB.Path); err == nil {
		if err := ingestor.LoadSeedFile(context.Background(), cfg.KB.Path); err != nil {
			appLogger.Warn("Failed to load KB seed file", zap.Error(err))
		}
	}

	norm := normalizer.NewDefault()

	cat := catalog.New(cfg.Catalog.Path, norm)
	if err := cat.Load(); err != nil {
		appLogger.Fatal("Failed to load rule catalog", zap.Error(err))
	}

	engine := rules.NewEngine(norm)
	orchestrator := enrichment.NewOrchestrator(llmClient, retriever, norm, cfg.Catalog.AIExtraCap)
	m := matcher.NewMatcher(norm)

	service := generation.NewService(cat, engine, orchestrator, m, sqliteClient, redisClient)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Application-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 60,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		MaxDocumentSize: cfg.Server.BodyLimit,
		Logger:          appLogger.GetLogger(),
	}))

	checklistHandler := handlers.NewChecklistHandler(service)
	kbHandler := handlers.NewKBHandler(ingestor)

	api := app.Group("/api/v1")

	api.Post("/checklist/generate", checklistHandler.GenerateChecklist)
	api.Get("/checklist/:applicationID", checklistHandler.GetChecklist)
	api.Post("/checklist/:applicationID/progress", checklistHandler.UpdateProgress)

	api.Post("/kb/documents", kbHandler.IngestDocument)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"rulesets": cat.Size(),
			"time":     time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
