package main

import (
	"context"
	"fmt"
	"os"

	"github.com/studyforge/studyforge-backend/internal/clients/redis"
	"github.com/studyforge/studyforge-backend/internal/db"
	"github.com/studyforge/studyforge-backend/internal/handlers"
	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/observability"
	"github.com/studyforge/studyforge-backend/internal/platform/gcs"
	"github.com/studyforge/studyforge-backend/internal/platform/openai"
	"github.com/studyforge/studyforge-backend/internal/platform/tts"
	"github.com/studyforge/studyforge-backend/internal/repos"
	"github.com/studyforge/studyforge-backend/internal/server"
	"github.com/studyforge/studyforge-backend/internal/services"
	"github.com/studyforge/studyforge-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "studyforge",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	if shutdownOTel != nil {
		defer func() { _ = shutdownOTel(context.Background()) }()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	generatedContentRepo := repos.NewGeneratedContentRepo(thePG, log)
	generationRunRepo := repos.NewGenerationRunRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	rateStore, err := redis.NewRateWindowStore(log)
	if err != nil {
		log.Error("Could not init rate window store", "error", err)
		os.Exit(1)
	}
	defer rateStore.Close()

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}

	bucketService, err := gcs.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init bucket service", "error", err)
	}

	synthesizer, err := tts.NewSynthesizer(log)
	if err != nil {
		log.Warn("Could not init speech synthesizer", "error", err)
	}

	// Services
	log.Info("Setting up Services from main...")
	generator, err := services.NewChunkGenerator(openaiClient, log)
	if err != nil {
		log.Error("Could not init chunk generator", "error", err)
		os.Exit(1)
	}
	generationService, err := services.NewGenerationService(generator, log)
	if err != nil {
		log.Error("Could not init generation service", "error", err)
		os.Exit(1)
	}
	rateLimitService, err := services.NewRateLimitService(rateStore, log)
	if err != nil {
		log.Error("Could not init rate limit service", "error", err)
		os.Exit(1)
	}
	cacheService, err := services.NewContentCacheService(generatedContentRepo, log)
	if err != nil {
		log.Error("Could not init content cache service", "error", err)
		os.Exit(1)
	}
	extractService := services.NewTextExtractService(log)

	var previewService services.DeckPreviewService
	if bucketService != nil {
		previewService, err = services.NewDeckPreviewService(bucketService, log)
		if err != nil {
			log.Warn("Could not init deck preview service", "error", err)
		}
	}

	pipeline, err := services.NewStudyMaterialService(services.StudyMaterialDeps{
		Log:        log,
		Rate:       rateLimitService,
		Cache:      cacheService,
		Generation: generationService,
		Preview:    previewService,
		Runs:       generationRunRepo,
		Model:      openaiClient.Model(),
	})
	if err != nil {
		log.Error("Could not init study material pipeline", "error", err)
		os.Exit(1)
	}

	var narrationHandler *handlers.NarrationHandler
	if synthesizer != nil && bucketService != nil {
		narrationService, err := services.NewNarrationService(synthesizer, bucketService, log)
		if err != nil {
			log.Warn("Could not init narration service", "error", err)
		} else {
			narrationHandler = handlers.NewNarrationHandler(log, narrationService)
		}
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	generateHandler := handlers.NewGenerateHandler(log, pipeline, extractService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:              log,
		GenerateHandler:  generateHandler,
		NarrationHandler: narrationHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
