package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/BrightPath-Learning/course-progress-service/internal/bank"
	"github.com/BrightPath-Learning/course-progress-service/internal/config"
	"github.com/BrightPath-Learning/course-progress-service/internal/events"
	"github.com/BrightPath-Learning/course-progress-service/internal/handlers"
	"github.com/BrightPath-Learning/course-progress-service/internal/progress"
	"github.com/BrightPath-Learning/course-progress-service/internal/quiz"
	"github.com/BrightPath-Learning/course-progress-service/internal/storage"
	"github.com/BrightPath-Learning/course-progress-service/internal/validator"
	"github.com/BrightPath-Learning/course-progress-service/pkg"
)

func main() {
	importPath := flag.String("import", "", "import question sets from an xlsx file instead of serving")
	importOut := flag.String("out", "question-bank.json", "output path for the imported bank document")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	v := validator.New()

	if *importPath != "" {
		runImport(*importPath, *importOut, v, logger)
		return
	}

	if err := run(cfg, v, logger); err != nil {
		logger.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, v *validator.Validator, logger *slog.Logger) error {
	ctx := context.Background()

	store, err := newDocumentStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	catalog, err := bank.LoadCatalog(cfg.CatalogPath, v)
	if err != nil {
		return fmt.Errorf("failed to load course catalog: %w", err)
	}

	progressStore, err := progress.NewStore(ctx, store, cfg.StorageKey, catalog, v, logger)
	if err != nil {
		return err
	}

	questionBank, err := bank.Load(ctx, cfg.QuestionBankPath, v, logger)
	if err != nil {
		return err
	}

	var publisher events.EventPublisher
	if cfg.EventsEnabled() {
		kafkaPublisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: cfg.KafkaBrokers,
			TopicName:    cfg.NotificationTopic,
			Logger:       logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		progressStore.Subscribe(events.NewProgressForwarder(publisher, logger))
	}

	engine := quiz.NewEngine(questionBank, progressStore, quiz.NoopAnimator{}, logger)
	manager := quiz.NewManager(engine)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	handlers.NewHandlerManager(manager, progressStore, publisher, logger).SetupRoutes(router)

	logger.Info("Starting course progress service",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", string(cfg.StorageBackend))

	return router.Run(":" + cfg.Port)
}

func newDocumentStore(cfg *config.Config, logger *slog.Logger) (storage.DocumentStore, error) {
	var primary storage.DocumentStore

	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	case config.BackendFile:
		fileStore, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		primary = fileStore
	case config.BackendRedis:
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		primary = storage.NewRedisStore(client)
	case config.BackendPostgres:
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, err
		}
		pgStore, err := storage.NewPostgresStore(db)
		if err != nil {
			return nil, err
		}
		primary = pgStore
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}

	return storage.NewFallbackStore(primary, logger), nil
}

func runImport(path, out string, v *validator.Validator, logger *slog.Logger) {
	sets, result, err := bank.ImportXLSX(path, v)
	if err != nil {
		logger.Error("Import failed", "path", path, "error", err)
		os.Exit(1)
	}

	logger.Info("Import finished",
		"total_rows", result.TotalRows,
		"imported", result.SuccessCount,
		"errors", result.ErrorCount)
	for _, rowErr := range result.Errors {
		logger.Warn("Rejected row", "row", rowErr.Row, "field", rowErr.Field, "message", rowErr.Message)
	}

	if len(sets) == 0 {
		logger.Error("No valid question sets imported")
		os.Exit(1)
	}
	if err := bank.WriteBank(out, sets); err != nil {
		logger.Error("Failed to write bank document", "path", out, "error", err)
		os.Exit(1)
	}
	logger.Info("Question bank written", "path", out, "modules", len(sets))
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
