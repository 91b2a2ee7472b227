package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/centsible/centsible/internal/domain/categorization"
	ingesthandler "github.com/centsible/centsible/internal/domain/ingest/handler"
	ingestservice "github.com/centsible/centsible/internal/domain/ingest/service"
	"github.com/centsible/centsible/internal/domain/transactions"
	"github.com/centsible/centsible/pkg/config"
	"github.com/centsible/centsible/pkg/cron"
	"github.com/centsible/centsible/pkg/db"
	"github.com/centsible/centsible/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	TransactionsRepo *transactions.Repository
	SnapshotCache    *transactions.SnapshotCache

	// Services
	AliasIndex            *categorization.AliasIndex
	CategorizationService *categorization.Service
	Pipeline              *ingestservice.Pipeline

	// Handlers
	IngestHandler *ingesthandler.Handler

	// Background jobs
	Scheduler *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}
	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}
	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() error {
	d.TransactionsRepo = transactions.NewRepository(d.DB.Pool, d.Logger)
	d.SnapshotCache = transactions.NewSnapshotCache(
		d.TransactionsRepo, d.Config.Ingest.SnapshotLimit, time.Hour, d.Logger)

	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initServices() error {
	aliases, err := categorization.NewAliasIndex(d.Config.Ingest.AliasIndexPath)
	if err != nil {
		return fmt.Errorf("failed to init alias index: %w", err)
	}
	if err := aliases.IndexRules(categorization.ExpenseRules()); err != nil {
		return fmt.Errorf("failed to index merchant aliases: %w", err)
	}
	d.AliasIndex = aliases

	// LLM classifier is optional; without an API key the rule engines
	// cover categorization on their own.
	var classifier categorization.Classifier
	if d.Config.ClassifierEnabled() {
		endpoint := d.Config.Classifier.Endpoint
		if endpoint == "" {
			endpoint = categorization.DefaultEndpoint(d.Config.Classifier.Model)
		}
		classifier = categorization.NewGeminiClassifier(
			endpoint, d.Config.Classifier.APIKey, d.Logger)
		d.Logger.Info("llm classifier enabled",
			slog.String("model", d.Config.Classifier.Model))
	}

	d.CategorizationService = categorization.NewService(classifier, aliases, d.Logger)
	d.Pipeline = ingestservice.NewPipeline(
		d.CategorizationService, d.Config.Ingest.Currency, d.Logger)

	d.Scheduler = cron.NewScheduler(
		d.SnapshotCache, d.Config.Ingest.SnapshotRefresh, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() error {
	archive, err := storage.NewLocalArchive(d.Config.Ingest.UploadArchivePath)
	if err != nil {
		return fmt.Errorf("failed to init upload archive: %w", err)
	}

	d.IngestHandler = ingesthandler.NewHandler(
		d.Pipeline,
		d.SnapshotCache,
		d.TransactionsRepo,
		d.Config.Ingest.MaxUploadBytes,
		d.Logger,
	).WithArchive(archive)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.AliasIndex != nil {
		if err := d.AliasIndex.Close(); err != nil {
			d.Logger.Warn("failed to close alias index", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
