package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/opsai/document-orchestrator/internal/config"
	"github.com/opsai/document-orchestrator/internal/core/domain"
	"github.com/opsai/document-orchestrator/internal/core/ports"
	"github.com/opsai/document-orchestrator/internal/core/registry"
	"github.com/opsai/document-orchestrator/internal/core/usecase"
	"github.com/opsai/document-orchestrator/internal/export"
	"github.com/opsai/document-orchestrator/internal/infrastructure/gateway/contentai"
	"github.com/opsai/document-orchestrator/internal/infrastructure/queue/nats"
	"github.com/opsai/document-orchestrator/internal/infrastructure/repository/postgres"
	"github.com/opsai/document-orchestrator/internal/infrastructure/resilience"
	"github.com/opsai/document-orchestrator/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Docs     ports.DocumentRepository
	Registry ports.CategoryRegistry

	UploadUC    ports.DocumentUploader
	AnalyzeUC   ports.DocumentAnalyzer
	ResultUC    ports.ResultReader
	FeedbackUC  ports.FeedbackService
	ProvisionUC ports.AnalyzerProvisioner
	Exporter    ports.ResultExporter

	Persister ports.ConfigPersister

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	docs := postgres.NewDocumentRepository(db)
	results := postgres.NewResultRepository(db)
	feedback := postgres.NewFeedbackRepository(db)
	for _, ensure := range []func(context.Context) error{
		docs.EnsureSchema,
		results.EnsureSchema,
		feedback.EnsureSchema,
	} {
		if err := ensure(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	pipeline, err := loadPipeline(cfg, logger)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}
	if pipeline.Service.Endpoint != "" {
		cfg.ContentAIURL = pipeline.Service.Endpoint
	}
	if pipeline.Service.RouterAnalyzerID != "" {
		cfg.RouterAnalyzerID = pipeline.Service.RouterAnalyzerID
	}

	reg, err := registry.New(pipeline.Categories)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init category registry: %w", err)
	}

	gateway := contentai.New(
		cfg.ContentAIURL,
		cfg.ContentAIAPIKey,
		executor,
		time.Duration(cfg.AnalyzeCallTimeoutSeconds)*time.Second,
	)

	return &App{
		Config: cfg,

		Queue:    queue,
		Docs:     docs,
		Registry: reg,

		UploadUC:    usecase.NewUploadDocumentUseCase(docs, storage, queue),
		AnalyzeUC:   usecase.NewAnalyzeDocumentUseCase(docs, reg, gateway, results, cfg.RouterAnalyzerID, cfg.MinClassificationConfidence),
		ResultUC:    usecase.NewResultUseCase(results, feedback),
		FeedbackUC:  usecase.NewFeedbackUseCase(docs, results, feedback),
		ProvisionUC: usecase.NewProvisionAnalyzersUseCase(reg, gateway, cfg.RouterAnalyzerID),
		Exporter:    export.NewService(results, feedback, logger),

		Persister: &pipelinePersister{cfg: cfg},

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// loadPipeline treats a missing file as an empty category set so a fresh
// deployment can come up and be configured over the API.
func loadPipeline(cfg config.Config, logger *slog.Logger) (config.PipelineFile, error) {
	pipeline, err := config.LoadPipeline(cfg.PipelineConfigPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("pipeline_config_missing", "path", cfg.PipelineConfigPath)
			return config.PipelineFile{}, nil
		}
		return config.PipelineFile{}, fmt.Errorf("load pipeline config: %w", err)
	}
	logger.Info("pipeline_config_loaded",
		"path", cfg.PipelineConfigPath,
		"categories", len(pipeline.Categories),
	)
	return pipeline, nil
}

type pipelinePersister struct {
	cfg config.Config
}

func (p *pipelinePersister) Persist(categories []domain.Category) error {
	var pf config.PipelineFile
	pf.Service.Endpoint = p.cfg.ContentAIURL
	pf.Service.RouterAnalyzerID = p.cfg.RouterAnalyzerID
	pf.Categories = categories
	return config.SavePipeline(p.cfg.PipelineConfigPath, pf)
}
