package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abirzishan32/Tukhor-AI/config"
	"github.com/abirzishan32/Tukhor-AI/internal/embedding"
	"github.com/abirzishan32/Tukhor-AI/internal/evaluation"
	"github.com/abirzishan32/Tukhor-AI/internal/generation"
	"github.com/abirzishan32/Tukhor-AI/internal/memory"
	"github.com/abirzishan32/Tukhor-AI/internal/prompt"
	"github.com/abirzishan32/Tukhor-AI/internal/retriever"
	"github.com/abirzishan32/Tukhor-AI/internal/storage"
	"github.com/abirzishan32/Tukhor-AI/internal/textproc"
	"github.com/abirzishan32/Tukhor-AI/internal/vectorindex"
	"github.com/abirzishan32/Tukhor-AI/middleware"
	"github.com/abirzishan32/Tukhor-AI/models"
	"github.com/abirzishan32/Tukhor-AI/repositories"
	"github.com/abirzishan32/Tukhor-AI/repositories/postgres"
	"github.com/abirzishan32/Tukhor-AI/services"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Persistence
	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories
	TxManager   repositories.TransactionManager

	// Pipeline
	Embedder embedding.Embedder
	Index    *vectorindex.MemoryIndex

	// Services
	RAGService        *services.RAGService
	DocumentService   *services.DocumentService
	EvaluationService *services.EvaluationService

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.AuthMiddleware = middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()
	d.Logger.Info("repositories initialized")
}

// initServices builds the retrieval pipeline and the services on top of it
func (d *Dependencies) initServices(cfg *config.Config) error {
	ollama := embedding.NewOllamaEmbedder(cfg.Embedding, d.Logger)
	d.Embedder = embedding.NewCachedEmbedder(ollama, cfg.Embedding.CacheSize)

	d.Index = vectorindex.NewMemoryIndex(cfg.Embedding.Dimension, d.Logger)

	normalizer := textproc.NewNormalizer()
	chunker, err := textproc.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("invalid chunker configuration: %w", err)
	}
	detector := textproc.NewDetector(
		cfg.RAG.MajorityThreshold,
		cfg.RAG.MinorityThreshold,
		models.Language(cfg.RAG.DefaultLanguage),
	)

	ret := retriever.New(
		detector,
		d.Embedder,
		d.Index,
		&chunkSourceAdapter{chunks: d.Repos.Chunks},
		cfg.RAG.TopK,
		cfg.RAG.SimilarityThreshold,
		d.Logger,
	)

	assembler := prompt.NewAssembler(cfg.RAG.PromptContextBudget)
	mem := memory.NewManager(
		cfg.Memory.ShortTermCapacity,
		cfg.Memory.HistoryPageSize,
		cfg.Memory.ContextBudget,
		&historySourceAdapter{messages: d.Repos.Messages},
		d.Logger,
	)

	generator, err := d.buildGenerator(cfg)
	if err != nil {
		return err
	}

	scorer := evaluation.NewSimilarityStrategy(d.Embedder, d.Logger)

	store, err := storage.NewLocalStorage(cfg.Storage.Root, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	d.EvaluationService = services.NewEvaluationService(d.Repos, scorer, d.Logger)
	d.DocumentService = services.NewDocumentService(
		d.Repos, d.TxManager, store,
		normalizer, chunker, detector,
		d.Embedder, d.Index,
		cfg.Upload, cfg.KnowledgeBase,
		d.Logger,
	)
	d.RAGService = services.NewRAGService(
		d.Repos, d.TxManager,
		ret, assembler, mem,
		generator, detector,
		scorer, d.EvaluationService,
		d.Logger,
	)

	d.Logger.Info("services initialized",
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.Int("embedding_dimension", cfg.Embedding.Dimension))
	return nil
}

// buildGenerator registers the configured generation clients and wraps the
// selected one with single-retry behavior.
func (d *Dependencies) buildGenerator(cfg *config.Config) (generation.Generator, error) {
	registry := generation.NewRegistry()

	if cfg.Generation.Gemini.APIKey != "" {
		if err := registry.Register(generation.NewGeminiClient(cfg.Generation.Gemini, d.Logger)); err != nil {
			return nil, fmt.Errorf("failed to register gemini client: %w", err)
		}
	}
	if err := registry.Register(generation.NewOllamaClient(cfg.Generation.Ollama, d.Logger)); err != nil {
		return nil, fmt.Errorf("failed to register ollama client: %w", err)
	}

	selected, err := registry.Get(cfg.Generation.Provider)
	if err != nil {
		return nil, fmt.Errorf("generation provider %q not available: %w", cfg.Generation.Provider, err)
	}

	return generation.NewRetrying(selected, d.Logger), nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

// chunkSourceAdapter feeds the retriever from the chunk repository.
type chunkSourceAdapter struct {
	chunks repositories.ChunkRepository
}

func (a *chunkSourceAdapter) ChunksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ChunkWithDocument, error) {
	return a.chunks.GetByIDs(ctx, ids)
}

// historySourceAdapter feeds the memory manager from persisted messages.
type historySourceAdapter struct {
	messages repositories.MessageRepository
}

func (a *historySourceAdapter) RecentMessages(ctx context.Context, chatID uuid.UUID, limit int) ([]models.Message, error) {
	msgs, err := a.messages.GetRecent(ctx, chatID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, *m)
	}
	return out, nil
}
