package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/config"
	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/repositories"
	"alfredoptarigan/skill-evaluator/internal/services"
)

// stores is the history and user persistence selected by HISTORY_BACKEND.
type stores struct {
	history repositories.EvaluationRepository
	users   repositories.UserRepository
	close   func() error
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	log = logger.OrNop(log)

	switch cfg.Storage.HistoryBackend {
	case config.BackendPostgres:
		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		return &stores{
			history: repositories.NewEvaluationRepository(db),
			users:   repositories.NewUserRepository(db),
			close:   sqlDB.Close,
		}, nil

	case config.BackendSQLite:
		db, err := config.OpenSQLite(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := repositories.MigrateSQLite(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &stores{
			history: repositories.NewSQLiteEvaluationRepository(db),
			users:   repositories.NewSQLiteUserRepository(db),
			close:   db.Close,
		}, nil

	default:
		history, err := repositories.NewJSONEvaluationRepository(cfg.Storage.DataDir, log)
		if err != nil {
			return nil, err
		}
		users, err := repositories.NewJSONUserRepository(cfg.Storage.DataDir, log)
		if err != nil {
			return nil, err
		}
		log.Info("✅ JSON history store ready", zap.String("data_dir", cfg.Storage.DataDir))
		return &stores{history: history, users: users, close: func() error { return nil }}, nil
	}
}

func generatorOptions(cfg *config.Config) services.GeneratorOptions {
	return services.GeneratorOptions{
		Timeout:           cfg.AI.RequestTimeout,
		RequestsPerMinute: cfg.AI.RequestsPerMinute,
		Retry: services.RetryPolicy{
			MaxAttempts: cfg.Worker.RetryMaxAttempts,
			BaseDelay:   cfg.Worker.RetryInitialDelay,
		},
	}
}

// newGemini is also the embedder for the knowledge base, so it is built whenever a key exists.
func newGemini(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.GeminiService, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, nil
	}
	return services.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbedModel, generatorOptions(cfg), log)
}

func newKnowledgeBase(cfg *config.Config, embedder services.Embedder, log *zap.Logger) (*services.KnowledgeBase, error) {
	if cfg.Qdrant.URL == "" {
		return nil, nil
	}
	if embedder == nil {
		return nil, errors.New("the knowledge base needs embeddings: set GEMINI_API_KEY")
	}
	return services.NewKnowledgeBase(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, embedder, log)
}

// newEngine builds the AI engine for AI_PROVIDER. The returned close func releases the
// knowledge base connection when one was opened.
func newEngine(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.AIEngine, func() error, error) {
	log = logger.OrNop(log)
	noop := func() error { return nil }

	if cfg.AI.Provider == config.ProviderHeuristic {
		log.Info("✅ Using heuristic engine")
		return services.NewHeuristicEngine(), noop, nil
	}

	gemini, err := newGemini(ctx, cfg, log)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to initialize Gemini AI: %w", err)
	}

	var generator services.TextGenerator
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		generator = gemini
	case config.ProviderOpenRouter:
		generator, err = services.NewOpenRouterService(cfg.OpenRouter.APIKey, cfg.OpenRouter.BaseURL, cfg.OpenRouter.Model, generatorOptions(cfg), log)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to initialize OpenRouter: %w", err)
		}
	default:
		return nil, noop, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}

	var embedder services.Embedder
	if gemini != nil {
		embedder = gemini
	}
	kb, err := newKnowledgeBase(cfg, embedder, log)
	if err != nil {
		log.Warn("⚠️ Knowledge base disabled", zap.Error(err))
	}
	if kb == nil {
		log.Info("✅ AI engine initialized", zap.String("provider", generator.Name()))
		return services.NewLLMEngine(generator, nil, log), noop, nil
	}

	log.Info("✅ AI engine initialized with reference retrieval",
		zap.String("provider", generator.Name()),
		zap.String("collection", cfg.Qdrant.Collection),
	)
	return services.NewLLMEngine(generator, kb, log), kb.Close, nil
}
