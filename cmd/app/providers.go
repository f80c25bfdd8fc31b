package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/ragforge/ragcore/internal/domain/rag"
	ragauth "github.com/ragforge/ragcore/internal/domain/rag/auth"
	"github.com/ragforge/ragcore/internal/domain/rag/chat"
	"github.com/ragforge/ragcore/internal/domain/rag/classifier"
	"github.com/ragforge/ragcore/internal/domain/rag/ingest"
	"github.com/ragforge/ragcore/internal/domain/rag/parser"
	"github.com/ragforge/ragcore/internal/domain/rag/prompt"
	"github.com/ragforge/ragcore/internal/domain/rag/ratelimit"
	"github.com/ragforge/ragcore/internal/domain/rag/reformulate"
	"github.com/ragforge/ragcore/internal/domain/rag/rerank"
	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
	"github.com/ragforge/ragcore/internal/domain/rag/summary"
	"github.com/ragforge/ragcore/internal/domain/rag/synonym"
	"github.com/ragforge/ragcore/internal/infra/config"
	"github.com/ragforge/ragcore/internal/infra/rag/cache"
	"github.com/ragforge/ragcore/internal/infra/rag/embedder"
	"github.com/ragforge/ragcore/internal/infra/rag/graphindex"
	"github.com/ragforge/ragcore/internal/infra/rag/keywordindex"
	"github.com/ragforge/ragcore/internal/infra/rag/llm"
	"github.com/ragforge/ragcore/internal/infra/rag/queue"
	memoryrepo "github.com/ragforge/ragcore/internal/infra/rag/repo/memory"
	postgresrepo "github.com/ragforge/ragcore/internal/infra/rag/repo/postgres"
	"github.com/ragforge/ragcore/internal/infra/rag/storage"
	"github.com/ragforge/ragcore/internal/infra/rag/vectorindex"
)

var (
	pgPoolOnce sync.Once
	pgPool     *pgxpool.Pool
)

// ragPostgresPool lazily connects the shared pool every postgres-backed
// repository and index draws from, falling back to nil (triggering each
// provider's in-memory fallback) if no DSN is configured or the ping fails.
func ragPostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	pgPoolOnce.Do(func() {
		dsn := strings.TrimSpace(cfg.Postgres.DSN)
		if dsn == "" {
			logger.Info("postgres dsn not set, using memory repositories and indexes")
			return
		}
		poolConfig, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			logger.Error("invalid postgres dsn, using memory repositories", "error", err)
			return
		}
		registerPgVector(poolConfig, logger)
		if cfg.Postgres.MaxConns > 0 {
			poolConfig.MaxConns = cfg.Postgres.MaxConns
		}
		if cfg.Postgres.MinConns > 0 {
			poolConfig.MinConns = cfg.Postgres.MinConns
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err != nil {
			logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("postgres ping failed, using memory repositories", "error", err)
			pool.Close()
			return
		}
		logger.Info("postgres repositories and indexes enabled")
		pgPool = pool
	})
	return pgPool
}

func registerPgVector(poolConfig *pgxpool.Config, logger *slog.Logger) {
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		var oid uint32
		if err := conn.QueryRow(ctx, "SELECT 'vector'::regtype::oid").Scan(&oid); err != nil {
			logger.Error("failed to lookup pgvector oid", "error", err)
			return err
		}
		conn.TypeMap().RegisterType(&pgtype.Type{
			Name:  "vector",
			OID:   oid,
			Codec: pgtype.TextCodec{},
		})
		return nil
	}
}

func provideUserRepository(cfg *config.Config, logger *slog.Logger) rag.UserRepository {
	if pool := ragPostgresPool(cfg, logger); pool != nil {
		return postgresrepo.NewUserRepository(pool)
	}
	return memoryrepo.NewUserRepository()
}

func provideCollectionRepository(cfg *config.Config, logger *slog.Logger) rag.CollectionRepository {
	if pool := ragPostgresPool(cfg, logger); pool != nil {
		return postgresrepo.NewCollectionRepository(pool)
	}
	return memoryrepo.NewCollectionRepository()
}

func provideDocumentRepository(cfg *config.Config, logger *slog.Logger) rag.DocumentRepository {
	if pool := ragPostgresPool(cfg, logger); pool != nil {
		return postgresrepo.NewDocumentRepository(pool)
	}
	return memoryrepo.NewDocumentRepository()
}

func provideChunkRepository(cfg *config.Config, logger *slog.Logger) rag.ChunkRepository {
	if pool := ragPostgresPool(cfg, logger); pool != nil {
		return postgresrepo.NewChunkRepository(pool)
	}
	return memoryrepo.NewChunkRepository()
}

func provideChatSessionRepository(cfg *config.Config, logger *slog.Logger) rag.ChatSessionRepository {
	if pool := ragPostgresPool(cfg, logger); pool != nil {
		return postgresrepo.NewChatSessionRepository(pool)
	}
	return memoryrepo.NewChatSessionRepository()
}

func provideVectorIndex(cfg *config.Config, logger *slog.Logger) rag.VectorIndex {
	if pool := ragPostgresPool(cfg, logger); pool != nil {
		return vectorindex.NewPostgresVectorIndex(pool)
	}
	return vectorindex.NewMemoryVectorIndex()
}

func provideKeywordIndex() rag.KeywordIndex {
	return keywordindex.NewBM25Index()
}

func provideGraphIndex() rag.GraphIndex {
	return graphindex.NewGraphIndex()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	addr = strings.TrimSpace(addr)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideValkeyClient(cfg *config.Config, logger *slog.Logger) valkey.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	opt, err := buildValkeyOptions(cfg.Redis.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory queue/cache", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory queue/cache", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory queue/cache", "error", err)
		return nil
	}
	logger.Info("valkey enabled", "addr", cfg.Redis.Addr)
	return client
}

func provideQueue(client valkey.Client, logger *slog.Logger) queue.HandlerQueue {
	if client == nil {
		return queue.NewImmediateQueue(nil)
	}
	return queue.NewValkeyQueue(client, "rag:ingest:jobs", logger)
}

func provideCache(client valkey.Client) rag.Cache {
	if client == nil {
		return cache.NewMemoryCache()
	}
	return cache.NewValkeyCache(client, "rag")
}

func provideStorage(cfg *config.Config, logger *slog.Logger) rag.ObjectStorage {
	endpoint := strings.TrimSpace(cfg.Storage.Endpoint)
	accessKey := strings.TrimSpace(cfg.Storage.AccessKey)
	secretKey := strings.TrimSpace(cfg.Storage.SecretKey)
	bucket := strings.TrimSpace(cfg.Storage.Bucket)
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		logger.Info("object storage not fully configured, using memory storage")
		return storage.NewMemoryStorage()
	}
	r2, err := storage.NewR2Storage(endpoint, accessKey, secretKey, bucket, cfg.Storage.Region, logger)
	if err != nil {
		logger.Error("failed to initialize r2 storage, using memory storage", "error", err)
		return storage.NewMemoryStorage()
	}
	logger.Info("r2 storage enabled", "endpoint", endpoint, "bucket", bucket)
	return r2
}

func provideLLMClient(cfg *config.Config, logger *slog.Logger) *llm.Client {
	client, err := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		logger.Error("failed to initialize llm client", "error", err)
		return nil
	}
	return client
}

func provideEmbedder(client *llm.Client, cfg *config.Config, logger *slog.Logger) rag.Embedder {
	if client == nil {
		logger.Warn("llm client unavailable, using deterministic embedder")
		return embedder.DeterministicEmbedder{Dim: cfg.LLM.EmbeddingDim}
	}
	return embedder.ProviderEmbedder{
		Client:       client,
		Model:        cfg.LLM.EmbeddingModel,
		SummaryModel: cfg.LLM.Model,
		Dim:          cfg.LLM.EmbeddingDim,
	}
}

func provideLLM(client *llm.Client, logger *slog.Logger) rag.LLM {
	if client == nil {
		logger.Warn("llm client unavailable, using echo llm")
		return llm.EchoLLM{}
	}
	return llm.ProviderLLM{Client: client}
}

func provideParserRegistry() *parser.Registry {
	return parser.NewRegistry(
		parser.TextParser{},
		parser.PresentationParser{},
		parser.DocumentParser{},
		parser.JSONParser{},
		parser.SpreadsheetParser{},
		parser.HTMLParser{},
		parser.EmailParser{},
		parser.ImageParser{},
		parser.AudioParser{},
		parser.VideoParser{},
		parser.WebTranscriptParser{},
	)
}

func provideClassifierRegistry() *classifier.Registry {
	return classifier.NewRegistry(
		classifier.DefaultThreshold,
		classifier.GeneralProcessor{},
		classifier.LegalProcessor{},
		classifier.AcademicProcessor{},
		classifier.ResumeProcessor{},
		classifier.TableProcessor{},
		classifier.BookProcessor{},
		classifier.EmailProcessor{},
		classifier.ManualProcessor{},
		classifier.PresentationProcessor{},
		classifier.QAProcessor{},
	)
}

func provideSummaryService(documents rag.DocumentRepository, vector rag.VectorIndex, embed rag.Embedder, logger *slog.Logger) *summary.Service {
	return summary.New(documents, vector, embed, logger)
}

func provideIngestConfig(cfg *config.Config) ingest.Config {
	return ingest.Config{
		DefaultChunkTargetTokens: cfg.Ingest.DefaultChunkTargetTokens,
		DefaultChunkOverlap:      cfg.Ingest.DefaultChunkOverlap,
		MaxRetries:               cfg.Ingest.MaxRetries,
		RetryBaseDelay:           cfg.Ingest.RetryBaseDelay,
	}
}

func provideCoordinator(
	cfg ingest.Config,
	collections rag.CollectionRepository,
	documents rag.DocumentRepository,
	chunks rag.ChunkRepository,
	objStorage rag.ObjectStorage,
	embed rag.Embedder,
	vector rag.VectorIndex,
	keyword rag.KeywordIndex,
	graph rag.GraphIndex,
	parsers *parser.Registry,
	processors *classifier.Registry,
	summarizer *summary.Service,
	logger *slog.Logger,
) *ingest.Coordinator {
	return ingest.New(cfg, collections, documents, chunks, objStorage, embed, vector, keyword, graph, parsers, processors, summarizer, logger)
}

// provideRetrievalEngine leaves entity extraction unset: graph mode falls
// back to treating the raw query as its own entity list. The synonym service
// (provideSynonymService) is not passed to the engine, and neither the
// engine nor the contract layer expands queries with it.
func provideRetrievalEngine(vector rag.VectorIndex, keyword rag.KeywordIndex, graph rag.GraphIndex, embed rag.Embedder, documents rag.DocumentRepository, chunks rag.ChunkRepository) *retrieval.Engine {
	return retrieval.New(vector, keyword, graph, embed, documents, chunks, nil)
}

func provideSynonymService(logger *slog.Logger) *synonym.Service {
	return synonym.New(logger)
}

func provideReformulateService(cfg *config.Config, llmPort rag.LLM, cacheStore rag.Cache, logger *slog.Logger) *reformulate.Service {
	return reformulate.New(reformulate.Config{
		Enabled: cfg.Chat.ReformulationEnabled,
		Model:   cfg.LLM.Model,
	}, llmPort, cacheStore, logger)
}

func providePromptAssembler() (*prompt.Assembler, error) {
	return prompt.New(time.Now)
}

func provideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		DefaultPreset:        prompt.Preset(cfg.Chat.DefaultPreset),
		DefaultRetrievalMode: retrieval.Mode(cfg.Chat.DefaultRetrievalMode),
		DefaultTopK:          cfg.Chat.DefaultTopK,
		ReformulationEnabled: cfg.Chat.ReformulationEnabled,
		ReformulationMode:    reformulate.Mode(cfg.Chat.ReformulationMode),
		RerankEnabled:        cfg.Chat.RerankEnabled,
		HistoryTokenBudget:   cfg.Chat.HistoryTokenBudget,
		Model:                cfg.LLM.Model,
		Temperature:          cfg.LLM.Temperature,
	}
}

func provideReranker(cfg *config.Config) rerank.Reranker {
	if cfg.Chat.RerankEnabled {
		return rerank.LexicalOverlap{}
	}
	return rerank.Passthrough{}
}

func provideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	rlCfg := ratelimit.DefaultConfig()
	rlCfg.Enabled = cfg.RateLimit.Enabled
	return ratelimit.New(rlCfg)
}

func provideAuthConfig(cfg *config.Config) ragauth.Config {
	return ragauth.Config{APIKeyBytes: cfg.Auth.APIKeyBytes}
}
