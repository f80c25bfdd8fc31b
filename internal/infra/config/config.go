package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration for every component of the
// ingestion, retrieval, and chat pipelines.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Auth       AuthConfig       `yaml:"auth"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Chat       ChatConfig       `yaml:"chat"`
	Summary    SummaryConfig    `yaml:"summary"`
	Synonym    SynonymConfig    `yaml:"synonym"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Retry      RetryConfig      `yaml:"retry"`
}

// LLMConfig contains the chat/embedding/vision/speech provider settings.
type LLMConfig struct {
	APIKey         string  `yaml:"apiKey"`
	BaseURL        string  `yaml:"baseUrl"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embeddingModel"`
	EmbeddingDim   int     `yaml:"embeddingDim"`
	Temperature    float64 `yaml:"temperature"`
}

// StorageConfig configures the S3-compatible object store backing original
// document uploads.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// RedisConfig contains connection information shared by the job queue and
// the cache, both backed by Valkey.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// PostgresConfig contains DSN and pooling settings for the relational
// store, vector index, keyword index metadata, and chat session history.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// AuthConfig controls registration and API-key issuance.
type AuthConfig struct {
	APIKeyBytes int `yaml:"apiKeyBytes"`
}

// IngestConfig drives chunking, retry, and default collection sizing for
// the ingestion pipeline.
type IngestConfig struct {
	DefaultChunkTargetTokens int           `yaml:"defaultChunkTargetTokens"`
	DefaultChunkOverlap      int           `yaml:"defaultChunkOverlap"`
	MaxRetries               int           `yaml:"maxRetries"`
	RetryBaseDelay           time.Duration `yaml:"retryBaseDelay"`
	MaxFileMB                int           `yaml:"maxFileMb"`
}

// RetrievalConfig drives default retrieval-mode behavior.
type RetrievalConfig struct {
	DefaultTopK               int  `yaml:"defaultTopK"`
	DefaultHierarchicalTopDocs int `yaml:"defaultHierarchicalTopDocs"`
}

// ChatConfig drives the chat orchestrator's per-turn defaults.
type ChatConfig struct {
	DefaultPreset        string `yaml:"defaultPreset"`
	DefaultRetrievalMode string `yaml:"defaultRetrievalMode"`
	DefaultTopK          int    `yaml:"defaultTopK"`
	ReformulationEnabled bool   `yaml:"reformulationEnabled"`
	ReformulationMode    string `yaml:"reformulationMode"`
	RerankEnabled        bool   `yaml:"rerankEnabled"`
	HistoryTokenBudget   int    `yaml:"historyTokenBudget"`
}

// SummaryConfig drives the document summary service.
type SummaryConfig struct {
	MaxSummaryLen int    `yaml:"maxSummaryLen"`
	DefaultPrompt string `yaml:"defaultPrompt"`
}

// SynonymConfig drives query expansion.
type SynonymConfig struct {
	Enabled  bool `yaml:"enabled"`
	MaxTerms int  `yaml:"maxTerms"`
}

// RateLimitConfig toggles the per-endpoint-class rate limiter; per-class
// limits themselves use ratelimit.DefaultConfig() unless overridden here.
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_EMBEDDING_DIM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.EmbeddingDim = parsed
		}
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LLM.Temperature = parsed
		}
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("STORAGE_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("AUTH_API_KEY_BYTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Auth.APIKeyBytes = parsed
		}
	}
	if v := os.Getenv("INGEST_CHUNK_TARGET_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.DefaultChunkTargetTokens = parsed
		}
	}
	if v := os.Getenv("INGEST_CHUNK_OVERLAP"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.DefaultChunkOverlap = parsed
		}
	}
	if v := os.Getenv("INGEST_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.MaxRetries = parsed
		}
	}
	if v := os.Getenv("INGEST_RETRY_BASE_DELAY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Ingest.RetryBaseDelay = parsed
		}
	}
	if v := os.Getenv("INGEST_MAX_FILE_MB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.MaxFileMB = parsed
		}
	}
	if v := os.Getenv("RETRIEVAL_DEFAULT_TOP_K"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Retrieval.DefaultTopK = parsed
		}
	}
	if v := os.Getenv("CHAT_DEFAULT_PRESET"); v != "" {
		cfg.Chat.DefaultPreset = v
	}
	if v := os.Getenv("CHAT_DEFAULT_RETRIEVAL_MODE"); v != "" {
		cfg.Chat.DefaultRetrievalMode = v
	}
	if v := os.Getenv("CHAT_REFORMULATION_ENABLED"); v != "" {
		cfg.Chat.ReformulationEnabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("CHAT_RERANK_ENABLED"); v != "" {
		cfg.Chat.RerankEnabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("CHAT_HISTORY_TOKEN_BUDGET"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Chat.HistoryTokenBudget = parsed
		}
	}
	if v := os.Getenv("SUMMARY_MAX_LEN"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.MaxSummaryLen = parsed
		}
	}
	if v := os.Getenv("SYNONYM_ENABLED"); v != "" {
		cfg.Synonym.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		cfg.RateLimit.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("RETRY_ENABLED"); v != "" {
		cfg.Retry.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Retry.BaseBackoff = parsed
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			EmbeddingDim:   1536,
			Temperature:    0.2,
		},
		Auth: AuthConfig{
			APIKeyBytes: 32,
		},
		Ingest: IngestConfig{
			DefaultChunkTargetTokens: 400,
			DefaultChunkOverlap:      40,
			MaxRetries:               3,
			RetryBaseDelay:           500 * time.Millisecond,
			MaxFileMB:                50,
		},
		Retrieval: RetrievalConfig{
			DefaultTopK:                10,
			DefaultHierarchicalTopDocs: 5,
		},
		Chat: ChatConfig{
			DefaultPreset:        "comprehensive",
			DefaultRetrievalMode: "hybrid",
			DefaultTopK:          10,
			ReformulationEnabled: true,
			ReformulationMode:    "rewrite",
			RerankEnabled:        false,
			HistoryTokenBudget:   2000,
		},
		Summary: SummaryConfig{
			MaxSummaryLen: 400,
			DefaultPrompt: "Summarize the following document in 3-5 sentences, focused on what a reader would need to decide whether to open it.",
		},
		Synonym: SynonymConfig{
			Enabled:  true,
			MaxTerms: 3,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseBackoff: 150 * time.Millisecond,
		},
		Postgres: PostgresConfig{
			MaxConns: 10,
			MinConns: 2,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.EmbeddingModel) == "" {
		return errors.New("llm.embeddingModel cannot be empty")
	}
	if c.LLM.EmbeddingDim <= 0 {
		return errors.New("llm.embeddingDim must be positive")
	}
	if c.Ingest.DefaultChunkTargetTokens <= 0 {
		return errors.New("ingest.defaultChunkTargetTokens must be positive")
	}
	if c.Ingest.MaxFileMB <= 0 {
		return errors.New("ingest.maxFileMb must be positive")
	}
	if c.Retrieval.DefaultTopK <= 0 {
		return errors.New("retrieval.defaultTopK must be positive")
	}
	if c.Chat.HistoryTokenBudget <= 0 {
		return errors.New("chat.historyTokenBudget must be positive")
	}
	if c.Auth.APIKeyBytes <= 0 {
		return errors.New("auth.apiKeyBytes must be positive")
	}
	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("redis.addr cannot be empty when redis is enabled")
	}
	if c.RateLimit.Enabled {
		// per-class limits come from ratelimit.DefaultConfig(); nothing
		// further to validate here.
	}
	if c.Retry.Enabled {
		if c.Retry.MaxAttempts <= 0 {
			return errors.New("retry.maxAttempts must be positive")
		}
		if c.Retry.BaseBackoff <= 0 {
			return errors.New("retry.baseBackoff must be positive")
		}
	}
	return nil
}
