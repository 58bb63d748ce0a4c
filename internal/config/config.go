package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"paper-rag/internal/chunker"
	"paper-rag/internal/models"
	"paper-rag/internal/parser"
)

const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"

	VectorStoreMemory  = "memory"
	VectorStoreChromem = "chromem"

	HistoryMemory   = "memory"
	HistoryRedis    = "redis"
	HistoryPostgres = "postgres"

	groqKeyPrefix      = "gsk_"
	defaultTemperature = 0.7
)

type Config struct {
	LogLevel string        `yaml:"log_level"`
	LLM      LLMConfig     `yaml:"llm"`
	EmbedLLM LLMConfig     `yaml:"embed_llm"`
	RAG      RAGConfig     `yaml:"rag"`
	Server   ServerConfig  `yaml:"server"`
	History  HistoryConfig `yaml:"history"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	Key         string        `yaml:"key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	BatchSize   int           `yaml:"batch_size"`
	Dimension   int           `yaml:"dimension"`
	Timeout     time.Duration `yaml:"timeout"`
}

type RAGConfig struct {
	ChunkSize         int      `yaml:"chunk_size"`
	ChunkOverlap      int      `yaml:"chunk_overlap"`
	TopK              int      `yaml:"top_k"`
	MaxContextChars   int      `yaml:"max_context_chars"`
	VectorStore       string   `yaml:"vector_store"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	GinMode       string `yaml:"gin_mode"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

type HistoryConfig struct {
	Backend  string         `yaml:"backend"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type DatabaseConfig struct {
	URL    string `yaml:"url"`
	Driver string `yaml:"driver"`
	Debug  bool   `yaml:"debug"`
}

// LoadConfig reads the yaml file at path, fills defaults, applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := seed()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config file failed: %w", err)
	}
	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := seed()
	cfg.ApplyDefaults()
	return &cfg
}

// seed holds defaults whose zero value is a legal setting. They are set
// before decoding so that only an absent key falls back to them.
func seed() Config {
	return Config{LLM: LLMConfig{Temperature: defaultTemperature}}
}

// ApplyDefaults fills zero values. Chunk parameters are only defaulted when
// both are unset so that an explicit bad pair is still rejected.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGroq
	}
	if c.LLM.BaseURL == "" {
		switch c.LLM.Provider {
		case ProviderGroq:
			c.LLM.BaseURL = "https://api.groq.com/openai/v1"
		case ProviderOllama:
			c.LLM.BaseURL = "http://localhost:11434"
		default:
			c.LLM.BaseURL = "https://api.openai.com/v1"
		}
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3-8b-8192"
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}

	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = ProviderOpenAI
	}
	if c.EmbedLLM.BaseURL == "" {
		if c.EmbedLLM.Provider == ProviderOllama {
			c.EmbedLLM.BaseURL = "http://localhost:11434"
		} else {
			c.EmbedLLM.BaseURL = "https://api.openai.com/v1"
		}
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = "text-embedding-3-large"
	}
	if c.EmbedLLM.BatchSize == 0 {
		c.EmbedLLM.BatchSize = 16
	}
	if c.EmbedLLM.Timeout == 0 {
		c.EmbedLLM.Timeout = 30 * time.Second
	}

	if c.RAG.ChunkSize == 0 && c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkSize = 1000
		c.RAG.ChunkOverlap = 200
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 4
	}
	if c.RAG.MaxContextChars == 0 {
		c.RAG.MaxContextChars = 4000
	}
	if c.RAG.VectorStore == "" {
		c.RAG.VectorStore = VectorStoreMemory
	}
	if len(c.RAG.AllowedExtensions) == 0 {
		c.RAG.AllowedExtensions = []string{".pdf"}
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.GinMode == "" {
		c.Server.GinMode = "release"
	}
	if c.Server.MaxUploadSize == 0 {
		c.Server.MaxUploadSize = 10 << 20
	}

	if c.History.Backend == "" {
		c.History.Backend = HistoryMemory
	}
	if c.History.Redis.TTL == 0 {
		c.History.Redis.TTL = 24 * time.Hour
	}
	if c.History.Database.Driver == "" {
		c.History.Database.Driver = "pgdriver"
	}
}

// ApplyEnv lets secrets come from the environment instead of the file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GROQ_API_KEY"); v != "" && c.LLM.Provider == ProviderGroq {
		c.LLM.Key = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.LLM.Provider == ProviderOpenAI {
			c.LLM.Key = v
		}
		if c.EmbedLLM.Provider == ProviderOpenAI {
			c.EmbedLLM.Key = v
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.History.Redis.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.History.Database.URL = v
	}
}

// Validate rejects settings the pipeline cannot run with. It never corrects
// them.
func (c *Config) Validate() error {
	if err := chunker.ValidateWindow(c.RAG.ChunkSize, c.RAG.ChunkOverlap); err != nil {
		return err
	}
	if c.RAG.TopK <= 0 {
		return invalid("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.RAG.MaxContextChars <= 0 {
		return invalid("rag.max_context_chars must be positive, got %d", c.RAG.MaxContextChars)
	}
	switch c.RAG.VectorStore {
	case VectorStoreMemory, VectorStoreChromem:
	default:
		return invalid("unknown rag.vector_store %q", c.RAG.VectorStore)
	}
	supported := parser.SupportedExtensions()
	for _, ext := range c.RAG.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return invalid("allowed extension %q must start with a dot", ext)
		}
		if !slices.Contains(supported, strings.ToLower(ext)) {
			return invalid("allowed extension %q is not supported, want one of %v", ext, supported)
		}
	}

	if err := c.LLM.validate("llm"); err != nil {
		return err
	}
	if err := c.EmbedLLM.validate("embed_llm"); err != nil {
		return err
	}
	if c.EmbedLLM.BatchSize <= 0 {
		return invalid("embed_llm.batch_size must be positive, got %d", c.EmbedLLM.BatchSize)
	}

	switch c.History.Backend {
	case HistoryMemory:
	case HistoryRedis:
		if c.History.Redis.Addr == "" {
			return invalid("history.redis.addr is required for the redis backend")
		}
	case HistoryPostgres:
		if c.History.Database.URL == "" {
			return invalid("history.database.url is required for the postgres backend")
		}
		if d := c.History.Database.Driver; d != "pgdriver" && d != "pq" {
			return invalid("unknown history.database.driver %q", d)
		}
	default:
		return invalid("unknown history.backend %q", c.History.Backend)
	}
	return nil
}

func (l LLMConfig) validate(section string) error {
	switch l.Provider {
	case ProviderOpenAI, ProviderGroq:
		if l.Key == "" {
			return invalid("%s.key is required for provider %s", section, l.Provider)
		}
	case ProviderOllama:
	default:
		return invalid("unknown %s.provider %q", section, l.Provider)
	}
	if l.Provider == ProviderGroq && !strings.HasPrefix(l.Key, groqKeyPrefix) {
		return invalid("%s.key is not a valid Groq API key: must start with %q", section, groqKeyPrefix)
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return invalid("%s.temperature must be within [0, 2], got %v", section, l.Temperature)
	}
	if l.Timeout < 0 {
		return invalid("%s.timeout must not be negative", section)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
