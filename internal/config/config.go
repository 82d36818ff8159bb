package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"notes-rag/internal/parser"
)

const (
	defaultIndexPath    = "./vector_data/index.json"
	defaultChatResults  = 8
	defaultStudyResults = 10
	defaultTimeoutSecs  = 60
	defaultRPM          = 60
)

// store backends for the chunk index
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// generation providers
const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

type Config struct {
	LogLevel string         `yaml:"log_level"`
	RAG      RAGConfig      `yaml:"rag"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
}

type RAGConfig struct {
	ChunkSize    int          `yaml:"chunk_size"`
	ChunkOverlap int          `yaml:"chunk_overlap"`
	Store        string       `yaml:"store"`
	IndexPath    string       `yaml:"index_path"`
	ChatResults  int          `yaml:"chat_results"`
	StudyResults int          `yaml:"study_results"`
	Ranker       RankerConfig `yaml:"ranker"`
}

// RankerConfig holds the hand-tuned scoring constants
type RankerConfig struct {
	ImportantIDF      float64 `yaml:"important_idf"`
	AllImportantBoost float64 `yaml:"all_important_boost"`
	CoverageWeight    float64 `yaml:"coverage_weight"`
	StemPrefix        int     `yaml:"stem_prefix"`
	StemWeight        float64 `yaml:"stem_weight"`
}

type LLMConfig struct {
	Provider          string  `yaml:"provider"`
	BaseURL           string  `yaml:"base_url"`
	Key               string  `yaml:"key"`
	Model             string  `yaml:"model"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	Temperature       float64 `yaml:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
}

type DatabaseConfig struct {
	DSN   string `yaml:"dsn"`
	Debug bool   `yaml:"debug"`
}

// LoadConfig reads the yaml config at path. A missing file yields the
// defaults. Values from the environment (and a .env file if present)
// override the file.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate rejects configurations the chunker cannot run with
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, %d), got %d", c.RAG.ChunkSize, c.RAG.ChunkOverlap)
	}
	switch c.RAG.Store {
	case StoreFile, StorePostgres:
	default:
		return fmt.Errorf("unknown rag.store: %s", c.RAG.Store)
	}
	switch c.LLM.Provider {
	case ProviderNone, ProviderOpenAI, ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("unknown llm.provider: %s", c.LLM.Provider)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.Key = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	// overlap of 0 is a valid setting, so only default it alongside the size
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = parser.DefaultChunkSize
		if cfg.RAG.ChunkOverlap == 0 {
			cfg.RAG.ChunkOverlap = parser.DefaultChunkOverlap
		}
	}
	if cfg.RAG.Store == "" {
		cfg.RAG.Store = StoreFile
	}
	if cfg.RAG.IndexPath == "" {
		cfg.RAG.IndexPath = defaultIndexPath
	}
	if cfg.RAG.ChatResults == 0 {
		cfg.RAG.ChatResults = defaultChatResults
	}
	if cfg.RAG.StudyResults == 0 {
		cfg.RAG.StudyResults = defaultStudyResults
	}

	r := &cfg.RAG.Ranker
	if r.ImportantIDF == 0 {
		r.ImportantIDF = 2.0
	}
	if r.AllImportantBoost == 0 {
		r.AllImportantBoost = 3.0
	}
	if r.CoverageWeight == 0 {
		r.CoverageWeight = 2.0
	}
	if r.StemPrefix == 0 {
		r.StemPrefix = 4
	}
	if r.StemWeight == 0 {
		r.StemWeight = 0.5
	}

	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderNone
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = defaultTimeoutSecs
	}
	if cfg.LLM.RequestsPerMinute == 0 {
		cfg.LLM.RequestsPerMinute = defaultRPM
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	switch cfg.LLM.Provider {
	case ProviderOpenAI:
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = "https://openrouter.ai/api/v1"
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "openai/gpt-4o-mini"
		}
	case ProviderOllama:
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = "http://localhost:11434"
		}
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "llama3.1"
		}
	case ProviderGemini:
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "gemini-2.0-flash"
		}
	}
}
