// Package config loads transmute settings from transmute.yml, transmute.yaml
// or transmute.toml, then applies .env and TRANSMUTE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/transmute/internal/oracle"
	"github.com/dusk-indust/transmute/internal/orchestrator"
	"github.com/dusk-indust/transmute/internal/retrieval"
)

// File names searched by Load, in order.
var fileNames = []string{"transmute.yml", "transmute.yaml", "transmute.toml"}

// Retrieval backends.
const (
	BackendLexical  = "lexical"
	BackendVector   = "vector"
	BackendPGVector = "pgvector"
)

// Config is the full runtime configuration.
type Config struct {
	LLM       LLMConfig           `yaml:"llm" toml:"llm"`
	Retrieval RetrievalConfig     `yaml:"retrieval" toml:"retrieval"`
	Cache     CacheConfig         `yaml:"cache" toml:"cache"`
	Server    ServerConfig        `yaml:"server" toml:"server"`
	Log       LogConfig           `yaml:"log" toml:"log"`
	Params    orchestrator.Params `yaml:"params" toml:"params"`

	OutputDir   string `yaml:"output_dir" toml:"output_dir"`
	RequirePlan bool   `yaml:"require_plan" toml:"require_plan"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-" toml:"-"`
}

// LLMConfig selects the generation backend.
type LLMConfig struct {
	Provider    string        `yaml:"provider" toml:"provider"`
	Model       string        `yaml:"model" toml:"model"`
	BaseURL     string        `yaml:"base_url" toml:"base_url"`
	APIVersion  string        `yaml:"api_version" toml:"api_version"`
	APIKeyEnv   string        `yaml:"api_key_env" toml:"api_key_env"`
	MaxTokens   int           `yaml:"max_tokens" toml:"max_tokens"`
	Temperature float64       `yaml:"temperature" toml:"temperature"`
	MaxRetries  uint          `yaml:"max_retries" toml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout" toml:"timeout"`
	EchoHead    int           `yaml:"echo_head" toml:"echo_head"`
}

// RetrievalConfig selects the corpus and index backend.
type RetrievalConfig struct {
	DocsDir      string `yaml:"docs_dir" toml:"docs_dir"`
	Backend      string `yaml:"backend" toml:"backend"`
	K            int    `yaml:"k" toml:"k"`
	ChunkSize    int    `yaml:"chunk_size" toml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap" toml:"chunk_overlap"`
	EmbedModel   string `yaml:"embed_model" toml:"embed_model"`
	EmbedURL     string `yaml:"embed_url" toml:"embed_url"`
	EmbedDim     int    `yaml:"embed_dim" toml:"embed_dim"`
	DatabaseURL  string `yaml:"database_url" toml:"database_url"`
}

// CacheConfig enables the oracle response cache. An empty RedisURL with
// Memory set uses a process-local cache.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url" toml:"redis_url"`
	Memory   bool          `yaml:"memory" toml:"memory"`
	TTL      time.Duration `yaml:"ttl" toml:"ttl"`
}

// Enabled reports whether any cache is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisURL != "" || c.Memory
}

// ServerConfig configures `transmute serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// LogConfig configures the logger.
type LogConfig struct {
	File      string `yaml:"file" toml:"file"`
	Verbosity int    `yaml:"verbosity" toml:"verbosity"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    oracle.ProviderOllama,
			Temperature: 0.2,
			MaxRetries:  2,
			Timeout:     5 * time.Minute,
		},
		Retrieval: RetrievalConfig{
			DocsDir:      "webmethods_docs",
			Backend:      BackendLexical,
			K:            retrieval.DefaultK,
			ChunkSize:    retrieval.DefaultChunkSize,
			ChunkOverlap: retrieval.DefaultChunkOverlap,
			EmbedModel:   retrieval.DefaultEmbedModel,
			EmbedURL:     retrieval.DefaultEmbedURL,
			EmbedDim:     768,
		},
		Cache:     CacheConfig{TTL: 24 * time.Hour},
		Server:    ServerConfig{Addr: ":8080"},
		Params:    orchestrator.Params{}.WithDefaults(),
		OutputDir: "out",
	}
}

// Load reads the first config file found in dir over the defaults, then
// applies dir/.env and the environment. A missing file is not an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := decode(name, data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.Source = path
		break
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.Params = cfg.Params.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(name string, data []byte, cfg *Config) error {
	if strings.HasSuffix(name, ".toml") {
		_, err := toml.Decode(string(data), cfg)
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.Retrieval.Backend {
	case BackendLexical, BackendVector:
	case BackendPGVector:
		if c.Retrieval.DatabaseURL == "" {
			return fmt.Errorf("config: retrieval.backend %q requires retrieval.database_url", BackendPGVector)
		}
	default:
		return fmt.Errorf("config: unknown retrieval.backend %q (want %s, %s or %s)",
			c.Retrieval.Backend, BackendLexical, BackendVector, BackendPGVector)
	}
	if c.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("config: retrieval.chunk_size must be positive, got %d", c.Retrieval.ChunkSize)
	}
	if c.Retrieval.ChunkOverlap < 0 || c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("config: retrieval.chunk_overlap must be in [0, %d), got %d",
			c.Retrieval.ChunkSize, c.Retrieval.ChunkOverlap)
	}
	known := false
	for _, p := range oracle.Providers {
		if strings.EqualFold(c.LLM.Provider, p) {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("config: unknown llm.provider %q (want one of %s)",
			c.LLM.Provider, strings.Join(oracle.Providers, ", "))
	}
	return nil
}

// defaultKeyEnv maps providers to the API key variable read when
// llm.api_key_env is empty.
var defaultKeyEnv = map[string]string{
	oracle.ProviderOpenAI:    "OPENAI_API_KEY",
	oracle.ProviderAzure:     "AZURE_OPENAI_API_KEY",
	oracle.ProviderAnthropic: "ANTHROPIC_API_KEY",
	oracle.ProviderGemini:    "GEMINI_API_KEY",
}

// OracleSettings converts the llm section, resolving the API key from the
// environment.
func (c *Config) OracleSettings() oracle.Settings {
	keyEnv := c.LLM.APIKeyEnv
	if keyEnv == "" {
		keyEnv = defaultKeyEnv[strings.ToLower(c.LLM.Provider)]
	}
	var key string
	if keyEnv != "" {
		key = os.Getenv(keyEnv)
	}
	return oracle.Settings{
		Provider:    c.LLM.Provider,
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		APIKey:      key,
		APIVersion:  c.LLM.APIVersion,
		MaxTokens:   c.LLM.MaxTokens,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLM.Timeout,
		MaxRetries:  c.LLM.MaxRetries,
		EchoHead:    c.LLM.EchoHead,
	}
}

type envBinding struct {
	name string
	set  func(c *Config, v string) error
}

func str(f func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*f(c) = v
		return nil
	}
}

func integer(f func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*f(c) = n
		return nil
	}
}

func duration(f func(c *Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*f(c) = d
		return nil
	}
}

var envBindings = []envBinding{
	{"TRANSMUTE_LLM_PROVIDER", str(func(c *Config) *string { return &c.LLM.Provider })},
	{"TRANSMUTE_LLM_MODEL", str(func(c *Config) *string { return &c.LLM.Model })},
	{"TRANSMUTE_LLM_BASE_URL", str(func(c *Config) *string { return &c.LLM.BaseURL })},
	{"TRANSMUTE_LLM_API_VERSION", str(func(c *Config) *string { return &c.LLM.APIVersion })},
	{"TRANSMUTE_LLM_API_KEY_ENV", str(func(c *Config) *string { return &c.LLM.APIKeyEnv })},
	{"TRANSMUTE_LLM_MAX_TOKENS", integer(func(c *Config) *int { return &c.LLM.MaxTokens })},
	{"TRANSMUTE_LLM_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.LLM.Timeout })},
	{"TRANSMUTE_LLM_TEMPERATURE", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.LLM.Temperature = f
		return nil
	}},
	{"TRANSMUTE_LLM_MAX_RETRIES", func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return err
		}
		c.LLM.MaxRetries = uint(n)
		return nil
	}},
	{"TRANSMUTE_DOCS_DIR", str(func(c *Config) *string { return &c.Retrieval.DocsDir })},
	{"TRANSMUTE_RETRIEVAL_BACKEND", str(func(c *Config) *string { return &c.Retrieval.Backend })},
	{"TRANSMUTE_RETRIEVAL_K", integer(func(c *Config) *int { return &c.Retrieval.K })},
	{"TRANSMUTE_EMBED_MODEL", str(func(c *Config) *string { return &c.Retrieval.EmbedModel })},
	{"TRANSMUTE_EMBED_URL", str(func(c *Config) *string { return &c.Retrieval.EmbedURL })},
	{"TRANSMUTE_DATABASE_URL", str(func(c *Config) *string { return &c.Retrieval.DatabaseURL })},
	{"TRANSMUTE_REDIS_URL", str(func(c *Config) *string { return &c.Cache.RedisURL })},
	{"TRANSMUTE_CACHE_TTL", duration(func(c *Config) *time.Duration { return &c.Cache.TTL })},
	{"TRANSMUTE_SERVER_ADDR", str(func(c *Config) *string { return &c.Server.Addr })},
	{"TRANSMUTE_OUTPUT_DIR", str(func(c *Config) *string { return &c.OutputDir })},
	{"TRANSMUTE_SERVICE_NAME", str(func(c *Config) *string { return &c.Params.ServiceName })},
	{"TRANSMUTE_BASE_PACKAGE", str(func(c *Config) *string { return &c.Params.BasePackage })},
	{"TRANSMUTE_REQUIRE_PLAN", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.RequirePlan = b
		return nil
	}},
	{"TRANSMUTE_LOG_FILE", str(func(c *Config) *string { return &c.Log.File })},
	{"TRANSMUTE_LOG_VERBOSITY", integer(func(c *Config) *int { return &c.Log.Verbosity })},
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		v, ok := lookup(b.name)
		if !ok || v == "" {
			continue
		}
		if err := b.set(cfg, v); err != nil {
			return fmt.Errorf("config: %s=%q: %w", b.name, v, err)
		}
	}
	return nil
}
