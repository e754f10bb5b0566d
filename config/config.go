package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the due diligence service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	ServiceName string `mapstructure:"service_name"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	DataDir     string `mapstructure:"data_dir"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LLMConfig selects and configures the synthesizer backend.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // auto, openai, ollama, heuristic
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	OpenAI      OpenAIConfig  `mapstructure:"openai"`
	Ollama      OllamaConfig  `mapstructure:"ollama"`
}

// OpenAIConfig contains OpenAI API settings
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	MaxTokens      int    `mapstructure:"max_tokens"`
}

// OllamaConfig contains local Ollama settings
type OllamaConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// SearchConfig contains web search settings
type SearchConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"` // duckduckgo, brave, serper
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RatePerSec   float64       `mapstructure:"rate_per_sec"`
	Parallelism  int           `mapstructure:"parallelism"`
}

// FetchConfig contains page retrieval and cleaning settings
type FetchConfig struct {
	Timeout     time.Duration      `mapstructure:"timeout"`
	MinChars    int                `mapstructure:"min_chars"`
	MaxChars    int                `mapstructure:"max_chars"`
	Loader      string             `mapstructure:"loader"`    // http, chromedp
	Extractor   string             `mapstructure:"extractor"` // html, readability
	UserAgent   string             `mapstructure:"user_agent"`
	Parallelism int                `mapstructure:"parallelism"`
	Policy      DomainPolicyConfig `mapstructure:"policy"`
}

// CacheConfig selects the content cache backend.
type CacheConfig struct {
	Backend string      `mapstructure:"backend"` // file, redis
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("cache.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("cache.redis.port required")
	}
	return nil
}

// MemoryConfig controls the persistent vector memory.
type MemoryConfig struct {
	IndexDir            string `mapstructure:"index_dir"`
	EmbeddingProvider   string `mapstructure:"embedding_provider"` // auto, openai, ollama, hashing
	EmbeddingDimensions int    `mapstructure:"embedding_dimensions"`
	RetrieveK           int    `mapstructure:"retrieve_k"`
}

// StorageConfig contains optional report archive settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig contains Postgres connection settings. An empty DSN disables the archive.
type PostgresConfig struct {
	DSN     string        `mapstructure:"dsn"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a report archive is configured.
func (p PostgresConfig) Enabled() bool { return strings.TrimSpace(p.DSN) != "" }

// TelemetryConfig contains metrics and tracing settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`       // expose /metrics
	Tracing      bool   `mapstructure:"tracing"`       // export spans over OTLP
	OTLPEndpoint string `mapstructure:"otlp_endpoint"` // host:port of the collector
}

// Normalize applies defaults for unset values.
func (c Config) Normalize() Config {
	if strings.TrimSpace(c.General.ServiceName) == "" {
		c.General.ServiceName = "enterprise-ai-due-diligence-agent"
	}
	c.General.LogLevel = strings.ToLower(strings.TrimSpace(c.General.LogLevel))
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "data"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8000"
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 10 * time.Minute
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = "auto"
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.2
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.LLM.OpenAI.Model == "" {
		c.LLM.OpenAI.Model = "gpt-4.1-mini"
	}
	if c.LLM.OpenAI.EmbeddingModel == "" {
		c.LLM.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.LLM.Ollama.Model == "" {
		c.LLM.Ollama.Model = "llama3.1:8b"
	}
	if c.LLM.Ollama.EmbeddingModel == "" {
		c.LLM.Ollama.EmbeddingModel = "nomic-embed-text"
	}

	c.Search.Provider = strings.ToLower(strings.TrimSpace(c.Search.Provider))
	if c.Search.Provider == "" {
		c.Search.Provider = "duckduckgo"
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = 15 * time.Second
	}
	if c.Search.RatePerSec <= 0 {
		c.Search.RatePerSec = 1
	}
	if c.Search.Parallelism <= 0 {
		c.Search.Parallelism = 1
	}

	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 12 * time.Second
	}
	if c.Fetch.MinChars <= 0 {
		c.Fetch.MinChars = 400
	}
	if c.Fetch.MaxChars <= 0 {
		c.Fetch.MaxChars = 20000
	}
	c.Fetch.Loader = strings.ToLower(strings.TrimSpace(c.Fetch.Loader))
	if c.Fetch.Loader == "" {
		c.Fetch.Loader = "http"
	}
	c.Fetch.Extractor = strings.ToLower(strings.TrimSpace(c.Fetch.Extractor))
	if c.Fetch.Extractor == "" {
		c.Fetch.Extractor = "html"
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "Mozilla/5.0 (DueDiligenceAgent/1.0)"
	}
	if c.Fetch.Parallelism <= 0 {
		c.Fetch.Parallelism = 4
	}
	c.Fetch.Policy = c.Fetch.Policy.Normalize()

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = "file"
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = filepath.Join(c.General.DataDir, "cache")
	}
	if c.Cache.Redis.Port == "" {
		c.Cache.Redis.Port = "6379"
	}
	if c.Cache.Redis.Timeout <= 0 {
		c.Cache.Redis.Timeout = 5 * time.Second
	}

	if c.Memory.IndexDir == "" {
		c.Memory.IndexDir = filepath.Join(c.General.DataDir, "faiss_index")
	}
	c.Memory.EmbeddingProvider = strings.ToLower(strings.TrimSpace(c.Memory.EmbeddingProvider))
	if c.Memory.EmbeddingProvider == "" {
		c.Memory.EmbeddingProvider = "auto"
	}
	if c.Memory.EmbeddingDimensions <= 0 {
		c.Memory.EmbeddingDimensions = 384
	}
	if c.Memory.RetrieveK <= 0 {
		c.Memory.RetrieveK = 8
	}
	if c.Storage.Postgres.Timeout <= 0 {
		c.Storage.Postgres.Timeout = 10 * time.Second
	}
	if c.Telemetry.Tracing && c.Telemetry.OTLPEndpoint == "" {
		c.Telemetry.OTLPEndpoint = "localhost:4317"
	}
	return c
}

// Validate checks enumerations and limits after normalisation.
func (c Config) Validate() error {
	switch c.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("general.log_level %q is not one of debug|info|warn|error", c.General.LogLevel)
	}
	switch c.LLM.Provider {
	case "auto", "openai", "ollama", "heuristic":
	default:
		return fmt.Errorf("llm.provider %q is not one of auto|openai|ollama|heuristic", c.LLM.Provider)
	}
	if c.LLM.Provider == "openai" && strings.TrimSpace(c.LLM.OpenAI.APIKey) == "" {
		return errors.New("llm.openai.api_key required when llm.provider is openai")
	}
	switch c.Search.Provider {
	case "duckduckgo", "brave", "serper", "none":
	default:
		return fmt.Errorf("search.provider %q is not one of duckduckgo|brave|serper|none", c.Search.Provider)
	}
	if c.Search.Enabled && c.Search.Provider == "brave" && strings.TrimSpace(c.Search.BraveAPIKey) == "" {
		return errors.New("search.brave_api_key required when search.provider is brave")
	}
	if c.Search.Enabled && c.Search.Provider == "serper" && strings.TrimSpace(c.Search.SerperAPIKey) == "" {
		return errors.New("search.serper_api_key required when search.provider is serper")
	}
	switch c.Fetch.Loader {
	case "http", "chromedp":
	default:
		return fmt.Errorf("fetch.loader %q is not one of http|chromedp", c.Fetch.Loader)
	}
	switch c.Fetch.Extractor {
	case "html", "readability":
	default:
		return fmt.Errorf("fetch.extractor %q is not one of html|readability", c.Fetch.Extractor)
	}
	if c.Fetch.MinChars > c.Fetch.MaxChars {
		return fmt.Errorf("fetch.min_chars (%d) must not exceed fetch.max_chars (%d)", c.Fetch.MinChars, c.Fetch.MaxChars)
	}
	if err := c.Fetch.Policy.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "file":
	case "redis":
		if err := c.Cache.Redis.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("cache.backend %q is not one of file|redis", c.Cache.Backend)
	}
	switch c.Memory.EmbeddingProvider {
	case "auto", "openai", "ollama", "hashing":
	default:
		return fmt.Errorf("memory.embedding_provider %q is not one of auto|openai|ollama|hashing", c.Memory.EmbeddingProvider)
	}
	if c.Memory.EmbeddingProvider == "openai" && strings.TrimSpace(c.LLM.OpenAI.APIKey) == "" {
		return errors.New("llm.openai.api_key required when memory.embedding_provider is openai")
	}
	return nil
}

// LoadConfig loads config from file (optional) and DILIGENCE_* environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("json")
	v.SetDefault("search.enabled", true)
	v.SetDefault("telemetry.enabled", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DILIGENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnvKeys registers every key so DILIGENCE_* variables apply even when the
// key is absent from the config file.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"general.service_name", "general.debug", "general.log_level", "general.data_dir",
		"server.address", "server.request_timeout",
		"llm.provider", "llm.temperature", "llm.timeout",
		"llm.openai.api_key", "llm.openai.base_url", "llm.openai.model", "llm.openai.embedding_model", "llm.openai.max_tokens",
		"llm.ollama.base_url", "llm.ollama.model", "llm.ollama.embedding_model",
		"search.provider", "search.brave_api_key", "search.serper_api_key", "search.timeout", "search.rate_per_sec", "search.parallelism",
		"fetch.timeout", "fetch.min_chars", "fetch.max_chars", "fetch.loader", "fetch.extractor", "fetch.user_agent", "fetch.parallelism",
		"cache.backend", "cache.dir",
		"cache.redis.host", "cache.redis.port", "cache.redis.password", "cache.redis.db", "cache.redis.timeout", "cache.redis.ttl",
		"memory.index_dir", "memory.embedding_provider", "memory.embedding_dimensions", "memory.retrieve_k",
		"storage.postgres.dsn", "storage.postgres.timeout",
		"telemetry.enabled", "telemetry.tracing", "telemetry.otlp_endpoint",
	} {
		_ = v.BindEnv(key)
	}
}
