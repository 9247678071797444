// Package config loads the daemon configuration from environment-named YAML
// files with ${VAR} expansion. The engine core consumes these knobs but does
// not own them: the minimum-similarity floor, per-doc-type priority weights,
// and per-intent routine enablement are all supplied here and only applied by
// the core.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the holoindex daemon configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Routing   RoutingConfig   `yaml:"routing"`
	Research  ResearchConfig  `yaml:"research"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Corpus    CorpusConfig    `yaml:"corpus"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// RetrievalConfig holds the scoring and filtering knobs applied per query.
type RetrievalConfig struct {
	// MinSimilarity is the floor below which hits are dropped outright.
	MinSimilarity float64 `yaml:"min_similarity"`
	// PriorityWeights assigns the static authority weight per doc type.
	PriorityWeights map[string]float64 `yaml:"priority_weights"`
	// DefaultLimit caps hits per doc type when the query does not set one.
	DefaultLimit int `yaml:"default_limit"`
	// CacheSize bounds the composed-bundle LRU cache. 0 disables caching.
	CacheSize int `yaml:"cache_size"`
	// CacheTTLSec expires cached bundles.
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

// RoutingConfig holds per-intent routine enablement. Keys are intent classes,
// values list routine identifiers. Unset intents use the built-in routing
// table; the research-only network gate is enforced by the router regardless
// of what is listed here.
type RoutingConfig struct {
	Routines map[string][]string `yaml:"routines"`
}

// ResearchConfig holds the network-bound auxiliary lookup settings.
type ResearchConfig struct {
	Endpoint   string `yaml:"endpoint"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Backend string       `yaml:"backend"` // sqlite, qdrant, memory (default: sqlite)
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Qdrant  QdrantConfig `yaml:"qdrant"`
}

// SQLiteConfig holds the embedded store settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig holds the Qdrant REST backend settings.
type QdrantConfig struct {
	URL              string `yaml:"url"`
	APIKey           string `yaml:"api_key"`
	CollectionPrefix string `yaml:"collection_prefix"`
	TimeoutSec       int    `yaml:"timeout_sec"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string       `yaml:"provider"` // openai, local (default: local)
	OpenAI    OpenAIConfig `yaml:"openai"`
	Dimension int          `yaml:"dimension"`
	CacheSize int          `yaml:"cache_size"`
}

// OpenAIConfig holds OpenAI-compatible embedding API settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// CacheConfig holds the optional Redis embedding cache settings.
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the embedding cache.
type RedisConfig struct {
	Enabled             bool     `yaml:"enabled"`
	Addrs               []string `yaml:"addrs"`
	Username            string   `yaml:"username"`
	Password            string   `yaml:"password"`
	DB                  int      `yaml:"db"`
	TTLSec              int      `yaml:"ttl_sec"`
	ReadinessTimeoutSec int      `yaml:"readiness_timeout_sec"`
}

// TelemetryConfig holds the metrics/health HTTP server settings.
type TelemetryConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
}

// CorpusConfig holds indexing job settings.
type CorpusConfig struct {
	Roots          []string `yaml:"roots"`
	SkillsRoot     string   `yaml:"skills_root"`
	ProtocolRoots  []string `yaml:"protocol_roots"`
	Workers        int      `yaml:"workers"`
	ChunkLines     int      `yaml:"chunk_lines"`
	OversizedLines int      `yaml:"oversized_lines"`
	LockPath       string   `yaml:"lock_path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes configuration bytes, expands ${VAR} references, applies
// defaults, and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration used when no config file exists.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// MustLoad loads configuration for the current environment, panicking on failure.
func MustLoad() Config {
	cfg, err := Load(GetEnv())
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Retrieval.MinSimilarity == 0 {
		c.Retrieval.MinSimilarity = 0.35
	}
	if c.Retrieval.PriorityWeights == nil {
		c.Retrieval.PriorityWeights = map[string]float64{}
	}
	applyWeightDefault(c.Retrieval.PriorityWeights, "protocol_doc", 0.9)
	applyWeightDefault(c.Retrieval.PriorityWeights, "skill", 0.8)
	applyWeightDefault(c.Retrieval.PriorityWeights, "code", 0.7)
	applyWeightDefault(c.Retrieval.PriorityWeights, "test", 0.5)
	if c.Retrieval.DefaultLimit <= 0 {
		c.Retrieval.DefaultLimit = 10
	}
	if c.Retrieval.CacheSize < 0 {
		c.Retrieval.CacheSize = 0
	}
	if c.Retrieval.CacheTTLSec <= 0 {
		c.Retrieval.CacheTTLSec = 300
	}
	if c.Research.TimeoutSec <= 0 {
		c.Research.TimeoutSec = 5
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = defaultDBPath()
	}
	if c.Store.Qdrant.CollectionPrefix == "" {
		c.Store.Qdrant.CollectionPrefix = "holoindex_"
	}
	if c.Store.Qdrant.TimeoutSec <= 0 {
		c.Store.Qdrant.TimeoutSec = 15
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "local"
	}
	if c.Embedding.Dimension <= 0 {
		c.Embedding.Dimension = 384
	}
	if c.Embedding.CacheSize <= 0 {
		c.Embedding.CacheSize = 10000
	}
	if c.Embedding.OpenAI.Model == "" {
		c.Embedding.OpenAI.Model = "text-embedding-3-small"
	}
	if c.Cache.Redis.TTLSec <= 0 {
		c.Cache.Redis.TTLSec = 86400
	}
	if c.Cache.Redis.ReadinessTimeoutSec <= 0 {
		c.Cache.Redis.ReadinessTimeoutSec = 10
	}
	if c.Telemetry.Addr == "" {
		c.Telemetry.Addr = ":9464"
	}
	if c.Telemetry.ReadTimeoutSec <= 0 {
		c.Telemetry.ReadTimeoutSec = 10
	}
	if c.Telemetry.WriteTimeoutSec <= 0 {
		c.Telemetry.WriteTimeoutSec = 10
	}
	if c.Telemetry.ShutdownSec <= 0 {
		c.Telemetry.ShutdownSec = 10
	}
	if c.Corpus.Workers <= 0 {
		c.Corpus.Workers = runtime.NumCPU()
	}
	if c.Corpus.ChunkLines <= 0 {
		c.Corpus.ChunkLines = 60
	}
	if c.Corpus.OversizedLines <= 0 {
		c.Corpus.OversizedLines = 800
	}
	if c.Corpus.LockPath == "" {
		c.Corpus.LockPath = filepath.Join(os.TempDir(), "holoindex-index.lock")
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Retrieval.MinSimilarity < 0 || c.Retrieval.MinSimilarity > 1 {
		return fmt.Errorf("retrieval.min_similarity must be between 0 and 1, got %v", c.Retrieval.MinSimilarity)
	}
	for name, w := range c.Retrieval.PriorityWeights {
		switch name {
		case "code", "protocol_doc", "test", "skill":
		default:
			return fmt.Errorf("retrieval.priority_weights has unknown doc type %q", name)
		}
		if w < 0 || w > 1 {
			return fmt.Errorf("retrieval.priority_weights.%s must be between 0 and 1, got %v", name, w)
		}
	}
	switch c.Store.Backend {
	case "sqlite", "qdrant", "memory":
	default:
		return fmt.Errorf("store.backend must be sqlite, qdrant, or memory, got %q", c.Store.Backend)
	}
	if c.Store.Backend == "qdrant" && c.Store.Qdrant.URL == "" {
		return fmt.Errorf("store.qdrant.url is required for the qdrant backend")
	}
	switch c.Embedding.Provider {
	case "openai", "local":
	default:
		return fmt.Errorf("embedding.provider must be openai or local, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Provider == "openai" && c.Embedding.OpenAI.APIKey == "" {
		return fmt.Errorf("embedding.openai.api_key is required for the openai provider")
	}
	if c.Cache.Redis.Enabled && len(c.Cache.Redis.Addrs) == 0 {
		return fmt.Errorf("cache.redis.addrs is required when the redis cache is enabled")
	}
	return nil
}

// defaultDBPath returns the default location of the embedded store.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "holoindex", "holoindex.db")
	}
	return filepath.Join(home, ".holoindex", "holoindex.db")
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

func applyWeightDefault(weights map[string]float64, key string, value float64) {
	if _, ok := weights[key]; !ok {
		weights[key] = value
	}
}
