// Package config loads the ragate configuration from YAML, an optional .env
// file and RAGATE_* environment variables, validates it, and builds the gate,
// the retrieval engine and the search backend from it.
//
// Precedence, lowest first: built-in defaults, the YAML file, the environment.
// A Config is built once at startup and treated as immutable afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/calque-ai/ragate/pkg/audit"
	"github.com/calque-ai/ragate/pkg/gate"
	"github.com/calque-ai/ragate/pkg/helpers"
	"github.com/calque-ai/ragate/pkg/retrieval"
)

// ErrInvalidConfig is returned for configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default values.
const (
	DefaultMaxRequests     = 60
	DefaultWindowSeconds   = 60
	DefaultK               = 5
	DefaultSearchBackend   = "mock"
	DefaultEmbedder        = "hashing"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
	DefaultServiceName     = "ragate"
	DefaultCacheTTLSeconds = 300

	// DefaultSearchTimeoutSeconds bounds each served query's search.
	DefaultSearchTimeoutSeconds = 10
)

// Config is the complete ragate configuration.
type Config struct {
	Gate          GateConfig          `yaml:"gate"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Search        SearchConfig        `yaml:"search"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Audit         AuditConfig         `yaml:"audit"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GateConfig configures the request gate.
type GateConfig struct {
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	MaxQueryLength int             `yaml:"max_query_length" validate:"gt=0"`

	// Keywords replaces the structural keyword list when non-empty.
	Keywords []string `yaml:"keywords" validate:"dive,required"`

	// InstructionOverride toggles the instruction-override rule; nil means on.
	InstructionOverride *bool `yaml:"instruction_override"`

	// AttackPatterns replaces the detector table when present. Family order
	// in the file is evaluation order.
	AttackPatterns yaml.MapSlice `yaml:"attack_patterns"`
}

// RateLimitConfig is the sliding-window limit per identity.
type RateLimitConfig struct {
	MaxRequests   int `yaml:"max_requests" validate:"gt=0" jsonschema:"minimum=1"`
	WindowSeconds int `yaml:"window_seconds" validate:"gt=0" jsonschema:"minimum=1"`
}

// RetrievalConfig holds the engine defaults.
type RetrievalConfig struct {
	K                   int      `yaml:"k" validate:"gt=0"`
	SimilarityThreshold float64  `yaml:"similarity_threshold" validate:"gte=0,lte=1" jsonschema:"minimum=0,maximum=1"`
	DiversityThreshold  float64  `yaml:"diversity_threshold" validate:"gte=0,lte=1" jsonschema:"minimum=0,maximum=1"`
	Similarity          string   `yaml:"similarity" validate:"omitempty,oneof=jaccard cosine sorensen-dice" jsonschema:"enum=jaccard,enum=cosine,enum=sorensen-dice"`
	TimestampKeys       []string `yaml:"timestamp_keys" validate:"dive,required"`
}

// SearchConfig selects and configures the similarity search backend.
type SearchConfig struct {
	Backend         string         `yaml:"backend" validate:"required,oneof=mock qdrant pgvector weaviate" jsonschema:"enum=mock,enum=qdrant,enum=pgvector,enum=weaviate"`
	CacheTTLSeconds int            `yaml:"cache_ttl_seconds" validate:"gte=0"`
	// TimeoutSeconds is the per-request search deadline for served queries;
	// expiry yields an empty result. 0 disables it.
	TimeoutSeconds  int            `yaml:"timeout_seconds" validate:"gte=0"`
	Mock            MockConfig     `yaml:"mock"`
	Qdrant          QdrantConfig   `yaml:"qdrant"`
	PGVector        PGVectorConfig `yaml:"pgvector"`
	Weaviate        WeaviateConfig `yaml:"weaviate"`
}

// MockConfig configures the in-memory backend.
type MockConfig struct {
	// CorpusPath is a YAML or JSON list of documents to index at startup.
	CorpusPath string `yaml:"corpus_path"`
}

type QdrantConfig struct {
	URL        string `yaml:"url" validate:"omitempty,url"`
	Collection string `yaml:"collection"`
	APIKey     string `yaml:"api_key"`
	Dimension  int    `yaml:"dimension" validate:"gte=0"`
}

type PGVectorConfig struct {
	DSN       string `yaml:"dsn"`
	Table     string `yaml:"table"`
	Dimension int    `yaml:"dimension" validate:"gte=0"`
}

type WeaviateConfig struct {
	URL    string `yaml:"url" validate:"omitempty,url"`
	Class  string `yaml:"class"`
	APIKey string `yaml:"api_key"`
}

// EmbeddingConfig selects the query embedding provider for vector backends.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" validate:"required,oneof=hashing openai ollama gemini" jsonschema:"enum=hashing,enum=openai,enum=ollama,enum=gemini"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension" validate:"gte=0"`
	URL       string `yaml:"url" validate:"omitempty,url"`
	APIKey    string `yaml:"api_key"`
}

// AuditConfig configures the audit sinks.
type AuditConfig struct {
	RecentEvents   int    `yaml:"recent_events" validate:"gt=0"`
	BufferSize     int    `yaml:"buffer_size" validate:"gte=0"`
	Path           string `yaml:"path"`
	RetentionHours int    `yaml:"retention_hours" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error" jsonschema:"enum=debug,enum=info,enum=warn,enum=warning,enum=error"`
	Format string `yaml:"format" validate:"oneof=console json" jsonschema:"enum=console,enum=json"`
}

type ObservabilityConfig struct {
	MetricsAddr  string  `yaml:"metrics_addr"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	OTLPHTTP     bool    `yaml:"otlp_http"`
	ServiceName  string  `yaml:"service_name" validate:"required"`
	SampleRate   float64 `yaml:"sample_rate" validate:"gte=0,lte=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gate: GateConfig{
			RateLimit: RateLimitConfig{
				MaxRequests:   DefaultMaxRequests,
				WindowSeconds: DefaultWindowSeconds,
			},
			MaxQueryLength: gate.DefaultMaxQueryLength,
		},
		Retrieval: RetrievalConfig{
			K:                   DefaultK,
			SimilarityThreshold: retrieval.DefaultSimilarityThreshold,
			DiversityThreshold:  retrieval.DefaultDiversityThreshold,
			Similarity:          string(retrieval.JaccardSimilarity),
		},
		Search: SearchConfig{
			Backend:         DefaultSearchBackend,
			CacheTTLSeconds: DefaultCacheTTLSeconds,
			TimeoutSeconds:  DefaultSearchTimeoutSeconds,
		},
		Embedding: EmbeddingConfig{Provider: DefaultEmbedder},
		Audit: AuditConfig{
			RecentEvents: audit.DefaultRecentEvents,
			BufferSize:   audit.DefaultBufferSize,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Observability: ObservabilityConfig{
			ServiceName: DefaultServiceName,
			SampleRate:  1,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
//
// Example:
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load("ragate.yaml")
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, helpers.WrapErrorf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, helpers.WrapErrorf(err, "parse config %s", path)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return helpers.WrapErrorf(err, "load %s", f)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and backend-specific requirements. All
// failures wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch c.Search.Backend {
	case "qdrant":
		if c.Search.Qdrant.URL == "" {
			return fmt.Errorf("%w: search.qdrant.url is required for the qdrant backend", ErrInvalidConfig)
		}
	case "pgvector":
		if c.Search.PGVector.DSN == "" {
			return fmt.Errorf("%w: search.pgvector.dsn is required for the pgvector backend", ErrInvalidConfig)
		}
	case "weaviate":
		if c.Search.Weaviate.URL == "" {
			return fmt.Errorf("%w: search.weaviate.url is required for the weaviate backend", ErrInvalidConfig)
		}
	}

	if _, err := c.attackPatterns(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// attackPatterns converts the YAML table to a detector table. A nil result
// means the defaults.
func (c *Config) attackPatterns() (*gate.PatternTable, error) {
	if len(c.Gate.AttackPatterns) == 0 {
		return nil, nil
	}

	table := gate.NewPatternTable()
	for _, item := range c.Gate.AttackPatterns {
		family, ok := item.Key.(string)
		if !ok || family == "" {
			return nil, fmt.Errorf("gate.attack_patterns: family name %v is not a string", item.Key)
		}
		if _, dup := table.Get(family); dup {
			return nil, fmt.Errorf("gate.attack_patterns: duplicate family %q", family)
		}
		values, ok := item.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("gate.attack_patterns.%s: expected a list of patterns", family)
		}
		patterns := make([]string, 0, len(values))
		for _, v := range values {
			p, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("gate.attack_patterns.%s: pattern %v is not a string", family, v)
			}
			patterns = append(patterns, p)
		}
		table.Set(family, patterns)
	}
	return table, nil
}
