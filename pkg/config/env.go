package config

import (
	"github.com/calque-ai/ragate/pkg/helpers"
)

// Environment variables recognised by applyEnv.
const (
	EnvMaxRequests         = "RAGATE_RATE_LIMIT_MAX_REQUESTS"
	EnvWindowSeconds       = "RAGATE_RATE_LIMIT_WINDOW_SECONDS"
	EnvMaxQueryLength      = "RAGATE_MAX_QUERY_LENGTH"
	EnvKeywords            = "RAGATE_KEYWORDS"
	EnvK                   = "RAGATE_DEFAULT_K"
	EnvSimilarityThreshold = "RAGATE_SIMILARITY_THRESHOLD"
	EnvDiversityThreshold  = "RAGATE_DIVERSITY_THRESHOLD"
	EnvSimilarity          = "RAGATE_SIMILARITY"
	EnvSearchBackend       = "RAGATE_SEARCH_BACKEND"
	EnvCacheTTLSeconds     = "RAGATE_SEARCH_CACHE_TTL_SECONDS"
	EnvSearchTimeout       = "RAGATE_SEARCH_TIMEOUT_SECONDS"
	EnvMockCorpus          = "RAGATE_MOCK_CORPUS"
	EnvQdrantURL           = "RAGATE_QDRANT_URL"
	EnvQdrantCollection    = "RAGATE_QDRANT_COLLECTION"
	EnvQdrantAPIKey        = "RAGATE_QDRANT_API_KEY"
	EnvPGVectorDSN         = "RAGATE_PGVECTOR_DSN"
	EnvPGVectorTable       = "RAGATE_PGVECTOR_TABLE"
	EnvWeaviateURL         = "RAGATE_WEAVIATE_URL"
	EnvWeaviateClass       = "RAGATE_WEAVIATE_CLASS"
	EnvWeaviateAPIKey      = "RAGATE_WEAVIATE_API_KEY"
	EnvEmbeddingProvider   = "RAGATE_EMBEDDING_PROVIDER"
	EnvEmbeddingModel      = "RAGATE_EMBEDDING_MODEL"
	EnvEmbeddingDimension  = "RAGATE_EMBEDDING_DIMENSION"
	EnvEmbeddingURL        = "RAGATE_EMBEDDING_URL"
	EnvAuditRecentEvents   = "RAGATE_AUDIT_RECENT_EVENTS"
	EnvAuditPath           = "RAGATE_AUDIT_PATH"
	EnvLogLevel            = "RAGATE_LOG_LEVEL"
	EnvLogFormat           = "RAGATE_LOG_FORMAT"
	EnvMetricsAddr         = "RAGATE_METRICS_ADDR"
	EnvOTLPEndpoint        = "RAGATE_OTLP_ENDPOINT"
	EnvServiceName         = "RAGATE_SERVICE_NAME"
)

// applyEnv overrides fields from the environment. Unset or unparseable
// variables keep the current value.
func (c *Config) applyEnv() {
	c.Gate.RateLimit.MaxRequests = helpers.GetIntFromEnv(EnvMaxRequests, c.Gate.RateLimit.MaxRequests)
	c.Gate.RateLimit.WindowSeconds = helpers.GetIntFromEnv(EnvWindowSeconds, c.Gate.RateLimit.WindowSeconds)
	c.Gate.MaxQueryLength = helpers.GetIntFromEnv(EnvMaxQueryLength, c.Gate.MaxQueryLength)
	c.Gate.Keywords = helpers.GetListFromEnv(EnvKeywords, c.Gate.Keywords)

	c.Retrieval.K = helpers.GetIntFromEnv(EnvK, c.Retrieval.K)
	c.Retrieval.SimilarityThreshold = helpers.GetFloatFromEnv(EnvSimilarityThreshold, c.Retrieval.SimilarityThreshold)
	c.Retrieval.DiversityThreshold = helpers.GetFloatFromEnv(EnvDiversityThreshold, c.Retrieval.DiversityThreshold)
	c.Retrieval.Similarity = helpers.GetStringFromEnv(EnvSimilarity, c.Retrieval.Similarity)

	s := &c.Search
	s.Backend = helpers.GetStringFromEnv(EnvSearchBackend, s.Backend)
	s.CacheTTLSeconds = helpers.GetIntFromEnv(EnvCacheTTLSeconds, s.CacheTTLSeconds)
	s.TimeoutSeconds = helpers.GetIntFromEnv(EnvSearchTimeout, s.TimeoutSeconds)
	s.Mock.CorpusPath = helpers.GetStringFromEnv(EnvMockCorpus, s.Mock.CorpusPath)
	s.Qdrant.URL = helpers.GetStringFromEnv(EnvQdrantURL, s.Qdrant.URL)
	s.Qdrant.Collection = helpers.GetStringFromEnv(EnvQdrantCollection, s.Qdrant.Collection)
	s.Qdrant.APIKey = helpers.GetStringFromEnv(EnvQdrantAPIKey, s.Qdrant.APIKey)
	s.PGVector.DSN = helpers.GetStringFromEnv(EnvPGVectorDSN, s.PGVector.DSN)
	s.PGVector.Table = helpers.GetStringFromEnv(EnvPGVectorTable, s.PGVector.Table)
	s.Weaviate.URL = helpers.GetStringFromEnv(EnvWeaviateURL, s.Weaviate.URL)
	s.Weaviate.Class = helpers.GetStringFromEnv(EnvWeaviateClass, s.Weaviate.Class)
	s.Weaviate.APIKey = helpers.GetStringFromEnv(EnvWeaviateAPIKey, s.Weaviate.APIKey)

	c.Embedding.Provider = helpers.GetStringFromEnv(EnvEmbeddingProvider, c.Embedding.Provider)
	c.Embedding.Model = helpers.GetStringFromEnv(EnvEmbeddingModel, c.Embedding.Model)
	c.Embedding.Dimension = helpers.GetIntFromEnv(EnvEmbeddingDimension, c.Embedding.Dimension)
	c.Embedding.URL = helpers.GetStringFromEnv(EnvEmbeddingURL, c.Embedding.URL)

	c.Audit.RecentEvents = helpers.GetIntFromEnv(EnvAuditRecentEvents, c.Audit.RecentEvents)
	c.Audit.Path = helpers.GetStringFromEnv(EnvAuditPath, c.Audit.Path)

	c.Logging.Level = helpers.GetStringFromEnv(EnvLogLevel, c.Logging.Level)
	c.Logging.Format = helpers.GetStringFromEnv(EnvLogFormat, c.Logging.Format)

	c.Observability.MetricsAddr = helpers.GetStringFromEnv(EnvMetricsAddr, c.Observability.MetricsAddr)
	c.Observability.OTLPEndpoint = helpers.GetStringFromEnv(EnvOTLPEndpoint, c.Observability.OTLPEndpoint)
	c.Observability.ServiceName = helpers.GetStringFromEnv(EnvServiceName, c.Observability.ServiceName)
}
