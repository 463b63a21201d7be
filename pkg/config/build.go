package config

import (
	"time"

	"github.com/calque-ai/ragate/pkg/gate"
	"github.com/calque-ai/ragate/pkg/retrieval"
)

// Window returns the rate-limit window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Gate.RateLimit.WindowSeconds) * time.Second
}

// QueryTimeout is the search deadline applied to each served query.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// RateGate builds the per-identity limiter.
func (c *Config) RateGate() (*gate.RateGate, error) {
	return gate.NewRateGate(c.Gate.RateLimit.MaxRequests, c.Window())
}

// QueryValidator builds the validator with the configured length, keywords
// and instruction-override toggle.
func (c *Config) QueryValidator() (*gate.QueryValidator, error) {
	opts := []gate.ValidatorOption{gate.WithMaxQueryLength(c.Gate.MaxQueryLength)}
	if len(c.Gate.Keywords) > 0 {
		opts = append(opts, gate.WithKeywords(c.Gate.Keywords))
	}
	if c.Gate.InstructionOverride != nil {
		opts = append(opts, gate.WithInstructionOverride(*c.Gate.InstructionOverride))
	}
	return gate.NewQueryValidator(opts...)
}

// AdversarialDetector builds the detector from the configured table or the
// defaults.
func (c *Config) AdversarialDetector() (*gate.AdversarialDetector, error) {
	table, err := c.attackPatterns()
	if err != nil {
		return nil, err
	}
	return gate.NewAdversarialDetector(table)
}

// RequestGate builds the full gate. opts add the audit sink, tracer and
// metrics.
func (c *Config) RequestGate(opts ...gate.Option) (*gate.RequestGate, error) {
	rate, err := c.RateGate()
	if err != nil {
		return nil, err
	}
	validator, err := c.QueryValidator()
	if err != nil {
		return nil, err
	}
	detector, err := c.AdversarialDetector()
	if err != nil {
		return nil, err
	}
	return gate.New(rate, validator, detector, opts...)
}

// Engine builds the retrieval engine over searcher with the configured
// thresholds, similarity and timestamp keys. opts are applied last.
func (c *Config) Engine(searcher retrieval.Searcher, opts ...retrieval.EngineOption) (*retrieval.Engine, error) {
	similarity, err := retrieval.SimilarityFor(retrieval.SimilarityAlgorithm(c.Retrieval.Similarity))
	if err != nil {
		return nil, err
	}

	engineOpts := []retrieval.EngineOption{
		retrieval.WithSimilarity(similarity),
		retrieval.WithDefaults(
			retrieval.WithSimilarityThreshold(c.Retrieval.SimilarityThreshold),
			retrieval.WithDiversityThreshold(c.Retrieval.DiversityThreshold),
		),
	}
	if len(c.Retrieval.TimestampKeys) > 0 {
		engineOpts = append(engineOpts, retrieval.WithTimestampKeys(c.Retrieval.TimestampKeys...))
	}
	return retrieval.NewEngine(searcher, append(engineOpts, opts...)...)
}

// AttackPatterns returns the configured detector table, or the defaults when
// none is configured.
func (c *Config) AttackPatterns() (*gate.PatternTable, error) {
	table, err := c.attackPatterns()
	if err != nil || table != nil {
		return table, err
	}
	return gate.DefaultAttackPatterns(), nil
}
