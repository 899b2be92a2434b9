package texts

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/typing"
)

// Generator is the contract the provider needs from the generation service.
type Generator interface {
	Generate(ctx context.Context, cfg typing.Config) (string, error)
}

// Provider hands out reference text, preferring the generation service and
// silently falling back to the local pool. A session is never left without
// reference text and generation failures are never surfaced to the caller.
type Provider struct {
	generator Generator
	pool      *Pool
}

// NewProvider creates a provider over the given generator and fallback pool.
func NewProvider(generator Generator, pool *Pool) *Provider {
	return &Provider{generator: generator, pool: pool}
}

// Fetch returns reference text for the configuration.
func (p *Provider) Fetch(ctx context.Context, cfg typing.Config) string {
	if p.generator != nil {
		text, err := p.generator.Generate(ctx, cfg)
		if err == nil {
			return text
		}
		log.Warn().
			Err(err).
			Str("mode", string(cfg.Mode)).
			Int("duration_sec", cfg.DurationSec).
			Msg("text generation failed, using local pool")
	}
	return p.pool.Select(cfg)
}
