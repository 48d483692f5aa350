package scoring

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"welcomebook-credits/internal/models"
)

// Pool distributes scoring calls across providers round-robin and fails over
// to the remaining providers when one is down. It replaces the ambient
// provider globals of the original system with an injected object.
type Pool struct {
	providers []Provider
	next      uint64
}

func NewPool(providers []Provider) *Pool {
	return &Pool{providers: providers}
}

// NewPoolFromEndpoints builds an HTTP provider per configured endpoint
func NewPoolFromEndpoints(endpoints []string, apiKey string, timeout time.Duration) *Pool {
	providers := make([]Provider, 0, len(endpoints))
	for _, endpoint := range endpoints {
		providers = append(providers, NewHTTPProvider(endpoint, apiKey, timeout))
	}
	return NewPool(providers)
}

// Score tries each provider starting from the round-robin cursor until one
// answers. All providers failing is an external-dependency error the caller
// surfaces for explicit retry.
func (p *Pool) Score(ctx context.Context, templateContent, customContent string) (int, error) {
	if len(p.providers) == 0 {
		return 0, fmt.Errorf("%w: no scoring providers configured", models.ErrExternalDependency)
	}

	start := atomic.AddUint64(&p.next, 1)

	var lastErr error
	for i := 0; i < len(p.providers); i++ {
		provider := p.providers[(start+uint64(i))%uint64(len(p.providers))]

		score, err := provider.Score(ctx, templateContent, customContent)
		if err == nil {
			return score, nil
		}

		lastErr = err
		log.Printf("[ScoringPool] Provider %s failed: %v", provider.Name(), err)
	}

	return 0, fmt.Errorf("%w: all scoring providers failed: %v", models.ErrExternalDependency, lastErr)
}
