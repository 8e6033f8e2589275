package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/internal/core/ports"
	"github.com/healthmall/client-core/internal/metrics"
)

const (
	onboardingPath = "/provider/onboarding"
	onboardingTTL  = 10 * time.Second
)

// OnboardingCache memoizes the provider agreement-acceptance state with a
// short freshness window. Concurrent callers during a fetch share one
// in-flight request. A failed fetch caches nil for the full window: the
// guard reads nil as not-accepted, so an outage degrades closed, and the
// backend is not hammered once per navigation.
type OnboardingCache struct {
	client ports.APIClient
	ttl    time.Duration
	log    zerolog.Logger

	sf singleflight.Group

	mu    sync.Mutex
	at    time.Time
	state *domain.ProviderOnboarding
}

var _ ports.OnboardingService = (*OnboardingCache)(nil)

// NewOnboardingCache builds the cache over client.
func NewOnboardingCache(client ports.APIClient, log zerolog.Logger) *OnboardingCache {
	return &OnboardingCache{client: client, ttl: onboardingTTL, log: log}
}

// State returns the cached onboarding state, fetching on miss or expiry.
// Returns nil when the state is unknown.
func (c *OnboardingCache) State(ctx context.Context) *domain.ProviderOnboarding {
	c.mu.Lock()
	if !c.at.IsZero() && time.Since(c.at) < c.ttl {
		state := c.state
		c.mu.Unlock()
		metrics.OnboardingFetchTotal.WithLabelValues("cached").Inc()
		return state
	}
	c.mu.Unlock()

	v, _, _ := c.sf.Do("provider-onboarding", func() (any, error) {
		var state domain.ProviderOnboarding
		err := c.client.Get(ctx, onboardingPath, nil, &state, &ports.RequestOptions{Silent: true})

		c.mu.Lock()
		c.at = time.Now()
		if err != nil {
			// Unknown state is cached too so the gate does not refetch on
			// every blocked navigation.
			c.state = nil
			c.mu.Unlock()
			metrics.OnboardingFetchTotal.WithLabelValues("failed").Inc()
			c.log.Warn().Err(err).Msg("onboarding state unavailable, gates fail closed")
			return (*domain.ProviderOnboarding)(nil), nil
		}
		c.state = &state
		c.mu.Unlock()
		metrics.OnboardingFetchTotal.WithLabelValues("fetched").Inc()
		return &state, nil
	})

	state, _ := v.(*domain.ProviderOnboarding)
	return state
}

// Invalidate drops the cached state, forcing a refetch on the next gated
// navigation. Called after the actor accepts an agreement.
func (c *OnboardingCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = time.Time{}
	c.state = nil
}
