package classifier

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// healthCache memoizes the last health probe with separate TTLs for healthy
// and unhealthy outcomes, so a down backend is not hammered every cycle while
// a healthy one is still re-verified periodically.
type healthCache struct {
	mu           sync.Mutex
	current      Health
	expires      time.Time
	healthyTTL   time.Duration
	unhealthyTTL time.Duration
}

func newHealthCache(healthyTTL, unhealthyTTL time.Duration) *healthCache {
	return &healthCache{
		healthyTTL:   healthyTTL,
		unhealthyTTL: unhealthyTTL,
	}
}

func (h *healthCache) get(now time.Time) (Health, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.expires.IsZero() || now.After(h.expires) {
		return Health{}, false
	}
	return h.current, true
}

func (h *healthCache) set(result Health) {
	ttl := h.unhealthyTTL
	if result.Healthy {
		ttl = h.healthyTTL
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = result
	h.expires = result.CheckedAt.Add(ttl)
}

// HealthCheck probes the service health endpoint with a short dedicated
// timeout, independent of the batch endpoints. Results are cached; repeated
// calls within the TTL return the memoized outcome.
func (c *Client) HealthCheck(ctx context.Context) Health {
	now := time.Now()

	if !c.IsConfigured() {
		return Health{
			Healthy:   false,
			Message:   ErrNotConfigured.Error(),
			CheckedAt: now,
		}
	}

	if cached, ok := c.health.get(now); ok {
		return cached
	}

	result := c.probe(ctx)
	c.health.set(result)

	if !result.Healthy {
		c.logger.Warn("classifier unhealthy", "message", result.Message)
	}
	return result
}

func (c *Client) probe(ctx context.Context) Health {
	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeoutDuration())
	defer cancel()

	result := Health{CheckedAt: time.Now()}

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.healthURL(), nil)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	resp, err := c.http.Do(req)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Message = fmt.Sprintf("health endpoint returned status %d", resp.StatusCode)
		return result
	}

	result.Healthy = true
	return result
}
