// Package ratelimit throttles scoring API clients with per-client token
// buckets.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter provides per-client rate limiting using the token bucket
// algorithm. Clients are identified by an opaque key, typically the remote
// address.
type Limiter struct {
	mu      sync.RWMutex
	clients map[string]*rate.Limiter
	rps     float64 // sustained requests per second per client
	burst   int     // burst capacity per client
}

// NewLimiter creates a rate limiter with the specified per-client RPS and
// burst capacity.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{
		clients: make(map[string]*rate.Limiter),
		rps:     rps,
		burst:   burst,
	}
}

// getLimiter returns or creates the bucket for one client.
func (l *Limiter) getLimiter(client string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.clients[client]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring the write lock.
	if limiter, exists := l.clients[client]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.clients[client] = limiter
	return limiter
}

// Allow reports whether a request from the client may proceed now.
func (l *Limiter) Allow(client string) bool {
	return l.getLimiter(client).Allow()
}

// Wait blocks until a request from the client is allowed or the context is
// cancelled.
func (l *Limiter) Wait(ctx context.Context, client string) error {
	return l.getLimiter(client).Wait(ctx)
}

// ClientStats describes one client's bucket state.
type ClientStats struct {
	Client          string  `json:"client"`
	RPS             float64 `json:"rps"`
	Burst           int     `json:"burst"`
	TokensAvailable float64 `json:"tokens_available"`
}

// Stats returns bucket state for every client seen so far.
func (l *Limiter) Stats() map[string]ClientStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := make(map[string]ClientStats, len(l.clients))
	for client, limiter := range l.clients {
		stats[client] = ClientStats{
			Client:          client,
			RPS:             float64(limiter.Limit()),
			Burst:           limiter.Burst(),
			TokensAvailable: limiter.Tokens(),
		}
	}
	return stats
}

// Reset drops all client buckets.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.clients = make(map[string]*rate.Limiter)
}
