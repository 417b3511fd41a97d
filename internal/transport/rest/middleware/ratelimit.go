package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"askhuman/internal/cache"
	"askhuman/internal/model"
)

// RateLimitMiddleware enforces per-caller submission quotas backed by redis
type RateLimitMiddleware struct {
	limiter cache.RateLimiter
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter cache.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// LimitByAgent keys the quota on the X-Agent-Id header
func (m *RateLimitMiddleware) LimitByAgent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agentID := r.Header.Get("X-Agent-Id")
		if agentID == "" {
			agentID = "default"
		}
		m.limit(w, r, "agent:"+agentID, next)
	})
}

// LimitByFingerprint keys the quota on the derived client fingerprint
func (m *RateLimitMiddleware) LimitByFingerprint(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.limit(w, r, "fp:"+GetFingerprint(r.Context()), next)
	})
}

func (m *RateLimitMiddleware) limit(w http.ResponseWriter, r *http.Request, key string, next http.Handler) {
	allowed, retryAfter, err := m.limiter.Allow(r.Context(), key)
	if err != nil {
		// Limiter outage must not take submissions down with it
		log.Warn().Err(err).Msg("Rate limiter unavailable, allowing request")
		next.ServeHTTP(w, r)
		return
	}

	if !allowed {
		rlErr := &model.RateLimitError{RetryAfter: retryAfter}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   rlErr.Error(),
			"code":    model.CodeRateLimited,
			"details": map[string]interface{}{"retry_after_seconds": int(retryAfter.Seconds())},
		})
		return
	}

	next.ServeHTTP(w, r)
}
