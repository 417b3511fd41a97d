package middleware

import (
	"context"
	"net/http"
	"strings"

	"askhuman/internal/service"
)

type contextKey string

const FingerprintKey contextKey = "fingerprint"

// FingerprintMiddleware derives the opaque client fingerprint from request
// characteristics and stores it on the context. The token is computed
// server-side only; nothing client-supplied is trusted as an identity claim.
type FingerprintMiddleware struct {
	fingerprinter *service.Fingerprinter
}

// NewFingerprintMiddleware creates a new fingerprint middleware
func NewFingerprintMiddleware(fingerprinter *service.Fingerprinter) *FingerprintMiddleware {
	return &FingerprintMiddleware{fingerprinter: fingerprinter}
}

// Attach computes the fingerprint for every request it wraps
func (m *FingerprintMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := clientAddr(r)
		hash := m.fingerprinter.Hash(addr, r.Header.Get("User-Agent"))

		ctx := context.WithValue(r.Context(), FingerprintKey, hash)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetFingerprint extracts the fingerprint hash from context
func GetFingerprint(ctx context.Context) string {
	if v := ctx.Value(FingerprintKey); v != nil {
		return v.(string)
	}
	return ""
}

func clientAddr(r *http.Request) string {
	// Behind a proxy the first forwarded hop is the client
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.SplitN(fwd, ",", 2)
		return strings.TrimSpace(parts[0])
	}
	return r.RemoteAddr
}
