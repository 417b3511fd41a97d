package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"askhuman/internal/cache"
	"askhuman/internal/service"
	"askhuman/internal/transport/rest/handler"
	"askhuman/internal/transport/rest/middleware"
	"askhuman/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Ledger        *service.LedgerService
	Fingerprinter *service.Fingerprinter
	RateLimiter   cache.RateLimiter
	WSHub         *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	agentHandler := handler.NewAgentHandler(c.Ledger)
	humanHandler := handler.NewHumanHandler(c.Ledger)
	wsHandler := ws.NewHandler(c.WSHub)

	// Initialize middleware
	fingerprintMW := middleware.NewFingerprintMiddleware(c.Fingerprinter)
	rateLimitMW := middleware.NewRateLimitMiddleware(c.RateLimiter)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Agent routes; creation counts against the agent's quota
	agentRoutes := v1.PathPrefix("/agent").Subrouter()
	agentRoutes.Handle("/questions",
		rateLimitMW.LimitByAgent(http.HandlerFunc(agentHandler.Create))).Methods("POST", "OPTIONS")
	agentRoutes.HandleFunc("/questions/{questionId}", agentHandler.Get).Methods("GET", "OPTIONS")

	// Human routes; every request carries a derived fingerprint, and
	// submissions count against the fingerprint's quota
	humanRoutes := v1.PathPrefix("/human").Subrouter()
	humanRoutes.Use(fingerprintMW.Attach)
	humanRoutes.HandleFunc("/questions", humanHandler.List).Methods("GET", "OPTIONS")
	humanRoutes.HandleFunc("/questions/{questionId}", humanHandler.Get).Methods("GET", "OPTIONS")
	humanRoutes.Handle("/responses",
		rateLimitMW.LimitByFingerprint(http.HandlerFunc(humanHandler.SubmitResponse))).Methods("POST", "OPTIONS")

	// WebSocket routes
	v1.HandleFunc("/ws/feed", wsHandler.Feed).Methods("GET")
	v1.HandleFunc("/ws/questions/{questionId}", wsHandler.Watch).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Agent-Id")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
