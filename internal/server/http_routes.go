package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware()
	sizeLimit := s.requestSizeLimitMiddleware()
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(s.authMiddleware(sizeLimit(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /analyze", protected(s.analyzeUploadHandler))
	mux.HandleFunc("POST /analyze/text", protected(s.analyzeTextHandler))

	// Version history needs the database.
	if s.deps.Store != nil {
		mux.HandleFunc("POST /users", protected(s.createUserHandler))
		mux.HandleFunc("POST /users/{userID}/versions", protected(s.createVersionHandler))
		mux.HandleFunc("GET /users/{userID}/versions", protected(s.listVersionsHandler))
		mux.HandleFunc("GET /versions/{versionID}", protected(s.getVersionHandler))
		mux.HandleFunc("DELETE /versions/{versionID}", protected(s.deleteVersionHandler))
	}

	return mux
}

// Handler returns the routed API wrapped in the tracing middleware.
func (s *Server) Handler() http.Handler {
	return s.om.HTTPMiddleware()(s.setupRoutes())
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey shows only the first 8 characters of an API key.
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
