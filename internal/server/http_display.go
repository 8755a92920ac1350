package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                   - Health check")
	fmt.Println("  GET    /stats                    - Server statistics")
	fmt.Println("  POST   /analyze                  - Analyze an uploaded resume (pdf, txt, md)")
	fmt.Println("  POST   /analyze/text             - Analyze resume text")
	if s.deps.Store == nil {
		fmt.Println("Version history: DISABLED (database not configured)")
		return
	}
	fmt.Println("  POST   /users                    - Create a user")
	fmt.Println("  POST   /users/{userID}/versions  - Analyze and save a resume version")
	fmt.Println("  GET    /users/{userID}/versions  - List resume versions")
	fmt.Println("  GET    /versions/{versionID}     - Get a resume version")
	fmt.Println("  DELETE /versions/{versionID}     - Delete a resume version")
}

func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to analysis and version endpoints")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
	if s.slots != nil {
		fmt.Printf("Concurrent analyses: bounded (wait up to %s)\n", s.RequestTimeout)
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimiter != nil {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
