package server

import (
	"time"

	"resumescreen/internal/config"
	resumescreenErrors "resumescreen/internal/errors"
	"resumescreen/internal/screening"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertManager *CertManager

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Per-resume upload size limit
	MaxFileSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *resumescreenErrors.Logger

	// Extra orchestrator options, set by tests to stub extraction
	orchestratorOpts []screening.Option
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *resumescreenErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:         cfg.Host,
		Port:         cfg.Port,
		Version:      cfg.Version,
		AppConfig:    appCfg,
		TLSConfig:    cfg.TLSConfig,
		APIKeys:      apiKeyMap,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		MaxFileSize:  cfg.MaxRequestSize,
		RateLimit:    cfg.RateLimit,
		RateLimiter:  rateLimiter,
		Logger:       logger,
	}
}

// maxScreenRequestSize returns the request body limit for the screen
// endpoint: one upload slot per allowed resume plus one for the job
// description and form overhead.
func (s *Server) maxScreenRequestSize() int64 {
	if s.MaxFileSize <= 0 {
		return 0
	}
	slots := int64(s.AppConfig.Screening.MaxResumes) + 1
	return s.MaxFileSize * slots
}
