package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider:   "gemini",
			Model:      "gemini-2.0-flash",
			APIKey:     "test-key",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		Screening: ScreeningConfig{
			MaxResumes:         20,
			DefaultTier:        "auto",
			ExtractParallelism: 4,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
			TLS:  TLSConfig{Mode: "disabled"},
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      10 * 1024 * 1024,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		expectError   bool
		expectedError string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:          "unknown provider",
			mutate:        func(c *Config) { c.AI.Provider = "openai" },
			expectError:   true,
			expectedError: "invalid AI provider",
		},
		{
			name:          "missing API key",
			mutate:        func(c *Config) { c.AI.APIKey = "" },
			expectError:   true,
			expectedError: "API key is required",
		},
		{
			name:          "non-positive timeout",
			mutate:        func(c *Config) { c.AI.Timeout = 0 },
			expectError:   true,
			expectedError: "timeout must be positive",
		},
		{
			name:          "zero max resumes",
			mutate:        func(c *Config) { c.Screening.MaxResumes = 0 },
			expectError:   true,
			expectedError: "maxResumes must be positive",
		},
		{
			name:          "unknown default tier",
			mutate:        func(c *Config) { c.Screening.DefaultTier = "principal" },
			expectError:   true,
			expectedError: "invalid screening.defaultTier",
		},
		{
			name:          "missing server port",
			mutate:        func(c *Config) { c.Server.Port = "" },
			expectError:   true,
			expectedError: "server port is required",
		},
		{
			name:          "default format not supported",
			mutate:        func(c *Config) { c.App.DefaultFormat = "xml" },
			expectError:   true,
			expectedError: "invalid default format",
		},
		{
			name: "groq provider is valid",
			mutate: func(c *Config) {
				c.AI.Provider = "groq"
				c.AI.Model = "openai/gpt-oss-20b"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.expectedError) {
					t.Errorf("expected error containing %q, got %q", tt.expectedError, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name        string
		tls         TLSConfig
		expectError bool
	}{
		{
			name: "disabled mode",
			tls:  TLSConfig{Mode: "disabled"},
		},
		{
			name: "server mode with files",
			tls:  TLSConfig{Mode: "server", CertFile: "cert.pem", KeyFile: "key.pem"},
		},
		{
			name: "server mode with content",
			tls:  TLSConfig{Mode: "server", CertContent: "CERT", KeyContent: "KEY"},
		},
		{
			name:        "server mode missing key",
			tls:         TLSConfig{Mode: "server", CertFile: "cert.pem"},
			expectError: true,
		},
		{
			name:        "server mode with both file and content",
			tls:         TLSConfig{Mode: "server", CertFile: "cert.pem", CertContent: "CERT", KeyFile: "key.pem"},
			expectError: true,
		},
		{
			name: "mutual mode with CA",
			tls:  TLSConfig{Mode: "mutual", CertFile: "cert.pem", KeyFile: "key.pem", CAFile: "ca.pem"},
		},
		{
			name:        "mutual mode missing CA",
			tls:         TLSConfig{Mode: "mutual", CertFile: "cert.pem", KeyFile: "key.pem"},
			expectError: true,
		},
		{
			name:        "invalid mode",
			tls:         TLSConfig{Mode: "optional"},
			expectError: true,
		},
		{
			name:        "invalid min version",
			tls:         TLSConfig{Mode: "server", CertFile: "c", KeyFile: "k", MinVersion: "1.0"},
			expectError: true,
		},
		{
			name:        "invalid client auth policy",
			tls:         TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k", CAFile: "ca", ClientAuthPolicy: "never"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.TLS = tt.tls

			err := cfg.ValidateTLSConfig()
			if tt.expectError && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestApplyModelDefault(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Model = ""
	cfg.applyModelDefault()
	if cfg.AI.Model != defaultGeminiModel {
		t.Errorf("expected %s, got %s", defaultGeminiModel, cfg.AI.Model)
	}

	cfg = validConfig()
	cfg.AI.Provider = "groq"
	cfg.AI.Model = ""
	cfg.applyModelDefault()
	if cfg.AI.Model != defaultGroqModel {
		t.Errorf("expected %s, got %s", defaultGroqModel, cfg.AI.Model)
	}

	cfg = validConfig()
	cfg.AI.Model = "custom-model"
	cfg.applyModelDefault()
	if cfg.AI.Model != "custom-model" {
		t.Errorf("explicit model should not be overridden, got %s", cfg.AI.Model)
	}
}
