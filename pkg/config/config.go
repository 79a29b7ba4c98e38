// Package config handles application configuration via environment variables.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configurable values for both the API server and the web
// frontend. Values come from the environment, with a .env file loaded first
// when present.
type Config struct {
	Environment string

	// Server addresses.
	APIPort string
	WebPort string

	// BackendURL is the public base URL of the API server. The web frontend
	// uses it as the REST client base and as the OAuth authorization target.
	BackendURL string

	// FrontendURL is the public base URL of the web frontend. The API's OAuth
	// callback redirects the browser back to <FrontendURL>/auth/callback.
	FrontendURL string

	// Database.
	PostgresDSN string

	// JWT.
	JWTSecret string

	// Google OAuth.
	GoogleClientID     string
	GoogleClientSecret string
	// OAuthRedirectURI is the redirect_uri registered with Google. It must
	// point at the API's /api/auth/oauth2/callback route.
	OAuthRedirectURI string

	// SessionDir is where the web frontend mirrors browser sessions to disk.
	SessionDir string

	// CORS.
	AllowedOrigins []string

	Debug bool
}

// Load reads environment variables and populates a Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		APIPort:     getEnv("API_PORT", "8080"),
		WebPort:     getEnv("WEB_PORT", "5173"),
		BackendURL:  strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8080"), "/"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		PostgresDSN: strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-in-production"),

		GoogleClientID:     strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		GoogleClientSecret: strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
		OAuthRedirectURI:   strings.TrimSpace(getEnv("OAUTH_REDIRECT_URI", "http://localhost:8080/api/auth/oauth2/callback")),

		SessionDir: getEnv("SESSION_DIR", ".sessions"),
		Debug:      getEnvBool("DEBUG", false),
	}

	origins := getEnv("ALLOWED_ORIGINS", "*")
	if origins == "*" {
		cfg.AllowedOrigins = []string{"*"}
	} else {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}

	if cfg.IsProduction() {
		cfg.Debug = false
	}

	return cfg
}

// Validate checks that the configuration is usable for the API server.
func (c *Config) Validate() error {
	if c.APIPort == "" {
		return fmt.Errorf("API_PORT is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWTSecret == "dev-secret-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}
	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
