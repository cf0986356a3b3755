package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Harvest API
	HarvestBaseURL string

	// OAuth
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string

	// Backend selection
	DataBackend string

	// MockLogin enables the cookie-only login path used by end to end tests.
	MockLogin bool

	// Proxy response cache
	ProxyCacheSize int
	ProxyCacheTTL  time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		HarvestBaseURL: getEnv("HARVEST_BASE_URL", "https://api.harvestapp.com/v2"),

		OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
		OAuthRedirectURL:  getEnv("OAUTH_REDIRECT_URL", ""),

		DataBackend: getEnv("DATA_BACKEND", "harvest"),
		MockLogin:   getEnvBool("MOCK_LOGIN", false),

		ProxyCacheSize: getEnvInt("PROXY_CACHE_SIZE", 256),
		ProxyCacheTTL:  getEnvDuration("PROXY_CACHE_TTL", 5*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "harvest"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.HarvestBaseURL == "" {
		errors = append(errors, "Harvest base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.HarvestBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid Harvest base URL '%s': %v", c.HarvestBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid Harvest base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	// OAuth is only required on the harvest backend. Memory deployments
	// and mock login sessions never reach the identity provider.
	if c.DataBackend == "harvest" && !c.MockLogin {
		if c.OAuthClientID == "" {
			errors = append(errors, "OAuth client ID is required when using the harvest backend")
		}
		if c.OAuthClientSecret == "" {
			errors = append(errors, "OAuth client secret is required when using the harvest backend")
		}
		if c.OAuthRedirectURL == "" {
			errors = append(errors, "OAuth redirect URL is required when using the harvest backend")
		} else if parsedURL, err := url.Parse(c.OAuthRedirectURL); err != nil || parsedURL.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid OAuth redirect URL '%s'", c.OAuthRedirectURL))
		}
	}

	if c.ProxyCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid proxy cache size %d: must be at least 1", c.ProxyCacheSize))
	}
	if c.ProxyCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid proxy cache TTL %v: must be at least 1 second", c.ProxyCacheTTL))
	} else if c.ProxyCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid proxy cache TTL %v: must be at most 24 hours", c.ProxyCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
