// Package config provides configuration management for parliament-mcp.
// It loads settings from an optional YAML file, then applies environment
// variables with the PARLIAMENT_ prefix on top, and provides sensible
// defaults for every option.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/civicsignal/parliament-mcp/internal/apperr"
)

// Config holds all configuration settings for the parliament-mcp server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Security SecurityConfig `yaml:"security"`
	Cache    CacheConfig    `yaml:"cache"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Research ResearchConfig `yaml:"research"`
}

// ResearchConfig tunes the research aggregation engine.
type ResearchConfig struct {
	// RelevanceThreshold is the default strict-relevance cutoff passed to
	// upstream searches. (default: 0.5)
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 8080)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)

	// RateLimitPerSecond throttles inbound requests on /api/mcp.
	// Zero disables the middleware. (default: 10)
	RateLimitPerSecond int `yaml:"rate_limit_per_second"`
	RateLimitBurst     int `yaml:"rate_limit_burst"` // default: 20
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	// APIKey protects the /api/mcp route via the x-api-key header.
	// Empty disables authentication (development mode).
	APIKey string `yaml:"api_key"`
}

// CacheConfig controls both cache tiers.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`  // global switch for the ephemeral tier (default: true)
	Capacity int  `yaml:"capacity"` // ephemeral entry cap (default: 1024)

	// StorageEngine selects the durable backend: bolt or sqlite (default: bolt).
	StorageEngine string `yaml:"storage_engine"`
	DataPath      string `yaml:"data_path"` // directory for durable cache files (default: ./data)

	// Per-dataset TTLs, in seconds.
	TTL TTLConfig `yaml:"ttl"`
}

// TTLConfig holds the freshness window for each cached dataset, in seconds.
type TTLConfig struct {
	Members      int `yaml:"members"`      // default: 3600
	Bills        int `yaml:"bills"`        // default: 1800
	Legislation  int `yaml:"legislation"`  // default: 7200
	Data         int `yaml:"data"`         // default: 1800
	Research     int `yaml:"research"`     // default: 1800
	Activity     int `yaml:"activity"`     // default: 1800
	Votes        int `yaml:"votes"`        // default: 1800
	Constituency int `yaml:"constituency"` // default: 3600
}

// FetchConfig controls the resilient fetch engine.
type FetchConfig struct {
	TimeoutSeconds   int    `yaml:"timeout_seconds"`    // per-request timeout (default: 10)
	Attempts         int    `yaml:"attempts"`           // total attempts per fetch (default: 3)
	BackoffMillis    int    `yaml:"backoff_millis"`     // linear backoff base (default: 500)
	UserAgent        string `yaml:"user_agent"`         // fixed User-Agent header
	BypassProxy      bool   `yaml:"bypass_proxy"`       // ignore HTTP(S)_PROXY env (default: false)
	RatePerSecond    int    `yaml:"rate_per_second"`    // egress throttle, 0 disables (default: 5)
	BreakerThreshold int    `yaml:"breaker_threshold"`  // consecutive failures before the breaker opens (default: 5)
	BreakerCooldownS int    `yaml:"breaker_cooldown_s"` // open-state cooldown in seconds (default: 30)
}

// UpstreamConfig lists the base URLs of the collaborator services.
// Overridable so tests can point at local fakes.
type UpstreamConfig struct {
	BillsAPI       string `yaml:"bills_api"`       // default: https://bills-api.parliament.uk
	LDAAPI         string `yaml:"lda_api"`         // default: https://lda.data.parliament.uk
	MembersAPI     string `yaml:"members_api"`     // default: https://members-api.parliament.uk
	LegislationAPI string `yaml:"legislation_api"` // default: https://www.legislation.gov.uk
	PostcodesAPI   string `yaml:"postcodes_api"`   // default: https://api.postcodes.io
}

// DefaultUserAgent identifies the server to the Parliament APIs.
const DefaultUserAgent = "parliament-mcp/1.0 (+https://github.com/civicsignal/parliament-mcp)"

// LoadConfig loads configuration from the optional YAML file named by
// PARLIAMENT_CONFIG_FILE, then overlays environment variables with the
// PARLIAMENT_ prefix. Environment always wins over the file.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("PARLIAMENT_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperr.Configuration("read config file %s: %v", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperr.Configuration("parse config file %s: %v", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			Host:               "127.0.0.1",
			RateLimitPerSecond: 10,
			RateLimitBurst:     20,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Capacity:      1024,
			StorageEngine: "bolt",
			DataPath:      "./data",
			TTL: TTLConfig{
				Members:      3600,
				Bills:        1800,
				Legislation:  7200,
				Data:         1800,
				Research:     1800,
				Activity:     1800,
				Votes:        1800,
				Constituency: 3600,
			},
		},
		Fetch: FetchConfig{
			TimeoutSeconds:   10,
			Attempts:         3,
			BackoffMillis:    500,
			UserAgent:        DefaultUserAgent,
			RatePerSecond:    5,
			BreakerThreshold: 5,
			BreakerCooldownS: 30,
		},
		Research: ResearchConfig{
			RelevanceThreshold: 0.5,
		},
		Upstream: UpstreamConfig{
			BillsAPI:       "https://bills-api.parliament.uk",
			LDAAPI:         "https://lda.data.parliament.uk",
			MembersAPI:     "https://members-api.parliament.uk",
			LegislationAPI: "https://www.legislation.gov.uk",
			PostcodesAPI:   "https://api.postcodes.io",
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("PARLIAMENT_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("PARLIAMENT_HOST", cfg.Server.Host)
	cfg.Server.RateLimitPerSecond = getEnvInt("PARLIAMENT_RATE_LIMIT", cfg.Server.RateLimitPerSecond)
	cfg.Server.RateLimitBurst = getEnvInt("PARLIAMENT_RATE_LIMIT_BURST", cfg.Server.RateLimitBurst)

	cfg.Security.APIKey = getEnv("PARLIAMENT_API_KEY", cfg.Security.APIKey)

	cfg.Cache.Enabled = getEnvBool("PARLIAMENT_CACHE_ENABLED", cfg.Cache.Enabled)
	cfg.Cache.Capacity = getEnvInt("PARLIAMENT_CACHE_CAPACITY", cfg.Cache.Capacity)
	cfg.Cache.StorageEngine = getEnv("PARLIAMENT_STORAGE_ENGINE", cfg.Cache.StorageEngine)
	cfg.Cache.DataPath = getEnv("PARLIAMENT_DATA_PATH", cfg.Cache.DataPath)

	cfg.Cache.TTL.Members = getEnvInt("PARLIAMENT_TTL_MEMBERS", cfg.Cache.TTL.Members)
	cfg.Cache.TTL.Bills = getEnvInt("PARLIAMENT_TTL_BILLS", cfg.Cache.TTL.Bills)
	cfg.Cache.TTL.Legislation = getEnvInt("PARLIAMENT_TTL_LEGISLATION", cfg.Cache.TTL.Legislation)
	cfg.Cache.TTL.Data = getEnvInt("PARLIAMENT_TTL_DATA", cfg.Cache.TTL.Data)
	cfg.Cache.TTL.Research = getEnvInt("PARLIAMENT_TTL_RESEARCH", cfg.Cache.TTL.Research)
	cfg.Cache.TTL.Activity = getEnvInt("PARLIAMENT_TTL_ACTIVITY", cfg.Cache.TTL.Activity)
	cfg.Cache.TTL.Votes = getEnvInt("PARLIAMENT_TTL_VOTES", cfg.Cache.TTL.Votes)
	cfg.Cache.TTL.Constituency = getEnvInt("PARLIAMENT_TTL_CONSTITUENCY", cfg.Cache.TTL.Constituency)

	cfg.Fetch.TimeoutSeconds = getEnvInt("PARLIAMENT_FETCH_TIMEOUT", cfg.Fetch.TimeoutSeconds)
	cfg.Fetch.Attempts = getEnvInt("PARLIAMENT_FETCH_ATTEMPTS", cfg.Fetch.Attempts)
	cfg.Fetch.BackoffMillis = getEnvInt("PARLIAMENT_FETCH_BACKOFF_MS", cfg.Fetch.BackoffMillis)
	cfg.Fetch.UserAgent = getEnv("PARLIAMENT_USER_AGENT", cfg.Fetch.UserAgent)
	cfg.Fetch.BypassProxy = getEnvBool("PARLIAMENT_BYPASS_PROXY", cfg.Fetch.BypassProxy)
	cfg.Fetch.RatePerSecond = getEnvInt("PARLIAMENT_FETCH_RATE", cfg.Fetch.RatePerSecond)
	cfg.Fetch.BreakerThreshold = getEnvInt("PARLIAMENT_BREAKER_THRESHOLD", cfg.Fetch.BreakerThreshold)
	cfg.Fetch.BreakerCooldownS = getEnvInt("PARLIAMENT_BREAKER_COOLDOWN", cfg.Fetch.BreakerCooldownS)

	cfg.Research.RelevanceThreshold = getEnvFloat("PARLIAMENT_RELEVANCE_THRESHOLD", cfg.Research.RelevanceThreshold)

	cfg.Upstream.BillsAPI = getEnv("PARLIAMENT_BILLS_API", cfg.Upstream.BillsAPI)
	cfg.Upstream.LDAAPI = getEnv("PARLIAMENT_LDA_API", cfg.Upstream.LDAAPI)
	cfg.Upstream.MembersAPI = getEnv("PARLIAMENT_MEMBERS_API", cfg.Upstream.MembersAPI)
	cfg.Upstream.LegislationAPI = getEnv("PARLIAMENT_LEGISLATION_API", cfg.Upstream.LegislationAPI)
	cfg.Upstream.PostcodesAPI = getEnv("PARLIAMENT_POSTCODES_API", cfg.Upstream.PostcodesAPI)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperr.Configuration("invalid server port %d", c.Server.Port)
	}
	switch c.Cache.StorageEngine {
	case "bolt", "sqlite":
	default:
		return apperr.Configuration("unknown storage engine %q (expected bolt or sqlite)", c.Cache.StorageEngine)
	}
	if c.Cache.Capacity <= 0 {
		return apperr.Configuration("cache capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Fetch.Attempts <= 0 {
		return apperr.Configuration("fetch attempts must be positive, got %d", c.Fetch.Attempts)
	}
	return nil
}

// Addr returns the host:port string for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// FetchTimeout returns the per-request timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// Backoff returns the linear backoff base as a duration.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.Fetch.BackoffMillis) * time.Millisecond
}

// TTLFor returns the duration for a named dataset TTL. Unknown names fall
// back to the general data TTL.
func (c *Config) TTLFor(dataset string) time.Duration {
	ttl := c.Cache.TTL
	seconds := ttl.Data
	switch dataset {
	case "members":
		seconds = ttl.Members
	case "bills":
		seconds = ttl.Bills
	case "legislation":
		seconds = ttl.Legislation
	case "research":
		seconds = ttl.Research
	case "activity":
		seconds = ttl.Activity
	case "votes":
		seconds = ttl.Votes
	case "constituency":
		seconds = ttl.Constituency
	}
	return time.Duration(seconds) * time.Second
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
