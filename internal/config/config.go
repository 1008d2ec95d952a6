package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds TruthScan configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr               string        `yaml:"addr"`        // HTTP listen address, e.g. ":8080"
	SessionTTL         time.Duration `yaml:"session_ttl"` // idle lifetime of a browser's form state
	GinMode            string        `yaml:"gin_mode"`    // debug | release | test
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	ReadHeaderTimeout  time.Duration `yaml:"read_header_timeout"`
	// MaxRequestBodyBytes caps POST bodies; larger requests get 413.
	MaxRequestBodyBytes int64 `yaml:"max_request_body_bytes"`
}

type ProviderConfig struct {
	Type      string `yaml:"type"`        // gemini | fake
	Model     string `yaml:"model"`       // e.g. "gemini-3-flash-preview"
	BaseURL   string `yaml:"base_url"`    // empty uses the public Gemini endpoint
	APIKeyEnv string `yaml:"api_key_env"` // e.g. "API_KEY"
	APIKey    string `yaml:"api_key"`
	// EnableSearch defaults to true when unset.
	EnableSearch *bool `yaml:"enable_search"`
	// Timeout bounds one upstream call; zero means no timeout.
	Timeout              time.Duration `yaml:"timeout"`
	AllowPrivateNetworks bool          `yaml:"allow_private_networks"`
	// FakeReply is the JSON reply served by the fake provider.
	FakeReply string `yaml:"fake_reply"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // OTLP endpoint, e.g. "localhost:4317"
	Protocol string `yaml:"protocol"` // grpc | http
	Service  string `yaml:"service"`
	Version  string `yaml:"version"`
}

const (
	DefaultAddr       = ":8080"
	DefaultModel      = "gemini-3-flash-preview"
	DefaultAPIKeyEnv  = "API_KEY"
	DefaultSessionTTL = 30 * time.Minute

	DefaultMaxRequestBodyBytes int64 = 64 * 1024
)

// SearchEnabled reports whether live web-search grounding is requested.
func (p ProviderConfig) SearchEnabled() bool {
	return p.EnableSearch == nil || *p.EnableSearch
}

// ResolveAPIKey returns the credential: the environment variable named by
// api_key_env wins, then api_key. The result may be empty.
func (p ProviderConfig) ResolveAPIKey() string {
	if name := strings.TrimSpace(p.APIKeyEnv); name != "" {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(p.APIKey)
}

// LoadDotEnv loads the first readable .env file from paths (".env" and "../.env"
// when none are given). Variables already set in the environment are kept.
// It returns the loaded path, or "" when no file was found.
func LoadDotEnv(paths ...string) string {
	if len(paths) == 0 {
		paths = []string{".env", "../.env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = DefaultSessionTTL
	}
	if cfg.Server.GinMode == "" {
		cfg.Server.GinMode = "release"
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.Server.MaxRequestBodyBytes == 0 {
		cfg.Server.MaxRequestBodyBytes = DefaultMaxRequestBodyBytes
	}

	if cfg.Provider.Type == "" {
		cfg.Provider.Type = "gemini"
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModel
	}
	if cfg.Provider.APIKeyEnv == "" {
		cfg.Provider.APIKeyEnv = DefaultAPIKeyEnv
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.Service == "" {
		cfg.Telemetry.Service = "truthscan"
	}
}
