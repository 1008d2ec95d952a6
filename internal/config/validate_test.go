package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	return cfg
}

func TestValidateDefaultConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing server addr",
			mutate: func(c *Config) { c.Server.Addr = "" },
			want:   "server.addr",
		},
		{
			name:   "negative session ttl",
			mutate: func(c *Config) { c.Server.SessionTTL = -time.Second },
			want:   "server.session_ttl",
		},
		{
			name:   "unknown gin mode",
			mutate: func(c *Config) { c.Server.GinMode = "verbose" },
			want:   "server.gin_mode",
		},
		{
			name:   "missing provider type",
			mutate: func(c *Config) { c.Provider.Type = "" },
			want:   "provider.type",
		},
		{
			name:   "unsupported provider type",
			mutate: func(c *Config) { c.Provider.Type = "openai" },
			want:   "gemini or fake",
		},
		{
			name:   "missing model",
			mutate: func(c *Config) { c.Provider.Model = " " },
			want:   "provider.model",
		},
		{
			name:   "negative timeout",
			mutate: func(c *Config) { c.Provider.Timeout = -time.Second },
			want:   "provider.timeout",
		},
		{
			name:   "invalid base url",
			mutate: func(c *Config) { c.Provider.BaseURL = "not a url" },
			want:   "base_url",
		},
		{
			name:   "non http base url",
			mutate: func(c *Config) { c.Provider.BaseURL = "ftp://example.com" },
			want:   "http or https",
		},
		{
			name:   "private base url",
			mutate: func(c *Config) { c.Provider.BaseURL = "http://127.0.0.1:18080" },
			want:   "blocked",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "trace" },
			want:   "logging.level",
		},
		{
			name:   "negative body limit",
			mutate: func(c *Config) { c.Server.MaxRequestBodyBytes = -1 },
			want:   "server.max_request_body_bytes",
		},
		{
			name:   "bad cors origin",
			mutate: func(c *Config) { c.Server.CORSAllowedOrigins = []string{"example.com"} },
			want:   "server.cors_allowed_origins",
		},
		{
			name:   "unknown log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
		{
			name: "telemetry without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Endpoint = ""
			},
			want: "telemetry",
		},
		{
			name: "unknown telemetry protocol",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Protocol = "udp"
			},
			want: "telemetry.protocol",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error to contain %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateAllowsPrivateBaseURLWhenOptedIn(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.BaseURL = "http://127.0.0.1:18080/"
	cfg.Provider.AllowPrivateNetworks = true
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected private base url to be allowed, got %v", err)
	}
}

func TestValidateNil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
