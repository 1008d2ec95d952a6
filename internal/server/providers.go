package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/truthscan-ai/truthscan/internal/config"
	"github.com/truthscan-ai/truthscan/internal/mockprovider"
	"github.com/truthscan-ai/truthscan/internal/provider"
	"github.com/truthscan-ai/truthscan/internal/redact"
)

// BuildProvider creates the configured upstream. A gemini provider without a
// credential degrades to one that fails every analysis, so the page still serves.
func BuildProvider(ctx context.Context, pcfg config.ProviderConfig, logger *slog.Logger) (provider.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(pcfg.Type)) {
	case "gemini":
		apiKey := pcfg.ResolveAPIKey()
		if apiKey == "" {
			err := fmt.Errorf("environment variable %s and provider.api_key are both empty", pcfg.APIKeyEnv)
			logger.Warn("gemini credential missing; every analysis will fail until it is set", redact.Err(err))
			return provider.NewUnavailable(err), nil
		}
		p, err := provider.NewGemini(ctx, provider.GeminiOptions{
			APIKey:  apiKey,
			BaseURL: pcfg.BaseURL,
			Timeout: pcfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		return p, nil
	case "fake":
		reply := pcfg.FakeReply
		if strings.TrimSpace(reply) == "" {
			reply = mockprovider.DefaultReply
		}
		logger.Warn("using fake provider; verdicts are canned")
		return provider.NewFake(reply), nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q", pcfg.Type)
	}
}
