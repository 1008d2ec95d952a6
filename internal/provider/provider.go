package provider

import (
	"context"
	"errors"

	"github.com/truthscan-ai/truthscan/internal/inference"
)

// Provider is the interface for upstream model providers.
type Provider interface {
	Generate(ctx context.Context, req *inference.Request) (*inference.Response, error)
}

// ErrUnavailable is returned by a provider that could not be configured.
var ErrUnavailable = errors.New("provider unavailable")

type unavailableProvider struct {
	reason error
}

// NewUnavailable returns a provider that fails every call with ErrUnavailable.
// reason is kept as the wrapped cause so logs show why the provider is missing.
func NewUnavailable(reason error) Provider {
	return &unavailableProvider{reason: reason}
}

func (p *unavailableProvider) Generate(ctx context.Context, req *inference.Request) (*inference.Response, error) {
	if p.reason == nil {
		return nil, ErrUnavailable
	}
	return nil, errors.Join(ErrUnavailable, p.reason)
}
