package provider

import (
	"context"
	"sync"

	"github.com/truthscan-ai/truthscan/internal/inference"
)

// FakeProvider replies with canned text and grounding, or a fixed error.
type FakeProvider struct {
	ResponseText string
	Grounding    []inference.GroundingChunk
	Error        error

	mu       sync.Mutex
	calls    int
	requests []*inference.Request
}

func (f *FakeProvider) Generate(ctx context.Context, req *inference.Request) (*inference.Response, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Error != nil {
		return nil, f.Error
	}

	return &inference.Response{
		Text:      f.ResponseText,
		Grounding: append([]inference.GroundingChunk(nil), f.Grounding...),
		Usage: inference.Usage{
			PromptTokens:     2,
			CompletionTokens: 3,
			TotalTokens:      5,
		},
	}, nil
}

// Calls returns how many times Generate was invoked.
func (f *FakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastRequest returns the most recent request, or nil.
func (f *FakeProvider) LastRequest() *inference.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func NewFake(response string, grounding ...inference.GroundingChunk) *FakeProvider {
	return &FakeProvider{ResponseText: response, Grounding: grounding}
}
