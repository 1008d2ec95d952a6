package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/truthscan-ai/truthscan/internal/inference"
)

// GeminiOptions configures the Gemini provider.
type GeminiOptions struct {
	APIKey string
	// BaseURL overrides the Gemini API endpoint, e.g. for a local mock.
	BaseURL string
	// Timeout bounds one generate call. Zero leaves the transport default.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// geminiProvider implements Provider over the Gemini generateContent API.
type geminiProvider struct {
	client  *genai.Client
	timeout time.Duration
}

// NewGemini creates a Gemini provider. The API key must be non-empty.
func NewGemini(ctx context.Context, opts GeminiOptions) (Provider, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini: api key is empty")
	}

	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &geminiProvider{client: client, timeout: opts.Timeout}, nil
}

func (p *geminiProvider) Generate(ctx context.Context, req *inference.Request) (*inference.Response, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: req.ResponseMIMEType,
	}
	if req.ResponseSchema != nil {
		cfg.ResponseSchema = toGenaiSchema(req.ResponseSchema)
	}
	if req.EnableSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("call gemini: %w", err)
	}
	elapsed := time.Since(start)

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, errors.New("gemini response had no candidates")
	}
	first := resp.Candidates[0]

	out := &inference.Response{
		Text:      candidateText(first),
		Grounding: groundingChunks(first),
		Timings:   &inference.Timings{Provider: elapsed},
	}
	if um := resp.UsageMetadata; um != nil {
		out.Usage = inference.Usage{
			PromptTokens:     int(um.PromptTokenCount),
			CompletionTokens: int(um.CandidatesTokenCount),
			TotalTokens:      int(um.TotalTokenCount),
		}
	}
	return out, nil
}

func candidateText(c *genai.Candidate) string {
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func groundingChunks(c *genai.Candidate) []inference.GroundingChunk {
	if c.GroundingMetadata == nil {
		return nil
	}
	chunks := make([]inference.GroundingChunk, 0, len(c.GroundingMetadata.GroundingChunks))
	for _, gc := range c.GroundingMetadata.GroundingChunks {
		switch {
		case gc == nil:
			continue
		case gc.Web != nil:
			chunks = append(chunks, inference.GroundingChunk{
				Kind:  inference.ChunkWeb,
				Title: gc.Web.Title,
				URI:   gc.Web.URI,
			})
		case gc.RetrievedContext != nil:
			chunks = append(chunks, inference.GroundingChunk{Kind: inference.ChunkRetrievedContext})
		default:
			chunks = append(chunks, inference.GroundingChunk{Kind: inference.ChunkUnknown})
		}
	}
	return chunks
}

func toGenaiSchema(s *inference.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Required:    append([]string(nil), s.Required...),
		Items:       toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case inference.TypeObject:
		return genai.TypeObject
	case inference.TypeString:
		return genai.TypeString
	case inference.TypeNumber:
		return genai.TypeNumber
	case inference.TypeArray:
		return genai.TypeArray
	default:
		return genai.TypeUnspecified
	}
}
