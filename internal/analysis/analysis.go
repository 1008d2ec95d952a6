// Package analysis turns free text into a validated detection result through
// one call to a model provider.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"log/slog"
	"math"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/truthscan-ai/truthscan/internal/detection"
	"github.com/truthscan-ai/truthscan/internal/inference"
	"github.com/truthscan-ai/truthscan/internal/provider"
	"github.com/truthscan-ai/truthscan/internal/redact"
)

// Options configures an Analyzer.
type Options struct {
	Model        string
	EnableSearch bool
	Logger       *slog.Logger
	Tracer       trace.Tracer
}

// Analyzer is safe for concurrent use.
type Analyzer struct {
	provider     provider.Provider
	model        string
	enableSearch bool
	schema       *inference.Schema
	validator    *jsonschema.Schema
	sanitizer    *bluemonday.Policy
	logger       *slog.Logger
	tracer       trace.Tracer
}

// New builds an Analyzer over p.
func New(p provider.Provider, opts Options) (*Analyzer, error) {
	if p == nil {
		return nil, errors.New("analysis: provider is nil")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("analysis: model is empty")
	}

	schema := ReplySchema()
	validator, err := compileReplySchema(schema)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	return &Analyzer{
		provider:     p,
		model:        opts.Model,
		enableSearch: opts.EnableSearch,
		schema:       schema,
		validator:    validator,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With("component", "analysis"),
		tracer:       tracer,
	}, nil
}

// BuildPrompt embeds text verbatim in the authenticity instruction.
func BuildPrompt(text string) string {
	return "Analyze the following news text for authenticity. " +
		"Provide a detailed breakdown including a verdict, confidence score, and key findings.\n\n" +
		`News Text: "` + text + `"`
}

// Analyze issues exactly one provider call for text. Every returned error is an *Error.
// The caller is expected to reject blank text.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*detection.DetectionResult, error) {
	ctx, span := a.tracer.Start(ctx, "analysis.analyze")
	defer span.End()

	req := &inference.Request{
		Model:            a.model,
		Prompt:           BuildPrompt(text),
		ResponseMIMEType: "application/json",
		ResponseSchema:   a.schema,
		EnableSearch:     a.enableSearch,
	}

	resp, err := a.provider.Generate(ctx, req)
	if err != nil {
		a.logger.ErrorContext(ctx, "error analyzing news", redact.Err(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindAnalysisFailed))
		return nil, failed(err)
	}

	if resp != nil {
		attrs := []any{"total_tokens", resp.Usage.TotalTokens, "grounding_chunks", len(resp.Grounding)}
		if resp.Timings != nil {
			attrs = append(attrs, "provider_ms", resp.Timings.Provider.Milliseconds())
		}
		a.logger.DebugContext(ctx, "model replied", attrs...)
		span.SetAttributes(attribute.Int("truthscan.tokens.total", resp.Usage.TotalTokens))
	}

	result, aerr := a.buildResult(resp)
	if aerr != nil {
		a.logger.ErrorContext(ctx, "model reply rejected", redact.Err(aerr.Cause))
		span.RecordError(aerr)
		span.SetStatus(codes.Error, string(KindMalformedResponse))
		return nil, aerr
	}

	span.SetAttributes(
		attribute.String("truthscan.verdict", string(result.Verdict)),
		attribute.Int("truthscan.sources", len(result.Sources)),
	)
	return result, nil
}

type reply struct {
	Verdict         string   `json:"verdict"`
	ConfidenceScore float64  `json:"confidenceScore"`
	Analysis        string   `json:"analysis"`
	KeyFindings     []string `json:"keyFindings"`
}

func (a *Analyzer) buildResult(resp *inference.Response) (*detection.DetectionResult, *Error) {
	if resp == nil {
		return nil, malformed("empty response")
	}

	body := stripCodeFence(resp.Text)
	if body == "" {
		return nil, malformed("reply text is empty")
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, malformed("decode reply: %w", err)
	}
	if err := a.validator.Validate(doc); err != nil {
		return nil, malformed("reply violates schema: %w", err)
	}

	var r reply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, malformed("decode reply: %w", err)
	}

	verdict, ok := detection.ParseVerdict(r.Verdict)
	if !ok {
		return nil, malformed("unknown verdict %q", r.Verdict)
	}

	findings := make([]string, 0, len(r.KeyFindings))
	for _, f := range r.KeyFindings {
		findings = append(findings, a.clean(f))
	}

	return &detection.DetectionResult{
		Verdict:         verdict,
		ConfidenceScore: clampScore(r.ConfidenceScore),
		Analysis:        a.clean(r.Analysis),
		KeyFindings:     findings,
		Sources:         a.webSources(resp.Grounding),
	}, nil
}

// webSources keeps web chunks with an http(s) URI, in the order received.
func (a *Analyzer) webSources(chunks []inference.GroundingChunk) []detection.GroundingSource {
	sources := make([]detection.GroundingSource, 0, len(chunks))
	for _, c := range chunks {
		if c.Kind != inference.ChunkWeb {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(c.URI))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		title := a.clean(c.Title)
		if title == "" {
			title = u.Host
		}
		sources = append(sources, detection.GroundingSource{Title: title, URI: u.String()})
	}
	return sources
}

// clean strips markup from model text. The renderer escapes on output, so
// entities produced by the sanitizer are decoded again.
func (a *Analyzer) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(a.sanitizer.Sanitize(s)))
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// stripCodeFence removes a surrounding ```json fence some models add despite
// the JSON MIME type.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
