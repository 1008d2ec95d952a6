package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/truthscan-ai/truthscan/internal/detection"
	"github.com/truthscan-ai/truthscan/internal/telemetry"
	"github.com/truthscan-ai/truthscan/internal/view"
)

// requestLogger logs one line per request. Query strings are never logged.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelWarn
		case path == "/healthz" || strings.HasPrefix(path, "/static/"):
			level = slog.LevelDebug
		}
		logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
		)
	}
}

// traceRequests opens a server span per request so analysis spans nest under it.
func traceRequests(tracer trace.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		span.SetAttributes(telemetry.SafeAttributes(map[string]any{
			"http.request.method":       c.Request.Method,
			"http.route":                route,
			"http.response.status_code": c.Writer.Status(),
		})...)
	}
}

func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// meteredAnalyzer records the outcome and duration of every analysis.
type meteredAnalyzer struct {
	next      view.Analyzer
	telemetry *telemetry.Provider
}

func (m *meteredAnalyzer) Analyze(ctx context.Context, text string) (*detection.DetectionResult, error) {
	start := time.Now()
	res, err := m.next.Analyze(ctx, text)
	durMs := float64(time.Since(start).Microseconds()) / 1000

	outcome, verdict := telemetry.OutcomeSuccess, ""
	switch {
	case err != nil:
		outcome = string(errorKind(err))
	case res != nil:
		verdict = string(res.Verdict)
	}
	m.telemetry.RecordAnalysis(ctx, outcome, verdict, durMs)
	return res, err
}
