// Package server exposes the TruthScan page and JSON API over gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/truthscan-ai/truthscan/internal/analysis"
	"github.com/truthscan-ai/truthscan/internal/config"
	"github.com/truthscan-ai/truthscan/internal/console"
	"github.com/truthscan-ai/truthscan/internal/provider"
	"github.com/truthscan-ai/truthscan/internal/telemetry"
	"github.com/truthscan-ai/truthscan/internal/view"
)

const robotsTxt = "User-agent: *\nDisallow: /api/\nDisallow: /check\n"

// Options carries dependencies that are not part of the config file.
type Options struct {
	Logger    *slog.Logger
	Telemetry *telemetry.Provider
	// Provider replaces the one built from cfg.Provider.
	Provider provider.Provider
	// Now defaults to time.Now; the footer year comes from it.
	Now func() time.Time
}

// Server wraps the HTTP server components for TruthScan.
type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	httpServer *http.Server
	analyzer   view.Analyzer
	sessions   *view.Sessions
	renderer   *view.Renderer
	logger     *slog.Logger
	telemetry  *telemetry.Provider
	now        func() time.Time
}

// New builds the server from a validated config.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tel := opts.Telemetry
	if tel == nil {
		tel = telemetry.Noop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	prov := opts.Provider
	if prov == nil {
		var err error
		prov, err = BuildProvider(ctx, cfg.Provider, logger.With("component", "provider"))
		if err != nil {
			return nil, err
		}
	}

	an, err := analysis.New(prov, analysis.Options{
		Model:        cfg.Provider.Model,
		EnableSearch: cfg.Provider.SearchEnabled(),
		Logger:       logger,
		Tracer:       tel.Tracer(),
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	metered := &meteredAnalyzer{next: an, telemetry: tel}

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		analyzer:  metered,
		sessions:  view.NewSessions(metered, cfg.Server.SessionTTL),
		renderer:  renderer,
		logger:    logger.With("component", "server"),
		telemetry: tel,
		now:       now,
	}

	s.engine = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(s.cfg.Server.GinMode)

	g := gin.New()
	g.Use(gin.Recovery(), requestLogger(s.logger), traceRequests(s.telemetry.Tracer()))
	if origins := s.cfg.Server.CORSAllowedOrigins; len(origins) > 0 {
		g.Use(cors.New(corsConfig(origins)))
	}
	g.SetHTMLTemplate(s.renderer.Template())

	g.GET("/healthz", handleHealth)
	g.GET("/robots.txt", handleRobots)
	g.GET("/static/*filepath", gin.WrapH(http.StripPrefix("/static", console.Handler())))

	limited := g.Group("/", limitBody(s.cfg.Server.MaxRequestBodyBytes))
	limited.GET("/", s.handleIndex)
	limited.POST("/check", s.handleCheck)
	limited.POST("/api/analyze", s.handleAnalyze)

	return g
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	cc.AllowOrigins = origins
	return cc
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start serves on server.addr until Shutdown. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("TruthScan running", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func handleRobots(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/plain", []byte(robotsTxt))
}
