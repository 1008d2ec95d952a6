package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/truthscan-ai/truthscan/internal/analysis"
	"github.com/truthscan-ai/truthscan/internal/config"
	"github.com/truthscan-ai/truthscan/internal/mockprovider"
	"github.com/truthscan-ai/truthscan/internal/server"
)

func main() {
	cfgPath := flag.String("config", "truthscan.yaml", "path to config yaml")
	n := flag.Int("n", 50, "number of iterations")
	text := flag.String("text", "Scientists confirm the moon is made of cheese", "news text to analyze")
	useMock := flag.Bool("mock", false, "run against a local mock Gemini API instead of the configured base_url")
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	if *useMock {
		shutdown, baseURL, err := mockprovider.StartMockProvider("127.0.0.1:0", mockprovider.Options{DelayMS: -1})
		if err != nil {
			log.Fatalf("start mock provider: %v", err)
		}
		defer func() { _ = shutdown(ctx) }()
		cfg.Provider.Type = "gemini"
		cfg.Provider.BaseURL = baseURL
		cfg.Provider.AllowPrivateNetworks = true
		if cfg.Provider.ResolveAPIKey() == "" {
			cfg.Provider.APIKey = "mock-key"
		}
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := config.NewLogger(config.LoggingConfig{Level: "error", Format: cfg.Logging.Format}, os.Stderr)
	prov, err := server.BuildProvider(ctx, cfg.Provider, logger)
	if err != nil {
		log.Fatalf("build provider: %v", err)
	}
	an, err := analysis.New(prov, analysis.Options{
		Model:        cfg.Provider.Model,
		EnableSearch: cfg.Provider.SearchEnabled(),
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("build analyzer: %v", err)
	}

	// Warmup
	if _, err := an.Analyze(ctx, *text); err != nil {
		log.Fatalf("warmup analyze failed: %v", err)
	}

	if *n <= 0 {
		*n = 1
	}

	durations := make([]time.Duration, 0, *n)
	verdicts := map[string]int{}
	for i := 0; i < *n; i++ {
		start := time.Now()
		res, err := an.Analyze(ctx, *text)
		if err != nil {
			log.Fatalf("analyze failed: %v", err)
		}
		durations = append(durations, time.Since(start))
		verdicts[string(res.Verdict)]++
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
	p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0

	fmt.Printf("bench: n=%d avg_ms=%.2f p50_ms=%.2f p95_ms=%.2f provider=%s model=%s verdicts=%v\n",
		len(durations),
		avg,
		p50,
		p95,
		cfg.Provider.Type,
		cfg.Provider.Model,
		verdicts,
	)
}
