package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/truthscan-ai/truthscan/internal/mockprovider"
)

func main() {
	addr := flag.String("addr", "", "listen address for the mock Gemini API (default 127.0.0.1:$MOCK_PROVIDER_PORT)")
	reply := flag.String("reply", "", "JSON reply text (default: a Fake verdict)")
	status := flag.Int("status", 0, "fail every call with this HTTP status")
	withSources := flag.Bool("sources", true, "attach two web grounding sources to every reply")
	flag.Parse()

	opts := mockprovider.Options{
		ReplyText:  *reply,
		StatusCode: *status,
		DelayMS:    -1,
	}
	if *withSources {
		opts.Sources = []mockprovider.Source{
			{Title: "NASA Moon Facts", URI: "https://science.nasa.gov/moon/"},
			{Title: "USGS Astrogeology", URI: "https://www.usgs.gov/centers/astrogeology-science-center"},
		}
		opts.RetrievedChunks = 1
	}

	shutdown, baseURL, err := mockprovider.StartMockProvider(*addr, opts)
	if err != nil {
		slog.Error("failed to start mock provider", "error", err)
		os.Exit(1)
	}
	slog.Info("point provider.base_url at the mock", "base_url", baseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		slog.Error("mock provider shutdown", "error", err)
	}
}
