package mockprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort    = 18080
	defaultDelayMS = 50
)

// DefaultReply is served when Options.ReplyText is empty.
const DefaultReply = `{"verdict":"Fake","confidenceScore":97,"analysis":"No credible outlet reports this claim.","keyFindings":["No peer-reviewed evidence","Contradicts established lunar geology"]}`

// Source is a web grounding chunk served with the reply.
type Source struct {
	Title string
	URI   string
}

// Options shapes the mock reply.
type Options struct {
	ReplyText string
	Sources   []Source
	// RetrievedChunks appends that many non-web grounding chunks after the web ones.
	RetrievedChunks int
	// StatusCode other than 0 or 200 makes every call fail with a Gemini-style error body.
	StatusCode int
	// DelayMS of -1 uses MOCK_DELAY_MS (default 50).
	DelayMS int
}

// StartMockProvider launches a lightweight Gemini-compatible mock server.
// If addr is empty, it listens on 127.0.0.1:MOCK_PROVIDER_PORT (default 18080).
// It returns a shutdown function and the base URL (e.g., http://127.0.0.1:18080/).
func StartMockProvider(addr string, opts Options) (func(context.Context) error, string, error) {
	if strings.TrimSpace(addr) == "" {
		port := strings.TrimSpace(os.Getenv("MOCK_PROVIDER_PORT"))
		if port == "" {
			port = fmt.Sprintf("%d", defaultPort)
		}
		addr = "127.0.0.1:" + port
	}

	delay := opts.DelayMS
	if delay < 0 {
		delay = defaultDelayMS
		if val := strings.TrimSpace(os.Getenv("MOCK_DELAY_MS")); val != "" {
			if parsed, err := strconv.Atoi(val); err == nil && parsed >= 0 {
				delay = parsed
			}
		}
	}
	if opts.ReplyText == "" {
		opts.ReplyText = DefaultReply
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen on %s: %w", addr, err)
	}

	logger := slog.Default().With("component", "mockprovider")

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		logger.Info("mock upstream request", "method", r.Method, "path", r.URL.Path)

		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":generateContent") {
			if r.Header.Get("x-goog-api-key") == "" && r.URL.Query().Get("key") == "" {
				writeError(w, http.StatusUnauthorized, "API key not valid.", "UNAUTHENTICATED")
				return
			}
			if opts.StatusCode != 0 && opts.StatusCode != http.StatusOK {
				writeError(w, opts.StatusCode, "mock upstream failure", "INTERNAL")
				return
			}
			writeGenerateContent(w, opts, delay)
			return
		}

		writeError(w, http.StatusNotFound, "Not found", "NOT_FOUND")
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("mock provider server error", "error", err)
		}
	}()

	shutdown := func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	}

	baseURL := "http://" + ln.Addr().String() + "/"
	logger.Info("mock provider listening", "base_url", baseURL, "delay_ms", delay)
	return shutdown, baseURL, nil
}

func writeError(w http.ResponseWriter, code int, message, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

func writeGenerateContent(w http.ResponseWriter, opts Options, delayMS int) {
	if delayMS > 0 {
		time.Sleep(time.Duration(delayMS) * time.Millisecond)
	}

	chunks := make([]map[string]any, 0, len(opts.Sources)+opts.RetrievedChunks)
	for _, s := range opts.Sources {
		chunks = append(chunks, map[string]any{
			"web": map[string]string{"uri": s.URI, "title": s.Title},
		})
	}
	for i := 0; i < opts.RetrievedChunks; i++ {
		chunks = append(chunks, map[string]any{
			"retrievedContext": map[string]string{"text": fmt.Sprintf("context %d", i)},
		})
	}

	candidate := map[string]any{
		"content": map[string]any{
			"role":  "model",
			"parts": []map[string]string{{"text": opts.ReplyText}},
		},
		"finishReason": "STOP",
		"index":        0,
	}
	if len(chunks) > 0 {
		candidate["groundingMetadata"] = map[string]any{"groundingChunks": chunks}
	}

	resp := map[string]any{
		"candidates": []map[string]any{candidate},
		"usageMetadata": map[string]int{
			"promptTokenCount":     5,
			"candidatesTokenCount": 5,
			"totalTokenCount":      10,
		},
		"modelVersion": "mock-gemini",
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
