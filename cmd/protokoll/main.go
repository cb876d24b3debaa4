package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/florianbrandt/protokoll/internal/config"
	"github.com/florianbrandt/protokoll/internal/gateway"
	"github.com/florianbrandt/protokoll/internal/ledger"
	"github.com/florianbrandt/protokoll/internal/logger"
	"github.com/florianbrandt/protokoll/internal/orchestrator"
	"github.com/florianbrandt/protokoll/internal/recognizer"
	"github.com/florianbrandt/protokoll/internal/renderer"
	"github.com/florianbrandt/protokoll/internal/segmenter"
	"github.com/florianbrandt/protokoll/internal/spool"
	"github.com/florianbrandt/protokoll/internal/summarizer"
	"github.com/florianbrandt/protokoll/pkg/executor"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Logging.Level)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Protokoll Meeting Pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "Gateway: %s", cfg.Gateway.URL)
	log.Info(ctx, "Recognition model: %s", cfg.Recognition.Model)
	log.Info(ctx, "Summary model: %s", cfg.Summary.Model)
	log.Info(ctx, "Configuration loaded successfully")

	// Verify required directories exist
	if err := ensureDirectories(cfg); err != nil {
		log.Error(ctx, "Failed to create directories: %v", err)
		os.Exit(1)
	}

	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		log.Error(ctx, "OPENAI_API_KEY is not set")
		os.Exit(1)
	}
	geminiKeys := splitKeys(os.Getenv("GEMINI_API_KEYS"))
	backend, err := summarizer.NewGeminiBackend(geminiKeys, cfg.Summary.Model, log)
	if err != nil {
		log.Error(ctx, "Failed to create summary backend: %v", err)
		os.Exit(1)
	}

	// Initialize dependencies
	exec := executor.New()
	openaiClient := openai.NewClient(option.WithAPIKey(openaiKey))

	led := ledger.New(cfg, log)
	seg := segmenter.New(cfg, exec, log)
	tr := recognizer.New(&openaiClient, cfg, log)
	sum := summarizer.New(backend, cfg, log)
	rend := renderer.New(log)

	gw := gateway.New(cfg, log)
	orch := orchestrator.New(cfg, led, seg, tr, sum, rend, gw, &logDelivery{log: log}, log)
	gw.Bind(orch)

	w, err := spool.New(cfg, orch, log)
	if err != nil {
		log.Error(ctx, "Failed to create spool watcher: %v", err)
		os.Exit(1)
	}
	defer w.Stop()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start gateway and spool watcher in goroutines
	errChan := make(chan error, 2)
	go func() {
		if err := gw.Start(ctx); err != nil && err != context.Canceled {
			errChan <- err
		}
	}()
	go func() {
		if err := w.Start(ctx); err != nil && err != context.Canceled {
			errChan <- err
		}
	}()

	log.Info(ctx, "========================================")
	log.Info(ctx, "Protokoll is ready!")
	log.Info(ctx, "Transcripts: %s", cfg.Paths.Transcripts)
	log.Info(ctx, "Summaries: %s", cfg.Paths.Summaries)
	log.Info(ctx, "Spool: %s", cfg.Paths.Spool)
	log.Info(ctx, "")
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Runtime error: %v", err)
	}

	// Graceful shutdown
	log.Info(ctx, "Shutting down gracefully...")
	cancel()

	log.Info(ctx, "Protokoll stopped")
}

// logDelivery reports finished sessions on the log. The bridge picks the
// document up from the summaries directory itself.
type logDelivery struct {
	log logger.Logger
}

func (d *logDelivery) Deliver(ctx context.Context, key ledger.Key, result *orchestrator.Result) error {
	switch {
	case result.Nothing:
		d.log.Info(ctx, "Session %s ended with an empty transcript", key)
	case result.DocPath != "":
		d.log.Info(ctx, "Session %s summarized: %s", key, result.DocPath)
	default:
		d.log.Warn(ctx, "Session %s summarized without a document", key)
	}
	return nil
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Audio,
		cfg.Paths.Transcripts,
		cfg.Paths.Summaries,
		cfg.Paths.Spool,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
