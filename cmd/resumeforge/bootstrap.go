package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/resumeforge/resumeforge-go/internal/api"
	"github.com/resumeforge/resumeforge-go/internal/app"
	"github.com/resumeforge/resumeforge-go/internal/config"
	"github.com/resumeforge/resumeforge-go/internal/download"
	"github.com/resumeforge/resumeforge-go/internal/observability"
	"github.com/resumeforge/resumeforge-go/internal/storage"
)

// newApp assembles the application from the config file, environment, and
// flags. Precedence, highest first: flags, environment, config file.
func newApp() (*app.App, *config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadOptional(path)
	if err != nil {
		return nil, nil, err
	}

	env := config.Config{
		APIBase:   os.Getenv("RESUMEFORGE_API_BASE"),
		Email:     os.Getenv("RESUMEFORGE_EMAIL"),
		OutputDir: os.Getenv("RESUMEFORGE_OUTPUT_DIR"),
	}
	merged := env.MergeWithDefaults(*cfg)
	if flagAPIBase != "" {
		merged.APIBase = flagAPIBase
	}
	if flagVerbose {
		merged.Verbose = true
	}
	if err := merged.Validate(); err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.DiscardHandler)
	if merged.Verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	statePath := merged.StatePath
	if statePath == "" {
		statePath, err = storage.DefaultStatePath()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to locate state file: %w", err)
		}
	}
	backend, err := storage.NewFile(statePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state file: %w", err)
	}

	outputDir := merged.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	a := app.New(app.Options{
		BaseURL: merged.APIBase,
		Backend: backend,
		Saver:   &download.FileSaver{Dir: outputDir},
		Logger:  logger,
	})
	return a, &merged, nil
}

// printer writes the verbose-mode boxes to stdout.
func printer() *observability.Printer {
	return observability.NewPrinter(os.Stdout)
}

// prompt reads one line from stdin, showing label first.
func prompt(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// preflightLLM checks the AI call quota before a gated LLM request so the
// user gets an upgrade hint instead of a raw 429. A failed usage load falls
// through to the backend's check.
func preflightLLM(ctx context.Context, a *app.App) error {
	if _, err := a.Subscription.LoadUsage(ctx); err != nil {
		return nil
	}
	if decision := a.Subscription.CheckBeforeLLMRequest(); !decision.Allowed {
		return fmt.Errorf("%s", decision.Reason)
	}
	return nil
}

// preflightCVCreate is the CV-quota counterpart of preflightLLM.
func preflightCVCreate(ctx context.Context, a *app.App) error {
	if _, err := a.Subscription.LoadUsage(ctx); err != nil {
		return nil
	}
	if decision := a.Subscription.CheckBeforeCVCreation(); !decision.Allowed {
		return fmt.Errorf("%s", decision.Reason)
	}
	return nil
}

// quotaError adopts the authoritative counters a 429 carries into the usage
// store, then rewrites the error for the user. Non-quota errors pass
// through to friendlyError untouched.
func quotaError(a *app.App, err error) error {
	a.Subscription.ApplyRateLimit(err)
	return friendlyError(err)
}

// friendlyError rewrites a quota failure into an actionable message; other
// errors pass through unchanged.
func friendlyError(err error) error {
	var rle *api.RateLimitError
	if !errors.As(err, &rle) {
		return err
	}
	msg := rle.Detail.Message
	if msg == "" {
		msg = "plan limit reached"
	}
	if rle.Detail.UpgradeNeeded && rle.Detail.UpgradeMessage != "" {
		return fmt.Errorf("%s\n%s (run 'resumeforge plan' to see upgrade options)", msg, rle.Detail.UpgradeMessage)
	}
	if rle.Detail.ResetInfo != "" {
		return fmt.Errorf("%s (%s)", msg, rle.Detail.ResetInfo)
	}
	return fmt.Errorf("%s", msg)
}

// requestTimeout bounds a single command's API work.
func requestTimeout(cfg *config.Config) time.Duration {
	if cfg != nil && cfg.TimeoutSeconds > 0 {
		return time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return 2 * time.Minute
}
