package colsense

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/colsense/colsense/internal/classify"
	"github.com/colsense/colsense/internal/config"
	"github.com/colsense/colsense/internal/dataset"
	"github.com/colsense/colsense/internal/gemini"
	"github.com/colsense/colsense/internal/retry"
	"github.com/colsense/colsense/internal/taxonomy"
)

// loadConfigs returns the global and the working-directory config. Missing
// or unreadable files leave the zero config.
func loadConfigs() (gcfg, lcfg config.FileConfig) {
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	} else {
		slog.Debug("no global config", "err", err)
	}
	wd, _ := os.Getwd()
	if c, err := config.LoadLocal(wd); err == nil {
		lcfg = c
	} else {
		slog.Debug("no local config", "err", err)
	}
	return gcfg, lcfg
}

// classifierFlags are shared by commands that talk to the model.
type classifierFlags struct {
	model     string
	apiKey    string
	baseURL   string
	timeout   time.Duration
	reconcile bool
	attempts  int
}

// engine is everything a command needs to classify.
type engine struct {
	classifier *classify.Classifier
	apiKey     string
	timeout    time.Duration
	guidance   taxonomy.Guidance
}

// buildEngine resolves flags, env and config files (CLI > local > global >
// default) into a classifier.
func buildEngine(f classifierFlags, gcfg, lcfg config.FileConfig) (*engine, error) {
	merged := config.Merge(gcfg, lcfg)

	model := pickString(f.model, envPtr(config.EnvModel), nil)
	model = pickString(model, lcfg.Model, gcfg.Model)
	baseURL := pickString(f.baseURL, envPtr(config.EnvBaseURL), nil)
	baseURL = pickString(baseURL, lcfg.BaseURL, gcfg.BaseURL)

	timeout, err := pickDuration(f.timeout, lcfg.Timeout, gcfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}
	delay, err := pickDuration(0, lcfg.InitialDelay, gcfg.InitialDelay)
	if err != nil {
		return nil, fmt.Errorf("initial_delay: %w", err)
	}
	policy := retry.DefaultPolicy(gemini.IsTransient)
	if n := pickInt(f.attempts, lcfg.MaxAttempts, gcfg.MaxAttempts); n > 0 {
		policy.MaxAttempts = n
	}
	if delay > 0 {
		policy.InitialDelay = delay
	}

	guidance, err := taxonomy.Default().Merge(merged.Taxonomy)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(f.apiKey)
	if key == "" {
		key = merged.APIKey()
	}
	log := slog.Default()
	client := gemini.New(gemini.WithModel(model), gemini.WithBaseURL(baseURL), gemini.WithLogger(log))
	log.Debug("classifier configured",
		"model", client.Model(),
		"key_env", merged.APIKeyVar(),
		"key_len", len(key),
		"attempts", policy.Attempts())

	c := classify.New(
		classify.WithProvider(client),
		classify.WithModel(client.Model()),
		classify.WithRetryPolicy(policy),
		classify.WithTaxonomy(guidance),
		classify.WithReconcile(pickBool(f.reconcile, lcfg.Reconcile, gcfg.Reconcile)),
		classify.WithLogger(log),
	)
	return &engine{classifier: c, apiKey: key, timeout: timeout, guidance: guidance}, nil
}

// extractOptions resolves --columns and --samples against the config files.
func extractOptions(columns []string, samples int, gcfg, lcfg config.FileConfig) dataset.Options {
	opts := dataset.Options{
		MaxSamples: pickInt(samples, lcfg.Samples, gcfg.Samples),
		Columns:    columns,
	}
	if len(opts.Columns) == 0 {
		opts.Columns = lcfg.Columns
	}
	if len(opts.Columns) == 0 {
		opts.Columns = gcfg.Columns
	}
	return opts
}

func envPtr(name string) *string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}
	return &v
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

// pickDuration is pickString for Go duration strings.
func pickDuration(cli time.Duration, local, global *string) (time.Duration, error) {
	if cli != 0 {
		return cli, nil
	}
	s := pickString("", local, global)
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
