// Package classify turns column metadata into sensitivity classifications
// through a single model call.
//
// Classify is total: every failure along the way, from a malformed credential
// to a panic inside the provider, comes back as an in-band result with level
// Error or Blocked. Callers detect failure with types.Failed.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/colsense/colsense/internal/gemini"
	"github.com/colsense/colsense/internal/metrics"
	"github.com/colsense/colsense/internal/prompt"
	"github.com/colsense/colsense/internal/retry"
	"github.com/colsense/colsense/internal/sanitize"
	"github.com/colsense/colsense/internal/taxonomy"
	"github.com/colsense/colsense/internal/types"
)

// Provider is the model backend. *gemini.Client satisfies it.
type Provider interface {
	Ping(ctx context.Context, apiKey string) error
	Generate(ctx context.Context, apiKey, prompt string) (*gemini.Response, error)
}

// Classifier holds the provider and the knobs of a classification call.
// A Classifier is safe for concurrent use once built.
type Classifier struct {
	provider  Provider
	policy    retry.Policy
	model     string
	levels    []types.SensitivityLevel
	guidance  taxonomy.Guidance
	log       *slog.Logger
	reconcile bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithProvider replaces the default Gemini client.
func WithProvider(p Provider) Option { return func(c *Classifier) { c.provider = p } }

// WithRetryPolicy replaces the default five-attempt policy. A nil Transient
// keeps gemini.IsTransient.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Classifier) {
		if p.Transient == nil {
			p.Transient = gemini.IsTransient
		}
		c.policy = p
	}
}

// WithModel selects the model for the default provider. It has no effect
// when WithProvider is also given.
func WithModel(m string) Option { return func(c *Classifier) { c.model = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTaxonomy replaces the guidance shown to the model.
func WithTaxonomy(g taxonomy.Guidance) Option {
	return func(c *Classifier) {
		if g != nil {
			c.guidance = g
		}
	}
}

// WithReconcile turns on logging of columns the model skipped or invented.
// Results are never relabeled.
func WithReconcile(on bool) Option { return func(c *Classifier) { c.reconcile = on } }

// New builds a Classifier. Without WithProvider it talks to Gemini.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		policy:   retry.DefaultPolicy(gemini.IsTransient),
		levels:   taxonomy.Levels(),
		guidance: taxonomy.Default(),
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.provider == nil {
		c.provider = gemini.New(gemini.WithModel(c.model), gemini.WithLogger(c.log))
	}
	if c.model == "" {
		c.model = gemini.DefaultModel
	}
	if c.policy.Logger == nil {
		c.policy.Logger = c.log
	}
	return c
}

// Classify sends cols to the model and returns one result per column, or a
// single Error/Blocked result describing why that was not possible. The
// returned list is never empty.
func (c *Classifier) Classify(ctx context.Context, cols []types.ColumnMetadata, credential string) (results []types.ClassificationResult) {
	start := time.Now()
	outcome := outcomeInternal
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("classification panicked", "panic", r)
			outcome = outcomePanic
			results = types.FailureResult(types.LevelError,
				fmt.Sprintf("AI Analysis Error: An unexpected error occurred: %v. Check logs for details.", r))
		}
		if len(results) == 0 {
			outcome = outcomeInternal
			results = types.FailureResult(types.LevelError,
				"AI Analysis Error: An unexpected error occurred: no results produced. Check logs for details.")
		}
		metrics.ClassificationsTotal.WithLabelValues(outcome).Inc()
		metrics.ClassificationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		if outcome == outcomeSuccess {
			for _, r := range results {
				metrics.ColumnsClassified.WithLabelValues(string(r.SensitivityLevel)).Inc()
			}
		}
	}()

	results, outcome = c.run(ctx, cols, credential)
	return results
}

func (c *Classifier) run(ctx context.Context, cols []types.ColumnMetadata, credential string) ([]types.ClassificationResult, string) {
	if err := ValidateCredential(credential); err != nil {
		c.log.Error("gemini API key rejected before any call", "err", err, "key_len", len(credential))
		return types.FailureResult(types.LevelError, "AI Analysis Disabled: Invalid or missing Gemini API Key."), outcomeCredential
	}
	if len(cols) == 0 {
		return types.FailureResult(types.LevelError, "Input Error: No columns to classify."), outcomeEmpty
	}

	if err := c.provider.Ping(ctx, credential); err != nil {
		c.log.Error("gemini connectivity probe failed", "err", err)
		return types.FailureResult(types.LevelError,
			fmt.Sprintf("AI Analysis Disabled: Could not authenticate with Gemini (invalid key, network issue, or regional availability). Error: %v", err)), outcomeProbe
	}

	p, err := prompt.Build(c.levels, c.guidance, sanitize.Columns(cols))
	if err != nil {
		c.log.Error("prompt build failed", "err", err)
		return types.FailureResult(types.LevelError,
			fmt.Sprintf("Internal Error: Column metadata not JSON serializable: %v", err)), outcomeInternal
	}
	p.Log(c.log)
	metrics.PromptTokens.Observe(float64(p.EstimatedTokens))

	policy := c.policy
	userHook := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.ProviderRetriesTotal.WithLabelValues(c.model).Inc()
		if userHook != nil {
			userHook(attempt, delay, err)
		}
	}
	resp, err := retry.Do(ctx, policy, func(ctx context.Context) (*gemini.Response, error) {
		return c.provider.Generate(ctx, credential, p.Text)
	})
	if err != nil {
		return c.providerFailure(err, policy.Attempts())
	}
	if resp == nil {
		return types.FailureResult(types.LevelError, "AI Analysis Failed: No valid response from Gemini."), outcomeEmpty
	}

	if resp.Blocked() {
		ratings := gemini.FormatRatings(resp.FeedbackRatings())
		c.log.Error("prompt blocked by provider policy", "reason", resp.PromptFeedback.BlockReason, "ratings", ratings)
		return types.FailureResult(types.LevelBlocked,
			fmt.Sprintf("AI Analysis Blocked: Prompt flagged for safety/policy. Review input data. (Reason: %s; Details: %s)",
				resp.PromptFeedback.BlockReason, ratings)), outcomeBlocked
	}
	if len(resp.Candidates) == 0 {
		ratings := gemini.FormatRatings(resp.FeedbackRatings())
		c.log.Warn("gemini response had no candidates", "ratings", ratings)
		return types.FailureResult(types.LevelError,
			fmt.Sprintf("AI Analysis Failed: No valid response from Gemini. This is often due to safety filters (%s), or API issues.", ratings)), outcomeEmpty
	}

	cand := resp.Candidates[0]
	raw := cand.Text()
	if strings.TrimSpace(raw) == "" {
		reason := cand.FinishReason
		if reason == "" {
			reason = "UNSPECIFIED"
		}
		ratings := gemini.FormatRatings(cand.SafetyRatings)
		c.log.Error("gemini candidate has no text", "finish_reason", reason, "ratings", ratings)
		return types.FailureResult(types.LevelError,
			fmt.Sprintf("AI Analysis Halted: Gemini stopped generating response prematurely (finish reason: %s). "+
				"Try reducing prompt size or increasing max_output_tokens. (Safety: %s)", reason, ratings)), outcomeHalted
	}
	c.log.Debug("gemini raw response", "text", excerpt(raw, 200))

	results, err := ParseResponse(raw)
	if err != nil {
		c.log.Error("unusable gemini response", "err", err, "raw", raw)
		var se *SchemaError
		if errors.As(err, &se) {
			return types.FailureResult(types.LevelError,
				fmt.Sprintf("AI Response Error: Invalid JSON structure. Raw: %s... Error: %v", excerpt(raw, 100), se.Err)), outcomeSchema
		}
		return types.FailureResult(types.LevelError,
			fmt.Sprintf("AI Response Error: Could not parse JSON from Gemini. Raw: %s... Error: %v", excerpt(raw, 100), err)), outcomeParse
	}

	if c.reconcile {
		c.logMismatch(Reconcile(cols, results))
	}
	c.log.Info("classification complete", "columns", len(cols), "results", len(results))
	return results, outcomeSuccess
}

func (c *Classifier) providerFailure(err error, attempts int) ([]types.ClassificationResult, string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.log.Error("classification cancelled", "err", err)
		return types.FailureResult(types.LevelError,
			fmt.Sprintf("AI Analysis Error: Request cancelled or timed out. Error: %v", err)), outcomeCancelled
	case gemini.IsTransient(err):
		c.log.Error("gemini call failed after retries", "attempts", attempts, "err", err)
		return types.FailureResult(types.LevelError,
			fmt.Sprintf("AI Analysis Error: API call failed after %d attempts. Error: %v", attempts, err)), outcomeExhausted
	case gemini.IsAuth(err):
		c.log.Error("gemini rejected the API key", "err", err)
		return types.FailureResult(types.LevelError,
			fmt.Sprintf("AI Analysis Disabled: Gemini rejected the API key. Error: %v", err)), outcomeAPI
	}
	var ae *gemini.APIError
	if errors.As(err, &ae) {
		c.log.Error("gemini API error", "err", err)
		return types.FailureResult(types.LevelError,
			fmt.Sprintf("AI Analysis API Error: Failed to connect to Gemini API or internal error. Check internet/API key. Error: %v", err)), outcomeAPI
	}
	c.log.Error("unexpected error during gemini call", "err", err)
	return types.FailureResult(types.LevelError,
		fmt.Sprintf("AI Analysis Error: An unexpected error occurred: %v. Check logs for details.", err)), outcomeInternal
}

func (c *Classifier) logMismatch(m Mismatch) {
	if len(m.Missing) > 0 {
		c.log.Warn("model skipped columns", "columns", m.Missing)
	}
	if len(m.Unexpected) > 0 {
		c.log.Warn("model returned columns not in the batch", "columns", m.Unexpected)
	}
}

const (
	outcomeSuccess    = "success"
	outcomeCredential = "credential"
	outcomeProbe      = "probe"
	outcomeBlocked    = "blocked"
	outcomeEmpty      = "empty"
	outcomeHalted     = "halted"
	outcomeParse      = "parse"
	outcomeSchema     = "schema"
	outcomeAPI        = "api"
	outcomeExhausted  = "exhausted"
	outcomeCancelled  = "cancelled"
	outcomeInternal   = "internal"
	outcomePanic      = "panic"
)

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
