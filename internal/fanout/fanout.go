// Package fanout sends one prompt to every configured provider in parallel
// and collects each provider's outcome independently.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/weitblick/internal/cache"
	"github.com/ppiankov/weitblick/internal/llm"
	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/prompt"
	"github.com/ppiankov/weitblick/internal/worker"
)

// ErrProviderNotRegistered is reported for a credential without a client
var ErrProviderNotRegistered = errors.New("provider not registered")

// Request describes one analysis to fan out
type Request struct {
	Text         string
	Persona      string              // Perspective name or a prompt task
	Perspectives []model.Perspective // Voices of a discourse task
	Level        model.Level
	Language     model.Language
}

// Orchestrator runs one prompt against all configured providers
type Orchestrator struct {
	providers map[model.ProviderID]llm.Provider
	endpoints model.ProvidersConfig
	analysis  model.AnalysisConfig
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// New creates an orchestrator. A nil cache disables response caching.
func New(providers map[model.ProviderID]llm.Provider, cfg *model.Config, c cache.Cache, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		providers: providers,
		endpoints: cfg.Providers,
		analysis:  cfg.Analysis,
		cache:     c,
		cacheTTL:  cfg.Cache.TTL,
		logger:    logger,
	}
}

// BuildPrompt renders the prompt for a request
func BuildPrompt(req Request) (string, error) {
	if req.Persona == prompt.TaskDiscourse {
		return prompt.Discourse(req.Text, req.Perspectives, req.Level, req.Language)
	}
	return prompt.Build(req.Text, req.Persona, req.Level, req.Language)
}

// AnalyzeWithAll builds the prompt once and calls every provider with a
// present credential. Only a prompt build failure is returned as an error;
// provider failures are recorded in their Outcome.
func (o *Orchestrator) AnalyzeWithAll(ctx context.Context, req Request, creds model.Credentials) (Results, error) {
	text, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	configured := creds.Configured()
	results := make(Results, len(configured))
	if len(configured) == 0 {
		o.logger.Debug("no provider configured, skipping fan-out",
			zap.String("persona", req.Persona))
		return results, nil
	}

	jobs := make([]worker.Job, 0, len(configured))
	for _, id := range configured {
		jobs = append(jobs, &callJob{
			orchestrator: o,
			provider:     id,
			prompt:       text,
			credential:   creds[id],
			language:     req.Language,
		})
	}

	for _, r := range worker.RunAll(ctx, o.analysis.Concurrency, jobs) {
		cr := r.(*callResult)
		results[cr.provider] = cr.outcome
	}

	// Jobs dropped by a cancelled caller still get a slot
	for _, id := range configured {
		if _, ok := results[id]; ok {
			continue
		}
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		results[id] = failed(id, req.Language, cause)
	}

	o.logger.Debug("fan-out complete",
		zap.String("persona", req.Persona),
		zap.Int("providers", len(results)),
		zap.Int("usable", len(results.Usable())))

	return results, nil
}

// Invalidate drops the cached responses of every registered provider for
// the request, so the next AnalyzeWithAll asks the providers again
func (o *Orchestrator) Invalidate(req Request) error {
	if o.cache == nil {
		return nil
	}
	text, err := BuildPrompt(req)
	if err != nil {
		return err
	}

	for _, id := range model.AllProviders {
		if _, ok := o.providers[id]; !ok {
			continue
		}
		endpoint, _ := o.endpoints.Endpoint(id)
		if err := o.cache.Delete(cache.CacheKey(id, endpoint.Model, text)); err != nil {
			return fmt.Errorf("invalidate %s: %w", id, err)
		}
	}

	o.logger.Debug("cache entries invalidated", zap.String("persona", req.Persona))
	return nil
}

// call runs one provider with its own deadline, consulting the cache first
func (o *Orchestrator) call(ctx context.Context, id model.ProviderID, text, credential string, language model.Language) Outcome {
	p, ok := o.providers[id]
	if !ok {
		return failed(id, language, ErrProviderNotRegistered)
	}

	key := ""
	if o.cache != nil {
		endpoint, _ := o.endpoints.Endpoint(id)
		key = cache.CacheKey(id, endpoint.Model, text)
		if data, hit := o.cache.Get(key); hit {
			o.logger.Debug("cache hit", zap.String("provider", string(id)))
			return Outcome{Text: string(data), Cached: true}
		}
	}

	callCtx, cancel := withTimeout(ctx, o.analysis.Timeout)
	defer cancel()

	start := time.Now()
	out, err := p.Complete(callCtx, text, credential)
	elapsed := time.Since(start)

	if err != nil {
		o.logger.Warn("provider call failed",
			zap.String("provider", string(id)),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return Outcome{Text: FailureText(id, language, err), Err: err, Duration: elapsed}
	}

	outcome := Outcome{Text: out, Duration: elapsed}
	o.logger.Debug("provider call complete",
		zap.String("provider", string(id)),
		zap.Duration("duration", elapsed),
		zap.Bool("usable", outcome.Usable()))

	if key != "" && outcome.Usable() {
		if err := o.cache.Set(key, []byte(out), o.cacheTTL); err != nil {
			o.logger.Warn("cache write failed", zap.String("provider", string(id)), zap.Error(err))
		}
	}

	return outcome
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// FailureText is the locale-appropriate text stored for a failed provider
func FailureText(id model.ProviderID, language model.Language, err error) string {
	if language == model.LanguageEnglish {
		return fmt.Sprintf("Analysis with %s failed: %v", id.Label(), err)
	}
	return fmt.Sprintf("Analyse mit %s fehlgeschlagen: %v", id.Label(), err)
}

func failed(id model.ProviderID, language model.Language, err error) Outcome {
	return Outcome{Text: FailureText(id, language, err), Err: err}
}

// callJob adapts one provider call to the worker pool
type callJob struct {
	orchestrator *Orchestrator
	provider     model.ProviderID
	prompt       string
	credential   string
	language     model.Language
}

// Execute runs the provider call
func (j *callJob) Execute(ctx context.Context) worker.Result {
	return &callResult{
		provider: j.provider,
		outcome:  j.orchestrator.call(ctx, j.provider, j.prompt, j.credential, j.language),
	}
}

type callResult struct {
	provider model.ProviderID
	outcome  Outcome
}

// GetError returns the provider error, if any
func (r *callResult) GetError() error {
	return r.outcome.Err
}

// Outcome is one provider's result slot
type Outcome struct {
	Text     string
	Err      error
	Cached   bool
	Duration time.Duration
}

// Usable reports whether the outcome carries real model text
func (o Outcome) Usable() bool {
	return o.Err == nil && !llm.IsUnavailable(o.Text) && strings.TrimSpace(o.Text) != ""
}

// Results maps each configured provider to its outcome. Unconfigured
// providers have no key.
type Results map[model.ProviderID]Outcome

// First returns the first usable outcome in provider enumeration order
func (r Results) First() (model.ProviderID, string, bool) {
	for _, id := range model.AllProviders {
		if out, ok := r[id]; ok && out.Usable() {
			return id, out.Text, true
		}
	}
	return "", "", false
}

// Usable lists the providers with usable outcomes, in enumeration order
func (r Results) Usable() []model.ProviderID {
	var ids []model.ProviderID
	for _, id := range model.AllProviders {
		if out, ok := r[id]; ok && out.Usable() {
			ids = append(ids, id)
		}
	}
	return ids
}
