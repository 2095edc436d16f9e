package discourse

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/weitblick/internal/classify"
	"github.com/ppiankov/weitblick/internal/fallback"
	"github.com/ppiankov/weitblick/internal/fanout"
	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/prompt"
)

// Guide walks one idea through model.Phases, one answer per phase. It is
// safe for concurrent use; an answer in flight makes other transitions
// fail with ErrBusy.
type Guide struct {
	analyzer Analyzer
	creds    CredentialSource
	logger   *zap.Logger
	now      func() time.Time

	mu             sync.Mutex
	idea           string
	classification model.Classification
	analyses       []model.PhaseAnalysis
	inFlight       bool
}

// NewGuide creates a guide that has not been started
func NewGuide(analyzer Analyzer, creds CredentialSource, logger *zap.Logger) *Guide {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guide{
		analyzer: analyzer,
		creds:    creds,
		logger:   logger,
		now:      time.Now,
	}
}

// Start classifies the idea and opens the first phase
func (g *Guide) Start(idea string) error {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return ErrEmptyIdea
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return ErrBusy
	}
	if g.idea != "" {
		return ErrSessionStarted
	}

	g.idea = idea
	g.classification = classify.Classify(idea)
	g.logger.Info("guide started",
		zap.String("language", string(g.classification.Language)),
		zap.String("level", string(g.classification.Level)))
	return nil
}

// Current returns the index and definition of the phase awaiting an answer
func (g *Guide) Current() (int, model.Phase, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idea == "" {
		return 0, model.Phase{}, ErrNotStarted
	}
	i := len(g.analyses)
	if i >= len(model.Phases) {
		return i, model.Phase{}, ErrGuideComplete
	}
	return i, model.Phases[i], nil
}

// Answer records the answer to the current phase together with its
// analysis and moves on to the next phase
func (g *Guide) Answer(ctx context.Context, answer string) (model.PhaseAnalysis, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return model.PhaseAnalysis{}, ErrEmptyAnswer
	}

	g.mu.Lock()
	if g.inFlight {
		g.mu.Unlock()
		return model.PhaseAnalysis{}, ErrBusy
	}
	if g.idea == "" {
		g.mu.Unlock()
		return model.PhaseAnalysis{}, ErrNotStarted
	}
	index := len(g.analyses)
	if index >= len(model.Phases) {
		g.mu.Unlock()
		return model.PhaseAnalysis{}, ErrGuideComplete
	}
	idea := g.idea
	cls := g.classification
	g.inFlight = true
	g.mu.Unlock()

	analysis, err := g.analyze(ctx, index, idea, answer, cls)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
	if err != nil {
		return model.PhaseAnalysis{}, err
	}

	g.analyses = append(g.analyses, analysis)
	return copyAnalysis(analysis), nil
}

func (g *Guide) analyze(ctx context.Context, index int, idea, answer string, cls model.Classification) (model.PhaseAnalysis, error) {
	creds, err := loadCredentials(g.creds)
	if err != nil {
		return model.PhaseAnalysis{}, err
	}

	phase := model.Phases[index]
	question := phase.QuestionIn(cls.Language)
	req := fanout.Request{
		Text:     prompt.PhaseInput(idea, question, answer, cls.Language),
		Persona:  prompt.TaskPhase,
		Level:    cls.Level,
		Language: cls.Language,
	}

	text, provider, err := firstOrFallback(ctx, g.analyzer, g.logger, req, creds, func() string {
		return fallback.PhaseText(index, answer, cls.Language, cls.Level)
	})
	if err != nil {
		return model.PhaseAnalysis{}, err
	}

	g.logger.Info("phase answered",
		zap.String("phase", phase.Key),
		zap.Bool("fallback", provider == ""))

	perspectives, risks, opportunities := fallback.PhaseNotes(index, cls.Language)
	return model.PhaseAnalysis{
		Phase:         index,
		Title:         phase.TitleIn(cls.Language),
		Question:      question,
		Answer:        answer,
		Analysis:      text,
		Provider:      provider,
		Perspectives:  perspectives,
		Risks:         risks,
		Opportunities: opportunities,
		CreatedAt:     g.now(),
	}, nil
}

// Progress returns the number of answered phases and the phase count
func (g *Guide) Progress() (done, total int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.analyses), len(model.Phases)
}

// Complete reports whether every phase has been answered
func (g *Guide) Complete() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.analyses) >= len(model.Phases)
}

// Reset discards the idea and every answer
func (g *Guide) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return ErrBusy
	}
	g.idea = ""
	g.classification = model.Classification{}
	g.analyses = nil
	return nil
}

// Snapshot returns a read-only copy of the guide
func (g *Guide) Snapshot() model.GuideSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	analyses := make([]model.PhaseAnalysis, len(g.analyses))
	for i, a := range g.analyses {
		analyses[i] = copyAnalysis(a)
	}
	return model.GuideSnapshot{
		Idea:           g.idea,
		Classification: g.classification,
		Current:        len(g.analyses),
		Complete:       len(g.analyses) >= len(model.Phases),
		Analyses:       analyses,
		InFlight:       g.inFlight,
	}
}

func copyAnalysis(a model.PhaseAnalysis) model.PhaseAnalysis {
	a.Perspectives = append([]string(nil), a.Perspectives...)
	a.Risks = append([]string(nil), a.Risks...)
	a.Opportunities = append([]string(nil), a.Opportunities...)
	return a
}
