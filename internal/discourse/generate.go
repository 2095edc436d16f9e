package discourse

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/weitblick/internal/fallback"
	"github.com/ppiankov/weitblick/internal/fanout"
	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/prompt"
)

// generated is the text chosen for one node and who produced it
type generated struct {
	text     string
	provider model.ProviderID
}

// generateLayer builds the nodes of one layer. seed is the text analysed;
// idea is the original idea, echoed by fallback text.
func (s *Session) generateLayer(ctx context.Context, seed, idea string, cls model.Classification, level int, parentID string) ([]model.Node, error) {
	creds, err := s.credentials()
	if err != nil {
		return nil, err
	}

	if s.cfg.Structure == model.StructureDialectic {
		return s.dialecticLayer(ctx, seed, idea, cls, level, parentID, creds)
	}

	var texts map[model.Perspective]generated
	if s.cfg.Strategy == model.StrategyShared {
		texts, err = s.sharedPerspectives(ctx, seed, idea, cls, creds)
	} else {
		texts, err = s.separatePerspectives(ctx, seed, idea, cls, creds)
	}
	if err != nil {
		return nil, err
	}

	nodes := make([]model.Node, 0, len(model.AllPerspectives))
	for _, p := range model.AllPerspectives {
		n := s.newNode(model.KindPerspective, cls, level, parentID)
		n.Perspective = p
		n.Title = title(model.KindPerspective, p, cls.Language)
		n.Content = texts[p].text
		n.Provider = texts[p].provider
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// separatePerspectives runs one fan-out per perspective
func (s *Session) separatePerspectives(ctx context.Context, seed, idea string, cls model.Classification, creds model.Credentials) (map[model.Perspective]generated, error) {
	out := make([]generated, len(model.AllPerspectives))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, p := range model.AllPerspectives {
		g.Go(func() error {
			req := fanout.Request{
				Text:     seed,
				Persona:  string(p),
				Level:    cls.Level,
				Language: cls.Language,
			}
			text, provider, err := s.firstOrFallback(gctx, req, creds, func() string {
				return fallback.Text(model.KindPerspective, p, idea, cls.Language, cls.Level)
			})
			if err != nil {
				return fmt.Errorf("analyze %s: %w", p, err)
			}
			out[i] = generated{text: text, provider: provider}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	texts := make(map[model.Perspective]generated, len(out))
	for i, p := range model.AllPerspectives {
		texts[p] = out[i]
	}
	return texts, nil
}

// sharedPerspectives runs a single discourse fan-out and takes every
// segment from the first provider whose reply parses
func (s *Session) sharedPerspectives(ctx context.Context, seed, idea string, cls model.Classification, creds model.Credentials) (map[model.Perspective]generated, error) {
	req := fanout.Request{
		Text:         seed,
		Persona:      prompt.TaskDiscourse,
		Perspectives: model.AllPerspectives,
		Level:        cls.Level,
		Language:     cls.Language,
	}

	results, err := s.analyzer.AnalyzeWithAll(ctx, req, creds)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, id := range results.Usable() {
		segments, err := ParseDiscourse(results[id].Text, model.AllPerspectives)
		if err != nil {
			s.logger.Debug("discourse reply rejected",
				zap.String("provider", string(id)),
				zap.Error(err))
			continue
		}
		texts := make(map[model.Perspective]generated, len(segments))
		for p, text := range segments {
			texts[p] = generated{text: text, provider: id}
		}
		return texts, nil
	}

	s.logger.Info("no usable discourse reply, using fallback text",
		zap.Int("providers", len(results)))

	texts := make(map[model.Perspective]generated, len(model.AllPerspectives))
	for p, text := range fallback.Perspectives(idea, cls.Language, cls.Level) {
		texts[p] = generated{text: text}
	}
	return texts, nil
}

// dialecticLayer generates a thesis node and an antithesis node
func (s *Session) dialecticLayer(ctx context.Context, seed, idea string, cls model.Classification, level int, parentID string, creds model.Credentials) ([]model.Node, error) {
	kinds := []model.NodeKind{model.KindThesis, model.KindAntithesis}
	tasks := map[model.NodeKind]string{
		model.KindThesis:     prompt.TaskThesis,
		model.KindAntithesis: prompt.TaskAntithesis,
	}
	out := make([]generated, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, kind := range kinds {
		g.Go(func() error {
			req := fanout.Request{
				Text:     seed,
				Persona:  tasks[kind],
				Level:    cls.Level,
				Language: cls.Language,
			}
			text, provider, err := s.firstOrFallback(gctx, req, creds, func() string {
				return fallback.Text(kind, "", idea, cls.Language, cls.Level)
			})
			if err != nil {
				return fmt.Errorf("analyze %s: %w", kind, err)
			}
			out[i] = generated{text: text, provider: provider}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nodes := make([]model.Node, 0, len(kinds))
	for i, kind := range kinds {
		n := s.newNode(kind, cls, level, parentID)
		n.Content = out[i].text
		n.Provider = out[i].provider
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// generateQuintessence condenses the source nodes into one node
func (s *Session) generateQuintessence(ctx context.Context, sources []model.Node, idea string, cls model.Classification, level int) (model.Node, error) {
	creds, err := s.credentials()
	if err != nil {
		return model.Node{}, err
	}

	var b strings.Builder
	ids := make([]string, 0, len(sources))
	for i, n := range sources {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s: %s", n.Title, n.Content)
		ids = append(ids, n.ID)
	}

	req := fanout.Request{
		Text:     b.String(),
		Persona:  prompt.TaskQuintessence,
		Level:    cls.Level,
		Language: cls.Language,
	}
	text, provider, err := s.firstOrFallback(ctx, req, creds, func() string {
		return fallback.Text(model.KindQuintessence, "", idea, cls.Language, cls.Level)
	})
	if err != nil {
		return model.Node{}, fmt.Errorf("analyze quintessence: %w", err)
	}

	s.logger.Info("quintessence generated",
		zap.Int("level", level),
		zap.Int("sources", len(ids)),
		zap.Bool("fallback", provider == ""))

	n := s.newNode(model.KindQuintessence, cls, level, "")
	n.Content = text
	n.Provider = provider
	n.SourceIDs = ids
	return n, nil
}

// firstOrFallback fans out one request and applies the selection policy.
// A cancelled caller aborts the transition instead of yielding fallback text.
func (s *Session) firstOrFallback(ctx context.Context, req fanout.Request, creds model.Credentials, fb func() string) (string, model.ProviderID, error) {
	return firstOrFallback(ctx, s.analyzer, s.logger, req, creds, fb)
}

func firstOrFallback(ctx context.Context, analyzer Analyzer, logger *zap.Logger, req fanout.Request, creds model.Credentials, fb func() string) (string, model.ProviderID, error) {
	results, err := analyzer.AnalyzeWithAll(ctx, req, creds)
	if err != nil {
		return "", "", err
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	if id, text, ok := results.First(); ok {
		return text, id, nil
	}

	logger.Debug("no usable provider reply, using fallback text",
		zap.String("persona", req.Persona),
		zap.Int("providers", len(results)))
	return fb(), "", nil
}

func (s *Session) concurrency() int {
	if s.cfg.Concurrency < 1 {
		return 1
	}
	return s.cfg.Concurrency
}
