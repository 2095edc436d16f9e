package discourse

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/weitblick/internal/fanout"
	"github.com/ppiankov/weitblick/internal/llm"
	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/prompt"
)

type staticCreds model.Credentials

func (c staticCreds) Load() (model.Credentials, error) {
	return model.Credentials(c).Clone(), nil
}

type failingCreds struct{}

func (failingCreds) Load() (model.Credentials, error) {
	return nil, errors.New("keys file unreadable")
}

// fakeAnalyzer answers fan-out requests from a function
type fakeAnalyzer struct {
	mu       sync.Mutex
	requests []fanout.Request
	respond  func(req fanout.Request) fanout.Results
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeAnalyzer) AnalyzeWithAll(ctx context.Context, req fanout.Request, creds model.Credentials) (fanout.Results, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return fanout.Results{}, nil
		}
	}
	if f.respond == nil {
		return fanout.Results{}, nil
	}
	return f.respond(req), nil
}

func (f *fakeAnalyzer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func defaultAnalysis() model.AnalysisConfig {
	return model.DefaultConfig().Analysis
}

func TestSession_ZeroCredentialsEndToEnd(t *testing.T) {
	cfg := model.DefaultConfig()
	orchestrator := fanout.New(map[model.ProviderID]llm.Provider{}, cfg, nil, nil)
	s := New(orchestrator, staticCreds{}, cfg.Analysis, nil)

	layer, err := s.Start(context.Background(), "Bewusstsein ist relational")
	require.NoError(t, err)

	assert.Equal(t, model.Classification{
		Language: model.LanguageGerman,
		Level:    model.LevelBasic,
		Category: model.CategoryPhilosophy,
	}, s.Classification())

	require.Len(t, layer, 5)
	for i, n := range layer {
		assert.Equal(t, model.AllPerspectives[i], n.Perspective)
		assert.Equal(t, model.KindPerspective, n.Kind)
		assert.Equal(t, 0, n.Level)
		assert.Empty(t, n.ParentID)
		assert.True(t, n.IsFallback())
		assert.NotEmpty(t, n.ID)
		assert.Contains(t, n.Content, "„Bewusstsein ist relational“")
		assert.True(t, strings.HasPrefix(n.Content, string(n.Perspective)+":"), n.Content)
	}

	parent := layer[0]
	require.NoError(t, s.Select(parent.ID))

	next, err := s.ThinkForward(context.Background())
	require.NoError(t, err)
	require.Len(t, next, 5)
	for _, n := range next {
		assert.Equal(t, 1, n.Level)
		assert.Equal(t, parent.ID, n.ParentID)
		assert.True(t, n.IsFallback())
	}

	got, ok := s.Node(parent.ID)
	require.True(t, ok)
	assert.Len(t, got.ChildIDs, 5)
	assert.Len(t, s.Nodes(), 10)
	assert.Len(t, s.Level(1), 5)
}

func TestSession_UsesFirstUsableProvider(t *testing.T) {
	fa := &fakeAnalyzer{
		respond: func(req fanout.Request) fanout.Results {
			return fanout.Results{
				model.ProviderGemini:    {Text: llm.Unavailable},
				model.ProviderAnthropic: {Text: strings.ToUpper(req.Persona) + ": from claude"},
				model.ProviderDeepSeek:  {Text: "from deepseek"},
			}
		},
	}
	s := New(fa, staticCreds{model.ProviderAnthropic: "k"}, defaultAnalysis(), nil)

	layer, err := s.Start(context.Background(), "Die Zeit ist eine Illusion und nicht real")
	require.NoError(t, err)
	require.Len(t, layer, 5)
	assert.Equal(t, 5, fa.count())

	for _, n := range layer {
		assert.Equal(t, model.ProviderAnthropic, n.Provider)
		assert.Equal(t, strings.ToUpper(string(n.Perspective))+": from claude", n.Content)
	}
}

func TestSession_SharedStrategy(t *testing.T) {
	reply := "HEGEL: c | KANT: a | WISSENSCHAFT: e | NAGARJUNA: d | HEIDEGGER: b"

	fa := &fakeAnalyzer{
		respond: func(req fanout.Request) fanout.Results {
			return fanout.Results{
				model.ProviderGemini: {Text: "KANT: only one voice"},
				model.ProviderOpenAI: {Text: reply},
			}
		},
	}
	cfg := defaultAnalysis()
	cfg.Strategy = model.StrategyShared
	s := New(fa, staticCreds{model.ProviderGemini: "g", model.ProviderOpenAI: "o"}, cfg, nil)

	layer, err := s.Start(context.Background(), "idea")
	require.NoError(t, err)
	require.Equal(t, 1, fa.count())
	assert.Equal(t, prompt.TaskDiscourse, fa.requests[0].Persona)

	require.Len(t, layer, 5)
	assert.Equal(t, "KANT: a", layer[0].Content)
	assert.Equal(t, "WISSENSCHAFT: e", layer[4].Content)
	for _, n := range layer {
		assert.Equal(t, model.ProviderOpenAI, n.Provider)
	}
}

func TestSession_SharedStrategyFallsBack(t *testing.T) {
	fa := &fakeAnalyzer{
		respond: func(req fanout.Request) fanout.Results {
			return fanout.Results{
				model.ProviderGemini: {Text: "KANT: a | KANT: b"},
			}
		},
	}
	cfg := defaultAnalysis()
	cfg.Strategy = model.StrategyShared
	s := New(fa, staticCreds{model.ProviderGemini: "g"}, cfg, nil)

	layer, err := s.Start(context.Background(), "idea")
	require.NoError(t, err)
	require.Len(t, layer, 5)
	for _, n := range layer {
		assert.True(t, n.IsFallback())
		assert.NotEmpty(t, n.Content)
	}
}

func TestSession_DialecticStructure(t *testing.T) {
	fa := &fakeAnalyzer{}
	cfg := defaultAnalysis()
	cfg.Structure = model.StructureDialectic
	s := New(fa, staticCreds{}, cfg, nil)

	layer, err := s.Start(context.Background(), "Freedom is an illusion")
	require.NoError(t, err)
	require.Len(t, layer, 2)
	assert.Equal(t, model.KindThesis, layer[0].Kind)
	assert.Equal(t, "Thesis", layer[0].Title)
	assert.Equal(t, model.KindAntithesis, layer[1].Kind)

	assert.True(t, s.CanGenerateQuintessence(0))
	q, err := s.GenerateQuintessence(context.Background(), 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{layer[0].ID, layer[1].ID}, q.SourceIDs)
}

func TestSession_Quintessence(t *testing.T) {
	fa := &fakeAnalyzer{
		respond: func(req fanout.Request) fanout.Results {
			if req.Persona == prompt.TaskQuintessence {
				return fanout.Results{model.ProviderGemini: {Text: "QUINTESSENCE: core"}}
			}
			return fanout.Results{}
		},
	}
	s := New(fa, staticCreds{model.ProviderGemini: "g"}, defaultAnalysis(), nil)

	_, err := s.GenerateQuintessence(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotStarted)

	layer, err := s.Start(context.Background(), "Bewusstsein ist relational")
	require.NoError(t, err)

	assert.True(t, s.CanGenerateQuintessence(0))
	assert.False(t, s.CanGenerateQuintessence(1))

	q, err := s.GenerateQuintessence(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, model.KindQuintessence, q.Kind)
	assert.Equal(t, "Quintessenz", q.Title)
	assert.Equal(t, 0, q.Level)
	assert.Empty(t, q.ParentID)
	assert.Equal(t, model.ProviderGemini, q.Provider)
	assert.Equal(t, "QUINTESSENCE: core", q.Content)
	require.Len(t, q.SourceIDs, len(layer))
	for i, n := range layer {
		assert.Equal(t, n.ID, q.SourceIDs[i])
	}

	// The quintessence prompt carries every contributor
	last := fa.requests[len(fa.requests)-1]
	for _, n := range layer {
		assert.Contains(t, last.Text, n.Content)
	}

	_, err = s.GenerateQuintessence(context.Background(), 0)
	assert.ErrorIs(t, err, ErrQuintessenceExists)
	assert.False(t, s.CanGenerateQuintessence(0))

	_, err = s.GenerateQuintessence(context.Background(), 3)
	assert.ErrorIs(t, err, ErrQuintessenceUnavailable)
}

func TestSession_QuintessenceSpansAllParentsOfALevel(t *testing.T) {
	s := New(&fakeAnalyzer{}, staticCreds{}, defaultAnalysis(), nil)

	roots, err := s.Start(context.Background(), "idea")
	require.NoError(t, err)

	var level1 []model.Node
	for _, root := range roots[:2] {
		require.NoError(t, s.Select(root.ID))
		layer, err := s.ThinkForward(context.Background())
		require.NoError(t, err)
		level1 = append(level1, layer...)
	}
	require.Len(t, level1, 10)

	q, err := s.GenerateQuintessence(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Level)
	require.Len(t, q.SourceIDs, len(level1))
	for i, n := range level1 {
		assert.Equal(t, n.ID, q.SourceIDs[i])
	}
	assert.False(t, s.CanGenerateQuintessence(1))
}

func TestSession_QuintessenceCanBeSelected(t *testing.T) {
	s := New(&fakeAnalyzer{}, staticCreds{}, defaultAnalysis(), nil)

	_, err := s.Start(context.Background(), "idea")
	require.NoError(t, err)
	q, err := s.GenerateQuintessence(context.Background(), 0)
	require.NoError(t, err)

	require.NoError(t, s.Select(q.ID))
	next, err := s.ThinkForward(context.Background())
	require.NoError(t, err)
	for _, n := range next {
		assert.Equal(t, q.ID, n.ParentID)
		assert.Equal(t, 1, n.Level)
	}
}

func TestSession_Guards(t *testing.T) {
	s := New(&fakeAnalyzer{}, staticCreds{}, defaultAnalysis(), nil)

	_, err := s.Start(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyIdea)

	_, err = s.ThinkForward(context.Background())
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = s.Start(context.Background(), "idea")
	require.NoError(t, err)

	_, err = s.Start(context.Background(), "another idea")
	assert.ErrorIs(t, err, ErrSessionStarted)

	assert.ErrorIs(t, s.Select("nope"), ErrUnknownNode)

	_, ok := s.Selected()
	assert.False(t, ok)

	require.NoError(t, s.Reset())
	assert.Empty(t, s.Nodes())
	assert.Empty(t, s.Idea())

	_, err = s.Start(context.Background(), "another idea")
	assert.NoError(t, err)
}

func TestSession_BusyWhileInFlight(t *testing.T) {
	fa := &fakeAnalyzer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	cfg := defaultAnalysis()
	cfg.Strategy = model.StrategyShared
	s := New(fa, staticCreds{}, cfg, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Start(context.Background(), "idea")
		done <- err
	}()

	select {
	case <-fa.started:
	case <-time.After(time.Second):
		t.Fatal("generation did not start")
	}

	_, err := s.Start(context.Background(), "idea")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, s.Reset(), ErrBusy)
	assert.True(t, s.Snapshot().InFlight)
	assert.False(t, s.CanGenerateQuintessence(0))

	close(fa.release)
	require.NoError(t, <-done)
	assert.False(t, s.Snapshot().InFlight)
	assert.Len(t, s.Nodes(), 5)
}

func TestSession_CancelledStartLeavesSessionEmpty(t *testing.T) {
	fa := &fakeAnalyzer{release: make(chan struct{})}
	s := New(fa, staticCreds{}, defaultAnalysis(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Start(ctx, "idea")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, s.Nodes())
	assert.Empty(t, s.Idea())
	assert.False(t, s.Snapshot().InFlight)
}

func TestSession_CredentialError(t *testing.T) {
	s := New(&fakeAnalyzer{}, failingCreds{}, defaultAnalysis(), nil)

	_, err := s.Start(context.Background(), "idea")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load credentials")
	assert.False(t, s.Snapshot().InFlight)
}

func TestSession_Snapshot(t *testing.T) {
	s := New(&fakeAnalyzer{}, staticCreds{}, defaultAnalysis(), nil)

	layer, err := s.Start(context.Background(), "idea")
	require.NoError(t, err)
	require.NoError(t, s.Select(layer[2].ID))

	snap := s.Snapshot()
	assert.Equal(t, "idea", snap.Idea)
	assert.Equal(t, layer[2].ID, snap.SelectedID)
	assert.Len(t, snap.Nodes, 5)
	assert.Len(t, snap.Roots(), 5)

	// Mutating the snapshot does not touch the session
	snap.Nodes[0].Content = "changed"
	n, ok := s.Node(layer[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "changed", n.Content)
}
