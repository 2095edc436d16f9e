package discourse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/weitblick/internal/fanout"
	"github.com/ppiankov/weitblick/internal/llm"
	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/prompt"
)

func TestGuide_ZeroCredentialsWalksAllPhases(t *testing.T) {
	fa := &fakeAnalyzer{}
	g := NewGuide(fa, staticCreds{}, nil)

	require.NoError(t, g.Start("Bewusstsein ist relational"))

	answers := []string{
		"Beziehung geht den Dingen voraus",
		"Das Leib-Seele-Problem",
		"Neue Modelle von Kooperation",
		"Manipulation von Beziehungen",
	}
	for i, answer := range answers {
		index, phase, err := g.Current()
		require.NoError(t, err)
		assert.Equal(t, i, index)
		assert.Equal(t, model.Phases[i].Key, phase.Key)

		done, total := g.Progress()
		assert.Equal(t, i, done)
		assert.Equal(t, len(model.Phases), total)

		a, err := g.Answer(context.Background(), answer)
		require.NoError(t, err)
		assert.Equal(t, i, a.Phase)
		assert.Equal(t, phase.TitleIn(model.LanguageGerman), a.Title)
		assert.Equal(t, phase.QuestionIn(model.LanguageGerman), a.Question)
		assert.Equal(t, answer, a.Answer)
		assert.True(t, a.IsFallback())
		assert.Contains(t, a.Analysis, "„"+answer+"“")
	}

	assert.True(t, g.Complete())
	_, _, err := g.Current()
	assert.ErrorIs(t, err, ErrGuideComplete)
	_, err = g.Answer(context.Background(), "one more")
	assert.ErrorIs(t, err, ErrGuideComplete)

	snap := g.Snapshot()
	require.Len(t, snap.Analyses, 4)
	assert.True(t, snap.Complete)
	assert.Equal(t, 4, snap.Current)
	assert.Equal(t, 100, snap.Progress())

	// Static notes per phase
	assert.Len(t, snap.Analyses[0].Perspectives, 5)
	assert.Empty(t, snap.Analyses[0].Risks)
	assert.Len(t, snap.Analyses[1].Opportunities, 2)
	assert.Len(t, snap.Analyses[1].Risks, 1)
	assert.Len(t, snap.Analyses[2].Opportunities, 3)
	assert.Equal(t, []string{"Ethische Dilemmata", "Missbrauchspotenzial", "Unerwünschte Konsequenzen"}, snap.Analyses[3].Risks)

	// The phase request is built, even if no provider is configured
	assert.Equal(t, 4, fa.count())
}

func TestGuide_UsesFirstUsableProvider(t *testing.T) {
	fa := &fakeAnalyzer{
		respond: func(req fanout.Request) fanout.Results {
			return fanout.Results{
				model.ProviderGemini: {Text: llm.Unavailable},
				model.ProviderOpenAI: {Text: "PHASE: solid ground"},
			}
		},
	}
	g := NewGuide(fa, staticCreds{model.ProviderOpenAI: "o"}, nil)
	require.NoError(t, g.Start("Freedom is an illusion"))

	a, err := g.Answer(context.Background(), "Choice is a story we tell")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderOpenAI, a.Provider)
	assert.Equal(t, "PHASE: solid ground", a.Analysis)
	assert.Equal(t, "Core hypothesis", a.Title)

	require.Equal(t, 1, fa.count())
	req := fa.requests[0]
	assert.Equal(t, prompt.TaskPhase, req.Persona)
	assert.Equal(t, model.LanguageEnglish, req.Language)
	assert.Contains(t, req.Text, "Idea: Freedom is an illusion")
	assert.Contains(t, req.Text, model.Phases[0].QuestionIn(model.LanguageEnglish))
	assert.Contains(t, req.Text, "Answer: Choice is a story we tell")
}

func TestGuide_Guards(t *testing.T) {
	g := NewGuide(&fakeAnalyzer{}, staticCreds{}, nil)

	_, err := g.Answer(context.Background(), "answer")
	assert.ErrorIs(t, err, ErrNotStarted)
	_, _, err = g.Current()
	assert.ErrorIs(t, err, ErrNotStarted)

	assert.ErrorIs(t, g.Start("  "), ErrEmptyIdea)
	require.NoError(t, g.Start("idea"))
	assert.ErrorIs(t, g.Start("another idea"), ErrSessionStarted)

	_, err = g.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
	done, _ := g.Progress()
	assert.Equal(t, 0, done)

	_, err = g.Answer(context.Background(), "answer")
	require.NoError(t, err)

	require.NoError(t, g.Reset())
	assert.Empty(t, g.Snapshot().Idea)
	assert.Empty(t, g.Snapshot().Analyses)
	require.NoError(t, g.Start("another idea"))
	index, _, err := g.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, index)
}

func TestGuide_BusyWhileInFlight(t *testing.T) {
	fa := &fakeAnalyzer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	g := NewGuide(fa, staticCreds{}, nil)
	require.NoError(t, g.Start("idea"))

	done := make(chan error, 1)
	go func() {
		_, err := g.Answer(context.Background(), "first")
		done <- err
	}()

	select {
	case <-fa.started:
	case <-time.After(time.Second):
		t.Fatal("answer analysis did not start")
	}

	_, err := g.Answer(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, g.Reset(), ErrBusy)
	assert.True(t, g.Snapshot().InFlight)

	close(fa.release)
	require.NoError(t, <-done)
	assert.False(t, g.Snapshot().InFlight)
	done2, _ := g.Progress()
	assert.Equal(t, 1, done2)
}

func TestGuide_CancelledAnswerKeepsPhase(t *testing.T) {
	fa := &fakeAnalyzer{release: make(chan struct{})}
	g := NewGuide(fa, staticCreds{}, nil)
	require.NoError(t, g.Start("idea"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := g.Answer(ctx, "answer")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	index, _, err := g.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, index)
	assert.False(t, g.Snapshot().InFlight)
}

func TestGuide_CredentialError(t *testing.T) {
	g := NewGuide(&fakeAnalyzer{}, failingCreds{}, nil)
	require.NoError(t, g.Start("idea"))

	_, err := g.Answer(context.Background(), "answer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load credentials")
	assert.False(t, g.Snapshot().InFlight)
}

func TestGuide_SnapshotIsACopy(t *testing.T) {
	g := NewGuide(&fakeAnalyzer{}, staticCreds{}, nil)
	require.NoError(t, g.Start("idea"))
	_, err := g.Answer(context.Background(), "answer")
	require.NoError(t, err)

	snap := g.Snapshot()
	snap.Analyses[0].Perspectives[0] = "changed"

	assert.NotEqual(t, "changed", g.Snapshot().Analyses[0].Perspectives[0])
}
