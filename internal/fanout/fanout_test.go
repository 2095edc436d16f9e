package fanout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ppiankov/weitblick/internal/cache"
	"github.com/ppiankov/weitblick/internal/llm"
	"github.com/ppiankov/weitblick/internal/model"
	"github.com/ppiankov/weitblick/internal/prompt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

// fakeProvider answers from a function and counts calls
type fakeProvider struct {
	id    model.ProviderID
	calls int32
	fn    func(ctx context.Context, prompt, credential string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (f *fakeProvider) Name() model.ProviderID { return f.id }

func (f *fakeProvider) Complete(ctx context.Context, prompt, credential string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.fn(ctx, prompt, credential)
}

func answer(text string) func(context.Context, string, string) (string, error) {
	return func(context.Context, string, string) (string, error) { return text, nil }
}

func fail(err error) func(context.Context, string, string) (string, error) {
	return func(context.Context, string, string) (string, error) { return "", err }
}

func hang() func(context.Context, string, string) (string, error) {
	return func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
}

func newFakes(fns map[model.ProviderID]func(context.Context, string, string) (string, error)) (map[model.ProviderID]llm.Provider, map[model.ProviderID]*fakeProvider) {
	providers := make(map[model.ProviderID]llm.Provider)
	fakes := make(map[model.ProviderID]*fakeProvider)
	for _, id := range model.AllProviders {
		fn, ok := fns[id]
		if !ok {
			fn = answer(string(id) + " answer")
		}
		f := &fakeProvider{id: id, fn: fn}
		providers[id] = f
		fakes[id] = f
	}
	return providers, fakes
}

func allCreds() model.Credentials {
	return model.Credentials{
		model.ProviderGemini:    "g-key",
		model.ProviderOpenAI:    "o-key",
		model.ProviderAnthropic: "a-key",
		model.ProviderDeepSeek:  "d-key",
	}
}

func kantRequest() Request {
	return Request{
		Text:     "Bewusstsein ist relational",
		Persona:  string(model.PerspectiveKant),
		Level:    model.LevelBasic,
		Language: model.LanguageGerman,
	}
}

func TestAnalyzeWithAll_NoCredentials(t *testing.T) {
	providers, fakes := newFakes(nil)
	o := New(providers, model.DefaultConfig(), nil, nil)

	results, err := o.AnalyzeWithAll(context.Background(), kantRequest(), model.Credentials{
		model.ProviderGemini: "   ",
	})
	require.NoError(t, err)
	assert.Empty(t, results)

	for id, f := range fakes {
		assert.Zero(t, atomic.LoadInt32(&f.calls), "provider %s was called", id)
	}

	_, _, ok := results.First()
	assert.False(t, ok)
}

func TestAnalyzeWithAll_PartialFailure(t *testing.T) {
	providers, _ := newFakes(map[model.ProviderID]func(context.Context, string, string) (string, error){
		model.ProviderGemini: fail(&llm.HTTPError{Provider: model.ProviderGemini, Status: 500}),
		model.ProviderOpenAI: answer(llm.Unavailable),
	})
	o := New(providers, model.DefaultConfig(), nil, nil)

	results, err := o.AnalyzeWithAll(context.Background(), kantRequest(), allCreds())
	require.NoError(t, err)
	require.Len(t, results, 4)

	gemini := results[model.ProviderGemini]
	require.Error(t, gemini.Err)
	var httpErr *llm.HTTPError
	assert.True(t, errors.As(gemini.Err, &httpErr))
	assert.Equal(t, "Analyse mit Google Gemini fehlgeschlagen: gemini API error: 500", gemini.Text)

	assert.NoError(t, results[model.ProviderOpenAI].Err)
	assert.False(t, results[model.ProviderOpenAI].Usable())

	id, text, ok := results.First()
	require.True(t, ok)
	assert.Equal(t, model.ProviderAnthropic, id)
	assert.Equal(t, "anthropic answer", text)
	assert.Equal(t, []model.ProviderID{model.ProviderAnthropic, model.ProviderDeepSeek}, results.Usable())
}

func TestAnalyzeWithAll_OnlyConfiguredProviders(t *testing.T) {
	providers, fakes := newFakes(nil)
	o := New(providers, model.DefaultConfig(), nil, nil)

	results, err := o.AnalyzeWithAll(context.Background(), kantRequest(), model.Credentials{
		model.ProviderDeepSeek: "d-key",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results, model.ProviderDeepSeek)
	assert.Zero(t, atomic.LoadInt32(&fakes[model.ProviderGemini].calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fakes[model.ProviderDeepSeek].calls))
}

func TestAnalyzeWithAll_EnglishFailureText(t *testing.T) {
	providers, _ := newFakes(map[model.ProviderID]func(context.Context, string, string) (string, error){
		model.ProviderOpenAI: fail(errors.New("boom")),
	})
	o := New(providers, model.DefaultConfig(), nil, nil)

	req := kantRequest()
	req.Language = model.LanguageEnglish

	results, err := o.AnalyzeWithAll(context.Background(), req, model.Credentials{model.ProviderOpenAI: "k"})
	require.NoError(t, err)
	assert.Equal(t, "Analysis with OpenAI ChatGPT failed: boom", results[model.ProviderOpenAI].Text)
}

func TestAnalyzeWithAll_TimeoutBoundsHungProvider(t *testing.T) {
	providers, _ := newFakes(map[model.ProviderID]func(context.Context, string, string) (string, error){
		model.ProviderAnthropic: hang(),
	})
	cfg := model.DefaultConfig()
	cfg.Analysis.Timeout = 100 * time.Millisecond
	o := New(providers, cfg, nil, nil)

	start := time.Now()
	results, err := o.AnalyzeWithAll(context.Background(), kantRequest(), allCreds())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, results, 4)
	assert.ErrorIs(t, results[model.ProviderAnthropic].Err, context.DeadlineExceeded)
	assert.True(t, results[model.ProviderGemini].Usable())
	assert.True(t, results[model.ProviderDeepSeek].Usable())
}

func TestAnalyzeWithAll_CallerCancellation(t *testing.T) {
	providers, _ := newFakes(map[model.ProviderID]func(context.Context, string, string) (string, error){
		model.ProviderGemini:    hang(),
		model.ProviderOpenAI:    hang(),
		model.ProviderAnthropic: hang(),
		model.ProviderDeepSeek:  hang(),
	})
	cfg := model.DefaultConfig()
	cfg.Analysis.Concurrency = 1
	o := New(providers, cfg, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	results, err := o.AnalyzeWithAll(ctx, kantRequest(), allCreds())
	require.NoError(t, err)
	require.Len(t, results, 4)
	for id, out := range results {
		assert.Error(t, out.Err, "provider %s", id)
	}
}

func TestAnalyzeWithAll_PromptBuildError(t *testing.T) {
	providers, fakes := newFakes(nil)
	o := New(providers, model.DefaultConfig(), nil, nil)

	req := kantRequest()
	req.Persona = "Sokrates"

	_, err := o.AnalyzeWithAll(context.Background(), req, allCreds())
	require.Error(t, err)
	assert.ErrorIs(t, err, prompt.ErrUnknownPersona)
	for _, f := range fakes {
		assert.Zero(t, atomic.LoadInt32(&f.calls))
	}
}

func TestAnalyzeWithAll_SamePromptForAll(t *testing.T) {
	providers, fakes := newFakes(nil)
	o := New(providers, model.DefaultConfig(), nil, nil)

	_, err := o.AnalyzeWithAll(context.Background(), kantRequest(), allCreds())
	require.NoError(t, err)

	want, err := BuildPrompt(kantRequest())
	require.NoError(t, err)
	for id, f := range fakes {
		require.Len(t, f.prompts, 1, "provider %s", id)
		assert.Equal(t, want, f.prompts[0])
	}
}

func TestAnalyzeWithAll_DiscourseRequest(t *testing.T) {
	providers, fakes := newFakes(nil)
	o := New(providers, model.DefaultConfig(), nil, nil)

	req := kantRequest()
	req.Persona = prompt.TaskDiscourse
	req.Perspectives = model.AllPerspectives

	_, err := o.AnalyzeWithAll(context.Background(), req, model.Credentials{model.ProviderGemini: "k"})
	require.NoError(t, err)
	require.Len(t, fakes[model.ProviderGemini].prompts, 1)
	assert.True(t, strings.Contains(fakes[model.ProviderGemini].prompts[0], "NAGARJUNA:"))
}

func TestAnalyzeWithAll_CacheSkipsSecondCall(t *testing.T) {
	providers, fakes := newFakes(map[model.ProviderID]func(context.Context, string, string) (string, error){
		model.ProviderOpenAI: answer(llm.Unavailable),
	})
	c := cache.NewMemoryCache(time.Hour, time.Hour)
	o := New(providers, model.DefaultConfig(), c, nil)

	creds := model.Credentials{model.ProviderGemini: "g", model.ProviderOpenAI: "o"}

	first, err := o.AnalyzeWithAll(context.Background(), kantRequest(), creds)
	require.NoError(t, err)
	assert.False(t, first[model.ProviderGemini].Cached)

	second, err := o.AnalyzeWithAll(context.Background(), kantRequest(), creds)
	require.NoError(t, err)
	assert.True(t, second[model.ProviderGemini].Cached)
	assert.Equal(t, first[model.ProviderGemini].Text, second[model.ProviderGemini].Text)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fakes[model.ProviderGemini].calls))
	// Placeholders are never cached
	assert.Equal(t, int32(2), atomic.LoadInt32(&fakes[model.ProviderOpenAI].calls))
}

func TestInvalidate_ForcesFreshCall(t *testing.T) {
	providers, fakes := newFakes(nil)
	c := cache.NewMemoryCache(time.Hour, time.Hour)
	o := New(providers, model.DefaultConfig(), c, nil)
	creds := model.Credentials{model.ProviderGemini: "g"}

	_, err := o.AnalyzeWithAll(context.Background(), kantRequest(), creds)
	require.NoError(t, err)

	other := kantRequest()
	other.Persona = string(model.PerspectiveHegel)
	_, err = o.AnalyzeWithAll(context.Background(), other, creds)
	require.NoError(t, err)

	require.NoError(t, o.Invalidate(kantRequest()))

	again, err := o.AnalyzeWithAll(context.Background(), kantRequest(), creds)
	require.NoError(t, err)
	assert.False(t, again[model.ProviderGemini].Cached)

	// Other prompts keep their entries
	cached, err := o.AnalyzeWithAll(context.Background(), other, creds)
	require.NoError(t, err)
	assert.True(t, cached[model.ProviderGemini].Cached)

	assert.Equal(t, int32(3), atomic.LoadInt32(&fakes[model.ProviderGemini].calls))
}

func TestInvalidate_WithoutCache(t *testing.T) {
	providers, _ := newFakes(nil)
	o := New(providers, model.DefaultConfig(), nil, nil)

	assert.NoError(t, o.Invalidate(kantRequest()))

	bad := kantRequest()
	bad.Persona = "Sokrates"
	assert.NoError(t, o.Invalidate(bad))

	c := cache.NewMemoryCache(time.Hour, time.Hour)
	o = New(providers, model.DefaultConfig(), c, nil)
	var buildErr *prompt.BuildError
	assert.ErrorAs(t, o.Invalidate(bad), &buildErr)
}

func TestAnalyzeWithAll_UnregisteredProvider(t *testing.T) {
	o := New(map[model.ProviderID]llm.Provider{}, model.DefaultConfig(), nil, nil)

	results, err := o.AnalyzeWithAll(context.Background(), kantRequest(), model.Credentials{model.ProviderGemini: "k"})
	require.NoError(t, err)
	assert.ErrorIs(t, results[model.ProviderGemini].Err, ErrProviderNotRegistered)
}

func TestResults_First_Order(t *testing.T) {
	r := Results{
		model.ProviderDeepSeek:  {Text: "d"},
		model.ProviderAnthropic: {Text: "a"},
		model.ProviderGemini:    {Text: "g", Err: errors.New("x")},
	}
	id, text, ok := r.First()
	require.True(t, ok)
	assert.Equal(t, model.ProviderAnthropic, id)
	assert.Equal(t, "a", text)
}
