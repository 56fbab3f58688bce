package explain

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lchelper/lchelper/internal/llm"
	"github.com/lchelper/lchelper/internal/store"
)

const validExplanation = `{
	"approach_tag": "Two Pointers",
	"core_idea": "Move the pointer at the smaller height inward.",
	"explanation_steps": ["Start l at 0 and r at n-1", "  ", "Track the best area in res"],
	"complexity": {"time": "O(n)", "space": "O(1)"},
	"key_insight": "The shorter wall bounds every area that uses it.",
	"common_pitfall": "Moving the taller pointer.",
	"difficulty_rating": "Medium",
	"roast": ""
}`

type fixture struct {
	store *store.Store
	mock  *llm.MockProvider
	gen   *Generator
	prob  store.ProblemData
}

func setup(t *testing.T, withSolution bool) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "explain.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	id, _, err := s.ProblemRepo().UpsertProblem(ctx, store.ProblemData{
		Slug: "container-with-most-water", Title: "Container With Most Water", Difficulty: store.DifficultyMedium,
	})
	require.NoError(t, err)
	if withSolution {
		require.NoError(t, s.ProblemRepo().UpsertSolution(ctx, store.SolutionData{
			ProblemID: id, Code: "def maxArea(h):\n    l, r = 0, len(h)-1\n", Language: "Python",
		}))
	}
	p, err := s.ProblemRepo().GetProblemByID(ctx, id)
	require.NoError(t, err)

	mock := llm.NewMockProvider()
	gen := NewGenerator(mock, s.ProblemRepo(), s.ExplanationRepo(), DefaultConfig(), zerolog.Nop())
	return &fixture{store: s, mock: mock, gen: gen, prob: *p}
}

func TestExplain_GeneratesAndStores(t *testing.T) {
	f := setup(t, true)
	f.mock.Push(llm.MockResponse{Content: json.RawMessage(validExplanation)})

	exp, cached, err := f.gen.Explain(context.Background(), f.prob.Slug, false)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "Two Pointers", exp.ApproachTag)
	assert.Equal(t, []string{"Start l at 0 and r at n-1", "Track the best area in res"}, exp.ExplanationSteps)
	assert.Equal(t, "O(n)", exp.TimeComplexity)
	assert.Equal(t, "", exp.Roast)
	assert.Equal(t, "mock", exp.Model)

	calls := f.mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 0.2, calls[0].Temperature)
	assert.Same(t, ExplanationSchema, calls[0].Schema)
	assert.Contains(t, calls[0].Messages[0].Content, "Container With Most Water")
	assert.Contains(t, calls[0].Messages[0].Content, "```python")
}

func TestExplain_CachedUnlessForced(t *testing.T) {
	f := setup(t, true)
	f.mock.Push(llm.MockResponse{Content: json.RawMessage(validExplanation)})
	ctx := context.Background()

	_, _, err := f.gen.Explain(ctx, f.prob.Slug, false)
	require.NoError(t, err)

	_, cached, err := f.gen.Explain(ctx, f.prob.Slug, false)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, f.mock.CallCount())

	forced := strings.Replace(validExplanation, "Two Pointers", "Greedy", 1)
	f.mock.Push(llm.MockResponse{Content: json.RawMessage(forced)})
	exp, cached, err := f.gen.Explain(ctx, f.prob.Slug, true)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "Greedy", exp.ApproachTag)
}

func TestExplain_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown problem", func(t *testing.T) {
		f := setup(t, true)
		_, _, err := f.gen.Explain(ctx, "nope", false)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("no solution", func(t *testing.T) {
		f := setup(t, false)
		_, _, err := f.gen.Explain(ctx, f.prob.Slug, false)
		assert.ErrorIs(t, err, ErrNoSolution)
	})

	t.Run("disabled", func(t *testing.T) {
		f := setup(t, true)
		gen := NewGenerator(nil, f.store.ProblemRepo(), f.store.ExplanationRepo(), DefaultConfig(), zerolog.Nop())
		assert.False(t, gen.Enabled())
		_, _, err := gen.Explain(ctx, f.prob.Slug, false)
		assert.ErrorIs(t, err, ErrDisabled)
	})

	t.Run("schema mismatch stores nothing", func(t *testing.T) {
		f := setup(t, true)
		f.mock.Push(llm.MockResponse{Content: json.RawMessage(`{"approach_tag":"x"}`)})
		_, _, err := f.gen.Explain(ctx, f.prob.Slug, false)
		var inv *llm.ErrInvalidResponse
		assert.True(t, errors.As(err, &inv), "got %v", err)

		_, err = f.store.ExplanationRepo().GetExplanation(ctx, f.prob.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("bad difficulty enum", func(t *testing.T) {
		f := setup(t, true)
		bad := strings.Replace(validExplanation, `"Medium"`, `"Brutal"`, 1)
		f.mock.Push(llm.MockResponse{Content: json.RawMessage(bad)})
		_, _, err := f.gen.Explain(ctx, f.prob.Slug, false)
		assert.Error(t, err)
	})
}

func TestRequestAsync(t *testing.T) {
	f := setup(t, true)
	f.mock.Push(llm.MockResponse{Content: json.RawMessage(validExplanation)})

	f.gen.RequestAsync(f.prob)
	f.gen.Wait()

	exp, err := f.store.ExplanationRepo().GetExplanation(context.Background(), f.prob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Two Pointers", exp.ApproachTag)

	// Already explained: the second request hits the cache.
	f.gen.RequestAsync(f.prob)
	f.gen.Wait()
	assert.Equal(t, 1, f.mock.CallCount())
}

// gatedProvider holds every Generate call until release is closed.
type gatedProvider struct {
	inner   *llm.MockProvider
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (p *gatedProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if p.calls.Add(1) == 1 {
		close(p.started)
	}
	<-p.release
	return p.inner.Generate(ctx, req)
}

func (p *gatedProvider) ModelID() string { return p.inner.ModelID() }

func TestExplain_JoinsBackgroundRequest(t *testing.T) {
	f := setup(t, true)
	f.mock.Push(llm.MockResponse{Content: json.RawMessage(validExplanation)})
	gated := &gatedProvider{inner: f.mock, started: make(chan struct{}), release: make(chan struct{})}
	gen := NewGenerator(gated, f.store.ProblemRepo(), f.store.ExplanationRepo(), DefaultConfig(), zerolog.Nop())

	gen.RequestAsync(f.prob)
	<-gated.started

	type result struct {
		exp *store.ExplanationData
		err error
	}
	done := make(chan result, 1)
	go func() {
		exp, _, err := gen.Explain(context.Background(), f.prob.Slug, false)
		done <- result{exp, err}
	}()

	time.Sleep(50 * time.Millisecond)
	close(gated.release)
	gen.Wait()

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "Two Pointers", res.exp.ApproachTag)
	assert.Equal(t, int32(1), gated.calls.Load())
	assert.Equal(t, 1, f.mock.CallCount())
}

func TestRequestAsync_FailureIsLogged(t *testing.T) {
	f := setup(t, true)
	var buf strings.Builder
	gen := NewGenerator(f.mock, f.store.ProblemRepo(), f.store.ExplanationRepo(), DefaultConfig(), zerolog.New(&buf))

	gen.RequestAsync(f.prob) // empty script: provider unavailable
	gen.Wait()
	assert.Contains(t, buf.String(), "background explanation failed")
}

func TestBuildUserMessage(t *testing.T) {
	msg := buildUserMessage(Input{Title: "Two Sum", Language: "Go", Code: "func twoSum() {}\n\n"})
	assert.Contains(t, msg, "Problem: Two Sum")
	assert.Contains(t, msg, "```go\nfunc twoSum() {}\n```")
	assert.NotContains(t, msg, "Listed difficulty")
}
