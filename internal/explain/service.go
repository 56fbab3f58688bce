// Package explain produces the one-time AI explanation of a stored solution.
package explain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/lchelper/lchelper/internal/llm"
	"github.com/lchelper/lchelper/internal/store"
)

// Generator creates and caches explanations. A problem gets at most one
// explanation; later calls return the stored one unless forced.
type Generator struct {
	provider     llm.Provider
	problems     store.ProblemRepo
	explanations store.ExplanationRepo
	cfg          Config
	log          zerolog.Logger

	flight singleflight.Group // keyed by problem id
	wg     sync.WaitGroup
}

// NewGenerator returns a generator. A nil provider disables generation but
// still serves stored explanations.
func NewGenerator(provider llm.Provider, problems store.ProblemRepo, explanations store.ExplanationRepo, cfg Config, log zerolog.Logger) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Generator{
		provider:     provider,
		problems:     problems,
		explanations: explanations,
		cfg:          cfg,
		log:          log,
	}
}

// Enabled reports whether a provider is configured.
func (g *Generator) Enabled() bool {
	return g.provider != nil
}

// Explain returns the explanation for slug, generating it when none is
// stored or force is set. cached is true when nothing was generated.
func (g *Generator) Explain(ctx context.Context, slug string, force bool) (exp *store.ExplanationData, cached bool, err error) {
	p, err := g.problems.GetProblem(ctx, slug)
	if err != nil {
		return nil, false, err
	}
	return g.explainProblem(ctx, p, force)
}

type explainResult struct {
	exp    *store.ExplanationData
	cached bool
}

// explainProblem runs at most one lookup-or-generate per problem at a time.
// Callers arriving while one is running share its result. The shared work
// is bounded by the configured timeout, not by the first caller's context.
func (g *Generator) explainProblem(ctx context.Context, p *store.ProblemData, force bool) (*store.ExplanationData, bool, error) {
	ch := g.flight.DoChan(strconv.FormatInt(p.ID, 10), func() (any, error) {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.Timeout)
		defer cancel()
		exp, cached, err := g.lookupOrGenerate(wctx, p, force)
		return explainResult{exp: exp, cached: cached}, err
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		r := res.Val.(explainResult)
		return r.exp, r.cached, nil
	}
}

func (g *Generator) lookupOrGenerate(ctx context.Context, p *store.ProblemData, force bool) (*store.ExplanationData, bool, error) {
	if !force {
		existing, err := g.explanations.GetExplanation(ctx, p.ID)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, err
		}
	}

	sol, err := g.problems.GetSolution(ctx, p.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, ErrNoSolution
	}
	if err != nil {
		return nil, false, err
	}
	if g.provider == nil {
		return nil, false, ErrDisabled
	}

	exp, err := g.Generate(ctx, Input{
		Title:      p.Title,
		Difficulty: p.Difficulty,
		Language:   sol.Language,
		Code:       sol.Code,
	})
	if err != nil {
		return nil, false, err
	}
	exp.ProblemID = p.ID

	if err := g.explanations.SaveExplanation(ctx, *exp); err != nil {
		return nil, false, fmt.Errorf("save explanation: %w", err)
	}
	stored, err := g.explanations.GetExplanation(ctx, p.ID)
	if err != nil {
		return nil, false, err
	}
	g.log.Info().Str("slug", p.Slug).Str("approach", exp.ApproachTag).Msg("explanation generated")
	return stored, false, nil
}

// Generate asks the model for an explanation without touching the store.
func (g *Generator) Generate(ctx context.Context, in Input) (*store.ExplanationData, error) {
	if g.provider == nil {
		return nil, ErrDisabled
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeExplain)

	req := llm.UserPrompt(systemPrompt, buildUserMessage(in))
	req.Schema = ExplanationSchema
	req.MaxTokens = g.cfg.MaxTokens
	req.Temperature = g.cfg.Temperature

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("explanation generation: %w", err)
	}

	var out explanationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse explanation response: %w", err)
	}

	steps := make([]string, 0, len(out.ExplanationSteps))
	for _, s := range out.ExplanationSteps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}

	model := resp.Model
	if model == "" {
		model = g.provider.ModelID()
	}
	return &store.ExplanationData{
		ApproachTag:      out.ApproachTag,
		CoreIdea:         out.CoreIdea,
		ExplanationSteps: steps,
		TimeComplexity:   out.Complexity.Time,
		SpaceComplexity:  out.Complexity.Space,
		KeyInsight:       out.KeyInsight,
		CommonPitfall:    out.CommonPitfall,
		DifficultyRating: out.DifficultyRating,
		Roast:            strings.TrimSpace(out.Roast),
		Model:            model,
	}, nil
}

// RequestAsync generates the explanation for p in the background if none
// exists. It shares work with any Explain call running for the same
// problem. Failures are logged; the caller never waits.
func (g *Generator) RequestAsync(p store.ProblemData) {
	if g.provider == nil {
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		if _, _, err := g.explainProblem(context.Background(), &p, false); err != nil {
			g.log.Warn().Err(err).Str("slug", p.Slug).Msg("background explanation failed")
		}
	}()
}

// Wait blocks until background requests finish.
func (g *Generator) Wait() {
	g.wg.Wait()
}
