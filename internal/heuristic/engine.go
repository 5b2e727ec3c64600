// internal/heuristic/engine.go
package heuristic

import (
	"fmt"

	"github.com/Corphon/ContinuityGuard/internal/models"
	"github.com/Corphon/ContinuityGuard/internal/utils"
)

// Engine is the deterministic script analyzer. It is safe for concurrent
// use as long as its Randomizer is.
type Engine struct {
	rules     Rules
	random    Randomizer
	logger    *utils.Logger
	segmenter *Segmenter
	estimator *Estimator
	annotator *Annotator
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the built-in tables.
func WithRules(rules Rules) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithRandomizer replaces the process random source.
func WithRandomizer(random Randomizer) Option {
	return func(e *Engine) { e.random = random }
}

// WithLogger sets the logger used for codec warnings.
func WithLogger(logger *utils.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New builds an Engine, validating its tables.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		rules:  DefaultRules(),
		random: NewRandomizer(),
		logger: utils.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.rules.normalize()
	if err := e.rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid heuristic rules: %w", err)
	}

	e.segmenter = NewSegmenter(e.rules)
	e.estimator = NewEstimator(e.rules, e.random, e.logger)
	e.annotator = NewAnnotator(e.rules)
	return e, nil
}

// Rules returns the active tables.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Analyze never fails: every input, including the empty string, yields a
// complete result.
func (e *Engine) Analyze(text string, mode models.BudgetMode) *models.AnalysisResult {
	stubs := e.segmenter.Segment(text)

	scenes := make([]models.Scene, 0, len(stubs))
	costed := make([]models.Scene, 0, len(stubs))
	for _, stub := range stubs {
		scene := e.costScene(stub)
		scenes = append(scenes, scene)
		if stub.Kind != StubNoScenes {
			costed = append(costed, scene)
		}
	}

	notes := e.annotator.Annotate(text, RefsFor(stubs), models.ParseBudgetMode(string(mode)))
	return e.assemble(scenes, costed, notes)
}

// Recompute rebuilds the rollup of an externally produced result, such as an
// LLM answer that omitted it.
func (e *Engine) Recompute(result *models.AnalysisResult) {
	if result == nil {
		return
	}
	result.OverallBudgetBreakdown = Rollup(result.Scenes, e.logger)
}

func (e *Engine) costScene(stub SceneStub) models.Scene {
	estimate := e.estimator.Estimate(stub)

	if stub.Kind == StubNoScenes {
		return models.Scene{
			ID:               stub.ID(),
			Header:           stub.Header,
			Summary:          noScenesSummary,
			Location:         stub.Location,
			Time:             stub.Time,
			EstimatedCost:    FormatLakhs(0),
			ExpenseBreakdown: estimate.Breakdown,
		}
	}

	return models.Scene{
		ID:               stub.ID(),
		Header:           stub.Header,
		Summary:          Summary(stub.Location, estimate.Tier),
		Location:         stub.Location,
		Time:             stub.Time,
		EstimatedCost:    FormatLakhs(estimate.Total),
		BudgetCode:       models.BudgetCode(estimate.Total),
		ExpenseBreakdown: estimate.Breakdown,
	}
}
