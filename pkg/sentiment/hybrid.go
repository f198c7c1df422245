package sentiment

import (
	"context"
	"strings"
	"sync"

	"github.com/restaurantlens/restaurantlens/pkg/logger"
)

const hybridVersion = "hybrid-v1.0"

// Blend weights for the hybrid classifier. When a method is unavailable
// the remaining weights are renormalized so the blend stays a weighted
// average.
const (
	WeightLexicon     = 0.40
	WeightPolarity    = 0.30
	WeightTransformer = 0.30
)

// HybridScorer blends the lexicon, polarity and transformer methods into
// a single classification:
//
//   - confidence: weighted average of the per-method confidences
//   - label: majority vote, blended-proportion argmax on ties
//   - consensus: when every available method agrees, the confidence is
//     floored at the lowest agreeing confidence
type HybridScorer struct {
	scorers []Scorer
	weights map[string]float64
	logger  *logger.Logger
}

// HybridOption customizes a hybrid scorer.
type HybridOption func(*HybridScorer)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(log *logger.Logger) HybridOption {
	return func(h *HybridScorer) {
		h.logger = log
	}
}

// WithWeights overrides the default method weights.
func WithWeights(weights map[string]float64) HybridOption {
	return func(h *HybridScorer) {
		h.weights = weights
	}
}

// NewHybridScorer creates a hybrid scorer over the given methods.
// A typical setup passes the lexicon, polarity and transformer scorers.
func NewHybridScorer(scorers []Scorer, opts ...HybridOption) *HybridScorer {
	h := &HybridScorer{
		scorers: scorers,
		weights: map[string]float64{
			"lexicon":     WeightLexicon,
			"polarity":    WeightPolarity,
			"transformer": WeightTransformer,
		},
		logger: logger.GetDefault(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// NewDefaultHybridScorer wires the three standard methods. The
// transformer client is optional; pass nil config to use defaults.
func NewDefaultHybridScorer(transformerConfig *TransformerConfig, opts ...HybridOption) (*HybridScorer, error) {
	transformer, err := NewTransformerScorer(transformerConfig)
	if err != nil {
		return nil, err
	}

	return NewHybridScorer([]Scorer{
		NewLexiconScorer(),
		NewPolarityScorer(),
		transformer,
	}, opts...), nil
}

// Name implements Scorer
func (h *HybridScorer) Name() string { return "hybrid" }

// Version implements Scorer
func (h *HybridScorer) Version() string { return hybridVersion }

type scorerOutcome struct {
	name   string
	result *Result
	err    error
}

// Score runs every method concurrently and blends the outcomes.
// Unavailable methods are dropped with a warning; the call only fails
// when no method produced a result or the input itself is invalid.
func (h *HybridScorer) Score(ctx context.Context, text string) (*Result, error) {
	hr, err := h.ScoreHybrid(ctx, text)
	if err != nil {
		return nil, err
	}
	return &hr.Result, nil
}

// ScoreHybrid returns the blended result along with per-method components.
func (h *HybridScorer) ScoreHybrid(ctx context.Context, text string) (*HybridResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewInputError("text must not be empty")
	}

	outcomes := make([]scorerOutcome, len(h.scorers))
	var wg sync.WaitGroup
	for i, scorer := range h.scorers {
		wg.Add(1)
		go func(i int, scorer Scorer) {
			defer wg.Done()
			result, err := scorer.Score(ctx, text)
			outcomes[i] = scorerOutcome{name: scorer.Name(), result: result, err: err}
		}(i, scorer)
	}
	wg.Wait()

	components := make(map[string]*Result, len(outcomes))
	var available []scorerOutcome
	var lastErr error

	for _, out := range outcomes {
		if out.err != nil {
			lastErr = out.err
			if IsUnavailable(out.err) {
				h.logger.Warn("sentiment method unavailable, degrading blend: method=%s err=%v", out.name, out.err)
				continue
			}
			return nil, out.err
		}
		components[out.name] = out.result
		available = append(available, out)
	}

	if len(available) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, NewUnavailableError("no sentiment method available", "check service configuration", nil)
	}

	var weightSum float64
	for _, out := range available {
		weightSum += h.weightFor(out.name)
	}

	var confidence float64
	var scores Scores
	for _, out := range available {
		w := h.weightFor(out.name) / weightSum
		confidence += w * out.result.Confidence
		scores.Positive += w * out.result.Scores.Positive
		scores.Negative += w * out.result.Scores.Negative
		scores.Neutral += w * out.result.Scores.Neutral
	}

	label := h.vote(available, scores)

	consensus := true
	minAgreeing := 1.0
	for _, out := range available {
		if out.result.Label != label {
			consensus = false
			break
		}
		if out.result.Confidence < minAgreeing {
			minAgreeing = out.result.Confidence
		}
	}

	// Consensus floor: full agreement never yields a confidence below
	// the weakest agreeing method.
	if consensus && confidence < minAgreeing {
		confidence = minAgreeing
	}

	return &HybridResult{
		Result: Result{
			Label:      label,
			Confidence: confidence,
			Scores:     scores,
			Method:     h.Name(),
			Version:    h.Version(),
		},
		Components: components,
		Consensus:  consensus,
	}, nil
}

func (h *HybridScorer) weightFor(name string) float64 {
	if w, ok := h.weights[name]; ok && w > 0 {
		return w
	}
	return 0.1
}

// vote picks the majority label, falling back to the blended-proportion
// argmax on ties.
func (h *HybridScorer) vote(available []scorerOutcome, blended Scores) Label {
	counts := make(map[Label]int)
	for _, out := range available {
		counts[out.result.Label]++
	}

	best := LabelNeutral
	bestCount := 0
	tied := false
	for label, count := range counts {
		if count > bestCount {
			best = label
			bestCount = count
			tied = false
		} else if count == bestCount {
			tied = true
		}
	}

	if tied {
		return blended.Argmax()
	}
	return best
}
