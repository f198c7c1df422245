package sentiment

import (
	"context"
	"math"
	"regexp"
	"strings"
)

const polarityVersion = "polarity-v1.0"

// polarityEntry pairs a word's polarity with its subjectivity.
type polarityEntry struct {
	polarity     float64 // [-1, 1]
	subjectivity float64 // [0, 1]
}

// PolarityScorer estimates polarity and subjectivity from a pattern
// lexicon. Polarity drives the label, subjectivity is reported alongside.
type PolarityScorer struct {
	entries      map[string]polarityEntry
	intensifiers map[string]float64
	negations    map[string]bool
	cleaner      *regexp.Regexp
}

// NewPolarityScorer creates a polarity scorer with the built-in lexicon.
func NewPolarityScorer() *PolarityScorer {
	return &PolarityScorer{
		entries:      defaultPolarityEntries(),
		intensifiers: defaultIntensifiers(),
		negations:    defaultNegations(),
		cleaner:      regexp.MustCompile(`[^a-zA-Z'\s]+`),
	}
}

// Name implements Scorer
func (s *PolarityScorer) Name() string { return "polarity" }

// Version implements Scorer
func (s *PolarityScorer) Version() string { return polarityVersion }

// Score implements Scorer. The label is derived from average polarity
// with a ±0.1 neutral band, matching the documented hybrid contract.
func (s *PolarityScorer) Score(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewInputError("text must not be empty")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	cleaned := strings.ToLower(s.cleaner.ReplaceAllString(text, " "))
	tokens := strings.Fields(cleaned)

	var polaritySum, subjectivitySum float64
	matched := 0

	for i, word := range tokens {
		entry, ok := s.entries[word]
		if !ok {
			continue
		}

		polarity := entry.polarity

		if i > 0 {
			if mult, ok := s.intensifiers[tokens[i-1]]; ok {
				polarity *= mult
			}
		}

		for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
			if s.negations[tokens[j]] {
				polarity *= -0.5
				break
			}
		}

		polaritySum += clamp(polarity, -1, 1)
		subjectivitySum += entry.subjectivity
		matched++
	}

	var polarity, subjectivity float64
	if matched > 0 {
		polarity = polaritySum / float64(matched)
		subjectivity = subjectivitySum / float64(matched)
	}

	label := LabelNeutral
	switch {
	case polarity > 0.1:
		label = LabelPositive
	case polarity < -0.1:
		label = LabelNegative
	}

	// Proportions derived directly from polarity; they sum to 1.0.
	scores := Scores{
		Positive: math.Max(polarity, 0),
		Negative: math.Max(-polarity, 0),
		Neutral:  1 - math.Abs(polarity),
	}

	confidence := 0.5 + math.Abs(polarity)/2

	return &Result{
		Label:        label,
		Confidence:   confidence,
		Scores:       scores,
		Subjectivity: subjectivity,
		Method:       s.Name(),
		Version:      s.Version(),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func defaultIntensifiers() map[string]float64 {
	return map[string]float64{
		"very": 1.3, "really": 1.3, "extremely": 1.5, "incredibly": 1.5,
		"absolutely": 1.4, "so": 1.2, "too": 1.2, "quite": 1.1,
		"slightly": 0.6, "somewhat": 0.7, "barely": 0.4, "hardly": 0.4,
		"fairly": 0.9, "pretty": 1.1,
	}
}

func defaultPolarityEntries() map[string]polarityEntry {
	return map[string]polarityEntry{
		"amazing":        {0.6, 0.9},
		"awesome":        {1.0, 1.0},
		"excellent":      {1.0, 1.0},
		"fantastic":      {0.4, 0.9},
		"great":          {0.8, 0.75},
		"good":           {0.7, 0.6},
		"wonderful":      {1.0, 1.0},
		"perfect":        {1.0, 1.0},
		"best":           {1.0, 0.3},
		"delicious":      {1.0, 1.0},
		"tasty":          {0.75, 0.9},
		"fresh":          {0.3, 0.5},
		"friendly":       {0.375, 0.6},
		"nice":           {0.6, 1.0},
		"happy":          {0.8, 1.0},
		"pleasant":       {0.6, 0.9},
		"outstanding":    {0.9, 0.9},
		"superb":         {0.9, 0.9},
		"lovely":         {0.7, 0.9},
		"beautiful":      {0.85, 1.0},
		"authentic":      {0.3, 0.4},
		"cozy":           {0.5, 0.7},
		"charming":       {0.6, 0.8},
		"attentive":      {0.4, 0.5},
		"clean":          {0.4, 0.4},
		"quick":          {0.3, 0.4},
		"generous":       {0.5, 0.6},
		"affordable":     {0.4, 0.5},
		"reasonable":     {0.3, 0.4},
		"worth":          {0.3, 0.3},
		"recommend":      {0.4, 0.4},
		"satisfying":     {0.5, 0.6},
		"awful":          {-1.0, 1.0},
		"terrible":       {-1.0, 1.0},
		"horrible":       {-1.0, 1.0},
		"bad":            {-0.7, 0.67},
		"worst":          {-1.0, 1.0},
		"disgusting":     {-0.9, 1.0},
		"bland":          {-0.55, 0.7},
		"stale":          {-0.5, 0.6},
		"soggy":          {-0.5, 0.6},
		"greasy":         {-0.4, 0.5},
		"disappointing":  {-0.6, 0.7},
		"disappointed":   {-0.6, 0.7},
		"mediocre":       {-0.35, 0.6},
		"overpriced":     {-0.6, 0.7},
		"expensive":      {-0.3, 0.5},
		"slow":           {-0.3, 0.4},
		"rude":           {-0.8, 0.9},
		"dirty":          {-0.6, 0.7},
		"filthy":         {-0.9, 0.9},
		"noisy":          {-0.4, 0.5},
		"cold":           {-0.3, 0.4},
		"undercooked":    {-0.7, 0.7},
		"overcooked":     {-0.6, 0.7},
		"burnt":          {-0.6, 0.6},
		"tasteless":      {-0.7, 0.8},
		"inedible":       {-1.0, 1.0},
		"poor":           {-0.6, 0.6},
		"lousy":          {-0.7, 0.8},
		"nasty":          {-0.8, 0.9},
		"unacceptable":   {-0.8, 0.8},
		"dry":            {-0.4, 0.5},
		"ruined":         {-0.8, 0.8},
		"unfriendly":     {-0.6, 0.7},
		"unprofessional": {-0.7, 0.8},
		"avoid":          {-0.6, 0.5},
		"hate":           {-0.8, 0.9},
		"love":           {0.5, 0.6},
		"loved":          {0.7, 0.8},
		"enjoy":          {0.4, 0.5},
		"enjoyed":        {0.5, 0.6},
	}
}
