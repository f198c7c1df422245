package sentiment

import (
	"context"
	"math"
	"regexp"
	"strings"
)

const lexiconVersion = "lexicon-v1.0"

// Valence scaling constants. Raw lexicon values live on a [-4, 4] scale.
const (
	boosterIncrement = 0.293
	negationScalar   = -0.74
	capsEmphasis     = 0.733
	exclamationBoost = 0.292
	maxExclamations  = 4
	negationWindow   = 3
)

// LexiconScorer classifies text with a hand-tuned valence lexicon,
// negation handling and punctuation emphasis. It needs no external
// service and is always available.
type LexiconScorer struct {
	valences  map[string]float64
	boosters  map[string]float64
	negations map[string]bool
	cleaner   *regexp.Regexp
}

// NewLexiconScorer creates a lexicon scorer with the built-in word lists.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{
		valences:  defaultValences(),
		boosters:  defaultBoosters(),
		negations: defaultNegations(),
		cleaner:   regexp.MustCompile(`[^a-zA-Z!'\s]+`),
	}
}

// Name implements Scorer
func (s *LexiconScorer) Name() string { return "lexicon" }

// Version implements Scorer
func (s *LexiconScorer) Version() string { return lexiconVersion }

// Score implements Scorer. The returned proportions always sum to 1.0.
func (s *LexiconScorer) Score(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewInputError("text must not be empty")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	exclamations := strings.Count(text, "!")
	if exclamations > maxExclamations {
		exclamations = maxExclamations
	}

	hasMixedCase := text != strings.ToUpper(text)

	cleaned := s.cleaner.ReplaceAllString(text, " ")
	rawTokens := strings.Fields(cleaned)

	tokens := make([]string, len(rawTokens))
	allCaps := make([]bool, len(rawTokens))
	for i, tok := range rawTokens {
		word := strings.Trim(tok, "!")
		allCaps[i] = word != "" && word == strings.ToUpper(word) && word != strings.ToLower(word)
		tokens[i] = strings.ToLower(word)
	}

	var posSum, negSum float64
	neutralCount := 0

	for i, word := range tokens {
		valence, ok := s.valences[word]
		if !ok {
			if !s.negations[word] {
				if _, isBooster := s.boosters[word]; !isBooster {
					neutralCount++
				}
			}
			continue
		}

		// Booster directly before the word scales its valence.
		// Dampeners carry -1 and pull the valence toward zero.
		if i > 0 {
			if boost, ok := s.boosters[tokens[i-1]]; ok {
				if valence > 0 {
					valence += boost * boosterIncrement
				} else {
					valence -= boost * boosterIncrement
				}
			}
		}

		if allCaps[i] && hasMixedCase {
			if valence > 0 {
				valence += capsEmphasis
			} else {
				valence -= capsEmphasis
			}
		}

		// Negation within the preceding window flips and dampens.
		for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
			if s.negations[tokens[j]] {
				valence *= negationScalar
				break
			}
		}

		if valence > 0 {
			posSum += valence + 1
		} else if valence < 0 {
			negSum += math.Abs(valence) + 1
		} else {
			neutralCount++
		}
	}

	total := posSum + negSum + float64(neutralCount)

	scores := Scores{Neutral: 1}
	if total > 0 {
		scores = Scores{
			Positive: posSum / total,
			Negative: negSum / total,
			Neutral:  float64(neutralCount) / total,
		}
	}

	compound := s.compound(posSum-negSum, exclamations)

	label := LabelNeutral
	switch {
	case compound >= 0.05:
		label = LabelPositive
	case compound <= -0.05:
		label = LabelNegative
	}

	confidence := math.Min(0.5+math.Abs(compound)/2, 1.0)

	return &Result{
		Label:      label,
		Confidence: confidence,
		Scores:     scores,
		Method:     s.Name(),
		Version:    s.Version(),
	}, nil
}

// compound squashes the summed valence onto [-1, 1].
func (s *LexiconScorer) compound(sum float64, exclamations int) float64 {
	if sum > 0 {
		sum += float64(exclamations) * exclamationBoost
	} else if sum < 0 {
		sum -= float64(exclamations) * exclamationBoost
	}
	return sum / math.Sqrt(sum*sum+15)
}

func defaultValences() map[string]float64 {
	return map[string]float64{
		// positive
		"amazing": 2.8, "awesome": 3.1, "excellent": 2.7, "fantastic": 2.6,
		"great": 3.1, "good": 1.9, "wonderful": 2.7, "perfect": 2.7,
		"love": 3.2, "loved": 2.9, "best": 3.2, "delicious": 2.9,
		"tasty": 2.2, "fresh": 1.3, "friendly": 2.2, "nice": 1.8,
		"enjoy": 2.2, "enjoyed": 2.3, "recommend": 1.7, "recommended": 1.8,
		"happy": 2.7, "pleasant": 2.3, "outstanding": 3.0, "superb": 3.0,
		"impressive": 2.3, "favorite": 2.0, "gem": 1.9, "authentic": 1.4,
		"generous": 2.0, "cozy": 1.8, "charming": 2.2, "attentive": 1.9,
		"quick": 1.3, "fast": 1.1, "clean": 1.6, "beautiful": 2.9,
		"incredible": 2.6, "divine": 2.5, "heavenly": 2.9, "crisp": 1.2,
		"flavorful": 2.1, "juicy": 1.5, "satisfying": 2.0, "worth": 1.3,
		"affordable": 1.5, "reasonable": 1.4, "welcoming": 2.1, "polite": 1.9,
		"prompt": 1.4, "fabulous": 2.9, "phenomenal": 3.0, "yummy": 2.4,
		// negative
		"awful": -2.0, "terrible": -2.1, "horrible": -2.5, "bad": -2.5,
		"worst": -3.1, "disgusting": -2.8, "gross": -1.9, "bland": -1.6,
		"stale": -1.7, "cold": -0.9, "soggy": -1.5, "greasy": -1.2,
		"hate": -2.7, "hated": -2.6, "disappointing": -2.1, "disappointed": -2.1,
		"mediocre": -1.4, "overpriced": -1.9, "expensive": -0.9, "slow": -1.2,
		"rude": -2.4, "dirty": -2.0, "filthy": -2.7, "noisy": -1.1,
		"crowded": -0.8, "wait": -0.4, "waited": -0.7, "waiting": -0.6,
		"undercooked": -2.0, "overcooked": -1.8, "burnt": -1.7, "raw": -1.0,
		"tasteless": -1.9, "inedible": -2.9, "avoid": -1.9, "refund": -1.3,
		"complaint": -1.6, "complain": -1.5, "poor": -2.1, "lousy": -2.2,
		"unacceptable": -2.4, "nasty": -2.5, "sick": -1.8, "never": -0.6,
		"dry": -1.1, "salty": -0.8, "ruined": -2.2, "disaster": -2.5,
		"ignored": -1.8, "unfriendly": -2.0, "unprofessional": -2.2,
	}
}

func defaultBoosters() map[string]float64 {
	return map[string]float64{
		"absolutely": 1, "amazingly": 1, "completely": 1, "extremely": 1,
		"incredibly": 1, "really": 1, "remarkably": 1, "so": 1,
		"totally": 1, "truly": 1, "utterly": 1, "very": 1,
		"especially": 1, "exceptionally": 1, "particularly": 1,
		// dampeners carry negative weight
		"almost": -1, "barely": -1, "hardly": -1, "kind": -1,
		"kinda": -1, "less": -1, "little": -1, "marginally": -1,
		"occasionally": -1, "partly": -1, "scarcely": -1, "slightly": -1,
		"somewhat": -1, "sort": -1, "sorta": -1,
	}
}

func defaultNegations() map[string]bool {
	words := []string{
		"not", "no", "never", "neither", "nobody", "none", "nor",
		"nothing", "nowhere", "isnt", "isn't", "arent", "aren't",
		"wasnt", "wasn't", "werent", "weren't", "dont", "don't",
		"doesnt", "doesn't", "didnt", "didn't", "cant", "can't",
		"couldnt", "couldn't", "shouldnt", "shouldn't", "wont", "won't",
		"wouldnt", "wouldn't", "aint", "ain't", "without", "lacks",
		"lacking", "hardly", "barely",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
