package sentiment

import (
	"context"
	"regexp"
	"strings"
)

// Aspects recognized in restaurant reviews.
const (
	AspectFood     = "food"
	AspectService  = "service"
	AspectAmbience = "ambience"
	AspectPrice    = "price"
)

// KnownAspects lists the supported aspect names.
var KnownAspects = []string{AspectFood, AspectService, AspectAmbience, AspectPrice}

var aspectKeywords = map[string][]string{
	AspectFood: {
		"food", "pizza", "pasta", "dish", "meal", "taste", "flavor",
		"flavour", "menu", "portion", "appetizer", "dessert", "sauce",
		"crust", "cheese", "ingredient", "cooked", "delicious",
	},
	AspectService: {
		"service", "staff", "waiter", "waitress", "server", "host",
		"hostess", "manager", "order", "served", "attentive", "tip",
	},
	AspectAmbience: {
		"ambience", "ambiance", "atmosphere", "decor", "music", "vibe",
		"noise", "lighting", "seating", "interior", "cozy", "crowded",
	},
	AspectPrice: {
		"price", "prices", "pricing", "value", "expensive", "cheap",
		"cost", "worth", "overpriced", "affordable", "bill", "deal", "money",
	},
}

var sentenceSplitter = regexp.MustCompile(`[.!?]+`)

// AspectResult is the sentiment for a single aspect of a text.
type AspectResult struct {
	Aspect    string   `json:"aspect"`
	Mentioned bool     `json:"mentioned"`
	Sentences []string `json:"sentences,omitempty"`
	Result    *Result  `json:"result,omitempty"`
}

// AspectAnalyzer scores aspect-specific sentences with a backing scorer.
type AspectAnalyzer struct {
	scorer Scorer
}

// NewAspectAnalyzer creates an aspect analyzer. The scorer is typically
// the hybrid scorer but any method works.
func NewAspectAnalyzer(scorer Scorer) *AspectAnalyzer {
	return &AspectAnalyzer{scorer: scorer}
}

// DetectAspect returns the first known aspect mentioned in the text, or
// empty when none matches. Used to enrich answers to aspect questions.
func DetectAspect(text string) string {
	lower := strings.ToLower(text)
	for _, aspect := range KnownAspects {
		for _, kw := range aspectKeywords[aspect] {
			if containsWord(lower, kw) {
				return aspect
			}
		}
	}
	return ""
}

// MentionedAspects returns every known aspect the text mentions. Cheap
// keyword scan, no scoring.
func MentionedAspects(text string) []string {
	lower := strings.ToLower(text)
	var mentioned []string
	for _, aspect := range KnownAspects {
		for _, kw := range aspectKeywords[aspect] {
			if containsWord(lower, kw) {
				mentioned = append(mentioned, aspect)
				break
			}
		}
	}
	return mentioned
}

// Analyze scores the sentences of text that mention the given aspect.
// When the aspect is never mentioned the result carries Mentioned=false
// and no score.
func (a *AspectAnalyzer) Analyze(ctx context.Context, text, aspect string) (*AspectResult, error) {
	keywords, ok := aspectKeywords[strings.ToLower(aspect)]
	if !ok {
		return nil, NewInputError("unknown aspect: " + aspect)
	}

	sentences := splitSentences(text)
	var matched []string
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		for _, kw := range keywords {
			if containsWord(lower, kw) {
				matched = append(matched, sentence)
				break
			}
		}
	}

	result := &AspectResult{
		Aspect:    strings.ToLower(aspect),
		Mentioned: len(matched) > 0,
		Sentences: matched,
	}

	if !result.Mentioned {
		return result, nil
	}

	scored, err := a.scorer.Score(ctx, strings.Join(matched, ". "))
	if err != nil {
		return nil, err
	}
	result.Result = scored

	return result, nil
}

// AnalyzeAll scores every known aspect of the text.
func (a *AspectAnalyzer) AnalyzeAll(ctx context.Context, text string) ([]*AspectResult, error) {
	results := make([]*AspectResult, 0, len(KnownAspects))
	for _, aspect := range KnownAspects {
		res, err := a.Analyze(ctx, text, aspect)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func splitSentences(text string) []string {
	parts := sentenceSplitter.Split(text, -1)
	var sentences []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

// containsWord reports whether s contains w as a whole word.
func containsWord(s, w string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || !isLetter(s[start-1])
		afterOK := end == len(s) || !isLetter(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
