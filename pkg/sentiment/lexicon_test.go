package sentiment

import (
	"context"
	"math"
	"testing"
)

func TestLexiconProportionsSumToOne(t *testing.T) {
	texts := []string{
		"The pizza was absolutely amazing and the staff were friendly!",
		"Terrible service, cold food, never coming back.",
		"It is a restaurant on the corner of the street.",
		"Good food but really slow service and noisy room",
		"AMAZING experience!!! Best pasta in town!",
		"not good, not fresh, not worth the price",
		"ok",
	}

	scorer := NewLexiconScorer()
	for _, text := range texts {
		result, err := scorer.Score(context.Background(), text)
		if err != nil {
			t.Fatalf("Score(%q): %v", text, err)
		}

		if sum := result.Scores.Sum(); math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("proportions for %q sum to %v, want 1.0", text, sum)
		}
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Errorf("confidence for %q out of range: %v", text, result.Confidence)
		}
	}
}

func TestLexiconLabels(t *testing.T) {
	tests := []struct {
		text  string
		label Label
	}{
		{"The food was amazing and delicious, we loved it!", LabelPositive},
		{"Disgusting, the worst meal I have ever had", LabelNegative},
		{"The restaurant is located next to the station", LabelNeutral},
	}

	scorer := NewLexiconScorer()
	for _, tt := range tests {
		result, err := scorer.Score(context.Background(), tt.text)
		if err != nil {
			t.Fatalf("Score(%q): %v", tt.text, err)
		}
		if result.Label != tt.label {
			t.Errorf("Score(%q) label = %s, want %s", tt.text, result.Label, tt.label)
		}
	}
}

func TestLexiconNegationFlips(t *testing.T) {
	scorer := NewLexiconScorer()

	plain, err := scorer.Score(context.Background(), "the food was good")
	if err != nil {
		t.Fatal(err)
	}
	negated, err := scorer.Score(context.Background(), "the food was not good")
	if err != nil {
		t.Fatal(err)
	}

	if plain.Label != LabelPositive {
		t.Fatalf("baseline label = %s", plain.Label)
	}
	if negated.Label == LabelPositive {
		t.Errorf("negated text still positive: %+v", negated)
	}
}

func TestLexiconEmphasisRaisesConfidence(t *testing.T) {
	scorer := NewLexiconScorer()

	calm, err := scorer.Score(context.Background(), "the pizza was good")
	if err != nil {
		t.Fatal(err)
	}
	excited, err := scorer.Score(context.Background(), "the pizza was really good!!!")
	if err != nil {
		t.Fatal(err)
	}

	if excited.Confidence <= calm.Confidence {
		t.Errorf("emphasis should raise confidence: calm=%v excited=%v",
			calm.Confidence, excited.Confidence)
	}
}

func TestLexiconEmptyInput(t *testing.T) {
	scorer := NewLexiconScorer()
	if _, err := scorer.Score(context.Background(), "   "); err == nil {
		t.Error("expected input error for blank text")
	}
}

func TestPolarityProportionsSumToOne(t *testing.T) {
	texts := []string{
		"excellent pasta and a wonderful evening",
		"rude staff and overpriced bland food",
		"we sat at the table near the window",
	}

	scorer := NewPolarityScorer()
	for _, text := range texts {
		result, err := scorer.Score(context.Background(), text)
		if err != nil {
			t.Fatalf("Score(%q): %v", text, err)
		}
		if sum := result.Scores.Sum(); math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("proportions for %q sum to %v, want 1.0", text, sum)
		}
		if result.Subjectivity < 0 || result.Subjectivity > 1 {
			t.Errorf("subjectivity out of range for %q: %v", text, result.Subjectivity)
		}
	}
}

func TestPolarityLabels(t *testing.T) {
	scorer := NewPolarityScorer()

	pos, err := scorer.Score(context.Background(), "delicious food and excellent service")
	if err != nil {
		t.Fatal(err)
	}
	if pos.Label != LabelPositive {
		t.Errorf("positive text labeled %s", pos.Label)
	}

	neg, err := scorer.Score(context.Background(), "awful greasy food and rude service")
	if err != nil {
		t.Fatal(err)
	}
	if neg.Label != LabelNegative {
		t.Errorf("negative text labeled %s", neg.Label)
	}
}
