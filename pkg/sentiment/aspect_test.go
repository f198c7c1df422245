package sentiment

import (
	"context"
	"testing"
)

func TestAspectAnalyzeFood(t *testing.T) {
	analyzer := NewAspectAnalyzer(NewLexiconScorer())

	text := "The pizza was delicious and fresh. The waiter was quite rude though. Parking was easy."
	result, err := analyzer.Analyze(context.Background(), text, AspectFood)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !result.Mentioned {
		t.Fatal("food aspect should be mentioned")
	}
	if len(result.Sentences) != 1 {
		t.Fatalf("expected 1 food sentence, got %d: %v", len(result.Sentences), result.Sentences)
	}
	if result.Result == nil || result.Result.Label != LabelPositive {
		t.Errorf("food sentiment should be positive: %+v", result.Result)
	}
}

func TestAspectServiceNegative(t *testing.T) {
	analyzer := NewAspectAnalyzer(NewLexiconScorer())

	text := "The pizza was delicious. The waiter was extremely rude and slow."
	result, err := analyzer.Analyze(context.Background(), text, AspectService)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Mentioned || result.Result == nil {
		t.Fatal("service aspect should be mentioned and scored")
	}
	if result.Result.Label != LabelNegative {
		t.Errorf("service sentiment = %s, want Negative", result.Result.Label)
	}
}

func TestAspectNotMentioned(t *testing.T) {
	analyzer := NewAspectAnalyzer(NewLexiconScorer())

	result, err := analyzer.Analyze(context.Background(), "The pasta was great.", AspectPrice)
	if err != nil {
		t.Fatal(err)
	}
	if result.Mentioned {
		t.Error("price aspect should not be mentioned")
	}
	if result.Result != nil {
		t.Error("unmentioned aspect should carry no score")
	}
}

func TestAspectUnknown(t *testing.T) {
	analyzer := NewAspectAnalyzer(NewLexiconScorer())
	if _, err := analyzer.Analyze(context.Background(), "text", "weather"); err == nil {
		t.Error("expected error for unknown aspect")
	}
}

func TestAnalyzeAllCoversKnownAspects(t *testing.T) {
	analyzer := NewAspectAnalyzer(NewLexiconScorer())

	text := "Great food, friendly service, lovely atmosphere, fair price."
	results, err := analyzer.AnalyzeAll(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(KnownAspects) {
		t.Fatalf("expected %d aspects, got %d", len(KnownAspects), len(results))
	}
	for _, r := range results {
		if !r.Mentioned {
			t.Errorf("aspect %s should be mentioned", r.Aspect)
		}
	}
}

func TestMentionedAspects(t *testing.T) {
	got := MentionedAspects("Great pizza but the waiter ignored us and it was overpriced.")
	want := []string{AspectFood, AspectService, AspectPrice}
	if len(got) != len(want) {
		t.Fatalf("MentionedAspects = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MentionedAspects[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if aspects := MentionedAspects("We arrived at noon."); aspects != nil {
		t.Errorf("expected no aspects, got %v", aspects)
	}
}

func TestDetectAspect(t *testing.T) {
	tests := []struct {
		question string
		aspect   string
	}{
		{"How is the food at this place?", AspectFood},
		{"Is the service friendly?", AspectService},
		{"What is the atmosphere like?", AspectAmbience},
		{"Are the prices reasonable?", AspectPrice},
		{"When are you open?", ""},
	}

	for _, tt := range tests {
		if got := DetectAspect(tt.question); got != tt.aspect {
			t.Errorf("DetectAspect(%q) = %q, want %q", tt.question, got, tt.aspect)
		}
	}
}
