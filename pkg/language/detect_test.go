package language

import "testing"

func TestDetectLatinLanguages(t *testing.T) {
	tests := []struct {
		text string
		code string
	}{
		{"The food was very good and the staff were friendly", "en"},
		{"La comida era muy buena pero el servicio es lento", "es"},
		{"Le restaurant est très bon mais un peu cher pour nous", "fr"},
		{"Das Essen war sehr gut und die Bedienung ist nicht langsam", "de"},
	}

	for _, tt := range tests {
		got := Detect(tt.text)
		if got.Code != tt.code {
			t.Errorf("Detect(%q) = %s (conf %.2f), want %s", tt.text, got.Code, got.Confidence, tt.code)
		}
		if got.RTL {
			t.Errorf("latin-script text flagged RTL: %q", tt.text)
		}
	}
}

func TestDetectScripts(t *testing.T) {
	tests := []struct {
		text string
		code string
		rtl  bool
	}{
		{"Еда была очень вкусной", "ru", false},
		{"الطعام لذيذ جدا", "ar", true},
		{"האוכל היה טעים מאוד", "he", true},
		{"食べ物はとても美味しかったです", "ja", false},
	}

	for _, tt := range tests {
		got := Detect(tt.text)
		if got.Code != tt.code {
			t.Errorf("Detect(%q) = %s, want %s", tt.text, got.Code, tt.code)
		}
		if got.RTL != tt.rtl {
			t.Errorf("Detect(%q) RTL = %v, want %v", tt.text, got.RTL, tt.rtl)
		}
	}
}

func TestDetectUnknownDefaultsToEnglish(t *testing.T) {
	got := Detect("xyzzy plugh 12345")
	if got.Code != "en" {
		t.Errorf("unknown text should default to en, got %s", got.Code)
	}
	if got.Confidence > 0.2 {
		t.Errorf("default detection should have low confidence, got %v", got.Confidence)
	}
}

func TestDetectEmptyText(t *testing.T) {
	got := Detect("")
	if got.Code != "en" {
		t.Errorf("empty text should default to en, got %s", got.Code)
	}
}

func TestLocalizeSentimentLabel(t *testing.T) {
	tests := []struct {
		label, lang, want string
	}{
		{"Positive", "es", "Positivo"},
		{"Negative", "fr", "Négatif"},
		{"Neutral", "en", "Neutral"},
		{"Positive", "xx", "Positive"},
		{"Weird", "es", "Weird"},
	}

	for _, tt := range tests {
		if got := LocalizeSentimentLabel(tt.label, tt.lang); got != tt.want {
			t.Errorf("LocalizeSentimentLabel(%q, %q) = %q, want %q", tt.label, tt.lang, got, tt.want)
		}
	}
}

func TestIsRTL(t *testing.T) {
	if !IsRTL("ar") || !IsRTL("he") {
		t.Error("ar and he are RTL")
	}
	if IsRTL("en") {
		t.Error("en is not RTL")
	}
}
