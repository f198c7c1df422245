// Package language provides lightweight language detection and UI label
// localization for review text and chat questions.
package language

import (
	"strings"
	"unicode"
)

// Detection is the outcome of language detection for a text.
type Detection struct {
	Code       string  `json:"code"`       // ISO 639-1
	Name       string  `json:"name"`       // English display name
	Confidence float64 `json:"confidence"` // [0, 1]
	RTL        bool    `json:"rtl"`
}

// stopwords per language; detection counts hits against these lists.
var stopwords = map[string][]string{
	"en": {"the", "and", "is", "was", "are", "were", "this", "that", "with", "for", "very", "have", "had", "not", "but", "you", "they"},
	"es": {"el", "la", "los", "las", "es", "era", "muy", "pero", "con", "por", "para", "este", "esta", "que", "como", "una", "del"},
	"fr": {"le", "la", "les", "est", "était", "très", "mais", "avec", "pour", "cette", "que", "comme", "une", "des", "dans", "nous"},
	"de": {"der", "die", "das", "ist", "war", "sehr", "aber", "mit", "für", "diese", "dass", "wie", "eine", "und", "nicht", "wir"},
	"it": {"il", "la", "gli", "le", "è", "era", "molto", "ma", "con", "per", "questa", "che", "come", "una", "del", "non"},
	"pt": {"o", "a", "os", "as", "é", "era", "muito", "mas", "com", "para", "esta", "que", "como", "uma", "do", "não"},
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"ar": "Arabic",
	"he": "Hebrew",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
}

// Name returns the English display name for a language code, or the
// code itself when unknown.
func Name(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// Detect guesses the language of the given text. Script-based languages
// are detected by character class, Latin-script languages by stopword
// hits. Unknown text defaults to English with low confidence.
func Detect(text string) Detection {
	if byScript := detectScript(text); byScript != nil {
		return *byScript
	}

	words := tokenize(text)
	if len(words) == 0 {
		return Detection{Code: "en", Name: "English", Confidence: 0.1}
	}

	bestCode := "en"
	bestHits := 0
	for code, list := range stopwords {
		hits := 0
		for _, w := range words {
			for _, sw := range list {
				if w == sw {
					hits++
					break
				}
			}
		}
		if hits > bestHits || (hits == bestHits && code == "en") {
			bestCode = code
			bestHits = hits
		}
	}

	confidence := float64(bestHits) / float64(len(words))
	if confidence > 1 {
		confidence = 1
	}
	if bestHits == 0 {
		confidence = 0.1
	}

	return Detection{
		Code:       bestCode,
		Name:       languageNames[bestCode],
		Confidence: confidence,
	}
}

// detectScript classifies text written in non-Latin scripts.
func detectScript(text string) *Detection {
	var cyrillic, arabic, hebrew, han, hangul, kana, total int

	for _, r := range text {
		if unicode.IsLetter(r) {
			total++
			switch {
			case unicode.Is(unicode.Cyrillic, r):
				cyrillic++
			case unicode.Is(unicode.Arabic, r):
				arabic++
			case unicode.Is(unicode.Hebrew, r):
				hebrew++
			case unicode.Is(unicode.Han, r):
				han++
			case unicode.Is(unicode.Hangul, r):
				hangul++
			case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
				kana++
			}
		}
	}

	if total == 0 {
		return nil
	}

	threshold := total / 2
	switch {
	case cyrillic > threshold:
		return &Detection{Code: "ru", Name: "Russian", Confidence: ratio(cyrillic, total)}
	case arabic > threshold:
		return &Detection{Code: "ar", Name: "Arabic", Confidence: ratio(arabic, total), RTL: true}
	case hebrew > threshold:
		return &Detection{Code: "he", Name: "Hebrew", Confidence: ratio(hebrew, total), RTL: true}
	case kana > 0 && han+kana > threshold:
		return &Detection{Code: "ja", Name: "Japanese", Confidence: ratio(han+kana, total)}
	case hangul > threshold:
		return &Detection{Code: "ko", Name: "Korean", Confidence: ratio(hangul, total)}
	case han > threshold:
		return &Detection{Code: "zh", Name: "Chinese", Confidence: ratio(han, total)}
	}

	return nil
}

func ratio(n, total int) float64 {
	return float64(n) / float64(total)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
