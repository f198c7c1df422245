package language

// sentimentLabels maps language code -> English label -> localized label.
// Used by the web UI to render sentiment badges in the question's language.
var sentimentLabels = map[string]map[string]string{
	"es": {"Positive": "Positivo", "Negative": "Negativo", "Neutral": "Neutral"},
	"fr": {"Positive": "Positif", "Negative": "Négatif", "Neutral": "Neutre"},
	"de": {"Positive": "Positiv", "Negative": "Negativ", "Neutral": "Neutral"},
	"it": {"Positive": "Positivo", "Negative": "Negativo", "Neutral": "Neutro"},
	"pt": {"Positive": "Positivo", "Negative": "Negativo", "Neutral": "Neutro"},
	"ru": {"Positive": "Позитивный", "Negative": "Негативный", "Neutral": "Нейтральный"},
	"ar": {"Positive": "إيجابي", "Negative": "سلبي", "Neutral": "محايد"},
	"he": {"Positive": "חיובי", "Negative": "שלילי", "Neutral": "ניטרלי"},
	"zh": {"Positive": "正面", "Negative": "负面", "Neutral": "中性"},
	"ja": {"Positive": "ポジティブ", "Negative": "ネガティブ", "Neutral": "中立"},
	"ko": {"Positive": "긍정적", "Negative": "부정적", "Neutral": "중립"},
}

// LocalizeSentimentLabel translates an English sentiment label for
// display. Unknown languages and labels fall back to the English label.
func LocalizeSentimentLabel(label, langCode string) string {
	if langCode == "" || langCode == "en" {
		return label
	}
	if table, ok := sentimentLabels[langCode]; ok {
		if localized, ok := table[label]; ok {
			return localized
		}
	}
	return label
}

// IsRTL reports whether the language is written right to left.
func IsRTL(langCode string) bool {
	return langCode == "ar" || langCode == "he"
}
