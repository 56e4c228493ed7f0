package chapterwise

import "strings"

// LanguageNames maps ISO 639-1 codes to display names used in prompts and
// the CLI language picker.
var LanguageNames = map[string]string{
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ru": "Russian",
	"fa": "Persian",
	"ar": "Arabic",
	"nl": "Dutch",
	"sw": "Swahili",
	"id": "Indonesian",
	"hi": "Hindi",
	"pt": "Portuguese",
	"tl": "Tagalog",
	"te": "Telugu",
}

// RTLLanguages contains language codes written right to left.
var RTLLanguages = map[string]bool{
	"ar": true,
	"he": true,
	"fa": true,
	"ur": true,
}

// LanguageName returns the display name for a code, or the code itself when
// unknown so custom codes pass through to the prompt untouched.
func LanguageName(code string) string {
	if name, ok := LanguageNames[normalizeLangCode(code)]; ok {
		return name
	}
	return code
}

// LanguageCode resolves a display name (case-insensitive) back to its code.
func LanguageCode(name string) (string, bool) {
	for code, n := range LanguageNames {
		if strings.EqualFold(n, name) {
			return code, true
		}
	}
	return "", false
}

// IsRTL reports whether the language is written right to left.
func IsRTL(code string) bool {
	return RTLLanguages[normalizeLangCode(code)]
}

// Direction returns "rtl" or "ltr" for the language, for document export.
func Direction(code string) string {
	if IsRTL(code) {
		return "rtl"
	}
	return "ltr"
}

// normalizeLangCode extracts the lowercase base code ("en" from "en_US").
func normalizeLangCode(code string) string {
	base, _, _ := strings.Cut(code, "_")
	base, _, _ = strings.Cut(base, "-")
	return strings.ToLower(base)
}
