package stt

import "strings"

// localeByLanguage maps two-letter session language codes to the locale
// codes streaming recognition expects.
var localeByLanguage = map[string]string{
	"en": "en-US",
	"es": "es-US",
	"fr": "fr-FR",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-BR",
	"ru": "ru-RU",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"zh": "zh-CN",
	"ar": "ar-SA",
	"hi": "hi-IN",
	"nl": "nl-NL",
	"pl": "pl-PL",
	"tr": "tr-TR",
	"sv": "sv-SE",
	"da": "da-DK",
	"no": "no-NO",
	"fi": "fi-FI",
}

// MapLanguageCode resolves a session language to a recognition locale.
// Region-qualified codes are already locales and pass through; unmapped
// codes fall back to en-US.
func MapLanguageCode(language string) string {
	if strings.Contains(language, "-") {
		return language
	}
	if locale, ok := localeByLanguage[language]; ok {
		return locale
	}
	return "en-US"
}
