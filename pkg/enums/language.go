package enums

// Language selects the localization for outbound notification copy.
type Language string

const (
	LanguageEnglish   Language = "en"
	LanguageHungarian Language = "hu"
)

// ParseLanguage normalizes raw values, falling back to English.
func ParseLanguage(value string) Language {
	if value == string(LanguageHungarian) {
		return LanguageHungarian
	}
	return LanguageEnglish
}
