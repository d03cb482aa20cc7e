package model

// DefaultLanguage is the sentinel key every localized text must carry.
// Rules and recall fallbacks are authored against it, whatever language
// the respondent ends up seeing.
const DefaultLanguage = "default"

// LocalizedString maps a language code to the literal text shown for it.
type LocalizedString map[string]string

// Get returns the text for the given language code, falling back to the
// default entry when the language has no translation.
func (ls LocalizedString) Get(lang string) string {
	if v, ok := ls[lang]; ok && v != "" {
		return v
	}
	return ls[DefaultLanguage]
}

// HasDefault reports whether the string carries a non-empty default entry.
func (ls LocalizedString) HasDefault() bool {
	return ls[DefaultLanguage] != ""
}

// Language is one survey language. Exactly one entry is flagged default.
type Language struct {
	Code    string `json:"code"`
	Default bool   `json:"default"`
	Enabled bool   `json:"enabled"`
}
