package model

// EndingType discriminates the end screen shown when a session finishes.
type EndingType string

const (
	EndingScreen    EndingType = "endScreen"
	EndingRedirect  EndingType = "redirectToUrl"
	EndingAffiliate EndingType = "affiliateOffer"
)

// Ending is one ending variant. The first ending in the survey is the
// one a plain "end" destination resolves to.
type Ending struct {
	ID           string          `json:"id"`
	Type         EndingType      `json:"type"`
	Headline     LocalizedString `json:"headline,omitempty"`
	Subheader    LocalizedString `json:"subheader,omitempty"`
	ButtonLabel  LocalizedString `json:"buttonLabel,omitempty"`
	ButtonLink   string          `json:"buttonLink,omitempty"`
	URL          string          `json:"url,omitempty"`          // redirectToUrl target
	AffiliateURL string          `json:"affiliateUrl,omitempty"` // affiliateOffer target
}

// WelcomeCard is the optional intro element shown before the first
// question.
type WelcomeCard struct {
	Enabled     bool            `json:"enabled"`
	Headline    LocalizedString `json:"headline,omitempty"`
	HTML        LocalizedString `json:"html,omitempty"`
	ButtonLabel LocalizedString `json:"buttonLabel,omitempty"`
}

// Survey is the immutable-per-session definition the runtime interprets.
type Survey struct {
	ID            string       `json:"id,omitempty"`
	Name          string       `json:"name"`
	Welcome       WelcomeCard  `json:"welcome"`
	Questions     QuestionList `json:"questions"`
	Endings       []Ending     `json:"endings"`
	Languages     []Language   `json:"languages,omitempty"`
	HiddenFields  []string     `json:"hiddenFields,omitempty"`
	FailureChance int          `json:"failureChance,omitempty"` // percent, 0..100
	RedirectURL   string       `json:"redirectUrl,omitempty"`
	SingleUse     bool         `json:"singleUse,omitempty"`
}

// QuestionByID looks a question up by id.
func (s *Survey) QuestionByID(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.Base().ID == id {
			return q, true
		}
	}
	return nil, false
}

// QuestionIndex returns the position of a question id, or -1.
func (s *Survey) QuestionIndex(id string) int {
	for i, q := range s.Questions {
		if q.Base().ID == id {
			return i
		}
	}
	return -1
}

// EndingByID looks an ending variant up by id.
func (s *Survey) EndingByID(id string) (*Ending, bool) {
	for i := range s.Endings {
		if s.Endings[i].ID == id {
			return &s.Endings[i], true
		}
	}
	return nil, false
}

// DefaultLanguageCode returns the code of the language flagged default,
// or the "default" sentinel when none is declared.
func (s *Survey) DefaultLanguageCode() string {
	for _, l := range s.Languages {
		if l.Default {
			return l.Code
		}
	}
	return DefaultLanguage
}

// HasLanguage reports whether the code names a declared, enabled survey
// language. The sentinel code is always available.
func (s *Survey) HasLanguage(code string) bool {
	if code == DefaultLanguage {
		return true
	}
	for _, l := range s.Languages {
		if l.Code == code && l.Enabled {
			return true
		}
	}
	return false
}
