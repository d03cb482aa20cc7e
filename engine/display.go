package engine

import (
	"fmt"

	"github.com/pollwheel/pollwheel/model"
)

// Display is the recall-resolved presentation of the current element,
// ready to render. No localized map or marker syntax leaks out of it.
type Display struct {
	ElementID    string             `json:"elementId"`
	Kind         string             `json:"kind"` // welcome, question, ending
	QuestionType model.QuestionType `json:"questionType,omitempty"`
	Required     bool               `json:"required,omitempty"`
	Headline     string             `json:"headline,omitempty"`
	Subheader    string             `json:"subheader,omitempty"`
	ButtonLabel  string             `json:"buttonLabel,omitempty"`
	RedirectURL  string             `json:"redirectUrl,omitempty"`
	Failed       bool               `json:"failed,omitempty"`
}

// Element kinds.
const (
	KindWelcome  = "welcome"
	KindQuestion = "question"
	KindEnding   = "ending"
)

// Display resolves the presentation of the state's current element in
// the session language, substituting recall markers from answers and
// hidden fields.
func (e *Engine) Display(st State, hidden map[string]string) (Display, error) {
	lang := st.Language

	if st.Current == StartElement {
		w := e.survey.Welcome
		return Display{
			ElementID:   StartElement,
			Kind:        KindWelcome,
			Headline:    ResolveRecall(w.Headline, lang, st.Data, hidden),
			Subheader:   ResolveRecall(w.HTML, lang, st.Data, hidden),
			ButtonLabel: w.ButtonLabel.Get(lang),
		}, nil
	}

	if q, ok := e.survey.QuestionByID(st.Current); ok {
		base := q.Base()
		return Display{
			ElementID:    base.ID,
			Kind:         KindQuestion,
			QuestionType: q.Type(),
			Required:     base.Required,
			Headline:     ResolveRecall(base.Headline, lang, st.Data, hidden),
			Subheader:    ResolveRecall(base.Subheader, lang, st.Data, hidden),
		}, nil
	}

	if ending, ok := e.survey.EndingByID(st.Current); ok {
		d := Display{
			ElementID:   ending.ID,
			Kind:        KindEnding,
			Headline:    ResolveRecall(ending.Headline, lang, st.Data, hidden),
			Subheader:   ResolveRecall(ending.Subheader, lang, st.Data, hidden),
			ButtonLabel: ending.ButtonLabel.Get(lang),
			Failed:      st.Failed,
		}
		switch ending.Type {
		case model.EndingRedirect:
			d.RedirectURL = ending.URL
		case model.EndingAffiliate:
			d.RedirectURL = ending.AffiliateURL
		}
		if d.RedirectURL == "" {
			d.RedirectURL = e.survey.RedirectURL
		}
		return d, nil
	}

	if st.Current == model.DestinationEnd {
		// survey without ending variants still terminates cleanly
		return Display{ElementID: model.DestinationEnd, Kind: KindEnding, Failed: st.Failed, RedirectURL: e.survey.RedirectURL}, nil
	}

	return Display{}, fmt.Errorf("%w: %q", ErrElementNotFound, st.Current)
}
