package engine

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/pollwheel/pollwheel/model"
)

// StartElement is the pseudo element id of the welcome card.
const StartElement = "start"

var (
	// ErrElementNotFound means the current element id references nothing
	// in the survey. Fatal: it indicates a data-integrity bug upstream,
	// the host must halt the session with a generic error state.
	ErrElementNotFound = errors.New("element not found in survey")
	// ErrWrongQuestion means the submitted answer names a question other
	// than the currently displayed one.
	ErrWrongQuestion = errors.New("answer does not match the current question")
	// ErrSessionFinished rejects transitions after an ending was reached.
	ErrSessionFinished = errors.New("session already finished")
	// ErrAtStart rejects back navigation from the first element.
	ErrAtStart = errors.New("already at the first element")
	// ErrLanguageNotAvailable rejects a switch to an undeclared language.
	ErrLanguageNotAvailable = errors.New("language not available for this survey")
)

// State is the immutable navigation state of one respondent session.
// Transitions produce a new State; the host owns the single mutable
// reference. History, not a previous-index pointer, is authoritative for
// back navigation because jumps make "previous" non-sequential.
type State struct {
	Current  string             `json:"current"`
	History  []string           `json:"history,omitempty"`
	Data     model.ResponseData `json:"data"`
	TTC      model.TTC          `json:"ttc"`
	Language string             `json:"language"`
	Finished bool               `json:"finished"`
	Failed   bool               `json:"failed,omitempty"`
}

// Engine interprets one survey definition. The definition is read-only
// for the engine's lifetime and may be shared across sessions. The
// failure roll is injected so transitions stay reproducible under test.
type Engine struct {
	survey *model.Survey
	roll   func() float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRoll replaces the failure-chance random source. The function must
// return values in [0, 1).
func WithRoll(roll func() float64) Option {
	return func(e *Engine) { e.roll = roll }
}

// New builds an engine for a validated survey definition.
func New(survey *model.Survey, opts ...Option) *Engine {
	e := &Engine{survey: survey, roll: rand.Float64}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Survey exposes the definition the engine interprets.
func (e *Engine) Survey() *model.Survey { return e.survey }

// Start creates the initial state for a session. The current element is
// the welcome card when one is enabled, else the first question. An
// unknown or disabled language falls back to the survey default.
func (e *Engine) Start(language string) State {
	if language == "" || !e.survey.HasLanguage(language) {
		language = e.survey.DefaultLanguageCode()
	}
	st := State{
		Data:     model.ResponseData{},
		TTC:      model.TTC{},
		Language: language,
	}
	switch {
	case e.survey.Welcome.Enabled:
		st.Current = StartElement
	case len(e.survey.Questions) > 0:
		st.Current = e.survey.Questions[0].Base().ID
	default:
		st.Current = e.endingID()
		st.Finished = true
	}
	return st
}

// Submit merges the answer for the current question, accumulates its
// time to complete and advances to the next element: the destination of
// the first matching logic rule, or the structurally next question, or
// the ending. Submitting from the welcome card carries no answer and
// always advances to the first question.
func (e *Engine) Submit(st State, questionID string, ans model.Answer, elapsedMs int64) (State, error) {
	if st.Finished {
		return st, ErrSessionFinished
	}

	if st.Current == StartElement {
		next := e.endingID()
		if len(e.survey.Questions) > 0 {
			next = e.survey.Questions[0].Base().ID
		}
		return e.advance(st, next), nil
	}

	q, ok := e.survey.QuestionByID(st.Current)
	if !ok {
		return st, fmt.Errorf("%w: %q", ErrElementNotFound, st.Current)
	}
	if questionID != "" && questionID != st.Current {
		return st, fmt.Errorf("%w: got %q, current is %q", ErrWrongQuestion, questionID, st.Current)
	}

	st.Data = MergeAnswer(st.Data, st.Current, ans)
	st.TTC = RecordTTC(st.TTC, st.Current, elapsedMs)

	next, err := e.nextElement(q, ans)
	if err != nil {
		return st, err
	}
	return e.advance(st, next), nil
}

// nextElement applies the question's rules in authored order, first
// match wins; no match falls through to the structurally next question.
func (e *Engine) nextElement(q model.Question, ans model.Answer) (string, error) {
	for _, rule := range q.Base().Logic {
		if rule.Destination == "" {
			continue
		}
		if !EvaluateRule(q, rule, ans) {
			continue
		}
		if rule.Destination == model.DestinationEnd {
			return e.endingID(), nil
		}
		if _, ok := e.survey.QuestionByID(rule.Destination); !ok {
			return "", fmt.Errorf("%w: rule destination %q", ErrElementNotFound, rule.Destination)
		}
		return rule.Destination, nil
	}

	idx := e.survey.QuestionIndex(q.Base().ID)
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrElementNotFound, q.Base().ID)
	}
	if idx+1 < len(e.survey.Questions) {
		return e.survey.Questions[idx+1].Base().ID, nil
	}
	return e.endingID(), nil
}

// advance pushes the element being left onto history and, when the
// destination is an ending, settles the finished flag and rolls the
// failure chance. The roll only swaps the presentation; the response
// still counts as finished.
func (e *Engine) advance(st State, next string) State {
	history := make([]string, len(st.History), len(st.History)+1)
	copy(history, st.History)
	st.History = append(history, st.Current)
	st.Current = next

	if _, isEnding := e.survey.EndingByID(next); isEnding || next == model.DestinationEnd {
		st.Finished = true
		if c := e.survey.FailureChance; c > 0 && e.roll()*100 <= float64(c) {
			st.Failed = true
		}
	}
	return st
}

// Back pops the last element off history. With an empty history the
// structural predecessor is used instead, which only happens before any
// branching jump has been taken.
func (e *Engine) Back(st State) (State, error) {
	if st.Finished {
		return st, ErrSessionFinished
	}
	if len(st.History) > 0 {
		last := len(st.History) - 1
		history := make([]string, last)
		copy(history, st.History[:last])
		st.Current, st.History = st.History[last], history
		return st, nil
	}

	if st.Current == StartElement {
		return st, ErrAtStart
	}
	idx := e.survey.QuestionIndex(st.Current)
	if idx < 0 {
		return st, fmt.Errorf("%w: %q", ErrElementNotFound, st.Current)
	}
	switch {
	case idx > 0:
		st.Current = e.survey.Questions[idx-1].Base().ID
	case e.survey.Welcome.Enabled:
		st.Current = StartElement
	default:
		return st, ErrAtStart
	}
	return st, nil
}

// SwitchLanguage changes the presentation language mid-session.
func (e *Engine) SwitchLanguage(st State, code string) (State, error) {
	if !e.survey.HasLanguage(code) {
		return st, fmt.Errorf("%w: %q", ErrLanguageNotAvailable, code)
	}
	st.Language = code
	return st, nil
}

// EndEarly forces the session to its ending, used when an external
// collaborator (quota evaluation) decides the survey should end. The
// answers collected so far stand and the response counts as finished.
func (e *Engine) EndEarly(st State) State {
	if st.Finished {
		return st
	}
	st = e.advance(st, e.endingID())
	st.Failed = false
	return st
}

// endingID resolves the element id a plain "end" destination points at.
func (e *Engine) endingID() string {
	if len(e.survey.Endings) > 0 {
		return e.survey.Endings[0].ID
	}
	return model.DestinationEnd
}
