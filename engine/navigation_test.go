package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollwheel/pollwheel/model"
)

func TestStartWithWelcomeCard(t *testing.T) {
	s := testSurvey(openText("q1"))
	s.Welcome = model.WelcomeCard{Enabled: true, Headline: text("Hi")}

	st := New(s).Start("")
	assert.Equal(t, StartElement, st.Current)
	assert.False(t, st.Finished)
}

func TestStartWithoutWelcomeCard(t *testing.T) {
	s := testSurvey(openText("q1"), openText("q2"))
	st := New(s).Start("")
	assert.Equal(t, "q1", st.Current)
}

func TestStartLanguageFallback(t *testing.T) {
	s := testSurvey(openText("q1"))
	s.Languages = []model.Language{
		{Code: "en", Default: true, Enabled: true},
		{Code: "de", Enabled: true},
		{Code: "fr", Enabled: false},
	}
	e := New(s)

	assert.Equal(t, "de", e.Start("de").Language)
	assert.Equal(t, "en", e.Start("it").Language)
	assert.Equal(t, "en", e.Start("fr").Language) // disabled
	assert.Equal(t, "en", e.Start("").Language)
}

func TestWelcomeAlwaysAdvancesToFirstQuestion(t *testing.T) {
	s := testSurvey(openText("q1"))
	s.Welcome = model.WelcomeCard{Enabled: true}
	e := New(s)

	st, err := e.Submit(e.Start(""), "", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "q1", st.Current)
	assert.Equal(t, []string{StartElement}, st.History)
}

// Single-choice routing: "moon" jumps, "sun" falls through.
func TestSubmitSingleChoiceRouting(t *testing.T) {
	q1 := choice("q1",
		model.LocalizedString{model.DefaultLanguage: "sun", "de": "Sonne"},
		model.LocalizedString{model.DefaultLanguage: "moon", "de": "Mond"},
	)
	q1.Logic = []model.LogicRule{ruleText(model.CondEquals, "moon", "q3")}
	s := testSurvey(q1, openText("q2"), openText("q3"))
	e := New(s)

	st, err := e.Submit(e.Start(""), "q1", model.Text("Mond"), 450)
	require.NoError(t, err)
	assert.Equal(t, "q3", st.Current)

	st, err = e.Submit(e.Start(""), "q1", model.Text("sun"), 450)
	require.NoError(t, err)
	assert.Equal(t, "q2", st.Current)
}

// NPS routing: detractors end the survey, promoters continue.
func TestSubmitNPSRouting(t *testing.T) {
	q1 := nps("q1", ruleNum(model.CondLessEqual, 6, model.DestinationEnd))
	s := testSurvey(q1, openText("q2"))
	e := New(s)

	st, err := e.Submit(e.Start(""), "q1", model.Number(3), 0)
	require.NoError(t, err)
	assert.Equal(t, "thank-you", st.Current)
	assert.True(t, st.Finished)

	st, err = e.Submit(e.Start(""), "q1", model.Number(9), 0)
	require.NoError(t, err)
	assert.Equal(t, "q2", st.Current)
	assert.False(t, st.Finished)
}

func TestSubmitFirstMatchWins(t *testing.T) {
	q1 := nps("q1",
		ruleNum(model.CondLessEqual, 6, "q4"),
		ruleNum(model.CondLessEqual, 8, "q3"), // also true for 5, must not win
	)
	s := testSurvey(q1, openText("q2"), openText("q3"), openText("q4"))
	e := New(s)

	st, err := e.Submit(e.Start(""), "q1", model.Number(5), 0)
	require.NoError(t, err)
	assert.Equal(t, "q4", st.Current)
}

func TestSubmitLastQuestionFallsThroughToEnding(t *testing.T) {
	s := testSurvey(openText("q1"))
	e := New(s)

	st, err := e.Submit(e.Start(""), "q1", model.Text("done"), 100)
	require.NoError(t, err)
	assert.Equal(t, "thank-you", st.Current)
	assert.True(t, st.Finished)
	assert.Equal(t, model.Text("done"), st.Data["q1"])
	assert.Equal(t, int64(100), st.TTC["q1"])
}

func TestSubmitRevisitAccumulatesTTC(t *testing.T) {
	s := testSurvey(openText("q1"), openText("q2"))
	e := New(s)

	st, err := e.Submit(e.Start(""), "q1", model.Text("a"), 1000)
	require.NoError(t, err)
	st, err = e.Back(st)
	require.NoError(t, err)
	st, err = e.Submit(st, "q1", model.Text("b"), 400)
	require.NoError(t, err)

	assert.Equal(t, int64(1400), st.TTC["q1"])
	assert.Equal(t, model.Text("b"), st.Data["q1"])
}

func TestSubmitRejectsWrongQuestion(t *testing.T) {
	s := testSurvey(openText("q1"), openText("q2"))
	e := New(s)

	_, err := e.Submit(e.Start(""), "q2", model.Text("x"), 0)
	assert.ErrorIs(t, err, ErrWrongQuestion)
}

func TestSubmitUnknownElementIsFatal(t *testing.T) {
	s := testSurvey(openText("q1"))
	e := New(s)

	st := e.Start("")
	st.Current = "ghost"
	_, err := e.Submit(st, "ghost", model.Text("x"), 0)
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestSubmitAfterFinishRejected(t *testing.T) {
	s := testSurvey(openText("q1"))
	e := New(s)

	st, err := e.Submit(e.Start(""), "q1", model.Text("x"), 0)
	require.NoError(t, err)
	require.True(t, st.Finished)

	_, err = e.Submit(st, "q1", model.Text("again"), 0)
	assert.ErrorIs(t, err, ErrSessionFinished)
}

// N forward transitions followed by N back transitions must land on the
// element shown before the first forward transition.
func TestHistoryRoundTrip(t *testing.T) {
	q1 := openText("q1", rule(model.CondSubmitted, "q4"))
	s := testSurvey(q1, openText("q2"), openText("q3"), openText("q4"), openText("q5"))
	e := New(s)

	st := e.Start("")
	origin := st.Current

	var err error
	st, err = e.Submit(st, "q1", model.Text("jump"), 0) // -> q4 via rule
	require.NoError(t, err)
	st, err = e.Submit(st, "q4", model.Text("next"), 0) // -> q5
	require.NoError(t, err)
	require.Equal(t, "q5", st.Current)

	st, err = e.Back(st)
	require.NoError(t, err)
	assert.Equal(t, "q4", st.Current)
	st, err = e.Back(st)
	require.NoError(t, err)
	assert.Equal(t, origin, st.Current)
	assert.Empty(t, st.History)
}

func TestBackWithEmptyHistoryUsesStructuralPredecessor(t *testing.T) {
	s := testSurvey(openText("q1"), openText("q2"))
	e := New(s)

	st := e.Start("")
	st.Current = "q2" // resumed session, no recorded history

	st, err := e.Back(st)
	require.NoError(t, err)
	assert.Equal(t, "q1", st.Current)

	_, err = e.Back(st)
	assert.ErrorIs(t, err, ErrAtStart)
}

func TestBackToWelcomeCard(t *testing.T) {
	s := testSurvey(openText("q1"))
	s.Welcome = model.WelcomeCard{Enabled: true}
	e := New(s)

	st := e.Start("")
	st.Current = "q1"

	st, err := e.Back(st)
	require.NoError(t, err)
	assert.Equal(t, StartElement, st.Current)
}

func TestSwitchLanguage(t *testing.T) {
	s := testSurvey(openText("q1"))
	s.Languages = []model.Language{
		{Code: "en", Default: true, Enabled: true},
		{Code: "de", Enabled: true},
	}
	e := New(s)

	st, err := e.SwitchLanguage(e.Start(""), "de")
	require.NoError(t, err)
	assert.Equal(t, "de", st.Language)

	_, err = e.SwitchLanguage(st, "it")
	assert.ErrorIs(t, err, ErrLanguageNotAvailable)
}

func TestEndEarlyOverride(t *testing.T) {
	s := testSurvey(openText("q1"), openText("q2"))
	e := New(s)

	st, err := e.Submit(e.Start(""), "q1", model.Text("x"), 0)
	require.NoError(t, err)
	require.Equal(t, "q2", st.Current)

	st = e.EndEarly(st)
	assert.Equal(t, "thank-you", st.Current)
	assert.True(t, st.Finished)
	assert.False(t, st.Failed)
	assert.Equal(t, model.Text("x"), st.Data["q1"])
}

func TestFailureChanceRoll(t *testing.T) {
	s := testSurvey(openText("q1"))
	s.FailureChance = 30

	fail := New(s, WithRoll(func() float64 { return 0.10 })) // 10 <= 30
	st, err := fail.Submit(fail.Start(""), "q1", model.Text("x"), 0)
	require.NoError(t, err)
	assert.True(t, st.Finished)
	assert.True(t, st.Failed)

	pass := New(s, WithRoll(func() float64 { return 0.90 })) // 90 > 30
	st, err = pass.Submit(pass.Start(""), "q1", model.Text("x"), 0)
	require.NoError(t, err)
	assert.True(t, st.Finished)
	assert.False(t, st.Failed)
}

func TestDisplayResolvesRecall(t *testing.T) {
	q2 := openText("q2")
	q2.Headline = model.LocalizedString{
		model.DefaultLanguage: "Why did you pick #recall:q1/fallback:thatnbspoption#?",
	}
	s := testSurvey(openText("q1"), q2)
	e := New(s)

	st, err := e.Submit(e.Start(""), "q1", model.Text("moon"), 0)
	require.NoError(t, err)

	d, err := e.Display(st, nil)
	require.NoError(t, err)
	assert.Equal(t, KindQuestion, d.Kind)
	assert.Equal(t, "Why did you pick moon?", d.Headline)
}

func TestDisplayEndingWithRedirect(t *testing.T) {
	s := testSurvey(openText("q1"))
	s.Endings = []model.Ending{{ID: "bye", Type: model.EndingRedirect, URL: "https://example.org/done"}}
	e := New(s)

	st, err := e.Submit(e.Start(""), "q1", model.Text("x"), 0)
	require.NoError(t, err)

	d, err := e.Display(st, nil)
	require.NoError(t, err)
	assert.Equal(t, KindEnding, d.Kind)
	assert.Equal(t, "https://example.org/done", d.RedirectURL)
}

func TestDisplayUnknownElementIsFatal(t *testing.T) {
	s := testSurvey(openText("q1"))
	e := New(s)

	st := e.Start("")
	st.Current = "ghost"
	_, err := e.Display(st, nil)
	assert.ErrorIs(t, err, ErrElementNotFound)
}
