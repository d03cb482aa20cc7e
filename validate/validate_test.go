package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollwheel/pollwheel/model"
)

func defaultText(s string) model.LocalizedString {
	return model.LocalizedString{model.DefaultLanguage: s}
}

func question(id string, rules ...model.LogicRule) *model.OpenTextQuestion {
	return &model.OpenTextQuestion{QuestionBase: model.QuestionBase{
		ID:       id,
		Headline: defaultText("headline " + id),
		Logic:    rules,
	}}
}

func validSurvey(questions ...model.Question) *model.Survey {
	return &model.Survey{
		Name:      "valid",
		Questions: questions,
		Endings:   []model.Ending{{ID: "end-1", Type: model.EndingScreen, Headline: defaultText("Thanks")}},
	}
}

func codes(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func TestValidSurveyHasNoIssues(t *testing.T) {
	s := validSurvey(
		question("q1", model.LogicRule{Condition: model.CondSubmitted, Destination: "q2"}),
		question("q2"),
	)
	assert.Empty(t, Survey(s))
}

func TestDuplicateQuestionIDs(t *testing.T) {
	s := validSurvey(question("q1"), question("q1"))
	assert.Contains(t, codes(Survey(s)), "question.duplicate_id")
}

func TestMissingDefaultLanguageText(t *testing.T) {
	q := question("q1")
	q.Headline = model.LocalizedString{"de": "nur Deutsch"}
	s := validSurvey(q)
	assert.Contains(t, codes(Survey(s)), "i18n.missing_default")
}

func TestMissingDefaultChoiceLabel(t *testing.T) {
	q := &model.SingleChoiceQuestion{
		QuestionBase: model.QuestionBase{ID: "q1", Headline: defaultText("pick")},
		Choices: []model.Choice{
			{ID: "a", Label: defaultText("sun")},
			{ID: "b", Label: model.LocalizedString{"de": "Mond"}},
		},
	}
	assert.Contains(t, codes(Survey(validSurvey(q))), "i18n.missing_default")
}

func TestMissingDefaultWelcomeText(t *testing.T) {
	s := validSurvey(question("q1"))
	s.Welcome = model.WelcomeCard{
		Enabled:  true,
		Headline: model.LocalizedString{"de": "Willkommen"},
	}
	assert.Contains(t, codes(Survey(s)), "i18n.missing_default")

	// a disabled welcome card is never rendered, its texts do not count
	s.Welcome.Enabled = false
	assert.Empty(t, Survey(s))
}

func TestMissingDefaultEndingText(t *testing.T) {
	s := validSurvey(question("q1"))
	s.Endings[0].ButtonLabel = model.LocalizedString{"de": "Fertig"}
	assert.Contains(t, codes(Survey(s)), "i18n.missing_default")
}

func TestMissingDefaultVariantTexts(t *testing.T) {
	open := question("q1")
	open.Placeholder = model.LocalizedString{"de": "Ihre Antwort"}

	rating := &model.RatingQuestion{
		QuestionBase: model.QuestionBase{ID: "q2", Headline: defaultText("rate us")},
		Scale:        "star",
		Range:        5,
		LowerLabel:   model.LocalizedString{"de": "schlecht"},
	}
	consent := &model.ConsentQuestion{
		QuestionBase: model.QuestionBase{ID: "q3", Headline: defaultText("terms")},
	}

	got := codes(Survey(validSurvey(open, rating, consent)))
	count := 0
	for _, c := range got {
		if c == "i18n.missing_default" {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestRuleValueShape(t *testing.T) {
	listOnEquals := &model.SingleChoiceQuestion{
		QuestionBase: model.QuestionBase{
			ID:       "q1",
			Headline: defaultText("pick one"),
			Logic: []model.LogicRule{{
				Condition:   model.CondEquals,
				Value:       model.RuleValue{Kind: model.RuleValueList, List: []string{"a"}},
				Destination: model.DestinationEnd,
			}},
		},
		Choices: []model.Choice{{ID: "a", Label: defaultText("a")}},
	}
	textOnIncludes := &model.MultiChoiceQuestion{
		QuestionBase: model.QuestionBase{
			ID:       "q2",
			Headline: defaultText("pick some"),
			Logic: []model.LogicRule{{
				Condition:   model.CondIncludesOne,
				Value:       model.RuleValue{Kind: model.RuleValueText, Text: "a"},
				Destination: model.DestinationEnd,
			}},
		},
		Choices: []model.Choice{{ID: "a", Label: defaultText("a")}},
	}
	valueOnPresence := question("q3", model.LogicRule{
		Condition:   model.CondSubmitted,
		Value:       model.RuleValue{Kind: model.RuleValueNumber, Number: 1},
		Destination: model.DestinationEnd,
	})

	got := codes(Survey(validSurvey(listOnEquals, textOnIncludes, valueOnPresence)))
	count := 0
	for _, c := range got {
		if c == "logic.value_shape" {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

// A required question cannot legally carry a skipped rule; the author
// gets the rejection, the navigation engine never sees the survey.
func TestSkippedRuleOnRequiredQuestion(t *testing.T) {
	q := question("q1", model.LogicRule{Condition: model.CondSkipped, Destination: model.DestinationEnd})
	q.Required = true
	assert.Contains(t, codes(Survey(validSurvey(q, question("q2")))), "logic.skip_required")
}

func TestIllegalConditionForVariant(t *testing.T) {
	q := question("q1", model.LogicRule{
		Condition:   model.CondLessThan,
		Value:       model.RuleValue{Kind: model.RuleValueNumber, Number: 5},
		Destination: model.DestinationEnd,
	})
	assert.Contains(t, codes(Survey(validSurvey(q))), "logic.condition")
}

func TestRuleDestinations(t *testing.T) {
	missing := question("q1", model.LogicRule{Condition: model.CondSubmitted})
	dangling := question("q2", model.LogicRule{Condition: model.CondSubmitted, Destination: "nope"})
	got := codes(Survey(validSurvey(missing, dangling)))
	assert.Contains(t, got, "logic.no_destination")
	assert.Contains(t, got, "logic.dangling_destination")
}

func TestRecallSelfReference(t *testing.T) {
	q := question("q1")
	q.Headline = defaultText("You said #recall:q1/fallback:nothing# before")
	assert.Contains(t, codes(Survey(validSurvey(q))), "recall.self_reference")
}

func TestCyclicLogicFlagged(t *testing.T) {
	s := validSurvey(
		question("q1", model.LogicRule{Condition: model.CondSubmitted, Destination: "q2"}),
		question("q2", model.LogicRule{Condition: model.CondSubmitted, Destination: "q1"}),
	)
	issues := Survey(s)
	require.NotEmpty(t, issues)

	flagged := map[string]bool{}
	for _, is := range issues {
		if is.Code == "logic.cyclic" {
			flagged[is.ElementID] = true
		}
	}
	assert.True(t, flagged["q1"])
	assert.True(t, flagged["q2"])
}

func TestEmptySurvey(t *testing.T) {
	got := codes(Survey(&model.Survey{Name: "empty"}))
	assert.Contains(t, got, "survey.no_questions")
	assert.Contains(t, got, "survey.no_endings")
}

func TestLanguageDefaults(t *testing.T) {
	s := validSurvey(question("q1"))
	s.Languages = []model.Language{
		{Code: "en", Enabled: true},
		{Code: "de", Enabled: true},
	}
	assert.Contains(t, codes(Survey(s)), "language.default")

	s.Languages[0].Default = true
	assert.Empty(t, Survey(s))

	s.Languages[1].Default = true
	assert.Contains(t, codes(Survey(s)), "language.default")
}
