package engine

import "github.com/pollwheel/pollwheel/model"

// Fixture helpers shared by the engine tests.

func text(s string) model.LocalizedString {
	return model.LocalizedString{model.DefaultLanguage: s}
}

func base(id string, rules ...model.LogicRule) model.QuestionBase {
	return model.QuestionBase{ID: id, Headline: text("headline " + id), Logic: rules}
}

func openText(id string, rules ...model.LogicRule) *model.OpenTextQuestion {
	return &model.OpenTextQuestion{QuestionBase: base(id, rules...)}
}

func nps(id string, rules ...model.LogicRule) *model.NPSQuestion {
	return &model.NPSQuestion{QuestionBase: base(id, rules...)}
}

func choice(id string, labels ...model.LocalizedString) *model.SingleChoiceQuestion {
	q := &model.SingleChoiceQuestion{QuestionBase: base(id)}
	for i, l := range labels {
		q.Choices = append(q.Choices, model.Choice{ID: string(rune('a' + i)), Label: l})
	}
	return q
}

func rule(cond model.ConditionKind, dest string) model.LogicRule {
	return model.LogicRule{Condition: cond, Destination: dest}
}

func ruleText(cond model.ConditionKind, value, dest string) model.LogicRule {
	return model.LogicRule{
		Condition:   cond,
		Value:       model.RuleValue{Kind: model.RuleValueText, Text: value},
		Destination: dest,
	}
}

func ruleNum(cond model.ConditionKind, value float64, dest string) model.LogicRule {
	return model.LogicRule{
		Condition:   cond,
		Value:       model.RuleValue{Kind: model.RuleValueNumber, Number: value},
		Destination: dest,
	}
}

func testSurvey(questions ...model.Question) *model.Survey {
	return &model.Survey{
		Name:      "test survey",
		Questions: questions,
		Endings:   []model.Ending{{ID: "thank-you", Type: model.EndingScreen, Headline: text("Thanks!")}},
	}
}
