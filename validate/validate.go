// Package validate runs the static analysis every survey definition
// must pass before it can be delivered to respondents. The runtime
// engine assumes validated input: cycles, duplicate ids, illegal
// conditions and recall self-references are all caught here, outside
// the navigation hot path, and surfaced to the survey author only.
package validate

import (
	"fmt"
	"strings"

	"github.com/pollwheel/pollwheel/engine"
	"github.com/pollwheel/pollwheel/model"
)

// Issue is one validation finding, addressed to the survey author.
type Issue struct {
	Code      string `json:"code"`
	ElementID string `json:"elementId,omitempty"`
	Message   string `json:"message"`
}

func issue(code, elementID, format string, args ...any) Issue {
	return Issue{Code: code, ElementID: elementID, Message: fmt.Sprintf(format, args...)}
}

// Survey checks every structural invariant of a definition and returns
// all findings. An empty result means the survey is deliverable.
func Survey(s *model.Survey) []Issue {
	var issues []Issue

	if len(s.Questions) == 0 {
		issues = append(issues, issue("survey.no_questions", "", "survey has no questions"))
	}
	if len(s.Endings) == 0 {
		issues = append(issues, issue("survey.no_endings", "", "survey has no ending"))
	}
	issues = append(issues, checkLanguages(s)...)
	issues = append(issues, checkSurveyTexts(s)...)

	seen := make(map[string]bool, len(s.Questions))
	for _, q := range s.Questions {
		base := q.Base()
		if seen[base.ID] {
			issues = append(issues, issue("question.duplicate_id", base.ID, "question id %q is not unique", base.ID))
		}
		seen[base.ID] = true

		issues = append(issues, checkTexts(q)...)
		issues = append(issues, checkRules(s, q)...)
		issues = append(issues, checkRecall(q)...)
	}

	cycles := engine.FindCycles(s.Questions)
	for _, q := range s.Questions {
		if cycles[q.Base().ID] {
			issues = append(issues, issue("logic.cyclic", q.Base().ID, "question %q is part of or leads into a logic loop", q.Base().ID))
		}
	}

	return issues
}

func checkLanguages(s *model.Survey) []Issue {
	if len(s.Languages) == 0 {
		return nil
	}
	defaults := 0
	for _, l := range s.Languages {
		if l.Default {
			defaults++
		}
	}
	if defaults != 1 {
		return []Issue{issue("language.default", "", "survey declares %d default languages, want exactly 1", defaults)}
	}
	return nil
}

// checkSurveyTexts verifies the welcome card and the endings carry
// default-language entries for every text they declare.
func checkSurveyTexts(s *model.Survey) []Issue {
	var issues []Issue

	optional := func(elementID, field string, ls model.LocalizedString) {
		if len(ls) > 0 && !ls.HasDefault() {
			issues = append(issues, issue("i18n.missing_default", elementID, "%s has no default-language text", field))
		}
	}
	if s.Welcome.Enabled {
		optional("", "welcome card headline", s.Welcome.Headline)
		optional("", "welcome card html", s.Welcome.HTML)
		optional("", "welcome card button label", s.Welcome.ButtonLabel)
	}
	for _, e := range s.Endings {
		optional(e.ID, "ending headline", e.Headline)
		optional(e.ID, "ending subheader", e.Subheader)
		optional(e.ID, "ending button label", e.ButtonLabel)
	}
	return issues
}

// checkTexts verifies every respondent-visible text carries a default
// entry, the fallback target of both rendering and rule normalization.
func checkTexts(q model.Question) []Issue {
	var issues []Issue
	base := q.Base()

	missing := func(field string) {
		issues = append(issues, issue("i18n.missing_default", base.ID, "question %q: %s has no default-language text", base.ID, field))
	}
	optional := func(field string, ls model.LocalizedString) {
		if len(ls) > 0 && !ls.HasDefault() {
			missing(field)
		}
	}
	if !base.Headline.HasDefault() {
		missing("headline")
	}
	optional("subheader", base.Subheader)

	switch vq := q.(type) {
	case *model.OpenTextQuestion:
		optional("placeholder", vq.Placeholder)
	case *model.RatingQuestion:
		optional("lower label", vq.LowerLabel)
		optional("upper label", vq.UpperLabel)
	case *model.NPSQuestion:
		optional("lower label", vq.LowerLabel)
		optional("upper label", vq.UpperLabel)
	case *model.CTAQuestion:
		optional("button label", vq.ButtonLabel)
	case *model.ConsentQuestion:
		// the consent statement is the question, it cannot be blank
		if !vq.Label.HasDefault() {
			missing("label")
		}
	}

	for _, c := range questionChoices(q) {
		if !c.Label.HasDefault() {
			issues = append(issues, issue("i18n.missing_default", base.ID, "question %q: choice %q has no default-language label", base.ID, c.ID))
		}
	}
	if mq, ok := q.(*model.MatrixQuestion); ok {
		for i, row := range mq.Rows {
			if !row.HasDefault() {
				issues = append(issues, issue("i18n.missing_default", base.ID, "question %q: matrix row %d has no default-language label", base.ID, i))
			}
		}
		for i, col := range mq.Columns {
			if !col.HasDefault() {
				issues = append(issues, issue("i18n.missing_default", base.ID, "question %q: matrix column %d has no default-language label", base.ID, i))
			}
		}
	}
	return issues
}

// valueKinds lists the operand shapes each comparing condition accepts.
// Conditions absent from the map take no operand at all. Numeric
// comparisons also accept a string, the evaluator coerces it.
var valueKinds = map[model.ConditionKind][]model.RuleValueKind{
	model.CondEquals:       {model.RuleValueText, model.RuleValueNumber},
	model.CondNotEquals:    {model.RuleValueText, model.RuleValueNumber},
	model.CondIncludesOne:  {model.RuleValueList},
	model.CondIncludesAll:  {model.RuleValueList},
	model.CondLessThan:     {model.RuleValueNumber, model.RuleValueText},
	model.CondLessEqual:    {model.RuleValueNumber, model.RuleValueText},
	model.CondGreaterThan:  {model.RuleValueNumber, model.RuleValueText},
	model.CondGreaterEqual: {model.RuleValueNumber, model.RuleValueText},
}

func valueShapeAllowed(cond model.ConditionKind, kind model.RuleValueKind) bool {
	kinds, takesValue := valueKinds[cond]
	if !takesValue {
		return kind == model.RuleValueNone
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func checkRules(s *model.Survey, q model.Question) []Issue {
	var issues []Issue
	base := q.Base()

	for i, rule := range base.Logic {
		if !model.ConditionAllowed(q.Type(), rule.Condition) {
			issues = append(issues, issue("logic.condition", base.ID,
				"question %q: condition %q is not allowed on %s questions", base.ID, rule.Condition, q.Type()))
		}
		if !valueShapeAllowed(rule.Condition, rule.Value.Kind) {
			issues = append(issues, issue("logic.value_shape", base.ID,
				"question %q: rule %d carries a value that condition %q cannot compare", base.ID, i, rule.Condition))
		}
		if base.Required && rule.Condition == model.CondSkipped {
			issues = append(issues, issue("logic.skip_required", base.ID,
				"question %q is required, a skipped rule can never apply", base.ID))
		}
		if rule.Destination == "" {
			issues = append(issues, issue("logic.no_destination", base.ID,
				"question %q: rule %d has no destination", base.ID, i))
			continue
		}
		if rule.Destination == model.DestinationEnd {
			continue
		}
		if _, ok := s.QuestionByID(rule.Destination); !ok {
			issues = append(issues, issue("logic.dangling_destination", base.ID,
				"question %q: rule %d jumps to unknown question %q", base.ID, i, rule.Destination))
		}
	}
	return issues
}

// checkRecall rejects question text that recalls its own answer.
func checkRecall(q model.Question) []Issue {
	base := q.Base()
	marker := "#recall:" + base.ID + "/"

	var issues []Issue
	for _, ls := range []model.LocalizedString{base.Headline, base.Subheader} {
		for _, text := range ls {
			if strings.Contains(text, marker) {
				issues = append(issues, issue("recall.self_reference", base.ID,
					"question %q recalls its own answer", base.ID))
				return issues
			}
		}
	}
	return issues
}

func questionChoices(q model.Question) []model.Choice {
	switch cq := q.(type) {
	case *model.SingleChoiceQuestion:
		return cq.Choices
	case *model.MultiChoiceQuestion:
		return cq.Choices
	case *model.RankingQuestion:
		return cq.Choices
	}
	return nil
}
