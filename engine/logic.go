package engine

import (
	"strconv"
	"strings"

	"github.com/pollwheel/pollwheel/model"
)

// EvaluateRule decides whether one logic rule's condition holds for the
// answer given to its question. Conditions outside the variant's allowed
// set never match; a validated survey does not contain them.
func EvaluateRule(q model.Question, rule model.LogicRule, ans model.Answer) bool {
	if !model.ConditionAllowed(q.Type(), rule.Condition) {
		return false
	}

	switch rule.Condition {
	case model.CondSubmitted:
		return !model.IsEmpty(ans)
	case model.CondSkipped:
		return model.IsEmpty(ans)

	case model.CondEquals:
		return equals(q, rule.Value, ans)
	case model.CondNotEquals:
		return !model.IsEmpty(ans) && !equals(q, rule.Value, ans)

	case model.CondIncludesOne:
		return includes(q, rule.Value.List, ans, false)
	case model.CondIncludesAll:
		return includes(q, rule.Value.List, ans, true)

	case model.CondLessThan, model.CondLessEqual, model.CondGreaterThan, model.CondGreaterEqual:
		n, ok := toNumber(ans)
		if !ok {
			return false
		}
		return compareNumber(rule.Condition, n, ruleNumber(rule.Value))

	case model.CondClicked:
		return ans == model.AnswerClicked
	case model.CondAccepted:
		return ans == model.AnswerAccepted
	case model.CondBooked:
		return ans == model.AnswerBooked

	case model.CondUploaded:
		return !model.IsEmpty(ans)
	case model.CondNotUploaded:
		return model.IsEmpty(ans)

	case model.CondMatrixFull, model.CondMatrixPart:
		return matrixProgress(q, rule.Condition, ans)
	}
	return false
}

// equals compares the answer against the rule literal. Choice answers
// are normalized to their default-language labels first: rules are
// authored once against the default language while respondents answer
// in any of the survey's languages.
func equals(q model.Question, value model.RuleValue, ans model.Answer) bool {
	switch v := ans.(type) {
	case model.Text:
		if value.Kind == model.RuleValueNumber {
			n, ok := toNumber(ans)
			return ok && n == value.Number
		}
		return normalizeLabel(q, string(v)) == value.Text
	case model.Number:
		if value.Kind == model.RuleValueText {
			n, err := strconv.ParseFloat(strings.TrimSpace(value.Text), 64)
			return err == nil && float64(v) == n
		}
		return float64(v) == value.Number
	case model.Selection:
		// a multi-select equals a single literal only when it is the
		// sole selected option
		return len(v) == 1 && normalizeLabel(q, v[0]) == value.Text
	}
	return false
}

func includes(q model.Question, expected []string, ans model.Answer, all bool) bool {
	sel, ok := ans.(model.Selection)
	if !ok || len(sel) == 0 {
		return false
	}
	chosen := make(map[string]bool, len(sel))
	for _, s := range sel {
		chosen[normalizeLabel(q, s)] = true
	}
	if all {
		for _, e := range expected {
			if !chosen[e] {
				return false
			}
		}
		return len(expected) > 0
	}
	for _, e := range expected {
		if chosen[e] {
			return true
		}
	}
	return false
}

// normalizeLabel maps a localized choice label back to its
// default-language form. Unmatched values (free-form "other" input,
// non-choice questions) pass through unchanged.
func normalizeLabel(q model.Question, value string) string {
	var choices []model.Choice
	switch cq := q.(type) {
	case *model.SingleChoiceQuestion:
		choices = cq.Choices
	case *model.MultiChoiceQuestion:
		choices = cq.Choices
	case *model.RankingQuestion:
		choices = cq.Choices
	default:
		return value
	}
	for _, c := range choices {
		for _, label := range c.Label {
			if label == value {
				return c.Label[model.DefaultLanguage]
			}
		}
	}
	return value
}

func toNumber(ans model.Answer) (float64, bool) {
	switch v := ans.(type) {
	case model.Number:
		return float64(v), true
	case model.Text:
		n, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		return n, err == nil
	}
	return 0, false
}

func ruleNumber(v model.RuleValue) float64 {
	if v.Kind == model.RuleValueText {
		n, _ := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		return n
	}
	return v.Number
}

func compareNumber(cond model.ConditionKind, got, want float64) bool {
	switch cond {
	case model.CondLessThan:
		return got < want
	case model.CondLessEqual:
		return got <= want
	case model.CondGreaterThan:
		return got > want
	case model.CondGreaterEqual:
		return got >= want
	}
	return false
}

// matrixProgress compares answered row count against the row total.
func matrixProgress(q model.Question, cond model.ConditionKind, ans model.Answer) bool {
	mq, ok := q.(*model.MatrixQuestion)
	if !ok || len(mq.Rows) == 0 {
		return false
	}
	answered := 0
	if rec, ok := ans.(model.Record); ok {
		for _, v := range rec {
			if v != "" {
				answered++
			}
		}
	}
	if cond == model.CondMatrixFull {
		return answered == len(mq.Rows)
	}
	return answered > 0 && answered < len(mq.Rows)
}
