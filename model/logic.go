package model

import (
	"encoding/json"
	"fmt"
)

// ConditionKind enumerates the branching conditions a logic rule can use.
type ConditionKind string

const (
	CondSubmitted    ConditionKind = "submitted"
	CondSkipped      ConditionKind = "skipped"
	CondEquals       ConditionKind = "equals"
	CondNotEquals    ConditionKind = "notEquals"
	CondIncludesOne  ConditionKind = "includesOne"
	CondIncludesAll  ConditionKind = "includesAll"
	CondLessThan     ConditionKind = "lessThan"
	CondLessEqual    ConditionKind = "lessEqual"
	CondGreaterThan  ConditionKind = "greaterThan"
	CondGreaterEqual ConditionKind = "greaterEqual"
	CondClicked      ConditionKind = "clicked"
	CondAccepted     ConditionKind = "accepted"
	CondBooked       ConditionKind = "booked"
	CondUploaded     ConditionKind = "uploaded"
	CondNotUploaded  ConditionKind = "notUploaded"
	CondMatrixFull   ConditionKind = "isCompletelySubmitted"
	CondMatrixPart   ConditionKind = "isPartiallySubmitted"
)

// DestinationEnd is the rule destination that jumps to the survey ending.
const DestinationEnd = "end"

// AllowedConditions restricts which conditions are legal per question
// variant. The evaluator dispatches on this pairing and the validator
// rejects anything outside it.
var AllowedConditions = map[QuestionType][]ConditionKind{
	TypeOpenText:         {CondSubmitted, CondSkipped},
	TypeSingleChoice:     {CondSubmitted, CondSkipped, CondEquals, CondNotEquals},
	TypeMultiChoice:      {CondSubmitted, CondSkipped, CondEquals, CondNotEquals, CondIncludesOne, CondIncludesAll},
	TypePictureSelection: {CondSubmitted, CondSkipped, CondEquals, CondNotEquals, CondIncludesOne, CondIncludesAll},
	TypeRating:           {CondSubmitted, CondSkipped, CondEquals, CondNotEquals, CondLessThan, CondLessEqual, CondGreaterThan, CondGreaterEqual},
	TypeNPS:              {CondSubmitted, CondSkipped, CondEquals, CondNotEquals, CondLessThan, CondLessEqual, CondGreaterThan, CondGreaterEqual},
	TypeCTA:              {CondClicked, CondSkipped},
	TypeAd:               {CondClicked, CondSkipped},
	TypeConsent:          {CondAccepted, CondSkipped},
	TypeDate:             {CondSubmitted, CondSkipped},
	TypeFileUpload:       {CondUploaded, CondNotUploaded},
	TypeMatrix:           {CondSubmitted, CondSkipped, CondMatrixFull, CondMatrixPart},
	TypeAddress:          {CondSubmitted, CondSkipped},
	TypeScheduling:       {CondBooked, CondSkipped},
	TypeRanking:          {CondSubmitted, CondSkipped},
	TypeContactInfo:      {CondSubmitted, CondSkipped},
}

// ConditionAllowed reports whether the condition is legal on the variant.
func ConditionAllowed(t QuestionType, c ConditionKind) bool {
	for _, k := range AllowedConditions[t] {
		if k == c {
			return true
		}
	}
	return false
}

// RuleValueKind tags which shape a rule value carries.
type RuleValueKind int

const (
	RuleValueNone RuleValueKind = iota
	RuleValueText
	RuleValueList
	RuleValueNumber
)

// RuleValue is the comparison operand of a logic rule: a single string,
// a string list, or a number, depending on the condition.
type RuleValue struct {
	Kind   RuleValueKind
	Text   string
	List   []string
	Number float64
}

func (v RuleValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case RuleValueText:
		return json.Marshal(v.Text)
	case RuleValueList:
		return json.Marshal(v.List)
	case RuleValueNumber:
		return json.Marshal(v.Number)
	}
	return []byte("null"), nil
}

func (v *RuleValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = RuleValue{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = RuleValue{Kind: RuleValueText, Text: s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = RuleValue{Kind: RuleValueList, List: list}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = RuleValue{Kind: RuleValueNumber, Number: n}
		return nil
	}
	return fmt.Errorf("rule value %q has an unsupported shape", data)
}

// LogicRule routes the respondent to Destination when Condition holds
// for the current question's answer. Destination is a question id or
// DestinationEnd. Rules are evaluated in authored order, first match
// wins.
type LogicRule struct {
	Condition   ConditionKind `json:"condition"`
	Value       RuleValue     `json:"value,omitempty"`
	Destination string        `json:"destination"`
}
