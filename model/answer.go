package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Answer is the value a respondent produced for one question. It is a
// closed union: text, number, a list of selections, or a keyed record
// (matrix rows, address fields, contact fields).
type Answer interface {
	answer()
}

type (
	// Text is a free-text, date, choice-label or marker answer.
	Text string
	// Number is a rating or NPS answer.
	Number float64
	// Selection holds multi-choice labels, rankings or uploaded file URLs.
	Selection []string
	// Record maps row or field identifiers to their entered values.
	Record map[string]string
)

func (Text) answer()      {}
func (Number) answer()    {}
func (Selection) answer() {}
func (Record) answer()    {}

// Marker answers produced by interaction-only question types.
const (
	AnswerClicked  = Text("clicked")
	AnswerAccepted = Text("accepted")
	AnswerBooked   = Text("booked")
)

// IsEmpty reports whether the answer counts as "not given". An empty
// string, an empty selection and a record with no filled values are all
// treated as skipped; a number is always a given answer.
func IsEmpty(a Answer) bool {
	switch v := a.(type) {
	case nil:
		return true
	case Text:
		return v == ""
	case Number:
		return false
	case Selection:
		return len(v) == 0
	case Record:
		for _, s := range v {
			if s != "" {
				return false
			}
		}
		return true
	}
	return true
}

// Format renders the answer as the literal text used for recall
// substitution and logging.
func Format(a Answer) string {
	switch v := a.(type) {
	case Text:
		return string(v)
	case Number:
		return strconv.FormatFloat(float64(v), 'f', -1, 64)
	case Selection:
		return strings.Join(v, ", ")
	case Record:
		keys := make([]string, 0, len(v))
		for k := range v {
			if v[k] != "" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = v[k]
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// DecodeAnswer parses a raw JSON answer value into its union variant.
func DecodeAnswer(raw json.RawMessage) (Answer, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Text(s), nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return Number(n), nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return Selection(list), nil
	}
	var rec map[string]string
	if err := json.Unmarshal(raw, &rec); err == nil {
		return Record(rec), nil
	}

	return nil, fmt.Errorf("answer value %q has an unsupported shape", raw)
}

// ResponseData accumulates the answer fragments of one session, keyed by
// question id.
type ResponseData map[string]Answer

// UnmarshalJSON decodes each fragment through DecodeAnswer so the union
// types survive a round trip through storage.
func (d *ResponseData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ResponseData, len(raw))
	for id, r := range raw {
		a, err := DecodeAnswer(r)
		if err != nil {
			return fmt.Errorf("answer for %q: %w", id, err)
		}
		out[id] = a
	}
	*d = out
	return nil
}

// TTC accumulates elapsed display time per question id, in milliseconds.
type TTC map[string]int64
