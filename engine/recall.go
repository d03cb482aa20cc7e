// Package engine implements the survey runtime: recall substitution,
// logic-rule evaluation, cyclic-logic detection, time-to-complete
// accounting, the navigation state machine and response assembly. All
// functions are pure; the host owns the single mutable State reference
// and drives transitions from respondent events.
package engine

import (
	"regexp"
	"strings"

	"github.com/pollwheel/pollwheel/model"
)

// Recall markers have the shape #recall:<sourceId>/fallback:<literal>#
// where the fallback literal encodes spaces as "nbsp" so the marker
// stays a single token in authored text.
var recallPattern = regexp.MustCompile(`#recall:([A-Za-z0-9_-]+)/fallback:([^#]*)#`)

// ResolveRecall substitutes every recall marker in the selected-language
// text with the referenced answer or hidden-field value, or with the
// authored fallback when the source has no value yet. The result never
// contains marker syntax, which makes resolution idempotent.
func ResolveRecall(text model.LocalizedString, lang string, data model.ResponseData, hidden map[string]string) string {
	return ResolveRecallString(text.Get(lang), data, hidden)
}

// ResolveRecallString is the raw-string form of ResolveRecall. Markers
// are replaced in a single left-to-right pass over the authored text;
// substituted values are never rescanned and any marker syntax a value
// itself carries is neutralized, so no raw token survives resolution.
func ResolveRecallString(s string, data model.ResponseData, hidden map[string]string) string {
	matches := recallPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var out strings.Builder
	out.Grow(len(s))
	last := 0
	for _, m := range matches {
		out.WriteString(s[last:m[0]])
		id, fallback := s[m[2]:m[3]], s[m[4]:m[5]]
		out.WriteString(recallValue(id, fallback, data, hidden))
		last = m[1]
	}
	out.WriteString(s[last:])
	return out.String()
}

func recallValue(id, fallback string, data model.ResponseData, hidden map[string]string) string {
	if v, ok := hidden[id]; ok && v != "" {
		return neutralizeMarkers(v)
	}
	if a, ok := data[id]; ok && !model.IsEmpty(a) {
		return neutralizeMarkers(model.Format(a))
	}
	return decodeFallback(fallback)
}

// neutralizeMarkers defuses marker syntax inside a substituted value:
// a respondent answer that happens to spell a marker must not recall
// another answer, it degrades to its own fallback literal.
func neutralizeMarkers(s string) string {
	if !strings.Contains(s, "#recall:") {
		return s
	}
	return recallPattern.ReplaceAllStringFunc(s, func(marker string) string {
		groups := recallPattern.FindStringSubmatch(marker)
		return decodeFallback(groups[2])
	})
}

func decodeFallback(s string) string {
	return strings.ReplaceAll(s, "nbsp", " ")
}
