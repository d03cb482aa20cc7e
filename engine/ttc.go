package engine

import "github.com/pollwheel/pollwheel/model"

// RecordTTC adds elapsed display time to the accumulator for a question
// and returns a new map, leaving the input untouched. Repeat visits
// (back navigation, branch revisits) accumulate rather than overwrite.
func RecordTTC(ttc model.TTC, questionID string, elapsedMs int64) model.TTC {
	out := make(model.TTC, len(ttc)+1)
	for id, ms := range ttc {
		out[id] = ms
	}
	if elapsedMs > 0 {
		out[questionID] += elapsedMs
	}
	return out
}
