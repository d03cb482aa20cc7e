package engine

import "github.com/pollwheel/pollwheel/model"

// MergeAnswer folds one answer fragment into the response data,
// copy-on-write. A nil answer records the question as visited but
// unanswered, which the skipped condition relies on.
func MergeAnswer(data model.ResponseData, questionID string, ans model.Answer) model.ResponseData {
	out := make(model.ResponseData, len(data)+1)
	for id, a := range data {
		out[id] = a
	}
	out[questionID] = ans
	return out
}

// Finalize assembles the outbound response document. Called once at the
// transition into an ending, or earlier for a save-in-progress, in which
// case finished is false and the data may cover only part of the survey.
func Finalize(data model.ResponseData, ttc model.TTC, language string, finished, failed bool, meta model.Meta) model.ResponsePayload {
	if data == nil {
		data = model.ResponseData{}
	}
	if ttc == nil {
		ttc = model.TTC{}
	}
	return model.ResponsePayload{
		Data:     data,
		TTC:      ttc,
		Finished: finished,
		Language: language,
		Failed:   failed,
		Meta:     meta,
	}
}
