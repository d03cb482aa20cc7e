package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pollwheel/pollwheel/app"
	"github.com/pollwheel/pollwheel/engine"
	"github.com/pollwheel/pollwheel/httpx"
	"github.com/pollwheel/pollwheel/log"
	"github.com/pollwheel/pollwheel/model"
)

var checkRequest = validator.New(validator.WithRequiredStructEnabled())

type startSessionRequest struct {
	Language     string            `json:"language" validate:"omitempty,max=16"`
	HiddenFields map[string]string `json:"hiddenFields" validate:"omitempty,max=50"`
	SingleUseKey string            `json:"singleUseKey" validate:"omitempty,max=128"`
	Meta         map[string]string `json:"meta" validate:"omitempty,max=50"`
}

type submitAnswerRequest struct {
	QuestionID string          `json:"questionId" validate:"required,max=64"`
	Answer     json.RawMessage `json:"answer"`
	TTC        int64           `json:"ttc" validate:"gte=0"`
}

type switchLanguageRequest struct {
	Language string `json:"language" validate:"required,max=16"`
}

// transitionResponse is the host's answer to every session event: the
// next element to render, with recall already resolved.
type transitionResponse struct {
	SessionID string         `json:"sessionId,omitempty"`
	Element   engine.Display `json:"element"`
	Finished  bool           `json:"finished"`
	Failed    bool           `json:"failed,omitempty"`
}

// sessionRow is one session record plus the survey it runs against.
type sessionRow struct {
	ID           string
	SurveyID     string
	State        engine.State
	HiddenFields map[string]string
	Meta         model.Meta
	SingleUseKey string
	Closed       bool
	UpdatedAt    string
}

// StartSession creates a respondent session against a stored survey and
// returns the first display element.
func StartSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		req := startSessionRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := checkRequest.Struct(req); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "%s", err)
			return
		}

		survey, err := loadSurvey(r.Context(), app, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		if survey.SingleUse {
			if req.SingleUseKey == "" {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "session.single_use_key_required")
				return
			}
			var used bool
			err = app.QueryRowContext(r.Context(), `
				SELECT 1 FROM response
				WHERE survey_id = ?
					AND single_use_key = ?
					AND finished`,
				surveyId,
				req.SingleUseKey,
			).Scan(&used)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				httpx.LogInternalError(w, "db.get_single_use", err)
				return
			}
			if used {
				httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "session.single_use_spent")
				return
			}
		}

		eng := engine.New(survey)
		state := eng.Start(req.Language)

		display, err := eng.Display(state, req.HiddenFields)
		if err != nil {
			httpx.LogInternalError(w, "session.display", err)
			return
		}

		row := sessionRow{
			ID:           uuid.NewString(),
			SurveyID:     surveyId,
			State:        state,
			HiddenFields: req.HiddenFields,
			Meta:         req.Meta,
			SingleUseKey: req.SingleUseKey,
		}
		if err := insertSession(r.Context(), app, row); err != nil {
			httpx.LogInternalError(w, "db.insert_session", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, transitionResponse{
			SessionID: row.ID,
			Element:   display,
			Finished:  state.Finished,
			Failed:    state.Failed,
		})
	}
}

// SubmitAnswer runs one forward transition: merge the answer, evaluate
// the question's logic, persist the new state and hand back the next
// element. Reaching an ending finalizes the response document.
func SubmitAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := submitAnswerRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := checkRequest.Struct(req); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "%s", err)
			return
		}

		answer, err := model.DecodeAnswer(req.Answer)
		if err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.parse_answer", "%s", err)
			return
		}

		transition(app, w, r, func(eng *engine.Engine, row *sessionRow) (engine.State, error) {
			return eng.Submit(row.State, req.QuestionID, answer, req.TTC)
		})
	}
}

// StepBack pops the navigation history by one element.
func StepBack(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transition(app, w, r, func(eng *engine.Engine, row *sessionRow) (engine.State, error) {
			return eng.Back(row.State)
		})
	}
}

// SwitchLanguage changes the session's presentation language.
func SwitchLanguage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := switchLanguageRequest{}
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if err := checkRequest.Struct(req); err != nil {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "%s", err)
			return
		}

		transition(app, w, r, func(eng *engine.Engine, row *sessionRow) (engine.State, error) {
			return eng.SwitchLanguage(row.State, req.Language)
		})
	}
}

// EndSession is the externally triggered state override: a collaborator
// (quota evaluation) decided the survey should end for this respondent.
// The session jumps to the ending and the response counts as finished.
func EndSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transition(app, w, r, func(eng *engine.Engine, row *sessionRow) (engine.State, error) {
			return eng.EndEarly(row.State), nil
		})
	}
}

// CloseSession finalizes a save-in-progress on respondent abandonment:
// the partial answers are stored with finished=false and the session
// stops accepting transitions.
func CloseSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionId := chi.URLParam(r, "id")

		row, err := loadSession(r.Context(), app, sessionId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_session", sessionId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_session", err)
			return
		}
		if row.Closed {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "session.closed")
			return
		}

		st := row.State
		payload := engine.Finalize(st.Data, st.TTC, st.Language, false, false, row.Meta)
		if err := storeResponse(r.Context(), app, row, payload); err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}
		if err := closeSession(r.Context(), app, row); err != nil {
			httpx.LogInternalError(w, "db.close_session", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"finished": false,
			"saved":    true,
		})
	}
}

// transition loads the session, applies one pure engine step, persists
// the new state under an optimistic concurrency guard and renders the
// next element. Finishing transitions also store the final response.
func transition(app app.App, w http.ResponseWriter, r *http.Request, step func(*engine.Engine, *sessionRow) (engine.State, error)) {
	sessionId := chi.URLParam(r, "id")

	row, err := loadSession(r.Context(), app, sessionId)
	if errors.Is(err, sql.ErrNoRows) {
		httpx.LogNotFound(w, "get_session", sessionId)
		return
	}
	if err != nil {
		httpx.LogInternalError(w, "db.get_session", err)
		return
	}
	if row.Closed {
		httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "session.closed")
		return
	}

	survey, err := loadSurvey(r.Context(), app, row.SurveyID)
	if err != nil {
		httpx.LogInternalError(w, "db.get_survey", err)
		return
	}

	eng := engine.New(survey)
	state, err := step(eng, &row)
	switch {
	case errors.Is(err, engine.ErrSessionFinished):
		httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "session.finished")
		return
	case errors.Is(err, engine.ErrWrongQuestion):
		httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "session.wrong_question")
		return
	case errors.Is(err, engine.ErrAtStart), errors.Is(err, engine.ErrLanguageNotAvailable):
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "session.transition", "%s", err)
		return
	case err != nil:
		// element-not-found and anything unexpected: data integrity bug,
		// show the generic failure state
		httpx.LogSessionFailure(w, "session.transition", err)
		return
	}

	display, err := eng.Display(state, row.HiddenFields)
	if err != nil {
		httpx.LogSessionFailure(w, "session.display", err)
		return
	}

	updated, err := saveState(r.Context(), app, &row, state)
	if err != nil {
		httpx.LogInternalError(w, "db.update_session", err)
		return
	}
	if !updated {
		// a concurrent transition won; per-session ordering is strict
		httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "session.concurrent_transition")
		return
	}

	if state.Finished {
		payload := engine.Finalize(state.Data, state.TTC, state.Language, true, state.Failed, row.Meta)
		if err := storeResponse(r.Context(), app, row, payload); err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}
		if err := closeSession(r.Context(), app, row); err != nil {
			httpx.LogInternalError(w, "db.close_session", err)
			return
		}
	}

	render.JSON(w, r, transitionResponse{
		Element:  display,
		Finished: state.Finished,
		Failed:   state.Failed,
	})
}

func insertSession(ctx context.Context, app app.App, row sessionRow) error {
	state, err := json.Marshal(row.State)
	if err != nil {
		return err
	}
	hidden, err := json.Marshal(orEmpty(row.HiddenFields))
	if err != nil {
		return err
	}
	meta, err := json.Marshal(orEmpty(row.Meta))
	if err != nil {
		return err
	}

	_, err = app.ExecContext(ctx, `
		INSERT INTO session (id, survey_id, state, hidden_fields, meta, single_use_key, closed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, FALSE, ?, ?)`,
		row.ID,
		row.SurveyID,
		string(state),
		string(hidden),
		string(meta),
		row.SingleUseKey,
		time.Now().UTC(),
		stamp(),
	)
	return err
}

func loadSession(ctx context.Context, app app.App, id string) (row sessionRow, err error) {
	var state, hidden, meta string
	err = app.QueryRowContext(ctx, `
		SELECT id, survey_id, state, hidden_fields, meta, single_use_key, closed, updated_at
		FROM session WHERE id = ?`,
		id,
	).Scan(&row.ID, &row.SurveyID, &state, &hidden, &meta, &row.SingleUseKey, &row.Closed, &row.UpdatedAt)
	if err != nil {
		return
	}

	if err = json.Unmarshal([]byte(state), &row.State); err != nil {
		return
	}
	if err = json.Unmarshal([]byte(hidden), &row.HiddenFields); err != nil {
		return
	}
	err = json.Unmarshal([]byte(meta), &row.Meta)
	return
}

// saveState persists a new engine state. The updated_at guard keeps
// transitions strictly sequential per session: a stale write loses.
func saveState(ctx context.Context, app app.App, row *sessionRow, state engine.State) (bool, error) {
	encoded, err := json.Marshal(state)
	if err != nil {
		return false, err
	}

	next := stamp()
	result, err := app.ExecContext(ctx, `
		UPDATE session SET state = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?`,
		string(encoded),
		next,
		row.ID,
		row.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	row.State = state
	row.UpdatedAt = next
	return true, nil
}

func storeResponse(ctx context.Context, app app.App, row sessionRow, payload model.ResponsePayload) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = app.ExecContext(ctx, `
		INSERT INTO response (id, survey_id, session_id, payload, finished, single_use_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		row.SurveyID,
		row.ID,
		string(encoded),
		payload.Finished,
		row.SingleUseKey,
		time.Now().UTC(),
	)
	return err
}

func closeSession(ctx context.Context, app app.App, row sessionRow) error {
	_, err := app.ExecContext(ctx, `
		UPDATE session SET closed = TRUE WHERE id = ?`,
		row.ID,
	)
	return err
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func orEmpty[M ~map[string]string](m M) M {
	if m == nil {
		return M{}
	}
	return m
}
