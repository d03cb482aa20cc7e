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
	"github.com/google/uuid"

	"github.com/pollwheel/pollwheel/app"
	"github.com/pollwheel/pollwheel/httpx"
	"github.com/pollwheel/pollwheel/log"
	"github.com/pollwheel/pollwheel/model"
	"github.com/pollwheel/pollwheel/validate"
)

// CreateSurvey accepts a survey definition, runs the pre-delivery static
// analysis and stores the definition only when it is clean. Respondents
// can never be routed into an unvalidated survey.
func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if issues := validate.Survey(&survey); len(issues) > 0 {
			log.Debugf("survey.validate: %d issues", len(issues))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, map[string]any{"issues": issues})
			return
		}

		survey.ID = uuid.NewString()
		definition, err := json.Marshal(survey)
		if err != nil {
			httpx.LogInternalError(w, "survey.encode", err)
			return
		}

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO survey (id, name, definition, created_at)
			VALUES (?, ?, ?, ?)`,
			survey.ID,
			survey.Name,
			string(definition),
			time.Now().UTC(),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": survey.ID,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "id")

		survey, err := loadSurvey(r.Context(), app, surveyId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		render.JSON(w, r, survey)
	}
}

// loadSurvey fetches and decodes a stored definition. Definitions are
// validated at insert time, a decode failure here is a data bug.
func loadSurvey(ctx context.Context, app app.App, id string) (*model.Survey, error) {
	var definition string
	err := app.QueryRowContext(ctx, `
		SELECT definition FROM survey WHERE id = ?`,
		id,
	).Scan(&definition)
	if err != nil {
		return nil, err
	}

	survey := &model.Survey{}
	if err := json.Unmarshal([]byte(definition), survey); err != nil {
		return nil, err
	}
	return survey, nil
}
