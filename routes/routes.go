package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pollwheel/pollwheel/app"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// survey definitions
	api.Post("/surveys", CreateSurvey(app))
	api.Get("/surveys/{id}", GetSurveyById(app))

	// respondent sessions
	api.Post("/surveys/{id}/sessions", StartSession(app))
	api.Post("/sessions/{id}/answers", SubmitAnswer(app))
	api.Post("/sessions/{id}/back", StepBack(app))
	api.Put("/sessions/{id}/language", SwitchLanguage(app))
	api.Post("/sessions/{id}/end", EndSession(app))
	api.Post("/sessions/{id}/close", CloseSession(app))

	return api
}
