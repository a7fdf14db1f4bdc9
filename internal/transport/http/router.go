package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quiz-assessment/internal/app"
	"quiz-assessment/internal/domain"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter mounts the websocket endpoint and the read-only REST endpoints.
func NewRouter(service *app.QuizService, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Timeouts do not apply to the long-lived websocket.
	r.Get("/ws", NewWSHandler(service, logger).ServeWS)

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(10 * time.Second))
		api.Get("/quizzes/{quizID}", quizHandler(service, logger))
		api.Get("/users/{userID}/quizzes/{quizID}/history", historyHandler(service, logger))
	})
	return r
}

func quizHandler(service *app.QuizService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quiz, err := service.Quiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			respondError(w, logger, err)
			return
		}
		respondJSON(w, http.StatusOK, newQuizView(quiz))
	}
}

func historyHandler(service *app.QuizService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := service.History(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "quizID"))
		if err != nil {
			respondError(w, logger, err)
			return
		}
		respondJSON(w, http.StatusOK, summary)
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuestion), errors.Is(err, domain.ErrUnknownQuestionType):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	respondJSON(w, status, newErrorPayload(err))
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
