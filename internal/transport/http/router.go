package http

import (
	"net/http"

	"cybershield-quiz-service/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries what the HTTP surface needs. Limiter may be nil.
type RouterConfig struct {
	Quizzes  *app.QuizService
	Attempts *app.AttemptService
	Auth     *Authenticator
	Limiter  Limiter
}

func NewRouter(cfg RouterConfig) http.Handler {
	quizzes := quizHandlers{quizzes: cfg.Quizzes}
	attempts := attemptHandlers{attempts: cfg.Attempts}
	ws := NewWSHandler(cfg.Attempts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.Middleware)
		r.Use(RateLimit(cfg.Limiter))

		r.Get("/ws", ws.ServeWS)

		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/", quizzes.list)
			r.With(RequireAuthor).Post("/", quizzes.create)
			r.Route("/{quizID}", func(r chi.Router) {
				r.Get("/", quizzes.get)
				r.With(RequireAuthor).Put("/", quizzes.update)
				r.With(RequireAuthor).Delete("/", quizzes.retire)
				r.With(RequireAuthor).Post("/questions/{questionID}/deactivate", quizzes.deactivateQuestion)
				r.Post("/attempts", attempts.start)
			})
		})

		r.Route("/attempts/{attemptID}", func(r chi.Router) {
			r.Get("/", attempts.get)
			r.Post("/answers", attempts.answer)
			r.Post("/complete", attempts.complete)
			r.Post("/abandon", attempts.abandon)
			r.Post("/timeout", attempts.timeout)
			r.Post("/certificate", attempts.certificate)
			r.Get("/retake", attempts.retake)
		})

		r.Route("/me", func(r chi.Router) {
			r.Get("/attempts", attempts.history)
			r.Get("/quizzes/{quizID}/best", attempts.best)
			r.Get("/stats", attempts.stats)
		})
	})
	return r
}
