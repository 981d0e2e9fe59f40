package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/speakcoach/internal/api/handlers"
	"github.com/nikhilbhutani/speakcoach/internal/api/middleware"
	"github.com/nikhilbhutani/speakcoach/internal/auth"
	"github.com/nikhilbhutani/speakcoach/internal/config"
)

// Services are the collaborators the HTTP surface calls into. DB and Redis
// are only used for readiness checks and may be nil. A nil Assessments
// leaves /api/v1 unmounted.
type Services struct {
	DB          *pgxpool.Pool
	Redis       *redis.Client
	Audio       handlers.AudioProcessor
	Feedback    handlers.FeedbackAnalyzer
	Assessments handlers.AssessmentService
}

type Router struct {
	mux *chi.Mux
	cfg *config.Config
	svc Services
	jwt *auth.JWTMiddleware
	rl  *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, svc Services) *Router {
	return &Router{
		mux: chi.NewRouter(),
		cfg: cfg,
		svc: svc,
		jwt: auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		rl:  middleware.NewRateLimiter(20, 40),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))
	r.Use(rt.rl.Limit)

	health := handlers.NewHealthHandler(rt.svc.DB, rt.svc.Redis)
	r.Get("/", health.Welcome)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	audioH := handlers.NewAudioHandler(rt.svc.Audio, handlers.AudioConfig{
		TempDir:        rt.cfg.Server.TempDir,
		MaxUploadBytes: rt.cfg.Server.MaxUploadBytes,
		Language:       rt.cfg.STT.Language,
		PauseThreshold: rt.cfg.Fluency.PauseThreshold,
	})
	r.Post("/process-audio", audioH.ProcessAudio)

	feedbackH := handlers.NewFeedbackHandler(rt.svc.Feedback)
	r.Post("/analyze-text", feedbackH.AnalyzeText)
	r.Post("/ideal-answer", feedbackH.IdealAnswer)

	if rt.svc.Assessments == nil {
		return r
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		h := handlers.NewAssessmentHandler(rt.svc.Assessments, rt.cfg.Server.MaxUploadBytes)
		r.Route("/questions", func(r chi.Router) {
			r.Post("/", h.CreateQuestion)
			r.Get("/", h.ListQuestions)
			r.Get("/{id}", h.GetQuestion)
		})
		r.Route("/assessments", func(r chi.Router) {
			r.Post("/", h.Submit)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
		})
	})

	return r
}

// Close stops background work owned by the router.
func (rt *Router) Close() {
	rt.rl.Stop()
}
