package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itchan-dev/forum/backend/internal/setup"
	mw "github.com/itchan-dev/forum/shared/middleware"
	"github.com/itchan-dev/forum/shared/middleware/metrics"
	rl "github.com/itchan-dev/forum/shared/middleware/ratelimiter"
)

// Limiters are owned by the router and stopped on shutdown.
type Limiters struct {
	Search *rl.UserRateLimiter
	Write  *rl.UserRateLimiter
}

func NewLimiters(deps *setup.Dependencies) *Limiters {
	public := deps.Config.Public
	return &Limiters{
		Search: rl.New(public.SearchRPS, public.SearchBurst, time.Hour),
		Write:  rl.New(public.WriteRPS, public.WriteBurst, time.Hour),
	}
}

func (l *Limiters) Stop() {
	l.Search.Stop()
	l.Write.Stop()
}

// New builds the chi router.
// Every /v1 request carries an actor: guests get the guest group permissions.
func New(deps *setup.Dependencies, limiters *Limiters) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(mw.SecurityHeaders(deps.Config.Public.SecureCookies))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := deps.Handler

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	searchLimit := mw.RateLimit(limiters.Search, mw.ActorOrIP)
	writeLimit := mw.RateLimit(limiters.Write, mw.ActorOrIP)

	r.Route("/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.OptionalAuth())

		// reads
		r.Group(func(r chi.Router) {
			r.Use(searchLimit)
			r.Get("/discussions", h.ListDiscussions)
			r.Get("/discussions/{id}", h.ShowDiscussion)
			r.Get("/discussions/{id}/index", h.IndexForNumber)
		})

		// writes, ability checks happen in the services
		r.Group(func(r chi.Router) {
			r.Use(writeLimit)
			r.Post("/discussions", h.StartDiscussion)
			r.Patch("/discussions/{id}", h.EditDiscussion)
			r.Delete("/discussions/{id}", h.DeleteDiscussion)
			r.Post("/discussions/{id}/posts", h.Reply)
			r.Patch("/posts/{id}", h.EditPost)
			r.Delete("/posts/{id}", h.DeletePost)
		})

		// read tracking is frequent and cheap, members only
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.NeedAuth())
			r.Use(searchLimit)
			r.Post("/discussions/read", h.MarkAllAsRead)
			r.Post("/discussions/{id}/read", h.MarkRead)
		})
	})

	return r
}
