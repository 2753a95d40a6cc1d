package routes

import (
	"net/http"

	_ "github.com/Dosada05/beach-league/docs"
	"github.com/Dosada05/beach-league/handlers"
	"github.com/Dosada05/beach-league/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Player     *handlers.PlayerHandler
	Ranking    *handlers.RankingHandler
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	Dashboard  *handlers.DashboardHandler
	WebSocket  *handlers.WebSocketHandler
}

type Options struct {
	Authenticator  middleware.Authenticator
	LoginLimiter   *middleware.LoginRateLimiter
	AllowedOrigins []string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.Authenticator)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Auth.SignUp)
		r.With(opts.LoginLimiter.Middleware).Post("/signin", h.Auth.SignIn)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/signout", h.Auth.SignOut)
			r.Get("/me", h.Auth.Me)
		})
	})

	router.Route("/players/{playerID}", func(r chi.Router) {
		r.Get("/", h.Player.GetProfile)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Patch("/", h.Player.UpdateProfile)
			r.Post("/avatar", h.Player.UploadAvatar)
		})
	})

	router.Get("/ranking", h.Ranking.GetRanking)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.List)
		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournament.GetByID)
			r.Get("/matches", h.Tournament.ListMatches)
			r.With(authenticate).Post("/register", h.Tournament.Register)
		})
	})

	router.Get("/matches/{matchID}", h.Match.Get)

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireAdmin)

		r.Route("/tournaments", func(r chi.Router) {
			r.Post("/", h.Tournament.Create)
			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Put("/", h.Tournament.UpdateDetails)
				r.Patch("/status", h.Tournament.SetStatus)
				r.Post("/participants", h.Tournament.AddParticipant)
				r.Delete("/participants/{playerID}", h.Tournament.RemoveParticipant)
			})
		})
		r.Route("/matches", func(r chi.Router) {
			r.Post("/", h.Match.Create)
			r.Post("/{matchID}/result", h.Match.RecordResult)
			r.Post("/{matchID}/cancel", h.Match.Cancel)
		})
		r.Get("/players", h.Player.ListPlayers)
		r.Get("/dashboard", h.Dashboard.Stats)
	})

	router.Route("/ws", func(r chi.Router) {
		r.Get("/tournaments/{tournamentID}", h.WebSocket.ServeTournament)
		r.Get("/session", h.WebSocket.ServeSession)
	})
}
