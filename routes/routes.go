package routes

import (
	"github.com/Dosada05/table-match-manager/handlers"
	"github.com/Dosada05/table-match-manager/metrics"
	"github.com/Dosada05/table-match-manager/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	CORSOrigin string
	JWTSecret  []byte
}

func SetupRoutes(
	router *chi.Mux,
	cfg RouterConfig,
	matchHandler *handlers.MatchHandler,
	queueHandler *handlers.QueueHandler,
	rankingHandler *handlers.RankingHandler,
	statsHandler *handlers.StatsHandler,
	personHandler *handlers.PersonHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
	healthHandler *handlers.HealthHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", healthHandler.HealthCheckHandler)
	router.Handle("/metrics", metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HealthCheckHandler)

		r.Route("/persons", func(r chi.Router) {
			r.Get("/", personHandler.ListPersonsHandler)
			r.Post("/", personHandler.CreatePersonHandler)
			r.Get("/{id}", personHandler.GetPersonHandler)
			r.Post("/{id}/avatar", personHandler.UploadAvatarHandler)
			r.Delete("/{id}/avatar", personHandler.RemoveAvatarHandler)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/current", matchHandler.CurrentMatchHandler)
			r.Post("/start", matchHandler.StartMatchHandler)
			r.Post("/start-from-queue", matchHandler.StartMatchFromQueueHandler)
			r.Post("/{id}/end", matchHandler.EndMatchHandler)
			r.Post("/{id}/cancel", matchHandler.CancelMatchHandler)
			r.Post("/{id}/forfeit", matchHandler.ForfeitMatchHandler)
		})

		r.Route("/queue", func(r chi.Router) {
			r.Get("/", queueHandler.ListQueueHandler)
			r.Post("/", queueHandler.AddToQueueHandler)
			r.Post("/next", queueHandler.DequeueNextHandler)
			r.Delete("/{id}", queueHandler.RemoveFromQueueHandler)
		})

		r.Get("/rankings", rankingHandler.GetRankingsHandler)
		r.Get("/rankings/elo", rankingHandler.GetEloRankingsHandler)
		r.Get("/player-stats/{playerId}", statsHandler.GetPlayerStatsHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", adminHandler.LoginHandler)

			// Остальная админка только по токену с role=admin.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(cfg.JWTSecret))
				r.Get("/matches", adminHandler.ListMatchesHandler)
				r.Delete("/matches/{id}", adminHandler.DeleteMatchHandler)
			})
		})
	})

	router.Get("/ws/table", webSocketHandler.ServeTable)
}
