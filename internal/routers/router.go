package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Ayan1Dutta/InterviewEasy/internal/api"
	"github.com/Ayan1Dutta/InterviewEasy/internal/metrics"
)

// New assembles the full HTTP surface: session CRUD, the room WebSocket,
// WebRTC config, health and metrics.
func New(h *api.Handlers, allowedOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(metrics.Middleware)

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/interview", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(api.RequireAuth)
		r.Post("/", h.CreateSession)
		r.Post("/{roomCode}/join", h.JoinSession)
		r.Get("/{roomCode}", h.GetSession)
		r.Delete("/{roomCode}", h.EndSession)
		r.Put("/{roomCode}/notes", h.UpdateNotes)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/webrtc/config", h.GetWebRTCConfig)
		// No server timeout here: the room socket lives as long as the
		// interview does.
		r.With(api.RequireAuth).Get("/room/{roomCode}/ws", h.RoomWS)
	})

	return r
}
