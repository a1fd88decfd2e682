package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/starfall-gg/starfall-backend/internal/hub"
	"github.com/starfall-gg/starfall-backend/internal/registry"
	"github.com/starfall-gg/starfall-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, reg *registry.Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Route("/api/rooms", func(r chi.Router) {
		r.Post("/", CreateRoom(h))
		r.Get("/", ListRooms(reg))
		r.Get("/{roomID}/ws", ws.Handler(h, log))
	})
	return r
}
