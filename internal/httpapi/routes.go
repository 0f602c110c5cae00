package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jhavelka/conquest-backend/internal/registry"
	"github.com/jhavelka/conquest-backend/internal/ws"
)

func SetupRoutes(reg *registry.Registry, wsHandler *ws.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz(reg))
	r.Get("/rooms/{roomID}", RoomExists(reg))
	r.Get("/ws", wsHandler.ServeHTTP)
	return r
}
