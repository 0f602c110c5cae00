package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jhavelka/conquest-backend/internal/registry"
)

func Healthz(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Status string `json:"status"`
			Rooms  int    `json:"rooms"`
		}{Status: "ok", Rooms: reg.RoomCount()})
	}
}

// RoomExists lets a client validate an invite code before opening the
// websocket.
func RoomExists(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")
		rm, ok := reg.Get(roomID)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			RoomID  string `json:"room_id"`
			Players int    `json:"players"`
			Started bool   `json:"started"`
		}{RoomID: rm.ID, Players: rm.PlayerCount(), Started: rm.Started()})
	}
}
