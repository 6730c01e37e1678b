// Package api exposes the handful of plain HTTP endpoints that sit
// alongside the WebSocket transport: a health check and the upgrade
// endpoint itself. Spec.md's world is a single process with one world, so
// the teacher's create-game/join-game/list-games REST surface has no
// equivalent here — a client authenticates and joins the one world entirely
// over the WebSocket's "auth" handshake (internal/ws/handler.go).
package api

import (
	"net/http"

	"github.com/lucas/tileworld/internal/config"
	"github.com/lucas/tileworld/internal/ws"
)

func NewRouter(wsHandler *ws.Handler, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	h := &Handler{wsHandler: wsHandler, cfg: cfg}
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ws", h.WebSocket)

	if cfg.Dev.Enabled {
		mux.HandleFunc("GET /api/dev/state", h.DebugState)
	}

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
