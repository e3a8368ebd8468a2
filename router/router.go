// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/classpulse/cliparse"
	"github.com/danielhkuo/classpulse/handlers"
	"github.com/danielhkuo/classpulse/hub"
	"github.com/danielhkuo/classpulse/middleware"
	"github.com/danielhkuo/classpulse/poll"
)

func NewRouter(manager *poll.Manager, h *hub.Hub, presenters handlers.PresenterStore, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	presenterHandler := handlers.NewPresenterHandler(presenters)
	wsHandler := handlers.NewWSHandler(manager, h, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Realtime event stream (join / createPoll / submitVote / closePollNow)
	mux.HandleFunc("GET /ws", wsHandler.Serve)

	// Presenter collaborators
	mux.HandleFunc("POST /presenter-login", middleware.WithLogging(presenterHandler.Login))
	mux.HandleFunc("GET /presenters/{username}/polls", middleware.WithLogging(presenterHandler.ListPolls))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("classpulse API v1"))
	})

	return middleware.CORS(cfg.AllowedOrigins, mux)
}
