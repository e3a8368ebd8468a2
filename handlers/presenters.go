// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/classpulse/auth"
	"github.com/danielhkuo/classpulse/middleware"
	"github.com/danielhkuo/classpulse/models"
	"github.com/danielhkuo/classpulse/store"
)

const requestTimeout = 5 * time.Second

// PresenterStore is the persistence the presenter endpoints need.
type PresenterStore interface {
	EnsurePresenter(ctx context.Context, username string) error
	PollsByPresenter(ctx context.Context, username string) ([]models.Poll, error)
}

type PresenterHandler struct {
	store PresenterStore
}

func NewPresenterHandler(store PresenterStore) *PresenterHandler {
	return &PresenterHandler{store: store}
}

// Login handles POST /presenter-login. Upsert-by-name: an unknown username
// is created, a missing one gets a generated fallback.
func (h *PresenterHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.PresenterLoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = auth.GeneratePresenterName()
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.EnsurePresenter(ctx, username); err != nil {
		slog.Error("failed to upsert presenter", "error", err, "username", username)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Server error")
		return
	}

	slog.Info("presenter logged in", "username", username)

	middleware.JSONResponse(w, http.StatusOK, models.PresenterLoginResponse{
		Username: username,
	})
}

// ListPolls handles GET /presenters/{username}/polls.
// Returns the presenter's poll history, newest first.
func (h *PresenterHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	polls, err := h.store.PollsByPresenter(ctx, username)
	if errors.Is(err, store.ErrUnavailable) {
		// One local retry for transient read failures; writes never get this.
		polls, err = h.store.PollsByPresenter(ctx, username)
	}
	if err != nil {
		slog.Error("failed to list polls", "error", err, "username", username)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Server error")
		return
	}

	items := make([]models.PollHistoryItem, len(polls))
	for i, p := range polls {
		items[i] = models.PollHistoryItem{
			Poll:       p,
			CreatedAgo: humanize.Time(p.CreatedAt),
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollHistoryResponse{Polls: items})
}
