package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mattsre/keysprint/go/internal/models"
	"github.com/mattsre/keysprint/go/internal/notifications"
	"github.com/mattsre/keysprint/go/internal/results"
	"github.com/mattsre/keysprint/go/internal/typing"
)

type apiHandlers struct {
	services *Services
}

func newAPIHandlers(services *Services) *apiHandlers {
	return &apiHandlers{services: services}
}

// handleGetText serves a practice text for the requested configuration.
func (h *apiHandlers) handleGetText(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cfg := typing.Config{
		Mode:        typing.ModeWords,
		Punctuation: q.Get("punctuation") == "1",
		Numbers:     q.Get("numbers") == "1",
	}
	if q.Get("mode") == string(typing.ModeQuote) {
		cfg.Mode = typing.ModeQuote
	}
	if d, err := strconv.Atoi(q.Get("duration")); err == nil && d > 0 {
		cfg.DurationSec = d
	}

	text := h.services.Texts.Fetch(r.Context(), cfg)
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *apiHandlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("mode")
	if mode == "" {
		mode = "words"
	}
	duration, _ := strconv.Atoi(q.Get("duration"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	entries, err := h.services.Results.Leaderboard(r.Context(), mode, duration, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *apiHandlers) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid result id"))
		return
	}

	result, err := h.services.Results.GetResult(r.Context(), id)
	if errors.Is(err, results.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *apiHandlers) handleListResults(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(r.URL.Query().Get("player_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("player_id query parameter is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.services.Results.ListResultsByPlayer(r.Context(), playerID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if list == nil {
		list = []models.TypingResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": list})
}

// postResultRequest is the REST body for submitting a finished session; the
// player is identified by username and created on first sight.
type postResultRequest struct {
	Username string `json:"username"`
	results.SaveResultRequest
}

func (h *apiHandlers) handlePostResult(w http.ResponseWriter, r *http.Request) {
	var req postResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	player, err := h.services.Players.GetOrCreateByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.PlayerID = player.ID
	if req.Source == "" {
		req.Source = models.ResultSourcePractice
	}

	saved, err := h.services.Results.SaveResult(r.Context(), req.SaveResultRequest)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *apiHandlers) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	playerID, err := uuid.Parse(r.URL.Query().Get("player_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("player_id query parameter is required"))
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "1"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.services.Notifications.ListNotifications(r.Context(), playerID, unreadOnly, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (h *apiHandlers) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid notification id"))
		return
	}

	err = h.services.Notifications.MarkRead(r.Context(), id)
	if errors.Is(err, notifications.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
