package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"WaveFM/config"
	"WaveFM/core/catalog"
	"WaveFM/core/player"
	"WaveFM/logger"
	"WaveFM/model"
	"WaveFM/repository"
	"WaveFM/store"

	"github.com/gorilla/mux"
)

// APIHandler carries the wired stores and repositories behind the HTTP API.
type APIHandler struct {
	cfg         *config.Config
	songRepo    repository.SongRepository
	historyRepo repository.HistoryRepository
	favorites   *store.Favorites
	recent      *store.RecentLog
	uploads     *store.Uploads
	sessions    *player.Manager
	hub         *player.Hub
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(
	cfg *config.Config,
	songRepo repository.SongRepository,
	historyRepo repository.HistoryRepository,
	favorites *store.Favorites,
	recent *store.RecentLog,
	uploads *store.Uploads,
	sessions *player.Manager,
	hub *player.Hub,
) *APIHandler {
	return &APIHandler{
		cfg:         cfg,
		songRepo:    songRepo,
		historyRepo: historyRepo,
		favorites:   favorites,
		recent:      recent,
		uploads:     uploads,
		sessions:    sessions,
		hub:         hub,
	}
}

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// respondError maps store errors onto HTTP status codes.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, model.ErrPlaybackUnavailable):
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		logger.Error("request failed", logger.ErrorField(err))
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSongsHandler returns the catalog, filtered by the optional q parameter
// (case-insensitive substring on title or artist).
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		respondError(w, err)
		return
	}

	query := r.URL.Query().Get("q")
	filtered := catalog.Filter(songs, query)

	// Decorate with favorite membership, as the song grids render hearts.
	favoriteIDs := h.favorites.IDs(r.Context())
	favoriteSet := make(map[string]bool, len(favoriteIDs))
	for _, id := range favoriteIDs {
		favoriteSet[id] = true
	}

	type songWithFavorite struct {
		model.Song
		IsFavorite bool `json:"isFavorite"`
	}
	out := make([]songWithFavorite, 0, len(filtered))
	for _, song := range filtered {
		out = append(out, songWithFavorite{Song: song, IsFavorite: favoriteSet[song.ID]})
	}
	respondJSON(w, http.StatusOK, out)
}

// GetPlaylistsHandler returns the catalog grouped by playlist label.
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, catalog.GroupByPlaylist(songs))
}

// GetFavoritesHandler returns favorite ids and the favorite catalog songs.
func (h *APIHandler) GetFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	ids := h.favorites.IDs(r.Context())

	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		respondError(w, err)
		return
	}

	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	favoriteSongs := make([]model.Song, 0, len(ids))
	for _, song := range songs {
		if idSet[song.ID] {
			favoriteSongs = append(favoriteSongs, song)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ids":   ids,
		"songs": favoriteSongs,
	})
}

// ToggleFavoriteHandler flips favorite membership for a song id.
func (h *APIHandler) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	songID := mux.Vars(r)["id"]

	isFavorite, err := h.favorites.ToggleFavorite(r.Context(), songID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":         songID,
		"isFavorite": isFavorite,
	})
}

// RemoveFavoriteHandler removes a song id from the favorites set.
func (h *APIHandler) RemoveFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	songID := mux.Vars(r)["id"]

	if err := h.favorites.RemoveFavorite(r.Context(), songID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": songID})
}

// GetRecentHandler returns the bounded recent-play list, newest first.
func (h *APIHandler) GetRecentHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.recent.List(r.Context()))
}

// GetHistoryHandler returns the archived play history from MySQL.
func (h *APIHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.historyRepo.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}
