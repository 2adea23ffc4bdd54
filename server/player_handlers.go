package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"WaveFM/core/catalog"
	"WaveFM/core/player"
	"WaveFM/logger"
	"WaveFM/model"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var playerUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// sessionResponse is the create-session payload.
type sessionResponse struct {
	SessionID string              `json:"sessionId"`
	Scope     model.Scope         `json:"scope"`
	State     model.PlaybackState `json:"state"`
}

// CreateSessionHandler opens a player session for a page. Playlist
// sessions get a queue provider resolving the current song's playlist;
// home, upload and recent sessions get a play recorder.
func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope model.Scope `json:"scope"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body", model.ErrValidation))
		return
	}
	if !req.Scope.Valid() {
		respondError(w, fmt.Errorf("%w: unknown scope %q", model.ErrValidation, req.Scope))
		return
	}

	id, controller := h.sessions.Create(func(id string) player.Options {
		opts := player.Options{
			Scope:    req.Scope,
			Recorder: newPlayRecorder(h.recent, h.historyRepo),
			OnChange: func(state model.PlaybackState) {
				h.hub.BroadcastState(id, state)
			},
		}
		if req.Scope == model.ScopePlaylist {
			opts.QueueProvider = h.playlistQueue
		}
		return opts
	})

	respondJSON(w, http.StatusCreated, sessionResponse{
		SessionID: id,
		Scope:     controller.Scope(),
		State:     controller.State(),
	})
}

// playlistQueue resolves the catalog playlist containing the given song.
func (h *APIHandler) playlistQueue(current model.Song) []model.Song {
	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		logger.Error("failed to load catalog for queue", logger.ErrorField(err))
		return nil
	}
	return catalog.PlaylistSongs(songs, current.Playlist)
}

// session resolves the {id} path variable to a live controller.
func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) (*player.Controller, bool) {
	id := mux.Vars(r)["id"]
	controller, ok := h.sessions.Get(id)
	if !ok {
		respondError(w, fmt.Errorf("%w: session %s", model.ErrNotFound, id))
		return nil, false
	}
	return controller, true
}

// GetSessionStateHandler returns a session's state snapshot.
func (h *APIHandler) GetSessionStateHandler(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, controller.State())
}

// DeleteSessionHandler closes a session when its page unmounts.
func (h *APIHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.sessions.Close(id) {
		respondError(w, fmt.Errorf("%w: session %s", model.ErrNotFound, id))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// resolveSong finds a song by id in the catalog or the upload library.
// Uploaded songs get a freshly signed audio URL; a song whose stored
// audio cannot be signed is reported as playback unavailable.
func (h *APIHandler) resolveSong(ctx context.Context, songID string) (*model.Song, error) {
	song, err := h.songRepo.GetSongByID(songID)
	if err != nil {
		return nil, err
	}
	if song != nil {
		return song, nil
	}

	record, err := h.uploads.Get(ctx, songID)
	if err != nil {
		return nil, err
	}
	src, err := h.uploads.ResolveSource(ctx, record)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: audio for upload %s is missing", model.ErrPlaybackUnavailable, songID)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrPlaybackUnavailable, err)
	}
	uploaded := record.Song()
	uploaded.AudioSrc = src
	return &uploaded, nil
}

// SelectSongHandler loads a song into the session, or toggles play and
// pause when the song is already current.
func (h *APIHandler) SelectSongHandler(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		SongID string `json:"songId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SongID == "" {
		respondError(w, fmt.Errorf("%w: songId is required", model.ErrValidation))
		return
	}

	song, err := h.resolveSong(r.Context(), req.SongID)
	if err != nil {
		respondError(w, err)
		return
	}

	controller.SelectSong(r.Context(), *song)
	respondJSON(w, http.StatusOK, controller.State())
}

// PlayPauseHandler toggles playback. A session with no song ignores it.
func (h *APIHandler) PlayPauseHandler(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.session(w, r)
	if !ok {
		return
	}
	controller.PlayPause()
	respondJSON(w, http.StatusOK, controller.State())
}

// SeekHandler moves the playback position.
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Time float64 `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body", model.ErrValidation))
		return
	}
	controller.Seek(req.Time)
	respondJSON(w, http.StatusOK, controller.State())
}

// SetVolumeHandler sets the session volume.
func (h *APIHandler) SetVolumeHandler(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Volume float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body", model.ErrValidation))
		return
	}
	controller.SetVolume(req.Volume)
	respondJSON(w, http.StatusOK, controller.State())
}

// ToggleMuteHandler toggles the mute flag.
func (h *APIHandler) ToggleMuteHandler(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.session(w, r)
	if !ok {
		return
	}
	controller.ToggleMute()
	respondJSON(w, http.StatusOK, controller.State())
}

// AdvanceHandler moves to the circular neighbor of the current song.
func (h *APIHandler) AdvanceHandler(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body", model.ErrValidation))
		return
	}
	direction := player.DirectionNext
	if req.Direction == string(player.DirectionPrevious) {
		direction = player.DirectionPrevious
	}
	if err := controller.Advance(r.Context(), direction); err != nil {
		if errors.Is(err, player.ErrNoQueue) {
			respondError(w, fmt.Errorf("%w: session has no playlist queue", model.ErrValidation))
			return
		}
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, controller.State())
}

// ToggleFullScreenHandler switches between the mini and full screen
// player views. Playback is untouched.
func (h *APIHandler) ToggleFullScreenHandler(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		FullScreen bool `json:"fullScreen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body", model.ErrValidation))
		return
	}
	controller.ToggleFullScreen(req.FullScreen)
	respondJSON(w, http.StatusOK, controller.State())
}

// WSPlayerHandler upgrades a surface connection and binds it to its
// session. Each session carries at most one mini and one full surface.
func (h *APIHandler) WSPlayerHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	controller, ok := h.sessions.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	surface := model.Surface(r.URL.Query().Get("surface"))
	if surface != model.SurfaceMini && surface != model.SurfaceFull {
		surface = model.SurfaceMini
	}

	conn, err := playerUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &player.Client{
		Hub:       h.hub,
		Conn:      conn,
		Send:      make(chan []byte, 64),
		SessionID: id,
		Surface:   surface,
	}
	h.hub.Register(client)

	// Push the current state so a late-joining surface renders at once.
	state, err := json.Marshal(controller.State())
	if err == nil {
		client.SendMessage(&player.WSMessage{
			Type:      player.MsgTypeState,
			SessionID: id,
			Data:      state,
		})
	}

	go client.WritePump()
	go client.ReadPump(context.Background(), h.handlePlayerMessage)
}

// handlePlayerMessage dispatches envelopes from a surface connection.
// Lifecycle reports are honored only from the surface driving audio,
// which is the full screen view while it is open and the mini player
// otherwise.
func (h *APIHandler) handlePlayerMessage(ctx context.Context, client *player.Client, msg *player.WSMessage) {
	controller, ok := h.sessions.Get(client.SessionID)
	if !ok {
		client.SendError("session closed")
		return
	}

	switch msg.Type {
	case player.MsgTypeCommand:
		var cmd player.CommandData
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			client.SendError("invalid command payload")
			return
		}
		h.applyCommand(ctx, client, controller, cmd)

	case player.MsgTypeSurface:
		var change player.SurfaceData
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			client.SendError("invalid surface payload")
			return
		}
		controller.ToggleFullScreen(change.FullScreen)

	case player.MsgTypeProgress, player.MsgTypeDuration, player.MsgTypeEnded:
		if !audioSurface(controller.State(), client.Surface) {
			return
		}
		var report player.LifecycleData
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			client.SendError("invalid lifecycle payload")
			return
		}
		switch msg.Type {
		case player.MsgTypeProgress:
			controller.OnTimeUpdate(report.SongID, report.Seconds)
		case player.MsgTypeDuration:
			controller.OnDurationKnown(report.SongID, report.Seconds)
		case player.MsgTypeEnded:
			controller.OnEnded(ctx, report.SongID)
		}

	default:
		logger.Debug("ignoring unexpected message type",
			logger.String("type", string(msg.Type)),
			logger.String("sessionId", client.SessionID))
	}
}

// audioSurface reports whether the given surface owns audio for the state.
func audioSurface(state model.PlaybackState, surface model.Surface) bool {
	if state.IsFullScreen {
		return surface == model.SurfaceFull
	}
	return surface == model.SurfaceMini
}

// applyCommand executes a websocket control action against a controller.
func (h *APIHandler) applyCommand(ctx context.Context, client *player.Client, controller *player.Controller, cmd player.CommandData) {
	switch cmd.Action {
	case "select":
		song, err := h.resolveSong(ctx, cmd.SongID)
		if err != nil {
			client.SendError(err.Error())
			return
		}
		controller.SelectSong(ctx, *song)
	case "playPause":
		controller.PlayPause()
	case "seek":
		controller.Seek(cmd.Time)
	case "volume":
		controller.SetVolume(cmd.Volume)
	case "mute":
		controller.ToggleMute()
	case "fullscreen":
		controller.ToggleFullScreen(cmd.FullScreen)
	case "advance":
		direction := player.DirectionNext
		if cmd.Direction == string(player.DirectionPrevious) {
			direction = player.DirectionPrevious
		}
		if err := controller.Advance(ctx, direction); err != nil {
			client.SendError(err.Error())
		}
	default:
		client.SendError(fmt.Sprintf("unknown action %q", cmd.Action))
	}
}
