package server

import (
	"io"
	"net/http"
	"strings"

	"WaveFM/logger"
	"WaveFM/store"

	"github.com/gorilla/mux"
)

// allowedAudioTypes lists the accepted upload content types.
var allowedAudioTypes = []string{
	"audio/mpeg",
	"audio/mp3",
	"audio/wav",
	"audio/x-wav",
	"audio/flac",
	"audio/aac",
	"audio/mp4",
	"audio/ogg",
}

func isAllowedAudioType(contentType string) bool {
	for _, t := range allowedAudioTypes {
		if contentType == t {
			return true
		}
	}
	// Browsers sometimes omit or genericize the type; fall back to the
	// audio/* prefix rather than rejecting a playable file.
	return strings.HasPrefix(contentType, "audio/")
}

// GetUploadsHandler returns all uploaded-song records, newest first.
func (h *APIHandler) GetUploadsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.uploads.List(r.Context()))
}

// UploadSongHandler handles audio file uploads and metadata. The form
// carries title, artist, an optional coverFile and the required audioFile.
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	logger.Info("handling upload request",
		logger.String("remoteAddr", r.RemoteAddr),
		logger.Int64("contentLength", r.ContentLength))

	if r.ContentLength > h.cfg.MaxUploadSize {
		http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("failed to parse upload form", logger.ErrorField(err))
		http.Error(w, "Failed to parse upload form. Please check your file and try again.", http.StatusBadRequest)
		return
	}

	params := store.UploadParams{
		Title:  r.FormValue("title"),
		Artist: r.FormValue("artist"),
	}

	audioFile, audioHeader, err := r.FormFile("audioFile")
	if err != nil && err != http.ErrMissingFile {
		http.Error(w, "Failed to process uploaded file.", http.StatusBadRequest)
		return
	}
	if err == nil {
		defer audioFile.Close()

		contentType := audioHeader.Header.Get("Content-Type")
		if !isAllowedAudioType(contentType) {
			logger.Warn("unsupported upload content type",
				logger.String("contentType", contentType),
				logger.String("filename", audioHeader.Filename))
			http.Error(w, "Invalid file type. Supported formats: MP3, WAV, FLAC, AAC, M4A, OGG.", http.StatusBadRequest)
			return
		}

		params.Audio = audioFile
		params.AudioSize = audioHeader.Size
		params.AudioContentType = contentType
	}

	if coverFile, coverHeader, err := r.FormFile("coverFile"); err == nil {
		defer coverFile.Close()
		coverData, err := io.ReadAll(coverFile)
		if err != nil {
			logger.Warn("failed to read cover image", logger.ErrorField(err))
			http.Error(w, "Failed to read cover image.", http.StatusBadRequest)
			return
		}
		params.Cover = coverData
		params.CoverContentType = coverHeader.Header.Get("Content-Type")
	}

	record, err := h.uploads.Upload(r.Context(), params)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

// RemoveUploadHandler deletes an uploaded song and its audio blob. Any
// player session currently holding the song is cleared and stopped.
func (h *APIHandler) RemoveUploadHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.uploads.Remove(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	h.sessions.EvictSong(id)

	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// GetUploadSourceHandler resolves a transient playable URL for an uploaded
// song and redirects to it. The URL expires and is never persisted.
func (h *APIHandler) GetUploadSourceHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	url, err := h.uploads.ResolveSourceByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	if r.URL.Query().Get("redirect") == "false" {
		respondJSON(w, http.StatusOK, map[string]string{"id": id, "url": url})
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
