package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/content"
)

// PlaylistHandler implements the playlist endpoints.
type PlaylistHandler struct {
	Content *content.Service
}

// Create handles POST /playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req content.PlaylistInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	playlist, err := h.Content.CreatePlaylist(r.Context(), auth.ActorFrom(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, playlist, "playlist created successfully")
}

// Get handles GET /playlists/{playlistID}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Content.Views().PlaylistDetail(r.Context(), chi.URLParam(r, "playlistID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, detail, "playlist fetched successfully")
}

// ListByUser handles GET /playlists/user/{userID}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	page, err := h.Content.Views().UserPlaylists(r.Context(), chi.URLParam(r, "userID"), pageParams(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, page, "playlists fetched successfully")
}

// Update handles PATCH /playlists/{playlistID}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req content.PlaylistInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	playlist, err := h.Content.UpdatePlaylist(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "playlistID"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, playlist, "playlist updated successfully")
}

// Delete handles DELETE /playlists/{playlistID}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	report, err := h.Content.DeletePlaylist(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "playlistID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, report, "playlist deleted successfully")
}

// AddVideo handles PATCH /playlists/add/{videoID}/{playlistID}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.Content.AddToPlaylist(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "playlistID"), chi.URLParam(r, "videoID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, playlist, "video added to playlist")
}

// RemoveVideo handles PATCH /playlists/remove/{videoID}/{playlistID}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.Content.RemoveFromPlaylist(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "playlistID"), chi.URLParam(r, "videoID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, playlist, "video removed from playlist")
}
