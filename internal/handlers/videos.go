package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/content"
	"github.com/videotube/backend/internal/views"
)

// VideoHandler implements the video endpoints.
type VideoHandler struct {
	Content *content.Service
	Uploads UploadConfig
}

// Feed handles GET /videos.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := views.FeedQuery{
		Query:    q.Get("query"),
		OwnerID:  q.Get("userId"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
	}
	page, err := h.Content.Views().VideoFeed(r.Context(), auth.ActorFrom(r.Context()), query, pageParams(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, page, "videos fetched successfully")
}

// Publish handles POST /videos as a multipart form with videoFile and thumbnail.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if err := h.Uploads.parseUpload(w, r); err != nil {
		respondError(w, r, err)
		return
	}
	var files received
	defer files.cleanup()

	videoFile, err := h.Uploads.spool(r, &files, "videoFile")
	if err != nil {
		respondError(w, r, err)
		return
	}
	thumbnail, err := h.Uploads.spool(r, &files, "thumbnail")
	if err != nil {
		respondError(w, r, err)
		return
	}

	video, err := h.Content.Publish(r.Context(), auth.ActorFrom(r.Context()), content.PublishInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		VideoFile:   videoFile,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, video, "video uploaded successfully")
}

// Get handles GET /videos/{videoID}. Each call counts as a view.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Content.Watch(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "videoID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, detail, "video fetched successfully")
}

// Update handles PATCH /videos/{videoID}. The body is JSON, or a multipart
// form when a new thumbnail is attached.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	var (
		in    content.VideoUpdateInput
		files received
	)
	defer files.cleanup()

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := h.Uploads.parseUpload(w, r); err != nil {
			respondError(w, r, err)
			return
		}
		thumbnail, err := h.Uploads.spool(r, &files, "thumbnail")
		if err != nil {
			respondError(w, r, err)
			return
		}
		in = content.VideoUpdateInput{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Thumbnail:   thumbnail,
		}
	} else {
		var body struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := decodeJSON(r, &body); err != nil {
			respondError(w, r, err)
			return
		}
		in = content.VideoUpdateInput{Title: body.Title, Description: body.Description}
	}

	video, err := h.Content.UpdateVideo(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "videoID"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, video, "video updated successfully")
}

// Delete handles DELETE /videos/{videoID}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	report, err := h.Content.DeleteVideo(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "videoID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, report, "video deleted successfully")
}

// TogglePublish handles PATCH /videos/toggle/publish/{videoID}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	state, err := h.Content.TogglePublish(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "videoID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, state, "publish status toggled")
}
