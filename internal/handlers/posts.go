package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/content"
)

// CommentHandler implements the comment endpoints.
type CommentHandler struct {
	Content *content.Service
}

// List handles GET /comments/{videoID}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.Content.Views().VideoComments(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "videoID"), pageParams(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, page, "comments fetched successfully")
}

// Add handles POST /comments/{videoID}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req content.TextInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	comment, err := h.Content.AddComment(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "videoID"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, comment, "comment added successfully")
}

// Update handles PATCH /comments/c/{commentID}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req content.TextInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	comment, err := h.Content.UpdateComment(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "commentID"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, comment, "comment updated successfully")
}

// Delete handles DELETE /comments/c/{commentID}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	report, err := h.Content.DeleteComment(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "commentID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, report, "comment deleted successfully")
}

// TweetHandler implements the tweet endpoints.
type TweetHandler struct {
	Content *content.Service
}

// Create handles POST /tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req content.TextInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	tweet, err := h.Content.CreateTweet(r.Context(), auth.ActorFrom(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, tweet, "tweet created successfully")
}

// ListByUser handles GET /tweets/user/{userID}.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	page, err := h.Content.Views().UserTweets(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "userID"), pageParams(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, page, "tweets fetched successfully")
}

// Update handles PATCH /tweets/{tweetID}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req content.TextInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	tweet, err := h.Content.UpdateTweet(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "tweetID"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, tweet, "tweet updated successfully")
}

// Delete handles DELETE /tweets/{tweetID}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	report, err := h.Content.DeleteTweet(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, "tweetID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, report, "tweet deleted successfully")
}
