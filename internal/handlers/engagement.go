package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/content"
	"github.com/videotube/backend/internal/toggle"
)

// EngagementHandler implements likes and subscriptions.
type EngagementHandler struct {
	Content *content.Service
}

type toggleFunc func(ctx context.Context, actorID, id string) (toggle.Result, error)

func (h EngagementHandler) flip(param string, fn toggleFunc, on, off string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r.Context(), auth.ActorFrom(r.Context()), chi.URLParam(r, param))
		if err != nil {
			respondError(w, r, err)
			return
		}
		message := off
		if res.Active {
			message = on
		}
		respondJSON(r.Context(), w, http.StatusOK, res, message)
	}
}

// ToggleVideoLike handles POST /likes/toggle/v/{videoID}.
func (h EngagementHandler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	h.flip("videoID", h.Content.ToggleVideoLike, "video liked", "video unliked")(w, r)
}

// ToggleCommentLike handles POST /likes/toggle/c/{commentID}.
func (h EngagementHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.flip("commentID", h.Content.ToggleCommentLike, "comment liked", "comment unliked")(w, r)
}

// ToggleTweetLike handles POST /likes/toggle/t/{tweetID}.
func (h EngagementHandler) ToggleTweetLike(w http.ResponseWriter, r *http.Request) {
	h.flip("tweetID", h.Content.ToggleTweetLike, "tweet liked", "tweet unliked")(w, r)
}

// ToggleSubscription handles POST /subscriptions/c/{channelID}.
func (h EngagementHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	h.flip("channelID", h.Content.ToggleSubscription, "subscribed", "unsubscribed")(w, r)
}

// LikedVideos handles GET /likes/videos.
func (h EngagementHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	page, err := h.Content.Views().LikedVideos(r.Context(), auth.ActorFrom(r.Context()), pageParams(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, page, "liked videos fetched successfully")
}

// Subscribers handles GET /subscriptions/c/{channelID}.
func (h EngagementHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	page, err := h.Content.Views().ChannelSubscribers(r.Context(), chi.URLParam(r, "channelID"), pageParams(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, page, "subscribers fetched successfully")
}

// Subscriptions handles GET /subscriptions/u/{subscriberID}.
func (h EngagementHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	page, err := h.Content.Views().SubscribedChannels(r.Context(), chi.URLParam(r, "subscriberID"), pageParams(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, page, "subscribed channels fetched successfully")
}
