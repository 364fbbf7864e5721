package repositories

import (
	"context"
	"slices"
	"time"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

type memoryComments struct{ s *MemoryStore }

func (r memoryComments) Create(_ context.Context, comment models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[comment.ID]; ok {
		return ErrConflict
	}
	if !r.s.userExists(comment.OwnerID) {
		return ErrNotFound
	}
	r.s.comments[comment.ID] = comment
	r.s.track(comment.ID)
	return nil
}

func (r memoryComments) FindByID(_ context.Context, id string) (models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comment, ok := r.s.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	return comment, nil
}

func (r memoryComments) Update(_ context.Context, comment models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.comments[comment.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Content = comment.Content
	existing.UpdatedAt = comment.UpdatedAt
	r.s.comments[comment.ID] = existing
	return nil
}

func (r memoryComments) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}

func (r memoryComments) IDsByVideo(_ context.Context, videoID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []string
	for id, comment := range r.s.comments {
		if comment.VideoID == videoID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r memoryComments) DeleteByVideo(_ context.Context, videoID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int64
	for id, comment := range r.s.comments {
		if comment.VideoID == videoID {
			delete(r.s.comments, id)
			removed++
		}
	}
	return removed, nil
}

func (r memoryComments) ListByVideo(videoID string) pagination.Source[models.Comment] {
	return newSnapshot(func() []models.Comment {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()

		var comments []models.Comment
		for _, comment := range r.s.comments {
			if comment.VideoID == videoID {
				comments = append(comments, comment)
			}
		}
		slices.SortFunc(comments, func(a, b models.Comment) int {
			return r.s.newerFirst(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
		})
		return comments
	})
}

type memoryTweets struct{ s *MemoryStore }

func (r memoryTweets) Create(_ context.Context, tweet models.Tweet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tweets[tweet.ID]; ok {
		return ErrConflict
	}
	if !r.s.userExists(tweet.OwnerID) {
		return ErrNotFound
	}
	r.s.tweets[tweet.ID] = tweet
	r.s.track(tweet.ID)
	return nil
}

func (r memoryTweets) FindByID(_ context.Context, id string) (models.Tweet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tweet, ok := r.s.tweets[id]
	if !ok {
		return models.Tweet{}, ErrNotFound
	}
	return tweet, nil
}

func (r memoryTweets) Update(_ context.Context, tweet models.Tweet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tweets[tweet.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Content = tweet.Content
	existing.UpdatedAt = tweet.UpdatedAt
	r.s.tweets[tweet.ID] = existing
	return nil
}

func (r memoryTweets) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tweets[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.tweets, id)
	return nil
}

func (r memoryTweets) ListByOwner(ownerID string) pagination.Source[models.Tweet] {
	return newSnapshot(func() []models.Tweet {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()

		var tweets []models.Tweet
		for _, tweet := range r.s.tweets {
			if tweet.OwnerID == ownerID {
				tweets = append(tweets, tweet)
			}
		}
		slices.SortFunc(tweets, func(a, b models.Tweet) int {
			return r.s.newerFirst(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
		})
		return tweets
	})
}

type memoryPlaylists struct{ s *MemoryStore }

func (r memoryPlaylists) Create(_ context.Context, playlist models.Playlist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.playlists[playlist.ID]; ok {
		return ErrConflict
	}
	if !r.s.userExists(playlist.OwnerID) {
		return ErrNotFound
	}
	playlist.VideoIDs = dedupe(playlist.VideoIDs)
	r.s.playlists[playlist.ID] = playlist
	r.s.track(playlist.ID)
	return nil
}

func (r memoryPlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	playlist, ok := r.s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	playlist.VideoIDs = slices.Clone(playlist.VideoIDs)
	return playlist, nil
}

func (r memoryPlaylists) Update(_ context.Context, playlist models.Playlist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.playlists[playlist.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = playlist.Name
	existing.Description = playlist.Description
	existing.UpdatedAt = playlist.UpdatedAt
	r.s.playlists[playlist.ID] = existing
	return nil
}

func (r memoryPlaylists) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.playlists[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.playlists, id)
	return nil
}

func (r memoryPlaylists) AddVideo(_ context.Context, playlistID, videoID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	playlist, ok := r.s.playlists[playlistID]
	if !ok {
		return ErrNotFound
	}
	if slices.Contains(playlist.VideoIDs, videoID) {
		return nil
	}
	playlist.VideoIDs = append(slices.Clone(playlist.VideoIDs), videoID)
	playlist.UpdatedAt = at
	r.s.playlists[playlistID] = playlist
	return nil
}

func (r memoryPlaylists) RemoveVideo(_ context.Context, playlistID, videoID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	playlist, ok := r.s.playlists[playlistID]
	if !ok {
		return ErrNotFound
	}
	idx := slices.Index(playlist.VideoIDs, videoID)
	if idx < 0 {
		return nil
	}
	playlist.VideoIDs = slices.Delete(slices.Clone(playlist.VideoIDs), idx, idx+1)
	playlist.UpdatedAt = at
	r.s.playlists[playlistID] = playlist
	return nil
}

func (r memoryPlaylists) ListByOwner(ownerID string) pagination.Source[models.Playlist] {
	return newSnapshot(func() []models.Playlist {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()

		var playlists []models.Playlist
		for _, playlist := range r.s.playlists {
			if playlist.OwnerID == ownerID {
				playlist.VideoIDs = slices.Clone(playlist.VideoIDs)
				playlists = append(playlists, playlist)
			}
		}
		slices.SortFunc(playlists, func(a, b models.Playlist) int {
			return r.s.newerFirst(a.ID, a.UpdatedAt, b.ID, b.UpdatedAt)
		})
		return playlists
	})
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
