package content

import (
	"context"
	"strings"
	"time"

	"github.com/videotube/backend/internal/cascade"
	"github.com/videotube/backend/internal/guard"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/validation"
)

// PlaylistInput names a playlist.
type PlaylistInput struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

func (in PlaylistInput) clean() (PlaylistInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in, validation.Struct(in)
}

// CreatePlaylist creates an empty playlist owned by the actor.
func (s *Service) CreatePlaylist(ctx context.Context, actorID string, in PlaylistInput) (models.Playlist, error) {
	in, err := in.clean()
	if err != nil {
		return models.Playlist{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.actor(ctx, actorID); err != nil {
		return models.Playlist{}, err
	}
	now := s.now()
	playlist := models.Playlist{
		ID:          s.newID(),
		OwnerID:     actorID,
		Name:        in.Name,
		Description: in.Description,
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Playlists().Create(ctx, playlist); err != nil {
		return models.Playlist{}, repositories.Classify(err, "playlist")
	}
	return playlist, nil
}

// UpdatePlaylist renames the actor's playlist.
func (s *Service) UpdatePlaylist(ctx context.Context, actorID, playlistID string, in PlaylistInput) (models.Playlist, error) {
	in, err := in.clean()
	if err != nil {
		return models.Playlist{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	playlist, err := s.ownedPlaylist(ctx, actorID, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}
	playlist.Name = in.Name
	playlist.Description = in.Description
	playlist.UpdatedAt = s.now()
	if err := s.store.Playlists().Update(ctx, playlist); err != nil {
		return models.Playlist{}, repositories.Classify(err, "playlist")
	}
	return playlist, nil
}

// DeletePlaylist removes the actor's playlist. Member videos are untouched.
func (s *Service) DeletePlaylist(ctx context.Context, actorID, playlistID string) (cascade.Report, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	playlist, err := s.ownedPlaylist(ctx, actorID, playlistID)
	if err != nil {
		return cascade.Report{}, err
	}
	return s.cascade.DeletePlaylist(ctx, playlist)
}

// AddToPlaylist appends a video to the actor's playlist. Adding a member
// again leaves the playlist unchanged.
func (s *Service) AddToPlaylist(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error) {
	return s.editMembers(ctx, actorID, playlistID, videoID, s.store.Playlists().AddVideo)
}

// RemoveFromPlaylist drops a video from the actor's playlist.
func (s *Service) RemoveFromPlaylist(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error) {
	return s.editMembers(ctx, actorID, playlistID, videoID, s.store.Playlists().RemoveVideo)
}

type memberEdit func(ctx context.Context, playlistID, videoID string, at time.Time) error

func (s *Service) editMembers(ctx context.Context, actorID, playlistID, videoID string, edit memberEdit) (models.Playlist, error) {
	if err := validation.ID(videoID, "video id"); err != nil {
		return models.Playlist{}, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.ownedPlaylist(ctx, actorID, playlistID); err != nil {
		return models.Playlist{}, err
	}
	if _, err := s.store.Videos().FindByID(ctx, videoID); err != nil {
		return models.Playlist{}, repositories.Classify(err, "video")
	}
	if err := edit(ctx, playlistID, videoID, s.now()); err != nil {
		return models.Playlist{}, repositories.Classify(err, "playlist")
	}

	playlist, err := s.store.Playlists().FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, repositories.Classify(err, "playlist")
	}
	return playlist, nil
}

func (s *Service) ownedPlaylist(ctx context.Context, actorID, playlistID string) (models.Playlist, error) {
	if err := validation.ID(playlistID, "playlist id"); err != nil {
		return models.Playlist{}, err
	}
	playlist, err := s.store.Playlists().FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, repositories.Classify(err, "playlist")
	}
	if err := guard.Authorize(actorID, playlist); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}
