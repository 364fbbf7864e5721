package content

import (
	"context"
	"log/slog"
	"strings"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/cascade"
	"github.com/videotube/backend/internal/guard"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/validation"
)

// PublishInput describes an upload. VideoFile and Thumbnail are local paths.
type PublishInput struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"required,notblank,max=5000"`
	VideoFile   string `json:"videoFile" validate:"required"`
	Thumbnail   string `json:"thumbnail" validate:"required"`
}

// VideoUpdateInput edits a video. An empty Thumbnail keeps the current one.
type VideoUpdateInput struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"required,notblank,max=5000"`
	Thumbnail   string `json:"thumbnail"`
}

// Publish uploads a video and its thumbnail. New videos start unpublished.
func (s *Service) Publish(ctx context.Context, actorID string, in PublishInput) (models.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return models.Video{}, err
	}

	ctx, span := logging.StartSpan(ctx, "content.publish")
	defer span.End()

	sctx, cancel := s.bound(ctx)
	_, err := s.actor(sctx, actorID)
	cancel()
	if err != nil {
		return models.Video{}, err
	}

	// The upload removes the local file, so probe first.
	var duration float64
	if s.probe != nil {
		d, err := s.probe.Duration(ctx, in.VideoFile)
		if err != nil {
			return models.Video{}, apperr.Wrap(apperr.InvalidArgument, "video file could not be read", err)
		}
		duration = d
	}

	file, err := s.upload(ctx, in.VideoFile)
	if err != nil {
		return models.Video{}, err
	}
	thumb, err := s.upload(ctx, in.Thumbnail)
	if err != nil {
		s.discard(ctx, file)
		return models.Video{}, err
	}

	now := s.now()
	video := models.Video{
		ID:          s.newID(),
		OwnerID:     actorID,
		Title:       in.Title,
		Description: in.Description,
		Duration:    duration,
		VideoFile:   file,
		Thumbnail:   thumb,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	sctx, cancel = s.bound(ctx)
	defer cancel()
	if err := s.store.Videos().Create(sctx, video); err != nil {
		s.discard(ctx, file, thumb)
		return models.Video{}, repositories.Classify(err, "video")
	}
	logging.FromContext(ctx).Info("video published", slog.String("video_id", video.ID), slog.Float64("duration", duration))
	return video, nil
}

// UpdateVideo edits title and description and optionally swaps the
// thumbnail. The previous thumbnail is released after the update is stored.
func (s *Service) UpdateVideo(ctx context.Context, actorID, videoID string, in VideoUpdateInput) (models.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return models.Video{}, err
	}

	sctx, cancel := s.bound(ctx)
	video, err := s.ownedVideo(sctx, actorID, videoID)
	cancel()
	if err != nil {
		return models.Video{}, err
	}

	previous := video.Thumbnail
	if in.Thumbnail != "" {
		thumb, err := s.upload(ctx, in.Thumbnail)
		if err != nil {
			return models.Video{}, err
		}
		video.Thumbnail = thumb
	}
	video.Title = in.Title
	video.Description = in.Description
	video.UpdatedAt = s.now()

	sctx, cancel = s.bound(ctx)
	defer cancel()
	if err := s.store.Videos().Update(sctx, video); err != nil {
		if in.Thumbnail != "" {
			s.discard(ctx, video.Thumbnail)
		}
		return models.Video{}, repositories.Classify(err, "video")
	}
	if in.Thumbnail != "" {
		s.discard(ctx, previous)
	}
	return video, nil
}

// TogglePublish flips the publication flag of the actor's video. Only the
// flag and the update time are written.
func (s *Service) TogglePublish(ctx context.Context, actorID, videoID string) (models.PublishState, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.ownedVideo(ctx, actorID, videoID); err != nil {
		return models.PublishState{}, err
	}
	published, err := s.store.Videos().TogglePublished(ctx, videoID, s.now())
	if err != nil {
		return models.PublishState{}, repositories.Classify(err, "video")
	}
	return models.PublishState{ID: videoID, IsPublished: published}, nil
}

// DeleteVideo removes the actor's video with its comments, likes and media.
func (s *Service) DeleteVideo(ctx context.Context, actorID, videoID string) (cascade.Report, error) {
	sctx, cancel := s.bound(ctx)
	video, err := s.ownedVideo(sctx, actorID, videoID)
	cancel()
	if err != nil {
		return cascade.Report{}, err
	}
	return s.cascade.DeleteVideo(ctx, video)
}

// Watch counts a view, records it in the actor's history and returns the
// video detail. Anonymous views are counted without history.
func (s *Service) Watch(ctx context.Context, actorID, videoID string) (models.VideoDetail, error) {
	if err := validation.ID(videoID, "video id"); err != nil {
		return models.VideoDetail{}, err
	}

	bctx, cancel := s.bound(ctx)
	defer cancel()

	video, err := s.store.Videos().FindByID(bctx, videoID)
	if err != nil {
		return models.VideoDetail{}, repositories.Classify(err, "video")
	}
	if !video.IsPublished && video.OwnerID != actorID {
		return models.VideoDetail{}, apperr.New(apperr.NotFound, "video not found")
	}

	if err := s.store.Videos().IncrementViews(bctx, videoID); err != nil {
		return models.VideoDetail{}, repositories.Classify(err, "video")
	}
	if actorID != "" {
		if err := s.store.Users().AppendWatchHistory(bctx, actorID, videoID, s.now()); err != nil {
			return models.VideoDetail{}, repositories.Classify(err, "user")
		}
	}
	return s.views.VideoDetail(ctx, actorID, videoID)
}

func (s *Service) ownedVideo(ctx context.Context, actorID, videoID string) (models.Video, error) {
	if err := validation.ID(videoID, "video id"); err != nil {
		return models.Video{}, err
	}
	video, err := s.store.Videos().FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, repositories.Classify(err, "video")
	}
	if err := guard.Authorize(actorID, video); err != nil {
		return models.Video{}, err
	}
	return video, nil
}
