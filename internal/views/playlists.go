package views

import (
	"context"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/validation"
)

// PlaylistDetail returns a playlist with its published member videos in
// playlist order. Totals cover the included videos only.
func (a *Aggregator) PlaylistDetail(ctx context.Context, playlistID string) (models.PlaylistDetail, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	if err := validation.ID(playlistID, "playlist id"); err != nil {
		return models.PlaylistDetail{}, err
	}
	playlist, err := a.store.Playlists().FindByID(ctx, playlistID)
	if err != nil {
		return models.PlaylistDetail{}, repositories.Classify(err, "playlist")
	}
	owner, err := a.store.Users().FindByID(ctx, playlist.OwnerID)
	if err != nil {
		return models.PlaylistDetail{}, repositories.Classify(err, "owner")
	}
	videos, err := a.publishedMembers(ctx, playlist.VideoIDs)
	if err != nil {
		return models.PlaylistDetail{}, err
	}
	cards, err := a.videoCards(ctx, videos)
	if err != nil {
		return models.PlaylistDetail{}, err
	}

	var views int64
	for _, v := range videos {
		views += v.Views
	}
	return models.PlaylistDetail{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
		TotalVideos: len(videos),
		TotalViews:  views,
		Videos:      cards,
		Owner:       models.Summarize(owner),
	}, nil
}

// UserPlaylists lists a user's playlists, most recently updated first.
func (a *Aggregator) UserPlaylists(ctx context.Context, userID string, p pagination.Params) (pagination.Page[models.PlaylistSummary], error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	if err := a.requireUser(ctx, userID, "user"); err != nil {
		return pagination.Page[models.PlaylistSummary]{}, err
	}
	page, err := pagination.Paginate(ctx, a.store.Playlists().ListByOwner(userID), p)
	if err != nil {
		return pagination.Page[models.PlaylistSummary]{}, repositories.Classify(err, "playlist")
	}

	var all []string
	for _, pl := range page.Items {
		all = append(all, pl.VideoIDs...)
	}
	found, err := a.store.Videos().FindByIDs(ctx, uniq(all))
	if err != nil {
		return pagination.Page[models.PlaylistSummary]{}, repositories.Classify(err, "video")
	}

	items := make([]models.PlaylistSummary, len(page.Items))
	for i, pl := range page.Items {
		summary := models.PlaylistSummary{
			ID:          pl.ID,
			Name:        pl.Name,
			Description: pl.Description,
			UpdatedAt:   pl.UpdatedAt,
		}
		for _, id := range pl.VideoIDs {
			if v, ok := found[id]; ok && v.IsPublished {
				summary.TotalVideos++
				summary.TotalViews += v.Views
			}
		}
		items[i] = summary
	}
	return pagination.Convert(page, items), nil
}

func (a *Aggregator) publishedMembers(ctx context.Context, ids []string) ([]models.Video, error) {
	found, err := a.store.Videos().FindByIDs(ctx, ids)
	if err != nil {
		return nil, repositories.Classify(err, "video")
	}
	videos := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := found[id]; ok && v.IsPublished {
			videos = append(videos, v)
		}
	}
	return videos, nil
}
