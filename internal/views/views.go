// Package views assembles read-only projections that join primary entities
// with owners, counters and viewer-relative flags. Nothing here mutates the
// store. An empty actor ID means an anonymous viewer; every viewer-relative
// flag is false for that viewer.
package views

import (
	"context"
	"strings"
	"time"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/validation"
)

// Aggregator builds view projections from a store.
type Aggregator struct {
	store   repositories.Store
	timeout time.Duration
}

// NewAggregator constructs an Aggregator. A positive timeout bounds the store
// calls of each view.
func NewAggregator(store repositories.Store, timeout time.Duration) *Aggregator {
	if store == nil {
		panic("views: store must not be nil")
	}
	return &Aggregator{store: store, timeout: timeout}
}

// FeedQuery filters and orders the public video feed.
type FeedQuery struct {
	Query    string
	OwnerID  string
	SortBy   string
	SortType string
}

func (q FeedQuery) toVideoQuery() (repositories.VideoQuery, error) {
	vq := repositories.VideoQuery{
		Text:          strings.TrimSpace(q.Query),
		PublishedOnly: true,
		SortBy:        repositories.SortCreatedAt,
	}
	if q.OwnerID != "" {
		if err := validation.ID(q.OwnerID, "user id"); err != nil {
			return vq, err
		}
		vq.OwnerID = q.OwnerID
	}
	if q.SortBy != "" {
		field := repositories.SortField(q.SortBy)
		if !field.Valid() {
			return vq, apperr.Newf(apperr.InvalidArgument, "cannot sort by %q", q.SortBy)
		}
		vq.SortBy = field
	}
	vq.Ascending = strings.EqualFold(q.SortType, "asc")
	return vq, nil
}

func (a *Aggregator) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

// VideoFeed lists published videos with their owners.
func (a *Aggregator) VideoFeed(ctx context.Context, actorID string, query FeedQuery, p pagination.Params) (pagination.Page[models.VideoCard], error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	vq, err := query.toVideoQuery()
	if err != nil {
		return pagination.Page[models.VideoCard]{}, err
	}
	page, err := pagination.Paginate(ctx, a.store.Videos().Search(vq), p)
	if err != nil {
		return pagination.Page[models.VideoCard]{}, repositories.Classify(err, "video")
	}
	cards, err := a.videoCards(ctx, page.Items)
	if err != nil {
		return pagination.Page[models.VideoCard]{}, err
	}
	return pagination.Convert(page, cards), nil
}

// VideoDetail returns a video with its like state and channel block.
// Unpublished videos are visible to their owner only.
func (a *Aggregator) VideoDetail(ctx context.Context, actorID, videoID string) (models.VideoDetail, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	video, err := a.visibleVideo(ctx, actorID, videoID)
	if err != nil {
		return models.VideoDetail{}, err
	}
	owner, err := a.store.Users().FindByID(ctx, video.OwnerID)
	if err != nil {
		return models.VideoDetail{}, repositories.Classify(err, "owner")
	}
	likes, err := a.store.Likes().Stats(ctx, actorID, models.TargetVideo, []string{video.ID})
	if err != nil {
		return models.VideoDetail{}, repositories.Classify(err, "like")
	}
	channel, err := a.store.Subscriptions().Stats(ctx, actorID, []string{owner.ID})
	if err != nil {
		return models.VideoDetail{}, repositories.Classify(err, "subscription")
	}

	like := likes[video.ID]
	stat := channel[owner.ID]
	return models.VideoDetail{
		ID:           video.ID,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoFile.URL,
		ThumbnailURL: video.Thumbnail.URL,
		Duration:     video.Duration,
		Views:        video.Views,
		IsPublished:  video.IsPublished,
		CreatedAt:    video.CreatedAt,
		LikesCount:   like.Count,
		IsLiked:      actorID != "" && like.Liked,
		Owner: models.ChannelOwner{
			ID:               owner.ID,
			Username:         owner.Username,
			Avatar:           owner.Avatar,
			SubscribersCount: stat.Subscribers,
			IsSubscribed:     actorID != "" && stat.ViewerSubscribed,
		},
	}, nil
}

// VideoComments lists the comments of a video, newest first.
func (a *Aggregator) VideoComments(ctx context.Context, actorID, videoID string, p pagination.Params) (pagination.Page[models.CommentView], error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	if _, err := a.visibleVideo(ctx, actorID, videoID); err != nil {
		return pagination.Page[models.CommentView]{}, err
	}
	page, err := pagination.Paginate(ctx, a.store.Comments().ListByVideo(videoID), p)
	if err != nil {
		return pagination.Page[models.CommentView]{}, repositories.Classify(err, "comment")
	}

	ids := make([]string, len(page.Items))
	ownerIDs := make([]string, len(page.Items))
	for i, c := range page.Items {
		ids[i] = c.ID
		ownerIDs[i] = c.OwnerID
	}
	owners, err := a.owners(ctx, ownerIDs)
	if err != nil {
		return pagination.Page[models.CommentView]{}, err
	}
	likes, err := a.store.Likes().Stats(ctx, actorID, models.TargetComment, ids)
	if err != nil {
		return pagination.Page[models.CommentView]{}, repositories.Classify(err, "like")
	}

	items := make([]models.CommentView, len(page.Items))
	for i, c := range page.Items {
		stat := likes[c.ID]
		items[i] = models.CommentView{
			ID:         c.ID,
			Content:    c.Content,
			CreatedAt:  c.CreatedAt,
			LikesCount: stat.Count,
			IsLiked:    actorID != "" && stat.Liked,
			Owner:      owners[c.OwnerID],
		}
	}
	return pagination.Convert(page, items), nil
}

// WatchHistory resolves actorID's recorded views in the order they were first
// recorded. Videos deleted since, or unpublished by someone else, are skipped.
func (a *Aggregator) WatchHistory(ctx context.Context, actorID string, p pagination.Params) (pagination.Page[models.VideoCard], error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	if actorID == "" {
		return pagination.Page[models.VideoCard]{}, apperr.New(apperr.Forbidden, "sign in to view watch history")
	}
	ids, err := a.store.Users().WatchHistory(ctx, actorID)
	if err != nil {
		return pagination.Page[models.VideoCard]{}, repositories.Classify(err, "user")
	}
	found, err := a.store.Videos().FindByIDs(ctx, ids)
	if err != nil {
		return pagination.Page[models.VideoCard]{}, repositories.Classify(err, "video")
	}

	videos := make([]models.Video, 0, len(found))
	for _, id := range ids {
		v, ok := found[id]
		if !ok || (!v.IsPublished && v.OwnerID != actorID) {
			continue
		}
		videos = append(videos, v)
	}

	page, err := pagination.Paginate(ctx, pagination.SliceSource[models.Video](videos), p)
	if err != nil {
		return pagination.Page[models.VideoCard]{}, err
	}
	cards, err := a.videoCards(ctx, page.Items)
	if err != nil {
		return pagination.Page[models.VideoCard]{}, err
	}
	return pagination.Convert(page, cards), nil
}

// LikedVideos lists the published videos actorID liked, most recent like first.
func (a *Aggregator) LikedVideos(ctx context.Context, actorID string, p pagination.Params) (pagination.Page[models.VideoCard], error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	if actorID == "" {
		return pagination.Page[models.VideoCard]{}, apperr.New(apperr.Forbidden, "sign in to view liked videos")
	}
	page, err := pagination.Paginate(ctx, a.store.Videos().LikedBy(actorID), p)
	if err != nil {
		return pagination.Page[models.VideoCard]{}, repositories.Classify(err, "video")
	}
	cards, err := a.videoCards(ctx, page.Items)
	if err != nil {
		return pagination.Page[models.VideoCard]{}, err
	}
	return pagination.Convert(page, cards), nil
}

func (a *Aggregator) visibleVideo(ctx context.Context, actorID, videoID string) (models.Video, error) {
	if err := validation.ID(videoID, "video id"); err != nil {
		return models.Video{}, err
	}
	video, err := a.store.Videos().FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, repositories.Classify(err, "video")
	}
	if !video.IsPublished && (actorID == "" || video.OwnerID != actorID) {
		return models.Video{}, apperr.New(apperr.NotFound, "video not found")
	}
	return video, nil
}

func (a *Aggregator) owners(ctx context.Context, ids []string) (map[string]models.OwnerSummary, error) {
	users, err := a.store.Users().FindByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, repositories.Classify(err, "user")
	}
	out := make(map[string]models.OwnerSummary, len(users))
	for id, u := range users {
		out[id] = models.Summarize(u)
	}
	return out, nil
}

func (a *Aggregator) videoCards(ctx context.Context, videos []models.Video) ([]models.VideoCard, error) {
	ownerIDs := make([]string, len(videos))
	for i, v := range videos {
		ownerIDs[i] = v.OwnerID
	}
	owners, err := a.owners(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	cards := make([]models.VideoCard, len(videos))
	for i, v := range videos {
		var owner *models.OwnerSummary
		if o, ok := owners[v.OwnerID]; ok {
			owner = &o
		}
		cards[i] = models.NewVideoCard(v, owner)
	}
	return cards, nil
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
