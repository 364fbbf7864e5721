package views

import (
	"context"
	"strings"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/validation"
)

// ChannelProfile returns the channel page of the user with the given handle.
func (a *Aggregator) ChannelProfile(ctx context.Context, actorID, username string) (models.ChannelProfile, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	handle := strings.ToLower(strings.TrimSpace(username))
	if handle == "" {
		return models.ChannelProfile{}, apperr.New(apperr.InvalidArgument, "username is required")
	}
	user, err := a.store.Users().FindByUsername(ctx, handle)
	if err != nil {
		return models.ChannelProfile{}, repositories.Classify(err, "channel")
	}
	stats, err := a.store.Subscriptions().Stats(ctx, actorID, []string{user.ID})
	if err != nil {
		return models.ChannelProfile{}, repositories.Classify(err, "subscription")
	}
	stat := stats[user.ID]
	return models.ChannelProfile{
		ID:                   user.ID,
		Username:             user.Username,
		FullName:             user.FullName,
		Email:                user.Email,
		Avatar:               user.Avatar,
		CoverImage:           user.CoverImage,
		SubscribersCount:     stat.Subscribers,
		ChannelsSubscribedTo: stat.SubscribedTo,
		IsSubscribed:         actorID != "" && stat.ViewerSubscribed,
	}, nil
}

// ChannelSubscribers lists the users subscribed to channelID, newest first.
// SubscribedBack reports whether the channel subscribes to that user too.
func (a *Aggregator) ChannelSubscribers(ctx context.Context, channelID string, p pagination.Params) (pagination.Page[models.ChannelEdge], error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	if err := a.requireUser(ctx, channelID, "channel"); err != nil {
		return pagination.Page[models.ChannelEdge]{}, err
	}
	page, err := pagination.Paginate(ctx, a.store.Subscriptions().ListByChannel(channelID), p)
	if err != nil {
		return pagination.Page[models.ChannelEdge]{}, repositories.Classify(err, "subscription")
	}
	ids := make([]string, len(page.Items))
	for i, s := range page.Items {
		ids[i] = s.SubscriberID
	}

	// Viewing as the channel yields "channel subscribes to subscriber".
	edges, err := a.channelEdges(ctx, channelID, ids, func(_ string, stat repositories.ChannelStat) bool {
		return stat.ViewerSubscribed
	})
	if err != nil {
		return pagination.Page[models.ChannelEdge]{}, err
	}
	return pagination.Convert(page, edges), nil
}

// SubscribedChannels lists the channels subscriberID follows, newest first,
// each with its latest published video. SubscribedBack reports whether the
// channel subscribes to subscriberID in return.
func (a *Aggregator) SubscribedChannels(ctx context.Context, subscriberID string, p pagination.Params) (pagination.Page[models.ChannelEdge], error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	if err := a.requireUser(ctx, subscriberID, "subscriber"); err != nil {
		return pagination.Page[models.ChannelEdge]{}, err
	}
	page, err := pagination.Paginate(ctx, a.store.Subscriptions().ListBySubscriber(subscriberID), p)
	if err != nil {
		return pagination.Page[models.ChannelEdge]{}, repositories.Classify(err, "subscription")
	}
	ids := make([]string, len(page.Items))
	for i, s := range page.Items {
		ids[i] = s.ChannelID
	}

	back, err := a.store.Subscriptions().SubscribersAmong(ctx, subscriberID, ids)
	if err != nil {
		return pagination.Page[models.ChannelEdge]{}, repositories.Classify(err, "subscription")
	}
	edges, err := a.channelEdges(ctx, subscriberID, ids, func(channelID string, _ repositories.ChannelStat) bool {
		return back[channelID]
	})
	if err != nil {
		return pagination.Page[models.ChannelEdge]{}, err
	}

	latest, err := a.store.Videos().LatestPublished(ctx, ids)
	if err != nil {
		return pagination.Page[models.ChannelEdge]{}, repositories.Classify(err, "video")
	}
	for i := range edges {
		if v, ok := latest[edges[i].ID]; ok {
			card := models.NewVideoCard(v, nil)
			edges[i].LatestVideo = &card
		}
	}
	return pagination.Convert(page, edges), nil
}

type mutualFunc func(otherID string, stat repositories.ChannelStat) bool

// channelEdges resolves ids to users, in order, annotated from anchorID's
// point of view. Users that no longer exist are kept as bare ids.
func (a *Aggregator) channelEdges(ctx context.Context, anchorID string, ids []string, mutual mutualFunc) ([]models.ChannelEdge, error) {
	users, err := a.store.Users().FindByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, repositories.Classify(err, "user")
	}
	stats, err := a.store.Subscriptions().Stats(ctx, anchorID, ids)
	if err != nil {
		return nil, repositories.Classify(err, "subscription")
	}

	edges := make([]models.ChannelEdge, len(ids))
	for i, id := range ids {
		u := users[id]
		stat := stats[id]
		edges[i] = models.ChannelEdge{
			ID:               id,
			Username:         u.Username,
			FullName:         u.FullName,
			Avatar:           u.Avatar,
			SubscribersCount: stat.Subscribers,
			SubscribedBack:   mutual(id, stat),
		}
	}
	return edges, nil
}

// UserTweets lists a user's tweets, newest first.
func (a *Aggregator) UserTweets(ctx context.Context, actorID, userID string, p pagination.Params) (pagination.Page[models.TweetView], error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	if err := validation.ID(userID, "user id"); err != nil {
		return pagination.Page[models.TweetView]{}, err
	}
	user, err := a.store.Users().FindByID(ctx, userID)
	if err != nil {
		return pagination.Page[models.TweetView]{}, repositories.Classify(err, "user")
	}
	page, err := pagination.Paginate(ctx, a.store.Tweets().ListByOwner(userID), p)
	if err != nil {
		return pagination.Page[models.TweetView]{}, repositories.Classify(err, "tweet")
	}
	ids := make([]string, len(page.Items))
	for i, t := range page.Items {
		ids[i] = t.ID
	}
	likes, err := a.store.Likes().Stats(ctx, actorID, models.TargetTweet, ids)
	if err != nil {
		return pagination.Page[models.TweetView]{}, repositories.Classify(err, "like")
	}

	owner := models.Summarize(user)
	items := make([]models.TweetView, len(page.Items))
	for i, t := range page.Items {
		stat := likes[t.ID]
		items[i] = models.TweetView{
			ID:         t.ID,
			Content:    t.Content,
			CreatedAt:  t.CreatedAt,
			LikesCount: stat.Count,
			IsLiked:    actorID != "" && stat.Liked,
			Owner:      owner,
		}
	}
	return pagination.Convert(page, items), nil
}

func (a *Aggregator) requireUser(ctx context.Context, id, entity string) error {
	if err := validation.ID(id, entity+" id"); err != nil {
		return err
	}
	if _, err := a.store.Users().FindByID(ctx, id); err != nil {
		return repositories.Classify(err, entity)
	}
	return nil
}
