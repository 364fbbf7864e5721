package repositories

import (
	"context"
	"slices"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

type memoryLikes struct{ s *MemoryStore }

func (r memoryLikes) Find(_ context.Context, userID string, target models.LikeTarget) (models.Like, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.likeKeys[likeKey{user: userID, kind: target.Kind, id: target.ID}]
	if !ok {
		return models.Like{}, ErrNotFound
	}
	return r.s.likes[id], nil
}

func (r memoryLikes) Create(_ context.Context, like models.Like) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := likeKey{user: like.LikedBy, kind: like.Target.Kind, id: like.Target.ID}
	if _, ok := r.s.likeKeys[key]; ok {
		return ErrConflict
	}
	if _, ok := r.s.likes[like.ID]; ok {
		return ErrConflict
	}
	if !r.s.userExists(like.LikedBy) {
		return ErrNotFound
	}
	r.s.likes[like.ID] = like
	r.s.likeKeys[key] = like.ID
	r.s.track(like.ID)
	return nil
}

func (r memoryLikes) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	like, ok := r.s.likes[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.s.likes, id)
	delete(r.s.likeKeys, likeKey{user: like.LikedBy, kind: like.Target.Kind, id: like.Target.ID})
	return nil
}

func (r memoryLikes) DeleteByTargets(_ context.Context, kind models.TargetKind, ids []string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int64
	for id, like := range r.s.likes {
		if like.Target.Kind != kind || !slices.Contains(ids, like.Target.ID) {
			continue
		}
		delete(r.s.likes, id)
		delete(r.s.likeKeys, likeKey{user: like.LikedBy, kind: like.Target.Kind, id: like.Target.ID})
		removed++
	}
	return removed, nil
}

func (r memoryLikes) Stats(_ context.Context, viewerID string, kind models.TargetKind, ids []string) (map[string]LikeStat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := make(map[string]LikeStat)
	for _, like := range r.s.likes {
		if like.Target.Kind != kind || !slices.Contains(ids, like.Target.ID) {
			continue
		}
		stat := stats[like.Target.ID]
		stat.Count++
		if viewerID != "" && like.LikedBy == viewerID {
			stat.Liked = true
		}
		stats[like.Target.ID] = stat
	}
	return stats, nil
}

type memorySubscriptions struct{ s *MemoryStore }

func (r memorySubscriptions) Find(_ context.Context, subscriberID, channelID string) (models.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.subKeys[subKey{subscriber: subscriberID, channel: channelID}]
	if !ok {
		return models.Subscription{}, ErrNotFound
	}
	return r.s.subs[id], nil
}

func (r memorySubscriptions) Create(_ context.Context, sub models.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := subKey{subscriber: sub.SubscriberID, channel: sub.ChannelID}
	if _, ok := r.s.subKeys[key]; ok {
		return ErrConflict
	}
	if _, ok := r.s.subs[sub.ID]; ok {
		return ErrConflict
	}
	if !r.s.userExists(sub.SubscriberID) || !r.s.userExists(sub.ChannelID) {
		return ErrNotFound
	}
	r.s.subs[sub.ID] = sub
	r.s.subKeys[key] = sub.ID
	r.s.track(sub.ID)
	return nil
}

func (r memorySubscriptions) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub, ok := r.s.subs[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.s.subs, id)
	delete(r.s.subKeys, subKey{subscriber: sub.SubscriberID, channel: sub.ChannelID})
	return nil
}

func (r memorySubscriptions) list(match func(models.Subscription) bool) pagination.Source[models.Subscription] {
	return newSnapshot(func() []models.Subscription {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()

		var subs []models.Subscription
		for _, sub := range r.s.subs {
			if match(sub) {
				subs = append(subs, sub)
			}
		}
		slices.SortFunc(subs, func(a, b models.Subscription) int {
			return r.s.newerFirst(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
		})
		return subs
	})
}

func (r memorySubscriptions) ListByChannel(channelID string) pagination.Source[models.Subscription] {
	return r.list(func(s models.Subscription) bool { return s.ChannelID == channelID })
}

func (r memorySubscriptions) ListBySubscriber(subscriberID string) pagination.Source[models.Subscription] {
	return r.list(func(s models.Subscription) bool { return s.SubscriberID == subscriberID })
}

func (r memorySubscriptions) SubscribersAmong(_ context.Context, channelID string, subscriberIDs []string) (map[string]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := make(map[string]bool, len(subscriberIDs))
	for _, id := range subscriberIDs {
		if _, ok := r.s.subKeys[subKey{subscriber: id, channel: channelID}]; ok {
			found[id] = true
		}
	}
	return found, nil
}

func (r memorySubscriptions) Stats(_ context.Context, viewerID string, userIDs []string) (map[string]ChannelStat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := make(map[string]ChannelStat, len(userIDs))
	for _, id := range userIDs {
		stats[id] = ChannelStat{}
	}
	for _, sub := range r.s.subs {
		if stat, ok := stats[sub.ChannelID]; ok {
			stat.Subscribers++
			if viewerID != "" && sub.SubscriberID == viewerID {
				stat.ViewerSubscribed = true
			}
			stats[sub.ChannelID] = stat
		}
		if stat, ok := stats[sub.SubscriberID]; ok {
			stat.SubscribedTo++
			stats[sub.SubscriberID] = stat
		}
	}
	return stats, nil
}
