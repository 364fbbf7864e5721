package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for like edges.
// Uniqueness of (liked_by, target_kind, target_id) is enforced by the schema.
type PostgresLikeRepository struct {
	exec executor
}

func (r *PostgresLikeRepository) Find(ctx context.Context, userID string, target models.LikeTarget) (models.Like, error) {
	var like models.Like
	err := r.exec.run(ctx, func(q db.Querier) error {
		var kind string
		err := q.QueryRow(ctx, `
            SELECT id, target_kind, target_id, liked_by, created_at
            FROM likes
            WHERE liked_by = $1 AND target_kind = $2 AND target_id = $3
        `, userID, string(target.Kind), target.ID).Scan(&like.ID, &kind, &like.Target.ID, &like.LikedBy, &like.CreatedAt)
		if err != nil {
			return readError(err, "select like")
		}
		like.Target.Kind = models.TargetKind(kind)
		return nil
	})
	return like, err
}

func (r *PostgresLikeRepository) Create(ctx context.Context, like models.Like) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, `
            INSERT INTO likes (id, target_kind, target_id, liked_by, created_at)
            VALUES ($1, $2, $3, $4, $5)
        `, like.ID, string(like.Target.Kind), like.Target.ID, like.LikedBy, like.CreatedAt)
		if err != nil {
			return writeError(err, "insert like")
		}
		return nil
	})
}

func (r *PostgresLikeRepository) Delete(ctx context.Context, id string) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM likes WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
		return requireAffected(tag)
	})
}

func (r *PostgresLikeRepository) DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var removed int64
	err := r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM likes WHERE target_kind = $1 AND target_id = ANY($2)`, string(kind), ids)
		if err != nil {
			return fmt.Errorf("delete likes: %w", err)
		}
		removed = tag.RowsAffected()
		return nil
	})
	return removed, err
}

func (r *PostgresLikeRepository) Stats(ctx context.Context, viewerID string, kind models.TargetKind, ids []string) (map[string]LikeStat, error) {
	stats := make(map[string]LikeStat)
	if len(ids) == 0 {
		return stats, nil
	}
	err := r.exec.run(ctx, func(q db.Querier) error {
		rows, err := q.Query(ctx, `
            SELECT target_id, COUNT(*), COALESCE(BOOL_OR(liked_by = $1), FALSE)
            FROM likes
            WHERE target_kind = $2 AND target_id = ANY($3)
            GROUP BY target_id
        `, viewerID, string(kind), ids)
		if err != nil {
			return fmt.Errorf("query like stats: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id   string
				stat LikeStat
			)
			if err := rows.Scan(&id, &stat.Count, &stat.Liked); err != nil {
				return fmt.Errorf("scan like stats: %w", err)
			}
			stat.Liked = stat.Liked && viewerID != ""
			stats[id] = stat
		}
		return rows.Err()
	})
	return stats, err
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// subscription edges.
type PostgresSubscriptionRepository struct {
	exec executor
}

const subscriptionColumns = "id, subscriber_id, channel_id, created_at"

func scanSubscription(row pgx.Row) (models.Subscription, error) {
	var s models.Subscription
	err := row.Scan(&s.ID, &s.SubscriberID, &s.ChannelID, &s.CreatedAt)
	return s, err
}

func (r *PostgresSubscriptionRepository) Find(ctx context.Context, subscriberID, channelID string) (models.Subscription, error) {
	var sub models.Subscription
	err := r.exec.run(ctx, func(q db.Querier) error {
		var err error
		sub, err = scanSubscription(q.QueryRow(ctx, `
            SELECT `+subscriptionColumns+` FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
        `, subscriberID, channelID))
		if err != nil {
			return readError(err, "select subscription")
		}
		return nil
	})
	return sub, err
}

func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, `
            INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES ($1, $2, $3, $4)
        `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
		if err != nil {
			return writeError(err, "insert subscription")
		}
		return nil
	})
}

func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, id string) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete subscription: %w", err)
		}
		return requireAffected(tag)
	})
}

func (r *PostgresSubscriptionRepository) list(column, id string) pagination.Source[models.Subscription] {
	return pgSource[models.Subscription]{
		exec:     r.exec,
		name:     "subscriptions",
		countSQL: `SELECT COUNT(*) FROM subscriptions WHERE ` + column + ` = $1`,
		fetchSQL: `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE ` + column + ` = $1 ORDER BY created_at DESC, id DESC`,
		args:     []any{id},
		scan:     scanSubscription,
	}
}

func (r *PostgresSubscriptionRepository) ListByChannel(channelID string) pagination.Source[models.Subscription] {
	return r.list("channel_id", channelID)
}

func (r *PostgresSubscriptionRepository) ListBySubscriber(subscriberID string) pagination.Source[models.Subscription] {
	return r.list("subscriber_id", subscriberID)
}

// SubscribersAmong answers the mutual-subscription question for a whole page
// in one query.
func (r *PostgresSubscriptionRepository) SubscribersAmong(ctx context.Context, channelID string, subscriberIDs []string) (map[string]bool, error) {
	found := make(map[string]bool, len(subscriberIDs))
	if len(subscriberIDs) == 0 {
		return found, nil
	}
	err := r.exec.run(ctx, func(q db.Querier) error {
		rows, err := q.Query(ctx, `
            SELECT subscriber_id FROM subscriptions
            WHERE channel_id = $1 AND subscriber_id = ANY($2)
        `, channelID, subscriberIDs)
		if err != nil {
			return fmt.Errorf("query mutual subscriptions: %w", err)
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("scan mutual subscriptions: %w", err)
		}
		for _, id := range ids {
			found[id] = true
		}
		return nil
	})
	return found, err
}

func (r *PostgresSubscriptionRepository) Stats(ctx context.Context, viewerID string, userIDs []string) (map[string]ChannelStat, error) {
	stats := make(map[string]ChannelStat, len(userIDs))
	for _, id := range userIDs {
		stats[id] = ChannelStat{}
	}
	if len(userIDs) == 0 {
		return stats, nil
	}

	err := r.exec.run(ctx, func(q db.Querier) error {
		rows, err := q.Query(ctx, `
            SELECT channel_id, COUNT(*), COALESCE(BOOL_OR(subscriber_id = $1), FALSE)
            FROM subscriptions
            WHERE channel_id = ANY($2)
            GROUP BY channel_id
        `, viewerID, userIDs)
		if err != nil {
			return fmt.Errorf("query subscriber stats: %w", err)
		}
		for rows.Next() {
			var (
				id         string
				count      int64
				subscribed bool
			)
			if err := rows.Scan(&id, &count, &subscribed); err != nil {
				rows.Close()
				return fmt.Errorf("scan subscriber stats: %w", err)
			}
			stat := stats[id]
			stat.Subscribers = count
			stat.ViewerSubscribed = subscribed && viewerID != ""
			stats[id] = stat
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate subscriber stats: %w", err)
		}

		rows, err = q.Query(ctx, `
            SELECT subscriber_id, COUNT(*)
            FROM subscriptions
            WHERE subscriber_id = ANY($1)
            GROUP BY subscriber_id
        `, userIDs)
		if err != nil {
			return fmt.Errorf("query subscribed-to stats: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id    string
				count int64
			)
			if err := rows.Scan(&id, &count); err != nil {
				return fmt.Errorf("scan subscribed-to stats: %w", err)
			}
			stat := stats[id]
			stat.SubscribedTo = count
			stats[id] = stat
		}
		return rows.Err()
	})
	return stats, err
}
