package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	exec executor
}

const commentColumns = "id, video_id, owner_id, content, created_at, updated_at"

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *PostgresCommentRepository) Create(ctx context.Context, c models.Comment) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, `
            INSERT INTO comments (`+commentColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
        `, c.ID, c.VideoID, c.OwnerID, c.Content, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return writeError(err, "insert comment")
		}
		return nil
	})
}

func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	var comment models.Comment
	err := r.exec.run(ctx, func(q db.Querier) error {
		var err error
		comment, err = scanComment(q.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
		if err != nil {
			return readError(err, "select comment")
		}
		return nil
	})
	return comment, err
}

func (r *PostgresCommentRepository) Update(ctx context.Context, c models.Comment) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`, c.ID, c.Content, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update comment: %w", err)
		}
		return requireAffected(tag)
	})
}

func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		return requireAffected(tag)
	})
}

func (r *PostgresCommentRepository) IDsByVideo(ctx context.Context, videoID string) ([]string, error) {
	var ids []string
	err := r.exec.run(ctx, func(q db.Querier) error {
		rows, err := q.Query(ctx, `SELECT id FROM comments WHERE video_id = $1`, videoID)
		if err != nil {
			return fmt.Errorf("query comment ids: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("scan comment id: %w", err)
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	return ids, err
}

func (r *PostgresCommentRepository) DeleteByVideo(ctx context.Context, videoID string) (int64, error) {
	var removed int64
	err := r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM comments WHERE video_id = $1`, videoID)
		if err != nil {
			return fmt.Errorf("delete video comments: %w", err)
		}
		removed = tag.RowsAffected()
		return nil
	})
	return removed, err
}

func (r *PostgresCommentRepository) ListByVideo(videoID string) pagination.Source[models.Comment] {
	return pgSource[models.Comment]{
		exec:     r.exec,
		name:     "comments",
		countSQL: `SELECT COUNT(*) FROM comments WHERE video_id = $1`,
		fetchSQL: `SELECT ` + commentColumns + ` FROM comments WHERE video_id = $1 ORDER BY created_at DESC, id DESC`,
		args:     []any{videoID},
		scan:     scanComment,
	}
}

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	exec executor
}

const tweetColumns = "id, owner_id, content, created_at, updated_at"

func scanTweet(row pgx.Row) (models.Tweet, error) {
	var t models.Tweet
	err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *PostgresTweetRepository) Create(ctx context.Context, t models.Tweet) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, `
            INSERT INTO tweets (`+tweetColumns+`) VALUES ($1, $2, $3, $4, $5)
        `, t.ID, t.OwnerID, t.Content, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return writeError(err, "insert tweet")
		}
		return nil
	})
}

func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	var tweet models.Tweet
	err := r.exec.run(ctx, func(q db.Querier) error {
		var err error
		tweet, err = scanTweet(q.QueryRow(ctx, `SELECT `+tweetColumns+` FROM tweets WHERE id = $1`, id))
		if err != nil {
			return readError(err, "select tweet")
		}
		return nil
	})
	return tweet, err
}

func (r *PostgresTweetRepository) Update(ctx context.Context, t models.Tweet) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `UPDATE tweets SET content = $2, updated_at = $3 WHERE id = $1`, t.ID, t.Content, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update tweet: %w", err)
		}
		return requireAffected(tag)
	})
}

func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM tweets WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete tweet: %w", err)
		}
		return requireAffected(tag)
	})
}

func (r *PostgresTweetRepository) ListByOwner(ownerID string) pagination.Source[models.Tweet] {
	return pgSource[models.Tweet]{
		exec:     r.exec,
		name:     "tweets",
		countSQL: `SELECT COUNT(*) FROM tweets WHERE owner_id = $1`,
		fetchSQL: `SELECT ` + tweetColumns + ` FROM tweets WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`,
		args:     []any{ownerID},
		scan:     scanTweet,
	}
}

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	exec executor
}

const playlistColumns = "id, owner_id, name, description, created_at, updated_at"

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresPlaylistRepository) Create(ctx context.Context, p models.Playlist) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, `
            INSERT INTO playlists (`+playlistColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
        `, p.ID, p.OwnerID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return writeError(err, "insert playlist")
		}
		for i, videoID := range dedupe(p.VideoIDs) {
			if _, err := q.Exec(ctx, `
                INSERT INTO playlist_videos (playlist_id, video_id, position) VALUES ($1, $2, $3)
            `, p.ID, videoID, i+1); err != nil {
				return writeError(err, "insert playlist video")
			}
		}
		return nil
	})
}

func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	var playlist models.Playlist
	err := r.exec.run(ctx, func(q db.Querier) error {
		var err error
		playlist, err = scanPlaylist(q.QueryRow(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, id))
		if err != nil {
			return readError(err, "select playlist")
		}
		members, err := loadMembers(ctx, q, []string{id})
		if err != nil {
			return err
		}
		playlist.VideoIDs = members[id]
		return nil
	})
	return playlist, err
}

func loadMembers(ctx context.Context, q db.Querier, playlistIDs []string) (map[string][]string, error) {
	members := make(map[string][]string, len(playlistIDs))
	for _, id := range playlistIDs {
		members[id] = []string{}
	}
	rows, err := q.Query(ctx, `
        SELECT playlist_id, video_id FROM playlist_videos
        WHERE playlist_id = ANY($1)
        ORDER BY playlist_id, position
    `, playlistIDs)
	if err != nil {
		return nil, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var playlistID, videoID string
		if err := rows.Scan(&playlistID, &videoID); err != nil {
			return nil, fmt.Errorf("scan playlist video: %w", err)
		}
		members[playlistID] = append(members[playlistID], videoID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist videos: %w", err)
	}
	return members, nil
}

func (r *PostgresPlaylistRepository) Update(ctx context.Context, p models.Playlist) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `
            UPDATE playlists SET name = $2, description = $3, updated_at = $4 WHERE id = $1
        `, p.ID, p.Name, p.Description, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update playlist: %w", err)
		}
		return requireAffected(tag)
	})
}

// Delete removes the playlist; its membership rows go with it.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete playlist: %w", err)
		}
		return requireAffected(tag)
	})
}

func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string, at time.Time) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, video_id, position)
            SELECT $1::TEXT, $2::TEXT, COALESCE(MAX(position), 0) + 1
            FROM playlist_videos WHERE playlist_id = $1::TEXT
            ON CONFLICT (playlist_id, video_id) DO NOTHING
        `, playlistID, videoID)
		if err != nil {
			return writeError(err, "insert playlist video")
		}
		if tag.RowsAffected() == 0 {
			return playlistExists(ctx, q, playlistID)
		}
		return touchPlaylist(ctx, q, playlistID, at)
	})
}

func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string, at time.Time) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, playlistID, videoID)
		if err != nil {
			return fmt.Errorf("delete playlist video: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return playlistExists(ctx, q, playlistID)
		}
		return touchPlaylist(ctx, q, playlistID, at)
	})
}

func playlistExists(ctx context.Context, q db.Querier, id string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM playlists WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check playlist: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func touchPlaylist(ctx context.Context, q db.Querier, id string, at time.Time) error {
	tag, err := q.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch playlist: %w", err)
	}
	return requireAffected(tag)
}

func (r *PostgresPlaylistRepository) ListByOwner(ownerID string) pagination.Source[models.Playlist] {
	return playlistSource{
		exec: r.exec,
		inner: pgSource[models.Playlist]{
			exec:     r.exec,
			name:     "playlists",
			countSQL: `SELECT COUNT(*) FROM playlists WHERE owner_id = $1`,
			fetchSQL: `SELECT ` + playlistColumns + ` FROM playlists WHERE owner_id = $1 ORDER BY updated_at DESC, id DESC`,
			args:     []any{ownerID},
			scan:     scanPlaylist,
		},
	}
}

// playlistSource attaches member video ids to each fetched playlist.
type playlistSource struct {
	exec  executor
	inner pgSource[models.Playlist]
}

func (s playlistSource) Count(ctx context.Context) (int, error) {
	return s.inner.Count(ctx)
}

func (s playlistSource) Fetch(ctx context.Context, offset, limit int) ([]models.Playlist, error) {
	playlists, err := s.inner.Fetch(ctx, offset, limit)
	if err != nil || len(playlists) == 0 {
		return playlists, err
	}

	ids := make([]string, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}

	err = s.exec.run(ctx, func(q db.Querier) error {
		members, err := loadMembers(ctx, q, ids)
		if err != nil {
			return err
		}
		for i := range playlists {
			playlists[i].VideoIDs = members[playlists[i].ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return playlists, nil
}
