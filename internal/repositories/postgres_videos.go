package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	exec executor
}

const videoColumns = "id, owner_id, title, description, duration, is_published, views, video_url, video_handle, thumbnail_url, thumbnail_handle, created_at, updated_at"

var videoSortColumns = map[SortField]string{
	SortCreatedAt: "created_at",
	SortUpdatedAt: "updated_at",
	SortViews:     "views",
	SortDuration:  "duration",
	SortTitle:     "title",
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.Duration, &v.IsPublished, &v.Views,
		&v.VideoFile.URL, &v.VideoFile.DeleteHandle, &v.Thumbnail.URL, &v.Thumbnail.DeleteHandle,
		&v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, v models.Video) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, `
            INSERT INTO videos (`+videoColumns+`)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        `, v.ID, v.OwnerID, v.Title, v.Description, v.Duration, v.IsPublished, v.Views,
			v.VideoFile.URL, v.VideoFile.DeleteHandle, v.Thumbnail.URL, v.Thumbnail.DeleteHandle,
			v.CreatedAt, v.UpdatedAt)
		if err != nil {
			return writeError(err, "insert video")
		}
		return nil
	})
}

func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	var video models.Video
	err := r.exec.run(ctx, func(q db.Querier) error {
		var err error
		video, err = scanVideo(q.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
		if err != nil {
			return readError(err, "select video")
		}
		return nil
	})
	return video, err
}

func (r *PostgresVideoRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error) {
	found := make(map[string]models.Video, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	err := r.exec.run(ctx, func(q db.Querier) error {
		return collectVideos(ctx, q, found, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, ids)
	})
	return found, err
}

func collectVideos(ctx context.Context, q db.Querier, into map[string]models.Video, query string, args ...any) error {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return fmt.Errorf("scan video: %w", err)
		}
		into[video.ID] = video
	}
	return rows.Err()
}

// Update persists the editable fields of a video. The publish flag is
// owned by TogglePublished.
func (r *PostgresVideoRepository) Update(ctx context.Context, v models.Video) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `
            UPDATE videos
            SET title = $2, description = $3, thumbnail_url = $4, thumbnail_handle = $5, updated_at = $6
            WHERE id = $1
        `, v.ID, v.Title, v.Description, v.Thumbnail.URL, v.Thumbnail.DeleteHandle, v.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update video: %w", err)
		}
		return requireAffected(tag)
	})
}

// TogglePublished flips is_published in a single statement.
func (r *PostgresVideoRepository) TogglePublished(ctx context.Context, id string, at time.Time) (bool, error) {
	var published bool
	err := r.exec.run(ctx, func(q db.Querier) error {
		err := q.QueryRow(ctx, `
            UPDATE videos SET is_published = NOT is_published, updated_at = $2
            WHERE id = $1
            RETURNING is_published
        `, id, at).Scan(&published)
		if err != nil {
			return readError(err, "toggle video published")
		}
		return nil
	})
	return published, err
}

func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete video: %w", err)
		}
		return requireAffected(tag)
	})
}

// IncrementViews bumps the view counter in a single statement.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("increment views: %w", err)
		}
		return requireAffected(tag)
	})
}

func (r *PostgresVideoRepository) Search(query VideoQuery) pagination.Source[models.Video] {
	var (
		where []string
		args  []any
	)
	if query.PublishedOnly {
		where = append(where, "is_published = TRUE")
	}
	if query.OwnerID != "" {
		args = append(args, query.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if text := strings.TrimSpace(query.Text); text != "" {
		args = append(args, text)
		where = append(where, fmt.Sprintf("to_tsvector('simple', title || ' ' || description) @@ plainto_tsquery('simple', $%d)", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	column, ok := videoSortColumns[query.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if query.Ascending {
		direction = "ASC"
	}

	return pgSource[models.Video]{
		exec:     r.exec,
		name:     "videos",
		countSQL: `SELECT COUNT(*) FROM videos` + clause,
		fetchSQL: `SELECT ` + videoColumns + ` FROM videos` + clause +
			fmt.Sprintf(" ORDER BY %s %s, id %s", column, direction, direction),
		args: args,
		scan: scanVideo,
	}
}

func (r *PostgresVideoRepository) LikedBy(userID string) pagination.Source[models.Video] {
	const from = ` FROM likes l JOIN videos v ON v.id = l.target_id
        WHERE l.liked_by = $1 AND l.target_kind = 'video' AND v.is_published = TRUE`
	return pgSource[models.Video]{
		exec:     r.exec,
		name:     "liked videos",
		countSQL: `SELECT COUNT(*)` + from,
		fetchSQL: `SELECT ` + qualify("v", videoColumns) + from + ` ORDER BY l.created_at DESC, l.id DESC`,
		args:     []any{userID},
		scan:     scanVideo,
	}
}

func (r *PostgresVideoRepository) LatestPublished(ctx context.Context, ownerIDs []string) (map[string]models.Video, error) {
	byID := make(map[string]models.Video)
	if len(ownerIDs) == 0 {
		return byID, nil
	}
	err := r.exec.run(ctx, func(q db.Querier) error {
		return collectVideos(ctx, q, byID, `
            SELECT DISTINCT ON (owner_id) `+videoColumns+`
            FROM videos
            WHERE is_published = TRUE AND owner_id = ANY($1)
            ORDER BY owner_id, created_at DESC, id DESC
        `, ownerIDs)
	})
	if err != nil {
		return nil, err
	}

	latest := make(map[string]models.Video, len(byID))
	for _, video := range byID {
		latest[video.OwnerID] = video
	}
	return latest, nil
}
