package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// PostgresStore implements Store on PostgreSQL-compatible databases.
type PostgresStore struct {
	exec executor
}

// NewPostgresStore constructs a store that acquires pooled connections per call.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{exec: executor{pool: pool}}
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) Users() UserRepository       { return &PostgresUserRepository{exec: s.exec} }
func (s *PostgresStore) Videos() VideoRepository     { return &PostgresVideoRepository{exec: s.exec} }
func (s *PostgresStore) Comments() CommentRepository { return &PostgresCommentRepository{exec: s.exec} }
func (s *PostgresStore) Tweets() TweetRepository     { return &PostgresTweetRepository{exec: s.exec} }
func (s *PostgresStore) Likes() LikeRepository       { return &PostgresLikeRepository{exec: s.exec} }
func (s *PostgresStore) Subscriptions() SubscriptionRepository {
	return &PostgresSubscriptionRepository{exec: s.exec}
}
func (s *PostgresStore) Playlists() PlaylistRepository {
	return &PostgresPlaylistRepository{exec: s.exec}
}

// Tx runs fn inside a transaction. Serialization failures are retried by
// crdbpgx; any other error rolls the transaction back.
func (s *PostgresStore) Tx(ctx context.Context, fn func(tx Store) error) error {
	if s.exec.tx != nil {
		return fn(s)
	}

	conn, err := s.exec.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&PostgresStore{exec: executor{pool: s.exec.pool, tx: tx}})
	})
}

// executor runs statements on the bound transaction, or on a connection
// acquired for the duration of the call.
type executor struct {
	pool db.Pool
	tx   pgx.Tx
}

func (e executor) run(ctx context.Context, fn func(q db.Querier) error) error {
	if e.tx != nil {
		return fn(e.tx)
	}
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

func writeError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func readError(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// qualify prefixes each column in a comma separated list with alias.
func qualify(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

// pgSource pages through a query. fetchSQL must not carry LIMIT/OFFSET.
type pgSource[T any] struct {
	exec     executor
	name     string
	countSQL string
	fetchSQL string
	args     []any
	scan     func(row pgx.Row) (T, error)
}

func (s pgSource[T]) Count(ctx context.Context) (int, error) {
	var n int
	err := s.exec.run(ctx, func(q db.Querier) error {
		if err := q.QueryRow(ctx, s.countSQL, s.args...).Scan(&n); err != nil {
			return fmt.Errorf("count %s: %w", s.name, err)
		}
		return nil
	})
	return n, err
}

func (s pgSource[T]) Fetch(ctx context.Context, offset, limit int) ([]T, error) {
	query := fmt.Sprintf("%s LIMIT $%d OFFSET $%d", s.fetchSQL, len(s.args)+1, len(s.args)+2)
	args := append(slices.Clone(s.args), limit, offset)

	items := []T{}
	err := s.exec.run(ctx, func(q db.Querier) error {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query %s: %w", s.name, err)
		}
		defer rows.Close()

		for rows.Next() {
			item, err := s.scan(rows)
			if err != nil {
				return fmt.Errorf("scan %s: %w", s.name, err)
			}
			items = append(items, item)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate %s: %w", s.name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	exec executor
}

const userColumns = "id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, refresh_token_expires_at, created_at, updated_at"

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user      models.User
		refreshAt sql.NullTime
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Avatar, &user.CoverImage,
		&user.Password, &user.RefreshToken, &refreshAt, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, err
	}
	if refreshAt.Valid {
		user.RefreshTokenExpiresAt = refreshAt.Time.UTC()
	}
	return user, nil
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, `
            INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        `, user.ID, user.Username, user.Email, user.FullName, user.Avatar, user.CoverImage, user.Password, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return writeError(err, "insert user")
		}
		return nil
	})
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, arg any) (models.User, error) {
	var user models.User
	err := r.exec.run(ctx, func(q db.Querier) error {
		var err error
		user, err = scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
		if err != nil {
			return readError(err, "select user")
		}
		return nil
	})
	return user, err
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, "username = $1", username)
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email = $1", email)
}

func (r *PostgresUserRepository) FindByRefreshToken(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrNotFound
	}
	return r.findOne(ctx, "refresh_token = $1", token)
}

func (r *PostgresUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	found := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	err := r.exec.run(ctx, func(q db.Querier) error {
		rows, err := q.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
		if err != nil {
			return fmt.Errorf("query users: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("scan user: %w", err)
			}
			found[user.ID] = user
		}
		return rows.Err()
	})
	return found, err
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `
            UPDATE users
            SET email = $2, full_name = $3, avatar_url = $4, cover_image_url = $5, password_hash = $6, updated_at = $7
            WHERE id = $1
        `, user.ID, user.Email, user.FullName, user.Avatar, user.CoverImage, user.Password, user.UpdatedAt)
		if err != nil {
			return writeError(err, "update user")
		}
		return requireAffected(tag)
	})
}

func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	expires := sql.NullTime{}
	if token != "" {
		expires = sql.NullTime{Valid: true, Time: expiresAt.UTC()}
	}
	return r.exec.run(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `
            UPDATE users SET refresh_token = $2, refresh_token_expires_at = $3 WHERE id = $1
        `, userID, token, expires)
		if err != nil {
			return fmt.Errorf("update refresh token: %w", err)
		}
		return requireAffected(tag)
	})
}

func (r *PostgresUserRepository) AppendWatchHistory(ctx context.Context, userID, videoID string, at time.Time) error {
	return r.exec.run(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, `
            INSERT INTO watch_history (user_id, video_id, watched_at)
            VALUES ($1, $2, $3)
            ON CONFLICT (user_id, video_id) DO NOTHING
        `, userID, videoID, at)
		if err != nil {
			return writeError(err, "insert watch history")
		}
		return nil
	})
}

func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.exec.run(ctx, func(q db.Querier) error {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		rows, err := q.Query(ctx, `
            SELECT video_id FROM watch_history WHERE user_id = $1 ORDER BY watched_at, video_id
        `, userID)
		if err != nil {
			return fmt.Errorf("query watch history: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("scan watch history: %w", err)
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	return ids, err
}
