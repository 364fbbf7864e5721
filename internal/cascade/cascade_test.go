package cascade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

var base = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

type stubMedia struct {
	released []string
	fail     map[string]bool
}

func (s *stubMedia) Release(_ context.Context, handle string) error {
	if s.fail[handle] {
		return errors.New("bucket unavailable")
	}
	s.released = append(s.released, handle)
	return nil
}

type world struct {
	store    *repositories.MemoryStore
	owner    string
	fan      string
	video    models.Video
	other    models.Video
	comments []models.Comment
	tweet    models.Tweet
}

func newWorld(t *testing.T) world {
	t.Helper()
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	w := world{store: store, owner: uuid.NewString(), fan: uuid.NewString()}

	for _, id := range []string{w.owner, w.fan} {
		if err := store.Users().Create(ctx, models.User{ID: id, Username: id, Email: id + "@example.com"}); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	w.video = models.Video{
		ID: uuid.NewString(), OwnerID: w.owner, Title: "doomed", IsPublished: true,
		VideoFile: models.MediaRef{URL: "https://cdn/v", DeleteHandle: "videos/v"},
		Thumbnail: models.MediaRef{URL: "https://cdn/t", DeleteHandle: "thumbs/t"},
		CreatedAt: base, UpdatedAt: base,
	}
	w.other = models.Video{ID: uuid.NewString(), OwnerID: w.owner, Title: "survivor", IsPublished: true, CreatedAt: base, UpdatedAt: base}
	for _, v := range []models.Video{w.video, w.other} {
		if err := store.Videos().Create(ctx, v); err != nil {
			t.Fatalf("create video: %v", err)
		}
	}

	for i := 0; i < 2; i++ {
		c := models.Comment{ID: uuid.NewString(), VideoID: w.video.ID, OwnerID: w.fan, Content: "nice", CreatedAt: base, UpdatedAt: base}
		if err := store.Comments().Create(ctx, c); err != nil {
			t.Fatalf("create comment: %v", err)
		}
		w.comments = append(w.comments, c)
	}
	survivorComment := models.Comment{ID: uuid.NewString(), VideoID: w.other.ID, OwnerID: w.fan, Content: "keep", CreatedAt: base, UpdatedAt: base}
	if err := store.Comments().Create(ctx, survivorComment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	w.tweet = models.Tweet{ID: uuid.NewString(), OwnerID: w.owner, Content: "hello", CreatedAt: base, UpdatedAt: base}
	if err := store.Tweets().Create(ctx, w.tweet); err != nil {
		t.Fatalf("create tweet: %v", err)
	}

	targets := []models.LikeTarget{
		models.VideoTarget(w.video.ID),
		models.CommentTarget(w.comments[0].ID),
		models.CommentTarget(w.comments[1].ID),
		models.VideoTarget(w.other.ID),
		models.CommentTarget(survivorComment.ID),
		models.TweetTarget(w.tweet.ID),
	}
	for _, target := range targets {
		like := models.Like{ID: uuid.NewString(), Target: target, LikedBy: w.fan, CreatedAt: base}
		if err := store.Likes().Create(ctx, like); err != nil {
			t.Fatalf("create like: %v", err)
		}
	}
	return w
}

func TestDeleteVideoRemovesDependents(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	media := &stubMedia{}

	report, err := NewManager(w.store, media).DeleteVideo(ctx, w.video)
	if err != nil {
		t.Fatalf("delete video: %v", err)
	}
	want := Report{CommentsRemoved: 2, LikesRemoved: 3, MediaReleased: 2}
	if report != want {
		t.Fatalf("expected report %+v, got %+v", want, report)
	}

	if _, err := w.store.Videos().FindByID(ctx, w.video.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected video gone, got %v", err)
	}
	for _, c := range w.comments {
		if _, err := w.store.Comments().FindByID(ctx, c.ID); !errors.Is(err, repositories.ErrNotFound) {
			t.Fatalf("expected comment %s gone, got %v", c.ID, err)
		}
	}

	stats, err := w.store.Likes().Stats(ctx, w.fan, models.TargetVideo, []string{w.other.ID})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[w.other.ID].Count != 1 {
		t.Fatal("likes on other videos must survive")
	}
	remaining, err := w.store.Comments().IDsByVideo(ctx, w.other.ID)
	if err != nil || len(remaining) != 1 {
		t.Fatalf("expected survivor comment to remain, got %v %v", remaining, err)
	}
	if len(media.released) != 2 {
		t.Fatalf("expected both media objects released, got %v", media.released)
	}
}

func TestDeleteVideoMediaFailureIsStorageError(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	media := &stubMedia{fail: map[string]bool{"thumbs/t": true}}

	report, err := NewManager(w.store, media).DeleteVideo(ctx, w.video)
	if !apperr.IsKind(err, apperr.StorageError) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if report.MediaReleased != 1 || report.CommentsRemoved != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	// Store steps are not rolled back.
	if _, err := w.store.Videos().FindByID(ctx, w.video.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected video to stay deleted, got %v", err)
	}
}

func TestDeleteVideoSkipsEmptyHandles(t *testing.T) {
	w := newWorld(t)
	media := &stubMedia{}

	report, err := NewManager(w.store, media).DeleteVideo(context.Background(), w.other)
	if err != nil {
		t.Fatalf("delete video: %v", err)
	}
	if report.MediaReleased != 0 || len(media.released) != 0 {
		t.Fatalf("expected no release calls, got %v", media.released)
	}
}

func TestDeleteVideoTwiceIsNotFound(t *testing.T) {
	w := newWorld(t)
	manager := NewManager(w.store, &stubMedia{})
	if _, err := manager.DeleteVideo(context.Background(), w.video); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if _, err := manager.DeleteVideo(context.Background(), w.video); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDeleteCommentAndTweet(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	manager := NewManager(w.store, nil)

	report, err := manager.DeleteComment(ctx, w.comments[0])
	if err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if report.LikesRemoved != 1 {
		t.Fatalf("expected one like removed, got %+v", report)
	}

	report, err = manager.DeleteTweet(ctx, w.tweet)
	if err != nil {
		t.Fatalf("delete tweet: %v", err)
	}
	if report.LikesRemoved != 1 {
		t.Fatalf("expected one like removed, got %+v", report)
	}
	if _, err := w.store.Likes().Find(ctx, w.fan, models.TweetTarget(w.tweet.ID)); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected tweet like gone, got %v", err)
	}
}

func TestDeletePlaylist(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	playlist := models.Playlist{ID: uuid.NewString(), OwnerID: w.owner, Name: "mix", CreatedAt: base, UpdatedAt: base}
	if err := w.store.Playlists().Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}
	manager := NewManager(w.store, nil)
	if _, err := manager.DeletePlaylist(ctx, playlist); err != nil {
		t.Fatalf("delete playlist: %v", err)
	}
	if _, err := manager.DeletePlaylist(ctx, playlist); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// txStore runs Tx against itself and records that it did.
type txStore struct {
	*repositories.MemoryStore
	calls int
}

func (s *txStore) Tx(ctx context.Context, fn func(repositories.Store) error) error {
	s.calls++
	return fn(s)
}

func TestCascadeUsesTransactionWhenAvailable(t *testing.T) {
	w := newWorld(t)
	store := &txStore{MemoryStore: w.store}

	if _, err := NewManager(store, nil).DeleteTweet(context.Background(), w.tweet); err != nil {
		t.Fatalf("delete tweet: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected one transaction, got %d", store.calls)
	}
}

type brokenLikes struct {
	repositories.LikeRepository
}

func (brokenLikes) DeleteByTargets(context.Context, models.TargetKind, []string) (int64, error) {
	return 0, errors.New("disk full")
}

type brokenStore struct {
	*repositories.MemoryStore
}

func (s brokenStore) Likes() repositories.LikeRepository {
	return brokenLikes{s.MemoryStore.Likes()}
}

func TestCascadeStoreFailureSurfaces(t *testing.T) {
	w := newWorld(t)
	_, err := NewManager(brokenStore{w.store}, nil).DeleteComment(context.Background(), w.comments[0])
	if !apperr.IsKind(err, apperr.Internal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
