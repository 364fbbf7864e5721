package toggle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/apperr"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

var base = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   *repositories.MemoryStore
	alice   string
	bob     string
	videoID string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	f := fixture{store: store, alice: uuid.NewString(), bob: uuid.NewString(), videoID: uuid.NewString()}

	for _, id := range []string{f.alice, f.bob} {
		user := models.User{ID: id, Username: id, Email: id + "@example.com", CreatedAt: base, UpdatedAt: base}
		if err := store.Users().Create(ctx, user); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	video := models.Video{ID: f.videoID, OwnerID: f.alice, Title: "clip", IsPublished: true, CreatedAt: base, UpdatedAt: base}
	if err := store.Videos().Create(ctx, video); err != nil {
		t.Fatalf("create video: %v", err)
	}
	return f
}

func TestToggleLikeFlipsState(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, DefaultPolicy())
	ctx := context.Background()
	target := models.VideoTarget(f.videoID)

	for i, want := range []bool{true, false, true} {
		res, err := engine.ToggleLike(ctx, f.bob, target)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if res.Active != want {
			t.Fatalf("toggle %d: expected active=%v got %v", i, want, res.Active)
		}
	}

	stats, err := f.store.Likes().Stats(ctx, f.bob, models.TargetVideo, []string{f.videoID})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[f.videoID].Count != 1 {
		t.Fatalf("expected exactly one like, got %+v", stats[f.videoID])
	}
}

func TestToggleLikeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		policy Policy
		actor  string
		target models.LikeTarget
		kind   apperr.Kind
	}{
		{name: "malformed id", policy: DefaultPolicy(), actor: f.bob, target: models.VideoTarget("nope"), kind: apperr.InvalidArgument},
		{name: "unknown kind", policy: DefaultPolicy(), actor: f.bob, target: models.LikeTarget{Kind: "playlist", ID: f.videoID}, kind: apperr.InvalidArgument},
		{name: "anonymous", policy: DefaultPolicy(), actor: "", target: models.VideoTarget(f.videoID), kind: apperr.Forbidden},
		{name: "missing video", policy: DefaultPolicy(), actor: f.bob, target: models.VideoTarget(uuid.NewString()), kind: apperr.NotFound},
		{name: "missing comment", policy: DefaultPolicy(), actor: f.bob, target: models.CommentTarget(uuid.NewString()), kind: apperr.NotFound},
		{name: "missing tweet", policy: DefaultPolicy(), actor: f.bob, target: models.TweetTarget(uuid.NewString()), kind: apperr.NotFound},
		{name: "self like forbidden", policy: Policy{AllowSelfSubscribe: true}, actor: f.alice, target: models.VideoTarget(f.videoID), kind: apperr.InvalidArgument},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngine(f.store, tc.policy)
			_, err := engine.ToggleLike(ctx, tc.actor, tc.target)
			if got := apperr.KindOf(err); got != tc.kind {
				t.Fatalf("expected %q got %q (%v)", tc.kind, got, err)
			}
		})
	}
}

func TestToggleLikeSelfAllowedByDefault(t *testing.T) {
	f := newFixture(t)
	res, err := NewEngine(f.store, DefaultPolicy()).ToggleLike(context.Background(), f.alice, models.VideoTarget(f.videoID))
	if err != nil || !res.Active {
		t.Fatalf("expected self like to succeed, got %+v %v", res, err)
	}
}

func TestToggleSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := NewEngine(f.store, DefaultPolicy())

	res, err := engine.ToggleSubscription(ctx, f.bob, f.alice)
	if err != nil || !res.Active {
		t.Fatalf("expected subscription, got %+v %v", res, err)
	}
	res, err = engine.ToggleSubscription(ctx, f.bob, f.alice)
	if err != nil || res.Active {
		t.Fatalf("expected unsubscription, got %+v %v", res, err)
	}

	if _, err := engine.ToggleSubscription(ctx, f.bob, uuid.NewString()); !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := engine.ToggleSubscription(ctx, "", f.alice); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	strict := NewEngine(f.store, Policy{AllowSelfLike: true})
	if _, err := strict.ToggleSubscription(ctx, f.alice, f.alice); !apperr.IsKind(err, apperr.InvalidArgument) {
		t.Fatalf("expected invalid argument for self subscription, got %v", err)
	}
}

func TestToggleLikeConcurrentFirstTogglesLeaveOneEdge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := NewEngine(f.store, DefaultPolicy())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.ToggleLike(ctx, f.bob, models.VideoTarget(f.videoID)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("toggle: %v", err)
	}

	stats, err := f.store.Likes().Stats(ctx, f.bob, models.TargetVideo, []string{f.videoID})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[f.videoID].Count > 1 {
		t.Fatalf("expected at most one like edge, got %d", stats[f.videoID].Count)
	}
}

// racingStore hides existing likes from Find, so every create loses to the
// edge already present.
type racingStore struct {
	*repositories.MemoryStore
}

func (s racingStore) Likes() repositories.LikeRepository {
	return racingLikes{s.MemoryStore.Likes()}
}

type racingLikes struct {
	repositories.LikeRepository
}

func (racingLikes) Find(context.Context, string, models.LikeTarget) (models.Like, error) {
	return models.Like{}, repositories.ErrNotFound
}

func TestToggleLikeLostRaceReportsActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	like := models.Like{ID: uuid.NewString(), Target: models.VideoTarget(f.videoID), LikedBy: f.bob, CreatedAt: base}
	if err := f.store.Likes().Create(ctx, like); err != nil {
		t.Fatalf("seed like: %v", err)
	}

	engine := NewEngine(racingStore{f.store}, DefaultPolicy())
	res, err := engine.ToggleLike(ctx, f.bob, models.VideoTarget(f.videoID))
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !res.Active {
		t.Fatal("expected lost race to report active")
	}
}

type failingLikes struct {
	repositories.LikeRepository
}

func (failingLikes) Find(context.Context, string, models.LikeTarget) (models.Like, error) {
	return models.Like{}, errors.New("connection reset")
}

type failingStore struct {
	*repositories.MemoryStore
}

func (s failingStore) Likes() repositories.LikeRepository {
	return failingLikes{s.MemoryStore.Likes()}
}

func TestToggleLikeStoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	_, err := NewEngine(failingStore{f.store}, DefaultPolicy()).ToggleLike(context.Background(), f.bob, models.VideoTarget(f.videoID))
	if !apperr.IsKind(err, apperr.Internal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
