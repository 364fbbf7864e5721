package repositories

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// MemoryStore implements Store in process memory for tests and local
// development. It enforces the same uniqueness and user references as the
// SQL schema but cannot run transactions.
type MemoryStore struct {
	mu    sync.RWMutex
	seq   int64
	order map[string]int64

	users     map[string]models.User
	history   map[string][]string
	videos    map[string]models.Video
	comments  map[string]models.Comment
	tweets    map[string]models.Tweet
	likes     map[string]models.Like
	likeKeys  map[likeKey]string
	subs      map[string]models.Subscription
	subKeys   map[subKey]string
	playlists map[string]models.Playlist
}

type likeKey struct {
	user string
	kind models.TargetKind
	id   string
}

type subKey struct {
	subscriber string
	channel    string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		order:     make(map[string]int64),
		users:     make(map[string]models.User),
		history:   make(map[string][]string),
		videos:    make(map[string]models.Video),
		comments:  make(map[string]models.Comment),
		tweets:    make(map[string]models.Tweet),
		likes:     make(map[string]models.Like),
		likeKeys:  make(map[likeKey]string),
		subs:      make(map[string]models.Subscription),
		subKeys:   make(map[subKey]string),
		playlists: make(map[string]models.Playlist),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Users() UserRepository                 { return memoryUsers{s} }
func (s *MemoryStore) Videos() VideoRepository               { return memoryVideos{s} }
func (s *MemoryStore) Comments() CommentRepository           { return memoryComments{s} }
func (s *MemoryStore) Tweets() TweetRepository               { return memoryTweets{s} }
func (s *MemoryStore) Likes() LikeRepository                 { return memoryLikes{s} }
func (s *MemoryStore) Subscriptions() SubscriptionRepository { return memorySubscriptions{s} }
func (s *MemoryStore) Playlists() PlaylistRepository         { return memoryPlaylists{s} }

// Tx always reports ErrTxUnsupported.
func (s *MemoryStore) Tx(context.Context, func(Store) error) error {
	return ErrTxUnsupported
}

func (s *MemoryStore) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

// newerFirst orders by timestamp, then insertion order, both descending.
func (s *MemoryStore) newerFirst(aID string, aAt time.Time, bID string, bAt time.Time) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	return cmp.Compare(s.order[bID], s.order[aID])
}

func (s *MemoryStore) userExists(id string) bool {
	_, ok := s.users[id]
	return ok
}

// snapshotSource materializes its result set once, on first use, so Count
// and Fetch observe the same rows.
type snapshotSource[T any] struct {
	load  func() []T
	once  sync.Once
	items pagination.SliceSource[T]
}

func newSnapshot[T any](load func() []T) *snapshotSource[T] {
	return &snapshotSource[T]{load: load}
}

func (s *snapshotSource[T]) snapshot() pagination.SliceSource[T] {
	s.once.Do(func() { s.items = s.load() })
	return s.items
}

func (s *snapshotSource[T]) Count(ctx context.Context) (int, error) {
	return s.snapshot().Count(ctx)
}

func (s *snapshotSource[T]) Fetch(ctx context.Context, offset, limit int) ([]T, error) {
	return s.snapshot().Fetch(ctx, offset, limit)
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrConflict
		}
	}
	r.s.users[user.ID] = user
	r.s.track(user.ID)
	return nil
}

func (r memoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (r memoryUsers) FindByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if user, ok := r.s.users[id]; ok {
			found[id] = user
		}
	}
	return found, nil
}

func (r memoryUsers) findBy(match func(models.User) bool) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if match(user) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r memoryUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	return r.findBy(func(u models.User) bool { return u.Username == username })
}

func (r memoryUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	return r.findBy(func(u models.User) bool { return u.Email == email })
}

func (r memoryUsers) FindByRefreshToken(_ context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrNotFound
	}
	return r.findBy(func(u models.User) bool { return u.RefreshToken == token })
}

func (r memoryUsers) Update(_ context.Context, user models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range r.s.users {
		if id != user.ID && other.Email == user.Email {
			return ErrConflict
		}
	}

	existing.Email = user.Email
	existing.FullName = user.FullName
	existing.Avatar = user.Avatar
	existing.CoverImage = user.CoverImage
	existing.Password = user.Password
	existing.UpdatedAt = user.UpdatedAt
	r.s.users[user.ID] = existing
	return nil
}

func (r memoryUsers) SetRefreshToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.RefreshToken = token
	user.RefreshTokenExpiresAt = expiresAt
	r.s.users[userID] = user
	return nil
}

func (r memoryUsers) AppendWatchHistory(_ context.Context, userID, videoID string, _ time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.s.userExists(userID) {
		return ErrNotFound
	}
	if slices.Contains(r.s.history[userID], videoID) {
		return nil
	}
	r.s.history[userID] = append(r.s.history[userID], videoID)
	return nil
}

func (r memoryUsers) WatchHistory(_ context.Context, userID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if !r.s.userExists(userID) {
		return nil, ErrNotFound
	}
	return slices.Clone(r.s.history[userID]), nil
}

type memoryVideos struct{ s *MemoryStore }

func (r memoryVideos) Create(_ context.Context, video models.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.videos[video.ID]; ok {
		return ErrConflict
	}
	if !r.s.userExists(video.OwnerID) {
		return ErrNotFound
	}
	r.s.videos[video.ID] = video
	r.s.track(video.ID)
	return nil
}

func (r memoryVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	video, ok := r.s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

func (r memoryVideos) FindByIDs(_ context.Context, ids []string) (map[string]models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := make(map[string]models.Video, len(ids))
	for _, id := range ids {
		if video, ok := r.s.videos[id]; ok {
			found[id] = video
		}
	}
	return found, nil
}

func (r memoryVideos) Update(_ context.Context, video models.Video) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.videos[video.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title = video.Title
	existing.Description = video.Description
	existing.Thumbnail = video.Thumbnail
	existing.UpdatedAt = video.UpdatedAt
	r.s.videos[video.ID] = existing
	return nil
}

func (r memoryVideos) TogglePublished(_ context.Context, id string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	video, ok := r.s.videos[id]
	if !ok {
		return false, ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	video.UpdatedAt = at
	r.s.videos[id] = video
	return video.IsPublished, nil
}

func (r memoryVideos) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.videos[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.videos, id)
	return nil
}

func (r memoryVideos) IncrementViews(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	video, ok := r.s.videos[id]
	if !ok {
		return ErrNotFound
	}
	video.Views++
	r.s.videos[id] = video
	return nil
}

func (r memoryVideos) Search(query VideoQuery) pagination.Source[models.Video] {
	terms := strings.Fields(strings.ToLower(query.Text))
	return newSnapshot(func() []models.Video {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()

		matched := make([]models.Video, 0, len(r.s.videos))
		for _, video := range r.s.videos {
			if query.PublishedOnly && !video.IsPublished {
				continue
			}
			if query.OwnerID != "" && video.OwnerID != query.OwnerID {
				continue
			}
			if !matchesTerms(video, terms) {
				continue
			}
			matched = append(matched, video)
		}
		slices.SortFunc(matched, func(a, b models.Video) int {
			return r.compare(a, b, query.SortBy, query.Ascending)
		})
		return matched
	})
}

func matchesTerms(video models.Video, terms []string) bool {
	haystack := strings.ToLower(video.Title + " " + video.Description)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func (r memoryVideos) compare(a, b models.Video, field SortField, ascending bool) int {
	var c int
	switch field {
	case SortUpdatedAt:
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	case SortViews:
		c = cmp.Compare(a.Views, b.Views)
	case SortDuration:
		c = cmp.Compare(a.Duration, b.Duration)
	case SortTitle:
		c = strings.Compare(a.Title, b.Title)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if c == 0 {
		c = cmp.Compare(r.s.order[a.ID], r.s.order[b.ID])
	}
	if !ascending {
		c = -c
	}
	return c
}

func (r memoryVideos) LikedBy(userID string) pagination.Source[models.Video] {
	return newSnapshot(func() []models.Video {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()

		var likes []models.Like
		for _, like := range r.s.likes {
			if like.LikedBy == userID && like.Target.Kind == models.TargetVideo {
				likes = append(likes, like)
			}
		}
		slices.SortFunc(likes, func(a, b models.Like) int {
			return r.s.newerFirst(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
		})

		videos := make([]models.Video, 0, len(likes))
		for _, like := range likes {
			if video, ok := r.s.videos[like.Target.ID]; ok && video.IsPublished {
				videos = append(videos, video)
			}
		}
		return videos
	})
}

func (r memoryVideos) LatestPublished(_ context.Context, ownerIDs []string) (map[string]models.Video, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		wanted[id] = struct{}{}
	}

	latest := make(map[string]models.Video)
	for _, video := range r.s.videos {
		if !video.IsPublished {
			continue
		}
		if _, ok := wanted[video.OwnerID]; !ok {
			continue
		}
		current, ok := latest[video.OwnerID]
		if !ok || r.s.newerFirst(video.ID, video.CreatedAt, current.ID, current.CreatedAt) < 0 {
			latest[video.OwnerID] = video
		}
	}
	return latest, nil
}
